package gpu

import (
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/envprobe/envrt/rt/cube"
)

// CubeTexture is the device copy of a cube.Map: a six-layer texture with a cube
// view. Sync uploads only the faces whose revision moved since the last upload.
type CubeTexture struct {
	src     *cube.Map
	levels  uint32
	texture *wgpu.Texture
	View    *wgpu.TextureView

	uploaded [cube.NumFaces]uint64
	synced   bool
}

func NewCubeTexture(device *wgpu.Device, m *cube.Map) (*CubeTexture, error) {
	levels := uint32(1 + len(m.Mips(cube.PositiveX)))
	size := uint32(m.Size())
	texture, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: fmt.Sprintf("EnvMap %s", m.ID()),
		Size: wgpu.Extent3D{
			Width:              size,
			Height:             size,
			DepthOrArrayLayers: cube.NumFaces,
		},
		MipLevelCount: levels,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	view, err := texture.CreateView(&wgpu.TextureViewDescriptor{
		Label:           "EnvMap cube view",
		Format:          wgpu.TextureFormatRGBA8Unorm,
		Dimension:       wgpu.TextureViewDimensionCube,
		BaseMipLevel:    0,
		MipLevelCount:   levels,
		BaseArrayLayer:  0,
		ArrayLayerCount: cube.NumFaces,
	})
	if err != nil {
		texture.Release()
		return nil, err
	}
	return &CubeTexture{src: m, levels: levels, texture: texture, View: view}, nil
}

func (t *CubeTexture) Source() *cube.Map { return t.src }

// Stale lists the faces that changed since the last Sync.
func (t *CubeTexture) Stale() cube.FaceMask {
	return staleFaces(t.src, t.uploaded, t.synced)
}

// Sync uploads stale faces, every mip level included, and returns what it uploaded.
func (t *CubeTexture) Sync(queue *wgpu.Queue) (cube.FaceMask, error) {
	if t.src.Released() {
		return 0, nil
	}
	stale := t.Stale()
	for _, f := range stale.Faces() {
		if err := t.writeLevel(queue, f, 0, t.src.Face(f)); err != nil {
			return 0, err
		}
		for i, img := range t.src.Mips(f) {
			if uint32(i+1) >= t.levels {
				break
			}
			if err := t.writeLevel(queue, f, uint32(i+1), img); err != nil {
				return 0, err
			}
		}
		t.uploaded[f] = t.src.Revision(f)
	}
	t.synced = true
	return stale, nil
}

func (t *CubeTexture) writeLevel(queue *wgpu.Queue, f cube.Face, level uint32, img *image.RGBA) error {
	w, h := uint32(img.Rect.Dx()), uint32(img.Rect.Dy())
	extent := wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}
	err := queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Aspect:   wgpu.TextureAspectAll,
			Texture:  t.texture,
			MipLevel: level,
			Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: uint32(f)},
		},
		img.Pix,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(img.Stride),
			RowsPerImage: h,
		},
		&extent,
	)
	if err != nil {
		return fmt.Errorf("upload %s level %d: %w", f, level, err)
	}
	return nil
}

func (t *CubeTexture) Release() {
	if t.View != nil {
		t.View.Release()
		t.View = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

func staleFaces(m *cube.Map, uploaded [cube.NumFaces]uint64, synced bool) cube.FaceMask {
	if !synced {
		return cube.AllFaces
	}
	var mask cube.FaceMask
	for f := cube.Face(0); f < cube.NumFaces; f++ {
		if m.Revision(f) != uploaded[f] {
			mask |= f.Mask()
		}
	}
	return mask
}
