// Package soft is a CPU capture camera: it ray casts a small layered scene into
// cube map faces. It stands in for a GPU camera wherever none is available.
package soft

import (
	"image/color"

	"github.com/gekko3d/envprobe/envrt/rt/capture"
	"github.com/gekko3d/envprobe/envrt/rt/cube"
	"github.com/go-gl/mathgl/mgl32"
)

// PassRecord describes one RenderFaces call, kept for diagnostics.
type PassRecord struct {
	Pass   string
	Mask   cube.FaceMask
	Origin mgl32.Vec3
}

type Camera struct {
	Scene *Scene

	// History keeps the last HistoryLimit passes rendered, oldest first.
	History      []PassRecord
	HistoryLimit int
}

func NewCamera(scene *Scene) *Camera {
	if scene == nil {
		scene = NewScene()
	}
	return &Camera{Scene: scene, HistoryLimit: 64}
}

var _ capture.Camera = (*Camera)(nil)

func (c *Camera) RenderFaces(target *cube.Map, origin mgl32.Vec3, mask cube.FaceMask, pass capture.Pass) {
	c.record(PassRecord{Pass: pass.Name, Mask: mask, Origin: origin})

	objects := c.visible(pass.Layers)
	sky := c.Scene.Sky
	drawSky := sky != nil && pass.Layers&sky.Layer != 0 &&
		sky.Radius >= pass.NearClip && sky.Radius <= pass.FarClip

	size := target.Size()
	inv := 2 / float32(size)
	for _, f := range mask.Faces() {
		img := target.Face(f)
		for y := 0; y < size; y++ {
			v := (float32(y)+0.5)*inv - 1
			row := img.Pix[y*img.Stride:]
			for x := 0; x < size; x++ {
				u := (float32(x)+0.5)*inv - 1
				dir := f.Direction(u, v).Normalize()

				px := row[x*4 : x*4+4 : x*4+4]
				dst := color.RGBA{R: px[0], G: px[1], B: px[2], A: px[3]}
				if pass.ClearColor {
					dst = c.Scene.Clear
				}
				if drawSky {
					dst = sky.shade(dir)
				}
				if hit, ok := c.trace(objects, origin, dir, pass); ok {
					dst = over(dst, hit)
				}
				px[0], px[1], px[2], px[3] = dst.R, dst.G, dst.B, dst.A
			}
		}
	}
}

// trace finds the nearest object hit inside the pass clip range. Depth is not
// shared between passes, so nearer objects of an earlier pass are overdrawn.
func (c *Camera) trace(objects []*Object, origin, dir mgl32.Vec3, pass capture.Pass) (color.RGBA, bool) {
	var (
		best   *Object
		bestT  = pass.FarClip
		normal mgl32.Vec3
	)
	for _, o := range objects {
		t, n, ok := o.Shape.Intersect(origin, dir)
		if !ok || t < pass.NearClip || t > bestT {
			continue
		}
		best, bestT, normal = o, t, n
	}
	if best == nil {
		return color.RGBA{}, false
	}
	return c.Scene.shadeObject(best, normal), true
}

func (c *Camera) visible(layers capture.LayerMask) []*Object {
	var res []*Object
	for _, o := range c.Scene.Objects {
		if o.Enabled() && o.Shape != nil && o.Layer&layers != 0 {
			res = append(res, o)
		}
	}
	return res
}

func (c *Camera) record(r PassRecord) {
	if c.HistoryLimit <= 0 {
		return
	}
	c.History = append(c.History, r)
	if extra := len(c.History) - c.HistoryLimit; extra > 0 {
		c.History = append(c.History[:0], c.History[extra:]...)
	}
}
