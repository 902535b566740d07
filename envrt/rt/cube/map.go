package cube

import (
	"fmt"
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Map is a six-face square environment map. Faces are stored top row first.
// Every write to a face is published with Touch, which bumps that face's revision;
// uploaders compare revisions to decide what to copy to the GPU.
type Map struct {
	id    uuid.UUID
	size  int
	faces [NumFaces]*image.RGBA
	mips  [NumFaces][]*image.RGBA
	revs  [NumFaces]uint64

	frozen   bool
	released bool
}

func NewMap(size int) *Map {
	if size <= 0 {
		panic(fmt.Sprintf("cube: invalid map size %d", size))
	}
	m := &Map{
		id:   uuid.New(),
		size: size,
	}
	for f := range m.faces {
		m.faces[f] = image.NewRGBA(image.Rect(0, 0, size, size))
	}
	return m
}

func (m *Map) ID() uuid.UUID { return m.id }

func (m *Map) Size() int { return m.size }

// Face returns the writable image of face f. Callers that write into it must Touch it.
func (m *Map) Face(f Face) *image.RGBA {
	m.mustLive()
	if !f.Valid() {
		panic(fmt.Sprintf("cube: invalid face %d", int(f)))
	}
	return m.faces[f]
}

// Mips returns the mip chain of face f below level 0, largest first.
func (m *Map) Mips(f Face) []*image.RGBA {
	m.mustLive()
	return m.mips[f]
}

func (m *Map) Revision(f Face) uint64 { return m.revs[f] }

// Touch marks the faces in mask as rewritten.
func (m *Map) Touch(mask FaceMask) {
	m.mustLive()
	if m.frozen {
		panic(fmt.Sprintf("cube: write to frozen map %s", m.id))
	}
	for _, f := range mask.Faces() {
		m.revs[f]++
	}
}

// Fill paints the faces in mask with a single color and touches them.
func (m *Map) Fill(mask FaceMask, c color.RGBA) {
	for _, f := range mask.Faces() {
		img := m.Face(f)
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i+0] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = c.A
		}
	}
	m.Touch(mask)
}

// Sample returns the texel of level 0 that dir points at (nearest filtering).
func (m *Map) Sample(dir mgl32.Vec3) color.RGBA {
	m.mustLive()
	if dir.ApproxEqual(mgl32.Vec3{}) {
		return color.RGBA{}
	}
	f, u, v := Locate(dir)
	x := clampTexel(int((u+1)*0.5*float32(m.size)), m.size)
	y := clampTexel(int((v+1)*0.5*float32(m.size)), m.size)
	return m.faces[f].RGBAAt(x, y)
}

func clampTexel(i, size int) int {
	if i < 0 {
		return 0
	}
	if i >= size {
		return size - 1
	}
	return i
}

// Freeze makes the map read-only; any later Touch panics.
func (m *Map) Freeze() { m.frozen = true }

func (m *Map) Frozen() bool { return m.frozen }

// Release drops the face images. The map must not be used afterwards.
func (m *Map) Release() {
	if m.released {
		return
	}
	m.released = true
	for f := range m.faces {
		m.faces[f] = nil
		m.mips[f] = nil
	}
}

func (m *Map) Released() bool { return m.released }

func (m *Map) mustLive() {
	if m.released {
		panic(fmt.Sprintf("cube: use of released map %s", m.id))
	}
}
