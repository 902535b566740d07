// Package capture renders a world position into the faces of a cube map using
// one shared camera and a fixed sequence of compositing passes.
package capture

import (
	"fmt"

	"github.com/gekko3d/envprobe/envrt/rt/cube"
	"github.com/go-gl/mathgl/mgl32"
)

// LayerMask selects render layers, one bit per layer.
type LayerMask uint32

const (
	LayerDefault       LayerMask = 1 << 0
	LayerTransparentFX LayerMask = 1 << 1
	LayerWater         LayerMask = 1 << 4
	LayerAtmosphere    LayerMask = 1 << 9
	LayerScaledScenery LayerMask = 1 << 10
	LayerLocalScenery  LayerMask = 1 << 15
	LayerSkybox        LayerMask = 1 << 18
	LayerParts         LayerMask = 1 << 23
	LayerNone          LayerMask = 0
	LayerEverything    LayerMask = ^LayerMask(0)
)

// Pass is one camera configuration of the compositing sequence.
type Pass struct {
	Name     string
	Layers   LayerMask
	NearClip float32
	FarClip  float32
	// ClearColor clears the faces before drawing; later passes only clear depth.
	ClearColor bool
}

// DefaultPasses: distant sky, distant large-scale bodies, near scene.
var DefaultPasses = []Pass{
	{
		Name:       "sky",
		Layers:     LayerSkybox,
		NearClip:   0.5,
		FarClip:    100,
		ClearColor: true,
	},
	{
		Name:     "bodies",
		Layers:   LayerScaledScenery | LayerAtmosphere,
		NearClip: 1,
		FarClip:  3.0e7,
	},
	{
		Name:     "near",
		Layers:   LayerDefault | LayerTransparentFX | LayerWater | LayerLocalScenery | LayerParts,
		NearClip: 0.5,
		FarClip:  6.0e4,
	},
}

// Camera is the shared capture viewpoint. RenderFaces draws the layers of pass
// seen from origin into the faces of target selected by mask, and nothing else.
type Camera interface {
	RenderFaces(target *cube.Map, origin mgl32.Vec3, mask cube.FaceMask, pass Pass)
}

// Renderer is a mesh renderer whose visibility can be toggled.
type Renderer interface {
	Enabled() bool
	SetEnabled(enabled bool)
}

// Capturer owns the exclusive use of a Camera. It is not reentrant.
type Capturer struct {
	camera Camera
	passes []Pass
	busy   bool

	captures uint64
	faces    uint64
}

func NewCapturer(camera Camera, passes ...Pass) *Capturer {
	if camera == nil {
		panic("capture: nil camera")
	}
	if len(passes) == 0 {
		passes = DefaultPasses
	}
	return &Capturer{
		camera: camera,
		passes: append([]Pass(nil), passes...),
	}
}

func (c *Capturer) Camera() Camera { return c.camera }

func (c *Capturer) Passes() []Pass { return append([]Pass(nil), c.passes...) }

// Capture renders every pass into the faces of target selected by mask, with the
// renderers in hide switched off for the duration. Faces outside mask are untouched.
func (c *Capturer) Capture(target *cube.Map, origin mgl32.Vec3, mask cube.FaceMask, hide []Renderer) {
	if c == nil || c.camera == nil {
		panic("capture: no capture camera")
	}
	if target == nil || target.Released() {
		panic("capture: nil or released target map")
	}
	if target.Frozen() {
		panic(fmt.Sprintf("capture: target map %s is read-only", target.ID()))
	}
	mask &= cube.AllFaces
	if mask.Empty() {
		panic("capture: empty face mask")
	}
	if c.busy {
		panic("capture: camera already in use")
	}
	c.busy = true
	defer func() { c.busy = false }()

	hidden := make([]Renderer, 0, len(hide))
	for _, r := range hide {
		if r != nil && r.Enabled() {
			r.SetEnabled(false)
			hidden = append(hidden, r)
		}
	}
	defer func() {
		for _, r := range hidden {
			r.SetEnabled(true)
		}
	}()

	for _, pass := range c.passes {
		c.camera.RenderFaces(target, origin, mask, pass)
	}
	target.Touch(mask)

	c.captures++
	c.faces += uint64(mask.Count())
}

// Stats reports the number of Capture calls and faces rendered so far.
func (c *Capturer) Stats() (captures, faces uint64) {
	return c.captures, c.faces
}
