package capture

import (
	"testing"

	"github.com/gekko3d/envprobe/envrt/rt/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	pass    string
	mask    cube.FaceMask
	origin  mgl32.Vec3
	visible []bool
}

type recordingCamera struct {
	calls     []call
	renderers []*toggle
	onRender  func()
}

func (c *recordingCamera) RenderFaces(target *cube.Map, origin mgl32.Vec3, mask cube.FaceMask, pass Pass) {
	vis := make([]bool, len(c.renderers))
	for i, r := range c.renderers {
		vis[i] = r.Enabled()
	}
	c.calls = append(c.calls, call{pass: pass.Name, mask: mask, origin: origin, visible: vis})
	if c.onRender != nil {
		c.onRender()
	}
}

type toggle struct{ on bool }

func (t *toggle) Enabled() bool           { return t.on }
func (t *toggle) SetEnabled(enabled bool) { t.on = enabled }

func TestCaptureRunsPassesInOrder(t *testing.T) {
	cam := &recordingCamera{}
	c := NewCapturer(cam)
	target := cube.NewMap(8)
	origin := mgl32.Vec3{1, 2, 3}

	c.Capture(target, origin, cube.NegativeY.Mask(), nil)

	require.Len(t, cam.calls, 3)
	assert.Equal(t, "sky", cam.calls[0].pass)
	assert.Equal(t, "bodies", cam.calls[1].pass)
	assert.Equal(t, "near", cam.calls[2].pass)
	for _, call := range cam.calls {
		assert.Equal(t, cube.NegativeY.Mask(), call.mask)
		assert.Equal(t, origin, call.origin)
	}
}

func TestDefaultPassConfiguration(t *testing.T) {
	require.Len(t, DefaultPasses, 3)
	sky, bodies, near := DefaultPasses[0], DefaultPasses[1], DefaultPasses[2]

	assert.Equal(t, LayerMask(1<<18), sky.Layers)
	assert.Equal(t, float32(0.5), sky.NearClip)
	assert.Equal(t, float32(100), sky.FarClip)
	assert.True(t, sky.ClearColor)

	assert.Equal(t, LayerMask(1<<10|1<<9), bodies.Layers)
	assert.Equal(t, float32(1), bodies.NearClip)
	assert.Equal(t, float32(3.0e7), bodies.FarClip)
	assert.False(t, bodies.ClearColor)

	assert.Equal(t, LayerMask(1|1<<1|1<<4|1<<15|1<<23), near.Layers)
	assert.Equal(t, float32(0.5), near.NearClip)
	assert.Equal(t, float32(6.0e4), near.FarClip)
}

func TestCaptureTouchesOnlyMaskedFacesOnce(t *testing.T) {
	c := NewCapturer(&recordingCamera{})
	target := cube.NewMap(8)

	c.Capture(target, mgl32.Vec3{}, cube.PositiveX.Mask()|cube.PositiveZ.Mask(), nil)

	for f := cube.PositiveX; f < cube.NumFaces; f++ {
		want := uint64(0)
		if f == cube.PositiveX || f == cube.PositiveZ {
			want = 1
		}
		assert.Equal(t, want, target.Revision(f), "%s", f)
	}
	captures, faces := c.Stats()
	assert.Equal(t, uint64(1), captures)
	assert.Equal(t, uint64(2), faces)
}

func TestCaptureHidesAndRestoresRenderers(t *testing.T) {
	shown := &toggle{on: true}
	alreadyHidden := &toggle{on: false}
	bystander := &toggle{on: true}
	cam := &recordingCamera{renderers: []*toggle{shown, alreadyHidden, bystander}}
	c := NewCapturer(cam)

	c.Capture(cube.NewMap(4), mgl32.Vec3{}, cube.AllFaces, []Renderer{shown, alreadyHidden, nil})

	for _, call := range cam.calls {
		assert.Equal(t, []bool{false, false, true}, call.visible, call.pass)
	}
	assert.True(t, shown.on)
	assert.False(t, alreadyHidden.on, "a renderer hidden before the capture stays hidden")
	assert.True(t, bystander.on)
}

func TestCaptureRestoresRenderersOnPanic(t *testing.T) {
	own := &toggle{on: true}
	cam := &recordingCamera{onRender: func() { panic("device lost") }}
	c := NewCapturer(cam)

	assert.PanicsWithValue(t, "device lost", func() {
		c.Capture(cube.NewMap(4), mgl32.Vec3{}, cube.AllFaces, []Renderer{own})
	})
	assert.True(t, own.on)

	cam.onRender = nil
	assert.NotPanics(t, func() { c.Capture(cube.NewMap(4), mgl32.Vec3{}, cube.AllFaces, nil) })
}

func TestCaptureContractViolations(t *testing.T) {
	c := NewCapturer(&recordingCamera{})

	assert.Panics(t, func() { NewCapturer(nil) })
	assert.Panics(t, func() { (*Capturer)(nil).Capture(cube.NewMap(4), mgl32.Vec3{}, cube.AllFaces, nil) })
	assert.Panics(t, func() { c.Capture(nil, mgl32.Vec3{}, cube.AllFaces, nil) })
	assert.Panics(t, func() { c.Capture(cube.NewMap(4), mgl32.Vec3{}, 0, nil) })

	released := cube.NewMap(4)
	released.Release()
	assert.Panics(t, func() { c.Capture(released, mgl32.Vec3{}, cube.AllFaces, nil) })

	frozen := cube.NewMap(4)
	frozen.Freeze()
	assert.Panics(t, func() { c.Capture(frozen, mgl32.Vec3{}, cube.AllFaces, nil) })
}

func TestCaptureIsNotReentrant(t *testing.T) {
	cam := &recordingCamera{}
	c := NewCapturer(cam)
	cam.onRender = func() {
		cam.onRender = nil
		c.Capture(cube.NewMap(4), mgl32.Vec3{}, cube.AllFaces, nil)
	}
	assert.PanicsWithValue(t, "capture: camera already in use", func() {
		c.Capture(cube.NewMap(4), mgl32.Vec3{}, cube.AllFaces, nil)
	})
}
