package probe

import (
	"math/rand/v2"
	"testing"

	"github.com/gekko3d/envprobe/envrt/rt/capture"
	"github.com/gekko3d/envprobe/envrt/rt/core"
	"github.com/gekko3d/envprobe/envrt/rt/cube"
	"github.com/gekko3d/envprobe/envrt/rt/material"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shot struct {
	origin mgl32.Vec3
	mask   cube.FaceMask
}

// shotCamera records one shot per capture, on its first pass.
type shotCamera struct {
	shots    []shot
	onRender func()
}

func (c *shotCamera) RenderFaces(target *cube.Map, origin mgl32.Vec3, mask cube.FaceMask, pass capture.Pass) {
	if !pass.ClearColor {
		return
	}
	c.shots = append(c.shots, shot{origin: origin, mask: mask})
	if c.onRender != nil {
		c.onRender()
	}
}

var testShader = &material.Shader{Name: "Reflective/Visor", Backend: "vulkan", Source: "// wgsl"}

func newScheduler(globalInterval int) (*Scheduler, *shotCamera) {
	cam := &shotCamera{}
	s := NewScheduler(Config{
		Capturer:       capture.NewCapturer(cam),
		EnvMapSize:     4,
		GlobalInterval: globalInterval,
		Shader:         testShader,
		Rand:           rand.New(rand.NewPCG(7, 11)),
	})
	return s, cam
}

type kerbal struct {
	body  *core.Node
	head  *core.Node
	suit  *material.Material
	visor *material.Material
}

func newKerbal(name string, x float32) *kerbal {
	body := core.NewNode(name)
	body.Local.Position = mgl32.Vec3{x, 0, 0}
	head := body.AddChild(core.NewNode("helmet"))
	head.Local.Position = mgl32.Vec3{0, 1, 0}
	return &kerbal{
		body:  body,
		head:  head,
		suit:  material.NewMaterial(name + "/suit"),
		visor: material.NewMaterial(name + "/visor"),
	}
}

func (k *kerbal) target(eva bool) Target {
	return Target{
		Name:      k.body.Name,
		Transform: k.body.Ref(),
		Head:      k.head.Ref(),
		IsEva:     eva,
		Surfaces:  []material.Surface{k.suit},
		Visor:     k.visor,
	}
}

func attach(s *Scheduler, n, interval int) []*Probe {
	res := make([]*Probe, n)
	for i := range res {
		res[i] = CreateAndAttach(s, newKerbal("k", float32(i)).target(false), interval)
	}
	return res
}

func TestCreateAndAttachRendersAllFacesAtOnce(t *testing.T) {
	s, cam := newScheduler(1)
	k := newKerbal("jeb", 3)

	p := CreateAndAttach(s, k.target(true), 4)

	require.Len(t, cam.shots, 1)
	assert.Equal(t, cube.AllFaces, cam.shots[0].mask)
	for f := cube.PositiveX; f < cube.NumFaces; f++ {
		assert.Equal(t, uint64(1), p.Map().Revision(f))
	}
	assert.Equal(t, 4, p.Map().Size())
	assert.GreaterOrEqual(t, p.Counter(), 0)
	assert.Less(t, p.Counter(), 4)
	assert.True(t, p.CurrentFace().Valid())
	assert.True(t, p.Active())
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, uint64(1), p.Updates())
}

func TestEvaProbeTracksHelmetAndBindsVisor(t *testing.T) {
	s, cam := newScheduler(1)
	k := newKerbal("bill", 3)

	p := CreateAndAttach(s, k.target(true), 1)
	assert.True(t, p.Eva())
	assert.Equal(t, mgl32.Vec3{3, 1, 0}, cam.shots[0].origin)
	assert.Same(t, p.Map(), k.visor.EnvMap())
	assert.Same(t, testShader, k.visor.Shader())
	assert.Same(t, p.Map(), k.suit.EnvMap())
}

func TestVesselProbeTracksOwnTransform(t *testing.T) {
	s, cam := newScheduler(1)
	k := newKerbal("capsule", -2)

	p := CreateAndAttach(s, k.target(false), 1)
	assert.False(t, p.Eva())
	assert.Equal(t, mgl32.Vec3{-2, 0, 0}, cam.shots[0].origin)
	assert.Nil(t, k.visor.EnvMap(), "visor is an EVA surface")
	assert.Same(t, p.Map(), k.suit.EnvMap())
}

func TestCreateAndAttachClampsInterval(t *testing.T) {
	s, _ := newScheduler(1)
	p := CreateAndAttach(s, newKerbal("k", 0).target(false), 0)
	assert.Equal(t, 1, p.Interval())
	assert.Equal(t, 0, p.Counter())
}

func TestCreateAndAttachContractViolations(t *testing.T) {
	s, _ := newScheduler(1)
	assert.Panics(t, func() { CreateAndAttach(nil, newKerbal("k", 0).target(false), 1) })
	assert.Panics(t, func() { CreateAndAttach(s, Target{Name: "ghost"}, 1) })
}

func TestSeededStaggerIsDeterministic(t *testing.T) {
	counters := func() ([]int, []cube.Face) {
		s, _ := newScheduler(1)
		var cs []int
		var fs []cube.Face
		for _, p := range attach(s, 8, 5) {
			cs = append(cs, p.Counter())
			fs = append(fs, p.CurrentFace())
		}
		return cs, fs
	}
	c1, f1 := counters()
	c2, f2 := counters()
	assert.Equal(t, c1, c2)
	assert.Equal(t, f1, f2)
}

func TestSetActiveReactivationRefreshesAllFaces(t *testing.T) {
	s, cam := newScheduler(1)
	p := attach(s, 1, 1)[0]

	p.SetActive(false)
	for frame := uint64(0); frame < 5; frame++ {
		assert.Nil(t, s.Tick(frame))
	}
	require.Len(t, cam.shots, 1, "inactive probes are never serviced")
	counter := p.Counter()

	p.SetActive(true)
	require.Len(t, cam.shots, 2)
	assert.Equal(t, cube.AllFaces, cam.shots[1].mask)
	assert.Equal(t, counter, p.Counter())

	p.SetActive(true)
	assert.Len(t, cam.shots, 2)
}

func TestRefreshRendersAllFaces(t *testing.T) {
	s, cam := newScheduler(1)
	ps := attach(s, 2, 1)
	ps[1].SetActive(false)

	s.RefreshAll()
	require.Len(t, cam.shots, 3)
	assert.Equal(t, cube.AllFaces, cam.shots[2].mask)
}

func TestDestroyUnbindsAndReleases(t *testing.T) {
	s, _ := newScheduler(1)
	k := newKerbal("val", 0)
	p := CreateAndAttach(s, k.target(true), 1)
	env := p.Map()

	p.Destroy()
	assert.True(t, p.Destroyed())
	assert.Nil(t, p.Map())
	assert.True(t, env.Released())
	assert.Nil(t, k.visor.EnvMap())
	assert.Nil(t, k.suit.EnvMap())
	assert.Equal(t, 0, s.Len())

	assert.NotPanics(t, p.Destroy)
	p.SetActive(true)
	p.Refresh()
	assert.False(t, p.Active())
}
