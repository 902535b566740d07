package probe

import (
	"testing"

	"github.com/gekko3d/envprobe/envrt/rt/capture"
	"github.com/gekko3d/envprobe/envrt/rt/cube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickCapturesAtMostOneFace(t *testing.T) {
	s, cam := newScheduler(1)
	attach(s, 10, 1)
	before := len(cam.shots)

	for frame := uint64(0); frame < 50; frame++ {
		n := len(cam.shots)
		s.Tick(frame)
		require.LessOrEqual(t, len(cam.shots)-n, 1)
		if len(cam.shots) > n {
			assert.Equal(t, 1, cam.shots[len(cam.shots)-1].mask.Count())
		}
	}
	assert.Equal(t, 50, len(cam.shots)-before)
	assert.Equal(t, uint64(50), s.Stats().Captures)
}

func TestTickThrottlesOnGlobalInterval(t *testing.T) {
	s, cam := newScheduler(2)
	attach(s, 1, 1)
	before := len(cam.shots)

	assert.Nil(t, s.Tick(1))
	assert.Nil(t, s.Tick(3))
	assert.NotNil(t, s.Tick(4))
	assert.Equal(t, 1, len(cam.shots)-before)
	assert.Equal(t, Stats{Ticks: 3, Throttled: 2, Captures: 1}, s.Stats())
}

func TestEveryActiveProbeIsEventuallyServiced(t *testing.T) {
	s, _ := newScheduler(1)
	probes := attach(s, 5, 3)
	probes[2].SetActive(false)

	served := map[*Probe]int{}
	for frame := uint64(0); frame < uint64(4*3); frame++ {
		if p := s.Tick(frame); p != nil {
			served[p]++
		}
	}
	for i, p := range probes {
		if i == 2 {
			assert.Zero(t, served[p])
			continue
		}
		assert.GreaterOrEqual(t, served[p], 1, "probe %d", i)
	}
}

func TestIncrementalUpdateRotatesFaces(t *testing.T) {
	s, cam := newScheduler(1)
	p := attach(s, 1, 1)[0]
	start := p.CurrentFace()

	want := start
	for frame := uint64(0); frame < 12; frame++ {
		require.Same(t, p, s.Tick(frame))
		assert.Equal(t, want.Mask(), cam.shots[len(cam.shots)-1].mask)
		want = want.Next()
		assert.Equal(t, want, p.CurrentFace())
	}
	assert.Equal(t, start, p.CurrentFace(), "back to the start after two full turns")
	for f := cube.PositiveX; f < cube.NumFaces; f++ {
		assert.Equal(t, uint64(3), p.Map().Revision(f), "one full update and two incremental turns")
	}
}

func TestProbesShareCaptureEqually(t *testing.T) {
	s, _ := newScheduler(1)
	probes := attach(s, 4, 1)

	served := map[*Probe]int{}
	for frame := uint64(0); frame < 400; frame++ {
		served[s.Tick(frame)]++
	}
	for i, p := range probes {
		assert.Equal(t, 100, served[p], "probe %d", i)
	}
}

func TestProbeIntervalSpacesItsUpdates(t *testing.T) {
	s, _ := newScheduler(1)
	p := attach(s, 1, 3)[0]

	var serviced []uint64
	for frame := uint64(0); frame < 12; frame++ {
		if s.Tick(frame) != nil {
			serviced = append(serviced, frame)
		}
	}
	require.Len(t, serviced, 4)
	for i := 1; i < len(serviced); i++ {
		assert.Equal(t, uint64(3), serviced[i]-serviced[i-1])
	}
	assert.Less(t, p.Counter(), 3)
}

func TestCursorAdjustsOnRemoval(t *testing.T) {
	s, _ := newScheduler(1)
	ps := attach(s, 4, 1)
	a, b, c, d := ps[0], ps[1], ps[2], ps[3]

	require.Same(t, a, s.Tick(0))
	require.Same(t, b, s.Tick(1))
	require.Equal(t, 2, s.Cursor())

	a.Destroy()
	assert.Equal(t, 1, s.Cursor(), "removal before the cursor shifts it back")
	assert.Same(t, c, s.Tick(2))
	assert.Same(t, d, s.Tick(3))
	assert.Equal(t, 0, s.Cursor())

	require.Same(t, b, s.Tick(4))
	require.Same(t, c, s.Tick(5))
	require.Equal(t, 2, s.Cursor())
	d.Destroy()
	assert.Equal(t, 0, s.Cursor(), "cursor past the end wraps")
	assert.Same(t, b, s.Tick(6))

	b.Destroy()
	c.Destroy()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Cursor())
	assert.Nil(t, s.Tick(7))
}

func TestDestroyDuringTick(t *testing.T) {
	s, cam := newScheduler(1)
	ps := attach(s, 3, 1)

	cam.onRender = func() {
		cam.onRender = nil
		ps[2].Destroy()
	}
	require.Same(t, ps[0], s.Tick(0))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []*Probe{ps[0], ps[1]}, s.Probes())

	assert.Same(t, ps[1], s.Tick(1))
	assert.Same(t, ps[0], s.Tick(2))
}

func TestDeadTransformIsSkipped(t *testing.T) {
	s, cam := newScheduler(1)
	gone := newKerbal("gone", 0)
	p := CreateAndAttach(s, gone.target(false), 1)
	q := attach(s, 1, 1)[0]
	shots := len(cam.shots)

	gone.body.Destroy()
	assert.Same(t, q, s.Tick(0))
	assert.Equal(t, shots+1, len(cam.shots))
	assert.Equal(t, 0, p.Counter())
	assert.False(t, p.Destroyed(), "the owner decides when to destroy the probe")
}

func TestDoubleRegistrationPanics(t *testing.T) {
	s, _ := newScheduler(1)
	p := attach(s, 1, 1)[0]
	assert.Panics(t, func() { s.register(p) })

	other, _ := newScheduler(1)
	p.registered = false
	assert.Panics(t, func() { other.register(p) })
}

func TestTickIsNotReentrant(t *testing.T) {
	s, cam := newScheduler(1)
	attach(s, 1, 1)
	cam.onRender = func() {
		cam.onRender = nil
		s.Tick(1)
	}
	assert.PanicsWithValue(t, "probe: Tick called reentrantly", func() { s.Tick(0) })
}

func TestSchedulerDefaults(t *testing.T) {
	s := NewScheduler(Config{Capturer: capture.NewCapturer(&shotCamera{})})
	assert.Equal(t, DefaultEnvMapSize, s.Config().EnvMapSize)
	assert.Equal(t, DefaultGlobalInterval, s.Config().GlobalInterval)

	s.SetGlobalInterval(0)
	assert.Equal(t, 1, s.Config().GlobalInterval)
	assert.Panics(t, func() { NewScheduler(Config{}) })
}
