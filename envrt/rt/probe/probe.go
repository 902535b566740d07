package probe

import (
	"fmt"

	"github.com/gekko3d/envprobe/envrt/rt/capture"
	"github.com/gekko3d/envprobe/envrt/rt/cube"
	"github.com/gekko3d/envprobe/envrt/rt/material"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// TransformRef is a non-owning handle to the world transform a probe renders from.
// The tracked object can disappear at any time; Alive reports whether it still exists.
type TransformRef interface {
	Alive() bool
	Position() mgl32.Vec3
}

// Target describes the reflective object a probe is attached to. The caller that
// spawns the object knows its kind and fills IsEva accordingly.
type Target struct {
	Name string
	// Transform is the owner's own transform.
	Transform TransformRef
	// Head is the EVA sub-node (the helmet); tracked instead of Transform when IsEva.
	Head  TransformRef
	IsEva bool
	// Renderers are the owner's own meshes, hidden during its captures.
	Renderers []capture.Renderer
	// Surfaces always receive the probe's map.
	Surfaces []material.Surface
	// Visor is bound in addition to Surfaces for EVA objects.
	Visor material.Surface
}

func (t Target) tracked() TransformRef {
	if t.IsEva && t.Head != nil {
		return t.Head
	}
	return t.Transform
}

// BoundSurfaces lists the surfaces a reflection is bound to for this target.
func (t Target) BoundSurfaces() []material.Surface {
	res := make([]material.Surface, 0, len(t.Surfaces)+1)
	for _, s := range t.Surfaces {
		if s != nil {
			res = append(res, s)
		}
	}
	if t.IsEva && t.Visor != nil {
		res = append(res, t.Visor)
	}
	return res
}

// Probe owns one dynamic environment map and its incremental refresh schedule.
type Probe struct {
	id       uuid.UUID
	sched    *Scheduler
	target   Target
	tracked  TransformRef
	env      *cube.Map
	interval int
	counter  int
	face     cube.Face
	active   bool

	registered bool
	destroyed  bool
	updates    uint64
}

// CreateAndAttach allocates the probe's map, binds it onto the target's surfaces,
// renders all six faces and registers the probe with s. The counter and starting
// face are drawn from the scheduler's generator so probes created together spread
// out over ticks.
func CreateAndAttach(s *Scheduler, t Target, interval int) *Probe {
	if s == nil {
		panic("probe: nil scheduler")
	}
	tracked := t.tracked()
	if tracked == nil {
		panic(fmt.Sprintf("probe: target %q has no transform to track", t.Name))
	}
	if interval < 1 {
		interval = 1
	}

	p := &Probe{
		id:       uuid.New(),
		sched:    s,
		target:   t,
		tracked:  tracked,
		env:      cube.NewMap(s.cfg.EnvMapSize),
		interval: interval,
		counter:  s.rand.IntN(interval),
		face:     cube.Face(s.rand.IntN(cube.NumFaces)),
		active:   true,
	}
	p.BindSurfaces()
	p.fullUpdate()
	s.register(p)

	s.log.Debugf("probe %s attached to %q (eva=%t interval=%d counter=%d face=%s)",
		p.id, t.Name, t.IsEva, interval, p.counter, p.face)
	return p
}

func (p *Probe) ID() uuid.UUID { return p.id }

func (p *Probe) Name() string { return p.target.Name }

func (p *Probe) Target() Target { return p.target }

// Map is the probe's environment map; nil once destroyed.
func (p *Probe) Map() *cube.Map { return p.env }

func (p *Probe) Interval() int { return p.interval }

func (p *Probe) Counter() int { return p.counter }

func (p *Probe) CurrentFace() cube.Face { return p.face }

func (p *Probe) Active() bool { return p.active }

func (p *Probe) Eva() bool { return p.target.IsEva }

func (p *Probe) Destroyed() bool { return p.destroyed }

// Updates counts captures performed by this probe, full or incremental.
func (p *Probe) Updates() uint64 { return p.updates }

// SetActive toggles scheduling. Reactivation re-renders all faces first so a
// resumed probe never shows a map that went stale while it was off.
func (p *Probe) SetActive(active bool) {
	if p.destroyed || p.active == active {
		return
	}
	if active {
		p.fullUpdate()
	}
	p.active = active
}

// Refresh re-renders all six faces now.
func (p *Probe) Refresh() {
	if p.destroyed {
		return
	}
	p.fullUpdate()
}

// BindSurfaces binds the probe's map and the scheduler's shader onto the target.
func (p *Probe) BindSurfaces() {
	if p.destroyed {
		return
	}
	for _, s := range p.target.BoundSurfaces() {
		s.BindReflection(p.env, p.sched.cfg.Shader)
	}
}

// Destroy unregisters the probe, unbinds its surfaces and releases the map.
func (p *Probe) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	p.active = false
	p.sched.unregister(p)
	for _, s := range p.target.BoundSurfaces() {
		s.UnbindReflection()
	}
	p.env.Release()
	p.env = nil
	p.sched.log.Debugf("probe %s destroyed (%q)", p.id, p.target.Name)
}

// incrementalUpdate renders the current face and moves on to the next one.
// It reports false when the tracked object is gone and nothing was rendered.
func (p *Probe) incrementalUpdate() bool {
	if !p.tracked.Alive() {
		p.sched.log.Debugf("probe %s: tracked transform of %q is gone, skipping", p.id, p.target.Name)
		return false
	}
	p.capture(p.face.Mask())
	p.face = p.face.Next()
	return true
}

func (p *Probe) fullUpdate() {
	if !p.tracked.Alive() {
		return
	}
	p.capture(cube.AllFaces)
}

func (p *Probe) capture(mask cube.FaceMask) {
	p.sched.cfg.Capturer.Capture(p.env, p.tracked.Position(), mask, p.target.Renderers)
	p.updates++
}
