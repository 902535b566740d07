// Package probe holds reflection probes and the scheduler that shares one
// capture camera between them, one face per admissible tick.
package probe

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/gekko3d/envprobe/envrt/rt/capture"
	"github.com/gekko3d/envprobe/envrt/rt/core"
	"github.com/gekko3d/envprobe/envrt/rt/material"
)

const (
	DefaultEnvMapSize     = 128
	DefaultGlobalInterval = 2
)

type Config struct {
	Capturer *capture.Capturer
	// EnvMapSize is the edge length of every probe's faces.
	EnvMapSize int
	// GlobalInterval lets the scheduler act only on frames that are a multiple of it.
	GlobalInterval int
	// Shader is bound together with each probe's map.
	Shader *material.Shader
	// Rand staggers new probes. Tests pass a seeded generator.
	Rand   *rand.Rand
	Logger core.Logger
}

type Stats struct {
	Ticks     uint64
	Throttled uint64
	Captures  uint64
}

// Scheduler owns the probe registry and the rotation cursor.
// The registry slice is never modified in place: Tick iterates the slice it
// started with while registrations swap in a new one.
type Scheduler struct {
	cfg  Config
	rand *rand.Rand
	log  core.Logger

	registry []*Probe
	cursor   int

	ticking    bool
	tombstones int
	stats      Stats
}

func NewScheduler(cfg Config) *Scheduler {
	if cfg.Capturer == nil {
		panic("probe: scheduler needs a capturer")
	}
	if cfg.EnvMapSize <= 0 {
		cfg.EnvMapSize = DefaultEnvMapSize
	}
	if cfg.GlobalInterval <= 0 {
		cfg.GlobalInterval = DefaultGlobalInterval
	}
	r := cfg.Rand
	if r == nil {
		seed := uint64(time.Now().UnixNano())
		r = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Scheduler{
		cfg:  cfg,
		rand: r,
		log:  core.OrNop(cfg.Logger),
	}
}

func (s *Scheduler) Config() Config { return s.cfg }

// SetGlobalInterval changes the throttle; values below 1 are treated as 1.
func (s *Scheduler) SetGlobalInterval(n int) {
	if n < 1 {
		n = 1
	}
	s.cfg.GlobalInterval = n
}

// SetShader replaces the shader bound by probes created from now on.
func (s *Scheduler) SetShader(shader *material.Shader) { s.cfg.Shader = shader }

func (s *Scheduler) Len() int { return len(s.registry) - s.tombstones }

func (s *Scheduler) Cursor() int { return s.cursor }

func (s *Scheduler) Stats() Stats { return s.stats }

// Probes returns the live probes in rotation order.
func (s *Scheduler) Probes() []*Probe {
	res := make([]*Probe, 0, len(s.registry))
	for _, p := range s.registry {
		if !p.destroyed {
			res = append(res, p)
		}
	}
	return res
}

// Tick runs one scheduling step for the given global frame number and returns the
// probe that received an incremental update, if any. At most one face is captured
// per call regardless of the registry size.
func (s *Scheduler) Tick(frame uint64) *Probe {
	if s.ticking {
		panic("probe: Tick called reentrantly")
	}
	s.stats.Ticks++
	if frame%uint64(s.cfg.GlobalInterval) != 0 {
		s.stats.Throttled++
		return nil
	}

	snapshot := s.registry
	n := len(snapshot)
	if n == 0 {
		return nil
	}

	s.ticking = true
	defer s.endTick()

	start := s.cursor % n
	for i := 0; i < n; i++ {
		pos := (start + i) % n
		p := snapshot[pos]
		if p.destroyed || !p.active {
			continue
		}
		p.counter++
		if p.counter < p.interval {
			continue
		}
		p.counter = 0
		if !p.incrementalUpdate() {
			continue
		}
		s.cursor = (pos + 1) % n
		s.stats.Captures++
		return p
	}
	return nil
}

// RefreshAll re-renders every face of every active probe. Used when dynamic
// reflections resume after being suspended.
func (s *Scheduler) RefreshAll() {
	for _, p := range s.Probes() {
		if p.active {
			p.Refresh()
		}
	}
}

func (s *Scheduler) register(p *Probe) {
	if p.registered {
		panic(fmt.Sprintf("probe: %s registered twice", p.id))
	}
	if p.sched != s {
		panic(fmt.Sprintf("probe: %s belongs to another scheduler", p.id))
	}
	reg := make([]*Probe, len(s.registry), len(s.registry)+1)
	copy(reg, s.registry)
	s.registry = append(reg, p)
	p.registered = true
}

func (s *Scheduler) unregister(p *Probe) {
	if !p.registered {
		return
	}
	p.registered = false
	if s.ticking {
		// Compacted when the tick returns.
		s.tombstones++
		return
	}
	s.remove(p)
}

func (s *Scheduler) remove(p *Probe) {
	idx := -1
	for i, cur := range s.registry {
		if cur == p {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	reg := make([]*Probe, 0, len(s.registry)-1)
	reg = append(reg, s.registry[:idx]...)
	reg = append(reg, s.registry[idx+1:]...)
	s.registry = reg

	if idx < s.cursor {
		s.cursor--
	}
	if s.cursor >= len(reg) {
		s.cursor = 0
	}
}

func (s *Scheduler) endTick() {
	s.ticking = false
	if s.tombstones == 0 {
		return
	}
	var dead []*Probe
	for _, p := range s.registry {
		if p.destroyed {
			dead = append(dead, p)
		}
	}
	for _, p := range dead {
		s.remove(p)
	}
	s.tombstones = 0
}
