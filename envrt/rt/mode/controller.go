// Package mode decides, per reflective surface, between no reflection, the static
// environment map and a dynamic probe, and downgrades when assets are missing.
package mode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gekko3d/envprobe/envrt/rt/core"
	"github.com/gekko3d/envprobe/envrt/rt/cube"
	"github.com/gekko3d/envprobe/envrt/rt/material"
	"github.com/gekko3d/envprobe/envrt/rt/probe"
)

// ReflectiveShaderName is the shader looked up in the platform bundle.
const ReflectiveShaderName = "Reflective/Visor"

// ShaderBundle is a platform shader bundle.
type ShaderBundle interface {
	Shader(name string) (*material.Shader, error)
}

// BundleOpener opens the bundle for a rendering backend.
type BundleOpener func(backend string) (ShaderBundle, error)

type Config struct {
	// Scheduler is nil when no capture camera could be set up.
	Scheduler *probe.Scheduler
	Static    *cube.Static
	// ProbeInterval is the interval used when Attach is given none.
	ProbeInterval int
	// Compile, when set, validates a loaded shader on the device.
	Compile   func(*material.Shader) error
	LogMeshes bool
	Logger    core.Logger
}

// Binding is one reflective object known to the controller.
type Binding struct {
	target   probe.Target
	interval int
	probe    *probe.Probe
	active   bool
}

func (b *Binding) Target() probe.Target { return b.target }

// Probe is the dynamic probe of the binding, created the first time the
// binding lives under Dynamic mode.
func (b *Binding) Probe() *probe.Probe { return b.probe }

func (b *Binding) Active() bool { return b.active }

// SetActive toggles the reflection of the object, e.g. when a helmet comes off.
func (b *Binding) SetActive(active bool) {
	b.active = active
	if b.probe != nil {
		b.probe.SetActive(active)
	}
}

type Controller struct {
	cfg       Config
	log       core.Logger
	shader    *material.Shader
	requested Mode
	mode      Mode

	prototypes []material.Surface
	bindings   []*Binding
	diags      []Diagnostic
}

func NewController(cfg Config) *Controller {
	if cfg.Static == nil {
		cfg.Static = &cube.Static{}
	}
	if cfg.ProbeInterval < 1 {
		cfg.ProbeInterval = 1
	}
	return &Controller{
		cfg:  cfg,
		log:  core.OrNop(cfg.Logger),
		mode: Disabled,
	}
}

// Mode is the mode in effect.
func (c *Controller) Mode() Mode { return c.mode }

// Requested is the mode last passed to SetMode.
func (c *Controller) Requested() Mode { return c.requested }

// Servicing reports whether the probe scheduler should be ticked.
func (c *Controller) Servicing() bool { return c.mode == Dynamic && c.cfg.Scheduler != nil }

func (c *Controller) Scheduler() *probe.Scheduler { return c.cfg.Scheduler }

func (c *Controller) StaticMap() *cube.Static { return c.cfg.Static }

func (c *Controller) Shader() *material.Shader { return c.shader }

func (c *Controller) LogMeshes() bool { return c.cfg.LogMeshes }

func (c *Controller) SetLogMeshes(enabled bool) { c.cfg.LogMeshes = enabled }

// Diagnostics lists every downgrade and asset failure seen so far.
func (c *Controller) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), c.diags...)
}

// SetShader installs an already loaded reflective shader.
func (c *Controller) SetShader(shader *material.Shader) {
	c.shader = shader
	if c.cfg.Scheduler != nil {
		c.cfg.Scheduler.SetShader(shader)
	}
}

// LoadShader opens the backend's bundle and loads the reflective shader from it.
// On failure the controller keeps no shader and the cause is recorded.
func (c *Controller) LoadShader(open BundleOpener, backend string) error {
	shader, err := c.loadShader(open, backend)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrNoShader, err)
		c.log.Warnf("Reflective shader for %q not loaded: %v", backend, err)
		c.diags = append(c.diags, Diagnostic{Requested: c.requested, Effective: c.mode, Cause: err})
		c.SetShader(nil)
		return err
	}
	c.log.Infof("Loaded reflective shader %s (%s)", shader.Name, backend)
	c.SetShader(shader)
	return nil
}

func (c *Controller) loadShader(open BundleOpener, backend string) (*material.Shader, error) {
	if open == nil {
		return nil, errors.New("no shader bundle loader")
	}
	bundle, err := open(backend)
	if err != nil {
		return nil, err
	}
	shader, err := bundle.Shader(ReflectiveShaderName)
	if err != nil {
		return nil, err
	}
	if !shader.Valid() {
		return nil, fmt.Errorf("shader %q is empty", ReflectiveShaderName)
	}
	if c.cfg.Compile != nil {
		if err := c.cfg.Compile(shader); err != nil {
			return nil, fmt.Errorf("compile %s: %w", shader.Name, err)
		}
	}
	return shader, nil
}

// AddPrototype registers a canonical surface from which object instances are
// copied; it is rebound on every mode change so new copies inherit the mode.
func (c *Controller) AddPrototype(s material.Surface) {
	c.prototypes = append(c.prototypes, s)
	c.bindPrototype(s)
}

// SetMode switches to m, or to the best mode the loaded assets allow, and
// returns the mode now in effect. It never fails; downgrades are logged and
// recorded in Diagnostics.
func (c *Controller) SetMode(m Mode) Mode {
	effective, causes := c.resolve(m)
	for _, cause := range causes {
		d := Diagnostic{Requested: m, Effective: effective, Cause: cause}
		c.log.Warnf("Reflections: %s", d)
		c.diags = append(c.diags, d)
	}

	prev := c.mode
	c.requested = m
	c.mode = effective
	if prev != effective {
		c.log.Infof("Reflections: %s -> %s", prev, effective)
	}

	for _, s := range c.prototypes {
		c.bindPrototype(s)
	}
	for _, b := range c.bindings {
		c.bind(b, prev != Dynamic)
	}
	return effective
}

func (c *Controller) resolve(m Mode) (Mode, []error) {
	var causes []error
	switch m {
	case Dynamic:
		if c.cfg.Scheduler == nil {
			causes = append(causes, ErrNoCamera)
		}
		if !c.shader.Valid() {
			causes = append(causes, ErrNoShader)
		}
		if len(causes) == 0 {
			return Dynamic, nil
		}
		fallthrough
	case Static:
		if c.cfg.Static.Valid() {
			return Static, causes
		}
		return Disabled, append(causes, ErrNoStaticMap)
	case Disabled:
		return Disabled, nil
	}
	return Disabled, []error{fmt.Errorf("%w: %d", ErrUnknownMode, int(m))}
}

// Attach registers a reflective object and binds whatever the current mode
// provides. interval < 1 uses the configured default.
func (c *Controller) Attach(t probe.Target, interval int) *Binding {
	if interval < 1 {
		interval = c.cfg.ProbeInterval
	}
	b := &Binding{target: t, interval: interval, active: true}
	if c.cfg.LogMeshes {
		c.logTarget(t)
	}
	c.bindings = append(c.bindings, b)
	c.bind(b, false)
	return b
}

// Detach forgets b, destroying its probe and unbinding its surfaces.
func (c *Controller) Detach(b *Binding) {
	for i, cur := range c.bindings {
		if cur != b {
			continue
		}
		c.bindings = append(c.bindings[:i], c.bindings[i+1:]...)
		if b.probe != nil {
			b.probe.Destroy()
			b.probe = nil
		} else {
			for _, s := range b.target.BoundSurfaces() {
				s.UnbindReflection()
			}
		}
		return
	}
}

// Bindings returns the attached objects in attach order.
func (c *Controller) Bindings() []*Binding {
	return append([]*Binding(nil), c.bindings...)
}

func (c *Controller) bind(b *Binding, resumed bool) {
	surfaces := b.target.BoundSurfaces()
	switch c.mode {
	case Dynamic:
		if b.probe == nil {
			b.probe = probe.CreateAndAttach(c.cfg.Scheduler, b.target, b.interval)
			b.probe.SetActive(b.active)
			return
		}
		b.probe.BindSurfaces()
		if resumed && b.probe.Active() {
			b.probe.Refresh()
		}
	case Static:
		for _, s := range surfaces {
			s.BindReflection(c.cfg.Static.Map(), c.shader)
		}
	default:
		for _, s := range surfaces {
			s.UnbindReflection()
		}
	}
}

func (c *Controller) bindPrototype(s material.Surface) {
	if c.mode != Disabled && c.cfg.Static.Valid() {
		s.BindReflection(c.cfg.Static.Map(), c.shader)
		return
	}
	s.UnbindReflection()
}

func (c *Controller) logTarget(t probe.Target) {
	var meshes []string
	for _, r := range t.Renderers {
		meshes = append(meshes, describe(r))
	}
	var surfaces []string
	for _, s := range t.BoundSurfaces() {
		surfaces = append(surfaces, s.SurfaceName())
	}
	shader := "<none>"
	if c.shader != nil {
		shader = c.shader.Name
	}
	c.log.Infof("Reflective %q (eva=%t): meshes [%s] surfaces [%s] shader %s",
		t.Name, t.IsEva, strings.Join(meshes, ", "), strings.Join(surfaces, ", "), shader)
}

func describe(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", v)
}
