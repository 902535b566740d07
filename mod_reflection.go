package envprobe

import (
	"math/rand/v2"

	"github.com/gekko3d/envprobe/envrt/rt/capture"
	"github.com/gekko3d/envprobe/envrt/rt/cube"
	"github.com/gekko3d/envprobe/envrt/rt/material"
	"github.com/gekko3d/envprobe/envrt/rt/mode"
	"github.com/gekko3d/envprobe/envrt/rt/probe"
	"github.com/gekko3d/envprobe/envrt/rt/shaders"
	"github.com/gekko3d/envprobe/envrt/rt/soft"
)

// ReflectionModule installs the reflection service: the shared capture camera,
// the probe scheduler, the static environment map and the mode controller. It
// reads the Config resource when present and the EnvMap textures of the
// AssetServer when present, and ticks the scheduler once per frame in PreRender.
// It needs the Time resource, so TimeModule must be installed too.
type ReflectionModule struct {
	// Camera replaces the software camera over Scene.
	Camera capture.Camera
	// Scene is rendered by the software camera; a default scene is used when nil.
	Scene *soft.Scene
	// NoCamera installs the module without any capture camera.
	NoCamera bool
	// Shaders opens the platform shader bundles; the embedded bundles by default.
	Shaders mode.BundleOpener
	// Compile checks the loaded shader; the GpuState device is used when unset.
	Compile func(*material.Shader) error
	Passes  []capture.Pass
}

// Reflections is the resource ReflectionModule installs.
type Reflections struct {
	Controller *mode.Controller
	// Scheduler and Capturer are nil when no camera is installed.
	Scheduler *probe.Scheduler
	Capturer  *capture.Capturer
	Camera    capture.Camera
	Scene     *soft.Scene

	last *probe.Probe
}

// Attach registers a reflective object; interval < 1 uses the configured default.
func (r *Reflections) Attach(t probe.Target, interval int) *mode.Binding {
	return r.Controller.Attach(t, interval)
}

func (r *Reflections) Detach(b *mode.Binding) { r.Controller.Detach(b) }

// LastServiced is the probe updated during the latest frame, if any.
func (r *Reflections) LastServiced() *probe.Probe { return r.last }

// EmbeddedShaders opens the shader bundles compiled into the binary.
func EmbeddedShaders(backend string) (mode.ShaderBundle, error) {
	b, err := shaders.Open(backend)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (m ReflectionModule) Install(app *App, cmd *Commands) {
	log := app.Logger()
	cfg := DefaultConfig()
	if c, ok := Resource[Config](app); ok {
		cfg = *c
	}
	rc := cfg.Reflections

	res := &Reflections{Scene: m.Scene}
	switch {
	case m.NoCamera:
		log.Warnf("Reflections: no capture camera")
	case m.Camera != nil:
		res.Camera = m.Camera
	default:
		if res.Scene == nil {
			res.Scene = soft.NewScene()
		}
		res.Camera = soft.NewCamera(res.Scene)
	}

	if res.Camera != nil {
		ensureSingleCaptureCamera(app, "reflections")
		res.Capturer = capture.NewCapturer(res.Camera, m.Passes...)
		var r *rand.Rand
		if rc.Seed != 0 {
			r = rand.New(rand.NewPCG(rc.Seed, rc.Seed^0x9e3779b97f4a7c15))
		}
		res.Scheduler = probe.NewScheduler(probe.Config{
			Capturer:       res.Capturer,
			EnvMapSize:     rc.EnvMapSize,
			GlobalInterval: rc.ReflectionInterval,
			Rand:           r,
			Logger:         log,
		})
	}

	static := &cube.Static{}
	if assets, ok := Resource[AssetServer](app); ok {
		if err := static.Build(assets.CubeFaces(EnvMapPrefix)); err != nil {
			log.Warnf("Static environment map unavailable: %v", err)
		} else {
			log.Infof("Static environment map loaded (%dpx)", static.Map().Size())
		}
	}

	compile := m.Compile
	if compile == nil {
		if g, ok := Resource[GpuState](app); ok {
			compile = g.CompileShader
		}
	}
	res.Controller = mode.NewController(mode.Config{
		Scheduler:     res.Scheduler,
		Static:        static,
		ProbeInterval: rc.ProbeInterval,
		Compile:       compile,
		LogMeshes:     rc.LogReflectiveMeshes,
		Logger:        log,
	})
	open := m.Shaders
	if open == nil {
		open = EmbeddedShaders
	}
	// A missing shader only limits the modes SetMode can grant.
	_ = res.Controller.LoadShader(open, rc.Backend)
	res.Controller.SetMode(rc.ReflectionType)

	app.addResources(res)
	cmd.UseSystem(System(reflectionTickSystem).InStage(PreRender))

	if w, ok := Resource[ConfigWatcher](app); ok {
		w.OnReload(func(prev, next Config) {
			applyReflectionConfig(res, prev.Reflections, next.Reflections, log)
		})
	}
	cmd.OnClose(func() {
		for _, b := range res.Controller.Bindings() {
			res.Controller.Detach(b)
		}
	})
}

func reflectionTickSystem(t *Time, r *Reflections) {
	r.last = nil
	if !r.Controller.Servicing() {
		return
	}
	r.last = r.Scheduler.Tick(t.Frame)
}

func applyReflectionConfig(r *Reflections, prev, next ReflectionConfig, log Logger) {
	if next.EnvMapSize != prev.EnvMapSize || next.Backend != prev.Backend || next.Seed != prev.Seed {
		log.Warnf("Reflections: envMapSize, backend and seed apply on restart")
	}
	if next.ReflectionInterval != prev.ReflectionInterval && r.Scheduler != nil {
		r.Scheduler.SetGlobalInterval(next.ReflectionInterval)
		log.Infof("Reflections: global interval %d", next.ReflectionInterval)
	}
	if next.LogReflectiveMeshes != prev.LogReflectiveMeshes {
		r.Controller.SetLogMeshes(next.LogReflectiveMeshes)
	}
	if next.ReflectionType != prev.ReflectionType {
		r.Controller.SetMode(next.ReflectionType)
	}
}
