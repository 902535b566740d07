package envprobe

import (
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/gekko3d/envprobe/envrt/rt/cube"
	"github.com/gekko3d/envprobe/envrt/rt/gpu"
	"github.com/gekko3d/envprobe/envrt/rt/material"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

type WindowState struct {
	// glfw
	windowGlfw   *glfw.Window
	WindowWidth  int
	WindowHeight int
	windowTitle  string
}

type GpuState struct {
	surface       *wgpu.Surface
	adapter       *wgpu.Adapter
	device        *wgpu.Device
	queue         *wgpu.Queue
	surfaceConfig *wgpu.SurfaceConfiguration
}

func createWindowState(windowWidth int, windowHeight int, windowTitle string) *WindowState {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		panic(err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Important: tell GLFW we don't want OpenGL
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(windowWidth, windowHeight, windowTitle, nil, nil)
	if err != nil {
		panic(err)
	}

	return &WindowState{
		windowGlfw:   win,
		WindowWidth:  windowWidth,
		WindowHeight: windowHeight,
		windowTitle:  windowTitle,
	}
}

func createGpuState(s *WindowState) *GpuState {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(s.windowGlfw))
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		panic(err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		panic(err)
	}
	queue := device.GetQueue()

	caps := surface.GetCapabilities(adapter)
	surfaceConfig := wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(s.WindowWidth),
		Height:      uint32(s.WindowHeight),
		PresentMode: wgpu.PresentModeFifo, // vsync
		AlphaMode:   caps.AlphaModes[0],
	}

	surface.Configure(adapter, device, &surfaceConfig)

	return &GpuState{
		surface:       surface,
		adapter:       adapter,
		device:        device,
		queue:         queue,
		surfaceConfig: &surfaceConfig,
	}
}

// CompileShader checks shader against the device; ReflectionModule uses it to
// reject a reflective shader the device cannot build.
func (g *GpuState) CompileShader(shader *material.Shader) error {
	return gpu.CompileShader(g.device, shader)
}

func (g *GpuState) release() {
	g.queue.Release()
	g.device.Release()
	g.adapter.Release()
	g.surface.Release()
}

// VisorView selects the reflective material the window presents, seen from Eye
// as a sphere at Center.
type VisorView struct {
	Material *material.Material
	Eye      mgl32.Vec3
	Target   mgl32.Vec3
	Center   mgl32.Vec3
	Radius   float32
	FovY     float32

	presenter *gpu.Presenter
	shader    *material.Shader
}

// GpuModule opens the wgpu device on the shared window, keeps every environment
// map resident and presents VisorView. Install it after PlatformWindowModule and
// before ReflectionModule.
type GpuModule struct{}

func (GpuModule) Install(app *App, cmd *Commands) {
	ws, ok := Resource[WindowState](app)
	if !ok {
		ensureWindowResource(app, 0, 0, "")
		ws = MustResource[WindowState](app)
	}
	state := createGpuState(ws)
	uploader := gpu.NewUploader(state.device, state.queue, app.Logger())
	view := &VisorView{
		Eye:    mgl32.Vec3{0, 0, 4},
		Radius: 1,
		FovY:   mgl32.DegToRad(60),
	}
	app.addResources(state, uploader, view)

	cmd.UseSystem(System(gpuUploadSystem).InStage(Render))
	cmd.UseSystem(System(gpuPresentSystem).InStage(Render))
	cmd.OnClose(func() {
		if view.presenter != nil {
			view.presenter.Release()
		}
		uploader.Release()
		state.release()
	})
	app.Logger().Infof("GPU ready (%v)", state.surfaceConfig.Format)
}

func gpuUploadSystem(r *Reflections, up *gpu.Uploader) {
	var maps []*cube.Map
	if r.Scheduler != nil {
		for _, p := range r.Scheduler.Probes() {
			maps = append(maps, p.Map())
		}
	}
	if static := r.Controller.StaticMap().Map(); static != nil {
		maps = append(maps, static)
	}
	if err := up.Sync(maps); err != nil {
		panic(err)
	}
}

func gpuPresentSystem(state *GpuState, ws *WindowState, r *Reflections, up *gpu.Uploader, view *VisorView) {
	if view.Material == nil {
		return
	}
	tex, ok := up.Texture(view.Material.EnvMap())
	if !ok {
		return
	}
	shader := r.Controller.Shader()
	if shader == nil {
		return
	}
	if view.presenter == nil || view.shader != shader {
		if view.presenter != nil {
			view.presenter.Release()
		}
		p, err := gpu.NewPresenter(state.device, state.queue, state.surfaceConfig.Format, shader)
		if err != nil {
			panic(err)
		}
		view.presenter, view.shader = p, shader
	}
	if err := view.presenter.Bind(tex); err != nil {
		panic(err)
	}

	aspect := float32(ws.WindowWidth) / float32(ws.WindowHeight)
	proj := mgl32.Perspective(view.FovY, aspect, 0.1, 100)
	look := mgl32.LookAtV(view.Eye, view.Target, mgl32.Vec3{0, 1, 0})
	c := view.Material.ReflectColor
	err := view.presenter.SetGlobals(gpu.Globals{
		InvViewProj:  proj.Mul4(look).Inv(),
		Eye:          view.Eye.Vec4(1),
		Sphere:       view.Center.Vec4(view.Radius),
		ReflectColor: mgl32.Vec4{c[0], c[1], c[2], c[3]},
	})
	if err != nil {
		panic(err)
	}

	next, err := state.surface.GetCurrentTexture()
	if err != nil {
		panic(err)
	}
	target, err := next.CreateView(nil)
	if err != nil {
		panic(err)
	}
	defer target.Release()
	encoder, err := state.device.CreateCommandEncoder(nil)
	if err != nil {
		panic(err)
	}
	defer encoder.Release()

	if err := view.presenter.Draw(encoder, target); err != nil {
		panic(err)
	}
	cmdBuffer, err := encoder.Finish(nil)
	if err != nil {
		panic(err)
	}
	defer cmdBuffer.Release()
	state.queue.Submit(cmdBuffer)
	state.surface.Present()
}
