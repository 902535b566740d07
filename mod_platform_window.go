package envprobe

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

// PlatformWindowModule ensures a single shared GLFW window (WindowState) is created
// and made available as a resource. Closing the window quits the app.
// Install is idempotent: if a WindowState resource already exists, it is reused.
type PlatformWindowModule struct {
	Width  int
	Height int
	Title  string
}

// NewPlatformWindow creates a module that provides a shared WindowState resource.
// If Width/Height are zero, sensible defaults are used.
func NewPlatformWindow(width, height int, title string) *PlatformWindowModule {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "Reflections"
	}
	return &PlatformWindowModule{
		Width:  width,
		Height: height,
		Title:  title,
	}
}

func (m PlatformWindowModule) Install(app *App, cmd *Commands) {
	if _, ok := Resource[WindowState](app); ok {
		// Already created by another module (or user code); no-op to preserve single-window invariant.
		return
	}
	ensureWindowResource(app, m.Width, m.Height, m.Title)
	cmd.UseSystem(System(windowEventsSystem).InStage(Prelude))
	cmd.OnClose(func() {
		MustResource[WindowState](app).windowGlfw.Destroy()
		glfw.Terminate()
	})
}

// ensureWindowResource guarantees a single shared WindowState resource exists.
// If missing, it creates one with provided overrides or sensible defaults.
func ensureWindowResource(app *App, width, height int, title string) {
	if _, ok := Resource[WindowState](app); ok {
		return
	}
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "Reflections"
	}
	ws := createWindowState(width, height, title)
	app.addResources(ws)
	app.Logger().Infof("Created shared window (%dx%d) '%s'", width, height, title)
}

func windowEventsSystem(cmd *Commands, ws *WindowState) {
	glfw.PollEvents()
	if ws.windowGlfw.ShouldClose() {
		cmd.Quit()
	}
}
