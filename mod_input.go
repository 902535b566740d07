package envprobe

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	Key1 int = iota
	Key2
	Key3
	KeyR
	KeyL
	KeyMinus
	KeyEqual
	KeyEscape
	KeyRight
	KeyLeft
	KeyDown
	KeyUp
	numKeys
)

// InputModule polls the reflection hotkeys and arrow keys of the shared window
// each frame.
type InputModule struct{}

type Input struct {
	Pressed [numKeys]bool

	JustPressed  [numKeys]bool
	JustReleased [numKeys]bool
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Input{})
	cmd.UseSystem(System(inputSystem).InStage(PreUpdate))
}

func inputSystem(s *WindowState, input *Input) {
	for key, glfwKey := range keyToGlfw {
		input.set(key, s.windowGlfw.GetKey(glfwKey) == glfw.Press)
	}
}

// set records the state of key for this frame.
func (input *Input) set(key int, down bool) {
	input.JustPressed[key] = down && !input.Pressed[key]
	input.JustReleased[key] = !down && input.Pressed[key]
	input.Pressed[key] = down
}

var keyToGlfw = map[int]glfw.Key{
	Key1:      glfw.Key1,
	Key2:      glfw.Key2,
	Key3:      glfw.Key3,
	KeyR:      glfw.KeyR,
	KeyL:      glfw.KeyL,
	KeyMinus:  glfw.KeyMinus,
	KeyEqual:  glfw.KeyEqual,
	KeyEscape: glfw.KeyEscape,
	KeyRight:  glfw.KeyRight,
	KeyLeft:   glfw.KeyLeft,
	KeyDown:   glfw.KeyDown,
	KeyUp:     glfw.KeyUp,
}
