package envprobe

import "github.com/gekko3d/envprobe/envrt/rt/mode"

// ReflectionKeysModule maps hotkeys onto the reflection settings:
// 1, 2 and 3 select None, Static and Real, R refreshes every probe, L toggles
// reflective mesh logging, - and = change the global interval, Escape quits.
// It needs InputModule and ReflectionModule.
type ReflectionKeysModule struct{}

func (ReflectionKeysModule) Install(app *App, cmd *Commands) {
	log := app.Logger()
	cmd.UseSystem(System(func(cmd *Commands, input *Input, r *Reflections) {
		applyReflectionKeys(cmd, input, r, log)
	}).InStage(Update))
}

func applyReflectionKeys(cmd *Commands, input *Input, r *Reflections, log Logger) {
	for i, m := range []mode.Mode{mode.Disabled, mode.Static, mode.Dynamic} {
		if input.JustPressed[Key1+i] {
			log.Infof("Reflections: %s requested, %s in effect", m, r.Controller.SetMode(m))
		}
	}
	if input.JustPressed[KeyL] {
		r.Controller.SetLogMeshes(!r.Controller.LogMeshes())
	}
	if s := r.Scheduler; s != nil {
		if input.JustPressed[KeyR] && r.Controller.Servicing() {
			s.RefreshAll()
		}
		n := s.Config().GlobalInterval
		if input.JustPressed[KeyMinus] && n > 1 {
			s.SetGlobalInterval(n - 1)
			log.Infof("Reflections: global interval %d", n-1)
		}
		if input.JustPressed[KeyEqual] {
			s.SetGlobalInterval(n + 1)
			log.Infof("Reflections: global interval %d", n+1)
		}
	}
	if input.JustPressed[KeyEscape] {
		cmd.Quit()
	}
}
