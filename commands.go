package envprobe

type Commands struct {
	app *App
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) UseSystem(system systemScheduleBuilder) *Commands {
	cmd.app.UseSystem(system)
	return cmd
}

// OnClose registers fn to run when the app closes.
func (cmd *Commands) OnClose(fn func()) *Commands {
	cmd.app.closers = append(cmd.app.closers, fn)
	return cmd
}

// Quit ends Run after the current frame.
func (cmd *Commands) Quit() {
	cmd.app.quitting = true
}
