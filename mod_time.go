package envprobe

import (
	"time"
)

type Time struct {
	Time time.Time
	Dt   time.Duration
	// Frame is the global frame counter, 0 during the first Update.
	Frame uint64
}

type TimeModule struct {
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Time{
		Time: time.Now(),
		Dt:   0,
	})
	cmd.UseSystem(System(timeSystem).InStage(Prelude))
	cmd.UseSystem(System(frameEndSystem).InStage(Finale))
}

func timeSystem(timeResource *Time) {
	now := time.Now()

	timeResource.Dt = now.Sub(timeResource.Time)
	timeResource.Time = now
}

func frameEndSystem(timeResource *Time) {
	timeResource.Frame++
}
