package envprobe

import (
	"fmt"
	"reflect"
)

// CaptureCameraTag marks that a capture camera has been installed into the App.
// All probes share one camera, so only one may exist.
type CaptureCameraTag struct {
	Name string
}

// ensureSingleCaptureCamera panics when a different capture camera is already installed.
func ensureSingleCaptureCamera(app *App, name string) {
	if app == nil {
		panic("ensureSingleCaptureCamera: app is nil")
	}
	t := reflect.TypeOf((*CaptureCameraTag)(nil)).Elem()
	if res, ok := app.resources[t]; ok {
		if tag, ok2 := res.(*CaptureCameraTag); ok2 {
			if tag.Name != name {
				app.Logger().Errorf("Multiple capture cameras installed: %s and %s", tag.Name, name)
				panic(fmt.Sprintf("Multiple capture cameras installed: %s and %s", tag.Name, name))
			}
			return
		}
		panic("CaptureCameraTag resource present with unexpected type")
	}
	app.addResources(&CaptureCameraTag{Name: name})
}
