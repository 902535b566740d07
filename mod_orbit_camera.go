package envprobe

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// OrbitCameraModule turns the arrow keys into an orbit of the VisorView eye
// around the presented visor. It needs InputModule, TimeModule and GpuModule.
type OrbitCameraModule struct {
	Distance float32
}

type OrbitCamera struct {
	Yaw, Pitch float32
	Distance   float32
	// Speed is in degrees per second.
	Speed float32
}

func (m OrbitCameraModule) Install(app *App, cmd *Commands) {
	d := m.Distance
	if d <= 0 {
		d = 3
	}
	cmd.AddResources(&OrbitCamera{Distance: d, Speed: 60})
	cmd.UseSystem(System(orbitCameraSystem).InStage(Update))
}

func orbitCameraSystem(t *Time, input *Input, orbit *OrbitCamera, view *VisorView) {
	dt := float32(t.Dt.Seconds())
	if dt <= 0 {
		return
	}
	var yaw, pitch float32
	if input.Pressed[KeyLeft] {
		yaw -= 1
	}
	if input.Pressed[KeyRight] {
		yaw += 1
	}
	if input.Pressed[KeyUp] {
		pitch += 1
	}
	if input.Pressed[KeyDown] {
		pitch -= 1
	}
	orbit.Yaw += yaw * orbit.Speed * dt
	orbit.Pitch = mgl32.Clamp(orbit.Pitch+pitch*orbit.Speed*dt, -89, 89)

	view.Eye = view.Center.Add(orbit.Offset())
	view.Target = view.Center
}

// Offset is the eye position relative to the orbit center.
func (o *OrbitCamera) Offset() mgl32.Vec3 {
	yaw := mgl32.DegToRad(o.Yaw)
	pitch := mgl32.DegToRad(o.Pitch)
	return mgl32.Vec3{
		math32.Sin(yaw) * math32.Cos(pitch),
		math32.Sin(pitch),
		math32.Cos(yaw) * math32.Cos(pitch),
	}.Mul(o.Distance)
}
