package soft

import (
	"image/color"

	"github.com/chewxy/math32"
	"github.com/gekko3d/envprobe/envrt/rt/capture"
	"github.com/go-gl/mathgl/mgl32"
)

// Shape is anything a ray can hit.
type Shape interface {
	// Intersect returns the distance along dir (unit length) to the first hit and the
	// surface normal there.
	Intersect(origin, dir mgl32.Vec3) (t float32, normal mgl32.Vec3, ok bool)
}

type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

func (s Sphere) Intersect(origin, dir mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	oc := origin.Sub(s.Center)
	b := oc.Dot(dir)
	c := oc.Dot(oc) - s.Radius*s.Radius
	disc := b*b - c
	if disc < 0 {
		return 0, mgl32.Vec3{}, false
	}
	sq := math32.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		// Origin inside the sphere: report the far wall.
		t = -b + sq
	}
	if t < 0 {
		return 0, mgl32.Vec3{}, false
	}
	hit := origin.Add(dir.Mul(t))
	return t, hit.Sub(s.Center).Normalize(), true
}

// Plane is the set of points p with Normal.Dot(p) == Offset.
type Plane struct {
	Normal mgl32.Vec3
	Offset float32
}

func (p Plane) Intersect(origin, dir mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	denom := p.Normal.Dot(dir)
	if math32.Abs(denom) < 1e-6 {
		return 0, mgl32.Vec3{}, false
	}
	t := (p.Offset - p.Normal.Dot(origin)) / denom
	if t < 0 {
		return 0, mgl32.Vec3{}, false
	}
	n := p.Normal
	if denom > 0 {
		n = n.Mul(-1)
	}
	return t, n, true
}

// Box is an axis-aligned box.
type Box struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func (b Box) Intersect(origin, dir mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	tmin := math32.Inf(-1)
	tmax := math32.Inf(1)
	var normal mgl32.Vec3
	for axis := 0; axis < 3; axis++ {
		if math32.Abs(dir[axis]) < 1e-9 {
			if origin[axis] < b.Min[axis] || origin[axis] > b.Max[axis] {
				return 0, mgl32.Vec3{}, false
			}
			continue
		}
		inv := 1 / dir[axis]
		t1 := (b.Min[axis] - origin[axis]) * inv
		t2 := (b.Max[axis] - origin[axis]) * inv
		sign := float32(-1)
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > tmin {
			tmin = t1
			normal = mgl32.Vec3{}
			normal[axis] = sign
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, mgl32.Vec3{}, false
		}
	}
	if tmax < 0 {
		return 0, mgl32.Vec3{}, false
	}
	if tmin < 0 {
		return tmax, normal.Mul(-1), true
	}
	return tmin, normal, true
}

// Object is a renderable scene entry. It doubles as the capture.Renderer for its
// own mesh, so owners can hide it during their own captures.
type Object struct {
	Name   string
	Shape  Shape
	Color  color.RGBA
	Layer  capture.LayerMask
	Unlit  bool
	hidden bool
}

func (o *Object) Enabled() bool { return !o.hidden }

func (o *Object) SetEnabled(enabled bool) { o.hidden = !enabled }

func (o *Object) String() string { return o.Name }

var _ capture.Renderer = (*Object)(nil)

// Sky is the gradient backdrop drawn in the sky layer.
type Sky struct {
	Zenith  color.RGBA
	Horizon color.RGBA
	Ground  color.RGBA
	// Radius of the sky dome; the sky pass only sees it when it lies inside its far clip.
	Radius float32
	Layer  capture.LayerMask
}

func DefaultSky() Sky {
	return Sky{
		Zenith:  color.RGBA{R: 8, G: 16, B: 48, A: 255},
		Horizon: color.RGBA{R: 90, G: 130, B: 200, A: 255},
		Ground:  color.RGBA{R: 20, G: 18, B: 16, A: 255},
		Radius:  50,
		Layer:   capture.LayerSkybox,
	}
}

func (s Sky) shade(dir mgl32.Vec3) color.RGBA {
	h := dir.Y()
	if h < 0 {
		return lerpColor(s.Horizon, s.Ground, math32.Min(1, -h*4))
	}
	return lerpColor(s.Horizon, s.Zenith, math32.Sqrt(h))
}

// Scene is what the software camera sees.
type Scene struct {
	Sky     *Sky
	Objects []*Object
	SunDir  mgl32.Vec3
	Ambient float32
	Clear   color.RGBA
}

func NewScene() *Scene {
	sky := DefaultSky()
	return &Scene{
		Sky:     &sky,
		SunDir:  mgl32.Vec3{0.4, 0.8, 0.3}.Normalize(),
		Ambient: 0.25,
		Clear:   color.RGBA{A: 255},
	}
}

func (s *Scene) Add(objects ...*Object) {
	s.Objects = append(s.Objects, objects...)
}

// Remove drops o from the scene; it reports whether o was present.
func (s *Scene) Remove(o *Object) bool {
	for i, cur := range s.Objects {
		if cur == o {
			s.Objects = append(s.Objects[:i], s.Objects[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Scene) shadeObject(o *Object, normal mgl32.Vec3) color.RGBA {
	if o.Unlit {
		return o.Color
	}
	light := s.Ambient + math32.Max(0, normal.Dot(s.SunDir))*(1-s.Ambient)
	return color.RGBA{
		R: scale8(o.Color.R, light),
		G: scale8(o.Color.G, light),
		B: scale8(o.Color.B, light),
		A: o.Color.A,
	}
}

func scale8(c uint8, k float32) uint8 {
	v := float32(c) * k
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func lerpColor(a, b color.RGBA, t float32) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float32(x) + (float32(y)-float32(x))*t)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// over composites src onto dst using src's alpha.
func over(dst, src color.RGBA) color.RGBA {
	if src.A == 255 {
		return src
	}
	t := float32(src.A) / 255
	out := lerpColor(dst, src, t)
	out.A = 255
	return out
}
