package cube

import (
	"fmt"
	"math/bits"

	"github.com/go-gl/mathgl/mgl32"
)

// Face indexes one side of a cube map, in the layer order the GPU backends expect.
type Face int

const (
	PositiveX Face = iota
	NegativeX
	PositiveY
	NegativeY
	PositiveZ
	NegativeZ
)

const NumFaces = 6

var faceNames = [NumFaces]string{
	"PositiveX", "NegativeX",
	"PositiveY", "NegativeY",
	"PositiveZ", "NegativeZ",
}

func (f Face) String() string {
	if f < 0 || f >= NumFaces {
		return fmt.Sprintf("Face(%d)", int(f))
	}
	return faceNames[f]
}

func (f Face) Valid() bool { return f >= 0 && f < NumFaces }

func (f Face) Mask() FaceMask { return FaceMask(1) << uint(f) }

// Next returns the face after f, wrapping around after NegativeZ.
func (f Face) Next() Face { return (f + 1) % NumFaces }

// FaceNames returns the conventional file names of the six faces, in face order.
func FaceNames() [NumFaces]string { return faceNames }

// FaceMask selects a subset of the six faces, bit i meaning Face(i).
type FaceMask uint8

const AllFaces FaceMask = 0x3F

func (m FaceMask) Has(f Face) bool { return f.Valid() && m&f.Mask() != 0 }

func (m FaceMask) Count() int { return bits.OnesCount8(uint8(m & AllFaces)) }

func (m FaceMask) Empty() bool { return m&AllFaces == 0 }

// Faces lists the selected faces in ascending order.
func (m FaceMask) Faces() []Face {
	res := make([]Face, 0, m.Count())
	for f := PositiveX; f < NumFaces; f++ {
		if m.Has(f) {
			res = append(res, f)
		}
	}
	return res
}

func (m FaceMask) String() string { return fmt.Sprintf("0x%02X", uint8(m)) }

// Direction maps face coordinates to an (unnormalized) world direction.
// u runs left to right and v top to bottom of the stored face image, both in [-1, 1].
func (f Face) Direction(u, v float32) mgl32.Vec3 {
	switch f {
	case PositiveX:
		return mgl32.Vec3{1, -v, -u}
	case NegativeX:
		return mgl32.Vec3{-1, -v, u}
	case PositiveY:
		return mgl32.Vec3{u, 1, v}
	case NegativeY:
		return mgl32.Vec3{u, -1, -v}
	case PositiveZ:
		return mgl32.Vec3{u, -v, 1}
	case NegativeZ:
		return mgl32.Vec3{-u, -v, -1}
	}
	panic(fmt.Sprintf("cube: invalid face %d", int(f)))
}

// Basis returns the face's view direction and the world vectors that point to the
// right and to the top of the stored face image.
func (f Face) Basis() (forward, right, up mgl32.Vec3) {
	forward = f.Direction(0, 0)
	right = f.Direction(1, 0).Sub(forward)
	up = forward.Sub(f.Direction(0, 1))
	return forward, right, up
}

// View returns the world-to-view matrix looking down the face from origin:
// view +X is image right, +Y image up and -Z the face direction.
func (f Face) View(origin mgl32.Vec3) mgl32.Mat4 {
	forward, right, up := f.Basis()
	return mgl32.Mat4FromRows(
		right.Vec4(-right.Dot(origin)),
		up.Vec4(-up.Dot(origin)),
		forward.Mul(-1).Vec4(forward.Dot(origin)),
		mgl32.Vec4{0, 0, 0, 1},
	)
}

// Projection is the square 90 degree perspective shared by every face.
func Projection(near, far float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(90), 1, near, far)
}

// Locate finds the face hit by dir and the face coordinates of the hit.
func Locate(dir mgl32.Vec3) (Face, float32, float32) {
	ax, ay, az := abs(dir.X()), abs(dir.Y()), abs(dir.Z())
	switch {
	case ax >= ay && ax >= az:
		if dir.X() >= 0 {
			return PositiveX, -dir.Z() / ax, -dir.Y() / ax
		}
		return NegativeX, dir.Z() / ax, -dir.Y() / ax
	case ay >= az:
		if dir.Y() >= 0 {
			return PositiveY, dir.X() / ay, dir.Z() / ay
		}
		return NegativeY, dir.X() / ay, -dir.Z() / ay
	default:
		if dir.Z() >= 0 {
			return PositiveZ, dir.X() / az, -dir.Y() / az
		}
		return NegativeZ, -dir.X() / az, -dir.Y() / az
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
