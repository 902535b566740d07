package cube

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaceMask(t *testing.T) {
	assert.Equal(t, FaceMask(0x3F), AllFaces)
	assert.Equal(t, 6, AllFaces.Count())
	assert.Equal(t, FaceMask(1<<2), PositiveY.Mask())

	m := PositiveX.Mask() | NegativeZ.Mask()
	assert.True(t, m.Has(PositiveX))
	assert.False(t, m.Has(PositiveY))
	assert.Equal(t, []Face{PositiveX, NegativeZ}, m.Faces())
	assert.True(t, FaceMask(0).Empty())
	assert.True(t, FaceMask(0xC0).Empty(), "bits above the six faces are ignored")
}

func TestFaceNextWraps(t *testing.T) {
	f := NegativeY
	seen := []Face{}
	for i := 0; i < 7; i++ {
		seen = append(seen, f)
		f = f.Next()
	}
	assert.Equal(t, []Face{NegativeY, PositiveZ, NegativeZ, PositiveX, NegativeX, PositiveY, NegativeY}, seen)
}

func TestFaceNames(t *testing.T) {
	assert.Equal(t, [NumFaces]string{
		"PositiveX", "NegativeX", "PositiveY", "NegativeY", "PositiveZ", "NegativeZ",
	}, FaceNames())
	assert.Equal(t, "Face(9)", Face(9).String())
}

func TestLocateInvertsDirection(t *testing.T) {
	coords := []float32{-0.9, -0.5, 0, 0.3, 0.85}
	for f := PositiveX; f < NumFaces; f++ {
		for _, u := range coords {
			for _, v := range coords {
				got, gu, gv := Locate(f.Direction(u, v).Normalize())
				require.Equal(t, f, got, "face for (%v, %v)", u, v)
				assert.InDelta(t, u, gu, 1e-5)
				assert.InDelta(t, v, gv, 1e-5)
			}
		}
	}
}

func TestFaceViewLooksDownFace(t *testing.T) {
	origin := mgl32.Vec3{3, -2, 7}
	for f := PositiveX; f < NumFaces; f++ {
		forward, right, up := f.Basis()
		assert.InDelta(t, 0, forward.Dot(right), 1e-6, "%s", f)
		assert.InDelta(t, 0, forward.Dot(up), 1e-6, "%s", f)

		p := f.View(origin).Mul4x1(origin.Add(forward).Vec4(1))
		assert.True(t, p.Vec3().ApproxEqual(mgl32.Vec3{0, 0, -1}), "%s: %v", f, p)
	}
}
