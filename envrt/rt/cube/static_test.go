package cube

import (
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidFaces(w, h int) [NumFaces]image.Image {
	var faces [NumFaces]image.Image
	for f := range faces {
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		c := color.NRGBA{R: uint8(40 * f), G: 100, B: 200, A: 255}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetNRGBA(x, y, c)
			}
		}
		faces[f] = img
	}
	return faces
}

func TestStaticRejectsMissingFace(t *testing.T) {
	faces := solidFaces(128, 128)
	faces[NegativeY] = nil

	var s Static
	err := s.Build(faces)
	require.ErrorIs(t, err, ErrMissingFace)
	assert.Contains(t, err.Error(), "NegativeY")
	assert.False(t, s.Valid())
	assert.Nil(t, s.Map())
}

func TestStaticRejectsSizeMismatch(t *testing.T) {
	faces := solidFaces(128, 128)
	faces[PositiveZ] = solidFaces(64, 128)[0]

	var s Static
	require.ErrorIs(t, s.Build(faces), ErrSizeMismatch)
	assert.False(t, s.Valid())

	faces = solidFaces(128, 128)
	faces[NegativeX] = solidFaces(128, 64)[0]
	require.ErrorIs(t, s.Build(faces), ErrSizeMismatch)

	require.ErrorIs(t, s.Build(solidFaces(128, 64)), ErrSizeMismatch, "faces must be square")
}

func TestStaticRejectsNonPowerOfTwo(t *testing.T) {
	var s Static
	require.ErrorIs(t, s.Build(solidFaces(100, 100)), ErrNotPowerOfTwo)
	assert.False(t, s.Valid())
}

func TestStaticFailureClearsPreviousMap(t *testing.T) {
	var s Static
	require.NoError(t, s.Build(solidFaces(16, 16)))
	require.True(t, s.Valid())

	require.Error(t, s.Build(solidFaces(100, 100)))
	assert.False(t, s.Valid())
}

func TestStaticBuildsFrozenMapWithMips(t *testing.T) {
	var s Static
	require.NoError(t, s.Build(solidFaces(128, 128)))
	require.True(t, s.Valid())

	m := s.Map()
	assert.Equal(t, 128, m.Size())
	assert.True(t, m.Frozen())

	mips := m.Mips(PositiveX)
	require.Len(t, mips, 7)
	assert.Equal(t, 64, mips[0].Bounds().Dx())
	assert.Equal(t, 1, mips[6].Bounds().Dx())

	for f := PositiveX; f < NumFaces; f++ {
		assert.Equal(t, uint64(1), m.Revision(f))
		got := m.Face(f).RGBAAt(5, 5)
		assert.Equal(t, color.RGBA{R: uint8(40 * int(f)), G: 100, B: 200, A: 255}, got)
	}
	assert.Equal(t, uint8(120), m.Sample(mgl32.Vec3{0, -1, 0}).R, "NegativeY face")

	assert.Panics(t, func() { m.Touch(PositiveX.Mask()) })
}
