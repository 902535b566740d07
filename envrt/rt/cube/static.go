package cube

import (
	"errors"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/draw"
)

var (
	ErrMissingFace   = errors.New("cube: missing face image")
	ErrSizeMismatch  = errors.New("cube: face dimensions differ")
	ErrNotPowerOfTwo = errors.New("cube: face size is not a power of two")
)

// Static holds the process-wide static environment map built from six
// pre-rendered images. It is either unset or holds a frozen, complete map.
type Static struct {
	m *Map
}

// Build validates faces and, on success, replaces the held map. On failure the
// holder is left unset and the returned error wraps one of ErrMissingFace,
// ErrSizeMismatch or ErrNotPowerOfTwo.
func (s *Static) Build(faces [NumFaces]image.Image) error {
	s.m = nil
	m, err := BuildStatic(faces)
	if err != nil {
		return err
	}
	s.m = m
	return nil
}

func (s *Static) Map() *Map {
	if s == nil {
		return nil
	}
	return s.m
}

func (s *Static) Valid() bool { return s != nil && s.m != nil }

func (s *Static) Reset() { s.m = nil }

// ValidateFaces checks the six face images and returns their common edge length.
func ValidateFaces(faces [NumFaces]image.Image) (int, error) {
	for f, img := range faces {
		if img == nil || img.Bounds().Empty() {
			return 0, fmt.Errorf("%w: %s", ErrMissingFace, Face(f))
		}
	}

	ref := faces[0].Bounds().Size()
	if ref.X != ref.Y {
		return 0, fmt.Errorf("%w: %s is %dx%d", ErrSizeMismatch, PositiveX, ref.X, ref.Y)
	}
	for f, img := range faces[1:] {
		sz := img.Bounds().Size()
		if sz != ref {
			return 0, fmt.Errorf("%w: %s is %dx%d, %s is %dx%d",
				ErrSizeMismatch, Face(f+1), sz.X, sz.Y, PositiveX, ref.X, ref.Y)
		}
	}

	if !isPow2(ref.X) {
		return 0, fmt.Errorf("%w: %d", ErrNotPowerOfTwo, ref.X)
	}
	return ref.X, nil
}

// BuildStatic copies six validated faces into a new frozen map with mip chains.
func BuildStatic(faces [NumFaces]image.Image) (*Map, error) {
	size, err := ValidateFaces(faces)
	if err != nil {
		return nil, err
	}

	m := NewMap(size)
	for f, src := range faces {
		dst := m.faces[f]
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		m.mips[f] = buildMips(dst)
	}
	m.Touch(AllFaces)
	m.Freeze()
	return m, nil
}

func buildMips(level0 *image.RGBA) []*image.RGBA {
	var chain []*image.RGBA
	size := level0.Bounds().Dx() / 2
	prev := level0
	for size >= 1 {
		next := transform.Resize(prev, size, size, transform.Linear)
		chain = append(chain, next)
		prev = next
		size /= 2
	}
	return chain
}

func isPow2(n int) bool { return n > 0 && n&(n-1) == 0 }
