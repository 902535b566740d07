package mode

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects how reflective surfaces get their environment map.
type Mode int

const (
	Disabled Mode = iota
	Static
	Dynamic
)

var (
	ErrUnknownMode = errors.New("mode: unknown reflection mode")
	ErrNoCamera    = errors.New("mode: no capture camera")
	ErrNoShader    = errors.New("mode: reflective shader unavailable")
	ErrNoStaticMap = errors.New("mode: static environment map unavailable")
)

func (m Mode) String() string {
	switch m {
	case Disabled:
		return "Disabled"
	case Static:
		return "Static"
	case Dynamic:
		return "Dynamic"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts both the configuration spellings (None, Static, Real) and
// the mode names. Matching is case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "disabled", "off":
		return Disabled, nil
	case "static":
		return Static, nil
	case "real", "dynamic":
		return Dynamic, nil
	}
	return Disabled, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// ConfigName is the configuration spelling of m.
func (m Mode) ConfigName() string {
	switch m {
	case Static:
		return "Static"
	case Dynamic:
		return "Real"
	}
	return "None"
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.ConfigName()), nil }

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Diagnostic records why a requested mode was not granted.
type Diagnostic struct {
	Requested Mode
	Effective Mode
	Cause     error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s requested, %s in effect: %v", d.Requested, d.Effective, d.Cause)
}
