package shaders

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gekko3d/envprobe/envrt/rt/material"
)

//go:embed reflective.wgsl
var ReflectiveWGSL string

var (
	ErrNoBundle = errors.New("shaders: no bundle for backend")
	ErrNoShader = errors.New("shaders: shader not in bundle")
)

// Bundle is the set of shaders shipped for one rendering backend.
type Bundle struct {
	backend string
	sources map[string]string
}

// All wgpu backends consume the same WGSL sources.
var bundles = map[string]map[string]string{
	"vulkan": {"Reflective/Visor": ReflectiveWGSL},
	"metal":  {"Reflective/Visor": ReflectiveWGSL},
	"d3d12":  {"Reflective/Visor": ReflectiveWGSL},
}

// Open returns the bundle for backend (vulkan, metal or d3d12).
func Open(backend string) (*Bundle, error) {
	key := strings.ToLower(strings.TrimSpace(backend))
	sources, ok := bundles[key]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrNoBundle, backend)
	}
	return &Bundle{backend: key, sources: sources}, nil
}

// Backends lists the backends a bundle exists for.
func Backends() []string {
	res := make([]string, 0, len(bundles))
	for k := range bundles {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

func (b *Bundle) Backend() string { return b.backend }

func (b *Bundle) Shader(name string) (*material.Shader, error) {
	src, ok := b.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNoShader, name, b.backend)
	}
	return &material.Shader{Name: name, Backend: b.backend, Source: src}, nil
}
