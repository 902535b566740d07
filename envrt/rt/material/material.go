package material

import (
	"github.com/gekko3d/envprobe/envrt/rt/cube"
)

// Shader is a loaded reflective shader program.
type Shader struct {
	Name    string
	Backend string
	Source  string
}

func (s *Shader) Valid() bool { return s != nil && s.Name != "" && s.Source != "" }

// Surface is a reflective material slot (a visor, a canopy) that can have an
// environment map bound to it.
type Surface interface {
	SurfaceName() string
	BindReflection(env *cube.Map, shader *Shader)
	UnbindReflection()
}

// Material is the default Surface implementation used by hosts that keep their
// material state in plain structs.
type Material struct {
	Name string
	// ReflectColor tints the reflection, alpha is the reflection strength.
	ReflectColor [4]float32

	env    *cube.Map
	shader *Shader
	binds  int
}

func NewMaterial(name string) *Material {
	return &Material{
		Name:         name,
		ReflectColor: [4]float32{1, 1, 1, 1},
	}
}

func (m *Material) SurfaceName() string { return m.Name }

func (m *Material) BindReflection(env *cube.Map, shader *Shader) {
	m.env = env
	m.shader = shader
	m.binds++
}

func (m *Material) UnbindReflection() {
	m.env = nil
	m.shader = nil
}

func (m *Material) EnvMap() *cube.Map { return m.env }

func (m *Material) Shader() *Shader { return m.shader }

func (m *Material) Reflective() bool { return m.env != nil }

// BindCount counts BindReflection calls, handy for asserting rebinding.
func (m *Material) BindCount() int { return m.binds }

// Copy clones m under a new name, keeping its current binding, the way object
// instances are copied from a prototype.
func (m *Material) Copy(name string) *Material {
	c := *m
	c.Name = name
	c.binds = 0
	return &c
}
