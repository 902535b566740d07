package core

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformComposition(t *testing.T) {
	parent := NewTransform()
	parent.Position = mgl32.Vec3{10, 0, 0}
	parent.Rotation = mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})

	child := NewTransform()
	child.Position = mgl32.Vec3{1, 0, 0}

	world := parent.Compose(child)
	assert.InDelta(t, 10, world.Position.X(), 1e-5)
	assert.InDelta(t, 0, world.Position.Y(), 1e-5)
	assert.InDelta(t, -1, world.Position.Z(), 1e-5)
}

func TestNodeWorldPosition(t *testing.T) {
	root := NewNode("vessel")
	root.Local.Position = mgl32.Vec3{0, 5, 0}
	head := root.AddChild(NewNode("kerbal")).AddChild(NewNode("helmet"))
	head.Local.Position = mgl32.Vec3{0, 1, 0}

	assert.Equal(t, head, root.Find("helmet"))
	assert.Nil(t, root.Find("missing"))
	assert.True(t, head.World().Position.ApproxEqual(mgl32.Vec3{0, 6, 0}))
	assert.True(t, head.Ref().Position().ApproxEqual(mgl32.Vec3{0, 6, 0}))
}

func TestNodeRefLiveness(t *testing.T) {
	root := NewNode("vessel")
	kerbal := root.AddChild(NewNode("kerbal"))
	head := kerbal.AddChild(NewNode("helmet"))
	head.Local.Position = mgl32.Vec3{1, 2, 3}

	ref := head.Ref()
	require.True(t, ref.Alive())
	assert.Equal(t, "helmet", ref.Name())

	kerbal.Destroy()
	assert.False(t, ref.Alive(), "destroying an ancestor kills the handle")
	assert.True(t, head.Destroyed())
	assert.Equal(t, mgl32.Vec3{}, ref.Position())
	assert.Nil(t, root.Find("kerbal"))

	kerbal.Destroy()
	assert.False(t, NodeRef{}.Alive())
}

func TestDefaultLoggerLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLoggerTo(&out, &errOut, "refl", false)

	l.Debugf("hidden %d", 1)
	l.Infof("hello %s", "world")
	l.Warnf("careful")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[refl] INFO: hello world")
	assert.Contains(t, errOut.String(), "[refl] WARN: careful")

	l.SetDebug(true)
	require.True(t, l.DebugEnabled())
	l.Named("probe").Debugf("shown")
	assert.True(t, strings.Contains(out.String(), "[refl/probe] DEBUG: shown"))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := NewDefaultLogger("", false)
	assert.Same(t, l, OrNop(l))
}
