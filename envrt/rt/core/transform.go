package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() Transform {
	return Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (t Transform) ObjectToWorld() mgl32.Mat4 {
	// M = T * R * S
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Rotation.Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

// Compose returns child expressed in the space of t.
// Scale is propagated per component so mirrored parents keep their sign.
func (t Transform) Compose(child Transform) Transform {
	scaled := mgl32.Vec3{
		child.Position.X() * t.Scale.X(),
		child.Position.Y() * t.Scale.Y(),
		child.Position.Z() * t.Scale.Z(),
	}
	return Transform{
		Position: t.Position.Add(t.Rotation.Rotate(scaled)),
		Rotation: t.Rotation.Mul(child.Rotation).Normalize(),
		Scale: mgl32.Vec3{
			t.Scale.X() * child.Scale.X(),
			t.Scale.Y() * child.Scale.Y(),
			t.Scale.Z() * child.Scale.Z(),
		},
	}
}

// Node is a scene-graph node owned by the host simulation. Anything that only
// follows a node holds a NodeRef, never the *Node itself.
type Node struct {
	Name  string
	Local Transform

	parent    *Node
	children  []*Node
	gen       uint32
	destroyed bool
}

func NewNode(name string) *Node {
	return &Node{Name: name, Local: NewTransform()}
}

// AddChild attaches child under n, detaching it from any previous parent.
func (n *Node) AddChild(child *Node) *Node {
	if child.parent != nil {
		child.parent.removeChild(child)
	}
	child.parent = n
	n.children = append(n.children, child)
	return child
}

func (n *Node) removeChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

func (n *Node) Parent() *Node { return n.parent }

// Find returns the first descendant (depth first) with the given name.
func (n *Node) Find(name string) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

func (n *Node) World() Transform {
	if n.parent == nil {
		return n.Local
	}
	return n.parent.World().Compose(n.Local)
}

// Destroy invalidates every NodeRef handed out so far, recursively.
func (n *Node) Destroy() {
	if n.destroyed {
		return
	}
	for _, c := range n.children {
		c.Destroy()
	}
	if n.parent != nil {
		n.parent.removeChild(n)
		n.parent = nil
	}
	n.destroyed = true
	n.gen++
}

func (n *Node) Destroyed() bool { return n.destroyed }

func (n *Node) Ref() NodeRef {
	return NodeRef{node: n, gen: n.gen}
}

// NodeRef is a non-owning, generation-checked handle to a Node.
type NodeRef struct {
	node *Node
	gen  uint32
}

func (r NodeRef) Alive() bool {
	return r.node != nil && !r.node.destroyed && r.node.gen == r.gen
}

// Position is the world position of the node, or the zero vector once the node is gone.
func (r NodeRef) Position() mgl32.Vec3 {
	if !r.Alive() {
		return mgl32.Vec3{}
	}
	return r.node.World().Position
}

func (r NodeRef) Name() string {
	if r.node == nil {
		return ""
	}
	return r.node.Name
}
