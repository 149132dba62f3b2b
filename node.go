package cadence

import (
	"slices"
	"sync/atomic"
)

// nodeIDCounter hands out node IDs. Nodes may be created on any
// dispatcher's goroutine, so the counter is atomic.
var nodeIDCounter atomic.Uint32

func nextNodeID() uint32 {
	return nodeIDCounter.Add(1)
}

// Brush is a nested paint value, giving property paths such as
// "Fill.Color" or "Fill.Opacity" something to walk through.
type Brush struct {
	Color   Color
	Opacity float64
}

// NewBrush returns an opaque brush of color c.
func NewBrush(c Color) *Brush {
	return &Brush{Color: c, Opacity: 1}
}

// Node is the animatable scene element. A single flat struct holds every
// property so storyboards can bind to plain exported fields.
//
// Node embeds DispatcherObject: tree mutations must run on the goroutine of
// the dispatcher the node was created with, and panic with a
// *CrossThreadAccessError otherwise. Field writes are not checked; the
// storyboard that writes them verifies access at Begin.
type Node struct {
	DispatcherObject

	ID   uint32
	Name string

	Parent   *Node
	children []*Node

	// Local transform, in the parent's space.
	X, Y     float64
	ScaleX   float64
	ScaleY   float64
	Rotation float64
	PivotX   float64
	PivotY   float64

	// Size of the node's box in local units, drawn by hosts as a filled rect.
	Width, Height float64

	// Appearance
	Alpha   float64
	Color   Color
	Fill    *Brush
	Visible bool

	UserData any

	// Computed
	world          Affine
	worldAlpha     float64
	transformDirty bool

	disposed bool
}

// NewNode creates a node bound to d. A nil d makes the node free-threaded.
func NewNode(d *Dispatcher, name string) *Node {
	return &Node{
		DispatcherObject: NewDispatcherObject(d),
		ID:               nextNodeID(),
		Name:             name,
		ScaleX:           1,
		ScaleY:           1,
		Alpha:            1,
		Color:            ColorWhite,
		Visible:          true,
		transformDirty:   true,
	}
}

// NewRect creates a node with a box of w by h filled with c.
func NewRect(d *Dispatcher, name string, w, h float64, c Color) *Node {
	n := NewNode(d, name)
	n.Width, n.Height = w, h
	n.Fill = NewBrush(c)
	return n
}

// --- Tree manipulation ---

// AddChild appends child, reparenting it if it already has a parent. It
// panics if child is nil, disposed, or an ancestor of n.
func (n *Node) AddChild(child *Node) {
	n.AddChildAt(child, -1)
}

// AddChildAt is AddChild with an insertion index; -1 appends.
func (n *Node) AddChildAt(child *Node, index int) {
	n.mustAccess()
	if child == nil {
		panic("cadence: cannot add nil child")
	}
	child.mustAccess()
	if n.disposed || child.disposed {
		panic("cadence: node is disposed")
	}
	if isAncestor(child, n) {
		panic("cadence: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.detach(child)
	}
	if index == -1 {
		index = len(n.children)
	}
	if index < 0 || index > len(n.children) {
		panic("cadence: child index out of range")
	}
	child.Parent = n
	n.children = slices.Insert(n.children, index, child)
	markSubtreeDirty(child)
	debugCheckNodeDepth(child)
	debugCheckChildCount(n)
}

// RemoveChild detaches child. It panics unless n is child's parent.
func (n *Node) RemoveChild(child *Node) {
	n.mustAccess()
	if child == nil || child.Parent != n {
		panic("cadence: child's parent is not this node")
	}
	n.detach(child)
	child.Parent = nil
	markSubtreeDirty(child)
}

// RemoveFromParent detaches n from its parent, if any.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// Children returns the child list. Callers must not modify it.
func (n *Node) Children() []*Node {
	return n.children
}

func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// Find returns the first node named name in this subtree, depth-first,
// including n itself.
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.children {
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// FindName implements NameScope over the node's subtree.
func (n *Node) FindName(name string) (any, bool) {
	if found := n.Find(name); found != nil {
		return found, true
	}
	return nil, false
}

// Walk calls fn for n and each descendant in depth-first order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// --- Disposal ---

// Dispose detaches n and disposes its whole subtree. Disposed nodes reject
// further tree mutations.
func (n *Node) Dispose() {
	n.mustAccess()
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	n.ID = 0
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.Parent = nil
	n.Fill = nil
	n.UserData = nil
}

// IsDisposed reports whether Dispose has run.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether a is node or one of its ancestors.
func isAncestor(a, node *Node) bool {
	for ; node != nil; node = node.Parent {
		if node == a {
			return true
		}
	}
	return false
}

// detach drops child from n's child list. child.Parent is left to the caller.
func (n *Node) detach(child *Node) {
	if i := slices.Index(n.children, child); i >= 0 {
		n.children = slices.Delete(n.children, i, i+1)
	}
}

func markSubtreeDirty(n *Node) {
	n.transformDirty = true
	for _, c := range n.children {
		markSubtreeDirty(c)
	}
}
