package cadence

import "math"

// Affine is a 2D affine matrix:
//
//	| A  C  TX |
//	| B  D  TY |
//	| 0  0   1 |
type Affine struct {
	A, B, C, D, TX, TY float64
}

// IdentityAffine is the identity matrix.
var IdentityAffine = Affine{A: 1, D: 1}

// Mul returns m * o, so o is applied first.
func (m Affine) Mul(o Affine) Affine {
	return Affine{
		A:  m.A*o.A + m.C*o.B,
		B:  m.B*o.A + m.D*o.B,
		C:  m.A*o.C + m.C*o.D,
		D:  m.B*o.C + m.D*o.D,
		TX: m.A*o.TX + m.C*o.TY + m.TX,
		TY: m.B*o.TX + m.D*o.TY + m.TY,
	}
}

// Apply maps the point (x, y).
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m.A*x + m.C*y + m.TX, m.B*x + m.D*y + m.TY
}

// Invert returns the inverse matrix. A singular matrix inverts to the
// identity.
func (m Affine) Invert() Affine {
	det := m.A*m.D - m.C*m.B
	if math.Abs(det) < 1e-12 {
		return IdentityAffine
	}
	inv := 1 / det
	a, b, c, d := m.D*inv, -m.B*inv, -m.C*inv, m.A*inv
	return Affine{A: a, B: b, C: c, D: d, TX: -(a*m.TX + c*m.TY), TY: -(b*m.TX + d*m.TY)}
}

// localTransform builds the node's matrix from its animatable fields:
// translate by -pivot, scale, rotate, then translate to (X, Y).
func (n *Node) localTransform() Affine {
	sin, cos := math.Sincos(n.Rotation)
	sx, sy := n.ScaleX, n.ScaleY
	px, py := -n.PivotX*sx, -n.PivotY*sy
	return Affine{
		A:  cos * sx,
		B:  sin * sx,
		C:  -sin * sy,
		D:  cos * sy,
		TX: cos*px - sin*py + n.X,
		TY: sin*px + cos*py + n.Y,
	}
}

// refreshWorld recomputes world state for n and its subtree. force is set
// when an ancestor changed, so clean descendants still pick up the new
// parent matrix.
func (n *Node) refreshWorld(parent Affine, parentAlpha float64, force bool) {
	force = force || n.transformDirty
	if force {
		n.world = parent.Mul(n.localTransform())
		n.worldAlpha = parentAlpha * n.Alpha
		n.transformDirty = false
	}
	for _, c := range n.children {
		c.refreshWorld(n.world, n.worldAlpha, force)
	}
}

// UpdateTransforms refreshes world transforms of every dirty node in the
// subtree rooted at n, treating n as a root.
func (n *Node) UpdateTransforms() {
	n.refreshWorld(IdentityAffine, 1, false)
}

// WorldTransform returns the matrix computed by the last UpdateTransforms.
func (n *Node) WorldTransform() Affine { return n.world }

// WorldAlpha returns the alpha computed by the last UpdateTransforms.
func (n *Node) WorldAlpha() float64 { return n.worldAlpha }

// LocalToWorld maps a point in the node's space to world space.
func (n *Node) LocalToWorld(x, y float64) (float64, float64) {
	return n.world.Apply(x, y)
}

// WorldToLocal maps a world point into the node's space.
func (n *Node) WorldToLocal(x, y float64) (float64, float64) {
	return n.world.Invert().Apply(x, y)
}

// SetPosition moves the node and marks it dirty.
func (n *Node) SetPosition(x, y float64) {
	n.X, n.Y = x, y
	n.transformDirty = true
}

// SetScale sets both scale factors and marks the node dirty.
func (n *Node) SetScale(sx, sy float64) {
	n.ScaleX, n.ScaleY = sx, sy
	n.transformDirty = true
}

// SetRotation sets the rotation in radians and marks the node dirty.
func (n *Node) SetRotation(r float64) {
	n.Rotation = r
	n.transformDirty = true
}

// SetAlpha sets the node's alpha and marks it dirty.
func (n *Node) SetAlpha(a float64) {
	n.Alpha = a
	n.transformDirty = true
}

// MarkDirty forces the node's world state to be recomputed on the next
// UpdateTransforms. Storyboards call it after writing a node's fields.
func (n *Node) MarkDirty() {
	n.transformDirty = true
}
