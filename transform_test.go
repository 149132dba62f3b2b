package cadence

import (
	"math"
	"testing"
)

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want Affine) {
	t.Helper()
	g := [6]float64{got.A, got.B, got.C, got.D, got.TX, got.TY}
	w := [6]float64{want.A, want.B, want.C, want.D, want.TX, want.TY}
	for i := range g {
		if math.Abs(g[i]-w[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %+v vs %+v)", name, i, g[i], w[i], got, want)
		}
	}
}

// --- localTransform ---

func TestLocalTransformIdentity(t *testing.T) {
	n := NewNode(nil, "test")
	assertMatrix(t, "identity", n.localTransform(), IdentityAffine)
}

func TestLocalTransformTranslation(t *testing.T) {
	n := NewNode(nil, "test")
	n.X = 10
	n.Y = 20
	assertMatrix(t, "translation", n.localTransform(), Affine{A: 1, D: 1, TX: 10, TY: 20})
}

func TestLocalTransformScale(t *testing.T) {
	n := NewNode(nil, "test")
	n.ScaleX = 2
	n.ScaleY = 3
	assertMatrix(t, "scale", n.localTransform(), Affine{A: 2, D: 3})
}

func TestLocalTransformRotation90(t *testing.T) {
	n := NewNode(nil, "test")
	n.Rotation = math.Pi / 2
	assertMatrix(t, "rot90", n.localTransform(), Affine{B: 1, C: -1})
}

func TestLocalTransformPivot(t *testing.T) {
	n := NewNode(nil, "test")
	n.X = 100
	n.Y = 200
	n.PivotX = 16
	n.PivotY = 16
	// T(100,200) * T(-16,-16)
	assertMatrix(t, "pivot", n.localTransform(), Affine{A: 1, D: 1, TX: 84, TY: 184})
}

func TestLocalTransformPivotScale(t *testing.T) {
	n := NewNode(nil, "test")
	n.ScaleX = 2
	n.ScaleY = 2
	n.PivotX = 5
	n.PivotY = 5
	// The pivot lands on the node's position.
	x, y := n.localTransform().Apply(5, 5)
	assertNear(t, "pivot x", x, 0)
	assertNear(t, "pivot y", y, 0)
}

// --- World transforms ---

func TestWorldTransformComposes(t *testing.T) {
	parent := NewNode(nil, "parent")
	parent.SetPosition(10, 20)
	parent.SetScale(2, 2)
	child := NewNode(nil, "child")
	child.SetPosition(5, 5)
	parent.AddChild(child)

	parent.UpdateTransforms()
	wx, wy := child.LocalToWorld(0, 0)
	assertNear(t, "world x", wx, 20)
	assertNear(t, "world y", wy, 30)
}

func TestWorldAlphaMultiplies(t *testing.T) {
	parent := NewNode(nil, "parent")
	parent.SetAlpha(0.5)
	child := NewNode(nil, "child")
	child.SetAlpha(0.5)
	parent.AddChild(child)

	parent.UpdateTransforms()
	assertNear(t, "world alpha", child.WorldAlpha(), 0.25)
}

func TestDirtyParentRecomputesCleanChild(t *testing.T) {
	parent := NewNode(nil, "parent")
	child := NewNode(nil, "child")
	child.SetPosition(1, 0)
	parent.AddChild(child)
	parent.UpdateTransforms()

	parent.SetPosition(100, 0)
	if child.transformDirty {
		t.Fatal("child should be clean before the parent update")
	}
	parent.UpdateTransforms()
	wx, _ := child.LocalToWorld(0, 0)
	assertNear(t, "child world x", wx, 101)
}

func TestMarkDirtyPicksUpDirectFieldWrites(t *testing.T) {
	n := NewNode(nil, "n")
	n.UpdateTransforms()
	n.X = 42
	n.UpdateTransforms()
	if x, _ := n.LocalToWorld(0, 0); x != 0 {
		t.Fatalf("clean node recomputed: x = %f", x)
	}
	n.MarkDirty()
	n.UpdateTransforms()
	x, _ := n.LocalToWorld(0, 0)
	assertNear(t, "x after MarkDirty", x, 42)
}

func TestSetRotation(t *testing.T) {
	n := NewNode(nil, "n")
	n.SetRotation(math.Pi)
	n.UpdateTransforms()
	x, y := n.LocalToWorld(1, 0)
	assertNear(t, "x", x, -1)
	assertNear(t, "y", y, 0)
}

func TestAffineMulIdentity(t *testing.T) {
	m := Affine{2, 1, -1, 3, 7, 9}
	assertMatrix(t, "I*m", IdentityAffine.Mul(m), m)
	assertMatrix(t, "m*I", m.Mul(IdentityAffine), m)
}

func TestAffineInvert(t *testing.T) {
	m := Affine{2, 1, -1, 3, 7, 9}
	assertMatrix(t, "m*inv", m.Mul(m.Invert()), IdentityAffine)
	assertMatrix(t, "singular", Affine{A: 1, C: 2, B: 2, D: 4}.Invert(), IdentityAffine)
}

func TestWorldToLocalRoundTrip(t *testing.T) {
	parent := NewNode(nil, "parent")
	parent.SetPosition(10, 20)
	parent.SetRotation(math.Pi / 2)
	child := NewNode(nil, "child")
	child.SetScale(2, 2)
	parent.AddChild(child)
	parent.UpdateTransforms()

	wx, wy := child.LocalToWorld(3, 4)
	assertNear(t, "world x", wx, 2)
	assertNear(t, "world y", wy, 26)
	lx, ly := child.WorldToLocal(wx, wy)
	assertNear(t, "local x", lx, 3)
	assertNear(t, "local y", ly, 4)
}

func BenchmarkUpdateTransforms(b *testing.B) {
	root := NewNode(nil, "root")
	for i := range 100 {
		c := NewNode(nil, "c")
		c.X = float64(i)
		root.AddChild(c)
		for range 10 {
			c.AddChild(NewNode(nil, "leaf"))
		}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		root.MarkDirty()
		root.UpdateTransforms()
	}
}
