package cadence

import (
	"math"
	"testing"
)

func TestEasingEndpoints(t *testing.T) {
	curves := map[string]Curve{
		"quad":    QuadraticCurve,
		"cubic":   CubicCurve,
		"quart":   QuarticCurve,
		"quint":   QuinticCurve,
		"sine":    SineCurve,
		"circ":    CircleCurve,
		"back":    BackCurve,
		"elastic": ElasticCurve,
		"power":   PowerCurve(2.5),
	}
	for name, c := range curves {
		for _, mode := range []EasingMode{EaseIn, EaseOut, EaseInOut} {
			e := Easing{Curve: c, Mode: mode}
			if v := e.Ease(0); math.Abs(v) > 1e-6 {
				t.Errorf("%s-%s Ease(0) = %f, want ~0", name, mode, v)
			}
			if v := e.Ease(1); math.Abs(v-1) > 1e-6 {
				t.Errorf("%s-%s Ease(1) = %f, want ~1", name, mode, v)
			}
		}
	}
}

func TestQuadraticModes(t *testing.T) {
	cases := []struct {
		mode EasingMode
		p    float64
		want float64
	}{
		{EaseIn, 0.5, 0.25},
		{EaseOut, 0.5, 0.75},
		{EaseInOut, 0.25, 0.125},
		{EaseInOut, 0.5, 0.5},
		{EaseInOut, 0.75, 0.875},
	}
	for _, tc := range cases {
		got := QuadraticEase(tc.mode).Ease(tc.p)
		if math.Abs(got-tc.want) > 1e-6 {
			t.Errorf("quad-%s(%f) = %f, want ~%f", tc.mode, tc.p, got, tc.want)
		}
	}
}

func TestEaseOutMirrorsEaseIn(t *testing.T) {
	in, out := CubicEase(EaseIn), CubicEase(EaseOut)
	for _, p := range []float64{0.1, 0.3, 0.6, 0.9} {
		if got, want := out.Ease(p), 1-in.Ease(1-p); math.Abs(got-want) > 1e-6 {
			t.Errorf("out(%f) = %f, want %f", p, got, want)
		}
	}
}

func TestBounceEndpoints(t *testing.T) {
	b := BounceEase(EaseOut)
	if v := b.Ease(1); math.Abs(v-1) > 1e-3 {
		t.Errorf("bounce-out(1) = %f, want ~1", v)
	}
	if v := b.Ease(0); math.Abs(v) > 1e-3 {
		t.Errorf("bounce-out(0) = %f, want ~0", v)
	}
}

func TestBackOvershoots(t *testing.T) {
	e := Easing{Curve: BackCurve, Mode: EaseIn}
	if v := e.Ease(0.2); v >= 0 {
		t.Errorf("back-in(0.2) = %f, want negative", v)
	}
}

func TestNilCurveIsLinear(t *testing.T) {
	var e Easing
	if v := e.Ease(0.37); v != 0.37 {
		t.Errorf("Ease = %f, want 0.37", v)
	}
	if v := Linear.Ease(0.37); v != 0.37 {
		t.Errorf("Linear = %f, want 0.37", v)
	}
}

func TestPowerCurveClamps(t *testing.T) {
	c := PowerCurve(3)
	if c(-1) != 0 || c(2) != 1 {
		t.Errorf("PowerCurve(3) outside [0,1] = %f, %f, want 0, 1", c(-1), c(2))
	}
}

func TestLookupEasing(t *testing.T) {
	cases := []struct {
		name string
		p    float64
		want float64
	}{
		{"", 0.5, 0.5},
		{"linear", 0.5, 0.5},
		{"quad", 0.5, 0.25},
		{"quad-in", 0.5, 0.25},
		{"Quad-Out", 0.5, 0.75},
		{"quad-inout", 0.25, 0.125},
		{"quad-in-out", 0.75, 0.875},
	}
	for _, tc := range cases {
		e, ok := LookupEasing(tc.name)
		if !ok {
			t.Errorf("LookupEasing(%q) not found", tc.name)
			continue
		}
		if got := e.Ease(tc.p); math.Abs(got-tc.want) > 1e-6 {
			t.Errorf("%q.Ease(%f) = %f, want ~%f", tc.name, tc.p, got, tc.want)
		}
	}
	for _, bad := range []string{"wobble", "quad-sideways"} {
		if _, ok := LookupEasing(bad); ok {
			t.Errorf("LookupEasing(%q) should fail", bad)
		}
	}
}

func TestEasingFunc(t *testing.T) {
	half := EasingFunc(func(p float64) float64 { return p / 2 })
	if half.Ease(1) != 0.5 {
		t.Errorf("EasingFunc.Ease(1) = %f, want 0.5", half.Ease(1))
	}
}
