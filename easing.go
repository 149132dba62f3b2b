package cadence

import (
	"math"
	"strings"

	"github.com/tanema/gween/ease"
)

// EasingFunction maps normalized progress to eased progress. Implementations
// must be pure. Overshooting curves (Back, Elastic) may leave [0, 1].
type EasingFunction interface {
	Ease(progress float64) float64
}

// EasingFunc adapts a plain function to EasingFunction.
type EasingFunc func(progress float64) float64

// Ease calls f.
func (f EasingFunc) Ease(progress float64) float64 { return f(progress) }

// Linear is the identity easing.
var Linear EasingFunction = EasingFunc(func(p float64) float64 { return p })

// EasingMode selects how a curve's ease-in formula is applied.
type EasingMode uint8

const (
	EaseIn    EasingMode = iota // f(p)
	EaseOut                     // 1 - f(1-p)
	EaseInOut                   // f(2p)/2, then 1 - f(2-2p)/2 from the midpoint
)

func (m EasingMode) String() string {
	switch m {
	case EaseIn:
		return "in"
	case EaseOut:
		return "out"
	case EaseInOut:
		return "inout"
	}
	return "unknown"
}

// Curve is an ease-in formula over [0, 1] with Curve(0) = 0 and Curve(1) = 1.
type Curve func(p float64) float64

// Easing applies a Curve in one of the three modes.
type Easing struct {
	Curve Curve
	Mode  EasingMode
}

// Ease applies the curve in the configured mode. A nil curve is linear.
func (e Easing) Ease(p float64) float64 {
	f := e.Curve
	if f == nil {
		return p
	}
	switch e.Mode {
	case EaseOut:
		return 1 - f(1-p)
	case EaseInOut:
		if p < 0.5 {
			return f(2*p) / 2
		}
		return 1 - f(2-2*p)/2
	default:
		return f(p)
	}
}

// CurveFromTween turns a gween ease-in function into a Curve by evaluating
// it over a unit change and unit duration.
func CurveFromTween(fn ease.TweenFunc) Curve {
	return func(p float64) float64 {
		return float64(fn(float32(p), 0, 1, 1))
	}
}

// Built-in curves. Each is the ease-in formula; the mode supplies the rest.
var (
	QuadraticCurve   = CurveFromTween(ease.InQuad)
	CubicCurve       = CurveFromTween(ease.InCubic)
	QuarticCurve     = CurveFromTween(ease.InQuart)
	QuinticCurve     = CurveFromTween(ease.InQuint)
	SineCurve        = CurveFromTween(ease.InSine)
	ExponentialCurve = CurveFromTween(ease.InExpo)
	CircleCurve      = CurveFromTween(ease.InCirc)
	BackCurve        = CurveFromTween(ease.InBack)
	ElasticCurve     = CurveFromTween(ease.InElastic)
	BounceCurve      = CurveFromTween(ease.InBounce)
)

// PowerCurve returns p raised to power, with p clamped to [0, 1].
func PowerCurve(power float64) Curve {
	return func(p float64) float64 {
		return math.Pow(math.Max(0, math.Min(1, p)), power)
	}
}

// QuadraticEase returns a quadratic easing in mode m.
func QuadraticEase(m EasingMode) Easing { return Easing{Curve: QuadraticCurve, Mode: m} }

// CubicEase returns a cubic easing in mode m.
func CubicEase(m EasingMode) Easing { return Easing{Curve: CubicCurve, Mode: m} }

// SineEase returns a sine easing in mode m.
func SineEase(m EasingMode) Easing { return Easing{Curve: SineCurve, Mode: m} }

// BounceEase returns a bounce easing in mode m.
func BounceEase(m EasingMode) Easing { return Easing{Curve: BounceCurve, Mode: m} }

// PowerEase returns a power easing with the given exponent in mode m.
func PowerEase(power float64, m EasingMode) Easing { return Easing{Curve: PowerCurve(power), Mode: m} }

var namedCurves = map[string]Curve{
	"quad":    QuadraticCurve,
	"cubic":   CubicCurve,
	"quart":   QuarticCurve,
	"quint":   QuinticCurve,
	"sine":    SineCurve,
	"expo":    ExponentialCurve,
	"circ":    CircleCurve,
	"back":    BackCurve,
	"elastic": ElasticCurve,
	"bounce":  BounceCurve,
}

// LookupEasing resolves names such as "linear", "quad-in", "cubic-out" or
// "sine-inout". A bare curve name uses EaseIn.
func LookupEasing(name string) (EasingFunction, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "linear" {
		return Linear, true
	}
	curveName, modeName, _ := strings.Cut(name, "-")
	curve, ok := namedCurves[curveName]
	if !ok {
		return nil, false
	}
	var mode EasingMode
	switch modeName {
	case "", "in":
		mode = EaseIn
	case "out":
		mode = EaseOut
	case "inout", "in-out":
		mode = EaseInOut
	default:
		return nil, false
	}
	return Easing{Curve: curve, Mode: mode}, true
}
