package cadence

import (
	"math"
	"reflect"
)

// Interpolator blends from and to at eased progress t.
type Interpolator[T any] func(from, to T, t float64) T

// Number is the set of value types with a linear blend.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// LerpNumber blends numerically. Integer types round to the nearest value.
func LerpNumber[T Number](from, to T, t float64) T {
	v := float64(from) + (float64(to)-float64(from))*t
	if T(1)/T(2) == 0 {
		return T(math.Round(v))
	}
	return T(v)
}

// Hold is the nearest-instant interpolation: the value stays at from until
// progress reaches the end, then snaps to to.
func Hold[T any](from, to T, t float64) T {
	if t >= 1 {
		return to
	}
	return from
}

// AnimationTimeline is a leaf timeline that produces values of one type.
type AnimationTimeline interface {
	Timeline
	// ValueType is the exact property type the animation can drive.
	ValueType() reflect.Type
	bind(slot PropertySlot) (binding, error)
}

// Animation animates a property of type T from From to To over its simple
// duration. It holds no time state: ValueAt is pure in progress.
type Animation[T any] struct {
	Timing
	From   T
	To     T
	Easing EasingFunction

	interp Interpolator[T]
}

// NewAnimation returns an animation blending with interp. A nil interp
// holds From until the end, then snaps to To.
func NewAnimation[T any](from, to T, interp Interpolator[T]) *Animation[T] {
	return &Animation[T]{From: from, To: to, interp: interp}
}

// NewNumberAnimation returns a linearly blending numeric animation.
func NewNumberAnimation[T Number](from, to T) *Animation[T] {
	return NewAnimation(from, to, LerpNumber[T])
}

// NewColorAnimation returns a per-channel blending color animation.
func NewColorAnimation(from, to Color) *Animation[Color] {
	return NewAnimation(from, to, LerpColor)
}

// NewDiscreteAnimation returns an animation that snaps to to at its end.
func NewDiscreteAnimation[T any](from, to T) *Animation[T] {
	return NewAnimation(from, to, Hold[T])
}

// Interpolate blends from and to at eased progress t.
func (a *Animation[T]) Interpolate(from, to T, t float64) T {
	if a.interp == nil {
		return Hold(from, to, t)
	}
	return a.interp(from, to, t)
}

// ValueAt eases progress, which has already had its direction resolved, and
// interpolates between From and To.
func (a *Animation[T]) ValueAt(progress float64) T {
	if a.Easing != nil {
		progress = a.Easing.Ease(progress)
	}
	return a.Interpolate(a.From, a.To, progress)
}

// ValueType implements AnimationTimeline.
func (a *Animation[T]) ValueType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (a *Animation[T]) bind(slot PropertySlot) (binding, error) {
	want := a.ValueType()
	if got := slot.Type(); got != want {
		return nil, &PropertyBindingError{Timeline: a.Name, Want: want, Got: got}
	}
	b := &animationBinding[T]{anim: a}
	if ps, ok := slot.(PointerSlot); ok {
		if ptr, ok := ps.Pointer().(*T); ok {
			b.ptr = ptr
		}
	}
	if b.ptr == nil {
		b.slot = slot
	}
	b.original = b.get(slot)
	return b, nil
}

// binding writes one leaf's values into one resolved property.
type binding interface {
	// apply writes the value at un-eased progress.
	apply(progress float64)
	// applyFrom writes the animation's From value.
	applyFrom()
	// restore writes the value captured at bind time.
	restore()
}

type animationBinding[T any] struct {
	anim     *Animation[T]
	ptr      *T
	slot     PropertySlot
	original T
}

func (b *animationBinding[T]) get(slot PropertySlot) T {
	if b.ptr != nil {
		return *b.ptr
	}
	v, _ := slot.Get().(T)
	return v
}

func (b *animationBinding[T]) set(v T) {
	if b.ptr != nil {
		*b.ptr = v
		return
	}
	if err := b.slot.Set(v); err != nil {
		Logger().Warn("property write rejected", "timeline", b.anim.Name, "error", err)
	}
}

func (b *animationBinding[T]) apply(progress float64) { b.set(b.anim.ValueAt(progress)) }
func (b *animationBinding[T]) applyFrom()             { b.set(b.anim.From) }
func (b *animationBinding[T]) restore()               { b.set(b.original) }
