package cadence

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultAnimationDuration is the simple duration of a leaf animation whose
// Duration is Automatic.
const DefaultAnimationDuration = time.Second

type durationKind uint8

const (
	durationAutomatic durationKind = iota
	durationFinite
	durationForever
)

// Duration is a timeline's simple duration: a finite time span, Automatic
// (resolved from the timeline's content) or Forever. The zero value is
// Automatic.
type Duration struct {
	kind  durationKind
	value time.Duration
}

var (
	// Automatic resolves to the natural duration of the timeline's content.
	Automatic = Duration{}
	// Forever never ends.
	Forever = Duration{kind: durationForever}
)

// DurationOf returns a finite Duration.
func DurationOf(d time.Duration) Duration {
	return Duration{kind: durationFinite, value: d}
}

// IsAutomatic reports whether d is Automatic.
func (d Duration) IsAutomatic() bool { return d.kind == durationAutomatic }

// IsForever reports whether d is Forever.
func (d Duration) IsForever() bool { return d.kind == durationForever }

// HasTimeSpan reports whether d is finite.
func (d Duration) HasTimeSpan() bool { return d.kind == durationFinite }

// TimeSpan returns the finite value of d, or zero.
func (d Duration) TimeSpan() time.Duration {
	if d.kind != durationFinite {
		return 0
	}
	return d.value
}

func (d Duration) String() string {
	switch d.kind {
	case durationAutomatic:
		return "automatic"
	case durationForever:
		return "forever"
	default:
		return d.value.String()
	}
}

// ParseDuration parses "automatic", "forever" or a Go duration string.
func ParseDuration(s string) (Duration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "automatic", "auto":
		return Automatic, nil
	case "forever":
		return Forever, nil
	}
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return Duration{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return DurationOf(v), nil
}

type repeatKind uint8

const (
	repeatCount repeatKind = iota
	repeatDuration
	repeatForever
)

// RepeatBehavior controls how long a timeline's active period lasts: a number
// of iterations (fractional counts end partway through an iteration), a total
// time span, or Forever. The zero value is one iteration.
type RepeatBehavior struct {
	kind     repeatKind
	count    float64 // 0 means 1 for the zero value
	duration time.Duration
}

// RepeatForever repeats without end.
var RepeatForever = RepeatBehavior{kind: repeatForever}

// RepeatCount repeats the timeline n times.
func RepeatCount(n float64) RepeatBehavior {
	return RepeatBehavior{kind: repeatCount, count: n}
}

// RepeatFor repeats the timeline until d has elapsed.
func RepeatFor(d time.Duration) RepeatBehavior {
	return RepeatBehavior{kind: repeatDuration, duration: d}
}

// IsForever reports whether r never ends.
func (r RepeatBehavior) IsForever() bool { return r.kind == repeatForever }

// Count returns the iteration count, or 0 when r is not count based.
func (r RepeatBehavior) Count() float64 {
	if r.kind != repeatCount {
		return 0
	}
	if r.count == 0 {
		return 1
	}
	return r.count
}

// Duration returns the repeat span, or 0 when r is not duration based.
func (r RepeatBehavior) Duration() time.Duration {
	if r.kind != repeatDuration {
		return 0
	}
	return r.duration
}

func (r RepeatBehavior) String() string {
	switch r.kind {
	case repeatForever:
		return "forever"
	case repeatDuration:
		return r.duration.String()
	default:
		return strconv.FormatFloat(r.Count(), 'g', -1, 64) + "x"
	}
}

// ParseRepeatBehavior parses "forever", an iteration count such as "3x" or
// "2.5", or a Go duration string such as "10s".
func ParseRepeatBehavior(s string) (RepeatBehavior, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "":
		return RepeatBehavior{}, nil
	case v == "forever":
		return RepeatForever, nil
	}
	if n, err := strconv.ParseFloat(strings.TrimSuffix(v, "x"), 64); err == nil {
		return RepeatCount(n), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return RepeatBehavior{}, fmt.Errorf("invalid repeat behavior %q", s)
	}
	return RepeatFor(d), nil
}

// Timing holds the timing properties every timeline shares. It is embedded
// by TimelineGroup and Animation; its fields must not change while a clock
// built from the timeline is alive.
type Timing struct {
	// Name identifies the timeline in errors and logs.
	Name string

	// BeginTime offsets the start of the active period, measured in the
	// parent's time frame.
	BeginTime time.Duration

	// Duration is the length of one forward pass.
	Duration Duration

	// AutoReverse plays each iteration forward then backward.
	AutoReverse bool

	// Repeat sets the length of the active period.
	Repeat RepeatBehavior

	// Fill selects the value held once the active period is over.
	Fill FillBehavior

	// SpeedRatio scales the rate at which time passes relative to the
	// parent. Zero means 1.
	SpeedRatio float64
}

func (t *Timing) timing() *Timing { return t }

func (t *Timing) speed() float64 {
	if t.SpeedRatio == 0 {
		return 1
	}
	return t.SpeedRatio
}

func (t *Timing) validate() error {
	fail := func(field, reason string) error {
		return &InvalidTimingError{Timeline: t.Name, Field: field, Reason: reason}
	}
	if t.BeginTime < 0 {
		return fail("BeginTime", "must not be negative")
	}
	if t.Duration.HasTimeSpan() && t.Duration.value < 0 {
		return fail("Duration", "must not be negative")
	}
	switch t.Repeat.kind {
	case repeatCount:
		c := t.Repeat.Count()
		if math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
			return fail("Repeat", fmt.Sprintf("count %v must be a positive finite number", c))
		}
	case repeatDuration:
		if t.Repeat.duration < 0 {
			return fail("Repeat", "duration must not be negative")
		}
	case repeatForever:
	default:
		return fail("Repeat", "has an unknown kind")
	}
	if math.IsNaN(t.SpeedRatio) || math.IsInf(t.SpeedRatio, 0) || t.SpeedRatio < 0 {
		return fail("SpeedRatio", fmt.Sprintf("%v must be a positive finite number", t.SpeedRatio))
	}
	if t.Fill > FillOriginalValue {
		return fail("Fill", "has an unknown value")
	}
	return nil
}

// Timeline is a declarative, shareable description of timing. The set of
// timelines is closed over two shapes: groups (*TimelineGroup, Storyboard)
// whose children run in parallel, and leaves (AnimationTimeline) that
// produce property values.
type Timeline interface {
	timing() *Timing
}

// TimelineGroup runs its children in parallel inside its own active period.
// With an Automatic duration it lasts until its latest child ends.
type TimelineGroup struct {
	Timing
	Children []Timeline
}

// NewTimelineGroup returns a group holding children.
func NewTimelineGroup(children ...Timeline) *TimelineGroup {
	return &TimelineGroup{Children: children}
}

// Add appends children to the group.
func (g *TimelineGroup) Add(children ...Timeline) {
	g.Children = append(g.Children, children...)
}

// childrenOf returns the children of group timelines.
func childrenOf(tl Timeline) []Timeline {
	switch g := tl.(type) {
	case *TimelineGroup:
		return g.Children
	case *Storyboard:
		return g.Children
	}
	return nil
}

// activeSpan returns the length of a timeline's active period in its own
// time frame given its resolved simple duration.
func activeSpan(t *Timing, simple time.Duration, simpleForever bool) (time.Duration, bool) {
	if t.Repeat.kind == repeatDuration {
		return t.Repeat.duration, false
	}
	if simpleForever || t.Repeat.kind == repeatForever {
		return 0, true
	}
	cycle := simple
	if t.AutoReverse {
		cycle *= 2
	}
	return time.Duration(t.Repeat.Count() * float64(cycle)), false
}
