package cadence

import (
	"fmt"
	"image/color"
	"strings"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// Common colors.
var (
	ColorWhite       = Color{1, 1, 1, 1}
	ColorBlack       = Color{0, 0, 0, 1}
	ColorRed         = Color{1, 0, 0, 1}
	ColorGreen       = Color{0, 1, 0, 1}
	ColorBlue        = Color{0, 0, 1, 1}
	ColorTransparent = Color{}
)

// LerpColor blends a and b per channel. t is not clamped so overshooting
// easing curves can push channels past their endpoints.
func LerpColor(a, b Color, t float64) Color {
	return Color{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: a.A + (b.A-a.A)*t,
	}
}

// NRGBA converts c to an 8-bit non-premultiplied color, clamping each channel.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: channel8(c.R), G: channel8(c.G), B: channel8(c.B), A: channel8(c.A)}
}

func channel8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

// Priority orders dispatcher operations. Among ready operations the highest
// priority always runs first; equal priorities run in posting order.
type Priority int8

const (
	PriorityLowest  Priority = iota // background work
	PriorityLow                     // deferred housekeeping
	PriorityNormal                  // default for application callbacks
	PriorityHigh                    // animation ticks
	PriorityHighest                 // input and other latency-critical work

	numPriorities = int(PriorityHighest) + 1
)

// Valid reports whether p is one of the five defined levels.
func (p Priority) Valid() bool {
	return p >= PriorityLowest && p <= PriorityHighest
}

var priorityNames = [numPriorities]string{"lowest", "low", "normal", "high", "highest"}

func (p Priority) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Priority(%d)", int8(p))
	}
	return priorityNames[p]
}

// ParsePriority parses a priority name as produced by Priority.String.
func ParsePriority(s string) (Priority, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range priorityNames {
		if n == name {
			return Priority(i), nil
		}
	}
	return 0, fmt.Errorf("unknown dispatcher priority %q", s)
}

// OperationStatus is the lifecycle state of a dispatcher operation.
type OperationStatus int32

const (
	OperationPending   OperationStatus = iota // queued, may still be cancelled
	OperationExecuting                        // action is running
	OperationCompleted                        // action returned (with or without error)
	OperationCancelled                        // removed before it ever ran
)

func (s OperationStatus) String() string {
	switch s {
	case OperationPending:
		return "pending"
	case OperationExecuting:
		return "executing"
	case OperationCompleted:
		return "completed"
	case OperationCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("OperationStatus(%d)", int32(s))
	}
}

// ClockState is the timing state of a clock after its last evaluation.
type ClockState uint8

const (
	ClockWaiting ClockState = iota // begin time not yet reached
	ClockActive                    // inside the active period
	ClockFilling                   // active period over, value still held
	ClockStopped                   // no longer contributes a value
)

func (s ClockState) String() string {
	switch s {
	case ClockWaiting:
		return "waiting"
	case ClockActive:
		return "active"
	case ClockFilling:
		return "filling"
	case ClockStopped:
		return "stopped"
	default:
		return fmt.Sprintf("ClockState(%d)", uint8(s))
	}
}

// FillBehavior selects the value a property takes once an animation's active
// period is over.
type FillBehavior uint8

const (
	FillDefault       FillBehavior = iota // hold the last computed value
	FillReset                             // snap back to the animation's From value
	FillOriginalValue                     // restore the value captured at Begin
)

func (f FillBehavior) String() string {
	switch f {
	case FillDefault:
		return "default"
	case FillReset:
		return "reset"
	case FillOriginalValue:
		return "original"
	default:
		return fmt.Sprintf("FillBehavior(%d)", uint8(f))
	}
}

// ParseFillBehavior parses a fill behavior name as produced by FillBehavior.String.
func ParseFillBehavior(s string) (FillBehavior, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default", "holdend":
		return FillDefault, nil
	case "reset":
		return FillReset, nil
	case "original", "originalvalue":
		return FillOriginalValue, nil
	}
	return 0, fmt.Errorf("unknown fill behavior %q", s)
}
