package cadence

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrCrossThreadAccess is returned when a dispatcher-bound object is used
	// from a goroutine other than the one owning its dispatcher.
	ErrCrossThreadAccess = errors.New("cadence: cross-thread access")

	// ErrPropertyBinding is returned by Storyboard.Begin when a property path
	// does not resolve to a writable property of the animation's value type.
	ErrPropertyBinding = errors.New("cadence: property binding failed")

	// ErrOperationFault marks a dispatcher operation whose action failed.
	ErrOperationFault = errors.New("cadence: operation fault")

	// ErrInvalidTiming is returned when a timeline carries an invalid
	// duration, repeat behavior, speed ratio or fill behavior.
	ErrInvalidTiming = errors.New("cadence: invalid timing")

	// ErrOperationCancelled is the result of an operation cancelled before it ran.
	ErrOperationCancelled = errors.New("cadence: operation cancelled")

	// ErrDispatcherShutdown is returned by operations posted to, or pending
	// on, a dispatcher that has shut down.
	ErrDispatcherShutdown = errors.New("cadence: dispatcher shut down")

	// ErrStoryboardActive is returned by Begin on a storyboard that is running.
	ErrStoryboardActive = errors.New("cadence: storyboard already begun")

	// ErrStoryboardNotBegun is returned by Seek on a storyboard that is not running.
	ErrStoryboardNotBegun = errors.New("cadence: storyboard not begun")
)

// CrossThreadAccessError reports the owning and calling goroutines of a
// rejected access.
type CrossThreadAccessError struct {
	Dispatcher string
	Owner      uint64
	Caller     uint64
}

func (e *CrossThreadAccessError) Error() string {
	return fmt.Sprintf("cadence: dispatcher %q is owned by goroutine %d, called from goroutine %d",
		e.Dispatcher, e.Owner, e.Caller)
}

func (e *CrossThreadAccessError) Unwrap() error { return ErrCrossThreadAccess }

// PropertyBindingError describes why a storyboard leaf could not be bound.
type PropertyBindingError struct {
	Timeline string
	Path     string
	Reason   string
	Want     reflect.Type // animation value type, nil when not a type mismatch
	Got      reflect.Type // property type, nil when not a type mismatch
}

func (e *PropertyBindingError) Error() string {
	name := e.Timeline
	if name == "" {
		name = "<unnamed>"
	}
	if e.Want != nil && e.Got != nil {
		return fmt.Sprintf("cadence: bind %s to %q: property is %v, animation produces %v", name, e.Path, e.Got, e.Want)
	}
	return fmt.Sprintf("cadence: bind %s to %q: %s", name, e.Path, e.Reason)
}

func (e *PropertyBindingError) Unwrap() error { return ErrPropertyBinding }

// OperationFaultError wraps the failure of a dispatcher operation: either the
// error returned by its action or a recovered panic.
type OperationFaultError struct {
	Operation uint64
	Priority  Priority
	Err       error
	Panic     any
	Stack     []byte
}

func (e *OperationFaultError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("cadence: operation %d (%s) panicked: %v", e.Operation, e.Priority, e.Panic)
	}
	return fmt.Sprintf("cadence: operation %d (%s) failed: %v", e.Operation, e.Priority, e.Err)
}

func (e *OperationFaultError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrOperationFault, e.Err}
	}
	return []error{ErrOperationFault}
}

// InvalidTimingError names the timeline field that failed validation.
type InvalidTimingError struct {
	Timeline string
	Field    string
	Reason   string
}

func (e *InvalidTimingError) Error() string {
	name := e.Timeline
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("cadence: timeline %s: %s %s", name, e.Field, e.Reason)
}

func (e *InvalidTimingError) Unwrap() error { return ErrInvalidTiming }
