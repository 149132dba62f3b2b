package cadence

import (
	"context"
	"runtime/debug"
	"sync/atomic"
)

// Operation is the handle returned for every posted action. It is owned by
// the dispatcher queue until it runs or is cancelled.
type Operation struct {
	id       uint64
	d        *Dispatcher
	priority Priority // guarded by d.mu
	action   func() error
	status   atomic.Int32
	done     chan struct{}
	err      error // written once before done is closed

	// sync operations hand their failure back to the Invoke caller instead
	// of the dispatcher's fault handler.
	sync bool
}

// ID returns the operation's posting sequence number.
func (op *Operation) ID() uint64 { return op.id }

// Status returns the operation's current lifecycle state.
func (op *Operation) Status() OperationStatus {
	return OperationStatus(op.status.Load())
}

// Priority returns the operation's current priority.
func (op *Operation) Priority() Priority {
	op.d.mu.Lock()
	defer op.d.mu.Unlock()
	return op.priority
}

// SetPriority moves a pending operation to the tail of the p partition.
// Returns false when the operation is no longer pending.
func (op *Operation) SetPriority(p Priority) bool {
	if !p.Valid() {
		panic("cadence: invalid dispatcher priority")
	}
	d := op.d
	d.mu.Lock()
	defer d.mu.Unlock()
	if op.Status() != OperationPending {
		return false
	}
	if op.priority == p {
		return true
	}
	d.unlink(op)
	op.priority = p
	d.queue[p] = append(d.queue[p], op)
	return true
}

// Cancel removes a pending operation from the queue; its action never runs
// and Err reports ErrOperationCancelled. Cancelling an operation that is
// executing, completed or already cancelled is a no-op returning false.
// Safe to call from any goroutine.
func (op *Operation) Cancel() bool {
	return op.d.cancel(op, ErrOperationCancelled)
}

// Done returns a channel closed once the operation completes or is cancelled.
func (op *Operation) Done() <-chan struct{} {
	return op.done
}

// Err returns the operation's result once Done is closed: nil on success,
// an *OperationFaultError on failure, or the cancellation reason. Before
// that it returns nil.
func (op *Operation) Err() error {
	select {
	case <-op.done:
		return op.err
	default:
		return nil
	}
}

// Wait blocks until the operation finishes or ctx is done. It must not be
// called from the dispatcher's own goroutine for an operation that has not
// run yet; use Dispatcher.Invoke there.
func (op *Operation) Wait(ctx context.Context) error {
	select {
	case <-op.done:
		return op.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (op *Operation) finished() bool {
	select {
	case <-op.done:
		return true
	default:
		return false
	}
}

// run executes the action, converting a returned error or a panic into an
// *OperationFaultError.
func (op *Operation) run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &OperationFaultError{
				Operation: op.id,
				Priority:  op.priority,
				Panic:     r,
				Stack:     debug.Stack(),
			}
		}
	}()
	if e := op.action(); e != nil {
		return &OperationFaultError{Operation: op.id, Priority: op.priority, Err: e}
	}
	return nil
}
