package cadence

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DispatcherConfig configures a Dispatcher. The zero value is usable.
type DispatcherConfig struct {
	// Name identifies the dispatcher in logs and errors.
	Name string

	// TimeSource supplies frame time samples. Defaults to a SystemTimeSource.
	TimeSource TimeSource

	// FrameInterval, when positive, makes idle waits inside Run and PushFrame
	// wake up to post ticker operations every interval. Leave it zero when a
	// host calls Update once per frame.
	FrameInterval time.Duration

	// FaultHandler receives failures of BeginInvoke operations and tickers.
	// Defaults to logging at error level. Called on the dispatcher goroutine.
	FaultHandler func(*OperationFaultError)

	// Hooks observe the operation lifecycle.
	Hooks Hooks

	// Debug enables per-Update stats logging at debug level.
	Debug bool
}

// Hooks observe operations. Posted may run on any goroutine that posts;
// the others run on the dispatcher goroutine. Nil hooks are skipped.
type Hooks struct {
	Posted    func(*Operation)
	Started   func(*Operation)
	Completed func(*Operation)
	Cancelled func(*Operation)
}

// Dispatcher is a priority scheduler that serializes work onto the goroutine
// that created it. Posting (BeginInvoke, Invoke, Cancel) is safe from any
// goroutine; draining (Update, Run, PushFrame) happens only on the owner.
//
// Operations run strictly by priority, FIFO within a priority. The queue is
// live: work posted while a frame drains is visible to that frame. A running
// operation is never preempted.
type Dispatcher struct {
	name          string
	owner         uint64
	clock         TimeSource
	frameInterval time.Duration
	debug         bool
	hooks         Hooks

	mu       sync.Mutex
	queue    [numPriorities][]*Operation
	pending  int
	nextID   uint64
	shutdown bool

	wake       chan struct{}
	shutdownCh chan struct{}

	// Owner-goroutine state.
	faultHandler func(*OperationFaultError)
	frames       []*Frame
	tickers      []*Ticker
	lastFrame    time.Duration
	framed       bool
	updating     int
	stats        frameStats
}

// NewDispatcher creates a dispatcher owned by the calling goroutine.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	d := &Dispatcher{
		name:          cfg.Name,
		owner:         goroutineID(),
		clock:         cfg.TimeSource,
		frameInterval: cfg.FrameInterval,
		debug:         cfg.Debug,
		hooks:         cfg.Hooks,
		faultHandler:  cfg.FaultHandler,
		wake:          make(chan struct{}, 1),
		shutdownCh:    make(chan struct{}),
	}
	if d.name == "" {
		d.name = "dispatcher"
	}
	if d.clock == nil {
		d.clock = NewSystemTimeSource()
	}
	return d
}

// Name returns the dispatcher's name.
func (d *Dispatcher) Name() string { return d.name }

// Now returns the current sample of the dispatcher's time source.
func (d *Dispatcher) Now() time.Duration { return d.clock.Now() }

// CheckAccess reports whether the caller runs on the owning goroutine.
func (d *Dispatcher) CheckAccess() bool {
	return goroutineID() == d.owner
}

// VerifyAccess returns a *CrossThreadAccessError unless the caller runs on
// the owning goroutine.
func (d *Dispatcher) VerifyAccess() error {
	caller := goroutineID()
	if caller == d.owner {
		return nil
	}
	return &CrossThreadAccessError{Dispatcher: d.name, Owner: d.owner, Caller: caller}
}

// SetFaultHandler replaces the fault handler. Nil restores the default.
func (d *Dispatcher) SetFaultHandler(fn func(*OperationFaultError)) error {
	if err := d.VerifyAccess(); err != nil {
		return err
	}
	d.faultHandler = fn
	return nil
}

// BeginInvoke posts action at priority p and returns immediately. A failure
// of action (returned error or panic) goes to the fault handler. Posting to a
// shut-down dispatcher returns an operation already cancelled with
// ErrDispatcherShutdown.
func (d *Dispatcher) BeginInvoke(p Priority, action func() error) *Operation {
	return d.post(p, action, false)
}

// Invoke posts action at priority p and blocks until it has run, returning
// its failure as an *OperationFaultError. On the owning goroutine the wait is
// a nested frame that keeps draining the queue; elsewhere it blocks on the
// operation. If ctx ends while the operation is still pending it is cancelled
// and ctx.Err() is returned.
func (d *Dispatcher) Invoke(ctx context.Context, p Priority, action func() error) error {
	op := d.post(p, action, true)
	if d.CheckAccess() {
		f := NewFrame(func() bool { return op.finished() || ctx.Err() != nil })
		if err := d.PushFrame(f); err != nil {
			op.Cancel()
			return err
		}
		if op.finished() {
			return op.err
		}
		op.Cancel()
		return ctx.Err()
	}

	select {
	case <-op.done:
		return op.err
	case <-ctx.Done():
	}
	if op.Cancel() {
		return ctx.Err()
	}
	// Already running; it cannot be aborted, so report its real outcome.
	<-op.done
	return op.err
}

// InvokeFunc is Invoke for actions that produce a value.
func InvokeFunc[T any](ctx context.Context, d *Dispatcher, p Priority, fn func() (T, error)) (T, error) {
	var out T
	err := d.Invoke(ctx, p, func() error {
		v, err := fn()
		out = v
		return err
	})
	return out, err
}

// PushFrame runs a nested dispatch loop until f's exit condition holds,
// f.Exit is called, or the dispatcher shuts down. Frames nest: a frame pushed
// from inside an operation fully unwinds before the enclosing frame drains
// again. While the queue is empty the loop blocks until new work is posted.
func (d *Dispatcher) PushFrame(f *Frame) error {
	if err := d.VerifyAccess(); err != nil {
		return err
	}
	if f == nil {
		panic("cadence: nil frame")
	}
	if d.isShutdown() {
		return ErrDispatcherShutdown
	}
	f.bind(d)
	d.frames = append(d.frames, f)
	if depth := len(d.frames); depth > d.stats.maxDepth {
		d.stats.maxDepth = depth
	}
	defer func() {
		d.frames[len(d.frames)-1] = nil
		d.frames = d.frames[:len(d.frames)-1]
	}()

	for {
		if f.done() {
			return nil
		}
		if d.isShutdown() {
			return ErrDispatcherShutdown
		}
		d.postFrameIfDue()
		op := d.dequeue()
		if op == nil {
			d.idle()
			continue
		}
		d.execute(op)
	}
}

// Depth returns the number of frames currently pushed.
func (d *Dispatcher) Depth() int {
	return len(d.frames)
}

// Update processes one host frame: it posts an operation for every live
// ticker using the current time sample, then drains the queue until it is
// empty, including work posted during the drain. FrameInterval does not
// post further ticks while Update drains, so a slow drain still ends.
func (d *Dispatcher) Update() error {
	if err := d.VerifyAccess(); err != nil {
		return err
	}
	start := time.Now()
	d.postTickers(d.clock.Now())
	d.updating++
	err := d.PushFrame(NewFrame(d.queueEmpty))
	d.updating--
	if d.debug {
		d.stats.elapsed = time.Since(start)
		d.debugLog()
	}
	d.stats = frameStats{}
	return err
}

// Run drains operations on the owning goroutine until ctx is done or the
// dispatcher shuts down. With a positive FrameInterval tickers fire every
// interval while Run is active.
func (d *Dispatcher) Run(ctx context.Context) error {
	f := NewFrame(func() bool { return ctx.Err() != nil })
	stop := context.AfterFunc(ctx, f.Exit)
	defer stop()
	if err := d.PushFrame(f); err != nil {
		return err
	}
	return ctx.Err()
}

// Shutdown cancels every pending operation with ErrDispatcherShutdown,
// unwinds all frames and rejects further posts. Safe from any goroutine.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	if d.shutdown {
		d.mu.Unlock()
		return
	}
	d.shutdown = true
	var dropped []*Operation
	for p := range d.queue {
		for _, op := range d.queue[p] {
			op.status.Store(int32(OperationCancelled))
			op.err = ErrDispatcherShutdown
			dropped = append(dropped, op)
		}
		d.queue[p] = nil
	}
	d.pending = 0
	d.mu.Unlock()

	for _, op := range dropped {
		close(op.done)
		if d.hooks.Cancelled != nil {
			d.hooks.Cancelled(op)
		}
	}
	close(d.shutdownCh)
	Logger().Info("dispatcher shut down", "dispatcher", d.name, "cancelled", len(dropped))
}

// HasShutdown reports whether Shutdown has been called.
func (d *Dispatcher) HasShutdown() bool {
	return d.isShutdown()
}

// Pending returns the number of queued operations.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Dispatcher) isShutdown() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown
}

func (d *Dispatcher) queueEmpty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending == 0
}

func (d *Dispatcher) post(p Priority, action func() error, sync bool) *Operation {
	if !p.Valid() {
		panic("cadence: invalid dispatcher priority")
	}
	if action == nil {
		panic("cadence: nil dispatcher action")
	}
	op := &Operation{d: d, priority: p, action: action, done: make(chan struct{}), sync: sync}

	d.mu.Lock()
	if d.shutdown {
		d.mu.Unlock()
		op.status.Store(int32(OperationCancelled))
		op.err = ErrDispatcherShutdown
		close(op.done)
		return op
	}
	d.nextID++
	op.id = d.nextID
	d.queue[p] = append(d.queue[p], op)
	d.pending++
	d.mu.Unlock()

	if d.hooks.Posted != nil {
		d.hooks.Posted(op)
	}
	d.signal()
	return op
}

// dequeue pops the oldest operation of the highest non-empty partition and
// marks it executing. Returns nil when the queue is empty.
func (d *Dispatcher) dequeue() *Operation {
	d.mu.Lock()
	defer d.mu.Unlock()
	for p := numPriorities - 1; p >= 0; p-- {
		q := d.queue[p]
		if len(q) == 0 {
			continue
		}
		op := q[0]
		copy(q, q[1:])
		q[len(q)-1] = nil
		d.queue[p] = q[:len(q)-1]
		d.pending--
		op.status.Store(int32(OperationExecuting))
		return op
	}
	return nil
}

// unlink removes op from its partition. Caller holds d.mu.
func (d *Dispatcher) unlink(op *Operation) {
	q := d.queue[op.priority]
	for i, o := range q {
		if o == op {
			copy(q[i:], q[i+1:])
			q[len(q)-1] = nil
			d.queue[op.priority] = q[:len(q)-1]
			return
		}
	}
}

func (d *Dispatcher) cancel(op *Operation, reason error) bool {
	d.mu.Lock()
	if op.Status() != OperationPending {
		d.mu.Unlock()
		return false
	}
	d.unlink(op)
	d.pending--
	op.status.Store(int32(OperationCancelled))
	op.err = reason
	d.mu.Unlock()

	close(op.done)
	if d.hooks.Cancelled != nil {
		d.hooks.Cancelled(op)
	}
	// A frame may be waiting on this operation.
	d.signal()
	return true
}

func (d *Dispatcher) execute(op *Operation) {
	if d.hooks.Started != nil {
		d.hooks.Started(op)
	}
	err := op.run()
	op.err = err
	op.status.Store(int32(OperationCompleted))
	close(op.done)
	d.stats.executed++
	if d.hooks.Completed != nil {
		d.hooks.Completed(op)
	}
	if err != nil && !op.sync {
		d.stats.faults++
		d.reportFault(err.(*OperationFaultError))
	}
}

func (d *Dispatcher) reportFault(fault *OperationFaultError) {
	h := d.faultHandler
	if h == nil {
		h = d.logFault
	}
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("dispatcher fault handler panicked",
				"dispatcher", d.name, "panic", fmt.Sprint(r), "fault", fault.Error())
		}
	}()
	h(fault)
}

func (d *Dispatcher) logFault(fault *OperationFaultError) {
	attrs := []any{"dispatcher", d.name, "operation", fault.Operation, "priority", fault.Priority.String()}
	if fault.Panic != nil {
		attrs = append(attrs, "panic", fmt.Sprint(fault.Panic), "stack", string(fault.Stack))
	} else {
		attrs = append(attrs, "error", fault.Err)
	}
	Logger().Error("dispatcher operation fault", attrs...)
}

// signal wakes an idle frame without blocking. The one-slot buffer keeps a
// wake-up posted between the idle check and the wait from being lost.
func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// idle blocks until work is posted, a frame exits, the dispatcher shuts
// down, or the next ticker frame is due.
func (d *Dispatcher) idle() {
	var timerC <-chan time.Time
	if d.frameInterval > 0 && d.liveTickers() > 0 {
		wait := d.frameInterval - (d.clock.Now() - d.lastFrame)
		if wait <= 0 {
			return
		}
		t := time.NewTimer(wait)
		defer t.Stop()
		timerC = t.C
	}
	select {
	case <-d.wake:
	case <-timerC:
	case <-d.shutdownCh:
	}
}
