package cadence

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestDispatcher() (*Dispatcher, *ManualTimeSource) {
	clock := &ManualTimeSource{}
	return NewDispatcher(DispatcherConfig{Name: "test", TimeSource: clock}), clock
}

func record(order *[]string, name string) func() error {
	return func() error {
		*order = append(*order, name)
		return nil
	}
}

// --- Ordering ---

func TestPriorityOrderHighestFirst(t *testing.T) {
	d, _ := newTestDispatcher()
	var order []string
	d.BeginInvoke(PriorityHighest, record(&order, "A"))
	d.BeginInvoke(PriorityLowest, record(&order, "B"))
	d.BeginInvoke(PriorityHighest, record(&order, "C"))

	if err := d.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := strings.Join(order, ""); got != "ACB" {
		t.Errorf("order = %q, want %q", got, "ACB")
	}
}

func TestFIFOWithinPriority(t *testing.T) {
	d, _ := newTestDispatcher()
	var order []string
	for _, name := range []string{"1", "2", "3", "4"} {
		d.BeginInvoke(PriorityNormal, record(&order, name))
	}
	d.Update()
	if got := strings.Join(order, ""); got != "1234" {
		t.Errorf("order = %q, want %q", got, "1234")
	}
}

func TestAllPrioritiesDrainInOrder(t *testing.T) {
	d, _ := newTestDispatcher()
	var order []string
	for p := PriorityLowest; p <= PriorityHighest; p++ {
		d.BeginInvoke(p, record(&order, p.String()))
	}
	d.Update()
	want := "highest,high,normal,low,lowest"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("order = %q, want %q", got, want)
	}
}

func TestLiveQueueSeesWorkPostedDuringDrain(t *testing.T) {
	d, _ := newTestDispatcher()
	var order []string
	d.BeginInvoke(PriorityLow, func() error {
		order = append(order, "X1")
		d.BeginInvoke(PriorityHighest, record(&order, "Y"))
		return nil
	})
	d.BeginInvoke(PriorityLow, record(&order, "X2"))

	d.Update()
	if got := strings.Join(order, ","); got != "X1,Y,X2" {
		t.Errorf("order = %q, want %q", got, "X1,Y,X2")
	}
	if d.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", d.Pending())
	}
}

func TestHigherPriorityDoesNotPreempt(t *testing.T) {
	d, _ := newTestDispatcher()
	var order []string
	d.BeginInvoke(PriorityLowest, func() error {
		order = append(order, "low-start")
		d.BeginInvoke(PriorityHighest, record(&order, "high"))
		order = append(order, "low-end")
		return nil
	})
	d.Update()
	if got := strings.Join(order, ","); got != "low-start,low-end,high" {
		t.Errorf("order = %q", got)
	}
}

// --- Frames ---

func TestNestedFrameUnwindsBeforeParent(t *testing.T) {
	d, _ := newTestDispatcher()
	var order []string
	var nestedDepth int
	exit := false

	d.BeginInvoke(PriorityNormal, func() error {
		order = append(order, "A-start")
		if err := d.PushFrame(NewFrame(func() bool { return exit })); err != nil {
			t.Errorf("nested PushFrame: %v", err)
		}
		order = append(order, "A-end")
		return nil
	})
	d.BeginInvoke(PriorityNormal, func() error {
		order = append(order, "B")
		nestedDepth = d.Depth()
		exit = true
		return nil
	})
	d.BeginInvoke(PriorityLow, record(&order, "C"))

	d.Update()
	want := "A-start,B,A-end,C"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("order = %q, want %q", got, want)
	}
	if nestedDepth != 2 {
		t.Errorf("depth inside nested frame = %d, want 2", nestedDepth)
	}
	if d.Depth() != 0 {
		t.Errorf("Depth after Update = %d, want 0", d.Depth())
	}
}

func TestFrameExit(t *testing.T) {
	d, _ := newTestDispatcher()
	f := NewFrame(nil)
	ran := 0
	d.BeginInvoke(PriorityNormal, func() error {
		ran++
		f.Exit()
		return nil
	})
	d.BeginInvoke(PriorityNormal, func() error {
		ran++
		return nil
	})
	if err := d.PushFrame(f); err != nil {
		t.Fatalf("PushFrame: %v", err)
	}
	if ran != 1 {
		t.Errorf("ran = %d, want 1 (frame exits after the current operation)", ran)
	}
	if d.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", d.Pending())
	}
}

// --- Invoke ---

func TestInvokeOnOwnerRunsNestedFrame(t *testing.T) {
	d, _ := newTestDispatcher()
	var order []string
	d.BeginInvoke(PriorityHigh, record(&order, "earlier"))

	err := d.Invoke(context.Background(), PriorityNormal, func() error {
		order = append(order, "invoked")
		return nil
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got := strings.Join(order, ","); got != "earlier,invoked" {
		t.Errorf("order = %q, want %q", got, "earlier,invoked")
	}
}

func TestInvokeReturnsFault(t *testing.T) {
	d, _ := newTestDispatcher()
	boom := errors.New("boom")
	handled := 0
	d.SetFaultHandler(func(*OperationFaultError) { handled++ })

	err := d.Invoke(context.Background(), PriorityNormal, func() error { return boom })
	if !errors.Is(err, ErrOperationFault) {
		t.Errorf("err = %v, want ErrOperationFault", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want to wrap boom", err)
	}
	if handled != 0 {
		t.Errorf("fault handler called %d times for Invoke, want 0", handled)
	}
}

func TestInvokeFuncFromOtherGoroutine(t *testing.T) {
	d, _ := newTestDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		v      int
		onLoop bool
		err    error
	}
	done := make(chan result, 1)
	go func() {
		var onLoop bool
		v, err := InvokeFunc(context.Background(), d, PriorityNormal, func() (int, error) {
			onLoop = d.CheckAccess()
			return 42, nil
		})
		done <- result{v: v, onLoop: onLoop, err: err}
		cancel()
	}()

	if err := d.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	r := <-done
	if r.err != nil {
		t.Fatalf("InvokeFunc: %v", r.err)
	}
	if r.v != 42 {
		t.Errorf("value = %d, want 42", r.v)
	}
	if !r.onLoop {
		t.Error("action did not run on the dispatcher goroutine")
	}
}

func TestInvokeContextCancelsPendingOperation(t *testing.T) {
	d, _ := newTestDispatcher()
	errc := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		errc <- d.Invoke(ctx, PriorityNormal, func() error { return nil })
	}()
	if err := <-errc; !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Invoke = %v, want DeadlineExceeded", err)
	}
	if d.Pending() != 0 {
		t.Errorf("Pending = %d, want 0 after cancellation", d.Pending())
	}
}

// --- Cancellation and priority changes ---

func TestCancelPending(t *testing.T) {
	cancelled := 0
	d := NewDispatcher(DispatcherConfig{Hooks: Hooks{Cancelled: func(*Operation) { cancelled++ }}})
	ran := false
	op := d.BeginInvoke(PriorityNormal, func() error { ran = true; return nil })

	if !op.Cancel() {
		t.Fatal("Cancel on pending operation returned false")
	}
	if op.Cancel() {
		t.Error("second Cancel returned true")
	}
	d.Update()
	if ran {
		t.Error("cancelled action ran")
	}
	if op.Status() != OperationCancelled {
		t.Errorf("Status = %v, want cancelled", op.Status())
	}
	if !errors.Is(op.Err(), ErrOperationCancelled) {
		t.Errorf("Err = %v, want ErrOperationCancelled", op.Err())
	}
	if cancelled != 1 {
		t.Errorf("Cancelled hook called %d times, want 1", cancelled)
	}
}

func TestCancelExecutingIsNoop(t *testing.T) {
	d, _ := newTestDispatcher()
	var op *Operation
	var cancelResult bool
	op = d.BeginInvoke(PriorityNormal, func() error {
		cancelResult = op.Cancel()
		return nil
	})
	d.Update()
	if cancelResult {
		t.Error("Cancel during execution returned true")
	}
	if op.Status() != OperationCompleted {
		t.Errorf("Status = %v, want completed", op.Status())
	}
	if op.Cancel() {
		t.Error("Cancel after completion returned true")
	}
}

func TestSetPriorityMovesPendingOperation(t *testing.T) {
	d, _ := newTestDispatcher()
	var order []string
	d.BeginInvoke(PriorityLow, record(&order, "A"))
	b := d.BeginInvoke(PriorityLow, record(&order, "B"))

	if !b.SetPriority(PriorityHighest) {
		t.Fatal("SetPriority returned false for pending operation")
	}
	if b.Priority() != PriorityHighest {
		t.Errorf("Priority = %v, want highest", b.Priority())
	}
	d.Update()
	if got := strings.Join(order, ""); got != "BA" {
		t.Errorf("order = %q, want %q", got, "BA")
	}
	if b.SetPriority(PriorityLow) {
		t.Error("SetPriority on completed operation returned true")
	}
}

// --- Faults ---

func TestFaultsDoNotStopTheLoop(t *testing.T) {
	var faults []*OperationFaultError
	d := NewDispatcher(DispatcherConfig{FaultHandler: func(f *OperationFaultError) { faults = append(faults, f) }})
	boom := errors.New("boom")
	ran := false

	d.BeginInvoke(PriorityNormal, func() error { panic("kaboom") })
	d.BeginInvoke(PriorityNormal, func() error { return boom })
	d.BeginInvoke(PriorityNormal, func() error { ran = true; return nil })

	if err := d.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !ran {
		t.Error("operation after faults did not run")
	}
	if len(faults) != 2 {
		t.Fatalf("faults = %d, want 2", len(faults))
	}
	if faults[0].Panic != "kaboom" || len(faults[0].Stack) == 0 {
		t.Errorf("panic fault = %+v, want recovered panic with stack", faults[0])
	}
	if !errors.Is(faults[1], boom) {
		t.Errorf("error fault = %v, want to wrap boom", faults[1])
	}
}

func TestFaultHandlerPanicIsContained(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{FaultHandler: func(*OperationFaultError) { panic("handler") }})
	ran := false
	d.BeginInvoke(PriorityNormal, func() error { return errors.New("x") })
	d.BeginInvoke(PriorityNormal, func() error { ran = true; return nil })
	d.Update()
	if !ran {
		t.Error("loop stopped after fault handler panic")
	}
}

// --- Shutdown ---

func TestShutdownCancelsPendingAndRejectsPosts(t *testing.T) {
	d, _ := newTestDispatcher()
	op := d.BeginInvoke(PriorityNormal, func() error { return nil })
	d.Shutdown()
	d.Shutdown()

	if !errors.Is(op.Err(), ErrDispatcherShutdown) {
		t.Errorf("pending Err = %v, want ErrDispatcherShutdown", op.Err())
	}
	late := d.BeginInvoke(PriorityNormal, func() error { return nil })
	if late.Status() != OperationCancelled {
		t.Errorf("post after shutdown Status = %v, want cancelled", late.Status())
	}
	if err := d.Update(); !errors.Is(err, ErrDispatcherShutdown) {
		t.Errorf("Update = %v, want ErrDispatcherShutdown", err)
	}
	if !d.HasShutdown() {
		t.Error("HasShutdown = false")
	}
}

// --- Hooks ---

func TestHooksObserveLifecycle(t *testing.T) {
	var posted, started, completed int
	d := NewDispatcher(DispatcherConfig{Hooks: Hooks{
		Posted:    func(*Operation) { posted++ },
		Started:   func(*Operation) { started++ },
		Completed: func(*Operation) { completed++ },
	}})
	d.BeginInvoke(PriorityNormal, func() error { return nil })
	d.BeginInvoke(PriorityNormal, func() error { return nil })
	d.Update()
	if posted != 2 || started != 2 || completed != 2 {
		t.Errorf("hooks posted=%d started=%d completed=%d, want 2 each", posted, started, completed)
	}
}

// --- Access ---

func TestVerifyAccessFromOtherGoroutine(t *testing.T) {
	d, _ := newTestDispatcher()
	if err := d.VerifyAccess(); err != nil {
		t.Fatalf("VerifyAccess on owner: %v", err)
	}

	errc := make(chan error, 1)
	go func() { errc <- d.VerifyAccess() }()
	err := <-errc

	var cta *CrossThreadAccessError
	if !errors.As(err, &cta) {
		t.Fatalf("err = %v, want *CrossThreadAccessError", err)
	}
	if cta.Owner == cta.Caller {
		t.Errorf("Owner = Caller = %d", cta.Owner)
	}
	if !errors.Is(err, ErrCrossThreadAccess) {
		t.Error("error does not match ErrCrossThreadAccess")
	}
}

func TestDrainRejectedOffOwner(t *testing.T) {
	d, _ := newTestDispatcher()
	ran := false
	d.BeginInvoke(PriorityNormal, func() error { ran = true; return nil })

	errc := make(chan error, 1)
	go func() { errc <- d.Update() }()
	if err := <-errc; !errors.Is(err, ErrCrossThreadAccess) {
		t.Errorf("Update off owner = %v, want ErrCrossThreadAccess", err)
	}
	if ran {
		t.Error("operation ran from a rejected Update")
	}
	if d.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", d.Pending())
	}
}

func TestDispatcherObjectFreeThreaded(t *testing.T) {
	var o DispatcherObject
	if !o.CheckAccess() || o.VerifyAccess() != nil {
		t.Error("zero DispatcherObject should pass access checks")
	}
	if o.Dispatcher() != nil {
		t.Error("zero DispatcherObject has a dispatcher")
	}
}

// --- Tickers ---

func TestTickerRunsOncePerUpdateWithFrameTime(t *testing.T) {
	d, clock := newTestDispatcher()
	var seen []time.Duration
	tk, err := d.AddTicker(PriorityHigh, func(now time.Duration) { seen = append(seen, now) })
	if err != nil {
		t.Fatalf("AddTicker: %v", err)
	}
	d.Update()
	clock.Advance(16 * time.Millisecond)
	d.Update()

	if len(seen) != 2 || seen[0] != 0 || seen[1] != 16*time.Millisecond {
		t.Errorf("ticks = %v, want [0s 16ms]", seen)
	}
	tk.Stop()
	d.Update()
	if len(seen) != 2 {
		t.Errorf("ticker ran after Stop")
	}
	if d.Tickers() != 0 {
		t.Errorf("Tickers = %d, want 0", d.Tickers())
	}
}

func TestTickerCoalesces(t *testing.T) {
	d, _ := newTestDispatcher()
	calls := 0
	d.AddTicker(PriorityNormal, func(time.Duration) { calls++ })

	d.postTickers(0)
	d.postTickers(time.Millisecond)
	if d.Pending() != 1 {
		t.Errorf("Pending = %d, want 1 coalesced ticker operation", d.Pending())
	}
	d.Update()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestTickerStopInsideCallback(t *testing.T) {
	d, _ := newTestDispatcher()
	calls := 0
	var tk *Ticker
	tk, _ = d.AddTicker(PriorityNormal, func(time.Duration) {
		calls++
		tk.Stop()
	})
	d.Update()
	d.Update()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !tk.Stopped() {
		t.Error("Stopped = false")
	}
}

func TestRunFiresTickersOnFrameInterval(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{FrameInterval: time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	calls := 0
	d.AddTicker(PriorityHigh, func(time.Duration) {
		calls++
		if calls == 3 {
			cancel()
		}
	})
	d.Run(ctx)
	if calls < 3 {
		t.Errorf("calls = %d, want >= 3", calls)
	}
	if !errors.Is(ctx.Err(), context.Canceled) {
		t.Errorf("ctx ended with %v, want Canceled (ticker never reached 3)", ctx.Err())
	}
}

func TestUpdateEndsWhenDrainOutlastsFrameInterval(t *testing.T) {
	clock := &ManualTimeSource{}
	d := NewDispatcher(DispatcherConfig{TimeSource: clock, FrameInterval: 10 * time.Millisecond})
	calls := 0
	var tk *Ticker
	tk, _ = d.AddTicker(PriorityNormal, func(time.Duration) {
		calls++
		clock.Advance(20 * time.Millisecond)
		if calls == 100 {
			tk.Stop()
		}
	})
	if err := d.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if calls != 1 {
		t.Errorf("ticker ran %d times in one Update, want 1", calls)
	}
	d.Update()
	if calls != 2 {
		t.Errorf("calls = %d after second Update, want 2", calls)
	}
}

func TestInvalidPriorityPanics(t *testing.T) {
	d, _ := newTestDispatcher()
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid priority")
		}
	}()
	d.BeginInvoke(Priority(9), func() error { return nil })
}

func TestParsePriority(t *testing.T) {
	for p := PriorityLowest; p <= PriorityHighest; p++ {
		got, err := ParsePriority(p.String())
		if err != nil || got != p {
			t.Errorf("ParsePriority(%q) = %v, %v", p.String(), got, err)
		}
	}
	if _, err := ParsePriority("urgent"); err == nil {
		t.Error("expected error for unknown priority")
	}
}
