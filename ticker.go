package cadence

import "time"

// Ticker is a recurring registration: every dispatcher frame posts one
// operation at the ticker's priority that calls fn with the frame's time
// sample. A ticker never has more than one operation pending.
type Ticker struct {
	d        *Dispatcher
	priority Priority
	fn       func(now time.Duration)
	stopped  bool
	pending  *Operation
}

// AddTicker registers fn to run once per frame at priority p.
func (d *Dispatcher) AddTicker(p Priority, fn func(now time.Duration)) (*Ticker, error) {
	if err := d.VerifyAccess(); err != nil {
		return nil, err
	}
	if !p.Valid() {
		panic("cadence: invalid dispatcher priority")
	}
	if fn == nil {
		panic("cadence: nil ticker func")
	}
	t := &Ticker{d: d, priority: p, fn: fn}
	d.tickers = append(d.tickers, t)
	return t, nil
}

// Priority returns the ticker's priority.
func (t *Ticker) Priority() Priority { return t.priority }

// Stopped reports whether Stop has been called.
func (t *Ticker) Stopped() bool { return t.stopped }

// Stop unregisters the ticker and cancels its pending operation. Must be
// called on the dispatcher goroutine; calling it twice is a no-op.
func (t *Ticker) Stop() {
	if err := t.d.VerifyAccess(); err != nil {
		panic(err)
	}
	if t.stopped {
		return
	}
	t.stopped = true
	if t.pending != nil {
		t.pending.Cancel()
		t.pending = nil
	}
}

// Tickers returns the number of registered, unstopped tickers.
func (d *Dispatcher) Tickers() int {
	return d.liveTickers()
}

func (d *Dispatcher) liveTickers() int {
	n := 0
	for _, t := range d.tickers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// postTickers records now as the current frame time and posts one operation
// per live ticker, skipping tickers whose previous operation is still queued.
func (d *Dispatcher) postTickers(now time.Duration) {
	d.lastFrame = now
	d.framed = true

	live := d.tickers[:0]
	for _, t := range d.tickers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(d.tickers); i++ {
		d.tickers[i] = nil
	}
	d.tickers = live

	for _, t := range d.tickers {
		if t.pending != nil && t.pending.Status() == OperationPending {
			continue
		}
		tk := t
		tk.pending = d.post(tk.priority, func() error {
			if tk.stopped {
				return nil
			}
			tk.fn(now)
			return nil
		}, false)
	}
}

// frameTime returns the time sample tickers were last posted with, or the
// current time before the first frame.
func (d *Dispatcher) frameTime() time.Duration {
	if d.framed {
		return d.lastFrame
	}
	return d.clock.Now()
}

// postFrameIfDue posts ticker operations when FrameInterval has elapsed since
// the last frame. It does nothing inside Update, which posts its own frame.
func (d *Dispatcher) postFrameIfDue() {
	if d.frameInterval <= 0 || d.updating > 0 {
		return
	}
	now := d.clock.Now()
	if !d.framed || now-d.lastFrame >= d.frameInterval {
		d.postTickers(now)
	}
}
