package cadence

import "sync/atomic"

// Frame is one level of the dispatcher's frame stack: a drain loop with its
// own exit condition. Frames are pushed with Dispatcher.PushFrame.
type Frame struct {
	exit   func() bool
	exited atomic.Bool
	d      atomic.Pointer[Dispatcher]
}

// NewFrame returns a frame that exits once exit returns true. exit is
// evaluated on the dispatcher goroutine before each operation; a nil exit
// means the frame runs until Exit is called.
func NewFrame(exit func() bool) *Frame {
	return &Frame{exit: exit}
}

// Exit asks the frame to stop after the operation currently running, if any.
// Safe from any goroutine.
func (f *Frame) Exit() {
	f.exited.Store(true)
	if d := f.d.Load(); d != nil {
		d.signal()
	}
}

func (f *Frame) bind(d *Dispatcher) {
	f.d.Store(d)
}

func (f *Frame) done() bool {
	if f.exited.Load() {
		return true
	}
	return f.exit != nil && f.exit()
}
