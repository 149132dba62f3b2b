package cadence

import (
	"sync"
	"time"
)

// TimeSource supplies monotonically increasing time samples to a dispatcher.
// Samples are offsets from an arbitrary origin.
type TimeSource interface {
	Now() time.Duration
}

// SystemTimeSource reads the monotonic wall clock relative to its creation.
type SystemTimeSource struct {
	anchor time.Time
}

// NewSystemTimeSource anchors a wall-clock time source at the current instant.
func NewSystemTimeSource() *SystemTimeSource {
	return &SystemTimeSource{anchor: time.Now()}
}

// Now returns the time elapsed since the source was created.
func (s *SystemTimeSource) Now() time.Duration {
	return time.Since(s.anchor)
}

// ManualTimeSource is advanced explicitly. Hosts with a fixed tick rate and
// tests use it to make animation time deterministic.
type ManualTimeSource struct {
	mu  sync.Mutex
	now time.Duration
}

// Now returns the current manual time.
func (s *ManualTimeSource) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Advance moves the time forward by d. Panics if d is negative.
func (s *ManualTimeSource) Advance(d time.Duration) {
	if d < 0 {
		panic("cadence: time source cannot move backwards")
	}
	s.mu.Lock()
	s.now += d
	s.mu.Unlock()
}

// Set moves the time to t. Panics if t is earlier than the current time.
func (s *ManualTimeSource) Set(t time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t < s.now {
		panic("cadence: time source cannot move backwards")
	}
	s.now = t
}
