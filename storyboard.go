package cadence

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NameScope finds named objects below a storyboard's target. Leaves bound
// with SetTargetName resolve their target through it.
type NameScope interface {
	FindName(name string) (any, bool)
}

// accessChecker is implemented by dispatcher-bound targets.
type accessChecker interface {
	VerifyAccess() error
}

// dirtyMarker is implemented by targets that cache derived state.
type dirtyMarker interface {
	MarkDirty()
}

// leafTarget records where one leaf writes.
type leafTarget struct {
	path   string
	name   string
	object any
}

// boundLeaf is a leaf clock with its resolved property.
type boundLeaf struct {
	clock   int
	fill    FillBehavior
	binding binding
	target  any
	started bool
	last    ClockState
}

// Storyboard groups timelines, binds their leaves to target properties and
// drives them from a dispatcher ticker as one unit. Its Timing and Children
// describe a parallel group; target bindings are read once at Begin and
// changing them afterwards has no effect until the next Begin.
//
// All methods except ID must be called on the dispatcher goroutine.
type Storyboard struct {
	TimelineGroup

	// Resolver resolves property paths. Nil uses ReflectResolver.
	Resolver PropertyResolver

	// Completed is called once per Begin, on the dispatcher goroutine, when
	// every leaf clock has stopped on its own. Stop does not call it.
	Completed func(*Storyboard)

	id      string
	targets map[Timeline]leafTarget

	d         *Dispatcher
	tree      *ClockTree
	ticker    *Ticker
	leaves    []boundLeaf
	paused    bool
	lastNow   time.Duration
	haveNow   bool
	completed bool
}

// NewStoryboard returns a storyboard holding children.
func NewStoryboard(children ...Timeline) *Storyboard {
	sb := &Storyboard{id: uuid.NewString()}
	sb.Children = children
	return sb
}

// ID returns the storyboard's unique ID, used to correlate log records.
func (sb *Storyboard) ID() string {
	if sb.id == "" {
		sb.id = uuid.NewString()
	}
	return sb.id
}

// SetTargetProperty sets the property path leaf writes, relative to its
// target.
func (sb *Storyboard) SetTargetProperty(leaf AnimationTimeline, path string) {
	t := sb.target(leaf)
	t.path = path
	sb.targets[leaf] = t
}

// SetTargetName makes leaf write to the object named name, found through the
// NameScope of the target passed to Begin.
func (sb *Storyboard) SetTargetName(leaf AnimationTimeline, name string) {
	t := sb.target(leaf)
	t.name = name
	sb.targets[leaf] = t
}

// SetTarget makes leaf write to obj instead of the target passed to Begin.
func (sb *Storyboard) SetTarget(leaf AnimationTimeline, obj any) {
	t := sb.target(leaf)
	t.object = obj
	sb.targets[leaf] = t
}

// Animate adds leaf as a direct child bound to path.
func (sb *Storyboard) Animate(path string, leaf AnimationTimeline) {
	sb.Add(leaf)
	sb.SetTargetProperty(leaf, path)
}

func (sb *Storyboard) target(leaf AnimationTimeline) leafTarget {
	if leaf == nil {
		panic("cadence: nil animation")
	}
	if sb.targets == nil {
		sb.targets = make(map[Timeline]leafTarget)
	}
	return sb.targets[leaf]
}

// Begin validates the timelines, captures the original value of every bound
// property, resolves every leaf's property path against target, builds the
// clock tree and registers a ticker on d at priority p. Any validation or
// binding error aborts Begin with nothing registered and nothing written.
// Values are first written by the ticker's first run.
func (sb *Storyboard) Begin(d *Dispatcher, target any, p Priority) error {
	if err := d.VerifyAccess(); err != nil {
		return err
	}
	if sb.tree != nil {
		return ErrStoryboardActive
	}
	tree, err := NewClockTree(sb)
	if err != nil {
		return err
	}
	leaves, err := sb.bindLeaves(tree, target)
	if err != nil {
		return err
	}
	ticker, err := d.AddTicker(p, sb.tick)
	if err != nil {
		return err
	}

	sb.d = d
	sb.tree = tree
	sb.leaves = leaves
	sb.ticker = ticker
	sb.paused = false
	sb.haveNow = false
	sb.completed = false
	Logger().Debug("storyboard begin", "storyboard", sb.ID(), "name", sb.Name,
		"clocks", tree.Len(), "leaves", len(leaves), "priority", p.String())
	return nil
}

func (sb *Storyboard) bindLeaves(tree *ClockTree, target any) ([]boundLeaf, error) {
	resolver := sb.Resolver
	if resolver == nil {
		resolver = ReflectResolver{}
	}
	var leaves []boundLeaf
	for i := range tree.nodes {
		leaf, ok := tree.nodes[i].timeline.(AnimationTimeline)
		if !ok {
			continue
		}
		lt, ok := sb.lookupTarget(tree, i, leaf)
		name := leaf.timing().Name
		if !ok || lt.path == "" {
			return nil, &PropertyBindingError{Timeline: name, Reason: "no target property set"}
		}
		obj, err := resolveTarget(target, lt)
		if err != nil {
			return nil, &PropertyBindingError{Timeline: name, Path: lt.path, Reason: err.Error()}
		}
		if ac, ok := obj.(accessChecker); ok {
			if err := ac.VerifyAccess(); err != nil {
				return nil, err
			}
		}
		path, err := ParsePropertyPath(lt.path)
		if err != nil {
			return nil, &PropertyBindingError{Timeline: name, Path: lt.path, Reason: err.Error()}
		}
		slot, err := resolver.ResolveProperty(obj, path)
		if err != nil {
			return nil, &PropertyBindingError{Timeline: name, Path: lt.path, Reason: err.Error()}
		}
		b, err := leaf.bind(slot)
		if err != nil {
			if be, ok := err.(*PropertyBindingError); ok {
				be.Path = lt.path
			}
			return nil, err
		}
		leaves = append(leaves, boundLeaf{
			clock:   i,
			fill:    leaf.timing().Fill,
			binding: b,
			target:  obj,
			last:    ClockWaiting,
		})
	}
	return leaves, nil
}

// lookupTarget finds the leaf's binding on this storyboard or on the
// nearest enclosing nested storyboard.
func (sb *Storyboard) lookupTarget(tree *ClockTree, i int, leaf AnimationTimeline) (leafTarget, bool) {
	if lt, ok := sb.targets[leaf]; ok {
		return lt, true
	}
	for p := tree.nodes[i].parent; p >= 0; p = tree.nodes[p].parent {
		if nested, ok := tree.nodes[p].timeline.(*Storyboard); ok && nested != sb {
			if lt, ok := nested.targets[leaf]; ok {
				return lt, true
			}
		}
	}
	return leafTarget{}, false
}

func resolveTarget(target any, lt leafTarget) (any, error) {
	switch {
	case lt.object != nil:
		return lt.object, nil
	case lt.name != "":
		scope, ok := target.(NameScope)
		if !ok {
			return nil, fmt.Errorf("target %T has no name scope for %q", target, lt.name)
		}
		obj, ok := scope.FindName(lt.name)
		if !ok {
			return nil, fmt.Errorf("no object named %q", lt.name)
		}
		return obj, nil
	case target == nil:
		return nil, fmt.Errorf("no target")
	}
	return target, nil
}

// tick is the ticker callback: it advances the tree by the wall time since
// the previous tick and writes the new values.
func (sb *Storyboard) tick(now time.Duration) {
	if sb.tree == nil {
		return
	}
	var delta time.Duration
	if sb.haveNow {
		delta = now - sb.lastNow
	}
	sb.lastNow = now
	sb.haveNow = true
	if sb.paused {
		return
	}
	sb.tree.Tick(delta)
	sb.apply()
	if sb.tree.Done() {
		sb.complete()
	}
}

// apply writes every leaf's value for the tree's current state. Stopped
// leaves write their terminal value once, on the transition.
func (sb *Storyboard) apply() {
	for i := range sb.leaves {
		l := &sb.leaves[i]
		n := &sb.tree.nodes[l.clock]
		switch n.state {
		case ClockActive:
			l.binding.apply(n.progress)
			l.started = true
		case ClockFilling:
			if n.ended {
				sb.writeFill(l, n)
			} else {
				l.binding.apply(n.progress)
			}
			l.started = true
		case ClockStopped:
			if l.last != ClockStopped && (l.started || n.ended) {
				sb.writeFill(l, n)
				l.started = true
			}
		}
		l.last = n.state
	}
	sb.markDirty()
}

// writeFill writes the value a leaf holds after its active period.
func (sb *Storyboard) writeFill(l *boundLeaf, n *clockNode) {
	switch l.fill {
	case FillReset:
		l.binding.applyFrom()
	case FillOriginalValue:
		l.binding.restore()
	default:
		l.binding.apply(n.progress)
	}
}

func (sb *Storyboard) markDirty() {
	for i := range sb.leaves {
		if m, ok := sb.leaves[i].target.(dirtyMarker); ok {
			m.MarkDirty()
		}
	}
}

func (sb *Storyboard) complete() {
	sb.release()
	sb.completed = true
	Logger().Debug("storyboard completed", "storyboard", sb.ID(), "name", sb.Name)
	if sb.Completed != nil {
		sb.Completed(sb)
	}
}

func (sb *Storyboard) release() {
	if sb.ticker != nil {
		sb.ticker.Stop()
	}
	sb.ticker = nil
	sb.tree = nil
	sb.leaves = nil
}

// Pause freezes time for the storyboard without resetting it.
func (sb *Storyboard) Pause() error {
	if err := sb.verify(); err != nil {
		return err
	}
	sb.paused = true
	return nil
}

// Resume unfreezes a paused storyboard. Time spent paused is not counted;
// time from Resume to the next tick is.
func (sb *Storyboard) Resume() error {
	if err := sb.verify(); err != nil {
		return err
	}
	if sb.paused {
		sb.paused = false
		if sb.tree != nil {
			sb.lastNow = sb.d.frameTime()
			sb.haveNow = true
		}
	}
	return nil
}

// Stop halts the storyboard, writes each leaf's terminal value according to
// its fill behavior (Default leaves the last written value in place) and
// releases the clock tree. Leaves that never wrote, such as one still
// waiting for its BeginTime, are left alone. Stopping a storyboard that is not running is a
// no-op.
func (sb *Storyboard) Stop() error {
	if err := sb.verify(); err != nil {
		return err
	}
	if sb.tree == nil {
		return nil
	}
	for i := range sb.leaves {
		l := &sb.leaves[i]
		if !l.started {
			continue
		}
		switch l.fill {
		case FillReset:
			l.binding.applyFrom()
		case FillOriginalValue:
			l.binding.restore()
		}
	}
	sb.markDirty()
	sb.release()
	Logger().Debug("storyboard stopped", "storyboard", sb.ID(), "name", sb.Name)
	return nil
}

// Seek moves the storyboard to the absolute time at and writes each bound
// property once with the value for that time. Seeking twice to the same
// time writes the same values.
//
// A Seek that reaches the end completes the storyboard exactly like reaching
// the end by ticking: each leaf writes its fill value, Completed fires and
// the clocks are released. Later calls to Seek return ErrStoryboardNotBegun
// until the next Begin; stay short of the end to keep scrubbing.
func (sb *Storyboard) Seek(at time.Duration) error {
	if err := sb.verify(); err != nil {
		return err
	}
	if sb.tree == nil {
		return ErrStoryboardNotBegun
	}
	sb.tree.Seek(at)
	sb.apply()
	if sb.tree.Done() {
		sb.complete()
	}
	return nil
}

// IsRunning reports whether the storyboard has begun and not yet stopped or
// completed.
func (sb *Storyboard) IsRunning() bool { return sb.tree != nil }

// IsPaused reports whether the storyboard is paused.
func (sb *Storyboard) IsPaused() bool { return sb.paused && sb.tree != nil }

// IsCompleted reports whether the last run ended on its own.
func (sb *Storyboard) IsCompleted() bool { return sb.completed }

// State returns the root clock's state, or ClockStopped when not running.
func (sb *Storyboard) State() ClockState {
	if sb.tree == nil {
		return ClockStopped
	}
	return sb.tree.nodes[0].state
}

// CurrentTime returns the elapsed storyboard time.
func (sb *Storyboard) CurrentTime() time.Duration {
	if sb.tree == nil {
		return 0
	}
	return sb.tree.Elapsed()
}

// Clocks returns the live clock tree, or nil when not running.
func (sb *Storyboard) Clocks() *ClockTree { return sb.tree }

func (sb *Storyboard) verify() error {
	if sb.d == nil {
		return nil
	}
	return sb.d.VerifyAccess()
}
