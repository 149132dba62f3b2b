package cadence

import (
	"math"
	"time"
)

// clockNode is one clock in the arena. parent and children are indexes into
// ClockTree.nodes; nodes are stored in pre-order so a parent always precedes
// its children.
type clockNode struct {
	timeline Timeline
	timing   *Timing
	parent   int
	children []int

	// Resolved at build time.
	simple        time.Duration // one forward pass
	simpleForever bool
	active        time.Duration // whole active period, own time frame
	activeForever bool
	speed         float64

	// Recomputed on every evaluation.
	state     ClockState
	ended     bool // past the end of the active period
	progress  float64
	current   time.Duration // position within the simple duration
	iteration int64         // completed iterations
	reversing bool
}

// ClockTree is the runtime instance of a timeline tree. All clocks live in
// one slice owned by the tree; parent links are indexes, so dropping the
// tree releases every clock at once.
//
// A ClockTree is not safe for concurrent use.
type ClockTree struct {
	nodes   []clockNode
	elapsed time.Duration
}

// Clock is a read-only view of one clock in a ClockTree.
type Clock struct {
	tree  *ClockTree
	index int
}

// NewClockTree validates root and every timeline below it and builds the
// clock tree mirroring them. Nothing is built when validation fails.
// The tree starts at time zero, unevaluated; call Seek(0) or Tick to
// compute the initial state.
func NewClockTree(root Timeline) (*ClockTree, error) {
	if root == nil {
		panic("cadence: nil root timeline")
	}
	tree := &ClockTree{}
	if err := tree.build(root, -1); err != nil {
		return nil, err
	}
	// Children come after their parent, so a reverse pass resolves group
	// durations from already-resolved children.
	for i := len(tree.nodes) - 1; i >= 0; i-- {
		if err := tree.resolve(i); err != nil {
			return nil, err
		}
	}
	debugCheckClockDepth(tree)
	return tree, nil
}

func (t *ClockTree) build(tl Timeline, parent int) error {
	tm := tl.timing()
	if err := tm.validate(); err != nil {
		return err
	}
	idx := len(t.nodes)
	t.nodes = append(t.nodes, clockNode{
		timeline: tl,
		timing:   tm,
		parent:   parent,
		speed:    tm.speed(),
	})
	if parent >= 0 {
		t.nodes[parent].children = append(t.nodes[parent].children, idx)
	}
	for _, child := range childrenOf(tl) {
		if child == nil {
			return &InvalidTimingError{Timeline: tm.Name, Field: "Children", Reason: "contains a nil timeline"}
		}
		if err := t.build(child, idx); err != nil {
			return err
		}
	}
	return nil
}

// resolve fixes the simple and active durations of node i.
func (t *ClockTree) resolve(i int) error {
	n := &t.nodes[i]
	tm := n.timing
	_, isLeaf := n.timeline.(AnimationTimeline)

	switch {
	case tm.Duration.HasTimeSpan():
		n.simple = tm.Duration.value
	case tm.Duration.IsForever():
		if isLeaf {
			return &InvalidTimingError{Timeline: tm.Name, Field: "Duration", Reason: "of an animation cannot be Forever"}
		}
		n.simpleForever = true
	case isLeaf:
		n.simple = DefaultAnimationDuration
	default:
		// Automatic group: the latest end among its children.
		for _, c := range n.children {
			child := &t.nodes[c]
			if child.activeForever {
				n.simpleForever = true
				break
			}
			end := child.timing.BeginTime + time.Duration(float64(child.active)/child.speed)
			if end > n.simple {
				n.simple = end
			}
		}
	}
	n.active, n.activeForever = activeSpan(tm, n.simple, n.simpleForever)
	return nil
}

// Root returns the root clock.
func (t *ClockTree) Root() *Clock {
	return &Clock{tree: t, index: 0}
}

// Len returns the number of clocks in the tree.
func (t *ClockTree) Len() int { return len(t.nodes) }

// Clock returns the clock at pre-order position i.
func (t *ClockTree) Clock(i int) *Clock {
	if i < 0 || i >= len(t.nodes) {
		panic("cadence: clock index out of range")
	}
	return &Clock{tree: t, index: i}
}

// Elapsed returns the total time the root has advanced.
func (t *ClockTree) Elapsed() time.Duration { return t.elapsed }

// Tick advances the tree by delta and recomputes every clock top-down.
// Negative deltas are ignored.
func (t *ClockTree) Tick(delta time.Duration) {
	if delta > 0 {
		t.elapsed += delta
	}
	t.evaluate()
}

// Seek moves the root to the absolute time at and recomputes every clock as
// if Tick had been called up to that time.
func (t *ClockTree) Seek(at time.Duration) {
	if at < 0 {
		at = 0
	}
	t.elapsed = at
	t.evaluate()
}

// Done reports whether every clock has stopped.
func (t *ClockTree) Done() bool {
	return len(t.nodes) == 0 || t.nodes[0].state == ClockStopped
}

func (t *ClockTree) evaluate() {
	for i := range t.nodes {
		n := &t.nodes[i]
		if n.parent < 0 {
			n.evaluate(t.elapsed, nil)
			continue
		}
		n.evaluate(t.nodes[n.parent].current, &t.nodes[n.parent])
	}
}

// evaluate computes the node's state from the time `at`, measured in the
// parent's frame (the root's elapsed time for the root).
func (n *clockNode) evaluate(at time.Duration, parent *clockNode) {
	if parent != nil && parent.state == ClockWaiting {
		n.reset(ClockWaiting)
		return
	}

	local := time.Duration(float64(at-n.timing.BeginTime) * n.speed)
	if local < 0 {
		if parent != nil && parent.state == ClockStopped {
			n.reset(ClockStopped)
		} else {
			n.reset(ClockWaiting)
		}
		return
	}

	if !n.activeForever && local >= n.active {
		n.ended = true
		n.seekEnd()
		switch {
		case parent == nil, parent.state == ClockStopped:
			n.state = ClockStopped
		default:
			n.state = ClockFilling
		}
		if n.timing.Fill != FillDefault {
			// Reset and OriginalValue hold the start boundary. current is
			// left at the end so children keep their own end state.
			n.progress = 0
		}
		return
	}

	n.ended = false
	n.seekActive(local)
	switch {
	case parent == nil, parent.state == ClockActive:
		n.state = ClockActive
	case parent.state == ClockFilling:
		// The parent froze before this clock finished: hold where it is.
		n.state = ClockFilling
	default:
		n.state = ClockStopped
	}
}

func (n *clockNode) reset(state ClockState) {
	n.state = state
	n.ended = false
	n.progress = 0
	n.current = 0
	n.iteration = 0
	n.reversing = false
}

func (n *clockNode) cycle() time.Duration {
	if n.timing.AutoReverse {
		return 2 * n.simple
	}
	return n.simple
}

// seekActive positions the clock at local time inside the active period. A
// sample exactly on an iteration boundary starts the next iteration.
func (n *clockNode) seekActive(local time.Duration) {
	if n.simpleForever {
		n.iteration = 0
		n.current = local
		n.progress = 0
		n.reversing = false
		return
	}
	cycle := n.cycle()
	if cycle == 0 {
		n.iteration = 0
		n.place(0)
		return
	}
	n.iteration = int64(local / cycle)
	n.place(local % cycle)
}

// seekEnd positions the clock at the end of its active period. The end
// sample belongs to the iteration it completes, so a boundary end reads as
// progress 1 (or 0 after a reverse pass) rather than the start of a new
// iteration.
func (n *clockNode) seekEnd() {
	if n.simpleForever {
		n.iteration = 0
		n.current = n.active
		n.progress = 0
		n.reversing = false
		return
	}
	cycle := n.cycle()
	if cycle == 0 {
		n.iteration = 0
		n.current = 0
		n.reversing = false
		n.progress = 1
		if n.timing.AutoReverse {
			n.progress = 0
		}
		return
	}
	whole := int64(n.active / cycle)
	pos := n.active % cycle
	if pos == 0 && whole > 0 {
		whole--
		pos = cycle
	}
	n.iteration = whole
	n.place(pos)
}

// place resolves a position within one cycle into direction and progress.
func (n *clockNode) place(pos time.Duration) {
	if !n.timing.AutoReverse || pos <= n.simple {
		n.reversing = false
		n.current = pos
	} else {
		n.reversing = true
		n.current = 2*n.simple - pos
	}
	if n.simple == 0 {
		n.progress = 1
		return
	}
	n.progress = math.Min(1, math.Max(0, float64(n.current)/float64(n.simple)))
}

// Timeline returns the timeline the clock was built from.
func (c *Clock) Timeline() Timeline { return c.node().timeline }

// State returns the clock's state after the last evaluation.
func (c *Clock) State() ClockState { return c.node().state }

// Progress returns the un-eased progress through the current iteration, in
// [0, 1]. While filling it is frozen at the held boundary.
func (c *Clock) Progress() float64 { return c.node().progress }

// CurrentTime returns the position within the clock's simple duration.
func (c *Clock) CurrentTime() time.Duration { return c.node().current }

// CurrentIteration returns the 1-based iteration the clock is in.
func (c *Clock) CurrentIteration() int64 { return c.node().iteration + 1 }

// IsReversing reports whether the clock is in the backward half of an
// auto-reversing iteration.
func (c *Clock) IsReversing() bool { return c.node().reversing }

// Ended reports whether the clock is past the end of its active period.
func (c *Clock) Ended() bool { return c.node().ended }

// NaturalDuration returns the resolved simple duration and whether it is
// unbounded.
func (c *Clock) NaturalDuration() (time.Duration, bool) {
	n := c.node()
	return n.simple, n.simpleForever
}

// Parent returns the parent clock, or nil for the root.
func (c *Clock) Parent() *Clock {
	p := c.node().parent
	if p < 0 {
		return nil
	}
	return &Clock{tree: c.tree, index: p}
}

// Children returns the child clocks in timeline order.
func (c *Clock) Children() []*Clock {
	idx := c.node().children
	out := make([]*Clock, len(idx))
	for i, ci := range idx {
		out[i] = &Clock{tree: c.tree, index: ci}
	}
	return out
}

// Tick advances the tree this clock belongs to.
func (c *Clock) Tick(delta time.Duration) { c.tree.Tick(delta) }

func (c *Clock) node() *clockNode { return &c.tree.nodes[c.index] }
