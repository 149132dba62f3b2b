package cadence

import "time"

// frameStats holds per-Update counters. Only logged when the dispatcher was
// created with Debug set.
type frameStats struct {
	executed int
	faults   int
	maxDepth int
	elapsed  time.Duration
}

// debugLog reports the stats of the Update that just finished.
func (d *Dispatcher) debugLog() {
	Logger().Debug("dispatcher frame",
		"dispatcher", d.name,
		"executed", d.stats.executed,
		"faults", d.stats.faults,
		"depth", d.stats.maxDepth,
		"queued", d.Pending(),
		"tickers", d.liveTickers(),
		"elapsed", d.stats.elapsed,
	)
}

// debugMaxTreeDepth is the depth past which node and clock trees log a warning.
const debugMaxTreeDepth = 32

// debugMaxChildCount is the child count past which a node logs a warning.
const debugMaxChildCount = 1000

func debugCheckNodeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		Logger().Warn("node tree too deep", "node", n.Name, "depth", depth, "threshold", debugMaxTreeDepth)
	}
}

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		Logger().Warn("node has too many children", "node", n.Name,
			"children", len(n.children), "threshold", debugMaxChildCount)
	}
}

func debugCheckClockDepth(tree *ClockTree) {
	for i := range tree.nodes {
		depth := 0
		for p := i; p >= 0; p = tree.nodes[p].parent {
			depth++
		}
		if depth > debugMaxTreeDepth {
			Logger().Warn("clock tree too deep", "timeline", tree.nodes[i].timing.Name,
				"depth", depth, "threshold", debugMaxTreeDepth)
			return
		}
	}
}
