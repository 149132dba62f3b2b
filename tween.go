package cadence

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// TweenConfig holds the shared options of the Tween helpers.
type TweenConfig struct {
	Duration time.Duration
	Easing   EasingFunction
	Priority Priority // zero value is PriorityLowest; helpers default to PriorityHigh when unset
	Fill     FillBehavior
}

func (c TweenConfig) priority() Priority {
	if c.Priority == PriorityLowest {
		return PriorityHigh
	}
	return c.Priority
}

// tween builds a storyboard animating each path of node to its value and
// begins it on the node's dispatcher.
func tween(node *Node, cfg TweenConfig, name string, anims map[string]AnimationTimeline) (*Storyboard, error) {
	if node == nil {
		panic("cadence: nil node")
	}
	d := node.Dispatcher()
	if d == nil {
		return nil, fmt.Errorf("cadence: %s: node %q has no dispatcher", name, node.Name)
	}
	sb := NewStoryboard()
	sb.Name = name + ":" + node.Name
	for _, path := range slices.Sorted(maps.Keys(anims)) {
		leaf := anims[path]
		tm := leaf.timing()
		tm.Name = path
		tm.Duration = DurationOf(cfg.Duration)
		tm.Fill = cfg.Fill
		sb.Animate(path, leaf)
	}
	if err := sb.Begin(d, node, cfg.priority()); err != nil {
		return nil, err
	}
	return sb, nil
}

func eased[T any](a *Animation[T], e EasingFunction) *Animation[T] {
	a.Easing = e
	return a
}

// TweenPosition animates node's X and Y from their current values to toX, toY.
func TweenPosition(node *Node, toX, toY float64, cfg TweenConfig) (*Storyboard, error) {
	return tween(node, cfg, "position", map[string]AnimationTimeline{
		"X": eased(NewNumberAnimation(node.X, toX), cfg.Easing),
		"Y": eased(NewNumberAnimation(node.Y, toY), cfg.Easing),
	})
}

// TweenScale animates node's ScaleX and ScaleY to toSX, toSY.
func TweenScale(node *Node, toSX, toSY float64, cfg TweenConfig) (*Storyboard, error) {
	return tween(node, cfg, "scale", map[string]AnimationTimeline{
		"ScaleX": eased(NewNumberAnimation(node.ScaleX, toSX), cfg.Easing),
		"ScaleY": eased(NewNumberAnimation(node.ScaleY, toSY), cfg.Easing),
	})
}

// TweenAlpha animates node's Alpha to toAlpha.
func TweenAlpha(node *Node, toAlpha float64, cfg TweenConfig) (*Storyboard, error) {
	return tween(node, cfg, "alpha", map[string]AnimationTimeline{
		"Alpha": eased(NewNumberAnimation(node.Alpha, toAlpha), cfg.Easing),
	})
}

// TweenRotation animates node's Rotation to toRad.
func TweenRotation(node *Node, toRad float64, cfg TweenConfig) (*Storyboard, error) {
	return tween(node, cfg, "rotation", map[string]AnimationTimeline{
		"Rotation": eased(NewNumberAnimation(node.Rotation, toRad), cfg.Easing),
	})
}

// TweenColor animates node's Color to to.
func TweenColor(node *Node, to Color, cfg TweenConfig) (*Storyboard, error) {
	return tween(node, cfg, "color", map[string]AnimationTimeline{
		"Color": eased(NewColorAnimation(node.Color, to), cfg.Easing),
	})
}
