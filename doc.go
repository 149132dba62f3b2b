// Package cadence is a thread-affine dispatcher and hierarchical animation
// timing core for retained-mode 2D scenes.
//
// Three pieces work together: a [Dispatcher] that serializes all mutation
// onto one goroutine by priority, a clock tree that turns [Timeline]
// descriptions into per-frame progress, and a [Storyboard] that binds leaf
// animations to properties of target objects and drives them from a
// dispatcher ticker.
//
// # Quick start
//
// Create the dispatcher on the goroutine that will own the scene, build
// nodes, and begin a storyboard:
//
//	d := cadence.NewDispatcher(cadence.DispatcherConfig{Name: "ui"})
//	scene := cadence.NewScene(d)
//
//	box := cadence.NewRect(d, "box", 80, 40, cadence.ColorGreen)
//	scene.Root().AddChild(box)
//
//	pulse := cadence.NewColorAnimation(cadence.ColorGreen, cadence.ColorRed)
//	pulse.Duration = cadence.DurationOf(2 * time.Second)
//	pulse.AutoReverse = true
//	pulse.Repeat = cadence.RepeatForever
//
//	sb := cadence.NewStoryboard()
//	sb.Animate("Fill.Color", pulse)
//	if err := sb.Begin(d, box, cadence.PriorityHigh); err != nil {
//		return err
//	}
//
// Then call [Scene.Update] once per host frame, or [Dispatcher.Run] for a
// self-driven loop. The ebitenhost package runs a scene inside an
// [Ebitengine] game loop.
//
// # Dispatcher
//
// [Dispatcher.BeginInvoke] posts work from any goroutine and returns an
// [Operation] handle; [Dispatcher.Invoke] waits for the result. Operations
// run strictly by [Priority], FIFO within a priority, and are never
// preempted. [Dispatcher.PushFrame] runs a nested loop, so a modal wait
// started inside an operation keeps the queue (and animations) moving.
// A failing operation goes to the fault handler and the loop continues.
//
// # Timing
//
// A [Timing] describes duration, begin time, repeats, auto-reverse, speed
// and [FillBehavior]. Groups ([TimelineGroup], [Storyboard]) run their
// children in parallel; leaves are [Animation] values of one type. Each
// clock computes its own progress from its parent's local time, and easing
// is applied after the auto-reverse direction is resolved.
//
// Easing curves come from [gween] and are composed with [EaseIn],
// [EaseOut] and [EaseInOut].
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package cadence
