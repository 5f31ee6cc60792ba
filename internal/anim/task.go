// Package anim drives resumable animation tasks from the simulation tick.
// Tasks are keyed by wall-clock elapsed time, never frame count, so their
// duration is independent of frame rate.
package anim

import "time"

// Task is a resumable animation. Step receives the elapsed time since the
// task started and reports true once the task has finished.
type Task interface {
	Step(elapsed time.Duration) bool
}

// Aborter is implemented by tasks that can be cut short. Abort must leave the
// animated state at its terminal values.
type Aborter interface {
	Abort()
}

// QuadEaseInOut maps linear progress in [0,1] onto a quadratic ease-in-out
// curve, the profile every movement animation in the game uses.
func QuadEaseInOut(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - 2*(1-t)*(1-t)
}

// Tween runs a fixed-duration animation, reporting eased progress and the
// eased delta since the previous step so callers can apply incremental
// updates (rotation accumulation) rather than absolute snaps.
type Tween struct {
	Duration   time.Duration
	Ease       func(float64) float64
	OnProgress func(eased, delta float64)
	OnComplete func()

	prev float64
	done bool
}

func (t *Tween) Step(elapsed time.Duration) bool {
	if t.done {
		return true
	}
	frac := 1.0
	if t.Duration > 0 {
		frac = float64(elapsed) / float64(t.Duration)
	}
	ease := t.Ease
	if ease == nil {
		ease = QuadEaseInOut
	}
	eased := ease(frac)
	if t.OnProgress != nil {
		t.OnProgress(eased, eased-t.prev)
	}
	t.prev = eased
	if frac >= 1 {
		t.finish()
		return true
	}
	return false
}

// Abort jumps straight to the terminal state.
func (t *Tween) Abort() {
	if t.done {
		return
	}
	if t.OnProgress != nil {
		t.OnProgress(1, 1-t.prev)
	}
	t.prev = 1
	t.finish()
}

func (t *Tween) finish() {
	t.done = true
	if t.OnComplete != nil {
		t.OnComplete()
	}
}
