package anim

import (
	"time"

	"rollcube/client/logging"
)

type runningTask struct {
	task      Task
	startedAt time.Time
}

// Runner owns every live animation and advances them once per simulation
// tick. The movement slot is exclusive: translate, reorient, and bounce all
// claim it, and a second claim is rejected outright — a guard-flag check, not
// a queue, so the core never retries on the caller's behalf.
type Runner struct {
	clock    logging.Clock
	movement *runningTask
	ambient  []*runningTask
}

func NewRunner(clock logging.Clock) *Runner {
	if clock == nil {
		clock = logging.SystemClock{}
	}
	return &Runner{clock: clock}
}

// StartMovement claims the exclusive movement slot. It returns false and
// drops the task when another movement animation is already running.
func (r *Runner) StartMovement(task Task) bool {
	if r == nil || task == nil {
		return false
	}
	if r.movement != nil {
		return false
	}
	r.movement = &runningTask{task: task, startedAt: r.clock.Now()}
	return true
}

// StartAmbient runs a non-exclusive task (item spin, pickup flash).
func (r *Runner) StartAmbient(task Task) {
	if r == nil || task == nil {
		return
	}
	r.ambient = append(r.ambient, &runningTask{task: task, startedAt: r.clock.Now()})
}

// MovementActive reports whether the exclusive slot is occupied.
func (r *Runner) MovementActive() bool {
	return r != nil && r.movement != nil
}

// AbortMovement cuts the active movement animation short, snapping it to its
// terminal state when the task supports aborting.
func (r *Runner) AbortMovement() {
	if r == nil || r.movement == nil {
		return
	}
	if aborter, ok := r.movement.task.(Aborter); ok {
		aborter.Abort()
	}
	r.movement = nil
}

// Step advances every live task by its own wall-clock elapsed time and
// releases the ones that report completion.
func (r *Runner) Step(now time.Time) {
	if r == nil {
		return
	}
	if r.movement != nil {
		if r.movement.task.Step(now.Sub(r.movement.startedAt)) {
			r.movement = nil
		}
	}
	if len(r.ambient) == 0 {
		return
	}
	remaining := r.ambient[:0]
	for _, rt := range r.ambient {
		if !rt.task.Step(now.Sub(rt.startedAt)) {
			remaining = append(remaining, rt)
		}
	}
	r.ambient = remaining
}
