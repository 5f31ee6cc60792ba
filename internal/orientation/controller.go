// Package orientation owns the world orientation state machine: the stable /
// reorienting phases, the synchronized 90° rotation of the render groups, and
// the gravity vector that follows them.
package orientation

import (
	"time"

	"rollcube/client/internal/anim"
	"rollcube/client/internal/grid"
)

type Phase string

const (
	PhaseStable      Phase = "stable"
	PhaseReorienting Phase = "reorienting"
)

// DefaultShiftDuration is how long a gravity shift animates.
const DefaultShiftDuration = 1500 * time.Millisecond

// TransformGroup is a named transform the renderer exposes. The controller
// only ever assigns rotations; the renderer owns everything else.
type TransformGroup interface {
	Rotation() grid.Vec3
	SetRotation(grid.Vec3)
}

// CameraAnchor additionally accepts an up vector so the camera stays aligned
// with gravity once a shift settles.
type CameraAnchor interface {
	TransformGroup
	SetUp(grid.Vec3)
}

// Groups bundles the three transform groups a shift must rotate in lock-step.
// Rotating them by identical increments keeps shadows and the camera frame
// consistent with the world geometry throughout the animation.
type Groups struct {
	World  TransformGroup
	Lights TransformGroup
	Camera CameraAnchor
}

// Controller runs the stable → reorienting → stable machine for one level.
type Controller struct {
	groups        Groups
	phase         Phase
	gravity       grid.Vec3
	orientation   grid.Orientation
	shiftDuration time.Duration
}

func NewController(groups Groups) *Controller {
	c := &Controller{
		groups:        groups,
		shiftDuration: DefaultShiftDuration,
	}
	c.Reset()
	return c
}

// SetShiftDuration overrides the animation length, primarily for tests.
func (c *Controller) SetShiftDuration(d time.Duration) {
	if d > 0 {
		c.shiftDuration = d
	}
}

// Reset restores the canonical orientation for a fresh level: identity group
// rotations, gravity straight down, camera up +Y.
func (c *Controller) Reset() {
	c.phase = PhaseStable
	c.gravity = grid.Vec3{Y: -1}
	c.orientation = grid.CanonicalOrientation()
	for _, g := range c.transformGroups() {
		g.SetRotation(grid.Vec3{})
	}
	if c.groups.Camera != nil {
		c.groups.Camera.SetUp(grid.Vec3{Y: 1})
	}
}

func (c *Controller) Phase() Phase { return c.phase }

func (c *Controller) Gravity() grid.Vec3 { return c.gravity }

func (c *Controller) Orientation() grid.Orientation { return c.orientation }

// Floor reports which cube face currently acts as the ground.
func (c *Controller) Floor() grid.Face { return c.orientation.Floor }

// BeginShift starts the 90° reorientation over the given edge. It returns the
// animation task to hand to the movement slot, or false when a shift is
// already in flight — a rejected request changes nothing.
//
// Each animation step applies the same incremental rotation to the world,
// light, and camera groups and rotates the gravity vector by the identical
// delta, so gravity accumulates continuously instead of snapping. Completion
// snaps gravity to the nearest axis (removing float drift), advances the
// face automaton, points the camera up opposite gravity, and reports the
// destination coordinate through onSettled.
func (c *Controller) BeginShift(edge grid.Edge, destination grid.Coord, onSettled func(grid.Coord)) (anim.Task, bool) {
	if c.phase != PhaseStable || !edge.Valid() {
		return nil, false
	}
	axis, angle := edge.RotationAxis()
	c.phase = PhaseReorienting

	tween := &anim.Tween{
		Duration: c.shiftDuration,
		OnProgress: func(_, delta float64) {
			step := angle * delta
			for _, g := range c.transformGroups() {
				rot := g.Rotation()
				switch axis {
				case grid.AxisX:
					rot.X += step
				case grid.AxisY:
					rot.Y += step
				case grid.AxisZ:
					rot.Z += step
				}
				g.SetRotation(rot)
			}
			c.gravity = c.gravity.RotatedDeg(axis, step)
		},
		OnComplete: func() {
			c.phase = PhaseStable
			c.gravity = c.gravity.NearestAxisUnit()
			c.orientation = c.orientation.Roll(edge)
			if c.groups.Camera != nil {
				c.groups.Camera.SetUp(c.gravity.Neg())
			}
			if onSettled != nil {
				onSettled(destination)
			}
		},
	}
	return tween, true
}

func (c *Controller) transformGroups() []TransformGroup {
	groups := make([]TransformGroup, 0, 3)
	if c.groups.World != nil {
		groups = append(groups, c.groups.World)
	}
	if c.groups.Lights != nil {
		groups = append(groups, c.groups.Lights)
	}
	if c.groups.Camera != nil {
		groups = append(groups, c.groups.Camera)
	}
	return groups
}
