// Package player tracks the local player's position on the grid and the
// rolling animation between cells.
package player

import (
	"time"

	"rollcube/client/internal/anim"
	"rollcube/client/internal/grid"
)

type MovementPhase string

const (
	PhaseIdle        MovementPhase = "idle"
	PhaseTranslating MovementPhase = "translating"
)

// DefaultTranslateDuration is how long a one-cell roll takes.
const DefaultTranslateDuration = 180 * time.Millisecond

// DefaultBounceDuration is the boundary-feedback wobble length.
const DefaultBounceDuration = 250 * time.Millisecond

// Roll is the accumulated roll angle of the player cube, in degrees, around
// the two grid axes. The renderer uses it to keep the cube's texture
// continuous as it rolls from cell to cell.
type Roll struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// NavigationState is the local player's position state. It is created at
// level start and reset on respawn or level (re)load.
type NavigationState struct {
	coord grid.Coord
	phase MovementPhase
	roll  Roll
}

func NewNavigationState(start grid.Coord) *NavigationState {
	return &NavigationState{coord: start, phase: PhaseIdle}
}

func (s *NavigationState) Coord() grid.Coord { return s.coord }

func (s *NavigationState) Phase() MovementPhase { return s.phase }

func (s *NavigationState) Roll() Roll { return s.roll }

// SetCoord teleports the player, used when a gravity shift settles onto the
// destination face or the authority corrects the position.
func (s *NavigationState) SetCoord(c grid.Coord) {
	s.coord = c
	s.phase = PhaseIdle
}

// Reset returns the player to a spawn point with a fresh roll.
func (s *NavigationState) Reset(start grid.Coord) {
	s.coord = start
	s.phase = PhaseIdle
	s.roll = Roll{}
}

// BeginTranslate starts the one-cell roll toward an adjacent coordinate. It
// returns false while another translation is still running; the caller's
// movement slot handles exclusion against gravity shifts.
func (s *NavigationState) BeginTranslate(to grid.Coord, duration time.Duration) (anim.Task, bool) {
	if s.phase != PhaseIdle {
		return nil, false
	}
	dx := to.X - s.coord.X
	dz := to.Z - s.coord.Z
	if dx*dx+dz*dz != 1 {
		return nil, false
	}
	if duration <= 0 {
		duration = DefaultTranslateDuration
	}
	s.phase = PhaseTranslating

	return &anim.Tween{
		Duration: duration,
		OnProgress: func(_, delta float64) {
			s.roll.X += 90 * delta * float64(dx)
			s.roll.Z += 90 * delta * float64(dz)
		},
		OnComplete: func() {
			s.coord = to
			s.phase = PhaseIdle
		},
	}, true
}

// NewBounceTask is the boundary-feedback wobble played when a rotate request
// is refused at a non-edge cell. It moves nothing; it only occupies the
// movement slot briefly so input cannot spam rejected rotations.
func NewBounceTask(duration time.Duration) anim.Task {
	if duration <= 0 {
		duration = DefaultBounceDuration
	}
	return &anim.Tween{Duration: duration}
}
