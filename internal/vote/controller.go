// Package vote runs the client side of the end-of-level consensus vote. The
// authority owns the tally, the deadline, and the outcome; this controller
// only displays authoritative state and submits at most one local ballot.
package vote

import (
	"context"
	"sort"
	"time"

	"rollcube/client/logging"
	"rollcube/client/logging/consensus"
)

const (
	OptionRestart  = "restart"
	OptionContinue = "continue"
)

// Outcome is the authoritative resolution of a finished vote.
type Outcome struct {
	Winner      string
	CompletedBy string
}

// Controller holds the active vote, if any. It is destroyed logically (reset
// to inactive) when the authority ends the vote or announces its timeout.
type Controller struct {
	active      bool
	options     map[string]bool
	tally       map[string]int
	ballots     map[string]string
	deadline    time.Time
	localBallot string
	localID     string
	lastOutcome *Outcome
	pub         logging.Publisher
}

func NewController(localID string, pub logging.Publisher) *Controller {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Controller{localID: localID, pub: pub}
}

func (c *Controller) Active() bool { return c.active }

func (c *Controller) LocalBallot() string { return c.localBallot }

func (c *Controller) LastOutcome() *Outcome { return c.lastOutcome }

// Options lists the vote options in stable order.
func (c *Controller) Options() []string {
	out := make([]string, 0, len(c.options))
	for opt := range c.options {
		out = append(out, opt)
	}
	sort.Strings(out)
	return out
}

// Tally returns a copy of the authoritative running tally.
func (c *Controller) Tally() map[string]int {
	out := make(map[string]int, len(c.tally))
	for k, v := range c.tally {
		out[k] = v
	}
	return out
}

// BallotCount reports how many distinct ballots the authority has relayed.
func (c *Controller) BallotCount() int { return len(c.ballots) }

// Remaining is the displayed countdown. It decreases monotonically with now
// and never goes below zero; the client never acts on it reaching zero.
func (c *Controller) Remaining(now time.Time) time.Duration {
	if !c.active {
		return 0
	}
	remaining := c.deadline.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Begin activates a vote announced by the authority.
func (c *Controller) Begin(ctx context.Context, options []string, remaining time.Duration, now time.Time, startedBy string, tick uint64) {
	c.active = true
	c.options = make(map[string]bool, len(options))
	for _, opt := range options {
		c.options[opt] = true
	}
	c.tally = make(map[string]int)
	c.ballots = make(map[string]string)
	c.deadline = now.Add(remaining)
	c.localBallot = ""
	c.lastOutcome = nil

	consensus.VoteStarted(ctx, c.pub, tick, consensus.VoteStartedPayload{
		Options:     c.Options(),
		RemainingMs: remaining.Milliseconds(),
		StartedBy:   startedBy,
	})
}

// Resume restores a vote from an authoritative snapshot after a reconnect,
// including the local ballot when the authority already holds one.
func (c *Controller) Resume(ctx context.Context, options []string, remaining time.Duration, tally map[string]int, ballots map[string]string, now time.Time, tick uint64) {
	c.Begin(ctx, options, remaining, now, "", tick)
	c.ApplyUpdate(tally, ballots)
	if own, ok := ballots[c.localID]; ok {
		c.localBallot = own
	}
}

// CastLocal submits the local ballot. The second and every later attempt is a
// no-op, as is a cast after the authoritative deadline or for an option the
// vote does not carry. It returns the option to transmit and whether to send.
func (c *Controller) CastLocal(ctx context.Context, option string, now time.Time, tick uint64) (string, bool) {
	if !c.active || c.localBallot != "" || !c.options[option] {
		return "", false
	}
	if !now.Before(c.deadline) {
		return "", false
	}
	c.localBallot = option
	consensus.BallotCast(ctx, c.pub, tick,
		logging.EntityRef{ID: c.localID, Kind: logging.EntityKindPlayer},
		consensus.BallotPayload{Option: option})
	return option, true
}

// ApplyUpdate replaces the displayed tally and ballot map with authoritative
// values. The client performs no majority computation of its own.
func (c *Controller) ApplyUpdate(tally map[string]int, ballots map[string]string) {
	if !c.active {
		return
	}
	if tally != nil {
		c.tally = make(map[string]int, len(tally))
		for k, v := range tally {
			c.tally[k] = v
		}
	}
	if ballots != nil {
		c.ballots = make(map[string]string, len(ballots))
		for k, v := range ballots {
			c.ballots[k] = v
		}
	}
}

// Resolve applies the authority's final decision verbatim and ends the vote.
func (c *Controller) Resolve(ctx context.Context, winner, completedBy string, tick uint64) Outcome {
	outcome := Outcome{Winner: winner, CompletedBy: completedBy}
	c.lastOutcome = &outcome
	c.active = false
	c.options = nil
	c.tally = nil
	c.ballots = nil
	c.localBallot = ""

	consensus.VoteResolved(ctx, c.pub, tick, consensus.ResolvedPayload{
		Winner:      winner,
		CompletedBy: completedBy,
	})
	return outcome
}

// Clear quietly deactivates the vote without recording an outcome. Used when
// an authoritative snapshot arrives with no active vote.
func (c *Controller) Clear() {
	c.active = false
	c.options = nil
	c.tally = nil
	c.ballots = nil
	c.localBallot = ""
}

// TallyConsistent checks the authoritative counts against the session size:
// neither the tally sum nor the distinct ballots can exceed the player count.
// A snapshot violating this is discarded by the caller.
func (c *Controller) TallyConsistent(playerCount int) bool {
	if !c.active {
		return true
	}
	sum := 0
	for _, n := range c.tally {
		sum += n
	}
	return sum <= playerCount && len(c.ballots) <= playerCount
}
