package consensus

import (
	"context"

	"rollcube/client/logging"
)

const (
	// EventVoteStarted is emitted when the authority opens a vote.
	EventVoteStarted logging.EventType = "consensus.vote_started"
	// EventBallotCast is emitted when the local ballot is submitted.
	EventBallotCast logging.EventType = "consensus.ballot_cast"
	// EventVoteResolved is emitted when the authoritative outcome is applied.
	EventVoteResolved logging.EventType = "consensus.vote_resolved"
)

type VoteStartedPayload struct {
	Options     []string `json:"options"`
	RemainingMs int64    `json:"remainingMs"`
	StartedBy   string   `json:"startedBy,omitempty"`
}

type BallotPayload struct {
	Option string `json:"option"`
}

type ResolvedPayload struct {
	Winner      string `json:"winner"`
	CompletedBy string `json:"completedBy,omitempty"`
}

func VoteStarted(ctx context.Context, pub logging.Publisher, tick uint64, payload VoteStartedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventVoteStarted,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindSession},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryConsensus,
		Payload:  payload,
	})
}

func BallotCast(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload BallotPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventBallotCast,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryConsensus,
		Payload:  payload,
	})
}

func VoteResolved(ctx context.Context, pub logging.Publisher, tick uint64, payload ResolvedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventVoteResolved,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindSession},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryConsensus,
		Payload:  payload,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, event)
}
