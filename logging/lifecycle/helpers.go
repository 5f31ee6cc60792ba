package lifecycle

import (
	"context"

	"rollcube/client/logging"
)

const (
	// EventPlayerJoined is emitted when a player enters the lobby roster.
	EventPlayerJoined logging.EventType = "lifecycle.player_joined"
	// EventPlayerLeft is emitted when a player drops from the roster.
	EventPlayerLeft logging.EventType = "lifecycle.player_left"
	// EventPhaseChanged is emitted on every session phase transition.
	EventPhaseChanged logging.EventType = "lifecycle.phase_changed"
	// EventLevelInitialized is emitted when a level descriptor is applied.
	EventLevelInitialized logging.EventType = "lifecycle.level_initialized"
)

// PhaseChangedPayload records a session phase transition.
type PhaseChangedPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// LevelInitializedPayload captures which level became active and who asked for it.
type LevelInitializedPayload struct {
	LevelType string `json:"levelType"`
	Number    int    `json:"number"`
	By        string `json:"by,omitempty"`
}

func PlayerJoined(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventPlayerJoined,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySession,
		Extra:    extra,
	})
}

func PlayerLeft(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventPlayerLeft,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySession,
		Extra:    extra,
	})
}

func PhaseChanged(ctx context.Context, pub logging.Publisher, tick uint64, payload PhaseChangedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventPhaseChanged,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindSession},
		Severity: logging.SeverityInfo,
		Category: logging.CategorySession,
		Payload:  payload,
	})
}

func LevelInitialized(ctx context.Context, pub logging.Publisher, tick uint64, payload LevelInitializedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventLevelInitialized,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindLevel},
		Severity: logging.SeverityInfo,
		Category: logging.CategorySession,
		Payload:  payload,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, event)
}
