package gameplay

import (
	"context"

	"rollcube/client/logging"
)

const (
	// EventItemCollected is emitted when the local player picks up an item.
	EventItemCollected logging.EventType = "gameplay.item_collected"
	// EventFaceTransition is emitted when a gravity shift completes.
	EventFaceTransition logging.EventType = "gameplay.face_transition"
	// EventShiftRejected is emitted when a rotate request is refused.
	EventShiftRejected logging.EventType = "gameplay.shift_rejected"
	// EventLevelComplete is emitted when the local player reaches the goal.
	EventLevelComplete logging.EventType = "gameplay.level_complete"
)

type ItemCollectedPayload struct {
	ItemType string `json:"itemType"`
	ItemID   string `json:"itemId"`
	Score    int    `json:"score,omitempty"`
}

type FaceTransitionPayload struct {
	Edge     string `json:"edge"`
	FromFace string `json:"fromFace"`
	ToFace   string `json:"toFace"`
}

type ShiftRejectedPayload struct {
	Reason string `json:"reason"`
}

func ItemCollected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ItemCollectedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventItemCollected,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{{ID: payload.ItemID, Kind: logging.EntityKindItem}},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

func FaceTransition(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload FaceTransitionPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventFaceTransition,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

func ShiftRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, reason string) {
	publish(ctx, pub, logging.Event{
		Type:     EventShiftRejected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
		Payload:  ShiftRejectedPayload{Reason: reason},
	})
}

func LevelComplete(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventLevelComplete,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Extra:    extra,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, event)
}
