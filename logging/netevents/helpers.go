package netevents

import (
	"context"

	"rollcube/client/logging"
)

const (
	// EventConnected is emitted when the gateway handshake completes.
	EventConnected logging.EventType = "net.connected"
	// EventConnectionLost is emitted on an unexpected disconnect.
	EventConnectionLost logging.EventType = "net.connection_lost"
	// EventReconnectScheduled is emitted when a reconnection attempt is queued.
	EventReconnectScheduled logging.EventType = "net.reconnect_scheduled"
	// EventReconnectGaveUp is emitted when the attempt budget is exhausted.
	EventReconnectGaveUp logging.EventType = "net.reconnect_gave_up"
	// EventSnapshotApplied is emitted after authoritative-state reconciliation.
	EventSnapshotApplied logging.EventType = "net.snapshot_applied"
	// EventMalformedPayload is emitted when an inbound message fails decoding.
	EventMalformedPayload logging.EventType = "net.malformed_payload"
)

type ReconnectPayload struct {
	Attempt     int   `json:"attempt"`
	MaxAttempts int   `json:"maxAttempts"`
	DelayMs     int64 `json:"delayMs,omitempty"`
}

type SnapshotPayload struct {
	RemovedItems int  `json:"removedItems"`
	VoteActive   bool `json:"voteActive"`
}

type MalformedPayload struct {
	Type   string `json:"type,omitempty"`
	Reason string `json:"reason"`
}

func Connected(ctx context.Context, pub logging.Publisher, tick uint64, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventConnected,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindConnection},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Extra:    extra,
	})
}

func ConnectionLost(ctx context.Context, pub logging.Publisher, tick uint64, reason string) {
	publish(ctx, pub, logging.Event{
		Type:     EventConnectionLost,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindConnection},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  map[string]string{"reason": reason},
	})
}

func ReconnectScheduled(ctx context.Context, pub logging.Publisher, tick uint64, payload ReconnectPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventReconnectScheduled,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindConnection},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

func ReconnectGaveUp(ctx context.Context, pub logging.Publisher, tick uint64, payload ReconnectPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventReconnectGaveUp,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindConnection},
		Severity: logging.SeverityError,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

func SnapshotApplied(ctx context.Context, pub logging.Publisher, tick uint64, payload SnapshotPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventSnapshotApplied,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindConnection},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

func Malformed(ctx context.Context, pub logging.Publisher, tick uint64, payload MalformedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventMalformedPayload,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindConnection},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, event)
}
