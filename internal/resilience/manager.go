// Package resilience schedules reconnection after an unexpected disconnect
// and tracks whether the session must be reconciled from an authoritative
// snapshot once the transport comes back.
package resilience

import (
	"context"
	"time"

	"rollcube/client/logging"
	"rollcube/client/logging/netevents"
)

type State string

const (
	// StateConnected means the transport is up.
	StateConnected State = "connected"
	// StateWaiting means a reconnection attempt is scheduled but not yet due.
	StateWaiting State = "waiting"
	// StateDialing means an attempt is in flight.
	StateDialing State = "dialing"
	// StateGaveUp is terminal: the attempt budget is exhausted and no further
	// attempt will ever be scheduled.
	StateGaveUp State = "gave-up"
)

const (
	DefaultBaseDelay   = 2 * time.Second
	DefaultMaxAttempts = 5
)

// Manager drives the reconnect schedule. It is tick-driven: the owner calls
// Due each tick and dials when it reports true. Delay grows linearly with the
// attempt number.
type Manager struct {
	baseDelay   time.Duration
	maxAttempts int

	state         State
	attempt       int
	nextAttemptAt time.Time
	needsSnapshot bool

	pub     logging.Publisher
	metrics *logging.Metrics
}

func NewManager(baseDelay time.Duration, maxAttempts int, pub logging.Publisher, metrics *logging.Metrics) *Manager {
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Manager{
		baseDelay:   baseDelay,
		maxAttempts: maxAttempts,
		state:       StateConnected,
		pub:         pub,
		metrics:     metrics,
	}
}

func (m *Manager) State() State { return m.state }

func (m *Manager) Attempt() int { return m.attempt }

// NeedsSnapshot reports whether the next established connection must request
// a full authoritative state snapshot before resuming play.
func (m *Manager) NeedsSnapshot() bool { return m.needsSnapshot }

// OnDisconnect reacts to an unexpected transport loss by scheduling the first
// reconnection attempt. A disconnect while already recovering is ignored.
func (m *Manager) OnDisconnect(ctx context.Context, reason string, now time.Time, tick uint64) {
	if m.state != StateConnected {
		return
	}
	netevents.ConnectionLost(ctx, m.pub, tick, reason)
	m.metrics.Add("net_disconnects_total", 1)
	m.needsSnapshot = true
	m.attempt = 0
	m.schedule(ctx, now, tick)
}

// Due reports whether a scheduled attempt should be dialed now. It never
// fires in the terminal state.
func (m *Manager) Due(now time.Time) bool {
	return m.state == StateWaiting && !now.Before(m.nextAttemptAt)
}

// BeginAttempt marks the scheduled attempt as in flight and returns its
// number. The caller dials and reports back with OnConnected or OnDialFailed.
func (m *Manager) BeginAttempt() int {
	if m.state != StateWaiting {
		return 0
	}
	m.state = StateDialing
	return m.attempt
}

// OnDialFailed schedules the next attempt, or enters the terminal state once
// the budget is spent. After maxAttempts consecutive failures nothing more is
// scheduled; recovery then requires an explicit Reset.
func (m *Manager) OnDialFailed(ctx context.Context, now time.Time, tick uint64) {
	if m.state != StateDialing {
		return
	}
	if m.attempt >= m.maxAttempts {
		m.state = StateGaveUp
		netevents.ReconnectGaveUp(ctx, m.pub, tick, netevents.ReconnectPayload{
			Attempt:     m.attempt,
			MaxAttempts: m.maxAttempts,
		})
		m.metrics.Add("net_reconnect_gave_up_total", 1)
		return
	}
	m.schedule(ctx, now, tick)
}

// OnConnected resets the schedule after a successful dial. The snapshot flag
// stays raised until the reconciliation actually runs.
func (m *Manager) OnConnected(ctx context.Context, now time.Time, tick uint64) {
	m.state = StateConnected
	m.attempt = 0
	m.nextAttemptAt = time.Time{}
	netevents.Connected(ctx, m.pub, tick, nil)
	m.metrics.Add("net_reconnects_total", 1)
}

// SnapshotReconciled lowers the snapshot flag once authoritative state has
// been applied.
func (m *Manager) SnapshotReconciled() {
	m.needsSnapshot = false
}

// Reset returns the manager to the connected idle state, clearing a terminal
// give-up. Used when the player manually retries.
func (m *Manager) Reset() {
	m.state = StateConnected
	m.attempt = 0
	m.nextAttemptAt = time.Time{}
}

// NextAttemptAt exposes the schedule for status display.
func (m *Manager) NextAttemptAt() time.Time { return m.nextAttemptAt }

func (m *Manager) schedule(ctx context.Context, now time.Time, tick uint64) {
	m.attempt++
	delay := time.Duration(m.attempt) * m.baseDelay
	m.nextAttemptAt = now.Add(delay)
	m.state = StateWaiting
	netevents.ReconnectScheduled(ctx, m.pub, tick, netevents.ReconnectPayload{
		Attempt:     m.attempt,
		MaxAttempts: m.maxAttempts,
		DelayMs:     delay.Milliseconds(),
	})
}
