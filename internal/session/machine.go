// Package session tracks the multiplayer session phase and roster. Every
// transition is driven by authoritative events; the only local write is the
// optimistic ready toggle, which the next roster broadcast reconciles.
package session

import (
	"context"
	"sort"
	"time"

	"rollcube/client/logging"
	"rollcube/client/logging/lifecycle"
)

type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseStarting Phase = "starting"
	PhaseInGame   Phase = "in-game"
)

// Player is one roster entry.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
	Color string `json:"color"`
}

// Machine is the client's view of the session. Host identity is always
// assigned by the authority; IsHost is a derived read, never a local claim.
type Machine struct {
	phase        Phase
	players      map[string]Player
	hostID       string
	localID      string
	countdownEnd time.Time
	pub          logging.Publisher
}

func NewMachine(localID string, pub logging.Publisher) *Machine {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Machine{
		phase:   PhaseLobby,
		players: make(map[string]Player),
		localID: localID,
		pub:     pub,
	}
}

func (m *Machine) Phase() Phase { return m.phase }

func (m *Machine) LocalID() string { return m.localID }

func (m *Machine) HostID() string { return m.hostID }

func (m *Machine) IsHost() bool { return m.hostID != "" && m.hostID == m.localID }

func (m *Machine) Player(id string) (Player, bool) {
	p, ok := m.players[id]
	return p, ok
}

// Players returns the roster sorted by id for stable display.
func (m *Machine) Players() []Player {
	out := make([]Player, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Machine) PlayerCount() int { return len(m.players) }

// AllReady reports whether every roster entry has toggled ready. An empty
// lobby is never ready.
func (m *Machine) AllReady() bool {
	if len(m.players) == 0 {
		return false
	}
	for _, p := range m.players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// CountdownRemaining reports the time left before the game starts, zero once
// expired or outside the starting phase.
func (m *Machine) CountdownRemaining(now time.Time) time.Duration {
	if m.phase != PhaseStarting {
		return 0
	}
	remaining := m.countdownEnd.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ApplyRoster replaces the roster with an authoritative snapshot, which also
// reconciles any optimistic local ready toggle.
func (m *Machine) ApplyRoster(ctx context.Context, players []Player, hostID string, tick uint64) {
	m.players = make(map[string]Player, len(players))
	for _, p := range players {
		m.players[p.ID] = p
	}
	m.hostID = hostID
}

func (m *Machine) ApplyPlayerJoined(ctx context.Context, p Player, tick uint64) {
	m.players[p.ID] = p
	lifecycle.PlayerJoined(ctx, m.pub, tick, logging.EntityRef{ID: p.ID, Kind: logging.EntityKindPlayer}, nil)
}

func (m *Machine) ApplyPlayerLeft(ctx context.Context, id string, hostID string, tick uint64) {
	if _, ok := m.players[id]; !ok {
		return
	}
	delete(m.players, id)
	if hostID != "" {
		m.hostID = hostID
	}
	lifecycle.PlayerLeft(ctx, m.pub, tick, logging.EntityRef{ID: id, Kind: logging.EntityKindPlayer}, nil)
}

func (m *Machine) ApplyReadyChanged(ctx context.Context, id string, ready bool, tick uint64) {
	p, ok := m.players[id]
	if !ok {
		return
	}
	p.Ready = ready
	m.players[id] = p
}

// ApplyCountdown enters the starting phase with the authoritative delay.
func (m *Machine) ApplyCountdown(ctx context.Context, delay time.Duration, now time.Time, tick uint64) {
	if m.phase == PhaseInGame {
		return
	}
	m.countdownEnd = now.Add(delay)
	m.setPhase(ctx, PhaseStarting, tick)
}

// ApplyGameStarted enters the in-game phase with the final roster.
func (m *Machine) ApplyGameStarted(ctx context.Context, players []Player, hostID string, tick uint64) {
	if len(players) > 0 {
		m.ApplyRoster(ctx, players, hostID, tick)
	}
	m.setPhase(ctx, PhaseInGame, tick)
}

// ApplyReturnToLobby drops back to the lobby, clearing ready flags.
func (m *Machine) ApplyReturnToLobby(ctx context.Context, tick uint64) {
	for id, p := range m.players {
		p.Ready = false
		m.players[id] = p
	}
	m.setPhase(ctx, PhaseLobby, tick)
}

// SetLocalReady optimistically toggles the local ready flag. The authority's
// next roster broadcast is authoritative over it.
func (m *Machine) SetLocalReady(ready bool) bool {
	p, ok := m.players[m.localID]
	if !ok {
		return false
	}
	p.Ready = ready
	m.players[m.localID] = p
	return true
}

// Teardown purges every remote roster entry; called on disconnect. The local
// player survives so a reconnect can rejoin under the same identity.
func (m *Machine) Teardown(ctx context.Context, tick uint64) {
	local, hadLocal := m.players[m.localID]
	m.players = make(map[string]Player)
	if hadLocal {
		local.Ready = false
		m.players[m.localID] = local
	}
	m.hostID = ""
	m.setPhase(ctx, PhaseLobby, tick)
}

func (m *Machine) setPhase(ctx context.Context, phase Phase, tick uint64) {
	if m.phase == phase {
		return
	}
	from := m.phase
	m.phase = phase
	lifecycle.PhaseChanged(ctx, m.pub, tick, lifecycle.PhaseChangedPayload{
		From: string(from),
		To:   string(phase),
	})
}
