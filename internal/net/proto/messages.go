// Package proto defines the versioned JSON wire protocol between the client
// and the session authority. Every frame carries "ver" and "type"; inbound
// frames that fail to decode are rejected as a unit so partial state never
// leaks into the simulation.
package proto

import (
	"encoding/json"
	"fmt"

	"rollcube/client/internal/grid"
	"rollcube/client/internal/items"
	"rollcube/client/internal/level"
	"rollcube/client/internal/session"
)

const (
	// Version tracks the wire-protocol revision expected by the authority.
	Version = 1
)

// Outbound message type identifiers.
const (
	TypeJoin         = "join"
	TypePose         = "pose"
	TypeCollect      = "collectItem"
	TypeInitLevel    = "initLevel"
	TypeCastVote     = "castVote"
	TypeSetReady     = "setReady"
	TypeStartGame    = "startGame"
	TypeReturnLobby  = "returnLobby"
	TypeStateRequest = "stateRequest"
	TypeHeartbeat    = "heartbeat"
)

// Inbound message type identifiers.
const (
	TypeRoster           = "roster"
	TypePlayerJoined     = "playerJoined"
	TypePlayerLeft       = "playerLeft"
	TypeReadyChanged     = "readyChanged"
	TypeStartCountdown   = "startCountdown"
	TypeGameStarted      = "gameStarted"
	TypeReturnedToLobby  = "returnedToLobby"
	TypeState            = "state"
	TypeVoteStarted      = "voteStarted"
	TypeVoteUpdate       = "voteUpdate"
	TypeVoteEnded        = "voteEnded"
	TypeItemCollected    = "itemCollected"
	TypeLevelInitialized = "levelInitialized"
	TypePeerPose         = "pose"
	TypeHeartbeatAck     = "heartbeat"
)

type frame struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
}

// JoinIntent announces the local identity when the connection opens.
type JoinIntent struct {
	ID    string `json:"id" jsonschema:"required"`
	Name  string `json:"name" jsonschema:"required"`
	Color string `json:"color,omitempty"`
}

// EncodeJoin renders a join frame.
func EncodeJoin(msg JoinIntent) ([]byte, error) {
	return json.Marshal(struct {
		frame
		JoinIntent
	}{frame{Version, TypeJoin}, msg})
}

// PoseIntent publishes the local cube pose at the broadcast cadence.
type PoseIntent struct {
	Coord  grid.Coord `json:"coord"`
	RollX  float64    `json:"rollX"`
	RollZ  float64    `json:"rollZ"`
	Floor  string     `json:"floor,omitempty"`
	SentAt int64      `json:"sentAt"`
}

// EncodePose renders a pose frame.
func EncodePose(msg PoseIntent) ([]byte, error) {
	return json.Marshal(struct {
		frame
		PoseIntent
	}{frame{Version, TypePose}, msg})
}

// CollectIntent reports a local pickup to the authority.
type CollectIntent struct {
	ItemType string `json:"itemType" jsonschema:"required"`
	ItemID   string `json:"itemId" jsonschema:"required"`
}

// EncodeCollect renders a collect frame.
func EncodeCollect(msg CollectIntent) ([]byte, error) {
	return json.Marshal(struct {
		frame
		CollectIntent
	}{frame{Version, TypeCollect}, msg})
}

// InitLevelIntent asks the authority to load a level for the session.
type InitLevelIntent struct {
	Number int `json:"number" jsonschema:"required"`
}

// EncodeInitLevel renders an init-level frame.
func EncodeInitLevel(msg InitLevelIntent) ([]byte, error) {
	return json.Marshal(struct {
		frame
		InitLevelIntent
	}{frame{Version, TypeInitLevel}, msg})
}

// CastVoteIntent submits the local ballot for the active vote.
type CastVoteIntent struct {
	Option string `json:"option" jsonschema:"required"`
}

// EncodeCastVote renders a cast-vote frame.
func EncodeCastVote(msg CastVoteIntent) ([]byte, error) {
	return json.Marshal(struct {
		frame
		CastVoteIntent
	}{frame{Version, TypeCastVote}, msg})
}

// SetReadyIntent toggles the local ready flag in the lobby.
type SetReadyIntent struct {
	Ready bool `json:"ready"`
}

// EncodeSetReady renders a set-ready frame.
func EncodeSetReady(msg SetReadyIntent) ([]byte, error) {
	return json.Marshal(struct {
		frame
		SetReadyIntent
	}{frame{Version, TypeSetReady}, msg})
}

// EncodeStartGame renders the host's start-game frame.
func EncodeStartGame() ([]byte, error) {
	return json.Marshal(frame{Version, TypeStartGame})
}

// EncodeReturnLobby renders the host's return-to-lobby frame.
func EncodeReturnLobby() ([]byte, error) {
	return json.Marshal(frame{Version, TypeReturnLobby})
}

// EncodeStateRequest renders a full-snapshot request, sent after a reconnect.
func EncodeStateRequest() ([]byte, error) {
	return json.Marshal(frame{Version, TypeStateRequest})
}

// HeartbeatIntent carries the client clock for RTT measurement.
type HeartbeatIntent struct {
	SentAt int64 `json:"sentAt"`
}

// EncodeHeartbeat renders a heartbeat frame.
func EncodeHeartbeat(msg HeartbeatIntent) ([]byte, error) {
	return json.Marshal(struct {
		frame
		HeartbeatIntent
	}{frame{Version, TypeHeartbeat}, msg})
}

// RosterEvent replaces the full roster.
type RosterEvent struct {
	Players []session.Player `json:"players"`
	HostID  string           `json:"hostId"`
}

// PlayerJoinedEvent announces a new roster entry.
type PlayerJoinedEvent struct {
	Player session.Player `json:"player"`
}

// PlayerLeftEvent removes a roster entry, optionally reassigning the host.
type PlayerLeftEvent struct {
	ID     string `json:"id"`
	HostID string `json:"hostId,omitempty"`
}

// ReadyChangedEvent updates one player's ready flag.
type ReadyChangedEvent struct {
	ID    string `json:"id"`
	Ready bool   `json:"ready"`
}

// CountdownEvent starts the pre-game countdown.
type CountdownEvent struct {
	DelayMs int64 `json:"delayMs"`
}

// GameStartedEvent moves the session in-game with its opening level.
type GameStartedEvent struct {
	Players []session.Player `json:"players,omitempty"`
	HostID  string           `json:"hostId,omitempty"`
	Level   level.Descriptor `json:"level"`
}

// VoteState is the snapshot shape of an in-flight vote.
type VoteState struct {
	Options     []string          `json:"options"`
	RemainingMs int64             `json:"remainingMs"`
	Tally       map[string]int    `json:"tally,omitempty"`
	Ballots     map[string]string `json:"ballots,omitempty"`
}

// StateEvent is the full authoritative snapshot used for reconciliation.
type StateEvent struct {
	Tick      uint64              `json:"t"`
	Players   []session.Player    `json:"players"`
	HostID    string              `json:"hostId"`
	Phase     string              `json:"phase"`
	Level     *level.Descriptor   `json:"level,omitempty"`
	Collected items.CollectedSets `json:"collected"`
	Vote      *VoteState          `json:"vote,omitempty"`
	Poses     []PeerPoseEvent     `json:"poses,omitempty"`
}

// VoteStartedEvent opens a vote.
type VoteStartedEvent struct {
	Options     []string `json:"options"`
	RemainingMs int64    `json:"remainingMs"`
	StartedBy   string   `json:"startedBy,omitempty"`
}

// VoteUpdateEvent relays the running tally.
type VoteUpdateEvent struct {
	Tally   map[string]int    `json:"tally"`
	Ballots map[string]string `json:"ballots,omitempty"`
}

// VoteEndedEvent carries the authoritative outcome.
type VoteEndedEvent struct {
	Winner      string `json:"winner"`
	CompletedBy string `json:"completedBy,omitempty"`
}

// ItemCollectedEvent announces a pickup by any player.
type ItemCollectedEvent struct {
	PlayerID string `json:"playerId"`
	ItemType string `json:"itemType"`
	ItemID   string `json:"itemId"`
}

// LevelInitializedEvent loads a level mid-session.
type LevelInitializedEvent struct {
	Level       level.Descriptor `json:"level"`
	InitiatedBy string           `json:"initiatedBy,omitempty"`
}

// PeerPoseEvent carries a remote player's cube pose.
type PeerPoseEvent struct {
	PlayerID string     `json:"playerId"`
	Coord    grid.Coord `json:"coord"`
	RollX    float64    `json:"rollX"`
	RollZ    float64    `json:"rollZ"`
	Floor    string     `json:"floor,omitempty"`
}

// HeartbeatAckEvent echoes timing metadata for RTT tracking.
type HeartbeatAckEvent struct {
	ServerTime int64 `json:"serverTime"`
	ClientTime int64 `json:"clientTime"`
	RTTMillis  int64 `json:"rtt,omitempty"`
}

// Event is one decoded inbound frame. Exactly one payload pointer is set,
// matching Type.
type Event struct {
	Type string
	Tick uint64

	Roster           *RosterEvent
	PlayerJoined     *PlayerJoinedEvent
	PlayerLeft       *PlayerLeftEvent
	ReadyChanged     *ReadyChangedEvent
	Countdown        *CountdownEvent
	GameStarted      *GameStartedEvent
	State            *StateEvent
	VoteStarted      *VoteStartedEvent
	VoteUpdate       *VoteUpdateEvent
	VoteEnded        *VoteEndedEvent
	ItemCollected    *ItemCollectedEvent
	LevelInitialized *LevelInitializedEvent
	PeerPose         *PeerPoseEvent
	HeartbeatAck     *HeartbeatAckEvent
}

type envelope struct {
	Ver  int    `json:"ver,omitempty"`
	Type string `json:"type"`
	Tick uint64 `json:"t,omitempty"`
}

// DecodeEvent converts a raw inbound payload into a typed event. Decoding is
// all-or-nothing: version mismatch, unknown type, malformed JSON, or an
// invalid embedded level all reject the frame.
func DecodeEvent(payload []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Event{}, err
	}
	if env.Ver == 0 {
		env.Ver = Version
	}
	if env.Ver != Version {
		return Event{}, fmt.Errorf("unsupported protocol version %d", env.Ver)
	}
	if env.Type == "" {
		return Event{}, fmt.Errorf("missing frame type")
	}

	event := Event{Type: env.Type, Tick: env.Tick}
	switch env.Type {
	case TypeRoster:
		event.Roster = &RosterEvent{}
		if err := json.Unmarshal(payload, event.Roster); err != nil {
			return Event{}, err
		}
	case TypePlayerJoined:
		event.PlayerJoined = &PlayerJoinedEvent{}
		if err := json.Unmarshal(payload, event.PlayerJoined); err != nil {
			return Event{}, err
		}
		if event.PlayerJoined.Player.ID == "" {
			return Event{}, fmt.Errorf("playerJoined without id")
		}
	case TypePlayerLeft:
		event.PlayerLeft = &PlayerLeftEvent{}
		if err := json.Unmarshal(payload, event.PlayerLeft); err != nil {
			return Event{}, err
		}
		if event.PlayerLeft.ID == "" {
			return Event{}, fmt.Errorf("playerLeft without id")
		}
	case TypeReadyChanged:
		event.ReadyChanged = &ReadyChangedEvent{}
		if err := json.Unmarshal(payload, event.ReadyChanged); err != nil {
			return Event{}, err
		}
	case TypeStartCountdown:
		event.Countdown = &CountdownEvent{}
		if err := json.Unmarshal(payload, event.Countdown); err != nil {
			return Event{}, err
		}
	case TypeGameStarted:
		event.GameStarted = &GameStartedEvent{}
		if err := json.Unmarshal(payload, event.GameStarted); err != nil {
			return Event{}, err
		}
		if err := event.GameStarted.Level.Validate(); err != nil {
			return Event{}, fmt.Errorf("gameStarted level: %w", err)
		}
	case TypeReturnedToLobby:
		// Envelope only.
	case TypeState:
		event.State = &StateEvent{}
		if err := json.Unmarshal(payload, event.State); err != nil {
			return Event{}, err
		}
		if event.State.Level != nil {
			if err := event.State.Level.Validate(); err != nil {
				return Event{}, fmt.Errorf("state level: %w", err)
			}
		}
	case TypeVoteStarted:
		event.VoteStarted = &VoteStartedEvent{}
		if err := json.Unmarshal(payload, event.VoteStarted); err != nil {
			return Event{}, err
		}
		if len(event.VoteStarted.Options) == 0 {
			return Event{}, fmt.Errorf("voteStarted without options")
		}
	case TypeVoteUpdate:
		event.VoteUpdate = &VoteUpdateEvent{}
		if err := json.Unmarshal(payload, event.VoteUpdate); err != nil {
			return Event{}, err
		}
	case TypeVoteEnded:
		event.VoteEnded = &VoteEndedEvent{}
		if err := json.Unmarshal(payload, event.VoteEnded); err != nil {
			return Event{}, err
		}
		if event.VoteEnded.Winner == "" {
			return Event{}, fmt.Errorf("voteEnded without winner")
		}
	case TypeItemCollected:
		event.ItemCollected = &ItemCollectedEvent{}
		if err := json.Unmarshal(payload, event.ItemCollected); err != nil {
			return Event{}, err
		}
		if event.ItemCollected.ItemID == "" || event.ItemCollected.ItemType == "" {
			return Event{}, fmt.Errorf("itemCollected without item identity")
		}
	case TypeLevelInitialized:
		event.LevelInitialized = &LevelInitializedEvent{}
		if err := json.Unmarshal(payload, event.LevelInitialized); err != nil {
			return Event{}, err
		}
		if err := event.LevelInitialized.Level.Validate(); err != nil {
			return Event{}, fmt.Errorf("levelInitialized level: %w", err)
		}
	case TypePeerPose:
		event.PeerPose = &PeerPoseEvent{}
		if err := json.Unmarshal(payload, event.PeerPose); err != nil {
			return Event{}, err
		}
		if event.PeerPose.PlayerID == "" {
			return Event{}, fmt.Errorf("pose without player id")
		}
	case TypeHeartbeatAck:
		event.HeartbeatAck = &HeartbeatAckEvent{}
		if err := json.Unmarshal(payload, event.HeartbeatAck); err != nil {
			return Event{}, err
		}
	default:
		return Event{}, fmt.Errorf("unknown frame type %q", env.Type)
	}
	return event, nil
}
