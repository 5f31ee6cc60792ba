// Package game is the client hub: it owns every gameplay subsystem, drains
// the inbound event ring once per tick, and turns player input into intents
// for the session authority.
package game

import (
	"context"
	"sync"
	"time"

	"rollcube/client/internal/anim"
	"rollcube/client/internal/grid"
	"rollcube/client/internal/items"
	"rollcube/client/internal/level"
	"rollcube/client/internal/net/proto"
	"rollcube/client/internal/net/ws"
	"rollcube/client/internal/orientation"
	"rollcube/client/internal/player"
	"rollcube/client/internal/resilience"
	"rollcube/client/internal/session"
	"rollcube/client/internal/vote"
	"rollcube/client/logging"
	"rollcube/client/logging/gameplay"
	"rollcube/client/logging/lifecycle"
	"rollcube/client/logging/netevents"
)

// Transport is the connection surface the hub drives. *ws.Gateway satisfies
// it; tests substitute a fake.
type Transport interface {
	Dial(ctx context.Context) error
	Send(payload []byte) error
	Connected() bool
	Close() error
	RecordHeartbeatAck(ack proto.HeartbeatAckEvent, now time.Time)
}

// PeerPose is the last known pose of a remote player.
type PeerPose struct {
	Coord grid.Coord
	Roll  player.Roll
	Floor string
}

// Stats accumulates session counters the caller persists on shutdown.
type Stats struct {
	ItemsCollected  int
	GravityShifts   int
	LevelsCompleted int
}

// Options wires a client hub together.
type Options struct {
	LocalID    string
	PlayerName string
	Color      string

	Groups    orientation.Groups
	Events    *ws.EventBuffer
	Transport Transport

	Publisher logging.Publisher
	Metrics   *logging.Metrics
	Clock     logging.Clock

	ShiftDuration     time.Duration
	TranslateDuration time.Duration
	PoseInterval      time.Duration
	HeartbeatInterval time.Duration

	ReconnectBaseDelay   time.Duration
	ReconnectMaxAttempts int
}

// Client is the single-threaded simulation core. All mutation happens inside
// Advance, which the loop calls once per tick; the only concurrent entry
// point is NotifyDisconnect, which just stages a flag for the next tick.
type Client struct {
	localID    string
	playerName string
	color      string

	tick  uint64
	clock logging.Clock

	pub     logging.Publisher
	metrics *logging.Metrics

	transport Transport
	events    *ws.EventBuffer
	resil     *resilience.Manager

	session *session.Machine
	vote    *vote.Controller

	model    grid.Model
	resolver grid.Resolver
	lvl      *level.Descriptor
	nav      *player.NavigationState
	orient   *orientation.Controller
	runner   *anim.Runner
	registry *items.Registry

	peers map[string]PeerPose
	stats Stats

	translateDuration time.Duration
	poseInterval      time.Duration
	heartbeatInterval time.Duration
	lastPoseSent      time.Time
	lastHeartbeat     time.Time
	goalReached       bool

	mu                 sync.Mutex
	pendingDisconnects []string
}

func NewClient(opts Options) *Client {
	pub := opts.Publisher
	if pub == nil {
		pub = logging.NopPublisher()
	}
	clock := opts.Clock
	if clock == nil {
		clock = logging.SystemClock{}
	}
	translate := opts.TranslateDuration
	if translate <= 0 {
		translate = player.DefaultTranslateDuration
	}
	poseInterval := opts.PoseInterval
	if poseInterval <= 0 {
		poseInterval = 100 * time.Millisecond
	}
	heartbeat := opts.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 2 * time.Second
	}

	orient := orientation.NewController(opts.Groups)
	if opts.ShiftDuration > 0 {
		orient.SetShiftDuration(opts.ShiftDuration)
	}

	return &Client{
		localID:           opts.LocalID,
		playerName:        opts.PlayerName,
		color:             opts.Color,
		clock:             clock,
		pub:               pub,
		metrics:           opts.Metrics,
		transport:         opts.Transport,
		events:            opts.Events,
		resil:             resilience.NewManager(opts.ReconnectBaseDelay, opts.ReconnectMaxAttempts, pub, opts.Metrics),
		session:           session.NewMachine(opts.LocalID, pub),
		vote:              vote.NewController(opts.LocalID, pub),
		orient:            orient,
		runner:            anim.NewRunner(clock),
		registry:          items.NewRegistry(pub, opts.Metrics),
		peers:             make(map[string]PeerPose),
		translateDuration: translate,
		poseInterval:      poseInterval,
		heartbeatInterval: heartbeat,
	}
}

func (c *Client) Tick() uint64 { return c.tick }

func (c *Client) Session() *session.Machine { return c.session }

func (c *Client) Vote() *vote.Controller { return c.vote }

func (c *Client) Items() *items.Registry { return c.registry }

func (c *Client) Orientation() *orientation.Controller { return c.orient }

func (c *Client) Resilience() *resilience.Manager { return c.resil }

func (c *Client) Level() *level.Descriptor { return c.lvl }

func (c *Client) Stats() Stats { return c.stats }

// PlayerCoord reports the local cube's cell, false before a level is loaded.
func (c *Client) PlayerCoord() (grid.Coord, bool) {
	if c.nav == nil {
		return grid.Coord{}, false
	}
	return c.nav.Coord(), true
}

// Peers returns a copy of the remote pose table.
func (c *Client) Peers() map[string]PeerPose {
	out := make(map[string]PeerPose, len(c.peers))
	for id, pose := range c.peers {
		out[id] = pose
	}
	return out
}

// NotifyDisconnect stages a transport loss for the next tick. Safe to call
// from the gateway's read pump goroutine.
func (c *Client) NotifyDisconnect(reason string) {
	c.mu.Lock()
	c.pendingDisconnects = append(c.pendingDisconnects, reason)
	c.mu.Unlock()
}

// Connect performs the initial dial and join handshake.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.transport.Dial(ctx); err != nil {
		return err
	}
	return c.sendJoin()
}

// Advance runs one simulation tick: staged disconnects, reconnect schedule,
// inbound events, animations, pickup/goal checks, and outbound cadence, in
// that order. Inbound events are applied atomically before any animation
// steps so a tick never observes half of a frame.
func (c *Client) Advance(ctx context.Context, now time.Time) {
	c.tick++

	c.mu.Lock()
	pending := c.pendingDisconnects
	c.pendingDisconnects = nil
	c.mu.Unlock()
	for _, reason := range pending {
		c.handleDisconnect(ctx, reason, now)
	}

	if c.resil.Due(now) {
		c.resil.BeginAttempt()
		if err := c.transport.Dial(ctx); err != nil {
			c.resil.OnDialFailed(ctx, now, c.tick)
		} else {
			c.resil.OnConnected(ctx, now, c.tick)
			c.sendJoin()
			if c.resil.NeedsSnapshot() {
				if payload, err := proto.EncodeStateRequest(); err == nil {
					c.transport.Send(payload)
				}
			}
		}
	}

	for _, event := range c.events.Drain() {
		c.applyEvent(ctx, event, now)
	}

	c.runner.Step(now)
	c.checkPickup(ctx)
	c.checkGoal(ctx)
	c.maybeSendPose(now)
	c.maybeSendHeartbeat(now)
}

// TryMove requests a one-cell move. A delta that pushes past the border the
// player touches becomes a gravity shift; an in-bounds delta becomes a
// translate. Both claim the exclusive movement slot, so the request is
// dropped outright while any movement animation runs.
func (c *Client) TryMove(ctx context.Context, dx, dz int) bool {
	if !c.canAct() || dx*dx+dz*dz != 1 {
		return false
	}
	coord := c.nav.Coord()
	if transition, ok := c.resolver.DetectTransition(coord, dx, dz); ok {
		return c.beginShift(ctx, transition)
	}
	target := grid.Coord{X: coord.X + dx, Z: coord.Z + dz}
	if !c.model.InBounds(target) {
		return false
	}
	task, ok := c.nav.BeginTranslate(target, c.translateDuration)
	if !ok {
		return false
	}
	return c.runner.StartMovement(task)
}

// TryRotate requests a manual gravity shift from the current cell. Away from
// the border the request is refused with a bounce that briefly occupies the
// movement slot, so held-down input cannot spam rejections.
func (c *Client) TryRotate(ctx context.Context) bool {
	if !c.canAct() {
		return false
	}
	coord := c.nav.Coord()
	edge, ok := c.model.EdgeOf(coord)
	if !ok {
		c.runner.StartMovement(player.NewBounceTask(0))
		gameplay.ShiftRejected(ctx, c.pub, c.tick, c.actorRef(), "not on an edge cell")
		return false
	}
	return c.beginShift(ctx, grid.Transition{
		Edge:        edge,
		Destination: c.resolver.ResolveDestination(edge, coord),
	})
}

// SetReady toggles the local ready flag optimistically and tells the
// authority.
func (c *Client) SetReady(ready bool) bool {
	if !c.session.SetLocalReady(ready) {
		return false
	}
	payload, err := proto.EncodeSetReady(proto.SetReadyIntent{Ready: ready})
	if err != nil {
		return false
	}
	return c.transport.Send(payload) == nil
}

// StartGame asks the authority to start; only the host with a fully ready
// lobby may.
func (c *Client) StartGame() bool {
	if !c.session.IsHost() || !c.session.AllReady() {
		return false
	}
	payload, err := proto.EncodeStartGame()
	if err != nil {
		return false
	}
	return c.transport.Send(payload) == nil
}

// ReturnToLobby asks the authority to end the game; host only.
func (c *Client) ReturnToLobby() bool {
	if !c.session.IsHost() {
		return false
	}
	payload, err := proto.EncodeReturnLobby()
	if err != nil {
		return false
	}
	return c.transport.Send(payload) == nil
}

// RequestLevel asks the authority to load a level; host only.
func (c *Client) RequestLevel(number int) bool {
	if !c.session.IsHost() {
		return false
	}
	payload, err := proto.EncodeInitLevel(proto.InitLevelIntent{Number: number})
	if err != nil {
		return false
	}
	return c.transport.Send(payload) == nil
}

// CastVote submits the local ballot, once.
func (c *Client) CastVote(ctx context.Context, option string, now time.Time) bool {
	opt, ok := c.vote.CastLocal(ctx, option, now, c.tick)
	if !ok {
		return false
	}
	payload, err := proto.EncodeCastVote(proto.CastVoteIntent{Option: opt})
	if err != nil {
		return false
	}
	return c.transport.Send(payload) == nil
}

func (c *Client) canAct() bool {
	return c.nav != nil &&
		c.session.Phase() == session.PhaseInGame &&
		c.orient.Phase() == orientation.PhaseStable &&
		!c.runner.MovementActive()
}

func (c *Client) actorRef() logging.EntityRef {
	return logging.EntityRef{ID: c.localID, Kind: logging.EntityKindPlayer}
}

func (c *Client) beginShift(ctx context.Context, transition grid.Transition) bool {
	if c.runner.MovementActive() {
		return false
	}
	fromFace := c.orient.Floor()
	task, ok := c.orient.BeginShift(transition.Edge, transition.Destination, func(dest grid.Coord) {
		c.nav.SetCoord(dest)
		c.stats.GravityShifts++
		gameplay.FaceTransition(ctx, c.pub, c.tick, c.actorRef(), gameplay.FaceTransitionPayload{
			Edge:     string(transition.Edge),
			FromFace: string(fromFace),
			ToFace:   string(c.orient.Floor()),
		})
	})
	if !ok {
		return false
	}
	return c.runner.StartMovement(task)
}

func (c *Client) handleDisconnect(ctx context.Context, reason string, now time.Time) {
	c.resil.OnDisconnect(ctx, reason, now, c.tick)
	c.runner.AbortMovement()
	c.session.Teardown(ctx, c.tick)
	c.vote.Clear()
	c.peers = make(map[string]PeerPose)
}

func (c *Client) applyEvent(ctx context.Context, event proto.Event, now time.Time) {
	switch {
	case event.Roster != nil:
		c.session.ApplyRoster(ctx, event.Roster.Players, event.Roster.HostID, c.tick)
	case event.PlayerJoined != nil:
		c.session.ApplyPlayerJoined(ctx, event.PlayerJoined.Player, c.tick)
	case event.PlayerLeft != nil:
		c.session.ApplyPlayerLeft(ctx, event.PlayerLeft.ID, event.PlayerLeft.HostID, c.tick)
		delete(c.peers, event.PlayerLeft.ID)
	case event.ReadyChanged != nil:
		c.session.ApplyReadyChanged(ctx, event.ReadyChanged.ID, event.ReadyChanged.Ready, c.tick)
	case event.Countdown != nil:
		delay := time.Duration(event.Countdown.DelayMs) * time.Millisecond
		c.session.ApplyCountdown(ctx, delay, now, c.tick)
	case event.GameStarted != nil:
		c.session.ApplyGameStarted(ctx, event.GameStarted.Players, event.GameStarted.HostID, c.tick)
		c.initLevel(ctx, event.GameStarted.Level, "")
	case event.Type == proto.TypeReturnedToLobby:
		c.session.ApplyReturnToLobby(ctx, c.tick)
		c.vote.Clear()
		c.lvl = nil
		c.nav = nil
		c.runner.AbortMovement()
	case event.State != nil:
		c.reconcile(ctx, event.State, now)
	case event.VoteStarted != nil:
		remaining := time.Duration(event.VoteStarted.RemainingMs) * time.Millisecond
		c.vote.Begin(ctx, event.VoteStarted.Options, remaining, now, event.VoteStarted.StartedBy, c.tick)
	case event.VoteUpdate != nil:
		c.applyVoteUpdate(ctx, event.VoteUpdate)
	case event.VoteEnded != nil:
		outcome := c.vote.Resolve(ctx, event.VoteEnded.Winner, event.VoteEnded.CompletedBy, c.tick)
		if outcome.Winner == vote.OptionRestart && c.lvl != nil {
			c.initLevel(ctx, *c.lvl, "")
		}
	case event.ItemCollected != nil:
		if event.ItemCollected.PlayerID != c.localID {
			c.registry.RemoveRemote(items.Kind(event.ItemCollected.ItemType), event.ItemCollected.ItemID)
		}
	case event.LevelInitialized != nil:
		c.initLevel(ctx, event.LevelInitialized.Level, event.LevelInitialized.InitiatedBy)
	case event.PeerPose != nil:
		if event.PeerPose.PlayerID != c.localID {
			c.peers[event.PeerPose.PlayerID] = PeerPose{
				Coord: event.PeerPose.Coord,
				Roll:  player.Roll{X: event.PeerPose.RollX, Z: event.PeerPose.RollZ},
				Floor: event.PeerPose.Floor,
			}
		}
	case event.HeartbeatAck != nil:
		c.transport.RecordHeartbeatAck(*event.HeartbeatAck, now)
	}
}

// applyVoteUpdate rejects tallies that cannot have come from the current
// roster before letting them reach the display.
func (c *Client) applyVoteUpdate(ctx context.Context, update *proto.VoteUpdateEvent) {
	if !voteCountsConsistent(update.Tally, update.Ballots, c.session.PlayerCount()) {
		netevents.Malformed(ctx, c.pub, c.tick, netevents.MalformedPayload{
			Type:   proto.TypeVoteUpdate,
			Reason: "tally exceeds roster size",
		})
		return
	}
	c.vote.ApplyUpdate(update.Tally, update.Ballots)
}

// voteCountsConsistent rejects tallies that cannot have come from a roster of
// the given size.
func voteCountsConsistent(tally map[string]int, ballots map[string]string, players int) bool {
	sum := 0
	for _, n := range tally {
		sum += n
	}
	return sum <= players && len(ballots) <= players
}

// reconcile applies a full authoritative snapshot. It is idempotent: applying
// the same snapshot twice removes no additional entities, re-credits nothing,
// and restarts no level.
func (c *Client) reconcile(ctx context.Context, state *proto.StateEvent, now time.Time) {
	c.session.ApplyRoster(ctx, state.Players, state.HostID, c.tick)
	switch session.Phase(state.Phase) {
	case session.PhaseInGame:
		c.session.ApplyGameStarted(ctx, nil, "", c.tick)
	case session.PhaseLobby:
		c.session.ApplyReturnToLobby(ctx, c.tick)
	}

	if state.Level != nil {
		if c.lvl == nil || c.lvl.Number != state.Level.Number {
			c.initLevel(ctx, *state.Level, "")
		}
	}

	removed := c.registry.Reconcile(state.Collected)

	if state.Vote != nil {
		if !voteCountsConsistent(state.Vote.Tally, state.Vote.Ballots, c.session.PlayerCount()) {
			netevents.Malformed(ctx, c.pub, c.tick, netevents.MalformedPayload{
				Type:   proto.TypeState,
				Reason: "vote tally exceeds roster size",
			})
		} else if c.vote.Active() {
			c.vote.ApplyUpdate(state.Vote.Tally, state.Vote.Ballots)
		} else {
			remaining := time.Duration(state.Vote.RemainingMs) * time.Millisecond
			c.vote.Resume(ctx, state.Vote.Options, remaining, state.Vote.Tally, state.Vote.Ballots, now, c.tick)
		}
	} else if c.vote.Active() {
		c.vote.Clear()
	}

	for _, pose := range state.Poses {
		if pose.PlayerID == c.localID {
			continue
		}
		c.peers[pose.PlayerID] = PeerPose{
			Coord: pose.Coord,
			Roll:  player.Roll{X: pose.RollX, Z: pose.RollZ},
			Floor: pose.Floor,
		}
	}

	netevents.SnapshotApplied(ctx, c.pub, c.tick, netevents.SnapshotPayload{
		RemovedItems: removed,
		VoteActive:   c.vote.Active(),
	})
	c.resil.SnapshotReconciled()
}

func (c *Client) initLevel(ctx context.Context, desc level.Descriptor, by string) {
	if err := desc.Validate(); err != nil {
		netevents.Malformed(ctx, c.pub, c.tick, netevents.MalformedPayload{
			Type:   proto.TypeLevelInitialized,
			Reason: err.Error(),
		})
		return
	}
	c.runner.AbortMovement()
	c.lvl = &desc
	c.model = grid.NewModel(desc.GridSize, 1)
	c.resolver = grid.NewResolver(c.model)
	c.nav = player.NewNavigationState(desc.PlayerStart)
	c.orient.Reset()
	c.registry.Place(desc)
	c.goalReached = false
	lifecycle.LevelInitialized(ctx, c.pub, c.tick, lifecycle.LevelInitializedPayload{
		LevelType: desc.Type,
		Number:    desc.Number,
		By:        by,
	})
}

func (c *Client) checkPickup(ctx context.Context) {
	if c.nav == nil || c.nav.Phase() != player.PhaseIdle || c.runner.MovementActive() {
		return
	}
	item, ok := c.registry.At(c.nav.Coord())
	if !ok {
		return
	}
	if _, collected := c.registry.Collect(ctx, item.Kind, item.ID, c.tick, c.actorRef()); !collected {
		return
	}
	c.stats.ItemsCollected++
	payload, err := proto.EncodeCollect(proto.CollectIntent{
		ItemType: string(item.Kind),
		ItemID:   item.ID,
	})
	if err == nil {
		c.transport.Send(payload)
	}
}

func (c *Client) checkGoal(ctx context.Context) {
	if c.goalReached || c.lvl == nil || c.nav == nil || c.nav.Phase() != player.PhaseIdle || c.runner.MovementActive() {
		return
	}
	coord := c.nav.Coord()
	for _, obj := range c.lvl.Objects {
		if obj.Type == level.ObjectGoal && obj.Coord == coord {
			c.goalReached = true
			c.stats.LevelsCompleted++
			gameplay.LevelComplete(ctx, c.pub, c.tick, c.actorRef(), map[string]any{
				"level": c.lvl.Number,
				"score": c.registry.Score(),
			})
			return
		}
	}
}

func (c *Client) maybeSendPose(now time.Time) {
	if c.nav == nil || c.session.Phase() != session.PhaseInGame || !c.transport.Connected() {
		return
	}
	if !c.lastPoseSent.IsZero() && now.Sub(c.lastPoseSent) < c.poseInterval {
		return
	}
	roll := c.nav.Roll()
	payload, err := proto.EncodePose(proto.PoseIntent{
		Coord:  c.nav.Coord(),
		RollX:  roll.X,
		RollZ:  roll.Z,
		Floor:  string(c.orient.Floor()),
		SentAt: now.UnixMilli(),
	})
	if err != nil {
		return
	}
	if c.transport.Send(payload) == nil {
		c.lastPoseSent = now
	}
}

func (c *Client) maybeSendHeartbeat(now time.Time) {
	if !c.transport.Connected() {
		return
	}
	if !c.lastHeartbeat.IsZero() && now.Sub(c.lastHeartbeat) < c.heartbeatInterval {
		return
	}
	payload, err := proto.EncodeHeartbeat(proto.HeartbeatIntent{SentAt: now.UnixMilli()})
	if err != nil {
		return
	}
	if c.transport.Send(payload) == nil {
		c.lastHeartbeat = now
	}
}

func (c *Client) sendJoin() error {
	payload, err := proto.EncodeJoin(proto.JoinIntent{
		ID:    c.localID,
		Name:  c.playerName,
		Color: c.color,
	})
	if err != nil {
		return err
	}
	return c.transport.Send(payload)
}
