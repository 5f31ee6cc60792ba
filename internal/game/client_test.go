package game

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"rollcube/client/internal/grid"
	"rollcube/client/internal/items"
	"rollcube/client/internal/level"
	"rollcube/client/internal/net/proto"
	"rollcube/client/internal/net/ws"
	"rollcube/client/internal/orientation"
	"rollcube/client/internal/resilience"
	"rollcube/client/internal/session"
	"rollcube/client/logging"
)

type fakeTransport struct {
	connected bool
	dialErr   error
	dials     int
	sent      [][]byte
	lastAck   proto.HeartbeatAckEvent
}

func (f *fakeTransport) Dial(context.Context) error {
	f.dials++
	if f.dialErr != nil {
		return f.dialErr
	}
	f.connected = true
	return nil
}

func (f *fakeTransport) Send(payload []byte) error {
	if !f.connected {
		return ws.ErrNotConnected
	}
	f.sent = append(f.sent, payload)
	return nil
}

func (f *fakeTransport) Connected() bool { return f.connected }

func (f *fakeTransport) Close() error {
	f.connected = false
	return nil
}

func (f *fakeTransport) RecordHeartbeatAck(ack proto.HeartbeatAckEvent, _ time.Time) {
	f.lastAck = ack
}

func (f *fakeTransport) sentTypes() []string {
	var types []string
	for _, payload := range f.sent {
		var env struct {
			Type string `json:"type"`
		}
		json.Unmarshal(payload, &env)
		types = append(types, env.Type)
	}
	return types
}

func (f *fakeTransport) countType(t string) int {
	n := 0
	for _, typ := range f.sentTypes() {
		if typ == t {
			n++
		}
	}
	return n
}

type harness struct {
	client    *Client
	transport *fakeTransport
	buffer    *ws.EventBuffer
	now       time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		transport: &fakeTransport{},
		buffer:    ws.NewEventBuffer(64, nil),
		now:       time.Unix(1000, 0),
	}
	h.client = NewClient(Options{
		LocalID:              "me",
		PlayerName:           "alpha",
		Groups:               orientation.MemoryGroups(),
		Events:               h.buffer,
		Transport:            h.transport,
		Clock:                logging.ClockFunc(func() time.Time { return h.now }),
		ShiftDuration:        100 * time.Millisecond,
		TranslateDuration:    50 * time.Millisecond,
		PoseInterval:         time.Hour,
		HeartbeatInterval:    time.Hour,
		ReconnectBaseDelay:   time.Second,
		ReconnectMaxAttempts: 5,
	})
	if err := h.client.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return h
}

func (h *harness) advance(d time.Duration) {
	h.now = h.now.Add(d)
	h.client.Advance(context.Background(), h.now)
}

func (h *harness) push(event proto.Event) {
	h.buffer.Push(event)
}

func testDescriptor() level.Descriptor {
	return level.Descriptor{
		Name:        "first",
		Number:      1,
		GridSize:    10,
		PlayerStart: grid.Coord{X: 5, Z: 5},
		Objects: []level.Object{
			{Type: level.ObjectCoin, ID: "c1", Coord: grid.Coord{X: 5, Z: 4}},
			{Type: level.ObjectGoal, ID: "goal", Coord: grid.Coord{X: 9, Z: 9}},
		},
	}
}

func (h *harness) startGame(desc level.Descriptor) {
	h.push(proto.Event{Type: proto.TypeGameStarted, GameStarted: &proto.GameStartedEvent{
		Players: []session.Player{{ID: "me", Name: "alpha"}, {ID: "p2", Name: "beta"}},
		HostID:  "me",
		Level:   desc,
	}})
	h.advance(10 * time.Millisecond)
}

func TestGameStartInitializesLevel(t *testing.T) {
	h := newHarness(t)
	h.startGame(testDescriptor())

	if h.client.Session().Phase() != session.PhaseInGame {
		t.Fatalf("phase = %q", h.client.Session().Phase())
	}
	coord, ok := h.client.PlayerCoord()
	if !ok || coord != (grid.Coord{X: 5, Z: 5}) {
		t.Fatalf("player at %v", coord)
	}
	if h.client.Items().Count() != 1 {
		t.Fatalf("collectibles = %d", h.client.Items().Count())
	}
	if h.client.Level() == nil || h.client.Level().Number != 1 {
		t.Fatal("level descriptor missing")
	}
}

func TestMovementSlotIsExclusive(t *testing.T) {
	h := newHarness(t)
	h.startGame(testDescriptor())
	ctx := context.Background()

	if !h.client.TryMove(ctx, 1, 0) {
		t.Fatal("translate from idle should start")
	}
	// While translating, both further movement and rotation are dropped.
	if h.client.TryMove(ctx, 0, 1) {
		t.Fatal("second move during translate must be rejected")
	}
	if h.client.TryRotate(ctx) {
		t.Fatal("rotate during translate must be rejected")
	}
	if h.client.Orientation().Phase() != orientation.PhaseStable {
		t.Fatal("rejected rotate must not start a shift")
	}

	h.advance(60 * time.Millisecond)
	coord, _ := h.client.PlayerCoord()
	if coord != (grid.Coord{X: 6, Z: 5}) {
		t.Fatalf("player at %v after translate", coord)
	}
	if !h.client.TryMove(ctx, 0, 1) {
		t.Fatal("movement should be available again after settling")
	}
}

func TestBorderMoveBecomesGravityShift(t *testing.T) {
	h := newHarness(t)
	desc := testDescriptor()
	desc.PlayerStart = grid.Coord{X: 0, Z: 5}
	h.startGame(desc)
	ctx := context.Background()

	if !h.client.TryMove(ctx, -1, 0) {
		t.Fatal("border-crossing move should begin a shift")
	}
	if h.client.Orientation().Phase() != orientation.PhaseReorienting {
		t.Fatal("shift should be in flight")
	}
	// During the shift the translate guard also holds.
	if h.client.TryMove(ctx, 1, 0) {
		t.Fatal("translate during shift must be rejected")
	}

	h.advance(60 * time.Millisecond)
	h.advance(60 * time.Millisecond)
	if h.client.Orientation().Phase() != orientation.PhaseStable {
		t.Fatal("shift should have settled")
	}
	coord, _ := h.client.PlayerCoord()
	if coord != (grid.Coord{X: 9, Z: 5}) {
		t.Fatalf("player at %v after west wrap, want (9,5)", coord)
	}
	if h.client.Stats().GravityShifts != 1 {
		t.Fatalf("gravity shifts = %d", h.client.Stats().GravityShifts)
	}
}

func TestRotateAwayFromEdgeBounces(t *testing.T) {
	h := newHarness(t)
	h.startGame(testDescriptor())
	ctx := context.Background()

	if h.client.TryRotate(ctx) {
		t.Fatal("rotate away from the border must be refused")
	}
	if h.client.Orientation().Phase() != orientation.PhaseStable {
		t.Fatal("refused rotate must leave orientation untouched")
	}
	// The bounce occupies the movement slot briefly.
	if h.client.TryMove(ctx, 1, 0) {
		t.Fatal("movement during bounce must be rejected")
	}
	h.advance(300 * time.Millisecond)
	if !h.client.TryMove(ctx, 1, 0) {
		t.Fatal("movement should recover after the bounce")
	}
}

func TestRotateOnEdgeShifts(t *testing.T) {
	h := newHarness(t)
	desc := testDescriptor()
	desc.PlayerStart = grid.Coord{X: 5, Z: 0}
	h.startGame(desc)

	if !h.client.TryRotate(context.Background()) {
		t.Fatal("rotate on a border cell should begin a shift")
	}
	h.advance(120 * time.Millisecond)
	coord, _ := h.client.PlayerCoord()
	if coord != (grid.Coord{X: 5, Z: 9}) {
		t.Fatalf("player at %v after north shift, want (5,9)", coord)
	}
}

func TestPickupCollectsOnceAndSendsIntent(t *testing.T) {
	h := newHarness(t)
	desc := testDescriptor()
	desc.Objects[0].Coord = desc.PlayerStart
	h.startGame(desc)

	if h.client.Items().Score() != 10 {
		t.Fatalf("score = %d after standing on a coin", h.client.Items().Score())
	}
	if got := h.transport.countType(proto.TypeCollect); got != 1 {
		t.Fatalf("collect intents sent = %d", got)
	}
	h.advance(10 * time.Millisecond)
	if got := h.transport.countType(proto.TypeCollect); got != 1 {
		t.Fatal("pickup must not repeat on later ticks")
	}
}

func TestRemoteCollectionIsSilent(t *testing.T) {
	h := newHarness(t)
	h.startGame(testDescriptor())

	h.push(proto.Event{Type: proto.TypeItemCollected, ItemCollected: &proto.ItemCollectedEvent{
		PlayerID: "p2", ItemType: "coin", ItemID: "c1",
	}})
	h.advance(10 * time.Millisecond)

	if h.client.Items().Count() != 0 {
		t.Fatal("remote pickup should remove the entity")
	}
	if h.client.Items().Score() != 0 {
		t.Fatal("remote pickup must not credit local score")
	}
}

func TestGoalDetection(t *testing.T) {
	h := newHarness(t)
	desc := testDescriptor()
	desc.PlayerStart = grid.Coord{X: 9, Z: 9}
	h.startGame(desc)

	if h.client.Stats().LevelsCompleted != 1 {
		t.Fatalf("levels completed = %d", h.client.Stats().LevelsCompleted)
	}
	h.advance(10 * time.Millisecond)
	if h.client.Stats().LevelsCompleted != 1 {
		t.Fatal("goal must be counted once")
	}
}

func TestSnapshotReconciliationIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.startGame(testDescriptor())

	snapshot := &proto.StateEvent{
		Players: []session.Player{{ID: "me", Name: "alpha"}, {ID: "p2", Name: "beta"}},
		HostID:  "me",
		Phase:   string(session.PhaseInGame),
		Collected: items.CollectedSets{
			Coins: []string{"c1"},
		},
		Vote: &proto.VoteState{
			Options:     []string{"restart", "continue"},
			RemainingMs: 4000,
			Tally:       map[string]int{"restart": 1},
			Ballots:     map[string]string{"p2": "restart"},
		},
	}

	h.push(proto.Event{Type: proto.TypeState, State: snapshot})
	h.advance(10 * time.Millisecond)
	if h.client.Items().Count() != 0 {
		t.Fatal("snapshot should remove the collected coin")
	}
	if h.client.Items().Score() != 0 {
		t.Fatal("reconciliation must not credit score")
	}
	if !h.client.Vote().Active() {
		t.Fatal("snapshot should resume the vote")
	}

	// Same snapshot again: nothing changes.
	coordBefore, _ := h.client.PlayerCoord()
	h.push(proto.Event{Type: proto.TypeState, State: snapshot})
	h.advance(10 * time.Millisecond)
	coordAfter, _ := h.client.PlayerCoord()
	if coordBefore != coordAfter {
		t.Fatal("re-applying a snapshot must not reset the level")
	}
	if h.client.Items().Score() != 0 || h.client.Items().Count() != 0 {
		t.Fatal("re-applying a snapshot must be a no-op")
	}
}

func TestSnapshotWithInconsistentVoteDiscardsVote(t *testing.T) {
	h := newHarness(t)
	h.startGame(testDescriptor())

	h.push(proto.Event{Type: proto.TypeState, State: &proto.StateEvent{
		Players: []session.Player{{ID: "me"}, {ID: "p2"}},
		HostID:  "me",
		Phase:   string(session.PhaseInGame),
		Vote: &proto.VoteState{
			Options:     []string{"restart", "continue"},
			RemainingMs: 4000,
			Tally:       map[string]int{"restart": 9},
		},
	}})
	h.advance(10 * time.Millisecond)
	if h.client.Vote().Active() {
		t.Fatal("a vote block the roster cannot have produced must not resume")
	}
}

func TestShiftRefusedWhileMovementSlotBusy(t *testing.T) {
	h := newHarness(t)
	desc := testDescriptor()
	desc.PlayerStart = grid.Coord{X: 0, Z: 5}
	h.startGame(desc)
	ctx := context.Background()

	if !h.client.TryMove(ctx, 1, 0) {
		t.Fatal("translate from idle should start")
	}
	if h.client.beginShift(ctx, grid.Transition{
		Edge:        grid.EdgeWest,
		Destination: grid.Coord{X: 9, Z: 5},
	}) {
		t.Fatal("shift must not start while the slot is busy")
	}
	if h.client.Orientation().Phase() != orientation.PhaseStable {
		t.Fatal("refused shift must leave the controller stable")
	}
	h.advance(60 * time.Millisecond)
	if !h.client.TryMove(ctx, 0, 1) {
		t.Fatal("movement should be available once the slot frees")
	}
}

func TestDisconnectThenReconnectRequestsSnapshot(t *testing.T) {
	h := newHarness(t)
	h.startGame(testDescriptor())

	h.transport.connected = false
	h.client.NotifyDisconnect("read error")
	h.advance(10 * time.Millisecond)

	if h.client.Session().Phase() != session.PhaseLobby {
		t.Fatal("disconnect should tear the session down to the lobby")
	}
	if h.client.Resilience().State() != resilience.StateWaiting {
		t.Fatalf("resilience state = %q", h.client.Resilience().State())
	}

	dialsBefore := h.transport.dials
	h.advance(1100 * time.Millisecond)
	if h.transport.dials != dialsBefore+1 {
		t.Fatalf("dials = %d, want one reconnect attempt", h.transport.dials)
	}
	if h.transport.countType(proto.TypeJoin) < 2 {
		t.Fatal("reconnect should re-join")
	}
	if h.transport.countType(proto.TypeStateRequest) != 1 {
		t.Fatal("reconnect should request a snapshot")
	}
}

func TestReconnectStopsAfterBudget(t *testing.T) {
	h := newHarness(t)
	h.startGame(testDescriptor())

	h.transport.connected = false
	h.transport.dialErr = errors.New("refused")
	h.client.NotifyDisconnect("read error")
	h.advance(10 * time.Millisecond)

	dialsBefore := h.transport.dials
	// Walk far past every scheduled attempt.
	for i := 0; i < 60; i++ {
		h.advance(time.Second)
	}
	if got := h.transport.dials - dialsBefore; got != 5 {
		t.Fatalf("reconnect attempts = %d, want exactly 5", got)
	}
	if h.client.Resilience().State() != resilience.StateGaveUp {
		t.Fatalf("resilience state = %q", h.client.Resilience().State())
	}
}

func TestVoteLifecycle(t *testing.T) {
	h := newHarness(t)
	h.startGame(testDescriptor())
	ctx := context.Background()

	h.push(proto.Event{Type: proto.TypeVoteStarted, VoteStarted: &proto.VoteStartedEvent{
		Options:     []string{"restart", "continue"},
		RemainingMs: 10_000,
	}})
	h.advance(10 * time.Millisecond)
	if !h.client.Vote().Active() {
		t.Fatal("vote should be active")
	}

	if !h.client.CastVote(ctx, "restart", h.now) {
		t.Fatal("first ballot should send")
	}
	if h.client.CastVote(ctx, "continue", h.now) {
		t.Fatal("second ballot must be refused")
	}
	if got := h.transport.countType(proto.TypeCastVote); got != 1 {
		t.Fatalf("castVote frames sent = %d", got)
	}

	// A tally larger than the roster is discarded.
	h.push(proto.Event{Type: proto.TypeVoteUpdate, VoteUpdate: &proto.VoteUpdateEvent{
		Tally: map[string]int{"restart": 9},
	}})
	h.advance(10 * time.Millisecond)
	if h.client.Vote().Tally()["restart"] == 9 {
		t.Fatal("inconsistent tally must not reach the display")
	}

	// Move away from spawn, then let a restart outcome reset the level.
	h.client.TryMove(ctx, 1, 0)
	h.advance(60 * time.Millisecond)
	h.push(proto.Event{Type: proto.TypeVoteEnded, VoteEnded: &proto.VoteEndedEvent{
		Winner: "restart", CompletedBy: "p2",
	}})
	h.advance(10 * time.Millisecond)

	if h.client.Vote().Active() {
		t.Fatal("vote should be resolved")
	}
	coord, _ := h.client.PlayerCoord()
	if coord != (grid.Coord{X: 5, Z: 5}) {
		t.Fatalf("player at %v after restart, want spawn", coord)
	}
}

func TestHeartbeatAckReachesTransport(t *testing.T) {
	h := newHarness(t)
	h.push(proto.Event{Type: proto.TypeHeartbeatAck, HeartbeatAck: &proto.HeartbeatAckEvent{
		ServerTime: 77, ClientTime: 70,
	}})
	h.advance(10 * time.Millisecond)
	if h.transport.lastAck.ServerTime != 77 {
		t.Fatal("heartbeat ack not forwarded")
	}
}
