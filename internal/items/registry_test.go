package items

import (
	"context"
	"testing"

	"rollcube/client/internal/grid"
	"rollcube/client/internal/level"
	"rollcube/client/logging"
	"rollcube/client/logging/gameplay"
	"rollcube/client/logging/sinks"
)

func testLevel() level.Descriptor {
	return level.Descriptor{
		Name:     "test",
		Number:   1,
		GridSize: 10,
		Objects: []level.Object{
			{Type: level.ObjectCoin, ID: "c1", Coord: grid.Coord{X: 1, Z: 1}},
			{Type: level.ObjectCoin, ID: "c2", Coord: grid.Coord{X: 2, Z: 1}},
			{Type: level.ObjectKey, ID: "k1", Coord: grid.Coord{X: 3, Z: 3}},
			{Type: level.ObjectGoal, ID: "goal", Coord: grid.Coord{X: 9, Z: 9}},
		},
	}
}

func newTestRegistry() (*Registry, *sinks.MemorySink, *logging.Metrics) {
	sink := sinks.NewMemorySink()
	metrics := &logging.Metrics{}
	reg := NewRegistry(logging.SinkPublisher(sink), metrics)
	reg.Place(testLevel())
	return reg, sink, metrics
}

func TestPlaceSkipsNonCollectibles(t *testing.T) {
	reg, _, _ := newTestRegistry()
	if reg.Count() != 3 {
		t.Fatalf("expected 3 collectibles, got %d", reg.Count())
	}
	if _, ok := reg.At(grid.Coord{X: 9, Z: 9}); ok {
		t.Fatal("goal must not be a collectible")
	}
}

func TestCollectCreditsScoreAndPublishes(t *testing.T) {
	reg, sink, metrics := newTestRegistry()

	item, ok := reg.Collect(context.Background(), KindCoin, "c1", 7, logging.EntityRef{ID: "me", Kind: logging.EntityKindPlayer})
	if !ok {
		t.Fatal("collect of a present coin should succeed")
	}
	if item.Coord != (grid.Coord{X: 1, Z: 1}) {
		t.Fatalf("unexpected item %+v", item)
	}
	if reg.Score() != 10 {
		t.Fatalf("score = %d, want 10", reg.Score())
	}
	if got := sink.EventsOfType(gameplay.EventItemCollected); len(got) != 1 {
		t.Fatalf("expected 1 collection event, got %d", len(got))
	}
	if metrics.Value("items_collected_total") != 1 {
		t.Fatal("collect metric missing")
	}

	// Second collect of the same id is a no-op.
	sink.Reset()
	if _, ok := reg.Collect(context.Background(), KindCoin, "c1", 8, logging.EntityRef{}); ok {
		t.Fatal("double collect must fail")
	}
	if reg.Score() != 10 || len(sink.Events()) != 0 {
		t.Fatal("double collect must not re-credit")
	}
}

func TestRemoveRemoteHasNoSideEffects(t *testing.T) {
	reg, sink, _ := newTestRegistry()

	if !reg.RemoveRemote(KindKey, "k1") {
		t.Fatal("remote removal of a present key should succeed")
	}
	if reg.Score() != 0 {
		t.Fatal("remote removal must not credit score")
	}
	if len(sink.Events()) != 0 {
		t.Fatal("remote removal must not publish gameplay events")
	}
	if reg.RemoveRemote(KindKey, "k1") {
		t.Fatal("removing an absent key should report false")
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	reg, sink, _ := newTestRegistry()

	sets := CollectedSets{Coins: []string{"c1", "c2"}, Keys: []string{"k1"}}

	removed := reg.Reconcile(sets)
	if removed != 3 {
		t.Fatalf("first reconcile removed %d, want 3", removed)
	}
	after := reg.Remaining()

	removed = reg.Reconcile(sets)
	if removed != 0 {
		t.Fatalf("second reconcile removed %d, want 0", removed)
	}
	if len(reg.Remaining()) != len(after) {
		t.Fatal("second reconcile changed the entity set")
	}
	if reg.Score() != 0 {
		t.Fatal("reconciliation must never credit score")
	}
	if len(sink.Events()) != 0 {
		t.Fatal("reconciliation must never publish collection events")
	}
}

func TestReconcileIgnoresUnknownIDs(t *testing.T) {
	reg, _, _ := newTestRegistry()
	removed := reg.Reconcile(CollectedSets{Coins: []string{"ghost"}})
	if removed != 0 {
		t.Fatalf("unknown id removed %d entities", removed)
	}
	if reg.Count() != 3 {
		t.Fatal("registry should be untouched")
	}
}

func TestCollectedIDsTracksEveryPath(t *testing.T) {
	reg, _, _ := newTestRegistry()

	reg.Collect(context.Background(), KindCoin, "c1", 1, logging.EntityRef{})
	reg.RemoveRemote(KindCoin, "c2")
	reg.Reconcile(CollectedSets{Keys: []string{"k1"}})

	coins := reg.CollectedIDs(KindCoin)
	if len(coins) != 2 || coins[0] != "c1" || coins[1] != "c2" {
		t.Fatalf("coins = %v", coins)
	}
	keys := reg.CollectedIDs(KindKey)
	if len(keys) != 1 || keys[0] != "k1" {
		t.Fatalf("keys = %v", keys)
	}
}
