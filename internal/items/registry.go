// Package items tracks the collectible entities of the active level and
// reconciles them against authoritative collected-item sets.
package items

import (
	"context"
	"sort"

	"rollcube/client/internal/grid"
	"rollcube/client/internal/level"
	"rollcube/client/logging"
	"rollcube/client/logging/gameplay"
)

type Kind string

const (
	KindCoin Kind = "coin"
	KindKey  Kind = "key"
)

const (
	coinScore = 10
	keyScore  = 50
)

const (
	metricItemsCollected  = "items_collected_total"
	metricItemsReconciled = "items_reconciled_total"
)

// Item is one collectible still present in the scene.
type Item struct {
	Kind  Kind
	ID    string
	Coord grid.Coord
}

// CollectedSets is the authoritative collected-identifier snapshot shape.
type CollectedSets struct {
	Coins []string `json:"coins"`
	Keys  []string `json:"keys"`
}

// Registry owns the remaining collectibles. Local collection is a gameplay
// event with side effects; removal driven by the authority is a passive
// correction with none.
type Registry struct {
	items     map[string]Item
	collected map[string]bool
	score     int
	pub       logging.Publisher
	metrics   *logging.Metrics
}

func NewRegistry(pub logging.Publisher, metrics *logging.Metrics) *Registry {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Registry{
		items:     make(map[string]Item),
		collected: make(map[string]bool),
		pub:       pub,
		metrics:   metrics,
	}
}

func itemKey(kind Kind, id string) string {
	return string(kind) + "/" + id
}

// Place resets the registry from a level descriptor. Score carries across
// levels; the collected set does not.
func (r *Registry) Place(desc level.Descriptor) {
	r.items = make(map[string]Item)
	r.collected = make(map[string]bool)
	for _, obj := range desc.Objects {
		var kind Kind
		switch obj.Type {
		case level.ObjectCoin:
			kind = KindCoin
		case level.ObjectKey:
			kind = KindKey
		default:
			continue
		}
		r.items[itemKey(kind, obj.ID)] = Item{Kind: kind, ID: obj.ID, Coord: obj.Coord}
	}
}

// At returns the collectible occupying a cell, if any.
func (r *Registry) At(coord grid.Coord) (Item, bool) {
	for _, item := range r.items {
		if item.Coord == coord {
			return item, true
		}
	}
	return Item{}, false
}

// Collect removes an item because the local player picked it up. This is the
// gameplay path: it credits score and publishes the collection event.
func (r *Registry) Collect(ctx context.Context, kind Kind, id string, tick uint64, actor logging.EntityRef) (Item, bool) {
	key := itemKey(kind, id)
	item, ok := r.items[key]
	if !ok {
		return Item{}, false
	}
	delete(r.items, key)
	r.collected[key] = true

	switch kind {
	case KindCoin:
		r.score += coinScore
	case KindKey:
		r.score += keyScore
	}
	r.metrics.Add(metricItemsCollected, 1)
	gameplay.ItemCollected(ctx, r.pub, tick, actor, gameplay.ItemCollectedPayload{
		ItemType: string(kind),
		ItemID:   id,
		Score:    r.score,
	})
	return item, true
}

// RemoveRemote removes an item a peer collected. No score, no event; the
// peer's client owns those.
func (r *Registry) RemoveRemote(kind Kind, id string) bool {
	key := itemKey(kind, id)
	if _, ok := r.items[key]; !ok {
		return false
	}
	delete(r.items, key)
	r.collected[key] = true
	return true
}

// Reconcile applies an authoritative collected-set snapshot: every locally
// present entity whose id appears in the sets is removed with none of the
// collection side effects. Applying the same snapshot twice removes nothing
// the second time and never double-counts.
func (r *Registry) Reconcile(sets CollectedSets) int {
	removed := 0
	remove := func(kind Kind, ids []string) {
		for _, id := range ids {
			key := itemKey(kind, id)
			if _, ok := r.items[key]; ok {
				delete(r.items, key)
				removed++
			}
			r.collected[key] = true
		}
	}
	remove(KindCoin, sets.Coins)
	remove(KindKey, sets.Keys)
	if removed > 0 {
		r.metrics.Add(metricItemsReconciled, uint64(removed))
	}
	return removed
}

// Remaining lists the items still in the scene, ordered for determinism.
func (r *Registry) Remaining() []Item {
	out := make([]Item, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// CollectedIDs reports which ids of a kind are gone, for outbound snapshots.
func (r *Registry) CollectedIDs(kind Kind) []string {
	prefix := string(kind) + "/"
	out := make([]string, 0)
	for key := range r.collected {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, key[len(prefix):])
		}
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Score() int { return r.score }

func (r *Registry) Count() int { return len(r.items) }
