// Package level defines the read-only level descriptors the client consumes
// to place entities and choose the starting coordinate.
package level

import (
	"fmt"

	"rollcube/client/internal/grid"
)

type ObjectType string

const (
	ObjectCoin ObjectType = "coin"
	ObjectKey  ObjectType = "key"
	ObjectGoal ObjectType = "goal"
)

// Object is one placeable entity on the starting face.
type Object struct {
	Type  ObjectType `json:"type"`
	ID    string     `json:"id"`
	Coord grid.Coord `json:"coord"`
}

// GravityAnchor marks an edge cell where the level designer expects a manual
// gravity shift; the presentation layer highlights these.
type GravityAnchor struct {
	Coord grid.Coord `json:"coord"`
	Edge  grid.Edge  `json:"edge"`
}

// Descriptor describes one level. The client never mutates it.
type Descriptor struct {
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Number         int             `json:"number"`
	GridSize       int             `json:"gridSize"`
	PlayerStart    grid.Coord      `json:"playerStart"`
	Objects        []Object        `json:"objects"`
	GravityAnchors []GravityAnchor `json:"gravityAnchors"`
}

// Validate fails closed: a descriptor that places anything out of bounds or
// reuses an object id is rejected before it can corrupt level state.
func (d Descriptor) Validate() error {
	if d.GridSize < 1 {
		return fmt.Errorf("level %q: grid size %d is invalid", d.Name, d.GridSize)
	}
	model := grid.NewModel(d.GridSize, 1)
	if !model.InBounds(d.PlayerStart) {
		return fmt.Errorf("level %q: player start %v is out of bounds", d.Name, d.PlayerStart)
	}
	seen := make(map[string]bool, len(d.Objects))
	for _, obj := range d.Objects {
		if obj.ID == "" {
			return fmt.Errorf("level %q: object of type %q has no id", d.Name, obj.Type)
		}
		if seen[obj.ID] {
			return fmt.Errorf("level %q: duplicate object id %q", d.Name, obj.ID)
		}
		seen[obj.ID] = true
		if !model.InBounds(obj.Coord) {
			return fmt.Errorf("level %q: object %q at %v is out of bounds", d.Name, obj.ID, obj.Coord)
		}
	}
	for _, anchor := range d.GravityAnchors {
		if !anchor.Edge.Valid() {
			return fmt.Errorf("level %q: anchor at %v names unknown edge %q", d.Name, anchor.Coord, anchor.Edge)
		}
		if !model.OnEdge(anchor.Coord, anchor.Edge) {
			return fmt.Errorf("level %q: anchor at %v does not touch edge %q", d.Name, anchor.Coord, anchor.Edge)
		}
	}
	return nil
}

// Sequence is the ordered level list for a campaign.
type Sequence []Descriptor

// ByNumber finds a level by its number.
func (s Sequence) ByNumber(number int) (Descriptor, bool) {
	for _, d := range s {
		if d.Number == number {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Validate checks every descriptor and the uniqueness of level numbers.
func (s Sequence) Validate() error {
	numbers := make(map[int]bool, len(s))
	for _, d := range s {
		if err := d.Validate(); err != nil {
			return err
		}
		if numbers[d.Number] {
			return fmt.Errorf("duplicate level number %d", d.Number)
		}
		numbers[d.Number] = true
	}
	return nil
}
