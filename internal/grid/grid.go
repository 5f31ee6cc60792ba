// Package grid models one face of the cube world as an N×N board and decides
// when a movement attempt leaves it for an adjacent face.
package grid

import "math"

// Coord addresses a single cell. Both components live in [0, Size-1].
type Coord struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// Model converts between cell coordinates and positions on the active face.
// It is pure; two models with equal Size and CellSize behave identically.
type Model struct {
	Size     int
	CellSize float64
}

func NewModel(size int, cellSize float64) Model {
	if size < 1 {
		size = 1
	}
	if cellSize <= 0 {
		cellSize = 1
	}
	return Model{Size: size, CellSize: cellSize}
}

// ToWorld returns the center of the cell on the face plane. The grid is
// centered on the origin so face rotations pivot correctly.
func (m Model) ToWorld(c Coord) Vec3 {
	half := float64(m.Size-1) / 2
	return Vec3{
		X: (float64(c.X) - half) * m.CellSize,
		Y: 0,
		Z: (float64(c.Z) - half) * m.CellSize,
	}
}

// ToGrid inverts ToWorld, rounding to the nearest cell center.
func (m Model) ToGrid(p Vec3) Coord {
	half := float64(m.Size-1) / 2
	return Coord{
		X: int(math.Round(p.X/m.CellSize + half)),
		Z: int(math.Round(p.Z/m.CellSize + half)),
	}
}

func (m Model) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < m.Size && c.Z >= 0 && c.Z < m.Size
}

// EdgeOf reports whether the cell sits on the outer border and which edge.
// Corner cells report the edge with north/south taking precedence, matching
// the order transitions are checked in.
func (m Model) EdgeOf(c Coord) (Edge, bool) {
	if !m.InBounds(c) {
		return "", false
	}
	switch {
	case c.Z == 0:
		return EdgeNorth, true
	case c.Z == m.Size-1:
		return EdgeSouth, true
	case c.X == 0:
		return EdgeWest, true
	case c.X == m.Size-1:
		return EdgeEast, true
	}
	return "", false
}

// OnEdge reports whether the cell touches the named edge, which corners do
// for two edges at once.
func (m Model) OnEdge(c Coord, edge Edge) bool {
	if !m.InBounds(c) {
		return false
	}
	switch edge {
	case EdgeNorth:
		return c.Z == 0
	case EdgeSouth:
		return c.Z == m.Size-1
	case EdgeWest:
		return c.X == 0
	case EdgeEast:
		return c.X == m.Size-1
	}
	return false
}
