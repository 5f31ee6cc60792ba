package grid

// Transition describes a movement attempt that crosses the active face's
// border onto the adjacent cube face.
type Transition struct {
	Edge        Edge
	Destination Coord
}

// Resolver decides whether an out-of-bounds movement attempt is a legal wrap
// and where the player lands on the next face.
type Resolver struct {
	model Model
}

func NewResolver(model Model) Resolver {
	return Resolver{model: model}
}

// DetectTransition inspects a single-step movement delta from coord. It
// reports a transition only when the delta pushes past the border the player
// already touches; any other delta — including one from an interior cell — is
// a plain rejection, not an error.
func (r Resolver) DetectTransition(coord Coord, dx, dz int) (Transition, bool) {
	if !r.model.InBounds(coord) {
		return Transition{}, false
	}
	for _, edge := range []Edge{EdgeNorth, EdgeSouth, EdgeEast, EdgeWest} {
		ex, ez := edge.Delta()
		if dx != ex || dz != ez || !r.model.OnEdge(coord, edge) {
			continue
		}
		return Transition{Edge: edge, Destination: r.ResolveDestination(edge, coord)}, true
	}
	return Transition{}, false
}

// ResolveDestination maps a coordinate across the named edge onto the
// adjacent face. Each direction's map is an involution on the board, so
// chaining it four times — one full trip around the cube through that edge —
// lands back on the starting coordinate.
func (r Resolver) ResolveDestination(edge Edge, coord Coord) Coord {
	n := r.model.Size - 1
	switch edge {
	case EdgeNorth:
		return Coord{X: coord.X, Z: n - coord.Z}
	case EdgeSouth:
		return Coord{X: coord.X, Z: n - coord.Z}
	case EdgeEast:
		return Coord{X: n - coord.X, Z: coord.Z}
	case EdgeWest:
		return Coord{X: n - coord.X, Z: coord.Z}
	}
	return coord
}
