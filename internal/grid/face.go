package grid

// Face identifies one of the six cube faces by its position in the cube's
// canonical orientation, before any rolls.
type Face string

const (
	FaceDown  Face = "down"
	FaceUp    Face = "up"
	FaceNorth Face = "north"
	FaceSouth Face = "south"
	FaceEast  Face = "east"
	FaceWest  Face = "west"
)

func (f Face) Opposite() Face {
	switch f {
	case FaceDown:
		return FaceUp
	case FaceUp:
		return FaceDown
	case FaceNorth:
		return FaceSouth
	case FaceSouth:
		return FaceNorth
	case FaceEast:
		return FaceWest
	case FaceWest:
		return FaceEast
	}
	return f
}

// Orientation is the discrete rolling-cube automaton. It tracks which face is
// the floor plus which faces currently lie to grid-north and grid-east, which
// fully determines the cube's orientation without accumulating float error.
type Orientation struct {
	Floor Face
	North Face
	East  Face
}

// CanonicalOrientation is the orientation every level starts in.
func CanonicalOrientation() Orientation {
	return Orientation{Floor: FaceDown, North: FaceNorth, East: FaceEast}
}

// Roll crosses the named edge and returns the orientation with the adjacent
// face as the new floor. Four rolls over the same edge return to the start.
func (o Orientation) Roll(edge Edge) Orientation {
	switch edge {
	case EdgeNorth:
		return Orientation{Floor: o.North, North: o.Floor.Opposite(), East: o.East}
	case EdgeSouth:
		return Orientation{Floor: o.North.Opposite(), North: o.Floor, East: o.East}
	case EdgeEast:
		return Orientation{Floor: o.East, North: o.North, East: o.Floor.Opposite()}
	case EdgeWest:
		return Orientation{Floor: o.East.Opposite(), North: o.North, East: o.Floor}
	}
	return o
}

// Valid reports whether the three tracked faces are mutually perpendicular,
// i.e. none repeats and no pair is opposite.
func (o Orientation) Valid() bool {
	if o.Floor == o.North || o.Floor == o.East || o.North == o.East {
		return false
	}
	if o.Floor == o.North.Opposite() || o.Floor == o.East.Opposite() || o.North == o.East.Opposite() {
		return false
	}
	return true
}
