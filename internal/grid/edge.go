package grid

// Edge names one of the four borders of the active face.
type Edge string

const (
	EdgeNorth Edge = "north"
	EdgeSouth Edge = "south"
	EdgeEast  Edge = "east"
	EdgeWest  Edge = "west"
)

func (e Edge) Valid() bool {
	switch e {
	case EdgeNorth, EdgeSouth, EdgeEast, EdgeWest:
		return true
	}
	return false
}

func (e Edge) Opposite() Edge {
	switch e {
	case EdgeNorth:
		return EdgeSouth
	case EdgeSouth:
		return EdgeNorth
	case EdgeEast:
		return EdgeWest
	case EdgeWest:
		return EdgeEast
	}
	return e
}

// Delta returns the unit grid step that walks toward the edge.
func (e Edge) Delta() (dx, dz int) {
	switch e {
	case EdgeNorth:
		return 0, -1
	case EdgeSouth:
		return 0, 1
	case EdgeEast:
		return 1, 0
	case EdgeWest:
		return -1, 0
	}
	return 0, 0
}

// RotationAxis returns the world axis and sign of the 90° shift that rolls
// the world over this edge. Rolling north pitches about X, rolling east rolls
// about Z, with signs chosen so the adjacent face rotates up into the floor.
func (e Edge) RotationAxis() (axis Axis, angle float64) {
	const quarter = 90
	switch e {
	case EdgeNorth:
		return AxisX, -quarter
	case EdgeSouth:
		return AxisX, quarter
	case EdgeEast:
		return AxisZ, -quarter
	case EdgeWest:
		return AxisZ, quarter
	}
	return AxisX, 0
}
