package grid

import "math"

// Vec3 is a right-handed world-space vector. Rotations are expressed in
// degrees to match the transform groups the renderer exposes.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Axis selects a world axis for rotations.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return "?"
}

func (a Axis) Unit() Vec3 {
	switch a {
	case AxisX:
		return Vec3{X: 1}
	case AxisY:
		return Vec3{Y: 1}
	case AxisZ:
		return Vec3{Z: 1}
	}
	return Vec3{}
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Neg() Vec3 { return Vec3{-v.X, -v.Y, -v.Z} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Length() float64 { return math.Sqrt(v.Dot(v)) }

// RotatedDeg rotates v by degrees about the given world axis.
func (v Vec3) RotatedDeg(axis Axis, degrees float64) Vec3 {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	switch axis {
	case AxisX:
		return Vec3{v.X, v.Y*cos - v.Z*sin, v.Y*sin + v.Z*cos}
	case AxisY:
		return Vec3{v.X*cos + v.Z*sin, v.Y, -v.X*sin + v.Z*cos}
	case AxisZ:
		return Vec3{v.X*cos - v.Y*sin, v.X*sin + v.Y*cos, v.Z}
	}
	return v
}

// NearestAxisUnit snaps the vector to the axis-aligned unit vector it points
// closest to. Gravity must stay axis-aligned, so float drift accumulated over
// many incremental rotations is removed here.
func (v Vec3) NearestAxisUnit() Vec3 {
	ax, ay, az := math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)
	switch {
	case ax >= ay && ax >= az:
		return Vec3{X: math.Copysign(1, v.X)}
	case ay >= az:
		return Vec3{Y: math.Copysign(1, v.Y)}
	default:
		return Vec3{Z: math.Copysign(1, v.Z)}
	}
}

// IsAxisUnit reports whether the vector is an axis-aligned unit vector within
// the given tolerance.
func (v Vec3) IsAxisUnit(epsilon float64) bool {
	snapped := v.NearestAxisUnit()
	return v.ApproxEqual(snapped, epsilon)
}

func (v Vec3) ApproxEqual(o Vec3, epsilon float64) bool {
	return math.Abs(v.X-o.X) <= epsilon &&
		math.Abs(v.Y-o.Y) <= epsilon &&
		math.Abs(v.Z-o.Z) <= epsilon
}
