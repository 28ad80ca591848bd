package vmath

import "math"

// Vec3 is a 3D vector in world units (float64)
// Z is vertical; facing rotations act on the XY plane
type Vec3 struct {
	X, Y, Z float64
}

func V3Add(a, b Vec3) Vec3 {
	return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func V3Sub(a, b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func V3Scale(v Vec3, s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func V3Dot(a, b Vec3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func V3MagSq(v Vec3) float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func V3Mag(v Vec3) float64 {
	return math.Sqrt(V3MagSq(v))
}

// V3Dist returns the euclidean distance between two points
func V3Dist(a, b Vec3) float64 {
	return V3Mag(V3Sub(a, b))
}

// V3DistManhattan returns |dx|+|dy|+|dz|
// Used for cheap "has it moved enough" checks on the republish cadence
func V3DistManhattan(a, b Vec3) float64 {
	return math.Abs(a.X-b.X) + math.Abs(a.Y-b.Y) + math.Abs(a.Z-b.Z)
}

// V3Lerp interpolates linearly between a and b at t in [0,1]
func V3Lerp(a, b Vec3, t float64) Vec3 {
	return Vec3{
		a.X + (b.X-a.X)*t,
		a.Y + (b.Y-a.Y)*t,
		a.Z + (b.Z-a.Z)*t,
	}
}

// V3Normalize returns the unit vector, zero-safe
func V3Normalize(v Vec3) Vec3 {
	mag := V3Mag(v)
	if mag == 0 {
		return Vec3{}
	}
	inv := 1.0 / mag
	return Vec3{v.X * inv, v.Y * inv, v.Z * inv}
}

// RotateXY rotates (x, y) by angle radians counter-clockwise
func RotateXY(x, y, angle float64) (rx, ry float64) {
	sin, cos := math.Sincos(angle)
	rx = x*cos - y*sin
	ry = x*sin + y*cos
	return rx, ry
}

// RotateXYInverse rotates (x, y) by -angle radians
// Inverse of RotateXY, recovers a local offset from a world offset
func RotateXYInverse(x, y, angle float64) (lx, ly float64) {
	return RotateXY(x, y, -angle)
}
