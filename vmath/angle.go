package vmath

import "math"

const twoPi = 2 * math.Pi

// NormalizeOrientation wraps an angle into [0, 2π)
func NormalizeOrientation(o float64) float64 {
	o = math.Mod(o, twoPi)
	if o < 0 {
		o += twoPi
	}
	return o
}

// OrientationDelta returns the absolute smallest difference between two
// orientations, in [0, π]
func OrientationDelta(a, b float64) float64 {
	d := math.Mod(a-b, twoPi)
	if d < 0 {
		d += twoPi
	}
	if d > math.Pi {
		d = twoPi - d
	}
	return d
}

// FacingOf derives a facing angle from a direction vector on the XY plane
// Degenerate (vertical or zero) directions fall back to fallback
func FacingOf(dir Vec3, fallback float64) float64 {
	if dir.X == 0 && dir.Y == 0 {
		return fallback
	}
	return NormalizeOrientation(math.Atan2(dir.Y, dir.X))
}
