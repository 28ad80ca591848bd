package vmath

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestRotateXY(t *testing.T) {
	tests := []struct {
		name   string
		x, y   float64
		angle  float64
		wx, wy float64
	}{
		{"No rotation", 1, 0, 0, 1, 0},
		{"Quarter turn", 1, 0, math.Pi / 2, 0, 1},
		{"Half turn", 1, 0, math.Pi, -1, 0},
		{"Quarter turn of y axis", 0, 1, math.Pi / 2, -1, 0},
		{"Full turn", 3, 4, 2 * math.Pi, 3, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rx, ry := RotateXY(tt.x, tt.y, tt.angle)
			if !almostEqual(rx, tt.wx) || !almostEqual(ry, tt.wy) {
				t.Errorf("Expected (%v, %v), got (%v, %v)", tt.wx, tt.wy, rx, ry)
			}
		})
	}
}

func TestRotateXYInverseRoundTrip(t *testing.T) {
	angles := []float64{0, 0.3, math.Pi / 3, math.Pi, 4.7, 2 * math.Pi}
	points := []struct{ x, y float64 }{
		{0, 0}, {1, 0}, {-3.5, 7.2}, {50, -50},
	}

	for _, angle := range angles {
		for _, p := range points {
			rx, ry := RotateXY(p.x, p.y, angle)
			bx, by := RotateXYInverse(rx, ry, angle)
			if !almostEqual(bx, p.x) || !almostEqual(by, p.y) {
				t.Errorf("Round trip at angle %v: expected (%v, %v), got (%v, %v)",
					angle, p.x, p.y, bx, by)
			}
		}
	}
}

func TestNormalizeOrientation(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"Zero", 0, 0},
		{"In range", 1.5, 1.5},
		{"Exactly two pi", 2 * math.Pi, 0},
		{"Above two pi", 2*math.Pi + 0.5, 0.5},
		{"Negative", -0.5, 2*math.Pi - 0.5},
		{"Large negative", -5 * math.Pi, math.Pi},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeOrientation(tt.in)
			if !almostEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
			if got < 0 || got >= 2*math.Pi {
				t.Errorf("Result %v outside [0, 2π)", got)
			}
		})
	}
}

func TestOrientationDelta(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"Identical", 1.0, 1.0, 0},
		{"Simple", 1.0, 1.5, 0.5},
		{"Across wrap", 0.1, 2*math.Pi - 0.1, 0.2},
		{"Opposite", 0, math.Pi, math.Pi},
		{"Symmetric", 2.0, 0.5, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OrientationDelta(tt.a, tt.b); !almostEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
			if got := OrientationDelta(tt.b, tt.a); !almostEqual(got, tt.want) {
				t.Errorf("Swapped args: expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFacingOf(t *testing.T) {
	tests := []struct {
		name     string
		dir      Vec3
		fallback float64
		want     float64
	}{
		{"East", Vec3{X: 1}, 9, 0},
		{"North", Vec3{Y: 1}, 9, math.Pi / 2},
		{"West", Vec3{X: -1}, 9, math.Pi},
		{"Vertical only falls back", Vec3{Z: 5}, 1.25, 1.25},
		{"Zero falls back", Vec3{}, 0.75, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FacingOf(tt.dir, tt.fallback); !almostEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCatmullRomEndpoints(t *testing.T) {
	p0 := Vec3{X: -1, Y: -1}
	p1 := Vec3{X: 0, Y: 0}
	p2 := Vec3{X: 10, Y: 5, Z: 2}
	p3 := Vec3{X: 20, Y: 0}

	at0 := CatmullRom(p0, p1, p2, p3, 0)
	if !almostEqual(at0.X, p1.X) || !almostEqual(at0.Y, p1.Y) || !almostEqual(at0.Z, p1.Z) {
		t.Errorf("Expected curve to pass through p1 at u=0, got %+v", at0)
	}

	at1 := CatmullRom(p0, p1, p2, p3, 1)
	if !almostEqual(at1.X, p2.X) || !almostEqual(at1.Y, p2.Y) || !almostEqual(at1.Z, p2.Z) {
		t.Errorf("Expected curve to pass through p2 at u=1, got %+v", at1)
	}
}

func TestCatmullRomStraightLine(t *testing.T) {
	// Collinear equally spaced control points degenerate to linear motion
	p0 := Vec3{X: 0}
	p1 := Vec3{X: 10}
	p2 := Vec3{X: 20}
	p3 := Vec3{X: 30}

	for _, u := range []float64{0, 0.25, 0.5, 0.75, 1} {
		pos := CatmullRom(p0, p1, p2, p3, u)
		want := 10 + 10*u
		if !almostEqual(pos.X, want) || !almostEqual(pos.Y, 0) {
			t.Errorf("At u=%v: expected x=%v, got %+v", u, want, pos)
		}

		der := CatmullRomDerivative(p0, p1, p2, p3, u)
		if der.X <= 0 {
			t.Errorf("At u=%v: expected positive x tangent, got %+v", u, der)
		}
	}
}

func TestV3DistManhattan(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: -1, Y: 5, Z: 3}
	if got := V3DistManhattan(a, b); !almostEqual(got, 5) {
		t.Errorf("Expected 5, got %v", got)
	}
}

func TestV3Normalize(t *testing.T) {
	v := V3Normalize(Vec3{X: 3, Y: 4})
	if !almostEqual(V3Mag(v), 1) {
		t.Errorf("Expected unit magnitude, got %v", V3Mag(v))
	}
	if zero := V3Normalize(Vec3{}); zero != (Vec3{}) {
		t.Errorf("Expected zero vector to stay zero, got %+v", zero)
	}
}
