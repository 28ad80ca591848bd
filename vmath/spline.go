package vmath

// Catmull-Rom interpolation over four control points
// The curve passes through p1 at u=0 and p2 at u=1, with C1 continuity
// across consecutive segments sharing control points

// CatmullRom evaluates the segment p1→p2 at local fraction u in [0,1]
func CatmullRom(p0, p1, p2, p3 Vec3, u float64) Vec3 {
	u2 := u * u
	u3 := u2 * u

	c0 := -0.5*u3 + u2 - 0.5*u
	c1 := 1.5*u3 - 2.5*u2 + 1.0
	c2 := -1.5*u3 + 2.0*u2 + 0.5*u
	c3 := 0.5*u3 - 0.5*u2

	return Vec3{
		c0*p0.X + c1*p1.X + c2*p2.X + c3*p3.X,
		c0*p0.Y + c1*p1.Y + c2*p2.Y + c3*p3.Y,
		c0*p0.Z + c1*p1.Z + c2*p2.Z + c3*p3.Z,
	}
}

// CatmullRomDerivative evaluates d/du of the segment p1→p2 at u
// The tangent drives facing, so only its direction matters
func CatmullRomDerivative(p0, p1, p2, p3 Vec3, u float64) Vec3 {
	u2 := u * u

	c0 := -1.5*u2 + 2.0*u - 0.5
	c1 := 4.5*u2 - 5.0*u
	c2 := -4.5*u2 + 4.0*u + 0.5
	c3 := 1.5*u2 - u

	return Vec3{
		c0*p0.X + c1*p1.X + c2*p2.X + c3*p3.X,
		c0*p0.Y + c1*p1.Y + c2*p2.Y + c3*p3.Y,
		c0*p0.Z + c1*p1.Z + c2*p2.Z + c3*p3.Z,
	}
}
