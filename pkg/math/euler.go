package math

import "math"

// Euler holds rotation angles in radians, applied in intrinsic XYZ order
// (the same convention as most web 3D engines).
type Euler struct {
	X, Y, Z float32
}

// IsZero reports whether all angles are zero.
func (e Euler) IsZero() bool {
	return e.X == 0 && e.Y == 0 && e.Z == 0
}

// QuatFromEuler converts XYZ Euler angles to a quaternion.
// The result equals qx * qy * qz.
func QuatFromEuler(e Euler) Quat {
	s1, c1 := math.Sincos(float64(e.X) / 2)
	s2, c2 := math.Sincos(float64(e.Y) / 2)
	s3, c3 := math.Sincos(float64(e.Z) / 2)

	return Quat{
		X: float32(s1*c2*c3 + c1*s2*s3),
		Y: float32(c1*s2*c3 - s1*c2*s3),
		Z: float32(c1*c2*s3 + s1*s2*c3),
		W: float32(c1*c2*c3 - s1*s2*s3),
	}
}

// ToEuler converts the quaternion back to XYZ Euler angles.
// Near gimbal lock (|Y| = 90°) the Z angle is folded into X.
func (q Quat) ToEuler() Euler {
	q = q.Normalize()
	x, y, z, w := float64(q.X), float64(q.Y), float64(q.Z), float64(q.W)

	m11 := 1 - 2*(y*y+z*z)
	m12 := 2 * (x*y - z*w)
	m13 := 2 * (x*z + y*w)
	m22 := 1 - 2*(x*x+z*z)
	m23 := 2 * (y*z - x*w)
	m32 := 2 * (y*z + x*w)
	m33 := 1 - 2*(x*x+y*y)

	var e Euler
	e.Y = float32(math.Asin(clamp64(m13, -1, 1)))
	if math.Abs(m13) < 0.9999999 {
		e.X = float32(math.Atan2(-m23, m33))
		e.Z = float32(math.Atan2(-m12, m11))
	} else {
		e.X = float32(math.Atan2(m32, m22))
		e.Z = 0
	}
	return e
}

func clamp64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
