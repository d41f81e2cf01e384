package systems

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// epsilon is the length below which a vector is treated as zero.
const epsilon = 0.001

// forwardAxis is the local facing direction of every actor.
var forwardAxis = r3.Vec{Z: 1}

// clampInt clamps v to [minVal, maxVal].
func clampInt(v, minVal, maxVal int) int {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clampFloat clamps v to [minVal, maxVal].
func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// planar drops the vertical component.
func planar(v r3.Vec) r3.Vec {
	return r3.Vec{X: v.X, Z: v.Z}
}

// planarDistSq returns the squared XZ distance between a and b.
func planarDistSq(a, b r3.Vec) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return dx*dx + dz*dz
}

// normalizeOr returns v scaled to unit length, or fallback if v is near zero.
func normalizeOr(v, fallback r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n <= epsilon {
		return fallback
	}
	return r3.Scale(1/n, v)
}

// perpendicular returns d rotated a quarter turn about +Y.
func perpendicular(d r3.Vec) r3.Vec {
	return r3.Vec{X: -d.Z, Z: d.X}
}

// yawRotation returns the rotation of angle radians about +Y.
func yawRotation(angle float64) quat.Number {
	s, c := math.Sincos(angle / 2)
	return quat.Number{Real: c, Jmag: s}
}

// yawToward returns the yaw that faces dir, measured from +Z toward +X.
func yawToward(dir r3.Vec) float64 {
	return math.Atan2(dir.X, dir.Z)
}

// rotate applies the unit quaternion q to v.
func rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// quatDot returns the 4D dot product of a and b.
func quatDot(a, b quat.Number) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}

// normalizeQuat scales q to unit norm. A degenerate q becomes the identity.
func normalizeQuat(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n < 1e-12 || math.IsNaN(n) {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}

// slerp spherically interpolates from a to b by t in [0, 1].
// Callers pick the sign of b; no shortest-path flip happens here.
func slerp(a, b quat.Number, t float64) quat.Number {
	d := clampFloat(quatDot(a, b), -1, 1)
	if d > 0.9995 {
		// Nearly parallel: linear blend is accurate and avoids dividing by ~0
		return normalizeQuat(quat.Add(quat.Scale(1-t, a), quat.Scale(t, b)))
	}
	theta := math.Acos(d)
	sinTheta := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sinTheta
	wb := math.Sin(t*theta) / sinTheta
	return quat.Add(quat.Scale(wa, a), quat.Scale(wb, b))
}

// turnToward rotates current toward target with exponential smoothing at rate
// per second, taking the shorter arc. The result is unit length.
func turnToward(current, target quat.Number, rate, dt float64) quat.Number {
	if quatDot(current, target) < 0 {
		target = quat.Scale(-1, target)
	}
	blend := 1 - math.Exp(-rate*dt)
	return normalizeQuat(slerp(current, target, blend))
}

// facing returns the planar unit forward of rotation q, or +Z if degenerate.
func facing(q quat.Number) r3.Vec {
	return normalizeOr(planar(rotate(q, forwardAxis)), forwardAxis)
}

// Facing returns the planar forward vector of an orientation.
func Facing(q quat.Number) r3.Vec {
	return facing(q)
}
