// Package posemath provides the quaternion and vector algebra used to turn
// tracked device transforms into head-relative hand poses.
package posemath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is a rotation quaternion with scalar part W.
type Quaternion struct {
	W float64
	X float64
	Y float64
	Z float64
}

// Identity returns the rotation that leaves every vector unchanged.
func Identity() Quaternion {
	return Quaternion{W: 1}
}

// FromRotationMatrix builds a quaternion from a 3x3 rotation matrix.
// Each component magnitude comes from the matrix diagonal and the vector
// signs are copied from the antisymmetric off-diagonal differences, so the
// result is well defined for any proper rotation and never NaN.
func FromRotationMatrix(m [3][3]float64) Quaternion {
	q := Quaternion{
		W: math.Sqrt(math.Max(0, 1+m[0][0]+m[1][1]+m[2][2])) / 2,
		X: math.Sqrt(math.Max(0, 1+m[0][0]-m[1][1]-m[2][2])) / 2,
		Y: math.Sqrt(math.Max(0, 1-m[0][0]+m[1][1]-m[2][2])) / 2,
		Z: math.Sqrt(math.Max(0, 1-m[0][0]-m[1][1]+m[2][2])) / 2,
	}
	q.X = math.Copysign(q.X, m[2][1]-m[1][2])
	q.Y = math.Copysign(q.Y, m[0][2]-m[2][0])
	q.Z = math.Copysign(q.Z, m[1][0]-m[0][1])
	return q
}

// Conjugate returns q with its vector part negated. For a unit quaternion
// this is the inverse rotation.
func (q Quaternion) Conjugate() Quaternion {
	return fromNumber(quat.Conj(q.number()))
}

// Multiply returns the Hamilton product q*r, which applies r first and then q.
func (q Quaternion) Multiply(r Quaternion) Quaternion {
	return fromNumber(quat.Mul(q.number(), r.number()))
}

// Rotate rotates v by q, computed as q * (0, v) * conj(q).
func (q Quaternion) Rotate(v Vector3) Vector3 {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q.number(), p), quat.Conj(q.number()))
	return Vector3{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// Norm returns the magnitude of q.
func (q Quaternion) Norm() float64 {
	return quat.Abs(q.number())
}

// Normalize returns q scaled to unit length. A zero or non-finite
// quaternion normalizes to the identity.
func (q Quaternion) Normalize() Quaternion {
	n := q.Norm()
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return Identity()
	}
	return fromNumber(quat.Scale(1/n, q.number()))
}

// Sanitize replaces a quaternion holding NaN or Inf with the identity.
func (q Quaternion) Sanitize() Quaternion {
	if !isFinite(q.W) || !isFinite(q.X) || !isFinite(q.Y) || !isFinite(q.Z) {
		return Identity()
	}
	return q
}

func (q Quaternion) number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

func fromNumber(n quat.Number) Quaternion {
	return Quaternion{W: n.Real, X: n.Imag, Y: n.Jmag, Z: n.Kmag}
}
