package posemath

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vector3 is a position or displacement in tracking space, in meters.
type Vector3 = r3.Vec

// Sub returns a - b.
func Sub(a, b Vector3) Vector3 {
	return r3.Sub(a, b)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vector3) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// SanitizeVector replaces NaN or Inf components with zero.
func SanitizeVector(v Vector3) Vector3 {
	return Vector3{X: Finite(v.X), Y: Finite(v.Y), Z: Finite(v.Z)}
}

// Finite returns v, or zero when v is NaN or Inf.
func Finite(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
