package posemath

import "math"

// Euler holds rotation angles in degrees for the tracking frame (+Y up):
// Pitch about X, Yaw about Y and Roll about Z.
type Euler struct {
	Pitch float64
	Yaw   float64
	Roll  float64
}

// ToEuler decomposes q as yaw, then pitch, then roll. At the pitch
// singularity the pitch is clamped to ±90 degrees; yaw and roll remain
// finite.
func (q Quaternion) ToEuler() Euler {
	w, x, y, z := q.W, q.X, q.Y, q.Z

	sinPitch := 2 * (w*x - y*z)
	var pitch float64
	if math.Abs(sinPitch) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinPitch)
	} else {
		pitch = math.Asin(sinPitch)
	}

	yaw := math.Atan2(2*(x*z+w*y), 1-2*(x*x+y*y))
	roll := math.Atan2(2*(x*y+w*z), 1-2*(x*x+z*z))

	return Euler{
		Pitch: degrees(pitch),
		Yaw:   degrees(yaw),
		Roll:  degrees(roll),
	}
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
