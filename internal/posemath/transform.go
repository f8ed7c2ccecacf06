package posemath

// Transform3x4 is a row-major rigid transform as reported by the tracking
// runtime: the left 3x3 block is the rotation and the last column is the
// translation.
type Transform3x4 [3][4]float64

// TransformFrom builds a transform from an orientation and a position.
func TransformFrom(q Quaternion, p Vector3) Transform3x4 {
	q = q.Normalize()
	w, x, y, z := q.W, q.X, q.Y, q.Z
	return Transform3x4{
		{1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y), p.X},
		{2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x), p.Y},
		{2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y), p.Z},
	}
}

// Rotation returns the 3x3 rotation block.
func (t Transform3x4) Rotation() [3][3]float64 {
	var m [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = t[i][j]
		}
	}
	return m
}

// Position returns the translation column.
func (t Transform3x4) Position() Vector3 {
	return Vector3{X: t[0][3], Y: t[1][3], Z: t[2][3]}
}

// Quaternion returns the orientation of the transform.
func (t Transform3x4) Quaternion() Quaternion {
	return FromRotationMatrix(t.Rotation())
}
