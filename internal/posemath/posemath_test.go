package posemath

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func axisAngle(x, y, z, deg float64) Quaternion {
	half := deg * math.Pi / 360
	s := math.Sin(half)
	return Quaternion{W: math.Cos(half), X: x * s, Y: y * s, Z: z * s}
}

func TestFromRotationMatrix_Identity(t *testing.T) {
	m := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	got := FromRotationMatrix(m)
	if diff := cmp.Diff(Identity(), got, approx); diff != "" {
		t.Errorf("identity matrix mismatch (-want +got):\n%s", diff)
	}
}

func TestFromRotationMatrix_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		q    Quaternion
	}{
		{"yaw 90", axisAngle(0, 1, 0, 90)},
		{"pitch -45", axisAngle(1, 0, 0, -45)},
		{"roll 170", axisAngle(0, 0, 1, 170)},
		{"oblique", axisAngle(1/math.Sqrt(3), 1/math.Sqrt(3), 1/math.Sqrt(3), 120)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := TransformFrom(tt.q, Vector3{X: 1, Y: 2, Z: 3})
			got := tr.Quaternion()

			// q and -q are the same rotation; the matrix recovery picks w >= 0.
			want := tt.q
			if want.W < 0 {
				want = Quaternion{W: -want.W, X: -want.X, Y: -want.Y, Z: -want.Z}
			}
			if diff := cmp.Diff(want, got, approx); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(Vector3{X: 1, Y: 2, Z: 3}, tr.Position(), approx); diff != "" {
				t.Errorf("position mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFromRotationMatrix_NeverNaN(t *testing.T) {
	// Slightly non-orthonormal input pushes some radicands below zero.
	m := [3][3]float64{{1.0000001, 0, 0}, {0, 1.0000001, 0}, {0, 0, -1.0000001}}
	q := FromRotationMatrix(m)
	for _, v := range []float64{q.W, q.X, q.Y, q.Z} {
		if math.IsNaN(v) {
			t.Fatalf("expected finite components, got %+v", q)
		}
	}
}

func TestQuaternion_Rotate(t *testing.T) {
	q := axisAngle(0, 0, 1, 90)
	got := q.Rotate(Vector3{X: 1})
	if diff := cmp.Diff(Vector3{Y: 1}, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("rotate mismatch (-want +got):\n%s", diff)
	}
}

func TestQuaternion_MultiplyConjugate(t *testing.T) {
	q := axisAngle(0, 1, 0, 37)
	got := q.Conjugate().Multiply(q)
	if diff := cmp.Diff(Identity(), got, approx); diff != "" {
		t.Errorf("conj(q)*q should be identity (-want +got):\n%s", diff)
	}

	// Multiply composes rotations: 30 then 60 about the same axis is 90.
	composed := axisAngle(0, 1, 0, 60).Multiply(axisAngle(0, 1, 0, 30))
	if diff := cmp.Diff(axisAngle(0, 1, 0, 90), composed, approx); diff != "" {
		t.Errorf("composition mismatch (-want +got):\n%s", diff)
	}
}

var unitRotations = []struct {
	name string
	q    Quaternion
}{
	{"identity", Identity()},
	{"yaw 90", axisAngle(0, 1, 0, 90)},
	{"pitch -45", axisAngle(1, 0, 0, -45)},
	{"roll 170", axisAngle(0, 0, 1, 170)},
	{"oblique 120", axisAngle(1/math.Sqrt(3), 1/math.Sqrt(3), 1/math.Sqrt(3), 120)},
	{"oblique -73", axisAngle(2/3.0, -1/3.0, 2/3.0, -73)},
	{"near flip", axisAngle(0, 1/math.Sqrt2, 1/math.Sqrt2, 179.9)},
}

func TestQuaternion_RotatePreservesLength(t *testing.T) {
	vectors := []Vector3{
		{X: 1},
		{X: 0.1, Y: 0.2, Z: -0.3},
		{X: -4, Y: 1e-3, Z: 12},
	}

	for _, tt := range unitRotations {
		t.Run(tt.name, func(t *testing.T) {
			for _, v := range vectors {
				want := Distance(v, Vector3{})
				got := Distance(tt.q.Rotate(v), Vector3{})
				if math.Abs(got-want) > 1e-9*math.Max(1, want) {
					t.Errorf("|rotate(%+v)| = %g, want %g", v, got, want)
				}
			}
		})
	}
}

func TestQuaternion_TimesConjugateIsIdentity(t *testing.T) {
	for _, tt := range unitRotations {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.q.Multiply(tt.q.Conjugate())
			if diff := cmp.Diff(Identity(), got, approx); diff != "" {
				t.Errorf("q*conj(q) should be identity (-want +got):\n%s", diff)
			}
		})
	}
}

func TestQuaternion_ToEuler(t *testing.T) {
	tests := []struct {
		name string
		q    Quaternion
		want Euler
	}{
		{"identity", Identity(), Euler{}},
		{"yaw 90", axisAngle(0, 1, 0, 90), Euler{Yaw: 90}},
		{"pitch 30", axisAngle(1, 0, 0, 30), Euler{Pitch: 30}},
		{"roll -20", axisAngle(0, 0, 1, -20), Euler{Roll: -20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.q.ToEuler()
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("ToEuler mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestQuaternion_ToEulerGimbalLock(t *testing.T) {
	// Scale past unit length so the pitch sine exceeds 1.
	q := axisAngle(1, 0, 0, 90)
	q = Quaternion{W: q.W * 1.001, X: q.X * 1.001}

	got := q.ToEuler()
	if math.Abs(got.Pitch-90) > 1e-9 {
		t.Errorf("expected pitch clamped to 90, got %f", got.Pitch)
	}
	if math.IsNaN(got.Yaw) || math.IsNaN(got.Roll) {
		t.Errorf("expected finite yaw and roll, got %+v", got)
	}
}

func TestNormalizeAndSanitize(t *testing.T) {
	if got := (Quaternion{}).Normalize(); got != Identity() {
		t.Errorf("zero quaternion should normalize to identity, got %+v", got)
	}

	got := Quaternion{W: 2}.Normalize()
	if got != Identity() {
		t.Errorf("expected unit quaternion, got %+v", got)
	}

	bad := Quaternion{W: math.NaN()}
	if bad.Sanitize() != Identity() {
		t.Error("NaN quaternion should sanitize to identity")
	}

	v := SanitizeVector(Vector3{X: math.Inf(1), Y: 2, Z: math.NaN()})
	if v != (Vector3{Y: 2}) {
		t.Errorf("expected non-finite components zeroed, got %+v", v)
	}
}

func TestDistance(t *testing.T) {
	d := Distance(Vector3{X: 1, Y: 2, Z: 2}, Vector3{})
	if math.Abs(d-3) > 1e-12 {
		t.Errorf("expected distance 3, got %f", d)
	}
}
