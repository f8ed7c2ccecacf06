// Package pose defines tracked pose samples and expresses the hand pose in
// the head's local frame.
package pose

import (
	"errors"

	"github.com/ayusman/posebridge/internal/posemath"
)

// ErrInvalidPose is returned when a sample used for relativization is not
// currently tracking.
var ErrInvalidPose = errors.New("pose is not valid")

// Role identifies which tracked body part a sample belongs to.
type Role string

const (
	// RoleHead is the head-mounted display.
	RoleHead Role = "head"
	// RoleHand is the hand controller.
	RoleHand Role = "hand"
)

// Sample is one tracked device pose for one frame.
type Sample struct {
	Role        Role
	Orientation posemath.Quaternion
	Position    posemath.Vector3 // meters, tracking space
	Valid       bool
}

// FromTransform converts a runtime transform into a sample.
func FromTransform(role Role, t posemath.Transform3x4, valid bool) Sample {
	return Sample{
		Role:        role,
		Orientation: t.Quaternion(),
		Position:    t.Position(),
		Valid:       valid,
	}
}

// DummyHand returns an identity-orientation hand at the origin. It stands
// in for the hand when the controller is not tracking and the consumer
// still expects a full packet.
func DummyHand() Sample {
	return Sample{
		Role:        RoleHand,
		Orientation: posemath.Identity(),
		Valid:       true,
	}
}

// Relative is the hand pose expressed in the head's local frame.
type Relative struct {
	Position    posemath.Vector3
	Orientation posemath.Quaternion
}

// Relativize returns hand relative to head:
//
//	position    = rotate(hand.Position - head.Position, conj(head.Orientation))
//	orientation = conj(head.Orientation) * hand.Orientation
//
// It fails with ErrInvalidPose if either sample is invalid.
func Relativize(head, hand Sample) (Relative, error) {
	if !head.Valid || !hand.Valid {
		return Relative{}, ErrInvalidPose
	}

	inv := head.Orientation.Conjugate()
	return Relative{
		Position:    inv.Rotate(posemath.Sub(hand.Position, head.Position)),
		Orientation: inv.Multiply(hand.Orientation),
	}, nil
}

// Euler returns the relative orientation as pitch, yaw and roll in degrees.
func (r Relative) Euler() posemath.Euler {
	return r.Orientation.ToEuler()
}
