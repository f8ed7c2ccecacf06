// Package tracking abstracts the VR runtime that reports device poses and
// locates the headset and the hand controller among its devices.
package tracking

import (
	"errors"
	"fmt"

	"github.com/ayusman/posebridge/internal/pose"
	"github.com/ayusman/posebridge/internal/posemath"
)

var (
	// ErrNoData is returned when a device has reported no pose yet.
	ErrNoData = errors.New("no pose data for device")
	// ErrDeviceNotFound is returned when discovery cannot find a required device.
	ErrDeviceNotFound = errors.New("tracked device not found")
)

// DeviceClass is the kind of tracked device.
type DeviceClass string

const (
	ClassInvalid    DeviceClass = ""
	ClassHMD        DeviceClass = "hmd"
	ClassController DeviceClass = "controller"
	ClassTracker    DeviceClass = "tracker"
)

// HandRole is the hand a controller is assigned to.
type HandRole string

const (
	RoleUnassigned HandRole = ""
	RoleLeft       HandRole = "left"
	RoleRight      HandRole = "right"
)

// ParseHandRole converts a configuration name into a HandRole.
func ParseHandRole(s string) (HandRole, error) {
	switch HandRole(s) {
	case RoleLeft, RoleRight:
		return HandRole(s), nil
	}
	return "", fmt.Errorf("unknown hand role %q", s)
}

// DevicePose is the latest pose a device reported.
type DevicePose struct {
	Transform posemath.Transform3x4
	Valid     bool
}

// System is the tracking runtime as seen by the bridge.
type System interface {
	// MaxDevices returns the number of device slots to scan.
	MaxDevices() int
	// IsConnected reports whether a device occupies the slot.
	IsConnected(index int) bool
	// Class returns the device class in a slot.
	Class(index int) DeviceClass
	// Role returns the hand a controller is assigned to.
	Role(index int) HandRole
	// Pose returns the latest pose, or ErrNoData.
	Pose(index int) (DevicePose, error)
}

// Devices holds the slot indices of the two tracked devices.
type Devices struct {
	Head int
	Hand int
}

// FindDevices locates the first connected headset and the controller
// assigned to role, falling back to the first connected controller.
func FindDevices(sys System, role HandRole) (Devices, error) {
	head, hand, fallback := -1, -1, -1

	for i := 0; i < sys.MaxDevices(); i++ {
		if !sys.IsConnected(i) {
			continue
		}
		switch sys.Class(i) {
		case ClassHMD:
			if head < 0 {
				head = i
			}
		case ClassController:
			if fallback < 0 {
				fallback = i
			}
			if hand < 0 && sys.Role(i) == role {
				hand = i
			}
		}
	}

	if hand < 0 {
		hand = fallback
	}
	if head < 0 {
		return Devices{}, fmt.Errorf("%w: no headset", ErrDeviceNotFound)
	}
	if hand < 0 {
		return Devices{}, fmt.Errorf("%w: no controller", ErrDeviceNotFound)
	}
	return Devices{Head: head, Hand: hand}, nil
}

// Sample reads a device and converts it into a pose sample. A device that
// is disconnected or has no data yields an invalid sample and the error.
func Sample(sys System, index int, role pose.Role) (pose.Sample, error) {
	if !sys.IsConnected(index) {
		return pose.Sample{Role: role}, fmt.Errorf("%w: slot %d disconnected", ErrDeviceNotFound, index)
	}
	dp, err := sys.Pose(index)
	if err != nil {
		return pose.Sample{Role: role}, err
	}
	return pose.FromTransform(role, dp.Transform, dp.Valid), nil
}
