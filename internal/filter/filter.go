// Package filter implements the calibration and smoothing stage applied to
// each pose stream before gesture recognition and scaling.
//
// Every channel goes through an additive offset, a dead-zone, a symmetric
// clamp and exponential smoothing. The order of the last three steps is
// configurable; the default is offset, dead-zone, clamp, smooth.
package filter

import (
	"fmt"
	"math"

	"github.com/ayusman/posebridge/internal/posemath"
)

// Channel indices into Channels.
const (
	PosX = iota
	PosY
	PosZ
	RotX
	RotY
	RotZ
	NumChannels
)

// Channels holds the six scalar channels of one stream: position in meters
// followed by rotation about X (pitch), Y (yaw) and Z (roll).
type Channels [NumChannels]float64

// Position returns the position channels as a vector.
func (c Channels) Position() posemath.Vector3 {
	return posemath.Vector3{X: c[PosX], Y: c[PosY], Z: c[PosZ]}
}

// SetPosition overwrites the position channels.
func (c *Channels) SetPosition(v posemath.Vector3) {
	c[PosX], c[PosY], c[PosZ] = v.X, v.Y, v.Z
}

// Order selects the sequence in which dead-zone, clamp and smoothing run.
type Order string

const (
	// OrderDeadZoneClampSmooth applies offset, dead-zone, clamp, then smoothing.
	OrderDeadZoneClampSmooth Order = "deadzone_clamp_smooth"
	// OrderSmoothDeadZoneClamp applies offset, smoothing, dead-zone, then clamp.
	OrderSmoothDeadZoneClamp Order = "smooth_deadzone_clamp"
)

// ParseOrder converts a configuration name into an Order.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case OrderDeadZoneClampSmooth, OrderSmoothDeadZoneClamp:
		return Order(s), nil
	case "":
		return OrderDeadZoneClampSmooth, nil
	}
	return "", fmt.Errorf("unknown filter order %q", s)
}

// Config parameterizes one stream's filter.
type Config struct {
	// Enabled turns on dead-zone, clamp and smoothing. Offsets apply either way.
	Enabled bool
	Order   Order

	PositionOffset posemath.Vector3
	RotationOffset posemath.Vector3 // pitch, yaw, roll order

	PositionDeadZone float64
	RotationDeadZone float64

	// Clamp limits are symmetric; zero means unlimited.
	PositionClamp float64
	RotationClamp float64

	// Smoothing factors in [0, 1]; 0 passes the target through.
	PositionSmoothing float64
	RotationSmoothing float64

	// WrapRotation marks the rotation channels as angles in degrees, so
	// smoothing follows the short way across ±180.
	WrapRotation bool
}

// Validate reports the first out-of-range parameter.
func (c Config) Validate() error {
	if c.PositionDeadZone < 0 || c.RotationDeadZone < 0 {
		return fmt.Errorf("dead-zone must be non-negative")
	}
	if c.PositionClamp < 0 || c.RotationClamp < 0 {
		return fmt.Errorf("clamp must be non-negative")
	}
	for _, s := range []float64{c.PositionSmoothing, c.RotationSmoothing} {
		if s < 0 || s > 1 {
			return fmt.Errorf("smoothing factor %v outside [0, 1]", s)
		}
	}
	if _, err := ParseOrder(string(c.Order)); err != nil {
		return err
	}
	return nil
}

// DeadZone returns 0 when |v| is below threshold, otherwise v.
func DeadZone(v, threshold float64) float64 {
	if math.Abs(v) < threshold {
		return 0
	}
	return v
}

// WrapDegrees maps an angle into (-180, 180].
func WrapDegrees(d float64) float64 {
	d = math.Mod(d+180, 360)
	if d <= 0 {
		d += 360
	}
	return d - 180
}

// Clamp limits v to [-limit, limit]. A limit of zero or less disables it.
func Clamp(v, limit float64) float64 {
	if limit <= 0 {
		return v
	}
	return math.Max(-limit, math.Min(limit, v))
}
