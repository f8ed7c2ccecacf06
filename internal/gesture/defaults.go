package gesture

import (
	"time"

	"github.com/ayusman/posebridge/internal/posemath"
)

// Default gesture geometry, in head-relative meters.
const (
	DefaultRadius   = 0.1
	DefaultCooldown = time.Second
)

// DefaultTargets returns the stock gesture set: opening the wrist menu and
// pausing the game.
func DefaultTargets() []*Target {
	return []*Target{
		{
			Name:     "pipboy",
			Point:    posemath.Vector3{X: 0.12, Y: 0.24, Z: -0.29},
			Radius:   DefaultRadius,
			Cooldown: DefaultCooldown,
			Action:   ActionNone,
		},
		{
			Name:     "pause",
			Point:    posemath.Vector3{X: -0.3158, Y: -0.1897, Z: -0.1316},
			Radius:   DefaultRadius,
			Cooldown: DefaultCooldown,
			Action:   ActionNone,
		},
	}
}

// CalibrationTarget returns the optional hand-at-rest recalibration gesture.
func CalibrationTarget() *Target {
	return &Target{
		Name:     "calibrate",
		Point:    posemath.Vector3{Y: -0.3, Z: 0.2},
		Radius:   DefaultRadius,
		Cooldown: DefaultCooldown,
		Action:   ActionRecalibrate,
	}
}
