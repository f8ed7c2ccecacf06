// Package mapping converts filtered head-relative hand channels into the
// game's coordinate conventions with an affine map per axis.
package mapping

import (
	"fmt"

	"github.com/ayusman/posebridge/internal/filter"
	"github.com/ayusman/posebridge/internal/pose"
)

// AxisMap is an affine per-axis transform: out = in*Multiplier + Offset.
type AxisMap struct {
	Multiplier float64 `yaml:"multiplier"`
	Offset     float64 `yaml:"offset"`
}

// Scale applies m to v.
func (m AxisMap) Scale(v float64) float64 {
	return v*m.Multiplier + m.Offset
}

// Mode selects where the hand axis maps come from.
type Mode string

const (
	// ModeLegacy uses the fixed constants the first game build was tuned for.
	// Those constants expect relative quaternion components, so legacy mode
	// always reads rotation as RotationQuaternion.
	ModeLegacy Mode = "legacy"
	// ModeConfigured uses the configured maps.
	ModeConfigured Mode = "configured"
)

// YawSource selects what drives the player-yaw channel.
type YawSource string

const (
	// YawHeadAbsolute uses the headset's absolute yaw in degrees.
	YawHeadAbsolute YawSource = "head_absolute"
	// YawHandRelativeRoll derives player yaw from the controller's relative
	// rotation: the channel that feeds pitch, negated, the way the legacy
	// tracker turned the player with the controller.
	YawHandRelativeRoll YawSource = "hand_relative_roll"
)

// AxisOrder selects how relative axes feed the output axes.
type AxisOrder string

const (
	// AxisIdentity maps X to X, Y to Y and Z to Z.
	AxisIdentity AxisOrder = "identity"
	// AxisBone matches the weapon bone frame: X from Y, Y from Z, Z from X;
	// pitch from the Y rotation channel and roll from the X rotation channel.
	AxisBone AxisOrder = "bone"
)

// RotationSource selects what fills the hand rotation channels.
type RotationSource string

const (
	// RotationEuler uses relative pitch, yaw and roll in degrees.
	RotationEuler RotationSource = "euler"
	// RotationQuaternion uses the relative quaternion's x, y and z components.
	RotationQuaternion RotationSource = "quaternion"
)

// Config is the complete scaling configuration.
type Config struct {
	Mode           Mode
	YawSource      YawSource
	AxisOrder      AxisOrder
	RotationSource RotationSource

	HandPosition [3]AxisMap
	HandPitch    AxisMap
	HandRoll     AxisMap
	Yaw          AxisMap

	// HeadForwarding fills the head floats of the legacy packet.
	HeadForwarding bool
	HeadPosition   [3]AxisMap
	HeadRotation   [3]AxisMap // pitch, yaw, roll
}

// Validate rejects unknown enumeration values.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeLegacy, ModeConfigured:
	default:
		return fmt.Errorf("unknown scaling mode %q", c.Mode)
	}
	switch c.YawSource {
	case YawHeadAbsolute, YawHandRelativeRoll:
	default:
		return fmt.Errorf("unknown yaw source %q", c.YawSource)
	}
	switch c.AxisOrder {
	case AxisIdentity, AxisBone:
	default:
		return fmt.Errorf("unknown axis order %q", c.AxisOrder)
	}
	switch c.RotationSource {
	case RotationEuler, RotationQuaternion:
	default:
		return fmt.Errorf("unknown rotation source %q", c.RotationSource)
	}
	return nil
}

// LegacyHandMaps returns the fixed hand maps of ModeLegacy in
// X, Y, Z, pitch, roll order.
func LegacyHandMaps() (position [3]AxisMap, pitch, roll AxisMap) {
	position = [3]AxisMap{
		{Multiplier: 50, Offset: 15},
		{Multiplier: -50, Offset: -10},
		{Multiplier: -50, Offset: 0},
	}
	pitch = AxisMap{Multiplier: -120, Offset: 10}
	roll = AxisMap{Multiplier: 120, Offset: -75}
	return position, pitch, roll
}

// LegacyYawMap returns the player-yaw map of ModeLegacy, applied to the
// negated pitch source channel.
func LegacyYawMap() AxisMap {
	return AxisMap{Multiplier: -150, Offset: -7.5}
}

// Resolved returns the configuration actually applied: ModeLegacy pins the
// hand maps and the rotation source. Axis order and yaw source stay as
// configured.
func (c Config) Resolved() Config {
	if c.Mode != ModeLegacy {
		return c
	}
	c.HandPosition, c.HandPitch, c.HandRoll = LegacyHandMaps()
	c.RotationSource = RotationQuaternion
	return c
}

// Identity returns a map that passes values through.
func Identity() AxisMap {
	return AxisMap{Multiplier: 1}
}

// Default returns the default configuration: configured mode with legacy
// hand maps, identity axes, quaternion rotation channels (the unit the
// legacy maps are sized for) and head-yaw driven player yaw.
func Default() Config {
	position, pitch, roll := LegacyHandMaps()
	return Config{
		Mode:           ModeConfigured,
		YawSource:      YawHeadAbsolute,
		AxisOrder:      AxisIdentity,
		RotationSource: RotationQuaternion,
		HandPosition:   position,
		HandPitch:      pitch,
		HandRoll:       roll,
		Yaw:            AxisMap{Multiplier: -0.25},
		HeadPosition:   [3]AxisMap{Identity(), Identity(), Identity()},
		HeadRotation:   [3]AxisMap{Identity(), Identity(), Identity()},
	}
}

// HandChannels builds the unfiltered hand channels from a relative pose
// according to the rotation source.
func HandChannels(rel pose.Relative, src RotationSource) filter.Channels {
	var c filter.Channels
	c.SetPosition(rel.Position)
	if src == RotationQuaternion {
		c[filter.RotX] = rel.Orientation.X
		c[filter.RotY] = rel.Orientation.Y
		c[filter.RotZ] = rel.Orientation.Z
		return c
	}
	e := rel.Euler()
	c[filter.RotX] = e.Pitch
	c[filter.RotY] = e.Yaw
	c[filter.RotZ] = e.Roll
	return c
}

// HeadChannels builds the unfiltered head channels from an absolute head sample.
func HeadChannels(head pose.Sample) filter.Channels {
	var c filter.Channels
	c.SetPosition(head.Position)
	e := head.Orientation.ToEuler()
	c[filter.RotX] = e.Pitch
	c[filter.RotY] = e.Yaw
	c[filter.RotZ] = e.Roll
	return c
}
