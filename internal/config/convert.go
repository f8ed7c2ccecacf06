package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ayusman/posebridge/internal/filter"
	"github.com/ayusman/posebridge/internal/gesture"
	"github.com/ayusman/posebridge/internal/mapping"
	"github.com/ayusman/posebridge/internal/pipeline"
	"github.com/ayusman/posebridge/internal/plugin"
	"github.com/ayusman/posebridge/internal/posemath"
	"github.com/ayusman/posebridge/internal/tracking"
	"github.com/ayusman/posebridge/internal/wire"
)

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if c.Output.Address == "" {
		return fmt.Errorf("output.address must not be empty")
	}
	switch c.Output.Network {
	case "pipe", "unix", "tcp":
	default:
		return fmt.Errorf("output.network: unknown network %q", c.Output.Network)
	}
	if c.Output.WriteTimeoutMs < 0 {
		return fmt.Errorf("output.write_timeout_ms must not be negative")
	}
	if _, err := c.Pipeline(); err != nil {
		return err
	}

	switch c.Tracking.Source {
	case "mock":
	case "mqtt":
		if c.Tracking.MQTT.Broker == "" {
			return fmt.Errorf("tracking.mqtt.broker is required for the mqtt source")
		}
		if c.Tracking.MQTT.StaleAfterSeconds < 0 {
			return fmt.Errorf("tracking.mqtt.stale_after_seconds must not be negative")
		}
	default:
		return fmt.Errorf("tracking.source: unknown source %q", c.Tracking.Source)
	}
	if _, err := tracking.ParseHandRole(c.Tracking.HandRole); err != nil {
		return fmt.Errorf("tracking.hand_role: %w", err)
	}
	if c.Tracking.RescanIntervalSeconds <= 0 {
		return fmt.Errorf("tracking.rescan_interval_seconds must be positive")
	}
	if c.Frame.RateHz <= 0 || c.Frame.RateHz > 1000 {
		return fmt.Errorf("frame.rate_hz must be in (0, 1000]")
	}

	if _, err := c.GestureTargets(); err != nil {
		return err
	}

	if c.Plugins.TimeoutMs <= 0 {
		return fmt.Errorf("plugins.timeout_ms must be positive")
	}
	if c.Plugins.QueueSize <= 0 {
		return fmt.Errorf("plugins.queue_size must be positive")
	}
	if _, err := c.Bindings(); err != nil {
		return err
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required when the server is enabled")
	}
	if c.Server.FrameRate < 0 {
		return fmt.Errorf("server.frame_rate must not be negative")
	}
	return nil
}

// Pipeline converts the configuration into a pipeline configuration.
func (c *Config) Pipeline() (pipeline.Config, error) {
	format, err := wire.ParseFormat(c.Output.Format)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("output.format: %w", err)
	}
	hand, err := c.HandFilter.filter()
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("hand_filter: %w", err)
	}
	head, err := c.HeadFilter.filter()
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("head_filter: %w", err)
	}
	m := c.Scaling.mapping()
	if err := m.Validate(); err != nil {
		return pipeline.Config{}, fmt.Errorf("scaling: %w", err)
	}
	policy, err := pipeline.ParseInvalidHandPolicy(c.InvalidHand)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("invalid_hand: %w", err)
	}

	return pipeline.Config{
		Format:      format,
		Mapping:     m,
		HandFilter:  hand,
		HeadFilter:  head,
		InvalidHand: policy,
	}, nil
}

// GestureTargets builds fresh gesture targets from the configuration.
func (c *Config) GestureTargets() ([]*gesture.Target, error) {
	targets := make([]*gesture.Target, 0, len(c.Gestures))
	seen := make(map[string]bool)

	for i, g := range c.Gestures {
		action, err := gesture.ParseAction(g.Action)
		if err != nil {
			return nil, fmt.Errorf("gestures[%d]: %w", i, err)
		}
		t := &gesture.Target{
			Name:     g.Name,
			Point:    vec(g.Point),
			Radius:   g.Radius,
			Cooldown: time.Duration(g.CooldownSeconds * float64(time.Second)),
			Action:   action,
		}
		if g.Override != nil {
			var ch filter.Channels
			ch.SetPosition(vec(g.Override.Position))
			ch[filter.RotX] = g.Override.Rotation[0]
			ch[filter.RotY] = g.Override.Rotation[1]
			ch[filter.RotZ] = g.Override.Rotation[2]
			t.Override = &gesture.Override{Channels: ch}
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("gestures[%d]: %w", i, err)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("gestures[%d]: duplicate name %q", i, t.Name)
		}
		seen[t.Name] = true
		targets = append(targets, t)
	}
	return targets, nil
}

// ZeroTarget returns the position manual recalibration maps the hand onto.
func (c *Config) ZeroTarget() posemath.Vector3 {
	return vec(c.Calibration.ZeroTarget)
}

// Bindings converts the plugin bindings, encoding each params map as JSON.
func (c *Config) Bindings() ([]plugin.Binding, error) {
	bindings := make([]plugin.Binding, 0, len(c.Plugins.Bindings))
	for i, b := range c.Plugins.Bindings {
		if b.Gesture == "" || b.Plugin == "" || b.Action == "" {
			return nil, fmt.Errorf("plugins.bindings[%d]: gesture, plugin and action are required", i)
		}
		binding := plugin.Binding{Gesture: b.Gesture, Plugin: b.Plugin, Action: b.Action}
		if len(b.Params) > 0 {
			params, err := json.Marshal(b.Params)
			if err != nil {
				return nil, fmt.Errorf("plugins.bindings[%d].params: %w", i, err)
			}
			binding.Params = params
		}
		bindings = append(bindings, binding)
	}
	return bindings, nil
}

func (f FilterConfig) filter() (filter.Config, error) {
	order, err := filter.ParseOrder(f.Order)
	if err != nil {
		return filter.Config{}, err
	}
	cfg := filter.Config{
		Enabled:           f.Enabled,
		Order:             order,
		PositionOffset:    vec(f.PositionOffset),
		RotationOffset:    vec(f.RotationOffset),
		PositionDeadZone:  f.PositionDeadZone,
		RotationDeadZone:  f.RotationDeadZone,
		PositionClamp:     f.PositionClamp,
		RotationClamp:     f.RotationClamp,
		PositionSmoothing: f.PositionSmoothing,
		RotationSmoothing: f.RotationSmoothing,
	}
	return cfg, cfg.Validate()
}

func (s ScalingConfig) mapping() mapping.Config {
	return mapping.Config{
		Mode:           mapping.Mode(s.Mode),
		YawSource:      mapping.YawSource(s.YawSource),
		AxisOrder:      mapping.AxisOrder(s.AxisOrder),
		RotationSource: mapping.RotationSource(s.RotationSource),
		HandPosition:   s.HandPosition.maps(),
		HandPitch:      mapping.AxisMap(s.HandPitch),
		HandRoll:       mapping.AxisMap(s.HandRoll),
		Yaw:            mapping.AxisMap(s.Yaw),
		HeadForwarding: s.HeadForwarding,
		HeadPosition:   s.HeadPosition.maps(),
		HeadRotation: [3]mapping.AxisMap{
			mapping.AxisMap(s.HeadRotation.Pitch),
			mapping.AxisMap(s.HeadRotation.Yaw),
			mapping.AxisMap(s.HeadRotation.Roll),
		},
	}
}

func (a AxesConfig) maps() [3]mapping.AxisMap {
	return [3]mapping.AxisMap{mapping.AxisMap(a.X), mapping.AxisMap(a.Y), mapping.AxisMap(a.Z)}
}

func vec(v [3]float64) posemath.Vector3 {
	return posemath.Vector3{X: v[0], Y: v[1], Z: v[2]}
}
