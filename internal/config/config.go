// Package config loads the bridge configuration from a YAML file. Values not
// present in the file keep the defaults from Default, merged key by key.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingRequired is returned when a required key is absent from the file.
var ErrMissingRequired = errors.New("missing required configuration key")

const maxConfigSize = 1 << 20

// required lists the keys every configuration file must set.
var required = [][]string{
	{"output", "address"},
	{"output", "format"},
}

// Config is the complete bridge configuration.
type Config struct {
	Output      OutputConfig      `yaml:"output"`
	Tracking    TrackingConfig    `yaml:"tracking"`
	Frame       FrameConfig       `yaml:"frame"`
	HandFilter  FilterConfig      `yaml:"hand_filter"`
	HeadFilter  FilterConfig      `yaml:"head_filter"`
	Scaling     ScalingConfig     `yaml:"scaling"`
	Gestures    []GestureConfig   `yaml:"gestures"`
	InvalidHand string            `yaml:"invalid_hand"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Store       StoreConfig       `yaml:"store"`
	Server      ServerConfig      `yaml:"server"`
	Plugins     PluginsConfig     `yaml:"plugins"`
	Tray        TrayConfig        `yaml:"tray"`
}

// OutputConfig selects the output channel and packet format.
type OutputConfig struct {
	Network string `yaml:"network"` // pipe, unix or tcp
	Address string `yaml:"address"`
	Format  string `yaml:"format"` // legacy or extended

	// WriteTimeoutMs drops a consumer that has not taken a packet within
	// this many milliseconds. Zero lets a slow consumer stall the frame.
	WriteTimeoutMs int `yaml:"write_timeout_ms"`
}

// TrackingConfig selects the device source.
type TrackingConfig struct {
	Source                string     `yaml:"source"` // mock or mqtt
	HandRole              string     `yaml:"hand_role"`
	RescanIntervalSeconds float64    `yaml:"rescan_interval_seconds"`
	MQTT                  MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig configures the MQTT device source.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`

	// StaleAfterSeconds marks a device not tracking when no update arrived
	// for this long. Zero disables the check.
	StaleAfterSeconds float64 `yaml:"stale_after_seconds"`
}

// FrameConfig controls the frame loop cadence.
type FrameConfig struct {
	RateHz float64 `yaml:"rate_hz"`
}

// FilterConfig configures one stream's filter stage.
type FilterConfig struct {
	Enabled           bool       `yaml:"enabled"`
	Order             string     `yaml:"order"`
	PositionOffset    [3]float64 `yaml:"position_offset"`
	RotationOffset    [3]float64 `yaml:"rotation_offset"`
	PositionDeadZone  float64    `yaml:"position_deadzone"`
	RotationDeadZone  float64    `yaml:"rotation_deadzone"`
	PositionClamp     float64    `yaml:"position_clamp"`
	RotationClamp     float64    `yaml:"rotation_clamp"`
	PositionSmoothing float64    `yaml:"position_smoothing"`
	RotationSmoothing float64    `yaml:"rotation_smoothing"`
}

// AxisMapConfig is one affine axis map.
type AxisMapConfig struct {
	Multiplier float64 `yaml:"multiplier"`
	Offset     float64 `yaml:"offset"`
}

// AxesConfig holds one map per axis.
type AxesConfig struct {
	X AxisMapConfig `yaml:"x"`
	Y AxisMapConfig `yaml:"y"`
	Z AxisMapConfig `yaml:"z"`
}

// RotationAxesConfig holds one map per rotation channel.
type RotationAxesConfig struct {
	Pitch AxisMapConfig `yaml:"pitch"`
	Yaw   AxisMapConfig `yaml:"yaw"`
	Roll  AxisMapConfig `yaml:"roll"`
}

// ScalingConfig configures the scaling and axis mapping stage.
type ScalingConfig struct {
	Mode           string             `yaml:"mode"`
	YawSource      string             `yaml:"yaw_source"`
	AxisOrder      string             `yaml:"axis_order"`
	RotationSource string             `yaml:"rotation_source"`
	HandPosition   AxesConfig         `yaml:"hand_position"`
	HandPitch      AxisMapConfig      `yaml:"hand_pitch"`
	HandRoll       AxisMapConfig      `yaml:"hand_roll"`
	Yaw            AxisMapConfig      `yaml:"yaw"`
	HeadForwarding bool               `yaml:"head_forwarding"`
	HeadPosition   AxesConfig         `yaml:"head_position"`
	HeadRotation   RotationAxesConfig `yaml:"head_rotation"`
}

// GestureConfig defines one gesture target.
type GestureConfig struct {
	Name            string          `yaml:"name"`
	Point           [3]float64      `yaml:"point"`
	Radius          float64         `yaml:"radius"`
	CooldownSeconds float64         `yaml:"cooldown_seconds"`
	Action          string          `yaml:"action"`
	Override        *OverrideConfig `yaml:"override,omitempty"`
}

// OverrideConfig is the relative hand pose sent on the frame a gesture fires.
type OverrideConfig struct {
	Position [3]float64 `yaml:"position"`
	Rotation [3]float64 `yaml:"rotation"`
}

// CalibrationConfig configures manual recalibration.
type CalibrationConfig struct {
	// ZeroTarget is where "zero here" places the current hand position.
	ZeroTarget [3]float64 `yaml:"zero_target"`
}

// StoreConfig configures session persistence. An empty path disables it.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP control API.
type ServerConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
	FrameRate int    `yaml:"frame_rate"` // telemetry frames per second
}

// PluginsConfig configures gesture action plugins.
type PluginsConfig struct {
	Dir       string          `yaml:"dir"`
	TimeoutMs int             `yaml:"timeout_ms"`
	QueueSize int             `yaml:"queue_size"`
	Bindings  []BindingConfig `yaml:"bindings"`
}

// BindingConfig binds a gesture to a plugin action.
type BindingConfig struct {
	Gesture string         `yaml:"gesture"`
	Plugin  string         `yaml:"plugin"`
	Action  string         `yaml:"action"`
	Params  map[string]any `yaml:"params,omitempty"`
}

// TrayConfig configures the system tray.
type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the documented defaults.
func Default() *Config {
	network := "unix"
	if runtime.GOOS == "windows" {
		network = "pipe"
	}

	return &Config{
		Output: OutputConfig{
			Network: network,
		},
		Tracking: TrackingConfig{
			Source:                "mock",
			HandRole:              "right",
			RescanIntervalSeconds: 1,
			MQTT: MQTTConfig{
				Broker:      "tcp://localhost:1883",
				ClientID:    "posebridge",
				TopicPrefix: "vr",

				StaleAfterSeconds: 0.5,
			},
		},
		Frame: FrameConfig{RateHz: 120},
		HandFilter: FilterConfig{
			Enabled:           false,
			Order:             "deadzone_clamp_smooth",
			PositionDeadZone:  0.005, // meters
			RotationDeadZone:  0.005, // quaternion component
			PositionClamp:     1.0,
			RotationClamp:     1.0,
			PositionSmoothing: 0.5,
			RotationSmoothing: 0.5,
		},
		HeadFilter: FilterConfig{
			Enabled:           false,
			Order:             "deadzone_clamp_smooth",
			PositionSmoothing: 0.5,
			RotationSmoothing: 0.5,
		},
		Scaling: ScalingConfig{
			Mode:           "configured",
			YawSource:      "head_absolute",
			AxisOrder:      "identity",
			RotationSource: "quaternion",
			HandPosition: AxesConfig{
				X: AxisMapConfig{Multiplier: 50, Offset: 15},
				Y: AxisMapConfig{Multiplier: -50, Offset: -10},
				Z: AxisMapConfig{Multiplier: -50, Offset: 0},
			},
			HandPitch: AxisMapConfig{Multiplier: -120, Offset: 10},
			HandRoll:  AxisMapConfig{Multiplier: 120, Offset: -75},
			Yaw:       AxisMapConfig{Multiplier: -0.25},
			HeadPosition: AxesConfig{
				X: AxisMapConfig{Multiplier: 1},
				Y: AxisMapConfig{Multiplier: 1},
				Z: AxisMapConfig{Multiplier: 1},
			},
			HeadRotation: RotationAxesConfig{
				Pitch: AxisMapConfig{Multiplier: 1},
				Yaw:   AxisMapConfig{Multiplier: 1},
				Roll:  AxisMapConfig{Multiplier: 1},
			},
		},
		Gestures: []GestureConfig{
			{Name: "pipboy", Point: [3]float64{0.12, 0.24, -0.29}, Radius: 0.1, CooldownSeconds: 1, Action: "none"},
			{Name: "pause", Point: [3]float64{-0.3158, -0.1897, -0.1316}, Radius: 0.1, CooldownSeconds: 1, Action: "none"},
		},
		InvalidHand: "skip",
		Calibration: CalibrationConfig{ZeroTarget: [3]float64{0, -0.3, 0.2}},
		Server:      ServerConfig{Enabled: true, Addr: "127.0.0.1:8080", FrameRate: 30},
		Plugins:     PluginsConfig{TimeoutMs: 5000, QueueSize: 16},
		Tray:        TrayConfig{Enabled: false},
	}
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes", info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	for _, path := range required {
		if lookup(&root, path...) == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(path, "."))
		}
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// FrameInterval returns the time between frames.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.Frame.RateHz)
}

// RescanInterval returns the delay between device discovery attempts.
func (c *Config) RescanInterval() time.Duration {
	return time.Duration(c.Tracking.RescanIntervalSeconds * float64(time.Second))
}

// WriteTimeout returns the output write deadline, zero when disabled.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Output.WriteTimeoutMs) * time.Millisecond
}

// MQTTStaleAfter returns the MQTT device staleness window.
func (c *Config) MQTTStaleAfter() time.Duration {
	return time.Duration(c.Tracking.MQTT.StaleAfterSeconds * float64(time.Second))
}

// lookup walks mapping keys from the document root.
func lookup(n *yaml.Node, path ...string) *yaml.Node {
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil
		}
		n = n.Content[0]
	}
	for _, key := range path {
		if n == nil || n.Kind != yaml.MappingNode {
			return nil
		}
		var next *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == key {
				next = n.Content[i+1]
				break
			}
		}
		n = next
	}
	if n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null") {
		return nil
	}
	return n
}
