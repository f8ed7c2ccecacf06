// Package app runs the bridge: it finds the tracked devices, drives the
// frame loop, writes packets to the consumer and fans gesture events out to
// the store, the plugin dispatcher and the telemetry hook.
package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/posebridge/internal/gesture"
	"github.com/ayusman/posebridge/internal/pipeline"
	"github.com/ayusman/posebridge/internal/plugin"
	"github.com/ayusman/posebridge/internal/posemath"
	"github.com/ayusman/posebridge/internal/store"
	"github.com/ayusman/posebridge/internal/timeutil"
	"github.com/ayusman/posebridge/internal/tracking"
)

// Loop timing defaults.
const (
	DefaultFrameInterval  = time.Second / 120
	DefaultRescanInterval = time.Second
)

// State is the phase the frame loop is in.
type State string

const (
	StateIdle        State = "idle"
	StateDiscovering State = "discovering"
	StateStreaming   State = "streaming"
	StateStopped     State = "stopped"
)

// Sink receives encoded packets.
type Sink interface {
	Write(p []byte) error
	Connected() bool
}

// Config holds everything the App needs. Store, Dispatcher and OnFrame are
// optional.
type Config struct {
	Pipeline       pipeline.Config
	Targets        []*gesture.Target
	HandRole       tracking.HandRole
	FrameInterval  time.Duration
	RescanInterval time.Duration
	ZeroTarget     posemath.Vector3

	System     tracking.System
	Sink       Sink
	Store      *store.Store
	Dispatcher *plugin.Dispatcher
	Clock      timeutil.Clock

	// OnFrame is called on the loop goroutine after every processed frame.
	OnFrame func(Frame)
}

// Frame is a telemetry snapshot of one processed frame.
type Frame struct {
	Seq       uint64     `json:"seq"`
	Time      time.Time  `json:"time"`
	Relative  [3]float64 `json:"relative"`
	Hand      [6]float64 `json:"hand"`
	Head      [6]float64 `json:"head"`
	OutHand   [6]float64 `json:"out_hand"`
	OutHead   [6]float64 `json:"out_head"`
	Gestures  []string   `json:"gestures,omitempty"`
	DummyHand bool       `json:"dummy_hand,omitempty"`
	Sent      bool       `json:"sent"`
}

// Status is a point-in-time view of the bridge.
type Status struct {
	SessionID       string     `json:"session_id"`
	State           State      `json:"state"`
	Format          string     `json:"format"`
	Streaming       bool       `json:"streaming"`
	Connected       bool       `json:"connected"`
	HeadDevice      int        `json:"head_device"`
	HandDevice      int        `json:"hand_device"`
	FramesProcessed uint64     `json:"frames_processed"`
	FramesSent      uint64     `json:"frames_sent"`
	FramesDropped   uint64     `json:"frames_dropped"`
	FramesSkipped   uint64     `json:"frames_skipped"`
	LastGesture     string     `json:"last_gesture,omitempty"`
	LastGestureAt   *time.Time `json:"last_gesture_at,omitempty"`
	Calibration     [3]float64 `json:"calibration"`
}

// App is the running bridge.
type App struct {
	cfg      Config
	clock    timeutil.Clock
	pipeline *pipeline.Pipeline
	session  *pipeline.Session

	mu        sync.RWMutex
	status    Status
	streaming bool
	tracking  bool
	seq       uint64
}

// New creates an App. The session starts when Run is called.
func New(cfg Config) *App {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if cfg.RescanInterval <= 0 {
		cfg.RescanInterval = DefaultRescanInterval
	}
	if cfg.HandRole == tracking.RoleUnassigned {
		cfg.HandRole = tracking.RoleRight
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}

	id := uuid.NewString()
	a := &App{
		cfg:       cfg,
		clock:     cfg.Clock,
		pipeline:  pipeline.New(cfg.Pipeline),
		session:   pipeline.NewSession(id, cfg.Pipeline, cfg.Targets, cfg.Clock.Now()),
		streaming: true,
	}
	a.status = Status{
		SessionID:  id,
		State:      StateIdle,
		Format:     string(cfg.Pipeline.Format),
		Streaming:  true,
		HeadDevice: -1,
		HandDevice: -1,
	}
	return a
}

// SessionID returns the current session identifier.
func (a *App) SessionID() string {
	return a.session.ID
}

// Status returns a snapshot of the bridge state.
func (a *App) Status() Status {
	a.mu.RLock()
	s := a.status
	a.mu.RUnlock()

	if a.cfg.Sink != nil {
		s.Connected = a.cfg.Sink.Connected()
	}
	return s
}

// RequestZero recalibrates on the next frame so the current hand position
// maps onto the configured zero target.
func (a *App) RequestZero() {
	a.session.RequestZero(a.cfg.ZeroTarget)
}

// RequestResetCalibration clears the calibration offset on the next frame.
func (a *App) RequestResetCalibration() {
	a.session.RequestResetCalibration()
}

// SetStreaming enables or disables packet output. The pipeline keeps
// running while streaming is off so filters and gestures stay current.
func (a *App) SetStreaming(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.streaming = enabled
	a.status.Streaming = enabled
}

// IsStreaming reports whether packets are being written.
func (a *App) IsStreaming() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.streaming
}

func (a *App) setState(s State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status.State = s
}
