// Package pipeline turns one frame of head and hand samples into an encoded
// packet: relativize, filter, recognize gestures, scale, encode.
package pipeline

import (
	"sync"
	"time"

	"github.com/ayusman/posebridge/internal/filter"
	"github.com/ayusman/posebridge/internal/gesture"
	"github.com/ayusman/posebridge/internal/mapping"
	"github.com/ayusman/posebridge/internal/posemath"
)

// CalibrationSource says what changed the calibration offset.
type CalibrationSource string

const (
	CalibrationManual  CalibrationSource = "manual"
	CalibrationGesture CalibrationSource = "gesture"
	CalibrationReset   CalibrationSource = "reset"
)

// Calibration is a calibration change applied during a frame.
type Calibration struct {
	Offset posemath.Vector3
	Source CalibrationSource
}

type request struct {
	reset  bool
	target posemath.Vector3
}

// Session holds all state that persists across frames: both filter stages
// (smoothing state and the hand calibration offset), the gesture recognizer
// with its last-fired times, and the frame counter. Process must only be
// called from one goroutine; the Request methods are safe from any goroutine.
type Session struct {
	ID        string
	StartedAt time.Time

	HandFilter *filter.Stage
	HeadFilter *filter.Stage
	Recognizer *gesture.Recognizer

	Frames uint64

	mu      sync.Mutex
	pending []request
}

// NewSession creates a session for the given pipeline configuration.
// Rotation channels that carry Euler degrees are smoothed as angles.
func NewSession(id string, cfg Config, targets []*gesture.Target, now time.Time) *Session {
	hand, head := cfg.HandFilter, cfg.HeadFilter
	hand.WrapRotation = cfg.Mapping.Resolved().RotationSource == mapping.RotationEuler
	head.WrapRotation = true

	return &Session{
		ID:         id,
		StartedAt:  now,
		HandFilter: filter.NewStage(hand),
		HeadFilter: filter.NewStage(head),
		Recognizer: gesture.NewRecognizer(targets...),
	}
}

// RequestZero asks the next processed frame to recalibrate so that the
// current raw relative hand position maps onto target.
func (s *Session) RequestZero(target posemath.Vector3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, request{target: target})
}

// RequestResetCalibration asks the next processed frame to clear the
// calibration offset.
func (s *Session) RequestResetCalibration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, request{reset: true})
}

func (s *Session) takePending() []request {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pending
	s.pending = nil
	return p
}

// Restart clears smoothing state and gesture timers while keeping the
// calibration offset. Used when tracking resumes after a device loss.
func (s *Session) Restart() {
	s.HandFilter.ResetState()
	s.HeadFilter.ResetState()
	s.Recognizer.Reset()
}
