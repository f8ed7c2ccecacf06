package pipeline

import (
	"fmt"
	"time"

	"github.com/ayusman/posebridge/internal/filter"
	"github.com/ayusman/posebridge/internal/gesture"
	"github.com/ayusman/posebridge/internal/mapping"
	"github.com/ayusman/posebridge/internal/pose"
	"github.com/ayusman/posebridge/internal/posemath"
	"github.com/ayusman/posebridge/internal/wire"
)

// InvalidHandPolicy decides what a frame with a non-tracking hand produces.
type InvalidHandPolicy string

const (
	// InvalidHandSkip produces no packet.
	InvalidHandSkip InvalidHandPolicy = "skip"
	// InvalidHandDummy substitutes an identity hand at the origin with zero
	// relative position, bypassing the hand filter and gestures.
	InvalidHandDummy InvalidHandPolicy = "dummy"
)

// ParseInvalidHandPolicy converts a configuration name into a policy.
func ParseInvalidHandPolicy(s string) (InvalidHandPolicy, error) {
	switch InvalidHandPolicy(s) {
	case InvalidHandSkip, InvalidHandDummy:
		return InvalidHandPolicy(s), nil
	}
	return "", fmt.Errorf("unknown invalid-hand policy %q", s)
}

// Config is the immutable per-run pipeline configuration.
type Config struct {
	Format      wire.Format
	Mapping     mapping.Config
	HandFilter  filter.Config
	HeadFilter  filter.Config
	InvalidHand InvalidHandPolicy
}

// Input is one frame of tracked samples.
type Input struct {
	Head pose.Sample
	Hand pose.Sample
	Now  time.Time
}

// Output is everything a frame produced.
type Output struct {
	Packet       []byte
	Relative     pose.Relative
	Hand         filter.Channels // filtered hand channels
	Head         filter.Channels // filtered head channels
	Mapped       mapping.Output
	Events       []gesture.Event
	Calibrations []Calibration
	DummyHand    bool
}

// Pipeline processes frames for any number of sessions.
type Pipeline struct {
	cfg    Config
	mapper *mapping.Mapper
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	if cfg.InvalidHand == "" {
		cfg.InvalidHand = InvalidHandSkip
	}
	return &Pipeline{cfg: cfg, mapper: mapping.NewMapper(cfg.Mapping)}
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Process runs one frame against the session state. It returns
// pose.ErrInvalidPose without a packet when the head is not tracking, or
// when the hand is not tracking and the policy is InvalidHandSkip.
func (p *Pipeline) Process(s *Session, in Input) (Output, error) {
	var out Output

	if !in.Head.Valid {
		return out, fmt.Errorf("head: %w", pose.ErrInvalidPose)
	}

	hand := in.Hand
	if !hand.Valid {
		if p.cfg.InvalidHand != InvalidHandDummy {
			return out, fmt.Errorf("hand: %w", pose.ErrInvalidPose)
		}
		hand = pose.DummyHand()
		out.DummyHand = true
	}

	head := sanitizeSample(in.Head)
	hand = sanitizeSample(hand)

	var rel pose.Relative
	if out.DummyHand {
		rel = pose.Relative{Orientation: posemath.Identity()}
	} else {
		var err error
		rel, err = pose.Relativize(head, hand)
		if err != nil {
			return out, err
		}
	}
	out.Relative = rel

	out.Calibrations = p.applyRequests(s, rel.Position)

	rawHand := mapping.HandChannels(rel, p.mapper.Config().RotationSource)
	for i := range rawHand {
		rawHand[i] = posemath.Finite(rawHand[i])
	}
	if out.DummyHand {
		out.Hand = rawHand
	} else {
		out.Hand = s.HandFilter.Process(rawHand)
	}
	out.Head = s.HeadFilter.Process(mapping.HeadChannels(head))

	handForMap := out.Hand
	if !out.DummyHand {
		out.Events = s.Recognizer.Evaluate(out.Hand.Position(), in.Now)
		var overridden bool
		for _, e := range out.Events {
			if e.Target.Action == gesture.ActionRecalibrate {
				offset := s.HandFilter.ZeroAt(rel.Position, e.Target.Point)
				out.Calibrations = append(out.Calibrations, Calibration{Offset: offset, Source: CalibrationGesture})
			}
			if e.Target.Override != nil && !overridden {
				handForMap = e.Target.Override.Channels
				overridden = true
			}
		}
	}

	out.Mapped = p.mapper.Map(handForMap, out.Head, out.Head[filter.RotY])
	out.Packet = p.encode(head, hand, out, in.Now)
	s.Frames++
	return out, nil
}

func (p *Pipeline) applyRequests(s *Session, raw posemath.Vector3) []Calibration {
	var changes []Calibration
	for _, r := range s.takePending() {
		if r.reset {
			s.HandFilter.ResetCalibration()
			changes = append(changes, Calibration{Source: CalibrationReset})
			continue
		}
		offset := s.HandFilter.ZeroAt(raw, r.target)
		changes = append(changes, Calibration{Offset: offset, Source: CalibrationManual})
	}
	return changes
}

func (p *Pipeline) encode(head, hand pose.Sample, out Output, now time.Time) []byte {
	if p.cfg.Format == wire.FormatExtended {
		rel := out.Hand.Position()
		pkt := wire.ExtendedPacket{
			Flags:            wire.FlagBasicData,
			HeadOrientation:  quat32(head.Orientation),
			HeadPosition:     vec32(head.Position),
			HandOrientation:  quat32(hand.Orientation),
			HandPosition:     vec32(hand.Position),
			RelativePosition: vec32(rel),
			Timestamp:        float64(now.UnixNano()) / 1e9,
		}
		b, _ := pkt.MarshalBinary()
		return b
	}

	var pkt wire.LegacyPacket
	for i := 0; i < 6; i++ {
		pkt.Head[i] = float32(posemath.Finite(out.Mapped.Head[i]))
		pkt.Hand[i] = float32(posemath.Finite(out.Mapped.Hand[i]))
	}
	b, _ := pkt.MarshalBinary()
	return b
}

func sanitizeSample(s pose.Sample) pose.Sample {
	s.Orientation = s.Orientation.Sanitize()
	s.Position = posemath.SanitizeVector(s.Position)
	return s
}

func quat32(q posemath.Quaternion) [4]float32 {
	return [4]float32{float32(q.W), float32(q.X), float32(q.Y), float32(q.Z)}
}

func vec32(v posemath.Vector3) [3]float32 {
	v = posemath.SanitizeVector(v)
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}
