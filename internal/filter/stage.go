package filter

import "github.com/ayusman/posebridge/internal/posemath"

// Stage filters one stream frame by frame. It owns the stream's smoothing
// state and, for the hand stream, the calibration offset. A Stage is not
// safe for concurrent use.
type Stage struct {
	cfg         Config
	state       State
	calibration posemath.Vector3
}

// NewStage creates a stage with the given configuration.
func NewStage(cfg Config) *Stage {
	if cfg.Order == "" {
		cfg.Order = OrderDeadZoneClampSmooth
	}
	return &Stage{cfg: cfg}
}

// Config returns the stage configuration.
func (s *Stage) Config() Config {
	return s.cfg
}

// Process filters one frame of channels.
func (s *Stage) Process(in Channels) Channels {
	var out Channels
	for i := range in {
		v := in[i] + s.offset(i)
		if !s.cfg.Enabled {
			out[i] = v
			continue
		}

		dz, limit, factor := s.params(i)
		switch s.cfg.Order {
		case OrderSmoothDeadZoneClamp:
			v = s.smooth(i, v, factor)
			v = Clamp(DeadZone(v, dz), limit)
		default:
			v = Clamp(DeadZone(v, dz), limit)
			v = s.smooth(i, v, factor)
		}
		out[i] = v
	}
	return out
}

func (s *Stage) offset(i int) float64 {
	switch i {
	case PosX:
		return s.cfg.PositionOffset.X + s.calibration.X
	case PosY:
		return s.cfg.PositionOffset.Y + s.calibration.Y
	case PosZ:
		return s.cfg.PositionOffset.Z + s.calibration.Z
	case RotX:
		return s.cfg.RotationOffset.X
	case RotY:
		return s.cfg.RotationOffset.Y
	default:
		return s.cfg.RotationOffset.Z
	}
}

func (s *Stage) smooth(i int, v, factor float64) float64 {
	if s.cfg.WrapRotation && i >= RotX {
		return s.state[i].UpdateAngle(v, factor)
	}
	return s.state[i].Update(v, factor)
}

func (s *Stage) params(i int) (deadZone, limit, factor float64) {
	if i <= PosZ {
		return s.cfg.PositionDeadZone, s.cfg.PositionClamp, s.cfg.PositionSmoothing
	}
	return s.cfg.RotationDeadZone, s.cfg.RotationClamp, s.cfg.RotationSmoothing
}

// Calibration returns the current position calibration offset.
func (s *Stage) Calibration() posemath.Vector3 {
	return s.calibration
}

// SetCalibration replaces the calibration offset. Smoothing state is kept,
// so the output glides to the newly calibrated position.
func (s *Stage) SetCalibration(offset posemath.Vector3) {
	s.calibration = posemath.SanitizeVector(offset)
}

// ZeroAt sets the calibration offset so that the raw position maps onto
// target, and returns the new offset.
func (s *Stage) ZeroAt(raw, target posemath.Vector3) posemath.Vector3 {
	s.SetCalibration(posemath.Sub(target, raw))
	return s.calibration
}

// ResetCalibration clears the calibration offset.
func (s *Stage) ResetCalibration() {
	s.calibration = posemath.Vector3{}
}

// ResetState clears the smoothing state; the next frame passes through.
func (s *Stage) ResetState() {
	for i := range s.state {
		s.state[i].Reset()
	}
}
