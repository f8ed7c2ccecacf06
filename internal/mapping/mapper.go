package mapping

import "github.com/ayusman/posebridge/internal/filter"

// Output slots, shared by the head and hand blocks of a legacy packet.
const (
	OutX = iota
	OutY
	OutZ
	OutPitch
	OutYaw
	OutRoll
)

// Output is the scaled data for one frame.
type Output struct {
	Head [6]float64 // zero unless head forwarding is on
	Hand [6]float64 // posX, posY, posZ, pitch, player yaw, roll
}

// Mapper applies a Config. It holds no per-frame state.
type Mapper struct {
	cfg Config
	yaw AxisMap // applied to the hand channel when yaw comes from the hand
}

// NewMapper resolves the configuration for its mode.
func NewMapper(cfg Config) *Mapper {
	cfg = cfg.Resolved()
	m := &Mapper{cfg: cfg, yaw: cfg.Yaw}
	if cfg.Mode == ModeLegacy {
		m.yaw = LegacyYawMap()
	}
	return m
}

// Config returns the resolved mapper configuration.
func (m *Mapper) Config() Config {
	return m.cfg
}

// Map scales filtered hand and head channels. headYaw is the absolute head
// yaw in degrees, used when the yaw source is YawHeadAbsolute.
func (m *Mapper) Map(hand, head filter.Channels, headYaw float64) Output {
	var out Output

	src := m.sources()
	out.Hand[OutX] = m.cfg.HandPosition[0].Scale(hand[src[0]])
	out.Hand[OutY] = m.cfg.HandPosition[1].Scale(hand[src[1]])
	out.Hand[OutZ] = m.cfg.HandPosition[2].Scale(hand[src[2]])
	out.Hand[OutPitch] = m.cfg.HandPitch.Scale(hand[src[3]])
	out.Hand[OutRoll] = m.cfg.HandRoll.Scale(hand[src[4]])

	if m.cfg.YawSource == YawHandRelativeRoll {
		out.Hand[OutYaw] = m.yaw.Scale(-hand[src[3]])
	} else {
		out.Hand[OutYaw] = m.cfg.Yaw.Scale(headYaw)
	}

	if m.cfg.HeadForwarding {
		for i := 0; i < 3; i++ {
			out.Head[OutX+i] = m.cfg.HeadPosition[i].Scale(head[filter.PosX+i])
			out.Head[OutPitch+i] = m.cfg.HeadRotation[i].Scale(head[filter.RotX+i])
		}
	}

	return out
}

// sources returns the channel feeding X, Y, Z, pitch and roll.
func (m *Mapper) sources() [5]int {
	if m.cfg.AxisOrder == AxisBone {
		return [5]int{filter.PosY, filter.PosZ, filter.PosX, filter.RotY, filter.RotX}
	}
	return [5]int{filter.PosX, filter.PosY, filter.PosZ, filter.RotX, filter.RotZ}
}
