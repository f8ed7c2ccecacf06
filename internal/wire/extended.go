package wire

import (
	"fmt"
	"math"
)

const timestampOffset = 80

// ExtendedPacket is the version 2 layout.
type ExtendedPacket struct {
	Flags            uint32
	HeadOrientation  [4]float32 // w, x, y, z
	HeadPosition     [3]float32
	HandOrientation  [4]float32 // w, x, y, z
	HandPosition     [3]float32
	RelativePosition [3]float32
	Timestamp        float64 // seconds
}

// Version implements Packet.
func (p *ExtendedPacket) Version() uint32 {
	return VersionExtended
}

// MarshalBinary encodes p into a new 88-byte buffer.
func (p *ExtendedPacket) MarshalBinary() ([]byte, error) {
	b := make([]byte, ExtendedSize)
	p.Put(b)
	return b, nil
}

// Put encodes p into b, which must hold at least ExtendedSize bytes.
func (p *ExtendedPacket) Put(b []byte) {
	_ = b[ExtendedSize-1]
	le.PutUint32(b, VersionExtended)
	le.PutUint32(b[4:], p.Flags)
	off := putFloats(b, 8, p.HeadOrientation[:])
	off = putFloats(b, off, p.HeadPosition[:])
	off = putFloats(b, off, p.HandOrientation[:])
	off = putFloats(b, off, p.HandPosition[:])
	off = putFloats(b, off, p.RelativePosition[:])
	// Alignment padding before the f64.
	for ; off < timestampOffset; off++ {
		b[off] = 0
	}
	le.PutUint64(b[timestampOffset:], math.Float64bits(p.Timestamp))
}

// UnmarshalBinary decodes a version 2 packet.
func (p *ExtendedPacket) UnmarshalBinary(b []byte) error {
	if len(b) < ExtendedSize {
		return ErrShortBuffer
	}
	if v := le.Uint32(b); v != VersionExtended {
		return fmt.Errorf("%w: expected %d, got %d", ErrUnknownVersion, VersionExtended, v)
	}
	p.Flags = le.Uint32(b[4:])
	off := getFloats(b, 8, p.HeadOrientation[:])
	off = getFloats(b, off, p.HeadPosition[:])
	off = getFloats(b, off, p.HandOrientation[:])
	off = getFloats(b, off, p.HandPosition[:])
	getFloats(b, off, p.RelativePosition[:])
	p.Timestamp = math.Float64frombits(le.Uint64(b[timestampOffset:]))
	return nil
}
