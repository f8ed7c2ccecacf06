package wire

import "fmt"

// LegacyPacket is the version 1 layout. Each block is
// [posX, posY, posZ, pitch, yaw, roll]; the hand block's yaw slot carries
// the player yaw.
type LegacyPacket struct {
	Head     [6]float32
	Hand     [6]float32
	LeftHand [6]float32
}

// Version implements Packet.
func (p *LegacyPacket) Version() uint32 {
	return VersionLegacy
}

// MarshalBinary encodes p into a new 76-byte buffer.
func (p *LegacyPacket) MarshalBinary() ([]byte, error) {
	b := make([]byte, LegacySize)
	p.Put(b)
	return b, nil
}

// Put encodes p into b, which must hold at least LegacySize bytes.
func (p *LegacyPacket) Put(b []byte) {
	_ = b[LegacySize-1]
	le.PutUint32(b, VersionLegacy)
	off := putFloats(b, HeaderSize, p.Head[:])
	off = putFloats(b, off, p.Hand[:])
	putFloats(b, off, p.LeftHand[:])
}

// UnmarshalBinary decodes a version 1 packet.
func (p *LegacyPacket) UnmarshalBinary(b []byte) error {
	if len(b) < LegacySize {
		return ErrShortBuffer
	}
	if v := le.Uint32(b); v != VersionLegacy {
		return fmt.Errorf("%w: expected %d, got %d", ErrUnknownVersion, VersionLegacy, v)
	}
	off := getFloats(b, HeaderSize, p.Head[:])
	off = getFloats(b, off, p.Hand[:])
	getFloats(b, off, p.LeftHand[:])
	return nil
}
