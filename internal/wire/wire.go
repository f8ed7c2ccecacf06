// Package wire encodes and decodes the fixed-layout little-endian packets
// written to the output channel. Every packet begins with a u32 version.
//
// Version 1 (legacy, 76 bytes):
//
//	u32 version | 6 x f32 head | 6 x f32 hand | 6 x f32 left hand
//
// Version 2 (extended, 88 bytes):
//
//	u32 version | u32 flags | 4 x f32 head quat (w,x,y,z) | 3 x f32 head pos
//	| 4 x f32 hand quat | 3 x f32 hand pos | 3 x f32 relative pos
//	| 4 bytes zero | f64 timestamp
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Packet versions.
const (
	VersionLegacy   uint32 = 1
	VersionExtended uint32 = 2
)

// Packet sizes in bytes.
const (
	HeaderSize   = 4
	LegacySize   = 76
	ExtendedSize = 88
)

// FlagBasicData marks an extended packet carrying head and hand poses.
const FlagBasicData uint32 = 1 << 0

var (
	// ErrShortBuffer is returned when a buffer is smaller than its packet.
	ErrShortBuffer = errors.New("buffer too short for packet")
	// ErrUnknownVersion is returned for an unrecognized version field.
	ErrUnknownVersion = errors.New("unknown packet version")
)

var le = binary.LittleEndian

// Format selects which packet version the bridge emits.
type Format string

const (
	FormatLegacy   Format = "legacy"
	FormatExtended Format = "extended"
)

// ParseFormat converts a configuration name into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatLegacy, FormatExtended:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown packet format %q", s)
}

// Version returns the wire version for f.
func (f Format) Version() uint32 {
	if f == FormatExtended {
		return VersionExtended
	}
	return VersionLegacy
}

// Size returns the packet size for a version, or 0 if it is unknown.
func Size(version uint32) int {
	switch version {
	case VersionLegacy:
		return LegacySize
	case VersionExtended:
		return ExtendedSize
	}
	return 0
}

// Packet is a decoded packet of either version.
type Packet interface {
	Version() uint32
	MarshalBinary() ([]byte, error)
}

// PeekVersion reads the version field without decoding the body.
func PeekVersion(b []byte) (uint32, error) {
	if len(b) < HeaderSize {
		return 0, ErrShortBuffer
	}
	return le.Uint32(b), nil
}

// Decode decodes a packet, dispatching on its version field.
func Decode(b []byte) (Packet, error) {
	version, err := PeekVersion(b)
	if err != nil {
		return nil, err
	}

	switch version {
	case VersionLegacy:
		p := &LegacyPacket{}
		if err := p.UnmarshalBinary(b); err != nil {
			return nil, err
		}
		return p, nil
	case VersionExtended:
		p := &ExtendedPacket{}
		if err := p.UnmarshalBinary(b); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, version)
}

func putFloats(b []byte, off int, vs []float32) int {
	for _, v := range vs {
		le.PutUint32(b[off:], math.Float32bits(v))
		off += 4
	}
	return off
}

func getFloats(b []byte, off int, vs []float32) int {
	for i := range vs {
		vs[i] = math.Float32frombits(le.Uint32(b[off:]))
		off += 4
	}
	return off
}

// ReadPacket reads exactly one packet from a byte stream: the header first,
// then the rest of the body the version calls for.
func ReadPacket(r io.Reader) (Packet, error) {
	buf := make([]byte, ExtendedSize)
	if _, err := io.ReadFull(r, buf[:HeaderSize]); err != nil {
		return nil, err
	}
	version, _ := PeekVersion(buf)
	size := Size(version)
	if size == 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, version)
	}
	if _, err := io.ReadFull(r, buf[HeaderSize:size]); err != nil {
		return nil, fmt.Errorf("failed to read packet body: %w", err)
	}
	return Decode(buf[:size])
}
