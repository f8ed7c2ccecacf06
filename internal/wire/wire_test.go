package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
)

func f32At(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func TestLegacyPacket_Layout(t *testing.T) {
	p := &LegacyPacket{Hand: [6]float32{20, -20, 15, 4, -2.5, -45}}

	b, err := p.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if len(b) != 76 {
		t.Fatalf("expected 76 bytes, got %d", len(b))
	}

	// Version 1, little-endian.
	if b[0] != 1 || b[1] != 0 || b[2] != 0 || b[3] != 0 {
		t.Errorf("unexpected version bytes % x", b[:4])
	}

	// Head block is bytes 4..27 and zero-filled.
	for i := 4; i < 28; i++ {
		if b[i] != 0 {
			t.Fatalf("head byte %d not zero", i)
		}
	}

	// Hand block starts at byte 28: posX, posY, posZ, pitch, yaw, roll.
	if got := f32At(b, 28); got != 20 {
		t.Errorf("hand posX: expected 20, got %f", got)
	}
	if got := f32At(b, 28+16); got != -2.5 {
		t.Errorf("hand yaw slot: expected -2.5, got %f", got)
	}

	// Left-hand block is bytes 52..75 and zero-filled.
	for i := 52; i < 76; i++ {
		if b[i] != 0 {
			t.Fatalf("left hand byte %d not zero", i)
		}
	}
}

func TestExtendedPacket_Layout(t *testing.T) {
	p := &ExtendedPacket{
		Flags:            FlagBasicData,
		HeadOrientation:  [4]float32{1, 0, 0, 0},
		HeadPosition:     [3]float32{0, 1.7, 0},
		HandOrientation:  [4]float32{0.5, 0.5, 0.5, 0.5},
		HandPosition:     [3]float32{0.1, 1.5, -0.3},
		RelativePosition: [3]float32{0.1, -0.2, -0.3},
		Timestamp:        1234.5,
	}

	b, err := p.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if len(b) != 88 {
		t.Fatalf("expected 88 bytes, got %d", len(b))
	}

	if v := binary.LittleEndian.Uint32(b[0:]); v != 2 {
		t.Errorf("expected version 2, got %d", v)
	}
	if f := binary.LittleEndian.Uint32(b[4:]); f&1 != 1 {
		t.Errorf("expected basic-data flag set, got %#x", f)
	}

	offsets := []struct {
		name string
		off  int
		want float32
	}{
		{"head w", 8, 1},
		{"head pos y", 24 + 4, 1.7},
		{"hand quat w", 36, 0.5},
		{"hand pos z", 52 + 8, -0.3},
		{"relative x", 64, 0.1},
		{"relative z", 72, -0.3},
	}
	for _, o := range offsets {
		if got := f32At(b, o.off); got != o.want {
			t.Errorf("%s at %d: expected %f, got %f", o.name, o.off, o.want, got)
		}
	}

	for i := 76; i < 80; i++ {
		if b[i] != 0 {
			t.Errorf("padding byte %d not zero", i)
		}
	}

	if ts := math.Float64frombits(binary.LittleEndian.Uint64(b[80:])); ts != 1234.5 {
		t.Errorf("expected timestamp 1234.5, got %f", ts)
	}
}

func TestDecode_DispatchesOnVersion(t *testing.T) {
	legacy, _ := (&LegacyPacket{Hand: [6]float32{1, 2, 3, 4, 5, 6}}).MarshalBinary()
	extended, _ := (&ExtendedPacket{Flags: FlagBasicData, Timestamp: 9}).MarshalBinary()

	p, err := Decode(legacy)
	if err != nil {
		t.Fatalf("decode legacy: %v", err)
	}
	lp, ok := p.(*LegacyPacket)
	if !ok {
		t.Fatalf("expected *LegacyPacket, got %T", p)
	}
	if lp.Hand[5] != 6 {
		t.Errorf("expected hand roll 6, got %f", lp.Hand[5])
	}

	p, err = Decode(extended)
	if err != nil {
		t.Fatalf("decode extended: %v", err)
	}
	ep, ok := p.(*ExtendedPacket)
	if !ok {
		t.Fatalf("expected *ExtendedPacket, got %T", p)
	}
	if ep.Timestamp != 9 || ep.Flags != FlagBasicData {
		t.Errorf("unexpected extended packet %+v", ep)
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode([]byte{1, 0}); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("expected ErrShortBuffer for truncated header, got %v", err)
	}

	truncated := make([]byte, 40)
	truncated[0] = 1
	if _, err := Decode(truncated); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("expected ErrShortBuffer for truncated body, got %v", err)
	}

	unknown := make([]byte, 88)
	unknown[0] = 7
	if _, err := Decode(unknown); !errors.Is(err, ErrUnknownVersion) {
		t.Errorf("expected ErrUnknownVersion, got %v", err)
	}
}

func TestSizeAndFormat(t *testing.T) {
	if Size(VersionLegacy) != 76 || Size(VersionExtended) != 88 || Size(3) != 0 {
		t.Error("unexpected packet sizes")
	}

	f, err := ParseFormat("extended")
	if err != nil || f.Version() != VersionExtended {
		t.Errorf("ParseFormat(extended) = %q, %v", f, err)
	}
	if _, err := ParseFormat("v3"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestReadPacket_MixedStream(t *testing.T) {
	legacy, _ := (&LegacyPacket{Hand: [6]float32{20}}).MarshalBinary()
	extended, _ := (&ExtendedPacket{Flags: FlagBasicData, Timestamp: 1.5}).MarshalBinary()

	var stream bytes.Buffer
	stream.Write(legacy)
	stream.Write(extended)
	stream.Write(legacy[:10])

	p, err := ReadPacket(&stream)
	if err != nil {
		t.Fatalf("first packet: %v", err)
	}
	if lp, ok := p.(*LegacyPacket); !ok || lp.Hand[0] != 20 {
		t.Errorf("unexpected first packet %+v", p)
	}

	p, err = ReadPacket(&stream)
	if err != nil {
		t.Fatalf("second packet: %v", err)
	}
	if ep, ok := p.(*ExtendedPacket); !ok || ep.Timestamp != 1.5 {
		t.Errorf("unexpected second packet %+v", p)
	}

	if _, err := ReadPacket(&stream); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF for truncated body, got %v", err)
	}
	if _, err := ReadPacket(&stream); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF at end of stream, got %v", err)
	}
}

func TestReadPacket_UnknownVersion(t *testing.T) {
	b := make([]byte, LegacySize)
	binary.LittleEndian.PutUint32(b, 7)
	if _, err := ReadPacket(bytes.NewReader(b)); !errors.Is(err, ErrUnknownVersion) {
		t.Errorf("expected ErrUnknownVersion, got %v", err)
	}
}
