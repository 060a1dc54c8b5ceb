package voice

import (
	"encoding/binary"
	"testing"
	"time"
)

func TestDecodePCM16(t *testing.T) {
	data := make([]byte, 6)
	binary.LittleEndian.PutUint16(data[0:], uint16(0))
	binary.LittleEndian.PutUint16(data[2:], uint16(16384))
	minSample := int16(-32768)
	binary.LittleEndian.PutUint16(data[4:], uint16(minSample))

	got := DecodePCM16(data)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0] != 0 {
		t.Errorf("sample 0 = %v, want 0", got[0])
	}
	if got[1] != 0.5 {
		t.Errorf("sample 1 = %v, want 0.5", got[1])
	}
	if got[2] != -1 {
		t.Errorf("sample 2 = %v, want -1", got[2])
	}
}

func TestDecodePCM16_OddTrailingByte(t *testing.T) {
	if got := DecodePCM16([]byte{0x00, 0x40, 0x7F}); len(got) != 1 {
		t.Errorf("len = %d, want trailing byte ignored", len(got))
	}
}

func TestEncodePCM16_RoundTripAndClamp(t *testing.T) {
	encoded := EncodePCM16([]float32{0, 0.5, -1, 2, -2})
	got := DecodePCM16(encoded)
	if got[3] < 0.99 {
		t.Errorf("over-range sample = %v, want clamped near 1", got[3])
	}
	if got[4] > -0.99 {
		t.Errorf("under-range sample = %v, want clamped near -1", got[4])
	}
}

func TestDuration(t *testing.T) {
	if got := Duration(24000, 24000); got != time.Second {
		t.Errorf("Duration = %v, want 1s", got)
	}
	if got := Duration(12000, 24000); got != 500*time.Millisecond {
		t.Errorf("Duration = %v, want 500ms", got)
	}
}

func TestSine(t *testing.T) {
	samples := Sine(880, 500*time.Millisecond, 24000)
	if len(samples) != 12000 {
		t.Fatalf("len = %d, want 12000", len(samples))
	}
	var peak float32
	for _, s := range samples {
		if s > peak {
			peak = s
		}
	}
	if peak < 0.25 || peak > 0.31 {
		t.Errorf("peak = %v, want about 0.3 amplitude", peak)
	}
}

func TestEncodeWAV_Header(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	wav := EncodeWAV(pcm, 24000)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("len = %d, want 44-byte header plus data", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint32(wav[24:]); got != 24000 {
		t.Errorf("sample rate = %d, want 24000", got)
	}
	if got := binary.LittleEndian.Uint16(wav[22:]); got != 1 {
		t.Errorf("channels = %d, want mono", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:]); got != uint32(len(pcm)) {
		t.Errorf("data size = %d, want %d", got, len(pcm))
	}
}
