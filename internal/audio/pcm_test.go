package audio

import (
	"bytes"
	"testing"
)

func TestPCM16LERoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345, -12345}
	encoded := EncodePCM16LE(samples)
	if len(encoded) != len(samples)*2 {
		t.Fatalf("encoded length = %d, want %d", len(encoded), len(samples)*2)
	}
	decoded := DecodePCM16LE(encoded)
	if len(decoded) != len(samples) {
		t.Fatalf("decoded length = %d, want %d", len(decoded), len(samples))
	}
	for i := range samples {
		if decoded[i] != samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, decoded[i], samples[i])
		}
	}
}

func TestEncodePCM16LEKnownBytes(t *testing.T) {
	got := EncodePCM16LE([]int16{0, 1, -1, 32767, -32768})
	want := []byte{0x00, 0x00, 0x01, 0x00, 0xFF, 0xFF, 0xFF, 0x7F, 0x00, 0x80}
	if !bytes.Equal(got, want) {
		t.Fatalf("encoded bytes = %x, want %x", got, want)
	}
}

func TestClampToInt16(t *testing.T) {
	got := ClampToInt16([]int{0, 40000, -40000, 32767, -32768})
	want := []int16{0, 32767, -32768, 32767, -32768}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("value %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestFloat32FromPCM16(t *testing.T) {
	out := Float32FromPCM16([]int16{-32768, 0, 16384})
	if out[0] != -1 {
		t.Fatalf("min sample = %v, want -1", out[0])
	}
	if out[1] != 0 {
		t.Fatalf("zero sample = %v, want 0", out[1])
	}
	if out[2] != 0.5 {
		t.Fatalf("half sample = %v, want 0.5", out[2])
	}
}

func TestWAVRoundTrip(t *testing.T) {
	pcm := EncodePCM16LE([]int16{1, 2, 3, -4})
	wav, err := EncodeWAVPCM16LE(pcm, 16000)
	if err != nil {
		t.Fatalf("EncodeWAVPCM16LE() error = %v", err)
	}
	gotPCM, rate, err := DecodeWAVPCM16LE(wav)
	if err != nil {
		t.Fatalf("DecodeWAVPCM16LE() error = %v", err)
	}
	if rate != 16000 {
		t.Fatalf("sample rate = %d, want 16000", rate)
	}
	if !bytes.Equal(gotPCM, pcm) {
		t.Fatalf("pcm = %x, want %x", gotPCM, pcm)
	}
}

func TestDecodeWAVRejectsRawPCM(t *testing.T) {
	raw := EncodePCM16LE([]int16{9, 8, 7, 6, 5, 4, 3, 2, 1, 0, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0, 1, 2})
	if _, _, err := DecodeWAVPCM16LE(raw); err == nil {
		t.Fatalf("expected error for raw PCM input")
	}
}
