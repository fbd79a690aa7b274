package audio

import "encoding/base64"

// EncodePCM16LE packs int16 mono samples as little-endian bytes.
func EncodePCM16LE(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		u := uint16(s)
		out[i*2] = byte(u)
		out[i*2+1] = byte(u >> 8)
	}
	return out
}

// DecodePCM16LE unpacks little-endian bytes into int16 mono samples.
// A trailing odd byte is ignored.
func DecodePCM16LE(data []byte) []int16 {
	n := len(data) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(uint16(data[i*2]) | uint16(data[i*2+1])<<8)
	}
	return out
}

// EncodePCM16Base64 packs samples as PCM16LE and base64-encodes the bytes.
// This is the wire format of input_audio_buffer.append.
func EncodePCM16Base64(samples []int16) string {
	return base64.StdEncoding.EncodeToString(EncodePCM16LE(samples))
}

// Float32FromPCM16 normalizes int16 samples to float32 in [-1, 1).
func Float32FromPCM16(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// ClampToInt16 converts arbitrary integers (as delivered in client audio
// frames) to int16 samples, clamping out-of-range values.
func ClampToInt16(values []int) []int16 {
	out := make([]int16, len(values))
	for i, v := range values {
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}
