package audio

import (
	"encoding/binary"
	"math"
)

// AlignBuffer pads p with zeros up to a multiple of sampleWidth.
func AlignBuffer(p []byte, sampleWidth int) []byte {
	if sampleWidth <= 1 {
		return p
	}
	rem := len(p) % sampleWidth
	if rem == 0 {
		return p
	}
	out := make([]byte, len(p)+sampleWidth-rem)
	copy(out, p)
	return out
}

// NormalizeVolume scales little-endian int16 samples by 2^(percent/100)-1,
// so 100 leaves the buffer untouched and 0 mutes it.
func NormalizeVolume(p []byte, percent int) []byte {
	if percent == 100 || len(p) == 0 {
		return p
	}
	scale := math.Pow(2, float64(percent)/100) - 1

	out := make([]byte, len(p))
	n := len(p) &^ 1
	for i := 0; i < n; i += 2 {
		sample := int16(binary.LittleEndian.Uint16(p[i:]))
		scaled := clampInt16(float64(sample) * scale)
		binary.LittleEndian.PutUint16(out[i:], uint16(scaled))
	}
	copy(out[n:], p[n:])
	return out
}

func Silence(n int) []byte {
	return make([]byte, n)
}

func clampInt16(v float64) int16 {
	// Truncate toward zero.
	v = math.Trunc(v)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

func bytesToInts(p []byte) []int {
	out := make([]int, len(p)/2)
	for i := range out {
		out[i] = int(int16(binary.LittleEndian.Uint16(p[i*2:])))
	}
	return out
}

func int16sToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func bytesToInt16s(dst []int16, p []byte) {
	for i := range dst {
		if i*2+1 < len(p) {
			dst[i] = int16(binary.LittleEndian.Uint16(p[i*2:]))
		} else {
			dst[i] = 0
		}
	}
}
