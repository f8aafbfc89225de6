package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlignBuffer(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"foo", 2, "foo\x00"},
		{"foobar", 2, "foobar"},
		{"foo", 6, "foo\x00\x00\x00"},
		{"", 2, ""},
		{"a", 1, "a"},
	}

	for _, tt := range tests {
		assert.Equal(t, []byte(tt.want), AlignBuffer([]byte(tt.in), tt.width), "%q/%d", tt.in, tt.width)
	}
}

func TestNormalizeVolume(t *testing.T) {
	assert.Empty(t, NormalizeVolume([]byte{}, 100))
	assert.Equal(t, []byte("foobar"), NormalizeVolume([]byte("foobar"), 100))
	assert.Equal(t, []byte{0xd4, 0x00, 0xa9, 0x01}, NormalizeVolume([]byte{0x01, 0x02, 0x03, 0x04}, 50))
	assert.Equal(t, []byte{0, 0, 0, 0}, NormalizeVolume([]byte{0x01, 0x02, 0xff, 0xff}, 0))
}

func TestNormalizeVolume_NegativeSamples(t *testing.T) {
	// -1000 scaled by 2^0.5-1 truncates toward zero to -414.
	in := int16sToBytes([]int16{-1000})
	out := NormalizeVolume(in, 50)
	assert.Equal(t, []int{-414}, bytesToInts(out))
}

func TestSampleConversions(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768}
	raw := int16sToBytes(samples)
	assert.Equal(t, []int{0, 1, -1, 32767, -32768}, bytesToInts(raw))

	dst := make([]int16, 7)
	bytesToInt16s(dst, raw)
	assert.Equal(t, []int16{0, 1, -1, 32767, -32768, 0, 0}, dst)

	assert.Equal(t, make([]byte, 5), Silence(5))
}
