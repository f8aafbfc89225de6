package domain

import "time"

// Recommended audio settings. Using the same rate for input and output lets a
// single device stream serve both directions.
const (
	DefaultSampleRate      = 16000
	DefaultSampleWidth     = 2
	DefaultIterSize        = 3200
	DefaultDeviceBlockSize = 6400
	DefaultDeviceFlushSize = 25600
	DefaultDeadline        = 185 * time.Second
)

// AudioFormat describes interleaved LINEAR16 audio.
type AudioFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// BytesPerSecond is the LINEAR16 data rate of the format.
func (f AudioFormat) BytesPerSecond() int {
	return f.SampleRate * f.Channels * f.BitDepth / 8
}
