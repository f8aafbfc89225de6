package audio

import "errors"

var (
	ErrStreamClosed           = errors.New("audio stream closed")
	ErrUnsupportedSampleWidth = errors.New("unsupported sample width")
)

// Source produces LINEAR16 audio. Read returns exactly size bytes unless the
// source has been stopped.
type Source interface {
	Read(size int) ([]byte, error)
	Start() error
	Stop() error
	Close() error
}

// Sink consumes LINEAR16 audio.
type Sink interface {
	Write(p []byte) (int, error)
	Start() error
	Stop() error
	Close() error
}

// DeviceConfig describes a sound device opened for both capture and playback.
type DeviceConfig struct {
	SampleRate  int
	SampleWidth int
	// BlockSize is the size in bytes of each device read and write.
	BlockSize int
	// FlushSize is the amount of silence in bytes written when the device stops.
	FlushSize int
}

type DeviceInfo struct {
	ID             int
	Name           string
	InputChannels  int
	OutputChannels int
	IsDefault      bool
}
