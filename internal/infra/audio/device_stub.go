//go:build !portaudio
// +build !portaudio

package audio

import (
	"errors"
	"log/slog"
)

var errNoPortAudio = errors.New("sound device not available: rebuild with -tags portaudio")

// DeviceStream stub when portaudio is not available
type DeviceStream struct{}

func NewDeviceStream(_ DeviceConfig, _ *slog.Logger) (*DeviceStream, error) {
	return nil, errNoPortAudio
}

func (d *DeviceStream) Read(_ int) ([]byte, error)  { return nil, errNoPortAudio }
func (d *DeviceStream) Write(_ []byte) (int, error) { return 0, errNoPortAudio }
func (d *DeviceStream) Start() error                { return errNoPortAudio }
func (d *DeviceStream) Stop() error                 { return nil }
func (d *DeviceStream) Close() error                { return nil }

func ListDevices() ([]DeviceInfo, error) {
	return nil, errNoPortAudio
}
