//go:build portaudio
// +build portaudio

package audio

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// DeviceStream is a full-duplex sound device usable as both the Source and
// the Sink of a ConversationStream.
type DeviceStream struct {
	cfg    DeviceConfig
	stream *portaudio.Stream
	in     []int16
	out    []int16
	logger *slog.Logger

	ioMu    sync.Mutex
	pending []byte

	mu      sync.Mutex
	started bool
	closed  bool
}

func NewDeviceStream(cfg DeviceConfig, logger *slog.Logger) (*DeviceStream, error) {
	if cfg.SampleWidth != 2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSampleWidth, cfg.SampleWidth)
	}
	if cfg.BlockSize <= 0 || cfg.BlockSize%cfg.SampleWidth != 0 {
		return nil, fmt.Errorf("block size must be a positive multiple of %d, got %d", cfg.SampleWidth, cfg.BlockSize)
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}

	frames := cfg.BlockSize / cfg.SampleWidth
	in := make([]int16, frames)
	out := make([]int16, frames)

	stream, err := portaudio.OpenDefaultStream(1, 1, float64(cfg.SampleRate), frames, in, out)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("opening stream: %w", err)
	}

	logger.Info("sound device opened",
		"sample_rate", cfg.SampleRate,
		"block_size", cfg.BlockSize,
		"flush_size", cfg.FlushSize,
	)

	return &DeviceStream{
		cfg:    cfg,
		stream: stream,
		in:     in,
		out:    out,
		logger: logger,
	}, nil
}

// Read blocks until size bytes have been captured.
func (d *DeviceStream) Read(size int) ([]byte, error) {
	d.ioMu.Lock()
	defer d.ioMu.Unlock()

	for len(d.pending) < size {
		if err := d.stream.Read(); err != nil {
			if err != portaudio.InputOverflowed {
				return nil, fmt.Errorf("reading from stream: %w", err)
			}
			d.logger.Warn("sound device read overflow", "size", size, "buffered", len(d.pending))
		}
		d.pending = append(d.pending, int16sToBytes(d.in)...)
	}

	buf := make([]byte, size)
	copy(buf, d.pending)
	d.pending = d.pending[size:]
	return buf, nil
}

// Write plays p block by block. The last partial block is padded with silence.
func (d *DeviceStream) Write(p []byte) (int, error) {
	d.ioMu.Lock()
	defer d.ioMu.Unlock()

	if err := d.writeBlocks(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (d *DeviceStream) writeBlocks(p []byte) error {
	for off := 0; off < len(p); off += d.cfg.BlockSize {
		end := min(off+d.cfg.BlockSize, len(p))
		bytesToInt16s(d.out, p[off:end])
		if err := d.stream.Write(); err != nil {
			if err != portaudio.OutputUnderflowed {
				return fmt.Errorf("writing to stream: %w", err)
			}
			d.logger.Warn("sound device write underflow", "size", end-off)
		}
	}
	return nil
}

func (d *DeviceStream) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrStreamClosed
	}
	if d.started {
		return nil
	}
	if err := d.stream.Start(); err != nil {
		return fmt.Errorf("starting stream: %w", err)
	}

	d.ioMu.Lock()
	d.pending = nil
	d.ioMu.Unlock()

	d.started = true
	return nil
}

// Stop flushes FlushSize bytes of silence so the tail of the playback is
// heard, then stops the device.
func (d *DeviceStream) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked()
}

func (d *DeviceStream) stopLocked() error {
	if !d.started {
		return nil
	}

	if d.cfg.FlushSize > 0 {
		d.ioMu.Lock()
		err := d.writeBlocks(Silence(d.cfg.FlushSize))
		d.ioMu.Unlock()
		if err != nil {
			d.logger.Warn("flushing sound device", "error", err)
		}
	}

	if err := d.stream.Stop(); err != nil {
		return fmt.Errorf("stopping stream: %w", err)
	}
	d.started = false
	return nil
}

func (d *DeviceStream) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	if err := d.stopLocked(); err != nil {
		d.logger.Warn("stopping sound device on close", "error", err)
	}
	if err := d.stream.Close(); err != nil {
		return fmt.Errorf("closing stream: %w", err)
	}
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("terminating portaudio: %w", err)
	}
	return nil
}

// ListDevices returns the sound devices known to PortAudio.
func ListDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	defaultInput, err := portaudio.DefaultInputDevice()
	if err != nil {
		defaultInput = nil
	}

	result := make([]DeviceInfo, 0, len(devices))
	for i, dev := range devices {
		result = append(result, DeviceInfo{
			ID:             i,
			Name:           dev.Name,
			InputChannels:  dev.MaxInputChannels,
			OutputChannels: dev.MaxOutputChannels,
			IsDefault:      defaultInput != nil && dev.Name == defaultInput.Name,
		})
	}
	return result, nil
}
