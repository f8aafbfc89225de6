package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WaveSource reads PCM audio from a WAV file at real-time pace. Files without
// a valid WAV header are read as raw PCM.
type WaveSource struct {
	*SampleRateLimiter
	file *os.File
}

func OpenWaveSource(path string, sampleRate, sampleWidth int, logger *slog.Logger, opts ...LimiterOption) (*WaveSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input audio file: %w", err)
	}

	pcm, err := pcmReader(f, sampleRate, logger)
	if err != nil {
		f.Close()
		return nil, err
	}

	limiter, err := NewSampleRateLimiter(pcm, sampleRate, sampleWidth, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &WaveSource{SampleRateLimiter: limiter, file: f}, nil
}

func pcmReader(f *os.File, sampleRate int, logger *slog.Logger) (io.Reader, error) {
	dec := wav.NewDecoder(f)
	if dec.IsValidFile() {
		if err := dec.FwdToPCM(); err != nil {
			return nil, fmt.Errorf("seeking to PCM data: %w", err)
		}
		if int(dec.SampleRate) != sampleRate {
			logger.Warn("WAV sample rate differs from configured rate",
				"file_rate", dec.SampleRate,
				"configured_rate", sampleRate,
			)
		}
		return io.LimitReader(dec.PCMChunk, dec.PCMLen()), nil
	}

	logger.Warn("input is not a WAV file, falling back to raw PCM", "file", f.Name())
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding raw input: %w", err)
	}
	return f, nil
}

func (w *WaveSource) Close() error {
	return w.file.Close()
}

// WaveSink writes mono PCM audio into a WAV container. Header sizes are fixed
// up on Close.
type WaveSink struct {
	mu         sync.Mutex
	file       *os.File
	enc        *wav.Encoder
	format     *goaudio.Format
	sampleRate int
	wrote      bool
	closed     bool
}

func CreateWaveSink(path string, sampleRate, sampleWidth int) (*WaveSink, error) {
	if sampleWidth != 2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSampleWidth, sampleWidth)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output audio file: %w", err)
	}

	return newWaveSink(f, sampleRate, sampleWidth), nil
}

func newWaveSink(f *os.File, sampleRate, sampleWidth int) *WaveSink {
	return &WaveSink{
		file:       f,
		enc:        wav.NewEncoder(f, sampleRate, sampleWidth*8, 1, 1),
		format:     &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		sampleRate: sampleRate,
	}
}

func (w *WaveSink) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrStreamClosed
	}

	buf := &goaudio.IntBuffer{
		Format:         w.format,
		Data:           bytesToInts(p),
		SourceBitDepth: 16,
	}
	if err := w.enc.Write(buf); err != nil {
		return 0, fmt.Errorf("encoding WAV frames: %w", err)
	}
	w.wrote = true
	return len(p), nil
}

func (w *WaveSink) Start() error { return nil }
func (w *WaveSink) Stop() error  { return nil }

func (w *WaveSink) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	if !w.wrote {
		// Headers are emitted with the first frames.
		empty := &goaudio.IntBuffer{Format: w.format, SourceBitDepth: 16}
		if err := w.enc.Write(empty); err != nil {
			errs = append(errs, fmt.Errorf("writing WAV header: %w", err))
		}
	}
	errs = append(errs, w.enc.Close(), w.file.Close())
	return errors.Join(errs...)
}
