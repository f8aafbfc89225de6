package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"
)

// SampleRateLimiter throttles reads from a recorded stream so that they
// arrive at the real-time cadence of sampleRate * bytesPerSample, the same
// pacing a live microphone would produce.
type SampleRateLimiter struct {
	r              io.Reader
	sampleRate     float64
	bytesPerSample float64

	now   func() time.Time
	sleep func(time.Duration)

	mu         sync.Mutex
	sleepUntil time.Time // zero value: no delay
}

type LimiterOption func(*SampleRateLimiter)

// WithClock replaces the wall clock. Used by tests.
func WithClock(now func() time.Time, sleep func(time.Duration)) LimiterOption {
	return func(l *SampleRateLimiter) {
		l.now = now
		l.sleep = sleep
	}
}

func NewSampleRateLimiter(r io.Reader, sampleRate, bytesPerSample int, opts ...LimiterOption) (*SampleRateLimiter, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if bytesPerSample <= 0 {
		return nil, fmt.Errorf("bytes per sample must be positive, got %d", bytesPerSample)
	}

	l := &SampleRateLimiter{
		r:              r,
		sampleRate:     float64(sampleRate),
		bytesPerSample: float64(bytesPerSample),
		now:            time.Now,
		sleep:          time.Sleep,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Read blocks until the previous read's worth of audio has elapsed, then
// returns exactly size bytes. Past the end of the stream the result is padded
// with silence.
func (l *SampleRateLimiter) Read(size int) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if missing := l.sleepUntil.Sub(l.now()); missing > 0 {
		l.sleep(missing)
	}
	l.sleepUntil = l.now().Add(l.SleepDuration(size))

	buf := make([]byte, size)
	if size == 0 {
		return buf, nil
	}
	// The unread tail of buf stays zeroed, which is the silence padding.
	if _, err := io.ReadFull(l.r, buf); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf, nil
}

// SleepTime is the playback duration of size bytes in seconds. It is kept as
// a float so that it stays linear in size for any byte count.
func (l *SampleRateLimiter) SleepTime(size int) float64 {
	samples := float64(size) / l.bytesPerSample
	return samples / l.sampleRate
}

// SleepDuration is SleepTime rounded to the nearest nanosecond.
func (l *SampleRateLimiter) SleepDuration(size int) time.Duration {
	return time.Duration(math.Round(l.SleepTime(size) * float64(time.Second)))
}

func (l *SampleRateLimiter) Start() error { return nil }
func (l *SampleRateLimiter) Stop() error  { return nil }

// Close releases the underlying reader if it can be closed.
func (l *SampleRateLimiter) Close() error {
	if c, ok := l.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
