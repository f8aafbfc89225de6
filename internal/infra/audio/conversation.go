package audio

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
)

// ConversationStream coordinates a half-duplex conversation over a source and
// a sink, which may be the same device.
//
// Expected usage, for each conversation turn:
//
//	StartRecording, Read or Chunks, StopRecording,
//	StartPlayback, Write, StopPlayback
//
// and Close once all turns are done.
type ConversationStream struct {
	source      Source
	sink        Sink
	shared      bool
	iterSize    int
	sampleWidth int
	volume      atomic.Int32
	logger      *slog.Logger

	recordingStopped *Event
	playbackStarted  *Event
	closed           *Event
	closeOnce        sync.Once
	closeErr         error
}

type ConversationConfig struct {
	IterSize    int
	SampleWidth int
}

func NewConversationStream(source Source, sink Sink, cfg ConversationConfig, logger *slog.Logger) (*ConversationStream, error) {
	if source == nil || sink == nil {
		return nil, errors.New("conversation stream needs a source and a sink")
	}
	if cfg.IterSize <= 0 {
		return nil, fmt.Errorf("iter size must be positive, got %d", cfg.IterSize)
	}
	if cfg.SampleWidth <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSampleWidth, cfg.SampleWidth)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &ConversationStream{
		source:           source,
		sink:             sink,
		shared:           sameDevice(source, sink),
		iterSize:         cfg.IterSize,
		sampleWidth:      cfg.SampleWidth,
		logger:           logger,
		recordingStopped: NewEvent(),
		playbackStarted:  NewEvent(),
		closed:           NewEvent(),
	}
	s.volume.Store(100)
	return s, nil
}

func sameDevice(source Source, sink Sink) bool {
	s, ok := sink.(Source)
	if !ok || !reflect.TypeOf(s).Comparable() || !reflect.TypeOf(source).Comparable() {
		return false
	}
	return s == source
}

func (s *ConversationStream) StartRecording() error {
	if s.closed.IsSet() {
		return ErrStreamClosed
	}
	s.recordingStopped.Clear()
	if err := s.source.Start(); err != nil {
		return fmt.Errorf("starting source: %w", err)
	}
	if !s.shared {
		if err := s.sink.Start(); err != nil {
			return fmt.Errorf("starting sink: %w", err)
		}
	}
	return nil
}

// StopRecording makes every following Read return an empty chunk. The device
// itself keeps running until StopPlayback.
func (s *ConversationStream) StopRecording() {
	s.recordingStopped.Set()
}

func (s *ConversationStream) Recording() bool {
	return !s.recordingStopped.IsSet()
}

// Read returns an empty chunk without blocking once recording is stopped.
func (s *ConversationStream) Read(size int) ([]byte, error) {
	if s.recordingStopped.IsSet() {
		return []byte{}, nil
	}
	return s.source.Read(size)
}

// Chunks yields IterSize chunks until Read returns an empty one. A read error
// ends the sequence and is logged.
func (s *ConversationStream) Chunks() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for {
			chunk, err := s.Read(s.iterSize)
			if err != nil {
				s.logger.Warn("reading audio chunk", "error", err)
				return
			}
			if len(chunk) == 0 {
				return
			}
			if !yield(chunk) {
				return
			}
		}
	}
}

// StartPlayback releases writers blocked in Write.
func (s *ConversationStream) StartPlayback() {
	s.playbackStarted.Set()
}

func (s *ConversationStream) Playing() bool {
	return s.playbackStarted.IsSet()
}

func (s *ConversationStream) StopPlayback() error {
	s.playbackStarted.Clear()

	var errs []error
	if err := s.source.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stopping source: %w", err))
	}
	if !s.shared {
		if err := s.sink.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stopping sink: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Write blocks until StartPlayback has been called, then writes p aligned to
// the sample width and scaled to the current volume.
func (s *ConversationStream) Write(p []byte) (int, error) {
	select {
	case <-s.playbackStarted.Done():
	case <-s.closed.Done():
		return 0, ErrStreamClosed
	}
	if s.closed.IsSet() {
		return 0, ErrStreamClosed
	}

	buf := AlignBuffer(p, s.sampleWidth)
	buf = NormalizeVolume(buf, s.Volume())
	return s.sink.Write(buf)
}

func (s *ConversationStream) SetVolume(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	s.volume.Store(int32(percent))
}

func (s *ConversationStream) Volume() int {
	return int(s.volume.Load())
}

func (s *ConversationStream) SampleWidth() int {
	return s.sampleWidth
}

// Close releases the source and the sink. Writers still waiting for playback
// return ErrStreamClosed.
func (s *ConversationStream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Set()
		s.recordingStopped.Set()

		var errs []error
		if err := s.source.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing source: %w", err))
		}
		if !s.shared {
			if err := s.sink.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing sink: %w", err))
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
