package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"embedded-assistant/internal/domain"
)

var ErrServer = errors.New("assistant server error")

type Options struct {
	SampleRate int
	// Volume is the initial playback volume in percent, reported to the
	// service and applied to the stream.
	Volume   int
	Deadline time.Duration
	// OneShot runs a single turn without waiting for the trigger, as when
	// reading from and writing to files.
	OneShot bool
}

type Assistant struct {
	stream  Conversation
	service ConverseService
	trigger Trigger
	opts    Options
	logger  *slog.Logger

	conversationState []byte
	volume            int
}

func NewAssistant(
	stream Conversation,
	service ConverseService,
	trigger Trigger,
	opts Options,
	logger *slog.Logger,
) *Assistant {
	if opts.SampleRate == 0 {
		opts.SampleRate = domain.DefaultSampleRate
	}
	if opts.Deadline == 0 {
		opts.Deadline = domain.DefaultDeadline
	}
	if opts.Volume == 0 {
		opts.Volume = 50
	}
	if trigger == nil {
		trigger = &NoopTrigger{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	stream.SetVolume(opts.Volume)

	return &Assistant{
		stream:  stream,
		service: service,
		trigger: trigger,
		opts:    opts,
		logger:  logger,
		volume:  opts.Volume,
	}
}

// Run converses until ctx is cancelled. A new turn waits for the trigger
// unless the service asked for a follow-on query.
func (a *Assistant) Run(ctx context.Context) error {
	waitForTrigger := !a.opts.OneShot

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if waitForTrigger {
			if err := a.trigger.Wait(ctx); err != nil {
				return err
			}
		}

		mode, err := a.Converse(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if a.opts.OneShot {
				return err
			}
			a.logger.Error("conversation turn", "error", err)
		}

		if a.opts.OneShot {
			return nil
		}

		switch mode {
		case domain.MicrophoneDialogFollowOn:
			waitForTrigger = false
		case domain.MicrophoneClose:
			waitForTrigger = true
		}
	}
}

// Converse runs one turn: audio is streamed to the service while recording,
// and the response audio is played once every request has been sent.
func (a *Assistant) Converse(ctx context.Context) (domain.MicrophoneMode, error) {
	logger := a.logger.With("turn", uuid.NewString())

	ctx, cancel := context.WithTimeout(ctx, a.opts.Deadline)
	defer cancel()

	if err := a.stream.StartRecording(); err != nil {
		return domain.MicrophoneModeUnspecified, fmt.Errorf("starting recording: %w", err)
	}
	logger.Info("recording audio request")

	conv, err := a.service.Converse(ctx)
	if err != nil {
		a.stream.StopRecording()
		a.stopPlayback(logger)
		return domain.MicrophoneModeUnspecified, fmt.Errorf("opening converse stream: %w", err)
	}

	cfg := a.converseConfig()
	sendErr := make(chan error, 1)
	go func() {
		sendErr <- a.sendRequests(conv, cfg, logger)
	}()

	mode, recvErr := a.receiveResponses(conv, logger)

	// Ends the request loop if the service never reported the end of the
	// utterance.
	a.stream.StopRecording()
	if recvErr != nil {
		cancel()
	}
	err = <-sendErr

	a.stopPlayback(logger)
	logger.Info("finished playing assistant response")

	if recvErr != nil {
		return mode, recvErr
	}
	return mode, err
}

func (a *Assistant) sendRequests(conv ConverseStream, cfg domain.ConverseConfig, logger *slog.Logger) error {
	defer a.stream.StartPlayback()

	if len(cfg.ConversationState) > 0 {
		logger.Debug("sending conversation state", "bytes", len(cfg.ConversationState))
	}
	req := &domain.ConverseRequest{Config: &cfg}
	logRequest(logger, req)
	if err := conv.Send(req); err != nil {
		return sendError(err)
	}

	for chunk := range a.stream.Chunks() {
		req := &domain.ConverseRequest{AudioIn: chunk}
		logRequest(logger, req)
		if err := conv.Send(req); err != nil {
			return sendError(err)
		}
	}

	if err := conv.CloseSend(); err != nil {
		return fmt.Errorf("closing request stream: %w", err)
	}
	return nil
}

// io.EOF from Send means the service ended the call; the reason surfaces
// from Recv.
func sendError(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("sending converse request: %w", err)
}

func (a *Assistant) receiveResponses(conv ConverseStream, logger *slog.Logger) (domain.MicrophoneMode, error) {
	mode := domain.MicrophoneModeUnspecified

	for {
		resp, err := conv.Recv()
		if errors.Is(err, io.EOF) {
			return mode, nil
		}
		if err != nil {
			return mode, fmt.Errorf("receiving converse response: %w", err)
		}
		logResponse(logger, resp)

		if !resp.Error.OK() {
			logger.Error("server error", "code", resp.Error.Code, "message", resp.Error.Message)
			return mode, fmt.Errorf("%w: %s", ErrServer, resp.Error.Message)
		}

		if resp.EventType == domain.EventEndOfUtterance {
			logger.Info("end of audio request detected")
			a.stream.StopRecording()
		}

		if len(resp.AudioOut) > 0 {
			if _, err := a.stream.Write(resp.AudioOut); err != nil {
				return mode, fmt.Errorf("playing response audio: %w", err)
			}
		}

		if r := resp.Result; r != nil {
			if m := a.applyResult(r, logger); m != domain.MicrophoneModeUnspecified {
				mode = m
			}
		}
	}
}

func (a *Assistant) applyResult(r *domain.ConverseResult, logger *slog.Logger) domain.MicrophoneMode {
	if r.SpokenRequestText != "" {
		logger.Info("transcript of user request", "text", r.SpokenRequestText)
		logger.Info("playing assistant response")
	}
	if r.SpokenResponseText != "" {
		logger.Info("transcript of TTS response", "text", r.SpokenResponseText)
	}
	if len(r.ConversationState) > 0 {
		a.conversationState = r.ConversationState
	}
	if r.VolumePercentage != 0 {
		a.volume = r.VolumePercentage
		a.stream.SetVolume(r.VolumePercentage)
		logger.Info("volume set", "percent", r.VolumePercentage)
	}

	switch r.MicrophoneMode {
	case domain.MicrophoneDialogFollowOn:
		logger.Info("expecting follow-on query from user")
	case domain.MicrophoneClose:
		logger.Debug("microphone closed by service")
	}
	return r.MicrophoneMode
}

func (a *Assistant) converseConfig() domain.ConverseConfig {
	return domain.ConverseConfig{
		AudioIn: domain.AudioInConfig{
			Encoding:        domain.EncodingLinear16,
			SampleRateHertz: a.opts.SampleRate,
		},
		AudioOut: domain.AudioOutConfig{
			Encoding:         domain.EncodingLinear16,
			SampleRateHertz:  a.opts.SampleRate,
			VolumePercentage: a.volume,
		},
		ConversationState: a.conversationState,
	}
}

// stopPlayback logs device errors instead of failing the turn.
func (a *Assistant) stopPlayback(logger *slog.Logger) {
	if err := a.stream.StopPlayback(); err != nil {
		logger.Warn("stopping playback", "error", err)
	}
}

func logRequest(logger *slog.Logger, req *domain.ConverseRequest) {
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	if len(req.AudioIn) > 0 {
		logger.Debug("converse request", "audio_in_bytes", len(req.AudioIn))
		return
	}
	if c := req.Config; c != nil {
		logger.Debug("converse request",
			"sample_rate", c.AudioIn.SampleRateHertz,
			"volume", c.AudioOut.VolumePercentage,
			"state_bytes", len(c.ConversationState),
		)
	}
}

func logResponse(logger *slog.Logger, resp *domain.ConverseResponse) {
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	attrs := []any{}
	if resp.EventType != domain.EventTypeUnspecified {
		attrs = append(attrs, "event_type", resp.EventType.String())
	}
	if len(resp.AudioOut) > 0 {
		attrs = append(attrs, "audio_data_bytes", len(resp.AudioOut))
	}
	if r := resp.Result; r != nil {
		attrs = append(attrs, "microphone_mode", r.MicrophoneMode.String())
	}
	logger.Debug("converse response", attrs...)
}
