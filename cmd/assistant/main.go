package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"embedded-assistant/config"
	"embedded-assistant/internal/application"
	"embedded-assistant/internal/infra/assistant"
	"embedded-assistant/internal/infra/audio"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	inputFile := flag.String("i", "", "path to input audio file (default: audio device)")
	outputFile := flag.String("o", "", "path to output audio file (default: audio device)")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if *inputFile != "" {
		cfg.Audio.InputFile = *inputFile
	}
	if *outputFile != "" {
		cfg.Audio.OutputFile = *outputFile
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	logger, closeLog := setupLogger(cfg.Log)
	defer closeLog.Close()

	if err := run(cfg, logger); err != nil {
		logger.Error("assistant error", "error", err)
		closeLog.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	deadline, err := cfg.DeadlineDuration()
	if err != nil {
		return err
	}

	tokens, err := assistant.LoadCredentials(ctx, cfg.Assistant.Credentials, cfg.Assistant.Scopes)
	if err != nil {
		return fmt.Errorf("%w (run the auth helper first)", err)
	}

	conn, err := assistant.Dial(cfg.Assistant.Endpoint, tokens, assistant.DialOptions{
		SSLCredentialsFile: cfg.Assistant.SSLCredentialsFile,
	})
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Info("connecting", "endpoint", cfg.Assistant.Endpoint)

	stream, err := openConversation(cfg.Audio, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stream.Close(); err != nil {
			logger.Warn("closing audio stream", "error", err)
		}
	}()

	oneShot := cfg.Audio.OneShot()
	var trigger application.Trigger
	if !oneShot {
		trigger = application.NewLineTrigger(os.Stdin, os.Stdout, "Press Enter to send a new request...")
	}

	a := application.NewAssistant(
		stream,
		assistant.NewClient(conn, logger),
		trigger,
		application.Options{
			SampleRate: cfg.Audio.SampleRate,
			Volume:     cfg.Audio.Volume,
			Deadline:   deadline,
			OneShot:    oneShot,
		},
		logger,
	)

	logger.Info("starting embedded assistant",
		"input", describe(cfg.Audio.InputFile),
		"output", describe(cfg.Audio.OutputFile),
	)

	err = a.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func openConversation(cfg config.AudioConfig, logger *slog.Logger) (*audio.ConversationStream, error) {
	source, sink, err := createAudio(cfg, logger)
	if err != nil {
		return nil, err
	}

	stream, err := audio.NewConversationStream(source, sink, audio.ConversationConfig{
		IterSize:    cfg.IterSize,
		SampleWidth: cfg.SampleWidth,
	}, logger)
	if err != nil {
		closeAudio(source, sink, logger)
		return nil, err
	}
	return stream, nil
}

// createAudio opens the configured files, sharing one device stream when
// both directions use the sound card.
func createAudio(cfg config.AudioConfig, logger *slog.Logger) (audio.Source, audio.Sink, error) {
	var device *audio.DeviceStream
	openDevice := func() (*audio.DeviceStream, error) {
		if device != nil {
			return device, nil
		}
		d, err := audio.NewDeviceStream(audio.DeviceConfig{
			SampleRate:  cfg.SampleRate,
			SampleWidth: cfg.SampleWidth,
			BlockSize:   cfg.BlockSize,
			FlushSize:   cfg.FlushSize,
		}, logger)
		if err != nil {
			return nil, err
		}
		device = d
		return d, nil
	}

	var source audio.Source
	if cfg.InputFile != "" {
		s, err := audio.OpenWaveSource(cfg.InputFile, cfg.SampleRate, cfg.SampleWidth, logger)
		if err != nil {
			return nil, nil, err
		}
		source = s
	} else {
		d, err := openDevice()
		if err != nil {
			return nil, nil, err
		}
		source = d
	}

	var sink audio.Sink
	if cfg.OutputFile != "" {
		s, err := audio.CreateWaveSink(cfg.OutputFile, cfg.SampleRate, cfg.SampleWidth)
		if err != nil {
			source.Close()
			return nil, nil, err
		}
		sink = s
	} else {
		d, err := openDevice()
		if err != nil {
			source.Close()
			return nil, nil, err
		}
		sink = d
	}

	return source, sink, nil
}

// closeAudio releases endpoints that never made it into a stream. A shared
// device is closed once.
func closeAudio(source audio.Source, sink audio.Sink, logger *slog.Logger) {
	if err := source.Close(); err != nil {
		logger.Warn("closing audio source", "error", err)
	}
	if s, ok := sink.(audio.Source); ok && s == source {
		return
	}
	if err := sink.Close(); err != nil {
		logger.Warn("closing audio sink", "error", err)
	}
}

func describe(path string) string {
	if path == "" {
		return "audio device"
	}
	return path
}

func setupLogger(cfg config.LogConfig) (*slog.Logger, io.Closer) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var out io.Writer = os.Stdout
	var closer io.Closer = io.NopCloser(nil)
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		out = rotating
		closer = rotating
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler), closer
}
