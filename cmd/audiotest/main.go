// Command audiotest records a few seconds from the sound card and plays them
// back through the same half-duplex stream the assistant uses.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"embedded-assistant/config"
	"embedded-assistant/internal/domain"
	"embedded-assistant/internal/infra/audio"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	seconds := flag.Int("seconds", 5, "seconds of audio to record")
	list := flag.Bool("list", false, "list audio devices and exit")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if *list {
		if err := listDevices(); err != nil {
			logger.Error("listing devices", "error", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		logger.Error("loading config", "error", err)
		os.Exit(1)
	}

	if err := recordAndPlay(cfg.Audio, *seconds, logger); err != nil {
		logger.Error("audio test", "error", err)
		os.Exit(1)
	}
}

func listDevices() error {
	devices, err := audio.ListDevices()
	if err != nil {
		return err
	}
	for _, d := range devices {
		marker := " "
		if d.IsDefault {
			marker = "*"
		}
		fmt.Printf("%s %2d %-40s in=%d out=%d\n", marker, d.ID, d.Name, d.InputChannels, d.OutputChannels)
	}
	return nil
}

func recordAndPlay(cfg config.AudioConfig, seconds int, logger *slog.Logger) error {
	device, err := audio.NewDeviceStream(audio.DeviceConfig{
		SampleRate:  cfg.SampleRate,
		SampleWidth: cfg.SampleWidth,
		BlockSize:   cfg.BlockSize,
		FlushSize:   cfg.FlushSize,
	}, logger)
	if err != nil {
		return err
	}

	stream, err := audio.NewConversationStream(device, device, audio.ConversationConfig{
		IterSize:    cfg.IterSize,
		SampleWidth: cfg.SampleWidth,
	}, logger)
	if err != nil {
		device.Close()
		return err
	}
	defer stream.Close()
	stream.SetVolume(cfg.Volume)

	format := domain.AudioFormat{SampleRate: cfg.SampleRate, Channels: 1, BitDepth: cfg.SampleWidth * 8}
	want := seconds * format.BytesPerSecond()
	recorded := make([]byte, 0, want)

	logger.Info("recording", "seconds", seconds)
	if err := stream.StartRecording(); err != nil {
		return err
	}
	for chunk := range stream.Chunks() {
		recorded = append(recorded, chunk...)
		if len(recorded) >= want {
			stream.StopRecording()
		}
	}

	// The device keeps running between recording and playback.
	logger.Info("playing back", "bytes", len(recorded))
	stream.StartPlayback()
	for len(recorded) > 0 {
		n := min(cfg.IterSize, len(recorded))
		if _, err := stream.Write(recorded[:n]); err != nil {
			return err
		}
		recorded = recorded[n:]
	}
	return stream.StopPlayback()
}
