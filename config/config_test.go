package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embedded-assistant/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, 16000, cfg.Audio.SampleRate)
	assert.Equal(t, 2, cfg.Audio.SampleWidth)
	assert.Equal(t, 3200, cfg.Audio.IterSize)
	assert.Equal(t, 6400, cfg.Audio.BlockSize)
	assert.Equal(t, 25600, cfg.Audio.FlushSize)
	assert.Equal(t, 50, cfg.Audio.Volume)
	assert.Equal(t, "embeddedassistant.googleapis.com", cfg.Assistant.Endpoint)
	assert.Contains(t, cfg.Assistant.Credentials, "credentials.json")
	assert.Len(t, cfg.Assistant.Scopes, 1)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)

	d, err := cfg.DeadlineDuration()
	require.NoError(t, err)
	assert.Equal(t, 185*time.Second, d)
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("ASSISTANT_CREDS", "/tmp/creds.json")
	cfg, err := config.Load(writeConfig(t, `
audio:
  input_file: in.wav
  volume: 80
assistant:
  credentials: ${ASSISTANT_CREDS}
  deadline: 30s
log:
  level: debug
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/creds.json", cfg.Assistant.Credentials)
	assert.Equal(t, "in.wav", cfg.Audio.InputFile)
	assert.Equal(t, 80, cfg.Audio.Volume)
	assert.Equal(t, "debug", cfg.Log.Level)

	d, err := cfg.DeadlineDuration()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := config.Load(writeConfig(t, `
audio:
  sample_width: 3
  iter_size: 3201
  volume: 150
assistant:
  deadline: soon
log:
  format: xml
`))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "audio.sample_width")
	assert.Contains(t, msg, "audio.iter_size")
	assert.Contains(t, msg, "audio.volume")
	assert.Contains(t, msg, "assistant.deadline")
	assert.Contains(t, msg, "log.format")
}

func TestValidate_SizesUseSupportedWidth(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.SampleWidth = 3
	cfg.Audio.IterSize = 3201
	cfg.Audio.BlockSize = 6402

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audio.sample_width")
	assert.Contains(t, err.Error(), "audio.iter_size")
	assert.NotContains(t, err.Error(), "audio.block_size")
}

func TestAudioConfig_OneShot(t *testing.T) {
	assert.False(t, config.AudioConfig{}.OneShot())
	assert.True(t, config.AudioConfig{InputFile: "in.wav"}.OneShot())
	assert.True(t, config.AudioConfig{OutputFile: "out.wav"}.OneShot())
	assert.True(t, config.AudioConfig{InputFile: "in.wav", OutputFile: "out.wav"}.OneShot())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := config.LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, config.Default(), cfg)

	_, err = config.LoadOrDefault(writeConfig(t, "log:\n  level: loud\n"))
	assert.Error(t, err)
}
