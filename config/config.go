package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"embedded-assistant/internal/domain"
)

type Config struct {
	Audio     AudioConfig     `yaml:"audio"`
	Assistant AssistantConfig `yaml:"assistant"`
	Log       LogConfig       `yaml:"log"`
}

type AudioConfig struct {
	SampleRate  int `yaml:"sample_rate"`
	SampleWidth int `yaml:"sample_width"`
	IterSize    int `yaml:"iter_size"`
	BlockSize   int `yaml:"block_size"`
	FlushSize   int `yaml:"flush_size"`
	// InputFile and OutputFile replace the audio device when set.
	InputFile  string `yaml:"input_file"`
	OutputFile string `yaml:"output_file"`
	Volume     int    `yaml:"volume"`
}

// OneShot reports whether either direction uses a file. Such runs converse
// once without waiting for the user, and exit.
func (c AudioConfig) OneShot() bool {
	return c.InputFile != "" || c.OutputFile != ""
}

type AssistantConfig struct {
	Endpoint           string   `yaml:"endpoint"`
	Credentials        string   `yaml:"credentials"`
	ClientSecrets      string   `yaml:"client_secrets"`
	SSLCredentialsFile string   `yaml:"ssl_credentials_file"`
	Deadline           string   `yaml:"deadline"`
	Scopes             []string `yaml:"scopes"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

func (c *Config) setDefaults() {
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = domain.DefaultSampleRate
	}
	if c.Audio.SampleWidth == 0 {
		c.Audio.SampleWidth = domain.DefaultSampleWidth
	}
	if c.Audio.IterSize == 0 {
		c.Audio.IterSize = domain.DefaultIterSize
	}
	if c.Audio.BlockSize == 0 {
		c.Audio.BlockSize = domain.DefaultDeviceBlockSize
	}
	if c.Audio.FlushSize == 0 {
		c.Audio.FlushSize = domain.DefaultDeviceFlushSize
	}
	if c.Audio.Volume == 0 {
		c.Audio.Volume = 50
	}
	if c.Assistant.Endpoint == "" {
		c.Assistant.Endpoint = "embeddedassistant.googleapis.com"
	}
	if c.Assistant.Credentials == "" {
		c.Assistant.Credentials = defaultCredentialsPath()
	}
	if c.Assistant.Deadline == "" {
		c.Assistant.Deadline = domain.DefaultDeadline.String()
	}
	if len(c.Assistant.Scopes) == 0 {
		c.Assistant.Scopes = []string{"https://www.googleapis.com/auth/assistant-sdk-prototype"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
}

func defaultCredentialsPath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "credentials.json"
	}
	return filepath.Join(dir, ".config", "google-oauthlib-tool", "credentials.json")
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate))
	}
	// Sizes are checked against the only supported width.
	width := domain.DefaultSampleWidth
	if c.Audio.SampleWidth != width {
		errs = append(errs, fmt.Errorf("audio.sample_width must be %d, got %d", width, c.Audio.SampleWidth))
	}
	if c.Audio.IterSize <= 0 || c.Audio.IterSize%width != 0 {
		errs = append(errs, fmt.Errorf("audio.iter_size must be a positive multiple of %d, got %d", width, c.Audio.IterSize))
	}
	if c.Audio.BlockSize <= 0 || c.Audio.BlockSize%width != 0 {
		errs = append(errs, fmt.Errorf("audio.block_size must be a positive multiple of %d, got %d", width, c.Audio.BlockSize))
	}
	if c.Audio.FlushSize < 0 {
		errs = append(errs, fmt.Errorf("audio.flush_size must not be negative, got %d", c.Audio.FlushSize))
	}
	if c.Audio.Volume < 1 || c.Audio.Volume > 100 {
		errs = append(errs, fmt.Errorf("audio.volume must be between 1 and 100, got %d", c.Audio.Volume))
	}
	if _, err := c.DeadlineDuration(); err != nil {
		errs = append(errs, err)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}

	return errors.Join(errs...)
}

func (c *Config) DeadlineDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Assistant.Deadline)
	if err != nil {
		return 0, fmt.Errorf("assistant.deadline: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("assistant.deadline must be positive, got %s", d)
	}
	return d, nil
}
