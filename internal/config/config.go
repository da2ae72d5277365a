package config

import (
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Config is the client configuration, loaded from a YAML file on top of the
// built-in defaults.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Audio  AudioConfig  `yaml:"audio"`
	Output OutputConfig `yaml:"output"`
}

type ServerConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type AudioConfig struct {
	SampleRate        int  `yaml:"sample_rate"`
	Channels          int  `yaml:"channels"`
	MaxCaptureSeconds int  `yaml:"max_capture_seconds"`
	Playback          bool `yaml:"playback"`
}

type OutputConfig struct {
	Dir         string `yaml:"dir"`
	SaveRecords bool   `yaml:"save_records"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 60,
		},
		Audio: AudioConfig{
			SampleRate:        16000,
			Channels:          1,
			MaxCaptureSeconds: 300,
			Playback:          true,
		},
		Output: OutputConfig{
			Dir:         "records",
			SaveRecords: true,
		},
	}
}

// Load reads the configuration from filename over the defaults and validates
// the result. A missing file yields the defaults.
func Load(filename string) (Config, error) {
	cfg := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("failed to read config file %s: %w", filename, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", filename, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Merge lays the set fields of override over this configuration. Used for
// command-line flags taking precedence over the file.
func (c *Config) Merge(override Config) error {
	return mergo.Merge(c, override, mergo.WithOverride)
}

// ApplyEnv overrides file values from the environment.
func (c *Config) ApplyEnv() {
	if url := os.Getenv("INTERVIEW_SERVER_URL"); url != "" {
		c.Server.BaseURL = url
	}
}

// Timeout returns the transport timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}

func (c Config) validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url must not be empty")
	}
	if c.Server.TimeoutSeconds <= 0 {
		return fmt.Errorf("server.timeout_seconds must be greater than 0")
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be greater than 0")
	}
	if c.Audio.Channels < 1 || c.Audio.Channels > 2 {
		return fmt.Errorf("audio.channels must be 1 or 2")
	}
	if c.Audio.MaxCaptureSeconds <= 0 {
		return fmt.Errorf("audio.max_capture_seconds must be greater than 0")
	}
	return nil
}
