package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/babelforce/rtvi-go/audio"
)

type AppConfig struct {
	Sidecar  SidecarConfig  `yaml:"sidecar"`
	Client   ClientConfig   `yaml:"client"`
	Speaking SpeakingConfig `yaml:"speaking"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

type SidecarConfig struct {
	URL            string        `yaml:"url"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	PingInterval   time.Duration `yaml:"pingInterval"`
}

type ClientConfig struct {
	EnableMic          bool          `yaml:"enableMic"`
	EnableCam          bool          `yaml:"enableCam"`
	ConnectTimeout     time.Duration `yaml:"connectTimeout"`
	AudioLevelInterval time.Duration `yaml:"audioLevelInterval"`
}

type SpeakingConfig struct {
	Local          bool          `yaml:"local"`
	LocalThreshold float32       `yaml:"localThreshold"`
	BotThreshold   float32       `yaml:"botThreshold"`
	SilenceDelay   time.Duration `yaml:"silenceDelay"`
}

type MetricsConfig struct {
	// Addr of the prometheus endpoint, empty disables it.
	Addr string `yaml:"addr"`
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	NoColor bool   `yaml:"noColor"`
}

func (c LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

func DefaultAppConfig() AppConfig {
	return AppConfig{
		Sidecar: SidecarConfig{
			URL:            "ws://127.0.0.1:8765/call",
			ConnectTimeout: 10 * time.Second,
			RequestTimeout: 5 * time.Second,
			PingInterval:   5 * time.Second,
		},
		Client: ClientConfig{
			EnableMic:          true,
			EnableCam:          false,
			ConnectTimeout:     30 * time.Second,
			AudioLevelInterval: 100 * time.Millisecond,
		},
		Speaking: SpeakingConfig{
			Local:          true,
			LocalThreshold: audio.DefaultThreshold,
			BotThreshold:   audio.BotThreshold,
			SilenceDelay:   audio.DefaultSilenceDelay,
		},
		Metrics: MetricsConfig{
			Addr: "",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path on top of the defaults. An empty path or
// an empty file yields the defaults.
func Load(path string) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if path == "" {
		return &cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		if !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		slog.Warn("config file is empty, using defaults", "file", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func (c *AppConfig) Validate() error {
	if c.Sidecar.URL == "" {
		return errors.New("sidecar.url is required")
	}
	if c.Speaking.LocalThreshold < 0 || c.Speaking.BotThreshold < 0 {
		return errors.New("speaking thresholds must not be negative")
	}
	if c.Client.AudioLevelInterval <= 0 {
		return errors.New("client.audioLevelInterval must be positive")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}
