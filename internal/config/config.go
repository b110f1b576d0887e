// Package config loads the proctor configuration: defaults, then an
// optional YAML file, then PROCTOR_* environment variables. Command-line
// flags are applied last by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-proctor/pkg/audioio"
	"github.com/teslashibe/go-proctor/pkg/audiomon"
	"github.com/teslashibe/go-proctor/pkg/camera"
	"github.com/teslashibe/go-proctor/pkg/detection"
	"github.com/teslashibe/go-proctor/pkg/eventlog"
	"github.com/teslashibe/go-proctor/pkg/landmarks"
	"github.com/teslashibe/go-proctor/pkg/throttle"
	"github.com/teslashibe/go-proctor/pkg/vad"
	"github.com/teslashibe/go-proctor/pkg/violation"
	"github.com/teslashibe/go-proctor/pkg/window"
)

// Defaults not owned by a component package.
const (
	DefaultLogPath       = eventlog.DefaultPath
	DefaultLogLevel      = "info"
	DefaultDashboardAddr = "127.0.0.1:5000"
	DefaultDashboardPoll = time.Second
)

// Environment variables read by ApplyEnv.
const (
	EnvLogPath     = "PROCTOR_LOG_PATH"
	EnvLogLevel    = "PROCTOR_LOG_LEVEL"
	EnvCamera      = "PROCTOR_CAMERA"
	EnvLandmarkURL = "PROCTOR_LANDMARK_URL"
)

// Config is the full proctor configuration.
type Config struct {
	// LogPath is the CSV event log shared by the monitor and the dashboard.
	LogPath  string `yaml:"log_path"`
	LogLevel string `yaml:"log_level"`

	// WindowName titles the preview window and is the substring that marks
	// the monitor's own window as focused.
	WindowName string `yaml:"window_name"`

	// Buffer widens the calibration envelope on every side.
	Buffer float64 `yaml:"buffer"`

	Throttle  throttle.Policy  `yaml:"throttle"`
	Camera    camera.Config    `yaml:"camera"`
	Detection detection.Config `yaml:"detection"`
	Landmarks LandmarksConfig  `yaml:"landmarks"`
	Audio     AudioConfig      `yaml:"audio"`
	Window    WindowConfig     `yaml:"window"`
	Dashboard DashboardConfig  `yaml:"dashboard"`
}

// LandmarksConfig configures the face-mesh sidecar client.
type LandmarksConfig struct {
	URL           string        `yaml:"url"`
	MinConfidence float64       `yaml:"min_confidence"`
	JPEGQuality   int           `yaml:"jpeg_quality"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`
}

// Options converts the section into client options.
func (c LandmarksConfig) Options() []landmarks.Option {
	return []landmarks.Option{
		landmarks.WithBaseURL(c.URL),
		landmarks.WithMinConfidence(c.MinConfidence),
		landmarks.WithJPEGQuality(c.JPEGQuality),
		landmarks.WithTimeout(c.Timeout),
		landmarks.WithRetry(c.MaxRetries, landmarks.DefaultConfig().RetryDelay),
	}
}

// AudioConfig configures microphone capture and the speech flag.
type AudioConfig struct {
	Enabled bool           `yaml:"enabled"`
	Capture audioio.Config `yaml:"capture"`
	VAD     vad.Config     `yaml:"vad"`

	// Threshold is the volume a speech frame must exceed to be flagged.
	Threshold float64 `yaml:"threshold"`
}

// Monitor returns the audio monitor settings. The flag probability comes
// from the throttle policy so every category is tuned in one place.
func (c AudioConfig) Monitor(p throttle.Policy) audiomon.Config {
	return audiomon.Config{Threshold: c.Threshold, Probability: p.Audio}
}

// WindowConfig configures active-window polling.
type WindowConfig struct {
	Enabled      bool          `yaml:"enabled"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// DashboardConfig configures the viewer.
type DashboardConfig struct {
	Addr         string        `yaml:"addr"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Default returns the stock configuration.
func Default() Config {
	lm := landmarks.DefaultConfig()
	return Config{
		LogPath:    DefaultLogPath,
		LogLevel:   DefaultLogLevel,
		WindowName: violation.DefaultWindowID,
		Buffer:     violation.DefaultBuffer,
		Throttle:   throttle.DefaultPolicy(),
		Camera:     camera.DefaultConfig(),
		Detection:  detection.DefaultConfig(),
		Landmarks: LandmarksConfig{
			URL:           lm.BaseURL,
			MinConfidence: lm.MinConfidence,
			JPEGQuality:   lm.JPEGQuality,
			Timeout:       lm.Timeout,
			MaxRetries:    lm.MaxRetries,
		},
		Audio: AudioConfig{
			Enabled:   true,
			Capture:   audioio.DefaultConfig(),
			VAD:       vad.DefaultConfig(),
			Threshold: audiomon.DefaultThreshold,
		},
		Window: WindowConfig{
			Enabled:      true,
			PollInterval: window.DefaultPollInterval,
		},
		Dashboard: DashboardConfig{
			Addr:         DefaultDashboardAddr,
			PollInterval: DefaultDashboardPoll,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Keys absent from data keep their current
// values; unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from PROCTOR_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvLogPath); v != "" {
		c.LogPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLandmarkURL); v != "" {
		c.Landmarks.URL = v
	}
	if v := os.Getenv(EnvCamera); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Field: "camera.device", Message: fmt.Sprintf("%s must be a device index, got %q", EnvCamera, v)}
		}
		c.Camera.Device = n
	}
	return nil
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LogPath) == "" {
		return &ConfigError{Field: "log_path", Message: "log_path is required"}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ConfigError{Field: "log_level", Message: fmt.Sprintf("unknown log level %q", c.LogLevel)}
	}
	if c.Buffer < 0 {
		return &ConfigError{Field: "buffer", Message: "buffer must not be negative"}
	}

	probs := []struct {
		field string
		p     float64
	}{
		{"throttle.audio", c.Throttle.Audio},
		{"throttle.environment", c.Throttle.Environment},
		{"throttle.gaze", c.Throttle.Gaze},
		{"throttle.face_count", c.Throttle.FaceCount},
	}
	for _, pr := range probs {
		if pr.p < 0 || pr.p > 1 {
			return &ConfigError{Field: pr.field, Message: fmt.Sprintf("%s must be in [0, 1], got %v", pr.field, pr.p)}
		}
	}

	if errs := c.Camera.Validate(); len(errs) > 0 {
		return &ConfigError{Field: "camera", Message: "camera: " + strings.Join(errs, "; ")}
	}
	if err := c.Detection.Validate(); err != nil {
		return &ConfigError{Field: "detection", Message: err.Error()}
	}

	if c.Landmarks.URL == "" {
		return &ConfigError{Field: "landmarks.url", Message: "landmarks.url is required"}
	}
	if c.Landmarks.Timeout <= 0 {
		return &ConfigError{Field: "landmarks.timeout", Message: "landmarks.timeout must be positive"}
	}
	if c.Landmarks.JPEGQuality < 1 || c.Landmarks.JPEGQuality > 100 {
		return &ConfigError{Field: "landmarks.jpeg_quality", Message: "landmarks.jpeg_quality must be in [1, 100]"}
	}

	if c.Audio.Enabled {
		if err := c.Audio.Capture.Validate(); err != nil {
			return &ConfigError{Field: "audio.capture", Message: err.Error()}
		}
		if err := c.Audio.VAD.Validate(); err != nil {
			return &ConfigError{Field: "audio.vad", Message: err.Error()}
		}
		mon := c.Audio.Monitor(c.Throttle)
		if err := mon.Validate(); err != nil {
			return &ConfigError{Field: "audio", Message: err.Error()}
		}
	}

	if c.Window.Enabled && c.Window.PollInterval <= 0 {
		return &ConfigError{Field: "window.poll_interval", Message: "window.poll_interval must be positive"}
	}
	if c.Dashboard.PollInterval <= 0 {
		return &ConfigError{Field: "dashboard.poll_interval", Message: "dashboard.poll_interval must be positive"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
