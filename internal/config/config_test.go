package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-proctor/pkg/throttle"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "exam_log.csv", cfg.LogPath)
	assert.Equal(t, "Proctoring Monitor", cfg.WindowName)
	assert.Equal(t, 0.02, cfg.Buffer)
	assert.Equal(t, throttle.DefaultPolicy(), cfg.Throttle)
	assert.Equal(t, 500.0, cfg.Audio.Threshold)
	assert.Equal(t, 0.10, cfg.Audio.Monitor(cfg.Throttle).Probability)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load(\"\") mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_OverridesKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proctor.yaml")
	data := `
log_path: /tmp/session.csv
buffer: 0.05
throttle:
  gaze: 0.5
camera:
  device: 2
landmarks:
  timeout: 750ms
audio:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.LogPath = "/tmp/session.csv"
	want.Buffer = 0.05
	want.Throttle.Gaze = 0.5
	want.Camera.Device = 2
	want.Landmarks.Timeout = 750 * time.Millisecond
	want.Audio.Enabled = false

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("no_such_key: 1\n"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestParse_Empty(t *testing.T) {
	cfg := Default()
	require.NoError(t, Parse(nil, &cfg))
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvLogPath, "env.csv")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvCamera, "1")
	t.Setenv(EnvLandmarkURL, "http://10.0.0.2:9000")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "env.csv", cfg.LogPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 1, cfg.Camera.Device)
	assert.Equal(t, "http://10.0.0.2:9000", cfg.Landmarks.URL)
}

func TestApplyEnv_BadCamera(t *testing.T) {
	t.Setenv(EnvCamera, "front")

	cfg := Default()
	err := cfg.ApplyEnv()

	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "camera.device", ce.Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"no log path", func(c *Config) { c.LogPath = " " }, "log_path"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"negative buffer", func(c *Config) { c.Buffer = -0.1 }, "buffer"},
		{"probability above one", func(c *Config) { c.Throttle.Gaze = 1.5 }, "throttle.gaze"},
		{"negative probability", func(c *Config) { c.Throttle.Audio = -0.1 }, "throttle.audio"},
		{"camera", func(c *Config) { c.Camera.Device = -1 }, "camera"},
		{"detection", func(c *Config) { c.Detection.ModelPath = "" }, "detection"},
		{"landmark url", func(c *Config) { c.Landmarks.URL = "" }, "landmarks.url"},
		{"landmark timeout", func(c *Config) { c.Landmarks.Timeout = 0 }, "landmarks.timeout"},
		{"jpeg quality", func(c *Config) { c.Landmarks.JPEGQuality = 0 }, "landmarks.jpeg_quality"},
		{"audio capture", func(c *Config) { c.Audio.Capture.SampleRate = 0 }, "audio.capture"},
		{"audio threshold", func(c *Config) { c.Audio.Threshold = -1 }, "audio"},
		{"window poll", func(c *Config) { c.Window.PollInterval = 0 }, "window.poll_interval"},
		{"dashboard poll", func(c *Config) { c.Dashboard.PollInterval = 0 }, "dashboard.poll_interval"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			err := cfg.Validate()
			var ce *ConfigError
			require.True(t, errors.As(err, &ce), "err = %v", err)
			assert.Equal(t, tc.field, ce.Field)
		})
	}
}

func TestValidate_DisabledSectionsSkipped(t *testing.T) {
	cfg := Default()
	cfg.Audio.Enabled = false
	cfg.Audio.Capture.SampleRate = 0
	cfg.Window.Enabled = false
	cfg.Window.PollInterval = 0

	assert.NoError(t, cfg.Validate())
}

func TestLandmarksOptions(t *testing.T) {
	cfg := Default()
	cfg.Landmarks.URL = "http://sidecar:1"
	cfg.Landmarks.JPEGQuality = 60

	opts := cfg.Landmarks.Options()
	assert.Len(t, opts, 5)
}
