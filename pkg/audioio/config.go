// Package audioio provides microphone capture for the audio monitor.
//
// Backends:
//   - PortAudio - production capture on Linux, macOS and Windows (cgo)
//   - Mock - CI/Testing without hardware
//
// The voice-activity detector only accepts 10, 20 or 30 ms frames of 16-bit
// mono PCM at 8, 16, 32 or 48 kHz, so the defaults here are a hard contract
// with it: 16 kHz, mono, 30 ms.
package audioio

import (
	"fmt"
	"time"
)

// Backend represents the audio backend type.
type Backend string

const (
	// BackendAuto selects PortAudio when compiled in, mock otherwise.
	BackendAuto Backend = "auto"
	// BackendPortAudio uses PortAudio for capture.
	BackendPortAudio Backend = "portaudio"
	// BackendMock uses a synthetic source.
	BackendMock Backend = "mock"
)

// Frame contract with the voice-activity detector.
const (
	DefaultSampleRate     = 16000
	DefaultChannels       = 1
	DefaultBufferDuration = 30 * time.Millisecond
)

// Config holds audio configuration.
type Config struct {
	// Backend specifies which audio backend to use.
	// Default: "auto"
	Backend Backend `yaml:"backend" json:"backend"`

	// SampleRate is the rate delivered to consumers in Hz.
	// Default: 16000
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`

	// Channels is the number of channels delivered to consumers.
	// Default: 1 (mono)
	Channels int `yaml:"channels" json:"channels"`

	// BufferDuration is the length of one chunk.
	// Default: 30ms (480 samples at 16kHz)
	BufferDuration time.Duration `yaml:"buffer_duration" json:"buffer_duration"`

	// CaptureRate is the rate the device is opened at. Zero means
	// SampleRate. When it differs, chunks are resampled to SampleRate.
	CaptureRate int `yaml:"capture_rate" json:"capture_rate"`

	// Device is a PortAudio device name substring. Empty selects the
	// default input device.
	Device string `yaml:"device" json:"device"`
}

// DefaultConfig returns a Config matching the VAD frame contract.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendAuto,
		SampleRate:     DefaultSampleRate,
		Channels:       DefaultChannels,
		BufferDuration: DefaultBufferDuration,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("buffer_duration must be positive, got %v", c.BufferDuration)
	}
	if c.CaptureRate < 0 {
		return fmt.Errorf("capture_rate must not be negative, got %d", c.CaptureRate)
	}
	return nil
}

// BufferSize returns the number of samples per channel in one chunk.
func (c *Config) BufferSize() int {
	return int(float64(c.SampleRate) * c.BufferDuration.Seconds())
}

// BufferBytes returns the size of a chunk in bytes (int16 samples).
func (c *Config) BufferBytes() int {
	return c.BufferSize() * c.Channels * 2
}

// captureRate returns the device rate.
func (c *Config) captureRate() int {
	if c.CaptureRate == 0 {
		return c.SampleRate
	}
	return c.CaptureRate
}

// captureBufferSize returns samples per channel per chunk at the device rate.
func (c *Config) captureBufferSize() int {
	return int(float64(c.captureRate()) * c.BufferDuration.Seconds())
}
