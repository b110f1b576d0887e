// Package vad classifies audio frames as speech or non-speech.
//
// Backends:
//   - WebRTC - the WebRTC voice-activity detector (cgo)
//   - Energy - dBFS threshold with hysteresis, used when cgo is unavailable
//
// Frames are 16-bit little-endian mono PCM of 10, 20 or 30 ms at 8, 16,
// 32 or 48 kHz.
package vad

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidFrame is returned for frames outside the supported rate and
// duration set.
var ErrInvalidFrame = errors.New("vad: unsupported sample rate or frame length")

// Backend selects the classifier implementation.
type Backend string

const (
	BackendAuto   Backend = "auto"
	BackendWebRTC Backend = "webrtc"
	BackendEnergy Backend = "energy"
)

// DefaultMode is the most aggressive WebRTC setting: fewest false positives
// on background noise.
const DefaultMode = 3

// Config holds classifier settings.
type Config struct {
	// Backend selects the implementation. Default: "auto" (WebRTC when built with cgo)
	Backend Backend `yaml:"backend" json:"backend"`

	// Mode is the WebRTC aggressiveness, 0 (least) to 3 (most).
	Mode int `yaml:"mode" json:"mode"`

	// OnDB and OffDB are the energy backend hysteresis thresholds in dBFS.
	OnDB  float64 `yaml:"on_db" json:"on_db"`
	OffDB float64 `yaml:"off_db" json:"off_db"`

	// Attack and Release are how long the level must stay above OnDB or
	// below OffDB before the energy backend changes state.
	Attack  time.Duration `yaml:"attack" json:"attack"`
	Release time.Duration `yaml:"release" json:"release"`
}

// DefaultConfig returns the default classifier configuration.
func DefaultConfig() Config {
	return Config{
		Backend: BackendAuto,
		Mode:    DefaultMode,
		OnDB:    -35.0,
		OffDB:   -45.0,
		Attack:  60 * time.Millisecond,
		Release: 240 * time.Millisecond,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case "", BackendAuto, BackendWebRTC, BackendEnergy:
	default:
		return fmt.Errorf("unknown vad backend %q", c.Backend)
	}
	if c.Mode < 0 || c.Mode > 3 {
		return fmt.Errorf("vad mode must be 0-3, got %d", c.Mode)
	}
	if c.OffDB > c.OnDB {
		return fmt.Errorf("off_db (%.1f) must not exceed on_db (%.1f)", c.OffDB, c.OnDB)
	}
	if c.Attack < 0 || c.Release < 0 {
		return errors.New("attack and release must not be negative")
	}
	return nil
}

// ValidFrame reports whether a frame of n bytes at rate is accepted.
func ValidFrame(rate, n int) bool {
	switch rate {
	case 8000, 16000, 32000, 48000:
	default:
		return false
	}
	if n%2 != 0 {
		return false
	}
	samples := n / 2
	for _, ms := range []int{10, 20, 30} {
		if samples == rate*ms/1000 {
			return true
		}
	}
	return false
}

// frameDuration returns the duration of a valid frame.
func frameDuration(rate, n int) time.Duration {
	return time.Duration(n/2) * time.Second / time.Duration(rate)
}
