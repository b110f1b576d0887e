package vad

import (
	"fmt"
	"log/slog"
)

// Classifier decides whether a frame contains speech.
type Classifier interface {
	IsSpeech(frame []byte, sampleRate int) (bool, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(frame []byte, sampleRate int) (bool, error)

// IsSpeech calls f.
func (f ClassifierFunc) IsSpeech(frame []byte, sampleRate int) (bool, error) {
	return f(frame, sampleRate)
}

// New creates a classifier for cfg. With BackendAuto it prefers WebRTC and
// falls back to the energy detector when WebRTC is not compiled in.
func New(cfg Config, logger *slog.Logger) (Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vad config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	backend := cfg.Backend
	if backend == "" || backend == BackendAuto {
		backend = BackendEnergy
		if webRTCAvailable {
			backend = BackendWebRTC
		}
	}

	logger.Info("creating voice activity detector", "backend", backend, "mode", cfg.Mode)

	switch backend {
	case BackendWebRTC:
		return NewWebRTC(cfg.Mode)
	case BackendEnergy:
		return NewEnergy(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported vad backend: %s", backend)
	}
}
