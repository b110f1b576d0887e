//go:build cgo

package vad

import (
	"fmt"
	"sync"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

const webRTCAvailable = true

// WebRTC wraps the WebRTC voice-activity detector. The underlying state is
// not goroutine safe; calls are serialized.
type WebRTC struct {
	mu  sync.Mutex
	vad *webrtcvad.VAD
}

// NewWebRTC creates a detector with the given aggressiveness (0-3).
func NewWebRTC(mode int) (*WebRTC, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("webrtc vad: %w", err)
	}
	if err := v.SetMode(mode); err != nil {
		return nil, fmt.Errorf("webrtc vad mode %d: %w", mode, err)
	}
	return &WebRTC{vad: v}, nil
}

// IsSpeech classifies one frame.
func (w *WebRTC) IsSpeech(frame []byte, sampleRate int) (bool, error) {
	if !ValidFrame(sampleRate, len(frame)) {
		return false, fmt.Errorf("%w: %d bytes at %d Hz", ErrInvalidFrame, len(frame), sampleRate)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	speech, err := w.vad.Process(sampleRate, frame)
	if err != nil {
		return false, fmt.Errorf("webrtc vad: %w", err)
	}
	return speech, nil
}
