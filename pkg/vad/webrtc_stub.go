//go:build !cgo

package vad

import "errors"

const webRTCAvailable = false

// WebRTC is unavailable without cgo.
type WebRTC struct{}

// NewWebRTC always fails without cgo.
func NewWebRTC(mode int) (*WebRTC, error) {
	return nil, errors.New("webrtc vad requires cgo")
}

// IsSpeech always fails without cgo.
func (w *WebRTC) IsSpeech(frame []byte, sampleRate int) (bool, error) {
	return false, errors.New("webrtc vad requires cgo")
}
