package vad

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"
)

// Energy is a level detector with attack/release hysteresis. It turns on
// after the frame level stays at or above OnDB for Attack and turns off
// after it stays at or below OffDB for Release. Levels between the two
// thresholds keep the current state.
type Energy struct {
	cfg Config

	mu    sync.Mutex
	on    bool
	above time.Duration
	below time.Duration
}

// NewEnergy creates an energy detector.
func NewEnergy(cfg Config) *Energy {
	return &Energy{cfg: cfg}
}

// IsSpeech classifies one frame.
func (e *Energy) IsSpeech(frame []byte, sampleRate int) (bool, error) {
	if !ValidFrame(sampleRate, len(frame)) {
		return false, fmt.Errorf("%w: %d bytes at %d Hz", ErrInvalidFrame, len(frame), sampleRate)
	}

	db := frameDBFS(frame)
	d := frameDuration(sampleRate, len(frame))

	e.mu.Lock()
	defer e.mu.Unlock()

	if db >= e.cfg.OnDB {
		e.above += d
		e.below = 0
		if !e.on && e.above >= e.cfg.Attack {
			e.on = true
		}
	} else if db <= e.cfg.OffDB {
		e.below += d
		e.above = 0
		if e.on && e.below >= e.cfg.Release {
			e.on = false
		}
	}

	return e.on, nil
}

// Reset clears the hysteresis state.
func (e *Energy) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.on = false
	e.above = 0
	e.below = 0
}

// frameDBFS returns the RMS level of little-endian PCM16 data in dBFS.
func frameDBFS(frame []byte) float64 {
	n := len(frame) / 2
	if n == 0 {
		return -120
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(frame[2*i:]))) / 32768.0
		sum += s * s
	}
	rms := math.Sqrt(sum / float64(n))
	if rms < 1e-6 {
		return -120
	}
	return 20 * math.Log10(rms)
}
