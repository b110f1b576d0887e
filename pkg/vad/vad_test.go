package vad

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(rate int, ms int, amplitude int16) []byte {
	n := rate * ms / 1000
	buf := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		s := amplitude
		if i%2 == 1 {
			s = -amplitude
		}
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(s))
	}
	return buf
}

func TestValidFrame(t *testing.T) {
	tests := []struct {
		name  string
		rate  int
		bytes int
		want  bool
	}{
		{"16k 30ms", 16000, 960, true},
		{"16k 20ms", 16000, 640, true},
		{"16k 10ms", 16000, 320, true},
		{"48k 30ms", 48000, 2880, true},
		{"8k 10ms", 8000, 160, true},
		{"16k 25ms", 16000, 800, false},
		{"odd length", 16000, 961, false},
		{"44.1k", 44100, 2646, false},
		{"empty", 16000, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ValidFrame(tc.rate, tc.bytes))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.Mode)

	bad := cfg
	bad.Mode = 4
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Backend = "neural"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.OffDB = -20
	assert.Error(t, bad.Validate())
}

func TestEnergy_Hysteresis(t *testing.T) {
	e := NewEnergy(DefaultConfig())
	loud := frame(16000, 30, 16000)
	quiet := frame(16000, 30, 0)

	// Attack is 60ms: the first loud 30ms frame is not enough.
	got, err := e.IsSpeech(loud, 16000)
	require.NoError(t, err)
	assert.False(t, got)

	got, _ = e.IsSpeech(loud, 16000)
	assert.True(t, got)

	// Release is 240ms: stays on for seven quiet frames, off on the eighth.
	for i := 0; i < 7; i++ {
		got, _ = e.IsSpeech(quiet, 16000)
		assert.True(t, got, "frame %d", i)
	}
	got, _ = e.IsSpeech(quiet, 16000)
	assert.False(t, got)
}

func TestEnergy_BetweenThresholdsHoldsState(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Attack = 0
	e := NewEnergy(cfg)

	// -40 dBFS sits between off (-45) and on (-35).
	mid := frame(16000, 30, 328)

	got, _ := e.IsSpeech(mid, 16000)
	assert.False(t, got)

	got, _ = e.IsSpeech(frame(16000, 30, 16000), 16000)
	assert.True(t, got)

	got, _ = e.IsSpeech(mid, 16000)
	assert.True(t, got)
}

func TestEnergy_Reset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Attack = 0
	e := NewEnergy(cfg)

	got, _ := e.IsSpeech(frame(16000, 30, 16000), 16000)
	require.True(t, got)

	e.Reset()
	got, _ = e.IsSpeech(frame(16000, 30, 0), 16000)
	assert.False(t, got)
}

func TestEnergy_InvalidFrame(t *testing.T) {
	e := NewEnergy(DefaultConfig())
	_, err := e.IsSpeech(make([]byte, 100), 16000)
	assert.True(t, errors.Is(err, ErrInvalidFrame))
}

func TestFrameDBFS(t *testing.T) {
	assert.Equal(t, -120.0, frameDBFS(nil))
	assert.Equal(t, -120.0, frameDBFS(frame(16000, 10, 0)))
	assert.InDelta(t, 0.0, frameDBFS(frame(16000, 10, 32767)), 0.01)
	assert.InDelta(t, -6.02, frameDBFS(frame(16000, 10, 16384)), 0.01)
}

func TestClassifierFunc(t *testing.T) {
	var calls int
	c := ClassifierFunc(func(frame []byte, rate int) (bool, error) {
		calls++
		return rate == 16000, nil
	})

	got, err := c.IsSpeech(nil, 16000)
	require.NoError(t, err)
	assert.True(t, got)
	assert.Equal(t, 1, calls)
}

func TestNew_Energy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendEnergy

	c, err := New(cfg, nil)
	require.NoError(t, err)
	_, ok := c.(*Energy)
	assert.True(t, ok)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = -1
	_, err := New(cfg, nil)
	assert.Error(t, err)
}
