package audiomon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-proctor/internal/log"
	"github.com/teslashibe/go-proctor/pkg/audioio"
	"github.com/teslashibe/go-proctor/pkg/eventlog"
	"github.com/teslashibe/go-proctor/pkg/throttle"
	"github.com/teslashibe/go-proctor/pkg/vad"
)

type recorder struct {
	mu     sync.Mutex
	events []eventlog.Event
}

func (r *recorder) Append(c eventlog.Category, details string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventlog.Event{Category: c, Details: details})
}

func (r *recorder) Events() []eventlog.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]eventlog.Event(nil), r.events...)
}

// chunkWithVolume builds a 30ms frame whose Euclidean norm is vol.
func chunkWithVolume(vol float64) audioio.AudioChunk {
	samples := make([]int16, 480)
	samples[0] = int16(vol)
	return audioio.AudioChunk{Samples: samples, SampleRate: 16000, Channels: 1}
}

var speechAlways = vad.ClassifierFunc(func([]byte, int) (bool, error) { return true, nil })

func newSource(opts ...audioio.MockSourceOption) *audioio.MockSource {
	return audioio.NewMockSource(audioio.DefaultConfig(), log.Discard(), opts...)
}

func TestProcess(t *testing.T) {
	tests := []struct {
		name    string
		speech  bool
		vol     float64
		sampler throttle.Sampler
		want    bool
	}{
		{"loud speech", true, 1200, throttle.Always{}, true},
		{"speech at threshold", true, 500, throttle.Always{}, false},
		{"quiet speech", true, 200, throttle.Always{}, false},
		{"loud noise", false, 5000, throttle.Always{}, false},
		{"throttled", true, 1200, throttle.Never{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			cls := vad.ClassifierFunc(func([]byte, int) (bool, error) { return tc.speech, nil })
			m := New(DefaultConfig(), newSource(), cls, tc.sampler, rec, log.Discard())

			assert.Equal(t, tc.want, m.Process(chunkWithVolume(tc.vol)))
			if tc.want {
				require.Len(t, rec.Events(), 1)
				assert.Equal(t, eventlog.CategoryAudio, rec.Events()[0].Category)
			} else {
				assert.Empty(t, rec.Events())
			}
		})
	}
}

func TestProcess_DetailsFormat(t *testing.T) {
	rec := &recorder{}
	m := New(DefaultConfig(), newSource(), speechAlways, throttle.Always{}, rec, log.Discard())

	m.Process(chunkWithVolume(1234.6))

	require.Len(t, rec.Events(), 1)
	assert.Equal(t, "Human Speech Detected (Vol: 1234)", rec.Events()[0].Details)
}

func TestProcess_ClassifierError(t *testing.T) {
	rec := &recorder{}
	cls := vad.ClassifierFunc(func([]byte, int) (bool, error) { return false, vad.ErrInvalidFrame })
	m := New(DefaultConfig(), newSource(), cls, throttle.Always{}, rec, log.Discard())

	assert.False(t, m.Process(chunkWithVolume(2000)))
	assert.Empty(t, rec.Events())
	assert.Equal(t, int64(1), m.Stats().Transient)
}

func TestRun_ScriptedSession(t *testing.T) {
	rec := &recorder{}
	src := newSource(
		audioio.WithChunks(chunkWithVolume(100), chunkWithVolume(900)),
		audioio.WithReadError(audioio.ErrOverflow),
		audioio.WithReadError(errors.New("device hiccup")),
		audioio.WithChunks(chunkWithVolume(2000)),
	)
	m := New(DefaultConfig(), src, speechAlways, throttle.Always{}, rec, log.Discard())
	m.retryDelay = time.Millisecond

	require.NoError(t, m.Run(context.Background()))

	events := rec.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "Human Speech Detected (Vol: 900)", events[0].Details)
	assert.Equal(t, "Human Speech Detected (Vol: 2000)", events[1].Details)

	stats := m.Stats()
	assert.Equal(t, int64(3), stats.Frames)
	assert.Equal(t, int64(2), stats.Flagged)
	assert.Equal(t, int64(2), stats.Transient)
}

func TestRun_RateLimited(t *testing.T) {
	chunks := make([]audioio.AudioChunk, 10000)
	for i := range chunks {
		chunks[i] = chunkWithVolume(1000)
	}
	rec := &recorder{}
	m := New(DefaultConfig(), newSource(audioio.WithChunks(chunks...)), speechAlways, throttle.NewSeeded(7), rec, log.Discard())

	require.NoError(t, m.Run(context.Background()))

	// p = 0.10 over 10,000 qualifying frames
	assert.InDelta(t, 1000, len(rec.Events()), 150)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := audioio.DefaultConfig()
	cfg.BufferDuration = 10 * time.Millisecond
	src := audioio.NewMockSource(cfg, log.Discard())

	rec := &recorder{}
	m := New(DefaultConfig(), src, speechAlways, throttle.Always{}, rec, log.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	// Silence never qualifies.
	assert.Empty(t, rec.Events())
	assert.Positive(t, m.Stats().Frames)
}

// deadSource starts but fails every read.
type deadSource struct {
	reads atomic.Int64
}

func (s *deadSource) Start(context.Context) error { return nil }
func (s *deadSource) Stop() error                 { return nil }
func (s *deadSource) Close() error                { return nil }
func (s *deadSource) Config() audioio.Config      { return audioio.DefaultConfig() }
func (s *deadSource) Name() string                { return "dead" }

func (s *deadSource) Read(context.Context) (audioio.AudioChunk, error) {
	s.reads.Add(1)
	return audioio.AudioChunk{}, errors.New("device unavailable")
}

func TestRun_ExitsOnDeviceLost(t *testing.T) {
	rec := &recorder{}
	src := newSource(
		audioio.WithChunks(chunkWithVolume(900)),
		audioio.WithReadError(fmt.Errorf("read stream: %w", audioio.ErrDeviceLost)),
		audioio.WithChunks(chunkWithVolume(2000)),
	)
	m := New(DefaultConfig(), src, speechAlways, throttle.Always{}, rec, log.Discard())

	err := m.Run(context.Background())
	assert.ErrorIs(t, err, audioio.ErrDeviceLost)

	require.Len(t, rec.Events(), 1)
	assert.Equal(t, int64(1), m.Stats().Frames)
}

func TestRun_GivesUpAfterRepeatedFailures(t *testing.T) {
	src := &deadSource{}
	m := New(DefaultConfig(), src, speechAlways, throttle.Always{}, &recorder{}, log.Discard())
	m.retryDelay = time.Millisecond

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run kept retrying a dead source")
	}

	assert.Equal(t, int64(DefaultMaxReadFailures), src.reads.Load())
	assert.Equal(t, int64(DefaultMaxReadFailures), m.Stats().Transient)
}

func TestRun_RetryDelayHonoursCancel(t *testing.T) {
	src := &deadSource{}
	m := New(DefaultConfig(), src, speechAlways, throttle.Always{}, &recorder{}, log.Discard())
	m.retryDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, int64(1), src.reads.Load())
}

func TestRun_StartFailure(t *testing.T) {
	src := newSource()
	require.NoError(t, src.Close())

	m := New(DefaultConfig(), src, speechAlways, throttle.Always{}, &recorder{}, log.Discard())
	assert.ErrorIs(t, m.Run(context.Background()), audioio.ErrSourceClosed)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 500.0, cfg.Threshold)
	assert.Equal(t, 0.10, cfg.Probability)

	cfg.Probability = 1.5
	assert.Error(t, cfg.Validate())
}
