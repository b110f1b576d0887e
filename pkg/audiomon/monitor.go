// Package audiomon flags speech picked up by the microphone.
package audiomon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-proctor/pkg/audioio"
	"github.com/teslashibe/go-proctor/pkg/eventlog"
	"github.com/teslashibe/go-proctor/pkg/throttle"
	"github.com/teslashibe/go-proctor/pkg/vad"
)

// Defaults for the speech flag.
const (
	DefaultThreshold   = 500.0
	DefaultProbability = 0.10
)

// Read retry limits. A source that fails this many reads in a row is
// treated as lost.
const (
	DefaultRetryDelay      = 50 * time.Millisecond
	DefaultMaxReadFailures = 20
)

// DetailsFormat is the event text for a flagged frame.
const DetailsFormat = "Human Speech Detected (Vol: %.0f)"

// EventLogger receives flagged events.
type EventLogger interface {
	Append(category eventlog.Category, details string)
}

// Config holds the flag thresholds.
type Config struct {
	// Threshold is the minimum Euclidean norm of a frame's samples.
	Threshold float64 `yaml:"threshold" json:"threshold"`

	// Probability is the chance a qualifying frame is logged.
	Probability float64 `yaml:"probability" json:"probability"`
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		Threshold:   DefaultThreshold,
		Probability: DefaultProbability,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("audio threshold must not be negative, got %f", c.Threshold)
	}
	if c.Probability < 0 || c.Probability > 1 {
		return fmt.Errorf("audio probability must be in [0,1], got %f", c.Probability)
	}
	return nil
}

// Monitor reads frames from a source and logs speech louder than the
// threshold, throttled by the sampler.
type Monitor struct {
	cfg        Config
	source     audioio.Source
	classifier vad.Classifier
	sampler    throttle.Sampler
	log        EventLogger
	logger     *slog.Logger

	retryDelay  time.Duration
	maxFailures int

	// Stats
	frames    atomic.Int64
	speech    atomic.Int64
	flagged   atomic.Int64
	transient atomic.Int64
}

// New creates a monitor. A nil logger uses slog.Default.
func New(cfg Config, source audioio.Source, classifier vad.Classifier, sampler throttle.Sampler, log EventLogger, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		cfg:        cfg,
		source:     source,
		classifier: classifier,
		sampler:    sampler,
		log:        log,
		logger:     logger.With("component", "audiomon"),

		retryDelay:  DefaultRetryDelay,
		maxFailures: DefaultMaxReadFailures,
	}
}

// Run starts the source and processes frames until the context is cancelled
// or the source reports io.EOF. A source that cannot start, reports
// ErrDeviceLost, or fails DefaultMaxReadFailures reads in a row is returned
// as an error; the caller keeps the rest of the session running.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.source.Start(ctx); err != nil {
		return fmt.Errorf("start audio source: %w", err)
	}
	defer m.source.Stop()

	m.logger.Info("audio monitor started",
		"backend", m.source.Name(),
		"threshold", m.cfg.Threshold,
		"probability", m.cfg.Probability,
	)

	failures := 0
	for {
		chunk, err := m.source.Read(ctx)
		switch {
		case err == nil:
			failures = 0
		case errors.Is(err, io.EOF):
			m.logger.Info("audio source ended", "frames", m.frames.Load())
			return nil
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, audioio.ErrDeviceLost):
			m.logger.Warn("audio device lost", "error", err, "frames", m.frames.Load())
			return fmt.Errorf("audio capture: %w", err)
		default:
			m.transient.Add(1)
			failures++
			if failures >= m.maxFailures {
				m.logger.Warn("audio source keeps failing, giving up", "failures", failures, "error", err)
				return fmt.Errorf("audio capture: %d reads failed in a row: %w", failures, err)
			}
			m.logger.Debug("audio read failed", "error", err, "failures", failures)
			if !sleep(ctx, m.retryDelay) {
				return nil
			}
			continue
		}

		m.Process(chunk)
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Process evaluates one frame and reports whether it was logged.
func (m *Monitor) Process(chunk audioio.AudioChunk) bool {
	m.frames.Add(1)

	speech, err := m.classifier.IsSpeech(chunk.Bytes(), chunk.SampleRate)
	if err != nil {
		m.transient.Add(1)
		m.logger.Debug("speech classification failed", "error", err)
		return false
	}
	if !speech {
		return false
	}
	m.speech.Add(1)

	vol := chunk.Volume()
	if vol <= m.cfg.Threshold {
		return false
	}
	if !m.sampler.ShouldEmit(m.cfg.Probability) {
		return false
	}

	m.flagged.Add(1)
	m.log.Append(eventlog.CategoryAudio, fmt.Sprintf(DetailsFormat, vol))
	return true
}

// Stats contains frame counters.
type Stats struct {
	Frames    int64 `json:"frames"`
	Speech    int64 `json:"speech"`
	Flagged   int64 `json:"flagged"`
	Transient int64 `json:"transient_errors"`
}

// Stats returns frame counters.
func (m *Monitor) Stats() Stats {
	return Stats{
		Frames:    m.frames.Load(),
		Speech:    m.speech.Load(),
		Flagged:   m.flagged.Load(),
		Transient: m.transient.Load(),
	}
}
