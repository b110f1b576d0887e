// Package landmarks extracts face-mesh landmarks from camera frames.
//
// Extraction runs in a face-mesh sidecar (MediaPipe with refined iris
// landmarks) reached over HTTP. Frames are posted as JPEG and the sidecar
// answers with normalized landmarks per face.
package landmarks

import (
	"log/slog"
	"time"
)

// Config holds client configuration.
type Config struct {
	// BaseURL is the sidecar address, e.g. "http://127.0.0.1:8765".
	BaseURL string

	// MaxFaces caps the faces returned per frame.
	MaxFaces int

	// Refine requests the iris landmarks (indices 468-477).
	Refine bool

	// MinConfidence is the sidecar detection threshold.
	MinConfidence float64

	// JPEGQuality is used when encoding frames.
	JPEGQuality int

	// Per-frame budget; the frame loop must not stall on a slow sidecar.
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	Logger *slog.Logger
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithBaseURL sets the sidecar address.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithMaxFaces sets the maximum number of faces per frame.
func WithMaxFaces(n int) Option {
	return func(c *Config) { c.MaxFaces = n }
}

// WithMinConfidence sets the sidecar detection threshold.
func WithMinConfidence(v float64) Option {
	return func(c *Config) { c.MinConfidence = v }
}

// WithJPEGQuality sets the frame encoding quality (1-100).
func WithJPEGQuality(q int) Option {
	return func(c *Config) { c.JPEGQuality = q }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithRetry configures retry behavior.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultBaseURL is the sidecar address used when none is configured.
const DefaultBaseURL = "http://127.0.0.1:8765"

// DefaultConfig returns defaults matching a single-candidate exam session.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       DefaultBaseURL,
		MaxFaces:      1,
		Refine:        true,
		MinConfidence: 0.5,
		JPEGQuality:   80,
		Timeout:       500 * time.Millisecond,
		MaxRetries:    1,
		RetryDelay:    20 * time.Millisecond,
		Logger:        slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
