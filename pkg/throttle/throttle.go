// Package throttle caps the rate of high-frequency, low-value detections.
//
// Detections such as "looking left" fire on every frame (15-30 per second).
// A Sampler lets each one through with a fixed probability so the event log
// stays readable.
package throttle

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/teslashibe/go-proctor/pkg/eventlog"
)

// Sampler decides whether a candidate event is emitted.
type Sampler interface {
	ShouldEmit(p float64) bool
}

// RandomSampler returns true with independent probability p on each call.
// It is safe for concurrent use.
type RandomSampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a sampler seeded from the current time.
func New() *RandomSampler {
	seed := uint64(time.Now().UnixNano())
	return NewSeeded(seed)
}

// NewSeeded returns a deterministic sampler.
func NewSeeded(seed uint64) *RandomSampler {
	return NewWithSource(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewWithSource returns a sampler drawing from src.
func NewWithSource(src rand.Source) *RandomSampler {
	return &RandomSampler{rng: rand.New(src)}
}

// ShouldEmit reports whether to emit. p <= 0 never emits, p >= 1 always does.
func (s *RandomSampler) ShouldEmit(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	s.mu.Lock()
	v := s.rng.Float64()
	s.mu.Unlock()
	return v < p
}

// Always emits every candidate.
type Always struct{}

// ShouldEmit always returns true.
func (Always) ShouldEmit(float64) bool { return true }

// Never suppresses every candidate.
type Never struct{}

// ShouldEmit always returns false.
func (Never) ShouldEmit(float64) bool { return false }

// Policy holds the sampling probability per event category.
type Policy struct {
	Audio       float64 `yaml:"audio" json:"audio"`
	Environment float64 `yaml:"environment" json:"environment"`
	Gaze        float64 `yaml:"gaze" json:"gaze"`
	FaceCount   float64 `yaml:"face_count" json:"face_count"`
}

// DefaultPolicy returns the stock sampling probabilities.
func DefaultPolicy() Policy {
	return Policy{
		Audio:       0.10,
		Environment: 0.05,
		Gaze:        0.05,
		FaceCount:   0.05,
	}
}

// For returns the probability for a category. System events are never throttled.
func (p Policy) For(c eventlog.Category) float64 {
	switch c {
	case eventlog.CategoryAudio:
		return p.Audio
	case eventlog.CategoryEnvironment:
		return p.Environment
	case eventlog.CategoryGaze:
		return p.Gaze
	case eventlog.CategoryFace:
		return p.FaceCount
	default:
		return 1
	}
}
