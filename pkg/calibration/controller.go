package calibration

import (
	"log/slog"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/teslashibe/go-proctor/pkg/eventlog"
	"github.com/teslashibe/go-proctor/pkg/gaze"
)

// EventLogger receives the unthrottled System event emitted on start.
type EventLogger interface {
	Append(category eventlog.Category, details string)
}

// Controller owns the calibration state and the derived envelope.
// Readers on other goroutines may call State and Envelope concurrently.
type Controller struct {
	log    EventLogger
	logger *slog.Logger

	mu       sync.RWMutex
	state    State
	samples  [len(Corners)]gaze.Point
	captured [len(Corners)]bool
	envelope Envelope
}

// New creates a controller in the calibrating state.
func New(log EventLogger, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		log:    log,
		logger: logger.With("component", "calibration"),
		state:  StateCalibrating,
	}
}

// Capture stores p as the sample for corner, overwriting any previous one.
// It is a no-op once monitoring has started and reports whether the sample
// was stored.
func (c *Controller) Capture(corner Corner, p gaze.Point) bool {
	if !corner.valid() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCalibrating {
		return false
	}
	c.samples[corner] = p
	c.captured[corner] = true

	c.logger.Debug("corner captured", "corner", corner.Short(), "gx", p.X, "gy", p.Y)
	return true
}

// Start derives the envelope and switches to monitoring. It does nothing
// unless all four corners are captured and the controller is still
// calibrating. It reports whether the transition happened.
func (c *Controller) Start() bool {
	c.mu.Lock()
	if c.state != StateCalibrating || !c.readyLocked() {
		c.mu.Unlock()
		return false
	}

	xs := make([]float64, len(Corners))
	ys := make([]float64, len(Corners))
	for i, p := range c.samples {
		xs[i], ys[i] = p.X, p.Y
	}
	c.envelope = Envelope{
		XMin: floats.Min(xs),
		XMax: floats.Max(xs),
		YMin: floats.Min(ys),
		YMax: floats.Max(ys),
	}
	c.state = StateMonitoring
	env := c.envelope
	c.mu.Unlock()

	c.logger.Info("calibration complete", "envelope", env.String())
	if c.log != nil {
		c.log.Append(eventlog.CategorySystem, eventlog.DetailsExamStarted)
	}
	return true
}

// State returns the current phase.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Monitoring reports whether the session has started.
func (c *Controller) Monitoring() bool {
	return c.State() == StateMonitoring
}

// Envelope returns the derived envelope. ok is false while calibrating,
// when the envelope is undefined.
func (c *Controller) Envelope() (env Envelope, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateMonitoring {
		return Envelope{}, false
	}
	return c.envelope, true
}

// Captured returns the sample stored for corner.
func (c *Controller) Captured(corner Corner) (gaze.Point, bool) {
	if !corner.valid() {
		return gaze.Point{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.samples[corner], c.captured[corner]
}

// Ready reports whether every corner has a sample.
func (c *Controller) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.readyLocked()
}

func (c *Controller) readyLocked() bool {
	for _, ok := range c.captured {
		if !ok {
			return false
		}
	}
	return true
}

// Snapshot is a consistent copy of the controller state for rendering.
type Snapshot struct {
	State    State
	Captured [len(Corners)]bool
	Envelope Envelope
}

// Snapshot returns the current state in one read.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{State: c.state, Captured: c.captured, Envelope: c.envelope}
}
