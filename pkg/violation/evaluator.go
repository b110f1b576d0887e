// Package violation turns per-frame signals into violation events.
//
// Evaluate is pure: it takes the calibration envelope and one frame's
// signals and returns candidate events. Reporter applies throttling and
// writes the survivors to the event log.
package violation

import (
	"strings"

	"github.com/teslashibe/go-proctor/pkg/calibration"
	"github.com/teslashibe/go-proctor/pkg/eventlog"
	"github.com/teslashibe/go-proctor/pkg/gaze"
)

// Defaults.
const (
	DefaultBuffer   = 0.02
	DefaultWindowID = "Proctoring Monitor"
)

// Details strings.
const (
	DetailsMultipleFaces = "Multiple Faces Detected"
	DetailsNoFace        = "No Face Detected"
	DetailsLookingLeft   = "Looking LEFT"
	DetailsLookingRight  = "Looking RIGHT"
	DetailsLookingUp     = "Looking UP"
	DetailsLookingDown   = "Looking DOWN"
	switchedPrefix       = "Switched to: "
)

// Signals are the external inputs for one frame.
type Signals struct {
	// NumFaces is the face detector's count. Negative means the detector
	// failed on this frame and the face check is skipped.
	NumFaces int

	// Gaze is the estimate for the first face. GazeValid is false when no
	// landmarks were available or the frame was degenerate.
	Gaze      gaze.Point
	GazeValid bool

	// WindowTitle is the active window title, empty when unavailable.
	WindowTitle string
}

// Candidate is an event before throttling.
type Candidate struct {
	Category eventlog.Category
	Details  string
}

// Alert returns the overlay text for the candidate.
func (c Candidate) Alert() string {
	switch c.Category {
	case eventlog.CategoryGaze:
		return "ALERT: " + c.Details
	case eventlog.CategoryFace:
		if c.Details == DetailsNoFace {
			return "FLAG: No Face!"
		}
		return "FLAG: Multiple Faces!"
	case eventlog.CategoryEnvironment:
		return "FLAG: TAB SWITCH DETECTED!"
	default:
		return c.Details
	}
}

// Evaluator holds the decision parameters.
type Evaluator struct {
	// Buffer is the tolerance added around the envelope.
	Buffer float64

	// WindowID identifies the monitor's own window. Any other non-blank
	// active window counts as a switch.
	WindowID string
}

// NewEvaluator returns an evaluator with the default buffer and window id.
func NewEvaluator() Evaluator {
	return Evaluator{Buffer: DefaultBuffer, WindowID: DefaultWindowID}
}

// Evaluate runs the face-count, gaze and window-focus checks. Each check
// yields at most one candidate.
func (e Evaluator) Evaluate(env calibration.Envelope, sig Signals) []Candidate {
	var out []Candidate
	if c, ok := CheckFaces(sig.NumFaces); ok {
		out = append(out, c)
	}
	if sig.GazeValid {
		if c, ok := e.CheckGaze(env, sig.Gaze); ok {
			out = append(out, c)
		}
	}
	if c, ok := e.CheckWindow(sig.WindowTitle); ok {
		out = append(out, c)
	}
	return out
}

// CheckFaces flags zero or multiple faces. A negative count is unknown.
func CheckFaces(n int) (Candidate, bool) {
	switch {
	case n > 1:
		return Candidate{eventlog.CategoryFace, DetailsMultipleFaces}, true
	case n == 0:
		return Candidate{eventlog.CategoryFace, DetailsNoFace}, true
	default:
		return Candidate{}, false
	}
}

// CheckGaze tests p against the envelope widened by Buffer. Directions are
// checked LEFT, RIGHT, UP, DOWN and the first match wins.
func (e Evaluator) CheckGaze(env calibration.Envelope, p gaze.Point) (Candidate, bool) {
	var details string
	switch {
	case p.X < env.XMin-e.Buffer:
		details = DetailsLookingLeft
	case p.X > env.XMax+e.Buffer:
		details = DetailsLookingRight
	case p.Y < env.YMin-e.Buffer:
		details = DetailsLookingUp
	case p.Y > env.YMax+e.Buffer:
		details = DetailsLookingDown
	default:
		return Candidate{}, false
	}
	return Candidate{eventlog.CategoryGaze, details}, true
}

// CheckWindow flags a non-blank active window that is not the monitor.
// Matching is a plain substring test on WindowID.
func (e Evaluator) CheckWindow(title string) (Candidate, bool) {
	if strings.TrimSpace(title) == "" {
		return Candidate{}, false
	}
	if e.WindowID != "" && strings.Contains(title, e.WindowID) {
		return Candidate{}, false
	}
	return Candidate{eventlog.CategoryEnvironment, switchedPrefix + title}, true
}
