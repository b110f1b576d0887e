// Package monitor runs the per-frame proctoring pipeline.
//
// A frame moves through four separable steps: capture and detection
// (external collaborators, see package live), Process (gaze estimation and
// the pure violation decision), the throttled logging step inside Process,
// and Handle for control commands. Nothing here touches a device, so the
// whole decision path runs in tests without a camera.
package monitor

import (
	"log/slog"

	"github.com/teslashibe/go-proctor/pkg/calibration"
	"github.com/teslashibe/go-proctor/pkg/eventlog"
	"github.com/teslashibe/go-proctor/pkg/gaze"
	"github.com/teslashibe/go-proctor/pkg/violation"
)

// Observation is what the detectors reported for one frame.
type Observation struct {
	// NumFaces is the face detector's count, negative when it failed.
	NumFaces int

	// Faces holds one landmark set per face from the landmark extractor.
	// Only the first is used for gaze.
	Faces []gaze.Landmarks

	// WindowTitle is the focused window, empty when unknown.
	WindowTitle string
}

// Frame is the outcome of processing one observation.
type Frame struct {
	Snapshot calibration.Snapshot

	NumFaces int

	// Gaze is the frame's estimate. It is the zero point when no landmarks
	// were available and the last good estimate when the frame was
	// degenerate; GazeValid is true only for a fresh estimate.
	Gaze      gaze.Point
	GazeValid bool

	// Iris holds the left and right iris centers of the first face.
	Iris    [2]gaze.Landmark
	HasIris bool

	WindowTitle string

	// Candidates are the violations found before throttling; Logged is how
	// many were appended.
	Candidates []violation.Candidate
	Logged     int
}

// Candidate returns the candidate of the given category, if any.
func (f Frame) Candidate(c eventlog.Category) (violation.Candidate, bool) {
	for _, cand := range f.Candidates {
		if cand.Category == c {
			return cand, true
		}
	}
	return violation.Candidate{}, false
}

// Session binds calibration, evaluation and reporting for one exam.
// It is driven from a single goroutine.
type Session struct {
	ctrl      *calibration.Controller
	eval      violation.Evaluator
	reporter  *violation.Reporter
	estimator gaze.Estimator
	logger    *slog.Logger
}

// NewSession creates a session. A nil logger uses slog.Default.
func NewSession(ctrl *calibration.Controller, eval violation.Evaluator, reporter *violation.Reporter, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		ctrl:     ctrl,
		eval:     eval,
		reporter: reporter,
		logger:   logger.With("component", "monitor"),
	}
}

// Controller returns the calibration controller.
func (s *Session) Controller() *calibration.Controller {
	return s.ctrl
}

// Process estimates gaze and, while monitoring, evaluates and logs the
// frame's violations.
func (s *Session) Process(obs Observation) Frame {
	f := Frame{
		NumFaces:    obs.NumFaces,
		WindowTitle: obs.WindowTitle,
	}

	if len(obs.Faces) > 0 {
		lm := obs.Faces[0]
		f.Gaze, f.GazeValid = s.estimator.Update(lm)
		if len(lm) >= gaze.MinLandmarks {
			f.Iris = [2]gaze.Landmark{lm[gaze.LeftIris], lm[gaze.RightIris]}
			f.HasIris = true
		}
	}

	if env, ok := s.ctrl.Envelope(); ok {
		f.Candidates = s.eval.Evaluate(env, violation.Signals{
			NumFaces:    obs.NumFaces,
			Gaze:        f.Gaze,
			GazeValid:   f.GazeValid,
			WindowTitle: obs.WindowTitle,
		})
		f.Logged = s.reporter.Report(f.Candidates)
	}

	f.Snapshot = s.ctrl.Snapshot()
	return f
}

// Handle applies a command in the context of the frame it was issued on.
// It returns true when the session should end.
func (s *Session) Handle(cmd Command, f Frame) (quit bool) {
	if corner, ok := cmd.Corner(); ok {
		if !f.GazeValid {
			s.logger.Warn("capturing corner without a fresh gaze estimate",
				"corner", corner, "gaze", f.Gaze)
		}
		s.ctrl.Capture(corner, f.Gaze)
		return false
	}

	switch cmd {
	case CmdStart:
		if !s.ctrl.Start() && !s.ctrl.Monitoring() {
			s.logger.Info("start ignored, calibration incomplete")
		}
	case CmdQuit:
		s.logger.Info("quit requested")
		return true
	}
	return false
}
