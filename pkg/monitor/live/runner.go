// Package live drives a monitor.Session from real devices: the camera
// frame loop with its preview window, and the audio loop in a second
// goroutine.
package live

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-proctor/pkg/camera"
	"github.com/teslashibe/go-proctor/pkg/detection"
	"github.com/teslashibe/go-proctor/pkg/landmarks"
	"github.com/teslashibe/go-proctor/pkg/monitor"
	"github.com/teslashibe/go-proctor/pkg/window"
)

// DefaultExtractTimeout bounds one landmark request.
const DefaultExtractTimeout = 500 * time.Millisecond

// AudioLoop is the background audio monitor.
type AudioLoop interface {
	Run(ctx context.Context) error
}

// Config configures the runner.
type Config struct {
	// WindowName titles the preview window.
	WindowName string

	// Display opens the preview window and reads keys from it. Without it
	// commands come only from Deps.Commands.
	Display bool

	// ExtractTimeout bounds each landmark extraction.
	ExtractTimeout time.Duration
}

// Deps are the collaborators the runner drives. Camera, Detector and
// Session are required; the rest may be nil.
type Deps struct {
	Camera    camera.Source
	Detector  detection.Detector
	Extractor landmarks.Extractor
	Windows   *window.Watcher
	Session   *monitor.Session
	Audio     AudioLoop

	// Sink is closed last, which appends the terminal event.
	Sink io.Closer

	// Commands delivers commands typed outside the preview window.
	Commands <-chan monitor.Command
}

// Runner owns the frame loop for one session.
type Runner struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger

	frames        atomic.Int64
	detectErrors  atomic.Int64
	extractErrors atomic.Int64
}

// New creates a runner. A nil logger uses slog.Default.
func New(cfg Config, deps Deps, logger *slog.Logger) (*Runner, error) {
	if deps.Camera == nil || deps.Detector == nil || deps.Session == nil {
		return nil, errors.New("live: camera, detector and session are required")
	}
	if cfg.WindowName == "" {
		cfg.WindowName = "Proctoring Monitor"
	}
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = DefaultExtractTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With("component", "live"),
	}, nil
}

// Run processes frames until the camera fails, a quit command arrives or
// ctx is done. Shutdown releases the camera, stops the audio loop and the
// window watcher, then closes the sink.
func (r *Runner) Run(ctx context.Context) error {
	audioCtx, cancelAudio := context.WithCancel(ctx)
	var wg sync.WaitGroup
	if r.deps.Audio != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.deps.Audio.Run(audioCtx); err != nil {
				r.logger.Warn("audio monitoring unavailable", "error", err)
			}
		}()
	}

	if r.deps.Windows != nil {
		r.deps.Windows.Start(ctx)
	}

	r.loop(ctx)

	if err := r.deps.Camera.Close(); err != nil {
		r.logger.Warn("camera close failed", "error", err)
	}
	cancelAudio()
	wg.Wait()
	if r.deps.Windows != nil {
		r.deps.Windows.Stop()
	}

	r.logger.Info("session ended",
		"frames", r.frames.Load(),
		"detect_errors", r.detectErrors.Load(),
		"extract_errors", r.extractErrors.Load(),
	)

	if r.deps.Sink != nil {
		return r.deps.Sink.Close()
	}
	return nil
}

func (r *Runner) loop(ctx context.Context) {
	var win *gocv.Window
	if r.cfg.Display {
		win = gocv.NewWindow(r.cfg.WindowName)
		defer win.Close()
	}

	img := gocv.NewMat()
	defer img.Close()

	for {
		if ctx.Err() != nil {
			r.logger.Info("stopping", "reason", ctx.Err())
			return
		}
		ok := r.deps.Camera.Read(&img)
		if !ok || img.Empty() {
			reason := "end_of_stream"
			if ok {
				reason = "empty_frame"
			}
			r.logger.Warn("camera read failed, ending session", "reason", reason, "frames", r.frames.Load())
			return
		}
		r.frames.Add(1)

		obs, dets := r.observe(ctx, img)
		f := r.deps.Session.Process(obs)

		cmd := monitor.CmdNone
		if win != nil {
			Draw(&img, f, dets)
			win.IMShow(img)
			cmd = monitor.KeyCommand(win.WaitKey(1))
		}
		if cmd == monitor.CmdNone {
			cmd = r.pending()
		}
		if r.deps.Session.Handle(cmd, f) {
			return
		}
	}
}

// pending returns a queued command without blocking.
func (r *Runner) pending() monitor.Command {
	select {
	case cmd, ok := <-r.deps.Commands:
		if ok {
			return cmd
		}
	default:
	}
	return monitor.CmdNone
}

// observe runs the detectors on one frame. A detector failure reports a
// negative face count; an extraction failure reports no landmarks.
func (r *Runner) observe(ctx context.Context, img gocv.Mat) (monitor.Observation, []detection.Detection) {
	obs := monitor.Observation{NumFaces: -1}

	dets, err := r.deps.Detector.Detect(img)
	if err != nil {
		r.detectErrors.Add(1)
		r.logger.Debug("face detection failed", "error", err)
	} else {
		obs.NumFaces = len(dets)
	}

	if r.deps.Extractor != nil {
		ectx, cancel := context.WithTimeout(ctx, r.cfg.ExtractTimeout)
		faces, err := r.deps.Extractor.Extract(ectx, img)
		cancel()
		if err != nil {
			r.extractErrors.Add(1)
			r.logger.Debug("landmark extraction failed", "error", err)
		} else {
			obs.Faces = faces
		}
	}

	if r.deps.Windows != nil {
		obs.WindowTitle = r.deps.Windows.Title()
	}
	return obs, dets
}

// Stats are frame-loop counters.
type Stats struct {
	Frames        int64 `json:"frames"`
	DetectErrors  int64 `json:"detect_errors"`
	ExtractErrors int64 `json:"extract_errors"`
}

// Stats returns the frame-loop counters.
func (r *Runner) Stats() Stats {
	return Stats{
		Frames:        r.frames.Load(),
		DetectErrors:  r.detectErrors.Load(),
		ExtractErrors: r.extractErrors.Load(),
	}
}
