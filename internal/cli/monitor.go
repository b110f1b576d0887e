package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-proctor/internal/config"
	"github.com/teslashibe/go-proctor/internal/log"
	"github.com/teslashibe/go-proctor/pkg/audioio"
	"github.com/teslashibe/go-proctor/pkg/audiomon"
	"github.com/teslashibe/go-proctor/pkg/calibration"
	"github.com/teslashibe/go-proctor/pkg/camera"
	"github.com/teslashibe/go-proctor/pkg/detection"
	"github.com/teslashibe/go-proctor/pkg/eventlog"
	"github.com/teslashibe/go-proctor/pkg/landmarks"
	"github.com/teslashibe/go-proctor/pkg/monitor"
	"github.com/teslashibe/go-proctor/pkg/monitor/live"
	"github.com/teslashibe/go-proctor/pkg/throttle"
	"github.com/teslashibe/go-proctor/pkg/vad"
	"github.com/teslashibe/go-proctor/pkg/violation"
	"github.com/teslashibe/go-proctor/pkg/window"
)

// MonitorOptions holds flags for the monitor command.
type MonitorOptions struct {
	*RootOptions
	Camera        int
	LandmarkURL   string
	Headless      bool
	NoAudio       bool
	NoWindowCheck bool
}

// NewMonitorCommand creates the monitor command.
func NewMonitorCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MonitorOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run a proctoring session",
		Long: `Run one proctoring session. The event log is reset at start.

In the preview window look at each screen corner and press Q (top-left),
W (top-right), A (bottom-left) or S (bottom-right), then SPACE to start the
exam. ESC ends the session.

With --headless there is no window; type tl, tr, bl, br, start or quit on
stdin instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.RootOptions, func(c *config.Config) {
				if cmd.Flags().Changed("camera") {
					c.Camera.Device = opts.Camera
				}
				if opts.LandmarkURL != "" {
					c.Landmarks.URL = opts.LandmarkURL
				}
				if opts.NoAudio {
					c.Audio.Enabled = false
				}
				if opts.NoWindowCheck {
					c.Window.Enabled = false
				}
			})
			if err != nil {
				return err
			}
			log.Init(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runMonitor(ctx, cfg, opts, cmd.InOrStdin())
		},
	}

	cmd.Flags().IntVar(&opts.Camera, "camera", 0, "camera device index")
	cmd.Flags().StringVar(&opts.LandmarkURL, "landmark-url", "", "face-mesh sidecar URL (default "+landmarks.DefaultBaseURL+")")
	cmd.Flags().BoolVar(&opts.Headless, "headless", false, "no preview window; read commands from stdin")
	cmd.Flags().BoolVar(&opts.NoAudio, "no-audio", false, "disable microphone monitoring")
	cmd.Flags().BoolVar(&opts.NoWindowCheck, "no-window-check", false, "disable the focused-window check")

	return cmd
}

func runMonitor(ctx context.Context, cfg config.Config, opts *MonitorOptions, stdin io.Reader) error {
	logger := log.L().With("session", uuid.NewString())

	cam, err := camera.Open(cfg.Camera, logger)
	if err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	detector, err := detection.NewYuNet(cfg.Detection, logger)
	if err != nil {
		cam.Close()
		return fmt.Errorf("load face detector: %w", err)
	}
	defer detector.Close()

	extractor, err := landmarks.NewClient(append(cfg.Landmarks.Options(), landmarks.WithLogger(logger))...)
	if err != nil {
		cam.Close()
		return fmt.Errorf("landmark client: %w", err)
	}
	defer extractor.Close()
	if err := extractor.Health(ctx); err != nil {
		logger.Warn("landmark sidecar not reachable, gaze checks will be skipped until it is", "url", cfg.Landmarks.URL, "error", err)
	}

	sink, err := eventlog.Open(cfg.LogPath, eventlog.WithLogger(logger))
	if err != nil {
		cam.Close()
		return err
	}

	sampler := throttle.New()
	ctrl := calibration.New(sink, logger)
	eval := violation.Evaluator{Buffer: cfg.Buffer, WindowID: cfg.WindowName}
	session := monitor.NewSession(ctrl, eval, violation.NewReporter(sink, sampler, cfg.Throttle), logger)

	deps := live.Deps{
		Camera:    cam,
		Detector:  detector,
		Extractor: extractor,
		Session:   session,
		Sink:      sink,
	}

	if cfg.Audio.Enabled {
		audio, closeAudio, err := newAudioMonitor(cfg, sampler, sink, logger)
		if err != nil {
			logger.Warn("audio monitoring disabled", "error", err)
		} else {
			defer closeAudio()
			deps.Audio = audio
		}
	}

	if cfg.Window.Enabled {
		p, err := window.New(logger)
		if err != nil {
			logger.Warn("window check disabled", "error", err)
		} else {
			deps.Windows = window.NewWatcher(p, cfg.Window.PollInterval, logger)
		}
	}

	if opts.Headless {
		deps.Commands = readCommands(ctx, stdin, logger)
	}

	runner, err := live.New(live.Config{
		WindowName:     cfg.WindowName,
		Display:        !opts.Headless,
		ExtractTimeout: cfg.Landmarks.Timeout,
	}, deps, logger)
	if err != nil {
		cam.Close()
		sink.Abort()
		return err
	}

	logger.Info("session starting", "log", cfg.LogPath, "headless", opts.Headless)
	return runner.Run(ctx)
}

func newAudioMonitor(cfg config.Config, sampler throttle.Sampler, sink *eventlog.Sink, logger *slog.Logger) (*audiomon.Monitor, func(), error) {
	src, err := audioio.NewSource(cfg.Audio.Capture, logger)
	if err != nil {
		return nil, nil, err
	}
	cls, err := vad.New(cfg.Audio.VAD, logger)
	if err != nil {
		src.Close()
		return nil, nil, err
	}
	mon := audiomon.New(cfg.Audio.Monitor(cfg.Throttle), src, cls, sampler, sink, logger)
	return mon, func() { src.Close() }, nil
}

// readCommands parses one command per stdin line. Bad lines are logged and
// skipped. The channel closes at end of input.
func readCommands(ctx context.Context, r io.Reader, logger *slog.Logger) <-chan monitor.Command {
	ch := make(chan monitor.Command, 8)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			cmd, err := monitor.ParseCommand(sc.Text())
			if err != nil {
				logger.Warn("ignoring input", "error", err)
				continue
			}
			if cmd == monitor.CmdNone {
				continue
			}
			select {
			case ch <- cmd:
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
			logger.Warn("command input failed", "error", err)
		}
	}()
	return ch
}
