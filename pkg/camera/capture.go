package camera

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// ErrOpen is returned when the capture device cannot be acquired.
var ErrOpen = errors.New("camera: cannot open capture device")

// Source produces BGR frames.
type Source interface {
	// Read fills m with the next frame. It returns false when the device
	// has failed or the stream ended.
	Read(m *gocv.Mat) bool

	// Close releases the device.
	Close() error
}

// Capture is a webcam opened through OpenCV.
type Capture struct {
	cfg    Config
	vc     *gocv.VideoCapture
	logger *slog.Logger

	closeOnce sync.Once
}

// Open acquires the device described by cfg.
func Open(cfg Config, logger *slog.Logger) (*Capture, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid camera config: %s", strings.Join(errs, "; "))
	}
	if logger == nil {
		logger = slog.Default()
	}

	vc, err := gocv.VideoCaptureDevice(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("%w %d: %v", ErrOpen, cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w %d", ErrOpen, cfg.Device)
	}

	if cfg.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.Framerate > 0 {
		vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	}

	c := &Capture{
		cfg:    cfg,
		vc:     vc,
		logger: logger.With("component", "camera"),
	}

	c.logger.Info("camera opened",
		"device", cfg.Device,
		"width", vc.Get(gocv.VideoCaptureFrameWidth),
		"height", vc.Get(gocv.VideoCaptureFrameHeight),
		"fps", vc.Get(gocv.VideoCaptureFPS),
	)

	return c, nil
}

// Read grabs the next frame, mirrored when configured.
func (c *Capture) Read(m *gocv.Mat) bool {
	if ok := c.vc.Read(m); !ok || m.Empty() {
		return false
	}
	if c.cfg.Mirror {
		gocv.Flip(*m, m, 1)
	}
	return true
}

// Close releases the device. It is safe to call more than once.
func (c *Capture) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.vc.Close()
		c.logger.Info("camera released")
	})
	return err
}

var _ Source = (*Capture)(nil)
