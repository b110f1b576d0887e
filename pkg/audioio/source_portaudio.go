//go:build cgo

package audioio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

const portAudioAvailable = true

// PortAudioSource captures audio from an input device through PortAudio.
// Reads are blocking and sized to one chunk at the device rate; chunks are
// downmixed and resampled to the configured output format.
type PortAudioSource struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool

	// readMu serializes device reads against Stop.
	readMu sync.Mutex
	stream *portaudio.Stream
	buf    []int16

	devChannels int

	// Stats
	chunksRead  atomic.Int64
	samplesRead atomic.Int64
	overruns    atomic.Int64
}

func newPortAudioSource(cfg Config, logger *slog.Logger) (Source, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}

	s := &PortAudioSource{
		cfg:         cfg,
		logger:      logger.With("backend", "portaudio"),
		devChannels: cfg.Channels,
	}

	if err := s.open(); err != nil {
		portaudio.Terminate()
		return nil, err
	}

	return s, nil
}

func (s *PortAudioSource) open() error {
	frames := s.cfg.captureBufferSize()
	rate := float64(s.cfg.captureRate())

	if s.cfg.Device == "" {
		s.buf = make([]int16, frames*s.devChannels)
		stream, err := portaudio.OpenDefaultStream(s.devChannels, 0, rate, frames, s.buf)
		if err != nil {
			return fmt.Errorf("open default input: %w", err)
		}
		s.stream = stream
		s.logger.Info("PortAudio source created", "device", "default", "capture_rate", rate)
		return nil
	}

	dev, err := findInputDevice(s.cfg.Device)
	if err != nil {
		return err
	}
	if dev.MaxInputChannels < s.devChannels {
		// Mono request on a stereo-only device.
		s.devChannels = dev.MaxInputChannels
	}

	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = s.devChannels
	params.SampleRate = rate
	params.FramesPerBuffer = frames

	s.buf = make([]int16, frames*s.devChannels)
	stream, err := portaudio.OpenStream(params, s.buf)
	if err != nil {
		return fmt.Errorf("open input %q: %w", dev.Name, err)
	}
	s.stream = stream

	s.logger.Info("PortAudio source created",
		"device", dev.Name,
		"capture_rate", rate,
		"device_channels", s.devChannels,
	)
	return nil
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), strings.ToLower(name)) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no input device matching %q", name)
}

// Start begins audio capture.
func (s *PortAudioSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSourceClosed
	}
	if s.running {
		return nil
	}

	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	s.running = true

	s.logger.Info("PortAudio source started")
	return nil
}

// Read blocks until one chunk has been captured.
func (s *PortAudioSource) Read(ctx context.Context) (AudioChunk, error) {
	if err := ctx.Err(); err != nil {
		return AudioChunk{}, err
	}

	s.readMu.Lock()
	defer s.readMu.Unlock()

	if !s.isRunning() {
		return AudioChunk{}, io.EOF
	}

	if err := s.stream.Read(); err != nil {
		if errors.Is(err, portaudio.InputOverflowed) {
			s.overruns.Add(1)
			return AudioChunk{}, ErrOverflow
		}
		return AudioChunk{}, fmt.Errorf("%w: read stream: %w", ErrDeviceLost, err)
	}

	samples := make([]int16, len(s.buf))
	copy(samples, s.buf)

	if s.devChannels == 2 && s.cfg.Channels == 1 {
		samples = StereoToMono(samples)
	}
	if rate := s.cfg.captureRate(); rate != s.cfg.SampleRate {
		samples = Resample(samples, rate, s.cfg.SampleRate)
	}

	s.chunksRead.Add(1)
	s.samplesRead.Add(int64(len(samples)))

	return AudioChunk{
		Samples:    samples,
		SampleRate: s.cfg.SampleRate,
		Channels:   s.cfg.Channels,
	}, nil
}

func (s *PortAudioSource) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stop halts audio capture. It waits for an in-flight Read to finish.
func (s *PortAudioSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.readMu.Lock()
	defer s.readMu.Unlock()

	if err := s.stream.Stop(); err != nil {
		return fmt.Errorf("stop stream: %w", err)
	}

	s.logger.Info("PortAudio source stopped",
		"chunks_read", s.chunksRead.Load(),
		"overruns", s.overruns.Load(),
	)
	return nil
}

// Config returns the audio configuration.
func (s *PortAudioSource) Config() Config {
	return s.cfg
}

// Name returns the backend name.
func (s *PortAudioSource) Name() string {
	return string(BackendPortAudio)
}

// Close stops capture and releases the stream and the PortAudio library.
func (s *PortAudioSource) Close() error {
	if err := s.Stop(); err != nil {
		s.logger.Warn("stop on close failed", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if err := s.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close stream: %w", err))
	}
	if err := portaudio.Terminate(); err != nil {
		errs = append(errs, fmt.Errorf("portaudio terminate: %w", err))
	}
	return errors.Join(errs...)
}

// Stats returns source statistics.
func (s *PortAudioSource) Stats() SourceStats {
	return SourceStats{
		ChunksRead:  s.chunksRead.Load(),
		SamplesRead: s.samplesRead.Load(),
		Overruns:    s.overruns.Load(),
		Running:     s.isRunning(),
		Backend:     string(BackendPortAudio),
	}
}

var _ SourceWithStats = (*PortAudioSource)(nil)
