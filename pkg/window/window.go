// Package window reports the title of the focused desktop window.
package window

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ErrUnavailable is returned when the platform has no supported window
// introspection (no X display, unsupported OS).
var ErrUnavailable = errors.New("window: active window title unavailable")

// Provider returns the title of the focused window.
type Provider interface {
	ActiveTitle() (string, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func() (string, error)

// ActiveTitle calls f.
func (f ProviderFunc) ActiveTitle() (string, error) { return f() }

// Static always reports the same title.
type Static string

// ActiveTitle returns s.
func (s Static) ActiveTitle() (string, error) { return string(s), nil }

// New returns the provider for the current platform.
func New(logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return newPlatformProvider(logger.With("component", "window"))
}

// DefaultPollInterval is how often a Watcher samples the focused window.
const DefaultPollInterval = 250 * time.Millisecond

// Watcher polls a provider in the background so the frame loop never blocks
// on a window-system round trip. Errors read as an empty title.
type Watcher struct {
	provider Provider
	logger   *slog.Logger
	interval time.Duration

	title   atomic.Value // string
	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	lastErr string
}

// NewWatcher creates a watcher. A zero interval uses DefaultPollInterval.
func NewWatcher(p Provider, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		provider: p,
		logger:   logger.With("component", "window"),
		interval: interval,
	}
	w.title.Store("")
	return w
}

// Start polls until ctx is cancelled or Stop is called. It samples once
// before returning.
func (w *Watcher) Start(ctx context.Context) {
	if !w.running.CompareAndSwap(false, true) {
		return
	}
	w.done = make(chan struct{})
	w.poll()

	w.wg.Add(1)
	go w.loop(ctx, w.done)
}

func (w *Watcher) loop(ctx context.Context, done chan struct{}) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	title, err := w.provider.ActiveTitle()
	if err != nil {
		// Log each distinct failure once.
		if msg := err.Error(); msg != w.lastErr {
			w.lastErr = msg
			w.logger.Debug("active window lookup failed", "error", err)
		}
		title = ""
	} else {
		w.lastErr = ""
	}
	w.title.Store(strings.TrimSpace(title))
}

// Title returns the most recently sampled title.
func (w *Watcher) Title() string {
	return w.title.Load().(string)
}

// Stop ends polling and waits for the poller to exit.
func (w *Watcher) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}
	close(w.done)
	w.wg.Wait()
}
