package eventlog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-proctor/internal/timeutil"
)

// DefaultPath is the log file used when none is configured.
const DefaultPath = "exam_log.csv"

// Sink is the append-only event store. It is safe for concurrent use.
type Sink struct {
	path   string
	clock  timeutil.Clock
	logger *slog.Logger

	mu     sync.Mutex
	out    io.Writer
	file   *os.File
	buf    bytes.Buffer
	closed bool

	closeOnce sync.Once

	// Stats
	appended atomic.Int64
	failures atomic.Int64
}

// Option configures a Sink.
type Option func(*Sink)

// WithClock sets the clock used to stamp events.
func WithClock(c timeutil.Clock) Option {
	return func(s *Sink) { s.clock = c }
}

// WithLogger sets the logger used to echo events and report write failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) { s.logger = l }
}

// Open creates or truncates the log at path and writes the header.
func Open(path string, opts ...Option) (*Sink, error) {
	if path == "" {
		path = DefaultPath
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	s := newSink(path, f, opts...)
	s.file = f
	if err := s.Reset(); err != nil {
		f.Close()
		return nil, err
	}

	s.logger.Info("event log ready", "path", path)
	return s, nil
}

// NewWriterSink wraps an arbitrary writer. Reset only rewrites the header
// since a plain writer cannot be truncated.
func NewWriterSink(w io.Writer, opts ...Option) *Sink {
	return newSink("", w, opts...)
}

func newSink(path string, w io.Writer, opts ...Option) *Sink {
	s := &Sink{
		path:   path,
		out:    w,
		clock:  timeutil.RealClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "eventlog")
	return s
}

// Path returns the backing file path, empty for writer sinks.
func (s *Sink) Path() string {
	return s.path
}

// Reset truncates the store and writes the header record.
func (s *Sink) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if s.file != nil {
		if err := s.file.Truncate(0); err != nil {
			return fmt.Errorf("truncate event log: %w", err)
		}
		if _, err := s.file.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind event log: %w", err)
		}
	}

	if err := s.writeLocked(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// Append records an event stamped with the current time.
// Write failures are logged and counted, never returned: a failed append
// must not stop the monitoring loops.
func (s *Sink) Append(category Category, details string) {
	ev := NewEvent(s.clock.Now(), category, details)

	s.mu.Lock()
	var err error
	if s.closed {
		err = ErrClosed
	} else {
		err = s.writeLocked(ev.Record())
	}
	s.mu.Unlock()

	if err != nil {
		s.failures.Add(1)
		s.logger.Warn("append failed", "type", ev.Category, "details", ev.Details, "error", err)
		return
	}

	s.appended.Add(1)
	s.logger.Info(string(ev.Category)+" FLAG", "time", ev.Time, "details", ev.Details)
}

// writeLocked encodes one record and hands it to the writer in a single call.
func (s *Sink) writeLocked(record []string) error {
	s.buf.Reset()
	w := csv.NewWriter(&s.buf)
	if err := w.Write(record); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	_, err := s.out.Write(s.buf.Bytes())
	return err
}

// Close appends the terminal System event and releases the file.
// Calling Close more than once is a no-op.
func (s *Sink) Close() error {
	return s.release(true)
}

// Abort releases the file without the terminal event, for a session that
// never started. Close and Abort share one release; the first call wins.
func (s *Sink) Abort() error {
	return s.release(false)
}

func (s *Sink) release(terminal bool) error {
	var err error
	s.closeOnce.Do(func() {
		if terminal {
			s.Append(CategorySystem, DetailsExamEnded)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		if s.file != nil {
			if cerr := s.file.Close(); cerr != nil {
				err = fmt.Errorf("close event log: %w", cerr)
			}
		}
	})
	return err
}

// SinkStats contains append counters.
type SinkStats struct {
	Appended int64 `json:"appended"`
	Failures int64 `json:"failures"`
}

// Stats returns append counters.
func (s *Sink) Stats() SinkStats {
	return SinkStats{
		Appended: s.appended.Load(),
		Failures: s.failures.Load(),
	}
}
