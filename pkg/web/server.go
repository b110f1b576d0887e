// Package web serves the read-only proctoring dashboard. It reads the
// event log the monitor writes and never talks to the monitor directly.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-proctor/pkg/eventlog"
	"github.com/teslashibe/go-proctor/pkg/hub"
)

//go:embed templates/index.html
var templates embed.FS

// Config configures the dashboard.
type Config struct {
	// Addr is the listen address.
	Addr string

	// LogPath is the event log to read.
	LogPath string

	// PollInterval is how often the log is checked for new records. The
	// HTML page refreshes at the same cadence, rounded up to a second.
	PollInterval time.Duration
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg    Config
	app    *fiber.App
	hub    *hub.Hub
	tailer *eventlog.Tailer
	page   *template.Template
	logger *slog.Logger

	// mu serializes tailer reads.
	mu     sync.Mutex
	resets int
}

// NewServer creates a dashboard server. A nil logger uses slog.Default.
func NewServer(cfg Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}

	page, err := template.New("index.html").Funcs(template.FuncMap{
		"badge": badgeClass,
	}).ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		hub:    hub.New(logger),
		tailer: eventlog.NewTailer(cfg.LogPath),
		page:   page,
		logger: logger.With("component", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Proctoring Dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	app.Get("/", s.handleIndex)

	api := app.Group("/api")
	api.Get("/events", s.handleEvents)
	api.Get("/status", s.handleStatus)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s, nil
}

// App returns the fiber app, for tests and embedding.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the websocket hub.
func (s *Server) Hub() *hub.Hub {
	return s.hub
}

// Run listens on the configured address until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the dashboard on ln until ctx is done. Records already in the
// log are served by the HTTP endpoints; the websocket only pushes records
// appended after Serve starts.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	_, err := s.tailer.Next()
	s.resets = s.tailer.Resets()
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("initial log read failed", "path", s.cfg.LogPath, "error", err)
	}

	go s.hub.Run(ctx)
	go s.watch(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- s.app.Listener(ln) }()

	s.logger.Info("dashboard listening", "addr", ln.Addr().String(), "log", s.cfg.LogPath)

	select {
	case <-ctx.Done():
		if err := s.app.Shutdown(); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Poll(); err != nil {
				s.logger.Warn("poll event log", "error", err)
			}
		}
	}
}

// Poll reads newly appended records and pushes them to websocket clients.
// A truncated log, meaning a new session, is announced first.
func (s *Server) Poll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.tailer.Next()
	if err != nil {
		return err
	}
	if r := s.tailer.Resets(); r != s.resets {
		s.resets = r
		s.hub.Broadcast(hub.NewResetMessage())
	}
	return s.hub.BroadcastEvents(events)
}

// readEvents loads the log. A missing file is an empty log.
func (s *Server) readEvents() ([]eventlog.Event, bool, error) {
	events, err := eventlog.ReadAll(s.cfg.LogPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return events, true, nil
}

func badgeClass(c eventlog.Category) string {
	switch c {
	case eventlog.CategoryAudio:
		return "badge-audio"
	case eventlog.CategoryEnvironment:
		return "badge-environment"
	case eventlog.CategoryFace:
		return "badge-face"
	case eventlog.CategoryGaze:
		return "badge-gaze"
	default:
		return "badge-system"
	}
}
