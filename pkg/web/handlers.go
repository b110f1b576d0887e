package web

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-proctor/pkg/eventlog"
	"github.com/teslashibe/go-proctor/pkg/hub"
)

type indexData struct {
	Path    string
	Count   int
	Refresh int
	Events  []eventlog.Event
}

// handleIndex renders the event table, newest first.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	events, _, err := s.readEvents()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var buf bytes.Buffer
	err = s.page.Execute(&buf, indexData{
		Path:    s.cfg.LogPath,
		Count:   len(events),
		Refresh: int(math.Ceil(s.cfg.PollInterval.Seconds())),
		Events:  eventlog.Newest(events),
	})
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

// EventsResponse is the body of GET /api/events.
type EventsResponse struct {
	Count  int              `json:"count"`
	Events []eventlog.Event `json:"events"`
}

// handleEvents returns events newest first. Optional query parameters:
// type filters by category and limit caps the result.
func (s *Server) handleEvents(c *fiber.Ctx) error {
	events, _, err := s.readEvents()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be a non-negative integer"})
		}
		limit = n
	}

	category := eventlog.Category(c.Query("type"))
	out := make([]eventlog.Event, 0, len(events))
	for _, ev := range eventlog.Newest(events) {
		if category != "" && ev.Category != category {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) == limit {
			break
		}
	}

	return c.JSON(EventsResponse{Count: len(out), Events: out})
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	LogPath    string                    `json:"log_path"`
	Exists     bool                      `json:"exists"`
	Count      int                       `json:"count"`
	ByCategory map[eventlog.Category]int `json:"by_category"`
	Last       *eventlog.Event           `json:"last"`
	Monitoring bool                      `json:"monitoring"`
	Ended      bool                      `json:"ended"`
	Clients    int                       `json:"clients"`
}

// handleStatus summarizes the log. Monitoring is true once the start event
// is present and Ended once the end event is.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	events, exists, err := s.readEvents()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	resp := StatusResponse{
		LogPath:    s.cfg.LogPath,
		Exists:     exists,
		Count:      len(events),
		ByCategory: make(map[eventlog.Category]int),
		Clients:    s.hub.ClientCount(),
	}
	for _, ev := range events {
		resp.ByCategory[ev.Category]++
		if ev.Category == eventlog.CategorySystem {
			switch ev.Details {
			case eventlog.DetailsExamStarted:
				resp.Monitoring = true
			case eventlog.DetailsExamEnded:
				resp.Ended = true
			}
		}
	}
	if len(events) > 0 {
		last := events[len(events)-1]
		resp.Last = &last
	}
	if resp.Ended {
		resp.Monitoring = false
	}

	return c.JSON(resp)
}

// handleEventsWS sends the current log, then streams appended records.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	events, _, err := s.readEvents()
	if err != nil {
		s.logger.Warn("read event log for websocket", "error", err)
	}
	if events == nil {
		events = []eventlog.Event{}
	}
	data, err := json.Marshal(hub.EventsMessage{Type: hub.TypeEvents, Events: events})
	if err == nil {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}

	hub.NewClient(s.hub, c).Run()
}
