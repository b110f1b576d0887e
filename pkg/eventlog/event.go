// Package eventlog implements the append-only violation log shared by the
// frame loop and the audio loop.
//
// The log is a UTF-8 CSV file with the fixed header
//
//	Timestamp,Violation Type,Details
//
// followed by one record per event in append order. Appends are serialized
// and written with a single write call, so readers polling the file see a
// consistent prefix at any time.
package eventlog

import (
	"strings"
	"time"
)

// Category is the "Violation Type" column of a record.
type Category string

// Event categories.
const (
	CategoryAudio       Category = "Audio"
	CategoryEnvironment Category = "Environment"
	CategoryFace        Category = "Face Detection"
	CategoryGaze        Category = "Gaze Tracking"
	CategorySystem      Category = "System"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryAudio,
	CategoryEnvironment,
	CategoryFace,
	CategoryGaze,
	CategorySystem,
}

// TimestampLayout is the second-resolution wall-clock format of the Timestamp column.
const TimestampLayout = "15:04:05"

// Header is the first record of every log.
var Header = []string{"Timestamp", "Violation Type", "Details"}

// System event details written by the session.
const (
	DetailsExamStarted = "Exam Started - Calibration Finished"
	DetailsExamEnded   = "Exam Ended - Proctoring Terminated"
)

// Event is one violation record.
type Event struct {
	Timestamp time.Time `json:"-"`
	Time      string    `json:"timestamp"`
	Category  Category  `json:"type"`
	Details   string    `json:"details"`
}

// NewEvent builds an event stamped at t.
func NewEvent(t time.Time, category Category, details string) Event {
	return Event{
		Timestamp: t,
		Time:      t.Format(TimestampLayout),
		Category:  category,
		Details:   sanitize(details),
	}
}

// Record returns the CSV fields of the event.
func (e Event) Record() []string {
	return []string{e.Time, string(e.Category), e.Details}
}

// sanitize keeps details on a single line. Window titles are the only
// free-form input and may carry control characters.
func sanitize(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == '\r' || r == '\n'
	}), " ")
}
