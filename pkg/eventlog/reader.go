package eventlog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// ReadAll loads every complete record of the log at path, header dropped,
// in append order. A trailing line without a newline is still being
// written and is ignored.
func ReadAll(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}
	return Parse(completePrefix(data), true), nil
}

// Parse decodes CSV records. When skipHeader is set the first record is
// dropped if it is the header. Malformed rows are skipped.
func Parse(data []byte, skipHeader bool) []Event {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	var events []Event
	first := true
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		if first && skipHeader {
			first = false
			if isHeader(rec) {
				continue
			}
		}
		first = false
		if len(rec) != len(Header) {
			continue
		}
		ev := Event{Time: rec[0], Category: Category(rec[1]), Details: rec[2]}
		if ts, err := time.ParseInLocation(TimestampLayout, rec[0], time.Local); err == nil {
			ev.Timestamp = ts
		}
		events = append(events, ev)
	}
	return events
}

func isHeader(rec []string) bool {
	if len(rec) != len(Header) {
		return false
	}
	for i := range rec {
		if rec[i] != Header[i] {
			return false
		}
	}
	return true
}

// completePrefix cuts data after its last newline.
func completePrefix(data []byte) []byte {
	i := bytes.LastIndexByte(data, '\n')
	if i < 0 {
		return nil
	}
	return data[:i+1]
}

// Newest returns a copy of events in reverse order, newest first.
func Newest(events []Event) []Event {
	out := make([]Event, len(events))
	for i, ev := range events {
		out[len(events)-1-i] = ev
	}
	return out
}

// Tailer follows a log file and returns records appended since the last call.
// It restarts from the beginning when the file is truncated.
type Tailer struct {
	path   string
	offset int64
	resets int
}

// NewTailer creates a tailer positioned at the start of the file.
func NewTailer(path string) *Tailer {
	return &Tailer{path: path}
}

// Next returns complete records appended since the previous call.
// A missing file yields no events and no error.
func (t *Tailer) Next() ([]Event, error) {
	f, err := os.Open(t.path)
	if errors.Is(err, os.ErrNotExist) {
		t.rewind()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat event log: %w", err)
	}
	if info.Size() < t.offset {
		t.rewind()
	}
	if info.Size() == t.offset {
		return nil, nil
	}

	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek event log: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(f, info.Size()-t.offset))
	if err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}

	chunk := completePrefix(data)
	fromStart := t.offset == 0
	t.offset += int64(len(chunk))
	return Parse(chunk, fromStart), nil
}

func (t *Tailer) rewind() {
	if t.offset > 0 {
		t.resets++
	}
	t.offset = 0
}

// Resets counts how often the file was truncated or removed after records
// had been read, which happens when a new session starts.
func (t *Tailer) Resets() int {
	return t.resets
}
