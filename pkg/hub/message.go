// Package hub fans event-log records out to dashboard websocket clients
// using the channel-based broadcast pattern.
package hub

import (
	"encoding/json"

	"github.com/teslashibe/go-proctor/pkg/eventlog"
)

// Message is one frame sent to every client. Data is pre-encoded JSON.
type Message struct {
	Data []byte
}

// EventsMessage is the payload pushed when records are appended.
type EventsMessage struct {
	Type   string           `json:"type"`
	Events []eventlog.Event `json:"events"`
}

// ResetMessage tells clients the log was truncated by a new session.
type ResetMessage struct {
	Type string `json:"type"`
}

// Message type tags.
const (
	TypeEvents = "events"
	TypeReset  = "reset"
)

// NewEventsMessage encodes events for broadcast.
func NewEventsMessage(events []eventlog.Event) (Message, error) {
	data, err := json.Marshal(EventsMessage{Type: TypeEvents, Events: events})
	if err != nil {
		return Message{}, err
	}
	return Message{Data: data}, nil
}

// NewResetMessage encodes a reset notice.
func NewResetMessage() Message {
	data, _ := json.Marshal(ResetMessage{Type: TypeReset})
	return Message{Data: data}
}
