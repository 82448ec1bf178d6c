// Package message defines the nanoupload control protocol.
//
// All messages are newline-delimited JSON. A client sends exactly one
// request per connection and the agent answers with exactly one reply of
// type OK or ERROR.
package message

import (
	"encoding/json"
	"fmt"
	"time"

	"go.klb.dev/nanoupload/internal/dispatch"
)

// Type identifies the kind of message.
type Type string

const (
	TypeGetEndpoint Type = "GET_ENDPOINT"
	TypeSetEndpoint Type = "SET_ENDPOINT"
	TypeGetHotkey   Type = "GET_HOTKEY"
	TypeSetHotkey   Type = "SET_HOTKEY"
	TypeTrigger     Type = "TRIGGER"
	TypeStatus      Type = "STATUS"

	TypeOK    Type = "OK"
	TypeError Type = "ERROR"
)

// Status is the payload of a STATUS reply.
type Status struct {
	Version   string         `json:"version"`
	StartedAt time.Time      `json:"started_at"`
	Endpoint  string         `json:"endpoint"`
	Hotkey    string         `json:"hotkey"`
	Bound     bool           `json:"bound"`
	Backend   string         `json:"backend"`
	Worker    dispatch.Stats `json:"worker"`
}

// Message is the top-level wire envelope.
type Message struct {
	Type Type `json:"type"`

	// SET_ENDPOINT request; GET_ENDPOINT and SET_ENDPOINT replies.
	Endpoint string `json:"endpoint,omitempty"`

	// SET_HOTKEY request; GET_HOTKEY and SET_HOTKEY replies carry the
	// canonical combo.
	Hotkey string `json:"hotkey,omitempty"`

	// TRIGGER reply: false when a run was already pending and the trigger
	// was dropped.
	Accepted *bool `json:"accepted,omitempty"`

	// STATUS reply.
	Status *Status `json:"status,omitempty"`

	// ERROR
	Error string `json:"error,omitempty"`
}

// Errorf returns an ERROR reply.
func Errorf(format string, args ...any) *Message {
	return &Message{Type: TypeError, Error: fmt.Sprintf(format, args...)}
}

// Err converts an ERROR reply into a Go error. It returns nil for any other
// type.
func (m *Message) Err() error {
	if m.Type != TypeError {
		return nil
	}
	if m.Error == "" {
		return fmt.Errorf("agent returned an error")
	}
	return fmt.Errorf("agent: %s", m.Error)
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	if m.Type == "" {
		return nil, fmt.Errorf("message decode: missing type")
	}
	return &m, nil
}
