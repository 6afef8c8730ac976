// Package messaging pushes harness updates to connected panels over websockets.
package messaging

import "time"

// Message types published to subscribers.
const (
	TypeHarnessUpdated   = "harness.updated"
	TypeTemplatesUpdated = "templates.updated"
	TypeSettingsUpdated  = "settings.updated"
)

// Message is one update pushed to subscribers. Part is zero for messages
// that concern every part, such as template changes.
type Message struct {
	Type      string    `json:"type"`
	Part      int64     `json:"part,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher accepts messages for delivery.
type Publisher interface {
	Publish(msg Message)
}

// NopPublisher drops every message.
type NopPublisher struct{}

func (NopPublisher) Publish(Message) {}
