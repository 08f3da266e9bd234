package entity

import "time"

type EventType string

const (
	EventStart   EventType = "start"
	EventStep    EventType = "step"
	EventWarning EventType = "warning"
	EventError   EventType = "error"
	EventResult  EventType = "result"
	EventDone    EventType = "done"
	EventStatus  EventType = "status"
)

// Event is one entry in a bot's audit trail. Events are also streamed to live listeners.
type Event struct {
	Bot     string    `json:"bot"`
	RunID   string    `json:"run_id,omitempty"`
	Type    EventType `json:"type"`
	Name    string    `json:"name,omitempty"`
	Message string    `json:"message,omitempty"`
	Time    time.Time `json:"ts"`
}
