package events

import (
	"strings"
	"time"
)

const (
	// SubjectPrefix is prepended to every event type on the bus.
	SubjectPrefix = "events."

	HomeworkMisuseFlagged = "HOMEWORK_MISUSE_FLAGGED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "HOMEWORK_MISUSE_FLAGGED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func Subject(eventType string) string {
	return SubjectPrefix + eventType
}

// TypeFromSubject strips the bus prefix from a received subject.
func TypeFromSubject(subject string) string {
	return strings.TrimPrefix(subject, SubjectPrefix)
}
