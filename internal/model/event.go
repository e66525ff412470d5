package model

import "time"

// EventType identifies a notification event.
type EventType string

const (
	EventCodeGenerated EventType = "CodeGenerated"
	EventCodeUsed      EventType = "CodeUsed"
	EventError         EventType = "Error"
)

// Event is broadcast to subscribers after a generation or redemption completes.
type Event struct {
	Type       EventType `json:"type"`
	Success    *bool     `json:"success,omitempty"`
	Code       string    `json:"code,omitempty"`
	Message    string    `json:"message,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// CodeGeneratedEvent reports the outcome of a generation call.
func CodeGeneratedEvent(success bool, now time.Time) Event {
	return Event{Type: EventCodeGenerated, Success: &success, OccurredAt: now}
}

// CodeUsedEvent reports a successful redemption.
func CodeUsedEvent(code string, now time.Time) Event {
	return Event{Type: EventCodeUsed, Code: code, OccurredAt: now}
}

// ErrorEvent reports a failed redemption to the caller.
func ErrorEvent(message string, now time.Time) Event {
	return Event{Type: EventError, Message: message, OccurredAt: now}
}
