package models

import (
	"encoding/json"
	"time"
)

// EventType categorizes poller events.
type EventType string

const (
	EventTypePollSucceeded EventType = "poll.succeeded"
	EventTypePollFailed    EventType = "poll.failed"
	EventTypeKeyRequired   EventType = "key.required"
	EventTypeKeyAccepted   EventType = "key.accepted"
	EventTypeNotice        EventType = "notice"
)

// Event is a single entry in the poller's activity stream.
type Event struct {
	// ID is the unique identifier for the event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	Type EventType `json:"type"`

	// Message is a human readable summary.
	Message string `json:"message,omitempty"`

	// Payload carries type-specific data.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PollSucceededPayload is the payload for poll.succeeded events.
type PollSucceededPayload struct {
	DurationSeconds int64    `json:"duration_seconds"`
	FocusPercentage *float64 `json:"focus_percentage,omitempty"`
	NextPollSeconds int      `json:"next_poll_seconds"`
}

// PollFailedPayload is the payload for poll.failed events.
type PollFailedPayload struct {
	Error            string `json:"error"`
	StatusCode       int    `json:"status_code,omitempty"`
	InvalidKey       bool   `json:"invalid_key"`
	RetryInSeconds   int    `json:"retry_in_seconds,omitempty"`
	ConsecutiveFails int    `json:"consecutive_fails"`
}
