// Package models defines the data types shared across devtime.
package models

import "time"

// Summary is the subset of the RescueTime taxonomy presence summary that
// devtime renders.
type Summary struct {
	// Duration is the tracked time in seconds.
	Duration int64 `json:"duration"`

	// FocusPercentage is the share of focused time (0-100), when reported.
	FocusPercentage *float64 `json:"focus_percentage,omitempty"`
}

// HasFocus reports whether the summary carries a non-zero focus percentage.
func (s *Summary) HasFocus() bool {
	return s != nil && s.FocusPercentage != nil && *s.FocusPercentage != 0
}

// PollState is the state of the status poller.
type PollState string

const (
	PollStateAwaitingKey  PollState = "awaiting_key"
	PollStatePolling      PollState = "polling"
	PollStateRetryBackoff PollState = "retry_backoff"
)

// SessionSnapshot is a read-only copy of the poller's session.
type SessionSnapshot struct {
	HasKey          bool      `json:"has_key"`
	State           PollState `json:"state"`
	Duration        string    `json:"duration"`
	FocusPercentage *float64  `json:"focus_percentage,omitempty"`
	FocusDots       string    `json:"focus_dots,omitempty"`
	FocusLabel      string    `json:"focus_label,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
}

// HasFocus reports whether the snapshot carries a non-zero focus percentage.
func (s SessionSnapshot) HasFocus() bool {
	return s.FocusPercentage != nil && *s.FocusPercentage != 0
}
