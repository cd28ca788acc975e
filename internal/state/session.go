// Package state owns the polling session and the poller state machine.
package state

import (
	"sync"
	"time"

	"github.com/tOgg1/devtime/internal/display"
	"github.com/tOgg1/devtime/internal/models"
)

// InitialDuration is shown until the first successful poll.
const InitialDuration = "-h -m"

// Session is the single owned copy of everything the poller knows. Fields
// derived from a response are replaced together under one lock.
type Session struct {
	mu sync.RWMutex

	apiKey           string
	state            models.PollState
	duration         string
	focus            *float64
	updatedAt        time.Time
	lastError        string
	consecutiveFails int

	// timer is the one pending scheduled poll, if any.
	timer *time.Timer
}

// NewSession creates an empty session awaiting a key.
func NewSession() *Session {
	return &Session{
		state:    models.PollStateAwaitingKey,
		duration: InitialDuration,
	}
}

// Key returns the API key in use, or "".
func (s *Session) Key() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}

func (s *Session) setKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = key
}

// State returns the current poll state.
func (s *Session) State() models.PollState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) setState(state models.PollState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Apply records a successful summary. Duration and focus change together.
func (s *Session) Apply(summary *models.Summary, at time.Time) {
	var focus *float64
	if summary.FocusPercentage != nil {
		value := *summary.FocusPercentage
		focus = &value
	}
	duration := display.FormatDuration(summary.Duration)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.duration = duration
	s.focus = focus
	s.updatedAt = at
	s.lastError = ""
	s.consecutiveFails = 0
	s.state = models.PollStatePolling
}

// recordFailure notes a failed poll and returns the consecutive failure count.
func (s *Session) recordFailure(state models.PollState, message string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.lastError = message
	s.consecutiveFails++
	return s.consecutiveFails
}

// invalidate drops the key and parks the session waiting for a new one.
// The last rendered summary is kept.
func (s *Session) invalidate(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = ""
	s.state = models.PollStateAwaitingKey
	s.lastError = message
	s.consecutiveFails = 0
}

// Snapshot returns a read-only copy with display fields rendered.
func (s *Session) Snapshot() models.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := models.SessionSnapshot{
		HasKey:    s.apiKey != "",
		State:     s.state,
		Duration:  s.duration,
		UpdatedAt: s.updatedAt,
		LastError: s.lastError,
	}
	if s.focus != nil {
		value := *s.focus
		snap.FocusPercentage = &value
		snap.FocusDots = display.FocusDots(&value)
		snap.FocusLabel = display.FocusLabel(&value)
	}
	return snap
}

// schedule replaces the pending timer with one firing after d.
func (s *Session) schedule(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.NewTimer(d)
}

// stopTimer cancels the pending timer, if any.
func (s *Session) stopTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// timerC returns the pending timer's channel, or nil when none is armed.
func (s *Session) timerC() <-chan time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.timer == nil {
		return nil
	}
	return s.timer.C
}

// timerFired clears the handle of a timer that has delivered its tick.
func (s *Session) timerFired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer = nil
}

// hasTimer reports whether a poll is scheduled.
func (s *Session) hasTimer() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timer != nil
}
