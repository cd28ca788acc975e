package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/devtime/internal/models"
	"github.com/tOgg1/devtime/internal/statusbar"
)

type itemMsg struct {
	item statusbar.Item
}

type noticeMsg struct {
	text string
}

type promptMsg struct {
	submit func(string)
}

type eventMsg struct {
	event *models.Event
}

// Bridge forwards widget, prompt and event traffic into a running program.
// It satisfies statusbar.Widget and the poller's Prompter.
type Bridge struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

// NewBridge creates a detached Bridge. Messages sent before Attach are dropped.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach routes messages to program.
func (b *Bridge) Attach(program *tea.Program) {
	b.attach(program.Send)
}

func (b *Bridge) attach(send func(tea.Msg)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = send
}

func (b *Bridge) dispatch(msg tea.Msg) {
	b.mu.RLock()
	send := b.send
	b.mu.RUnlock()
	if send != nil {
		send(msg)
	}
}

// SetItem shows item in the status bar line.
func (b *Bridge) SetItem(_ context.Context, item statusbar.Item) error {
	b.dispatch(itemMsg{item: item})
	return nil
}

// Notify shows message in the notice area.
func (b *Bridge) Notify(_ context.Context, message string) error {
	b.dispatch(noticeMsg{text: message})
	return nil
}

// RequestKey opens the key input overlay.
func (b *Bridge) RequestKey(_ context.Context, submit func(string)) {
	b.dispatch(promptMsg{submit: submit})
}

// HandleEvent appends event to the activity log; use as an events handler.
func (b *Bridge) HandleEvent(event *models.Event) {
	b.dispatch(eventMsg{event: event})
}
