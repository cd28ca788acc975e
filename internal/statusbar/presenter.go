// Package statusbar renders the poller session as a single status item.
package statusbar

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tOgg1/devtime/internal/display"
	"github.com/tOgg1/devtime/internal/logging"
	"github.com/tOgg1/devtime/internal/models"
)

// Defaults for Options.
const (
	DefaultLabel    = "Dev Time"
	DefaultIcon     = "⏱"
	DefaultCategory = "Software Development"

	awaitingKeyText    = "(click to enter API key)"
	awaitingKeyTooltip = "Click to enter your RescueTime API key"
)

// Item is what a widget displays.
type Item struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
}

// Widget is a status surface.
type Widget interface {
	// SetItem replaces the displayed item and makes it visible.
	SetItem(ctx context.Context, item Item) error

	// Notify shows a transient informational message.
	Notify(ctx context.Context, message string) error
}

// Options controls the rendered text.
type Options struct {
	Label    string
	Icon     string
	Category string
}

func (o Options) withDefaults() Options {
	if o.Label == "" {
		o.Label = DefaultLabel
	}
	if o.Icon == "" {
		o.Icon = DefaultIcon
	}
	if o.Category == "" {
		o.Category = DefaultCategory
	}
	return o
}

// Presenter pushes session snapshots to a Widget.
type Presenter struct {
	widget Widget
	opts   Options
	logger zerolog.Logger

	mu   sync.Mutex
	last *Item
}

// NewPresenter creates a Presenter.
func NewPresenter(widget Widget, opts Options) *Presenter {
	return &Presenter{
		widget: widget,
		opts:   opts.withDefaults(),
		logger: logging.Component("statusbar"),
	}
}

// ShowSummary displays the session's duration and focus.
func (p *Presenter) ShowSummary(ctx context.Context, snap models.SessionSnapshot) {
	p.set(ctx, SummaryItem(p.opts, snap))
}

// ShowAwaitingKey displays the call to action for entering a key.
func (p *Presenter) ShowAwaitingKey(ctx context.Context) {
	p.set(ctx, AwaitingKeyItem(p.opts))
}

// ShowDetails notifies the user of today's totals.
func (p *Presenter) ShowDetails(ctx context.Context, snap models.SessionSnapshot) {
	for _, line := range DetailLines(p.opts, snap) {
		if err := p.widget.Notify(ctx, line); err != nil {
			p.logger.Warn().Err(err).Msg("failed to show notification")
		}
	}
}

func (p *Presenter) set(ctx context.Context, item Item) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.last != nil && *p.last == item {
		return
	}
	if err := p.widget.SetItem(ctx, item); err != nil {
		p.logger.Warn().Err(err).Msg("failed to update status item")
		return
	}
	p.last = &item
}

// SummaryItem renders "{label} {icon}: {duration} {dots}".
func SummaryItem(opts Options, snap models.SessionSnapshot) Item {
	opts = opts.withDefaults()
	text := fmt.Sprintf("%s %s: %s %s", opts.Label, opts.Icon, snap.Duration, snap.FocusDots)
	return Item{
		Text:    strings.TrimRight(text, " "),
		Tooltip: snap.FocusLabel,
	}
}

// AwaitingKeyItem renders the item shown while no key is set.
func AwaitingKeyItem(opts Options) Item {
	opts = opts.withDefaults()
	return Item{
		Text:    fmt.Sprintf("%s %s: %s", opts.Label, opts.Icon, awaitingKeyText),
		Tooltip: awaitingKeyTooltip,
	}
}

// DetailLines returns the click notification, one message per line.
func DetailLines(opts Options, snap models.SessionSnapshot) []string {
	opts = opts.withDefaults()
	lines := []string{fmt.Sprintf("You've spent %s on %s today.", snap.Duration, opts.Category)}
	if snap.HasFocus() {
		lines = append(lines, fmt.Sprintf("You are currently %s%% focused on this.", display.FormatPercentage(*snap.FocusPercentage)))
	}
	return lines
}
