package statusbar

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/tOgg1/devtime/internal/tmux"
)

// DefaultTmuxOption is the user option holding the item text.
const DefaultTmuxOption = "@devtime"

// TmuxOptions configures a TmuxWidget.
type TmuxOptions struct {
	// Option is the user option for the text; "{Option}_tooltip" holds the tooltip.
	Option string

	// StatusRight prepends "#{Option}" to status-right on Setup.
	StatusRight bool

	// ClickKey is bound in the prefix table to ClickCommand when both are set.
	ClickKey     string
	ClickCommand string
}

// TmuxWidget publishes the item through tmux user options.
type TmuxWidget struct {
	client *tmux.Client
	opts   TmuxOptions

	mu                  sync.Mutex
	installedStatus     bool
	previousStatusRight string
	boundKey            bool
}

// NewTmuxWidget creates a TmuxWidget.
func NewTmuxWidget(client *tmux.Client, opts TmuxOptions) *TmuxWidget {
	if opts.Option == "" {
		opts.Option = DefaultTmuxOption
	}
	if !strings.HasPrefix(opts.Option, "@") {
		opts.Option = "@" + opts.Option
	}
	return &TmuxWidget{client: client, opts: opts}
}

func (w *TmuxWidget) tooltipOption() string {
	return w.opts.Option + "_tooltip"
}

// StatusFormat is the format string that expands to the item text.
func (w *TmuxWidget) StatusFormat() string {
	return "#{" + w.opts.Option + "}"
}

// Setup installs the status-right fragment and the click binding.
func (w *TmuxWidget) Setup(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.opts.StatusRight && !w.installedStatus {
		current, err := w.client.ShowOption(ctx, "status-right")
		if err != nil {
			return err
		}
		if !strings.Contains(current, w.StatusFormat()) {
			if err := w.client.SetOption(ctx, "status-right", w.StatusFormat()+" "+current); err != nil {
				return err
			}
			w.previousStatusRight = current
			w.installedStatus = true
		}
	}

	if w.opts.ClickKey != "" && w.opts.ClickCommand != "" && !w.boundKey {
		if err := w.client.BindKey(ctx, w.opts.ClickKey, w.opts.ClickCommand); err != nil {
			return err
		}
		w.boundKey = true
	}
	return nil
}

// SetItem writes the text and tooltip options and redraws the status line.
func (w *TmuxWidget) SetItem(ctx context.Context, item Item) error {
	if err := w.client.SetOption(ctx, w.opts.Option, item.Text); err != nil {
		return err
	}
	if err := w.client.SetOption(ctx, w.tooltipOption(), item.Tooltip); err != nil {
		return err
	}
	// Best effort: a server without attached clients has nothing to redraw.
	_ = w.client.RefreshStatus(ctx)
	return nil
}

// Notify shows message with display-message.
func (w *TmuxWidget) Notify(ctx context.Context, message string) error {
	return w.client.DisplayMessage(ctx, message)
}

// Close removes everything Setup and SetItem installed.
func (w *TmuxWidget) Close(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	if w.boundKey {
		errs = append(errs, w.client.UnbindKey(ctx, w.opts.ClickKey))
		w.boundKey = false
	}
	if w.installedStatus {
		errs = append(errs, w.client.SetOption(ctx, "status-right", w.previousStatusRight))
		w.installedStatus = false
	}
	errs = append(errs,
		w.client.UnsetOption(ctx, w.opts.Option),
		w.client.UnsetOption(ctx, w.tooltipOption()),
	)

	err := errors.Join(errs...)
	if errors.Is(err, tmux.ErrNoServer) {
		return nil
	}
	return err
}
