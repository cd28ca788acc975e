package statusbar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Writer formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// WriterWidget prints one line per update, for bar programs that read a
// command's stdout (i3blocks, polybar, waybar).
type WriterWidget struct {
	mu     sync.Mutex
	out    io.Writer
	notify io.Writer
	format string
}

// NewWriterWidget writes items to out and notifications to notify. format is
// FormatText or FormatJSON ({"text": ..., "tooltip": ...}).
func NewWriterWidget(out, notify io.Writer, format string) *WriterWidget {
	if format != FormatJSON {
		format = FormatText
	}
	if notify == nil {
		notify = io.Discard
	}
	return &WriterWidget{out: out, notify: notify, format: format}
}

// SetItem writes the item as a single line.
func (w *WriterWidget) SetItem(_ context.Context, item Item) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.format == FormatJSON {
		return json.NewEncoder(w.out).Encode(item)
	}
	_, err := fmt.Fprintln(w.out, item.Text)
	return err
}

// Notify writes message to the notification writer.
func (w *WriterWidget) Notify(_ context.Context, message string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintln(w.notify, message)
	return err
}

// NopWidget discards everything; used with the "none" sink.
type NopWidget struct{}

func (NopWidget) SetItem(context.Context, Item) error  { return nil }
func (NopWidget) Notify(context.Context, string) error { return nil }
