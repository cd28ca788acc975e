// Package prompt asks the user for the RescueTime API key.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/tOgg1/devtime/internal/logging"
)

// Placeholder is shown in front of the key input.
const Placeholder = "Enter your RescueTime API Key"

// ErrNotTerminal is returned when no terminal is available for input.
var ErrNotTerminal = errors.New("stdin is not a terminal")

// Terminal prompts on the controlling terminal without echoing input.
type Terminal struct {
	fd  int
	out io.Writer

	isTerminal   func(fd int) bool
	readPassword func(fd int) ([]byte, error)
	logger       zerolog.Logger

	mu      sync.Mutex
	pending bool
}

// NewTerminal creates a prompter reading from fd and writing prompts to out.
func NewTerminal(fd int, out io.Writer) *Terminal {
	return &Terminal{
		fd:           fd,
		out:          out,
		isTerminal:   term.IsTerminal,
		readPassword: term.ReadPassword,
		logger:       logging.Component("prompt"),
	}
}

// RequestKey reads a key in the background and passes it to submit. Calls
// made while a prompt is already open are ignored.
func (t *Terminal) RequestKey(ctx context.Context, submit func(key string)) {
	t.mu.Lock()
	if t.pending {
		t.mu.Unlock()
		t.logger.Debug().Msg("prompt already open")
		return
	}
	if !t.isTerminal(t.fd) {
		t.mu.Unlock()
		t.logger.Warn().Msg("cannot prompt for api key: stdin is not a terminal; use `devtime key set`")
		return
	}
	t.pending = true
	t.mu.Unlock()

	go func() {
		defer func() {
			t.mu.Lock()
			t.pending = false
			t.mu.Unlock()
		}()

		key, err := t.read()
		if err != nil {
			t.logger.Warn().Err(err).Msg("failed to read api key")
			return
		}
		// ReadPassword cannot be interrupted; drop answers that arrive too late.
		if ctx.Err() != nil {
			return
		}
		submit(key)
	}()
}

// ReadKey prompts synchronously and returns the answer.
func (t *Terminal) ReadKey() (string, error) {
	if !t.isTerminal(t.fd) {
		return "", ErrNotTerminal
	}
	return t.read()
}

func (t *Terminal) read() (string, error) {
	fmt.Fprintf(t.out, "%s: ", Placeholder)
	secret, err := t.readPassword(t.fd)
	fmt.Fprintln(t.out)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}
