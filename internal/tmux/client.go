// Package tmux drives the tmux server that hosts the devtime status widget.
package tmux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var (
	// ErrNoServer indicates no tmux server is reachable.
	ErrNoServer = errors.New("tmux server not running")

	// ErrEmptyName indicates a missing option or key name.
	ErrEmptyName = errors.New("name is required")
)

// Executor runs a shell command and returns its output.
type Executor interface {
	Exec(ctx context.Context, cmd string) (stdout, stderr []byte, err error)
}

// LocalExecutor runs commands through the local shell.
type LocalExecutor struct {
	Shell string
}

// Exec runs cmd with "sh -c" (or the configured shell).
func (e *LocalExecutor) Exec(ctx context.Context, cmd string) ([]byte, []byte, error) {
	shell := e.Shell
	if shell == "" {
		shell = "sh"
	}

	command := exec.CommandContext(ctx, shell, "-c", cmd)
	var stdoutBuf, stderrBuf bytes.Buffer
	command.Stdout = &stdoutBuf
	command.Stderr = &stderrBuf

	err := command.Run()
	return stdoutBuf.Bytes(), stderrBuf.Bytes(), err
}

// Client issues tmux commands through an Executor.
type Client struct {
	exec Executor
}

// NewClient creates a Client over exec.
func NewClient(exec Executor) *Client {
	return &Client{exec: exec}
}

// NewLocalClient creates a Client that runs tmux locally.
func NewLocalClient() *Client {
	return NewClient(&LocalExecutor{})
}

// InsideTmux reports whether the current process runs inside a tmux client.
func InsideTmux() bool {
	return os.Getenv("TMUX") != ""
}

// Version returns the server's tmux version.
func (c *Client) Version(ctx context.Context) (Version, error) {
	stdout, err := c.run(ctx, "tmux -V")
	if err != nil {
		return Version{}, err
	}
	return ParseVersion(string(stdout))
}

// SetOption sets a global option (user options start with "@").
func (c *Client) SetOption(ctx context.Context, name, value string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	_, err := c.run(ctx, fmt.Sprintf("tmux set-option -gq %s %s", escapeArg(name), escapeArg(value)))
	return err
}

// UnsetOption removes a global option.
func (c *Client) UnsetOption(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	_, err := c.run(ctx, fmt.Sprintf("tmux set-option -gqu %s", escapeArg(name)))
	return err
}

// ShowOption returns the value of a global option, or "" when unset.
func (c *Client) ShowOption(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrEmptyName
	}
	stdout, err := c.run(ctx, fmt.Sprintf("tmux show-option -gqv %s", escapeArg(name)))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(stdout), "\r\n"), nil
}

// DisplayMessage shows msg on the status line of attached clients.
func (c *Client) DisplayMessage(ctx context.Context, msg string) error {
	_, err := c.run(ctx, fmt.Sprintf("tmux display-message %s", escapeArg(escapeFormat(msg))))
	return err
}

// RefreshStatus redraws the status line of attached clients.
func (c *Client) RefreshStatus(ctx context.Context) error {
	_, err := c.run(ctx, "tmux refresh-client -S")
	return err
}

// BindKey binds key in the prefix table to run command in the background.
func (c *Client) BindKey(ctx context.Context, key, command string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyName
	}
	_, err := c.run(ctx, fmt.Sprintf("tmux bind-key %s run-shell -b %s", escapeArg(key), escapeArg(command)))
	return err
}

// UnbindKey removes a prefix-table binding.
func (c *Client) UnbindKey(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyName
	}
	_, err := c.run(ctx, fmt.Sprintf("tmux unbind-key %s", escapeArg(key)))
	return err
}

func (c *Client) run(ctx context.Context, cmd string) ([]byte, error) {
	stdout, stderr, err := c.exec.Exec(ctx, cmd)
	if err != nil {
		if isNoServer(stderr) {
			return nil, ErrNoServer
		}
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			return nil, fmt.Errorf("%s: %w", cmd, err)
		}
		return nil, fmt.Errorf("%s: %s: %w", cmd, msg, err)
	}
	return stdout, nil
}

func isNoServer(stderr []byte) bool {
	msg := string(stderr)
	return strings.Contains(msg, "no server running") ||
		strings.Contains(msg, "error connecting to") ||
		strings.Contains(msg, "no current client")
}

// escapeArg single-quotes a value for the shell.
func escapeArg(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

// escapeFormat keeps tmux from expanding #{...} sequences in literal text.
func escapeFormat(value string) string {
	return strings.ReplaceAll(value, "#", "##")
}
