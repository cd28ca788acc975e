package testutil

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/tOgg1/devtime/internal/tmux"
)

// TestSession is the session created in every isolated server.
const TestSession = "devtime-test"

// RequireTmux skips the test if tmux is not installed.
func RequireTmux(t *testing.T) {
	t.Helper()
	SkipIfNoIntegration(t)
	if _, err := exec.LookPath("tmux"); err != nil {
		t.Skip("tmux not installed")
	}
}

// NewTmuxServer starts a private tmux server for the test and returns a
// client bound to it. The server socket lives under a temp TMUX_TMPDIR, so
// the user's own server is never touched. The server is killed on cleanup.
func NewTmuxServer(t *testing.T) *tmux.Client {
	t.Helper()
	RequireTmux(t)

	t.Setenv("TMUX_TMPDIR", t.TempDir())
	t.Setenv("TMUX", "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if out, err := exec.CommandContext(ctx, "tmux", "new-session", "-d", "-s", TestSession).CombinedOutput(); err != nil {
		t.Skipf("cannot start tmux server: %v: %s", err, out)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = exec.CommandContext(ctx, "tmux", "kill-server").Run()
	})

	return tmux.NewLocalClient()
}
