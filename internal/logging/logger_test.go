package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitJSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	closer, err := Init(Config{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)
	defer closer.Close()
	defer Init(DefaultConfig())

	logger := Component("poller")
	logger.Debug().Str("state", "polling").Msg("hello")

	out := buf.String()
	require.Contains(t, out, `"component":"poller"`)
	require.Contains(t, out, `"state":"polling"`)
	require.Contains(t, out, `"message":"hello"`)
}

func TestInitLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	closer, err := Init(Config{Level: "warn", Format: "json", Output: &buf})
	require.NoError(t, err)
	defer closer.Close()
	defer Init(DefaultConfig())

	Info().Msg("dropped")
	Warn().Msg("kept")

	require.NotContains(t, buf.String(), "dropped")
	require.Contains(t, buf.String(), "kept")
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "devtime.log")
	closer, err := Init(Config{Level: "info", Format: "console", File: path})
	require.NoError(t, err)

	Info().Msg("to file")
	require.NoError(t, closer.Close())
	_, _ = Init(DefaultConfig())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), "to file"))
}
