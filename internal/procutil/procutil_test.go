package procutil

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsProcessAlive(t *testing.T) {
	require.True(t, IsProcessAlive(os.Getpid()))
	require.False(t, IsProcessAlive(0))
	require.False(t, IsProcessAlive(-1))
}

func TestWriteReadRemovePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "devtime.pid")

	require.NoError(t, WritePIDFile(path))
	pid, err := ReadPIDFile(path)
	require.NoError(t, err)
	require.Equal(t, os.Getpid(), pid)

	// Rewriting our own pid is allowed.
	require.NoError(t, WritePIDFile(path))

	require.NoError(t, RemovePIDFile(path))
	_, err = os.Stat(path)
	require.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, RemovePIDFile(path))
}

func TestWritePIDFileReplacesStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devtime.pid")
	// pid_max is far below this on Linux and macOS.
	require.NoError(t, os.WriteFile(path, []byte("999999999\n"), 0644))

	require.NoError(t, WritePIDFile(path))
	pid, err := ReadPIDFile(path)
	require.NoError(t, err)
	require.Equal(t, os.Getpid(), pid)
}

func TestRemovePIDFileKeepsOtherProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devtime.pid")
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getppid())), 0644))

	require.NoError(t, RemovePIDFile(path))
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestReadPIDFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devtime.pid")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0644))

	_, err := ReadPIDFile(path)
	require.Error(t, err)
}

func TestSignalRunning(t *testing.T) {
	dir := t.TempDir()

	_, err := SignalRunning(filepath.Join(dir, "missing.pid"), syscall.Signal(0))
	require.ErrorIs(t, err, ErrNotRunning)

	stale := filepath.Join(dir, "stale.pid")
	require.NoError(t, os.WriteFile(stale, []byte("999999999"), 0644))
	_, err = SignalRunning(stale, syscall.Signal(0))
	require.ErrorIs(t, err, ErrNotRunning)

	live := filepath.Join(dir, "live.pid")
	require.NoError(t, WritePIDFile(live))
	pid, err := SignalRunning(live, syscall.Signal(0))
	require.NoError(t, err)
	require.Equal(t, os.Getpid(), pid)
}
