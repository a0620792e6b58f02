package fslock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cortex.lock")
	lock, err := Acquire(path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	require.NoError(t, lock.Release())
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAcquireFailsWhenHeldByLiveProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cortex.lock")
	first, err := Acquire(path)
	require.NoError(t, err)
	defer first.Release()

	_, err = Acquire(path)
	assert.ErrorIs(t, err, cortexerr.ErrLockHeld)
}

func TestAcquireReclaimsStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cortex.lock")
	// Write a lock file naming a PID that's very unlikely to be running.
	require.NoError(t, os.WriteFile(path, []byte(`{"pid":999999,"started_at":"2020-01-01T00:00:00Z"}`), 0o644))

	lock, err := Acquire(path)
	require.NoError(t, err)
	defer lock.Release()

	info, err := ReadInfo(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), info.PID)
}

func TestAcquireReclaimsUnreadableLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cortex.lock")
	// A half-written lock from a crashed writer: content isn't valid JSON.
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	lock, err := Acquire(path)
	require.NoError(t, err)
	defer lock.Release()

	info, err := ReadInfo(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), info.PID)
}

func TestReleaseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cortex.lock")
	lock, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
	assert.NoError(t, lock.Release())
}
