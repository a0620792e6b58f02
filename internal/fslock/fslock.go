// Package fslock implements the engine's filesystem-level mutual-exclusion
// lock: a PID-ownership lock file, reclaimed automatically when the
// owning process is no longer alive. Rather than an flock(2)-style
// advisory lock, this is a visible file whose content records ownership,
// checked by probing the recorded PID — so another tool can inspect or
// clean it up after the owner dies.
package fslock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cortexmemory/cortex/internal/cortexerr"
)

// Info is the JSON content written into a lock file.
type Info struct {
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
}

// Lock represents an acquired lock on a path. Release removes the file.
type Lock struct {
	path string
}

// Acquire attempts to create the lock file at path, atomically, failing if
// another live process already holds it. If the existing lock file names a
// PID that is no longer running, the stale lock is reclaimed and Acquire
// retries once.
func Acquire(path string) (*Lock, error) {
	if err := tryAcquire(path); err != nil {
		if err != cortexerr.ErrLockHeld {
			return nil, err
		}
		reclaimed, rErr := reclaimIfStale(path)
		if rErr != nil {
			return nil, rErr
		}
		if !reclaimed {
			return nil, fmt.Errorf("lock %s held by a running process: %w", path, cortexerr.ErrLockHeld)
		}
		if err := tryAcquire(path); err != nil {
			return nil, err
		}
	}
	return &Lock{path: path}, nil
}

func tryAcquire(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return cortexerr.ErrLockHeld
		}
		return fmt.Errorf("create lock file %s: %w: %v", path, cortexerr.ErrInternal, err)
	}
	defer f.Close()

	info := Info{PID: os.Getpid(), StartedAt: time.Now().UTC()}
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal lock info: %w: %v", cortexerr.ErrInternal, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write lock file %s: %w: %v", path, cortexerr.ErrInternal, err)
	}
	return nil
}

// ReadInfo reads and parses the lock file at path.
func ReadInfo(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lock file %s: %w: %v", path, cortexerr.ErrNotFound, err)
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse lock file %s: %w: %v", path, cortexerr.ErrStorageCorrupt, err)
	}
	return &info, nil
}

// reclaimIfStale removes path if the PID it records is no longer running,
// or if its content is unreadable (a half-written lock from a crashed
// writer is as dead as a dead PID). Returns false (without error) only
// when the lock is held by a live process.
func reclaimIfStale(path string) (bool, error) {
	info, err := ReadInfo(path)
	if err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return true, nil
		}
	} else if isProcessAlive(info.PID) {
		return false, nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("remove stale lock %s: %w: %v", path, cortexerr.ErrInternal, err)
	}
	return true, nil
}

// Release removes the lock file. Safe to call even if the file is already
// gone.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release lock %s: %w: %v", l.path, cortexerr.ErrInternal, err)
	}
	return nil
}

// Path returns the filesystem path this lock was acquired on.
func (l *Lock) Path() string { return l.path }

// DefaultPath returns the conventional surface lock path under memoryDir.
func DefaultPath(memoryDir string) string {
	return filepath.Join(memoryDir, "locks", "surface.lock")
}
