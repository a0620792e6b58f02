package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/fslock"
	"github.com/cortexmemory/cortex/internal/surface"
)

// writeSurfaceFile writes body into the workspace surface file under the
// PID-ownership lock. The body is wrapped in the sentinel markers; if the
// consumer file already contains a marker pair, the region between them is
// replaced in place, otherwise the wrapped block is appended.
func writeSurfaceFile(e *env, body string) error {
	if err := os.MkdirAll(filepath.Dir(e.LockPath), 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w: %v", cortexerr.ErrInternal, err)
	}

	lock, err := fslock.Acquire(e.LockPath)
	if err != nil {
		return err
	}
	defer lock.Release()

	if err := os.MkdirAll(filepath.Dir(e.SurfaceFile), 0o755); err != nil {
		return fmt.Errorf("create surface dir: %w: %v", cortexerr.ErrInternal, err)
	}

	wrapped := surface.Wrap(body)

	existing, err := os.ReadFile(e.SurfaceFile)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read surface file: %w: %v", cortexerr.ErrInternal, err)
	}

	content := spliceSurface(string(existing), wrapped)
	if err := os.WriteFile(e.SurfaceFile, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write surface file: %w: %v", cortexerr.ErrInternal, err)
	}
	return nil
}

// spliceSurface replaces the marker-delimited region of existing with
// wrapped, or appends wrapped when no complete marker pair is present.
func spliceSurface(existing, wrapped string) string {
	start := strings.Index(existing, surface.StartMarker)
	end := strings.Index(existing, surface.EndMarker)
	if start < 0 || end < 0 || end < start {
		if existing == "" {
			return wrapped
		}
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + wrapped
	}
	tail := existing[end+len(surface.EndMarker):]
	tail = strings.TrimPrefix(tail, "\n")
	return existing[:start] + wrapped + tail
}
