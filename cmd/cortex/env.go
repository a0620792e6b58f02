package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cortexmemory/cortex/internal/cortexconfig"
	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/fsutil"
	"github.com/cortexmemory/cortex/internal/logx"
	"github.com/cortexmemory/cortex/internal/storage/sqlite"
)

// env resolves every engine-owned path for one workspace.
type env struct {
	Cwd         string
	ProjectName string
	MemoryDir   string // <cwd>/.memory
	ProjectDB   string // <cwd>/.memory/project.db
	GlobalDB    string // ~/.cortex/global.db
	CacheDir    string // <cwd>/.memory/surface-cache
	StatusFile  string // <cwd>/.memory/cortex-status.json
	LockPath    string // <cwd>/.memory/locks/surface.lock
	SurfaceFile string // <cwd>/.claude/cortex-memory.local.md
}

// resolveEnv validates cwd and computes the workspace layout.
func resolveEnv(cwd string) (*env, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return nil, fmt.Errorf("resolve cwd %q: %w: %v", cwd, cortexerr.ErrInvalidInput, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("cwd %q is not a directory: %w", cwd, cortexerr.ErrInvalidInput)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w: %v", cortexerr.ErrInternal, err)
	}

	memoryDir := filepath.Join(abs, ".memory")
	return &env{
		Cwd:         abs,
		ProjectName: filepath.Base(abs),
		MemoryDir:   memoryDir,
		ProjectDB:   filepath.Join(memoryDir, "project.db"),
		GlobalDB:    filepath.Join(home, ".cortex", "global.db"),
		CacheDir:    filepath.Join(memoryDir, "surface-cache"),
		StatusFile:  filepath.Join(memoryDir, "cortex-status.json"),
		LockPath:    filepath.Join(memoryDir, "locks", "surface.lock"),
		SurfaceFile: filepath.Join(abs, ".claude", "cortex-memory.local.md"),
	}, nil
}

// stores holds both open scope databases. Close releases both.
type stores struct {
	Project *sqlite.Store
	Global  *sqlite.Store
}

func (s *stores) Close() {
	if err := s.Project.Close(); err != nil {
		logx.Warnf("close project db: %v", err)
	}
	if err := s.Global.Close(); err != nil {
		logx.Warnf("close global db: %v", err)
	}
}

// openStores prepares the workspace (directories, config, gitignore
// hygiene) and opens both databases. The commands layer owns open/close
// discipline; callers must Close.
func openStores(ctx context.Context, e *env, readOnly bool) (*stores, error) {
	if !readOnly {
		if err := os.MkdirAll(e.MemoryDir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w: %v", e.MemoryDir, cortexerr.ErrInternal, err)
		}
		if err := os.MkdirAll(filepath.Dir(e.GlobalDB), 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w: %v", filepath.Dir(e.GlobalDB), cortexerr.ErrInternal, err)
		}
		if _, err := fsutil.EnsureGitignored(e.MemoryDir); err != nil {
			logx.Warnf("gitignore hygiene: %v", err)
		}
	}

	if err := cortexconfig.Init(e.MemoryDir); err != nil {
		logx.Warnf("config: %v", err)
	}

	project, err := sqlite.Open(ctx, e.ProjectDB, readOnly)
	if err != nil {
		return nil, err
	}
	global, err := sqlite.Open(ctx, e.GlobalDB, readOnly)
	if err != nil {
		project.Close()
		return nil, err
	}
	return &stores{Project: project, Global: global}, nil
}

// providerKey returns the remote provider secret from the environment, or
// "" when the engine should run local-only.
func providerKey() string {
	if k := os.Getenv("CORTEX_PROVIDER_KEY"); k != "" {
		return k
	}
	return os.Getenv("ANTHROPIC_API_KEY")
}

// fail wraps err with kind as a prefix and returns it; cobra turns the
// returned error into a non-zero exit and main prints it as the
// single-line diagnostic.
func fail(err error) error {
	kind := cortexerr.Classify(err)
	if kind == cortexerr.KindUnknown {
		kind = cortexerr.KindInternal
	}
	return fmt.Errorf("%s: %w", kind, err)
}

// notFound reports whether err is the storage layer's missing-row error.
func notFound(err error) bool { return errors.Is(err, cortexerr.ErrNotFound) }
