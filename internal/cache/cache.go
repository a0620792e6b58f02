// Package cache implements the surface cache file: a JSON snapshot of the
// last rendered surface, with staleness computed against the caller's
// notion of "now".
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cortexmemory/cortex/internal/cortexerr"
)

// StalenessThreshold is the age at which a cached surface is considered
// stale.
const StalenessThreshold = 24 * time.Hour

// Cached is the on-disk surface cache payload.
type Cached struct {
	Surface     string    `json:"surface"`
	Branch      string    `json:"branch"`
	Cwd         string    `json:"cwd"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Staleness describes whether a loaded cache entry is stale, and by how
// much.
type Staleness struct {
	Stale    bool
	AgeHours float64
}

// fileName is the single cache file name within the cache directory. The
// cache directory itself is
// provided by the caller.
const fileName = "surface.json"

// SaveSurface writes cached to the cache directory, creating it if absent.
func SaveSurface(cacheDir string, c Cached) error {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("cache: create %s: %w: %v", cacheDir, cortexerr.ErrInternal, err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("cache: marshal: %w: %v", cortexerr.ErrInternal, err)
	}
	if err := os.WriteFile(filepath.Join(cacheDir, fileName), data, 0o644); err != nil {
		return fmt.Errorf("cache: write: %w: %v", cortexerr.ErrInternal, err)
	}
	return nil
}

// LoadCachedSurface returns the cached surface and its staleness relative
// to now. Returns ok=false if the cache directory or file is absent or the
// contents are malformed — never an error, since an absent/bad cache is
// just a cache miss.
func LoadCachedSurface(cacheDir string, now time.Time) (Cached, Staleness, bool) {
	data, err := os.ReadFile(filepath.Join(cacheDir, fileName))
	if err != nil {
		return Cached{}, Staleness{}, false
	}
	var c Cached
	if err := json.Unmarshal(data, &c); err != nil {
		return Cached{}, Staleness{}, false
	}

	age := now.Sub(c.GeneratedAt)
	st := Staleness{
		Stale:    age >= StalenessThreshold,
		AgeHours: age.Hours(),
	}
	return c, st, true
}

// InvalidateSurfaceCache clears the cache directory's contents. Succeeds
// silently if the directory doesn't exist.
func InvalidateSurfaceCache(cacheDir string) error {
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cache: read %s: %w: %v", cacheDir, cortexerr.ErrInternal, err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(cacheDir, e.Name())); err != nil {
			return fmt.Errorf("cache: remove %s: %w: %v", e.Name(), cortexerr.ErrInternal, err)
		}
	}
	return nil
}
