// Package telemetry aggregates a read-only inspection snapshot over both
// databases: last extraction status, memory/edge counts, the embedding
// backfill queue size, and cache staleness. It never
// mutates state.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cortexmemory/cortex/internal/memory"
)

// LastExtraction records the most recent extraction run's outcome, read
// from a small JSON status file the extract command writes on every
// invocation.
type LastExtraction struct {
	Status    string `json:"status"` // "success" | "failure"
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

// validLastExtractionStatus reports whether s is one of the two allowed
// statuses.
func validLastExtractionStatus(s string) bool { return s == "success" || s == "failure" }

// Snapshot is the full telemetry payload.
type Snapshot struct {
	LastExtraction     *LastExtraction        `json:"last_extraction,omitempty"`
	MemoryCounts       MemoryCounts           `json:"memory_counts"`
	EdgeCount          int                    `json:"edge_count"`
	EmbeddingQueueSize int                    `json:"embedding_queue_size"`
	CacheStaleness     CacheStalenessSnapshot `json:"cache_staleness"`
}

// MemoryCounts is pre-populated to zero for every memory_type and scope
// before counting, so the shape is stable regardless of what exists.
type MemoryCounts struct {
	Total   int                  `json:"total"`
	ByType  map[memory.Type]int  `json:"by_type"`
	ByScope map[memory.Scope]int `json:"by_scope"`
}

// CacheStalenessSnapshot is the cache_staleness payload shape.
type CacheStalenessSnapshot struct {
	Exists   bool     `json:"exists"`
	AgeHours *float64 `json:"age_hours,omitempty"`
}

var allTypes = []memory.Type{
	memory.TypeArchitecture, memory.TypeDecision, memory.TypePattern, memory.TypeGotcha,
	memory.TypeContext, memory.TypeProgress, memory.TypeCodeDescription, memory.TypeCode,
}

var allScopes = []memory.Scope{memory.ScopeProject, memory.ScopeGlobal}

func zeroedMemoryCounts() MemoryCounts {
	mc := MemoryCounts{ByType: make(map[memory.Type]int, len(allTypes)), ByScope: make(map[memory.Scope]int, len(allScopes))}
	for _, t := range allTypes {
		mc.ByType[t] = 0
	}
	for _, sc := range allScopes {
		mc.ByScope[sc] = 0
	}
	return mc
}

// Build assembles a Snapshot from both scopes' active+archived+superseded+
// pruned memories and edges, the extraction status file, and the surface
// cache directory.
func Build(projectMemories, globalMemories []*memory.Memory, edgeCount int, statusFilePath, cacheDir string, now time.Time) (*Snapshot, error) {
	counts := zeroedMemoryCounts()
	queueSize := 0

	for _, memories := range [][]*memory.Memory{projectMemories, globalMemories} {
		for _, m := range memories {
			counts.Total++
			counts.ByType[m.MemoryType]++
			counts.ByScope[m.Scope]++
			if m.Status == memory.StatusActive && m.RemoteEmbedding == nil && m.LocalEmbedding == nil {
				queueSize++
			}
		}
	}

	snap := &Snapshot{
		MemoryCounts:       counts,
		EdgeCount:          edgeCount,
		EmbeddingQueueSize: queueSize,
		CacheStaleness:     buildCacheStaleness(cacheDir, now),
		LastExtraction:     readLastExtraction(statusFilePath),
	}
	return snap, nil
}

func buildCacheStaleness(cacheDir string, now time.Time) CacheStalenessSnapshot {
	info, err := latestModTime(cacheDir)
	if err != nil {
		return CacheStalenessSnapshot{Exists: false}
	}
	age := now.Sub(info).Hours()
	return CacheStalenessSnapshot{Exists: true, AgeHours: &age}
}

func latestModTime(dir string) (time.Time, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return time.Time{}, err
	}
	var latest time.Time
	found := false
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !found || info.ModTime().After(latest) {
			latest = info.ModTime()
			found = true
		}
	}
	if !found {
		return time.Time{}, fmt.Errorf("cache dir %s is empty", dir)
	}
	return latest, nil
}

func readLastExtraction(path string) *LastExtraction {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var le LastExtraction
	if err := json.Unmarshal(data, &le); err != nil {
		return nil
	}
	if !validLastExtractionStatus(le.Status) {
		return nil
	}
	return &le
}

// WriteLastExtraction persists the outcome of an extraction run to
// statusFilePath, creating parent directories as needed.
func WriteLastExtraction(statusFilePath string, le LastExtraction) error {
	if err := os.MkdirAll(filepath.Dir(statusFilePath), 0o755); err != nil {
		return fmt.Errorf("telemetry: create status dir: %w", err)
	}
	data, err := json.Marshal(le)
	if err != nil {
		return fmt.Errorf("telemetry: marshal status: %w", err)
	}
	return os.WriteFile(statusFilePath, data, 0o644)
}
