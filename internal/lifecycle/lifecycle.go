// Package lifecycle runs the engine's single-sweep decay/archive/prune
// orchestration: load every active and archived memory plus the full edge
// set, compute centrality once, decide and apply each memory's lifecycle
// action, and report aggregate counts.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/cortexmemory/cortex/internal/decay"
	"github.com/cortexmemory/cortex/internal/graphengine"
	"github.com/cortexmemory/cortex/internal/memory"
	"github.com/cortexmemory/cortex/internal/storage/sqlite"
)

// lowConfidenceArchiveThreshold is the decayed-confidence boundary under
// which a memory becomes an archive candidate.
const lowConfidenceArchiveThreshold = 0.3

// pruneAfterArchiveDays is the archive age past which a memory is pruned.
const pruneAfterArchiveDays = 30

// Store is the subset of sqlite.Store the sweep needs.
type Store interface {
	ListMemoriesByStatus(ctx context.Context, statuses ...memory.Status) ([]*memory.Memory, error)
	ListEdges(ctx context.Context) ([]*memory.Edge, error)
	ApplyLifecycleSweep(ctx context.Context, updates []sqlite.LifecycleUpdate) error
}

// LifecycleUpdate is an alias for the storage layer's update record, so
// call sites in this package don't need to import sqlite directly just to
// build one.
type LifecycleUpdate = sqlite.LifecycleUpdate

// Report summarizes one sweep's outcome. A memory that archives and ages
// out in the same sweep counts under both archived and pruned.
type Report struct {
	Decayed  int `json:"decayed"`
	Archived int `json:"archived"`
	Pruned   int `json:"pruned"`
}

// Sweep runs one full lifecycle pass against store, as of now. All
// resulting updates are applied in a single transaction; a failed sweep
// leaves the database untouched.
func Sweep(ctx context.Context, store Store, now time.Time) (Report, error) {
	active, err := store.ListMemoriesByStatus(ctx, memory.StatusActive)
	if err != nil {
		return Report{}, fmt.Errorf("lifecycle: list active memories: %w", err)
	}
	archived, err := store.ListMemoriesByStatus(ctx, memory.StatusArchived)
	if err != nil {
		return Report{}, fmt.Errorf("lifecycle: list archived memories: %w", err)
	}
	edges, err := store.ListEdges(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("lifecycle: list edges: %w", err)
	}

	edgeVals := make([]memory.Edge, len(edges))
	for i, e := range edges {
		edgeVals[i] = *e
	}
	graph := graphengine.Build(edgeVals, graphengine.Filter{})

	var report Report
	var updates []LifecycleUpdate

	for _, m := range active {
		u, counts := decideActive(m, graph.Centrality(m.ID), now)
		if u == nil {
			continue
		}
		updates = append(updates, *u)
		report.Decayed += counts.Decayed
		report.Archived += counts.Archived
		report.Pruned += counts.Pruned
	}

	for _, m := range archived {
		if decay.AgeDays(m.LastAccessedAt, now) < pruneAfterArchiveDays {
			continue
		}
		pruned := memory.StatusPruned
		updates = append(updates, LifecycleUpdate{MemoryID: m.ID, NewStatus: &pruned})
		report.Pruned++
	}

	if err := store.ApplyLifecycleSweep(ctx, updates); err != nil {
		return Report{}, fmt.Errorf("lifecycle: apply sweep: %w", err)
	}
	return report, nil
}

// decideActive computes the lifecycle outcome for one active memory: the
// storage update it implies (or nil) and what it contributes to the
// report. Within one sweep a memory may decay under the archive threshold,
// archive, and — if its last access is already past the prune age — go
// straight to pruned.
func decideActive(m *memory.Memory, centrality float64, now time.Time) (*LifecycleUpdate, Report) {
	age := decay.AgeDays(m.CreatedAt, now)
	halfLife := decay.EffectiveHalfLife(m.MemoryType, m.AccessCount, centrality)

	decayedConfidence := m.Confidence
	if !m.Pinned {
		decayedConfidence = decay.DecayedConfidence(m.Confidence, halfLife, age)
	}

	daysBelow := decay.DaysBelowThreshold(m.Confidence, halfLife, age, lowConfidenceArchiveThreshold)
	if m.Pinned {
		daysBelow = 0
	}

	action := decay.Decide(decay.DecisionInput{
		Status:                m.Status,
		Pinned:                m.Pinned,
		Centrality:            centrality,
		DecayedConfidence:     decayedConfidence,
		DaysSinceLastAccess:   decay.AgeDays(m.LastAccessedAt, now),
		DaysConfidenceBelow03: daysBelow,
	})

	u := &LifecycleUpdate{MemoryID: m.ID}
	var counts Report
	touched := false

	if decayedConfidence != m.Confidence {
		u.NewConfidence = &decayedConfidence
		counts.Decayed++
		touched = true
	}

	if action == decay.ActionArchive {
		status := memory.StatusArchived
		counts.Archived++
		if decay.AgeDays(m.LastAccessedAt, now) >= pruneAfterArchiveDays {
			status = memory.StatusPruned
			counts.Pruned++
		}
		u.NewStatus = &status
		touched = true
	}

	if !touched {
		return nil, Report{}
	}
	return u, counts
}
