// Package consolidate finds duplicate memory pairs and merges them under
// human approval, with a database checkpoint wrapped around the whole
// operation so any failure restores the pre-consolidation state.
package consolidate

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/memory"
	"github.com/cortexmemory/cortex/internal/similarity"
)

// DefaultThreshold is the minimum similarity for a pair to count as a
// duplicate candidate.
const DefaultThreshold = 0.5

// DefaultMaxPasses bounds the detect loop. With no auto-merge mode the
// loop always breaks after one pass; the cap exists so a future auto-merge
// mode cannot spin.
const DefaultMaxPasses = 3

// Store is the storage surface consolidation needs. *sqlite.Store
// satisfies it.
type Store interface {
	ListMemoriesByStatus(ctx context.Context, statuses ...memory.Status) ([]*memory.Memory, error)
	ApplyMerge(ctx context.Context, merged *memory.Memory, edges []*memory.Edge, supersededIDs []string) error
	CreateCheckpoint(ctx context.Context, path string) error
	RestoreCheckpoint(ctx context.Context, path string) error
	Path() string
}

// Pair is one candidate duplicate: two active memories and the similarity
// score that paired them.
type Pair struct {
	A     *memory.Memory
	B     *memory.Memory
	Score float64
}

// DetectDuplicates returns every i<j pair among the store's active
// memories whose similarity clears threshold, sorted by score descending.
// Read-only.
//
// Score selection per pair: summaries are tokenized and Jaccard-compared
// first. A definitely_different pair is skipped without further work; a
// definitely_similar pair scores as its Jaccard. In between, cosine over
// the pair's embeddings decides — remote vectors preferred when both
// memories carry them, local otherwise — falling back to the Jaccard score
// when no same-dimension embedding pair exists.
func DetectDuplicates(ctx context.Context, store Store, threshold float64) ([]Pair, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	active, err := store.ListMemoriesByStatus(ctx, memory.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("consolidate: list active memories: %w", err)
	}

	tokens := make([]similarity.TokenSet, len(active))
	for i, m := range active {
		tokens[i] = similarity.Tokenize(m.Summary)
	}

	var pairs []Pair
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			jac := similarity.Jaccard(tokens[i], tokens[j])

			var score float64
			switch similarity.Prefilter(jac) {
			case similarity.BandDefinitelyDifferent:
				continue
			case similarity.BandDefinitelySimilar:
				score = jac
			default:
				score = maybeCosine(active[i], active[j], jac)
			}

			if score >= threshold {
				pairs = append(pairs, Pair{A: active[i], B: active[j], Score: score})
			}
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Score > pairs[j].Score })
	return pairs, nil
}

// maybeCosine scores a "maybe" pair by cosine when both memories carry an
// embedding of the same dimension, preferring the remote vectors, and
// falls back to the pair's Jaccard otherwise.
func maybeCosine(a, b *memory.Memory, jaccard float64) float64 {
	if a.RemoteEmbedding != nil && b.RemoteEmbedding != nil {
		if cos, err := similarity.Cosine(a.RemoteEmbedding, b.RemoteEmbedding); err == nil {
			return cos
		}
	}
	if a.LocalEmbedding != nil && b.LocalEmbedding != nil {
		if cos, err := similarity.Cosine(widen(a.LocalEmbedding), widen(b.LocalEmbedding)); err == nil {
			return cos
		}
	}
	return jaccard
}

func widen(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

// MergePair performs one human-approved merge: it builds the merged memory
// from the pair plus the caller-supplied merged summary/content, inserts
// it, inserts a supersedes edge to each predecessor (strength 1.0,
// active), and transitions both predecessors to superseded — all in one
// transaction.
//
// The merged memory takes A's type and scope, the pair's maximum
// confidence and priority, the union of both tag lists, and pinned if
// either side was pinned.
func MergePair(ctx context.Context, store Store, pair Pair, mergedSummary, mergedContent, sessionID string) (*memory.Memory, error) {
	sc := memory.NewConsolidationSourceContext([]string{pair.A.ID, pair.B.ID})
	sc.SessionID = sessionID
	scJSON, err := sc.Encode()
	if err != nil {
		return nil, err
	}

	merged, err := memory.New(memory.NewParams{
		ID:            uuid.NewString(),
		Content:       mergedContent,
		Summary:       mergedSummary,
		MemoryType:    pair.A.MemoryType,
		Scope:         pair.A.Scope,
		Confidence:    maxF(pair.A.Confidence, pair.B.Confidence),
		Priority:      maxI(pair.A.Priority, pair.B.Priority),
		Pinned:        pair.A.Pinned || pair.B.Pinned,
		SourceType:    memory.SourceManual,
		SourceSession: sessionID,
		SourceContext: scJSON,
		Tags:          unionTags(pair.A.Tags, pair.B.Tags),
	})
	if err != nil {
		return nil, fmt.Errorf("consolidate: build merged memory: %w", err)
	}

	var edges []*memory.Edge
	for _, predecessor := range []string{pair.A.ID, pair.B.ID} {
		e, err := memory.NewEdge(memory.NewEdgeParams{
			ID:       uuid.NewString(),
			SourceID: merged.ID,
			TargetID: predecessor,
			Relation: memory.RelationSupersedes,
			Strength: 1.0,
			Status:   memory.EdgeStatusActive,
		})
		if err != nil {
			return nil, fmt.Errorf("consolidate: build supersedes edge: %w", err)
		}
		edges = append(edges, e)
	}

	if err := store.ApplyMerge(ctx, merged, edges, []string{pair.A.ID, pair.B.ID}); err != nil {
		return nil, err
	}
	return merged, nil
}

// Options configures ExecuteConsolidate.
type Options struct {
	Threshold float64 // 0 means DefaultThreshold
	MaxPasses int     // 0 means DefaultMaxPasses
}

// Report is ExecuteConsolidate's outcome.
type Report struct {
	PairsFound   int `json:"pairs_found"`
	PairsMerged  int `json:"pairs_merged"`
	PairsSkipped int `json:"pairs_skipped"`
}

// ExecuteConsolidate runs detection under a checkpoint/restore safety
// envelope. No pairs are auto-merged: every detected pair is reported as
// skipped, awaiting a human-initiated MergePair. On any error the database
// is restored from the checkpoint and the original error is surfaced
// wrapped as a SafetyRollback; on success the checkpoint file is deleted.
func ExecuteConsolidate(ctx context.Context, store Store, opts Options) (Report, error) {
	maxPasses := opts.MaxPasses
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}

	checkpointPath := fmt.Sprintf("%s.consolidate-%d.db", store.Path(), time.Now().UTC().Unix())
	if err := store.CreateCheckpoint(ctx, checkpointPath); err != nil {
		return Report{}, fmt.Errorf("consolidate: create checkpoint: %w", err)
	}

	report, err := runPasses(ctx, store, opts.Threshold, maxPasses)
	if err != nil {
		if restoreErr := store.RestoreCheckpoint(ctx, checkpointPath); restoreErr != nil {
			return Report{}, fmt.Errorf("consolidate: %v; restore also failed: %v: %w", err, restoreErr, cortexerr.ErrSafetyRollback)
		}
		return Report{}, fmt.Errorf("consolidate: rolled back: %v: %w", err, cortexerr.ErrSafetyRollback)
	}

	if err := os.Remove(checkpointPath); err != nil && !os.IsNotExist(err) {
		return report, fmt.Errorf("consolidate: remove checkpoint %s: %w", checkpointPath, err)
	}
	return report, nil
}

func runPasses(ctx context.Context, store Store, threshold float64, maxPasses int) (Report, error) {
	var report Report
	for pass := 0; pass < maxPasses; pass++ {
		pairs, err := DetectDuplicates(ctx, store, threshold)
		if err != nil {
			return Report{}, err
		}
		report.PairsFound += len(pairs)
		report.PairsSkipped += len(pairs)
		// No auto-merge mode exists; nothing changed, so another pass
		// would find the same pairs.
		break
	}
	return report, nil
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func maxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func unionTags(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, t := range append(append([]string{}, a...), b...) {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
