package embedclient

import (
	"context"
	"fmt"

	"github.com/cortexmemory/cortex/internal/memory"
)

// Store is the subset of sqlite.Store the backfill loop needs.
type Store interface {
	ListMemoriesMissingEmbedding(ctx context.Context, remote bool) ([]*memory.Memory, error)
	UpdateMemoryEmbedding(ctx context.Context, id string, remote []float64, local []float32) error
}

// BackfillReport is the backfill result contract:
// {ok, processed, failed, errors, method} on completion, or {ok: false,
// error} on catastrophic failure.
type BackfillReport struct {
	OK        bool     `json:"ok"`
	Processed int      `json:"processed,omitempty"`
	Failed    int      `json:"failed,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	Method    string   `json:"method,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// RunBackfill fills in missing embeddings for active memories in store,
// preferring remote (if available) and falling back to local otherwise.
// projectName is folded into the embedding text convention.
func RunBackfill(ctx context.Context, store Store, remote *RemoteClient, local *LocalClient, projectName string) BackfillReport {
	if remote != nil && remote.Available() {
		return backfillRemote(ctx, store, remote, projectName)
	}
	return backfillLocal(ctx, store, local, projectName)
}

func backfillRemote(ctx context.Context, store Store, remote *RemoteClient, projectName string) BackfillReport {
	missing, err := store.ListMemoriesMissingEmbedding(ctx, true)
	if err != nil {
		return BackfillReport{OK: false, Error: err.Error()}
	}

	var processed, failed int
	var errs []string

	for start := 0; start < len(missing); start += remoteBatchMax {
		end := start + remoteBatchMax
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]

		texts := make([]string, len(batch))
		for i, m := range batch {
			texts[i] = embeddingText(m.MemoryType, projectName, m.Summary)
		}

		vectors, err := remote.EmbedTexts(ctx, texts)
		if err != nil {
			failed += len(batch)
			errs = append(errs, fmt.Sprintf("batch starting at %d: %v", start, err))
			continue
		}

		for i, m := range batch {
			if err := store.UpdateMemoryEmbedding(ctx, m.ID, vectors[i], nil); err != nil {
				failed++
				errs = append(errs, fmt.Sprintf("memory %s: %v", m.ID, err))
				continue
			}
			processed++
		}
	}

	return BackfillReport{OK: true, Processed: processed, Failed: failed, Errors: errs, Method: "remote"}
}

func backfillLocal(ctx context.Context, store Store, local *LocalClient, projectName string) BackfillReport {
	missing, err := store.ListMemoriesMissingEmbedding(ctx, false)
	if err != nil {
		return BackfillReport{OK: false, Error: err.Error()}
	}

	if err := local.ensureModelLoaded(); err != nil {
		return BackfillReport{OK: true, Processed: 0, Failed: len(missing), Errors: []string{"model failed to load"}, Method: "local"}
	}

	var processed, failed int
	var errs []string

	for _, m := range missing {
		text := embeddingText(m.MemoryType, projectName, m.Summary)
		vec, err := local.EmbedLocal(text)
		if err != nil {
			failed++
			errs = append(errs, fmt.Sprintf("memory %s: %v", m.ID, err))
			continue
		}
		if err := store.UpdateMemoryEmbedding(ctx, m.ID, nil, vec); err != nil {
			failed++
			errs = append(errs, fmt.Sprintf("memory %s: %v", m.ID, err))
			continue
		}
		processed++
	}

	return BackfillReport{OK: true, Processed: processed, Failed: failed, Errors: errs, Method: "local"}
}
