// Package recall orchestrates memory search: semantic ranking over remote
// embeddings with a keyword fallback, project/global merging, branch
// filtering, linked-code and related-memory expansion, and access-stats
// bookkeeping on everything returned.
package recall

import (
	"context"
	"sort"

	"github.com/cortexmemory/cortex/internal/embedclient"
	"github.com/cortexmemory/cortex/internal/graphengine"
	"github.com/cortexmemory/cortex/internal/logx"
	"github.com/cortexmemory/cortex/internal/memory"
	"github.com/cortexmemory/cortex/internal/ranking"
	"github.com/cortexmemory/cortex/internal/similarity"
)

// DefaultLimit is the result cap when the caller doesn't set one.
const DefaultLimit = 10

// relatedDepth bounds the related-memory expansion around each primary
// result.
const relatedDepth = 2

// Store is the per-scope storage surface recall reads and touches.
// *sqlite.Store satisfies it.
type Store interface {
	SearchMemories(ctx context.Context, query string, limit int) ([]*memory.Memory, error)
	ListMemoriesWithEmbedding(ctx context.Context, remote bool) ([]*memory.Memory, error)
	ListEdges(ctx context.Context) ([]*memory.Edge, error)
	ListEdgesFrom(ctx context.Context, id string, relation memory.RelationType) ([]*memory.Edge, error)
	GetMemory(ctx context.Context, id string) (*memory.Memory, error)
	TouchMemoriesAccessed(ctx context.Context, ids []string) error
}

// Embedder is the remote embedding capability recall needs.
// *embedclient.RemoteClient satisfies it.
type Embedder interface {
	Available() bool
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)
}

// Options configures one recall invocation.
type Options struct {
	Query        string
	Branch       string // empty means no branch filter
	Limit        int    // 0 means DefaultLimit
	ForceKeyword bool
	ProjectName  string
}

// Related is one memory reached by graph expansion from a primary result.
type Related struct {
	Memory *memory.Memory `json:"memory"`
	Depth  int            `json:"depth"`
}

// Item is one primary recall result with its expansions.
type Item struct {
	Memory     *memory.Memory   `json:"memory"`
	Score      float64          `json:"score"`
	CodeBlocks []*memory.Memory `json:"code_blocks,omitempty"`
	Related    []Related        `json:"related,omitempty"`
}

// Response is the full recall outcome.
type Response struct {
	Method  string `json:"method"` // "semantic" or "keyword"
	Results []Item `json:"results"`
}

// Recall runs one search across the project and global stores.
func Recall(ctx context.Context, project, global Store, embedder Embedder, opts Options) (*Response, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	method := "keyword"
	var projResults, globResults []ranking.ScoredResult

	if embedder != nil && embedder.Available() && !opts.ForceKeyword {
		pr, gr, err := semanticSearch(ctx, project, global, embedder, opts, limit)
		if err != nil {
			logx.Warnf("recall: semantic search failed, falling back to keyword: %v", err)
		} else {
			method = "semantic"
			projResults, globResults = pr, gr
		}
	}

	if method == "keyword" {
		var err error
		projResults, globResults, err = keywordSearch(ctx, project, global, opts.Query, limit)
		if err != nil {
			return nil, err
		}
	}

	merged := ranking.MergeResults(projResults, globResults, 0)
	if opts.Branch != "" {
		merged = filterByBranch(merged, opts.Branch)
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}

	items := make([]Item, 0, len(merged))
	var projectIDs, globalIDs []string
	for _, r := range merged {
		store := global
		if r.FromProject {
			store = project
			projectIDs = append(projectIDs, r.Memory.ID)
		} else {
			globalIDs = append(globalIDs, r.Memory.ID)
		}

		item := Item{Memory: r.Memory, Score: r.Score}
		item.CodeBlocks = linkedCode(ctx, store, r.Memory.ID)
		item.Related = relatedMemories(ctx, store, r.Memory.ID, primaryIDs(merged))
		items = append(items, item)
	}

	// Access-stats bookkeeping, batched by scope DB. Failures are logged,
	// not fatal: stale stats must never fail a search.
	if err := project.TouchMemoriesAccessed(ctx, projectIDs); err != nil {
		logx.Warnf("recall: touch project access stats: %v", err)
	}
	if err := global.TouchMemoriesAccessed(ctx, globalIDs); err != nil {
		logx.Warnf("recall: touch global access stats: %v", err)
	}

	return &Response{Method: method, Results: items}, nil
}

func semanticSearch(ctx context.Context, project, global Store, embedder Embedder, opts Options, limit int) (proj, glob []ranking.ScoredResult, err error) {
	queryText := embedclient.QueryEmbeddingText(opts.ProjectName, opts.Query)
	vectors, err := embedder.EmbedTexts(ctx, []string{queryText})
	if err != nil {
		return nil, nil, err
	}
	queryVec := vectors[0]

	proj, err = cosineRank(ctx, project, queryVec, limit, true)
	if err != nil {
		return nil, nil, err
	}
	glob, err = cosineRank(ctx, global, queryVec, limit, false)
	if err != nil {
		return nil, nil, err
	}
	return proj, glob, nil
}

// cosineRank scores every remote-embedded memory in store against queryVec
// and keeps the top limit.
func cosineRank(ctx context.Context, store Store, queryVec []float64, limit int, fromProject bool) ([]ranking.ScoredResult, error) {
	candidates, err := store.ListMemoriesWithEmbedding(ctx, true)
	if err != nil {
		return nil, err
	}

	scored := make([]ranking.ScoredResult, 0, len(candidates))
	for _, m := range candidates {
		cos, err := similarity.Cosine(queryVec, m.RemoteEmbedding)
		if err != nil {
			continue
		}
		scored = append(scored, ranking.ScoredResult{Memory: m, Score: cos, FromProject: fromProject})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func keywordSearch(ctx context.Context, project, global Store, query string, limit int) (proj, glob []ranking.ScoredResult, err error) {
	pm, err := project.SearchMemories(ctx, query, limit)
	if err != nil {
		return nil, nil, err
	}
	gm, err := global.SearchMemories(ctx, query, limit)
	if err != nil {
		return nil, nil, err
	}
	return scoreByRankOrder(pm, true), scoreByRankOrder(gm, false), nil
}

// scoreByRankOrder converts the keyword index's rank order into descending
// scores so keyword and semantic results flow through the same merge.
func scoreByRankOrder(memories []*memory.Memory, fromProject bool) []ranking.ScoredResult {
	out := make([]ranking.ScoredResult, len(memories))
	for i, m := range memories {
		out[i] = ranking.ScoredResult{Memory: m, Score: 1.0 / float64(1+i), FromProject: fromProject}
	}
	return out
}

// filterByBranch keeps only results whose source_context branch equals
// branch. A missing or unparseable source_context counts as a mismatch.
func filterByBranch(results []ranking.ScoredResult, branch string) []ranking.ScoredResult {
	out := results[:0]
	for _, r := range results {
		sc := memory.DecodeSourceContext(r.Memory.SourceContext)
		if sc.Branch == branch {
			out = append(out, r)
		}
	}
	return out
}

// linkedCode follows outgoing source_of edges from id to attach the code
// memories a prose result describes. Best-effort: a broken edge target is
// skipped.
func linkedCode(ctx context.Context, store Store, id string) []*memory.Memory {
	edges, err := store.ListEdgesFrom(ctx, id, memory.RelationSourceOf)
	if err != nil {
		logx.Warnf("recall: list source_of edges for %s: %v", id, err)
		return nil
	}
	var code []*memory.Memory
	for _, e := range edges {
		m, err := store.GetMemory(ctx, e.TargetID)
		if err != nil {
			continue
		}
		code = append(code, m)
	}
	return code
}

// relatedMemories runs a bounded traversal around id and returns the
// memories discovered, excluding other primary results so the same memory
// isn't reported both as a hit and as related to a hit.
func relatedMemories(ctx context.Context, store Store, id string, exclude map[string]bool) []Related {
	edges, err := store.ListEdges(ctx)
	if err != nil {
		logx.Warnf("recall: list edges for expansion of %s: %v", id, err)
		return nil
	}
	edgeVals := make([]memory.Edge, len(edges))
	for i, e := range edges {
		edgeVals[i] = *e
	}
	graph := graphengine.Build(edgeVals, graphengine.Filter{})

	var related []Related
	for _, r := range graph.Traverse(id, relatedDepth, graphengine.DirectionBoth) {
		if exclude[r.ID] {
			continue
		}
		m, err := store.GetMemory(ctx, r.ID)
		if err != nil {
			continue
		}
		related = append(related, Related{Memory: m, Depth: r.Depth})
	}
	return related
}

func primaryIDs(results []ranking.ScoredResult) map[string]bool {
	ids := make(map[string]bool, len(results))
	for _, r := range results {
		ids[r.Memory.ID] = true
	}
	return ids
}
