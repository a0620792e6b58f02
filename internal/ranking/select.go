package ranking

import (
	"sort"

	"github.com/cortexmemory/cortex/internal/memory"
)

// charsPerToken approximates tokens from rendered characters.
const charsPerToken = 4

// Ranked pairs a memory with its precomputed composite rank, the unit
// select_for_surface and merge_results both operate on.
type Ranked struct {
	Memory *memory.Memory
	Rank   float64
}

// LineBudgets maps memory type to its per-type line budget.
// memory_type = code has no entry since select_for_surface always excludes
// it.
type LineBudgets map[memory.Type]int

// SelectForSurface admits memories from ranked (assumed already sorted
// descending by Rank, ties broken arbitrarily by the caller's sort) under
// budgets, stopping at tokenTarget or hardCapTokens, whichever comes
// first, then runs an overflow-redistribution pass if tokenTarget wasn't
// reached, and finally re-sorts the admitted set by rank descending.
func SelectForSurface(ranked []Ranked, budgets LineBudgets, tokenTarget, hardCapTokens int) []Ranked {
	var (
		selected   []Ranked
		usedLines  = map[memory.Type]int{}
		totalChars int
		skippedIdx []int
	)

	estimatedTokens := func() int { return totalChars / charsPerToken }

	for i, r := range ranked {
		if r.Memory.MemoryType == memory.TypeCode {
			continue
		}
		if estimatedTokens() >= hardCapTokens {
			break
		}
		cost := r.Memory.LineCost()
		budget := budgets[r.Memory.MemoryType]
		if usedLines[r.Memory.MemoryType]+cost > budget {
			skippedIdx = append(skippedIdx, i)
			continue
		}
		selected = append(selected, r)
		usedLines[r.Memory.MemoryType] += cost
		totalChars += len(r.Memory.Summary)

		if estimatedTokens() >= tokenTarget {
			return reSortByRank(selected)
		}
	}

	// Overflow redistribution: admit skipped (over-budget-for-their-type)
	// candidates in rank order, ignoring per-type caps, using whatever
	// token budget remains.
	for _, i := range skippedIdx {
		if estimatedTokens() >= tokenTarget || estimatedTokens() >= hardCapTokens {
			break
		}
		r := ranked[i]
		selected = append(selected, r)
		totalChars += len(r.Memory.Summary)
	}

	return reSortByRank(selected)
}

func reSortByRank(selected []Ranked) []Ranked {
	out := make([]Ranked, len(selected))
	copy(out, selected)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank > out[j].Rank })
	return out
}

// ScoredResult is a candidate from a single-scope search, carrying the
// project-precedence metadata MergeResults needs to break ties.
type ScoredResult struct {
	Memory      *memory.Memory
	Score       float64
	FromProject bool
}

// MergeResults combines project and global result lists: on an id
// collision the project copy wins, then the merged set is sorted by score
// descending and truncated to limit.
func MergeResults(project, global []ScoredResult, limit int) []ScoredResult {
	byID := make(map[string]ScoredResult, len(project)+len(global))
	order := make([]string, 0, len(project)+len(global))

	add := func(results []ScoredResult) {
		for _, r := range results {
			if existing, ok := byID[r.Memory.ID]; ok {
				if existing.FromProject {
					continue
				}
			} else {
				order = append(order, r.Memory.ID)
			}
			byID[r.Memory.ID] = r
		}
	}
	add(project)
	add(global)

	merged := make([]ScoredResult, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
