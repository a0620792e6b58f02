package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexmemory/cortex/internal/memory"
)

func selMemory(t *testing.T, id string, memType memory.Type, summary string) *memory.Memory {
	t.Helper()
	m, err := memory.New(memory.NewParams{
		ID: id, Content: "content " + id, Summary: summary,
		MemoryType: memType, Scope: memory.ScopeProject,
		Confidence: 0.8, Priority: 5,
		SourceType: memory.SourceExtraction, SourceSession: "s1",
	})
	require.NoError(t, err)
	return m
}

func TestSelectForSurfaceRespectsLineBudgets(t *testing.T) {
	ranked := []Ranked{
		{Memory: selMemory(t, "g1", memory.TypeGotcha, "gotcha one"), Rank: 0.9},
		{Memory: selMemory(t, "g2", memory.TypeGotcha, "gotcha two"), Rank: 0.8},
		{Memory: selMemory(t, "c1", memory.TypeContext, "context one"), Rank: 0.7},
	}
	budgets := LineBudgets{memory.TypeGotcha: 1, memory.TypeContext: 1}

	// With a token target and cap of 1, admitting g1 already reaches the
	// target, so neither the rest of the first pass nor the overflow pass
	// runs and g2 stays out.
	selected := SelectForSurface(ranked, budgets, 1, 1)
	ids := idsOf(selected)
	assert.Contains(t, ids, "g1")
	assert.NotContains(t, ids, "g2")
}

func TestSelectForSurfaceOverflowRedistribution(t *testing.T) {
	ranked := []Ranked{
		{Memory: selMemory(t, "g1", memory.TypeGotcha, "gotcha one"), Rank: 0.9},
		{Memory: selMemory(t, "g2", memory.TypeGotcha, "gotcha two"), Rank: 0.8},
	}
	// Gotcha budget admits only one line, but the token target is far from
	// reached, so the second pass readmits g2 from the skipped list.
	budgets := LineBudgets{memory.TypeGotcha: 1}

	selected := SelectForSurface(ranked, budgets, 1000, 2000)
	ids := idsOf(selected)
	assert.Contains(t, ids, "g1")
	assert.Contains(t, ids, "g2")
}

func TestSelectForSurfaceMultiLineSummaryCost(t *testing.T) {
	ranked := []Ranked{
		{Memory: selMemory(t, "big", memory.TypeGotcha, "line a\nline b\nline c"), Rank: 0.9},
		{Memory: selMemory(t, "small", memory.TypeGotcha, "one line"), Rank: 0.8},
	}
	budgets := LineBudgets{memory.TypeGotcha: 3}

	// "big" consumes the whole 3-line budget; "small" is over budget in
	// pass one but comes back in the overflow pass.
	selected := SelectForSurface(ranked, budgets, 1000, 2000)
	assert.Len(t, selected, 2)
}

func TestMergeResultsNoDuplicateIDs(t *testing.T) {
	shared := selMemory(t, "dup", memory.TypeContext, "shared")
	project := []ScoredResult{{Memory: shared, Score: 0.5, FromProject: true}}
	global := []ScoredResult{{Memory: shared, Score: 0.9, FromProject: false}}

	merged := MergeResults(project, global, 10)
	require.Len(t, merged, 1)
	assert.True(t, merged[0].FromProject)
}

func TestMergeResultsSortedByScoreDescending(t *testing.T) {
	project := []ScoredResult{
		{Memory: selMemory(t, "p1", memory.TypeContext, "p one"), Score: 0.3, FromProject: true},
	}
	global := []ScoredResult{
		{Memory: selMemory(t, "g1", memory.TypeContext, "g one"), Score: 0.8},
		{Memory: selMemory(t, "g2", memory.TypeContext, "g two"), Score: 0.5},
	}

	merged := MergeResults(project, global, 10)
	require.Len(t, merged, 3)
	assert.Equal(t, "g1", merged[0].Memory.ID)
	assert.Equal(t, "g2", merged[1].Memory.ID)
	assert.Equal(t, "p1", merged[2].Memory.ID)
}

func TestBranchBoostBreaksTieBetweenIdenticalMemories(t *testing.T) {
	now := time.Now().UTC()

	onMain := selMemory(t, "on-main", memory.TypeContext, "identical")
	onMain.SourceContext = `{"branch":"main"}`
	onFeature := selMemory(t, "on-feature", memory.TypeContext, "identical")
	onFeature.SourceContext = `{"branch":"feature-branch"}`

	mainRank := Rank(onMain, 0, 0, "main", now, 14)
	featureRank := Rank(onFeature, 0, 0, "main", now, 14)
	assert.Greater(t, mainRank, featureRank)
	assert.InDelta(t, 0.10, (mainRank-featureRank)*(1/recencyFactor(0, 14)), 0.02)
}

func idsOf(selected []Ranked) []string {
	ids := make([]string, len(selected))
	for i, r := range selected {
		ids[i] = r.Memory.ID
	}
	return ids
}
