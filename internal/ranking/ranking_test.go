package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexmemory/cortex/internal/memory"
)

func newTestMemory(t *testing.T, confidence float64, priority int, createdAt time.Time, pinned bool, sourceContext string) *memory.Memory {
	t.Helper()
	m, err := memory.New(memory.NewParams{
		ID: "m-1", Content: "content", Summary: "summary",
		MemoryType: memory.TypeDecision, Scope: memory.ScopeProject,
		Confidence: confidence, Priority: priority, Pinned: pinned,
		SourceType: memory.SourceManual, SourceSession: "sess-1",
		SourceContext: sourceContext, CreatedAt: createdAt,
	})
	require.NoError(t, err)
	return m
}

func TestRankBranchBoostAppliesOnExactMatch(t *testing.T) {
	now := time.Now().UTC()
	m := newTestMemory(t, 0.8, 5, now, false, `{"branch":"main"}`)
	withBoost := Rank(m, 0, 0, "main", now, 14)
	withoutBoost := Rank(m, 0, 0, "other-branch", now, 14)
	assert.Greater(t, withBoost, withoutBoost)
}

func TestRankBranchBoostDegradesSilentlyOnMalformedJSON(t *testing.T) {
	now := time.Now().UTC()
	m := newTestMemory(t, 0.8, 5, now, false, `not json`)
	assert.NotPanics(t, func() { Rank(m, 0, 0, "main", now, 14) })
}

func TestRankPinnedSkipsRecencyMultiplier(t *testing.T) {
	old := time.Now().UTC().AddDate(0, 0, -365)
	pinned := newTestMemory(t, 0.8, 5, old, true, "")
	unpinned := newTestMemory(t, 0.8, 5, old, false, "")
	now := time.Now().UTC()
	assert.Greater(t, Rank(pinned, 0, 0, "", now, 14), Rank(unpinned, 0, 0, "", now, 14))
}

func TestRankClampedToUnitInterval(t *testing.T) {
	now := time.Now().UTC()
	m := newTestMemory(t, 1, 10, now, true, `{"branch":"main"}`)
	r := Rank(m, 1, 1, "main", now, 14)
	assert.LessOrEqual(t, r, 1.0)
	assert.GreaterOrEqual(t, r, 0.0)
}

func TestSelectForSurfaceExcludesCodeType(t *testing.T) {
	code, err := memory.New(memory.NewParams{
		ID: "code-1", Content: "x", Summary: "y",
		MemoryType: memory.TypeCode, Scope: memory.ScopeProject,
		Confidence: 0.9, Priority: 5, SourceType: memory.SourceCodeIndex, SourceSession: "s",
	})
	require.NoError(t, err)

	ranked := []Ranked{{Memory: code, Rank: 0.99}}
	budgets := LineBudgets{memory.TypeCode: 100}
	out := SelectForSurface(ranked, budgets, 1500, 2000)
	assert.Empty(t, out)
}

func TestSelectForSurfaceSortedByRankDescending(t *testing.T) {
	a, err := memory.New(memory.NewParams{ID: "a", Content: "c", Summary: "sum-a", MemoryType: memory.TypeDecision, Scope: memory.ScopeProject, Confidence: 0.5, Priority: 5, SourceType: memory.SourceManual, SourceSession: "s"})
	require.NoError(t, err)
	b, err := memory.New(memory.NewParams{ID: "b", Content: "c", Summary: "sum-b", MemoryType: memory.TypeDecision, Scope: memory.ScopeProject, Confidence: 0.9, Priority: 5, SourceType: memory.SourceManual, SourceSession: "s"})
	require.NoError(t, err)

	ranked := []Ranked{{Memory: a, Rank: 0.3}, {Memory: b, Rank: 0.8}}
	budgets := LineBudgets{memory.TypeDecision: 100}
	out := SelectForSurface(ranked, budgets, 1500, 2000)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].Memory.ID)
	assert.Equal(t, "a", out[1].Memory.ID)
}

func TestMergeResultsProjectPrecedenceOnTie(t *testing.T) {
	m, err := memory.New(memory.NewParams{ID: "dup", Content: "c", Summary: "s", MemoryType: memory.TypeDecision, Scope: memory.ScopeProject, Confidence: 0.5, Priority: 5, SourceType: memory.SourceManual, SourceSession: "s"})
	require.NoError(t, err)

	project := []ScoredResult{{Memory: m, Score: 0.5, FromProject: true}}
	global := []ScoredResult{{Memory: m, Score: 0.9, FromProject: false}}

	merged := MergeResults(project, global, 10)
	require.Len(t, merged, 1)
	assert.True(t, merged[0].FromProject)
	assert.Equal(t, 0.5, merged[0].Score)
}

func TestMergeResultsTruncatesToLimit(t *testing.T) {
	var project []ScoredResult
	for i := 0; i < 5; i++ {
		m, err := memory.New(memory.NewParams{
			ID: string(rune('a' + i)), Content: "c", Summary: "s",
			MemoryType: memory.TypeDecision, Scope: memory.ScopeProject,
			Confidence: 0.5, Priority: 5, SourceType: memory.SourceManual, SourceSession: "s",
		})
		require.NoError(t, err)
		project = append(project, ScoredResult{Memory: m, Score: float64(i), FromProject: true})
	}
	merged := MergeResults(project, nil, 2)
	require.Len(t, merged, 2)
	assert.Equal(t, "e", merged[0].Memory.ID)
	assert.Equal(t, "d", merged[1].Memory.ID)
}
