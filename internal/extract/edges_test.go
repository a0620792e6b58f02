package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexmemory/cortex/internal/memory"
)

func TestPlanEdgesDefinitelySimilarIsActiveBidirectional(t *testing.T) {
	newMem := mustMemory(t, "new", "The quick brown fox jumps over the lazy dog", "The quick brown fox jumps over the lazy dog")
	existing := []*memory.Memory{
		mustMemory(t, "old", "A quick brown dog jumps over the lazy fox", "A quick brown dog jumps over the lazy fox"),
	}

	plans := PlanEdges(newMem, existing)
	require.Len(t, plans, 1)
	assert.True(t, plans[0].Create)
	assert.Equal(t, memory.RelationRelatesTo, plans[0].Relation)
	assert.Equal(t, memory.EdgeStatusActive, plans[0].Status)
	assert.True(t, plans[0].Bidirectional)
	assert.InDelta(t, 8.0/9.0, plans[0].Strength, 1e-9)
}

func TestPlanEdgesDefinitelyDifferentCreatesNothing(t *testing.T) {
	newMem := mustMemory(t, "new", "alpha beta gamma", "alpha beta gamma")
	existing := []*memory.Memory{
		mustMemory(t, "old", "delta epsilon zeta", "delta epsilon zeta"),
	}

	plans := PlanEdges(newMem, existing)
	require.Len(t, plans, 1)
	assert.False(t, plans[0].Create)
}

func TestPlanEdgesMaybeBandSuggestsOrRelates(t *testing.T) {
	// 3 shared tokens of 9 union → Jaccard = 1/3, action = relate.
	newMem := mustMemory(t, "new", "alpha beta gamma delta epsilon zeta", "alpha beta gamma delta epsilon zeta")
	existing := []*memory.Memory{
		mustMemory(t, "old", "alpha beta gamma theta iota kappa", "alpha beta gamma theta iota kappa"),
	}

	plans := PlanEdges(newMem, existing)
	require.Len(t, plans, 1)
	assert.True(t, plans[0].Create)
	assert.Equal(t, memory.EdgeStatusActive, plans[0].Status)
	assert.InDelta(t, 1.0/3.0, plans[0].Strength, 1e-9)
}

func TestPlanEdgesSkipsSelf(t *testing.T) {
	m := mustMemory(t, "same", "alpha beta", "alpha beta")
	plans := PlanEdges(m, []*memory.Memory{m})
	assert.Empty(t, plans)
}
