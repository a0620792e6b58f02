package graphengine

import (
	"testing"

	"github.com/cortexmemory/cortex/internal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEdge(t *testing.T, from, to string, rel memory.RelationType, strength float64) memory.Edge {
	e, err := memory.NewEdge(memory.NewEdgeParams{
		ID: from + "->" + to, SourceID: from, TargetID: to, Relation: rel, Strength: strength,
	})
	require.NoError(t, err)
	return *e
}

func TestTraverseSeedsVisitedWithStart(t *testing.T) {
	edges := []memory.Edge{
		mustEdge(t, "a", "b", memory.RelationRelatesTo, 0.8),
		mustEdge(t, "b", "a", memory.RelationRelatesTo, 0.8), // cycle back
	}
	g := Build(edges, Filter{})
	results := g.Traverse("a", 5, DirectionOutgoing)

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	assert.Contains(t, ids, "b")
	assert.NotContains(t, ids, "a")
}

func TestTraverseRespectsMaxDepth(t *testing.T) {
	edges := []memory.Edge{
		mustEdge(t, "a", "b", memory.RelationRelatesTo, 0.8),
		mustEdge(t, "b", "c", memory.RelationRelatesTo, 0.8),
		mustEdge(t, "c", "d", memory.RelationRelatesTo, 0.8),
	}
	g := Build(edges, Filter{})
	results := g.Traverse("a", 2, DirectionOutgoing)

	ids := make(map[string]bool)
	for _, r := range results {
		ids[r.ID] = true
	}
	assert.True(t, ids["b"])
	assert.True(t, ids["c"])
	assert.False(t, ids["d"])
}

func TestTraverseDirectionFiltering(t *testing.T) {
	edges := []memory.Edge{
		mustEdge(t, "a", "b", memory.RelationRelatesTo, 0.8),
	}
	g := Build(edges, Filter{})

	out := g.Traverse("b", 1, DirectionOutgoing)
	assert.Empty(t, out)

	in := g.Traverse("b", 1, DirectionIncoming)
	require.Len(t, in, 1)
	assert.Equal(t, "a", in[0].ID)
}

func TestFilterByRelationTypeAndMinStrength(t *testing.T) {
	edges := []memory.Edge{
		mustEdge(t, "a", "b", memory.RelationRelatesTo, 0.2),
		mustEdge(t, "a", "c", memory.RelationSupersedes, 0.9),
	}
	g := Build(edges, Filter{RelationTypes: []memory.RelationType{memory.RelationSupersedes}, MinStrength: 0.5})
	results := g.Traverse("a", 1, DirectionOutgoing)
	require.Len(t, results, 1)
	assert.Equal(t, "c", results[0].ID)
}

func TestTraversePathsTraceBackToStart(t *testing.T) {
	edges := []memory.Edge{
		mustEdge(t, "a", "b", memory.RelationRelatesTo, 0.8),
		mustEdge(t, "b", "c", memory.RelationRelatesTo, 0.8),
	}
	g := Build(edges, Filter{})
	results := g.Traverse("a", 3, DirectionOutgoing)

	byID := make(map[string]TraverseResult)
	for _, r := range results {
		byID[r.ID] = r
	}

	require.Len(t, byID["b"].Path, 1)
	assert.Equal(t, "a->b", byID["b"].Path[0].ID)

	require.Len(t, byID["c"].Path, 2)
	assert.Equal(t, "a->b", byID["c"].Path[0].ID)
	assert.Equal(t, "b->c", byID["c"].Path[1].ID)
	assert.Equal(t, byID["c"].Edge.ID, byID["c"].Path[1].ID)
}

func TestCentralityNormalizedByMaxInDegree(t *testing.T) {
	edges := []memory.Edge{
		mustEdge(t, "a", "hub", memory.RelationRelatesTo, 0.5),
		mustEdge(t, "b", "hub", memory.RelationRelatesTo, 0.5),
		mustEdge(t, "c", "leaf", memory.RelationRelatesTo, 0.5),
	}
	g := Build(edges, Filter{})
	assert.Equal(t, 1.0, g.Centrality("hub"))
	assert.InDelta(t, 0.5, g.Centrality("leaf"), 1e-9)
	assert.Equal(t, 0.0, g.Centrality("nonexistent"))
}

func TestCentralityZeroWhenNoEdges(t *testing.T) {
	g := Build(nil, Filter{})
	assert.Equal(t, 0.0, g.Centrality("a"))
}
