package recall

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/memory"
)

type recallStore struct {
	memories map[string]*memory.Memory
	edges    []*memory.Edge

	touched    []string
	embedErr   error
	searchCnt  int
}

func newRecallStore() *recallStore {
	return &recallStore{memories: make(map[string]*memory.Memory)}
}

func (s *recallStore) SearchMemories(_ context.Context, query string, limit int) ([]*memory.Memory, error) {
	s.searchCnt++
	var out []*memory.Memory
	for _, m := range s.memories {
		if m.Status != memory.StatusActive {
			continue
		}
		if strings.Contains(strings.ToLower(m.Summary+" "+m.Content), strings.ToLower(query)) {
			out = append(out, m)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *recallStore) ListMemoriesWithEmbedding(_ context.Context, remote bool) ([]*memory.Memory, error) {
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	var out []*memory.Memory
	for _, m := range s.memories {
		if m.Status == memory.StatusActive && m.RemoteEmbedding != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *recallStore) ListEdges(_ context.Context) ([]*memory.Edge, error) { return s.edges, nil }

func (s *recallStore) ListEdgesFrom(_ context.Context, id string, relation memory.RelationType) ([]*memory.Edge, error) {
	var out []*memory.Edge
	for _, e := range s.edges {
		if e.SourceID == id && e.Relation == relation && e.Status == memory.EdgeStatusActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *recallStore) GetMemory(_ context.Context, id string) (*memory.Memory, error) {
	if m, ok := s.memories[id]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("memory %s: %w", id, cortexerr.ErrNotFound)
}

func (s *recallStore) TouchMemoriesAccessed(_ context.Context, ids []string) error {
	s.touched = append(s.touched, ids...)
	return nil
}

type fakeEmbedder struct {
	available bool
	vector    []float64
	err       error
}

func (f *fakeEmbedder) Available() bool { return f.available }

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func addRecallMemory(t *testing.T, s *recallStore, id, summary string, opts ...func(*memory.NewParams)) *memory.Memory {
	t.Helper()
	p := memory.NewParams{
		ID: id, Content: "content " + summary, Summary: summary,
		MemoryType: memory.TypeContext, Scope: memory.ScopeProject,
		Confidence: 0.8, Priority: 5,
		SourceType: memory.SourceExtraction, SourceSession: "s1",
	}
	for _, o := range opts {
		o(&p)
	}
	m, err := memory.New(p)
	require.NoError(t, err)
	s.memories[m.ID] = m
	return m
}

func unitVector(axis int) []float64 {
	v := make([]float64, memory.RemoteEmbeddingDim)
	v[axis] = 1
	return v
}

func TestRecallKeywordWhenNoEmbedder(t *testing.T) {
	project, global := newRecallStore(), newRecallStore()
	addRecallMemory(t, project, "m1", "sqlite journaling pragmas")

	resp, err := Recall(context.Background(), project, global, &fakeEmbedder{available: false}, Options{Query: "sqlite"})
	require.NoError(t, err)
	assert.Equal(t, "keyword", resp.Method)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "m1", resp.Results[0].Memory.ID)
}

func TestRecallSemanticRanksByCosine(t *testing.T) {
	project, global := newRecallStore(), newRecallStore()
	addRecallMemory(t, project, "close", "about locks", func(p *memory.NewParams) { p.RemoteEmbedding = unitVector(0) })
	addRecallMemory(t, project, "far", "about decay", func(p *memory.NewParams) { p.RemoteEmbedding = unitVector(1) })

	resp, err := Recall(context.Background(), project, global,
		&fakeEmbedder{available: true, vector: unitVector(0)}, Options{Query: "locks"})
	require.NoError(t, err)
	assert.Equal(t, "semantic", resp.Method)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "close", resp.Results[0].Memory.ID)
}

func TestRecallFallsBackToKeywordOnEmbedFailure(t *testing.T) {
	project, global := newRecallStore(), newRecallStore()
	addRecallMemory(t, project, "m1", "lock reclamation rules")

	resp, err := Recall(context.Background(), project, global,
		&fakeEmbedder{available: true, err: errors.New("rate limited")}, Options{Query: "lock"})
	require.NoError(t, err)
	assert.Equal(t, "keyword", resp.Method)
	assert.Len(t, resp.Results, 1)
}

func TestRecallForceKeywordSkipsSemantic(t *testing.T) {
	project, global := newRecallStore(), newRecallStore()
	addRecallMemory(t, project, "m1", "lock reclamation rules", func(p *memory.NewParams) { p.RemoteEmbedding = unitVector(0) })

	resp, err := Recall(context.Background(), project, global,
		&fakeEmbedder{available: true, vector: unitVector(0)},
		Options{Query: "lock", ForceKeyword: true})
	require.NoError(t, err)
	assert.Equal(t, "keyword", resp.Method)
}

func TestRecallBranchFilterDropsOtherBranches(t *testing.T) {
	project, global := newRecallStore(), newRecallStore()
	mainCtx, err := memory.SourceContext{Branch: "main"}.Encode()
	require.NoError(t, err)
	featCtx, err := memory.SourceContext{Branch: "feature"}.Encode()
	require.NoError(t, err)

	addRecallMemory(t, project, "on-main", "lock rules main", func(p *memory.NewParams) { p.SourceContext = mainCtx })
	addRecallMemory(t, project, "on-feature", "lock rules feature", func(p *memory.NewParams) { p.SourceContext = featCtx })
	addRecallMemory(t, project, "no-branch", "lock rules nowhere")

	resp, err := Recall(context.Background(), project, global, nil, Options{Query: "lock", Branch: "main"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "on-main", resp.Results[0].Memory.ID)
}

func TestRecallAttachesLinkedCodeViaSourceOf(t *testing.T) {
	project, global := newRecallStore(), newRecallStore()
	prose := addRecallMemory(t, project, "prose", "parser description")
	code := addRecallMemory(t, project, "codeblob", "Code: parser.go", func(p *memory.NewParams) { p.MemoryType = memory.TypeCode })

	edge, err := memory.NewEdge(memory.NewEdgeParams{
		ID: "e1", SourceID: prose.ID, TargetID: code.ID,
		Relation: memory.RelationSourceOf, Strength: 1.0,
	})
	require.NoError(t, err)
	project.edges = append(project.edges, edge)

	resp, err := Recall(context.Background(), project, global, nil, Options{Query: "parser description"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	var primary *Item
	for i := range resp.Results {
		if resp.Results[i].Memory.ID == "prose" {
			primary = &resp.Results[i]
		}
	}
	require.NotNil(t, primary)
	require.Len(t, primary.CodeBlocks, 1)
	assert.Equal(t, "codeblob", primary.CodeBlocks[0].ID)
}

func TestRecallTouchesAccessStats(t *testing.T) {
	project, global := newRecallStore(), newRecallStore()
	addRecallMemory(t, project, "m1", "decay halving")

	_, err := Recall(context.Background(), project, global, nil, Options{Query: "decay"})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, project.touched)
	assert.Empty(t, global.touched)
}

func TestTraverseCyclePrevention(t *testing.T) {
	s := newRecallStore()
	addRecallMemory(t, s, "m1", "first")
	addRecallMemory(t, s, "m2", "second")

	mustEdge := func(id, from, to string) *memory.Edge {
		e, err := memory.NewEdge(memory.NewEdgeParams{
			ID: id, SourceID: from, TargetID: to,
			Relation: memory.RelationRelatesTo, Strength: 0.9,
		})
		require.NoError(t, err)
		return e
	}
	s.edges = []*memory.Edge{mustEdge("e1", "m1", "m2"), mustEdge("e2", "m2", "m1")}

	resp, err := Traverse(context.Background(), s, "m1", TraverseOptions{MaxDepth: 2})
	require.NoError(t, err)
	require.Len(t, resp.ByDepth[1], 1)
	assert.Equal(t, "m2", resp.ByDepth[1][0].Memory.ID)
	assert.Empty(t, resp.ByDepth[2])
	assert.Equal(t, 1, resp.Visited)
}

func TestTraverseMissingStartIsNotFound(t *testing.T) {
	s := newRecallStore()
	_, err := Traverse(context.Background(), s, "ghost", TraverseOptions{})
	assert.True(t, errors.Is(err, cortexerr.ErrNotFound))
}

func TestTraverseRejectsBadDepthAndDirection(t *testing.T) {
	s := newRecallStore()
	addRecallMemory(t, s, "m1", "first")

	_, err := Traverse(context.Background(), s, "m1", TraverseOptions{MaxDepth: 11})
	assert.True(t, errors.Is(err, cortexerr.ErrInvalidInput))

	_, err = Traverse(context.Background(), s, "m1", TraverseOptions{Direction: "sideways"})
	assert.True(t, errors.Is(err, cortexerr.ErrInvalidInput))

	_, err = Traverse(context.Background(), s, "m1", TraverseOptions{MinStrength: 1.5})
	assert.True(t, errors.Is(err, cortexerr.ErrInvalidInput))
}
