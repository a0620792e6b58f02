package recall

import (
	"context"
	"fmt"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/graphengine"
	"github.com/cortexmemory/cortex/internal/memory"
)

// Traversal depth bounds.
const (
	DefaultTraverseDepth = 2
	MaxTraverseDepth     = 10
)

// TraverseOptions configures one traversal.
type TraverseOptions struct {
	MaxDepth    int // 0 means DefaultTraverseDepth
	Relations   []memory.RelationType
	Direction   graphengine.Direction // "" means both
	MinStrength float64
}

// TraverseNode is one memory discovered by traversal, with the edge that
// reached it and the full edge path back to the start.
type TraverseNode struct {
	Memory *memory.Memory `json:"memory"`
	Edge   memory.Edge    `json:"edge"`
	Path   []memory.Edge  `json:"path"`
}

// TraverseResponse groups discovered memories by their BFS depth.
type TraverseResponse struct {
	Start   *memory.Memory         `json:"start"`
	ByDepth map[int][]TraverseNode `json:"by_depth"`
	Visited int                    `json:"visited"`
}

// Traverse validates opts, loads the start memory, and runs a bounded BFS
// over the store's full edge set, bulk-fetching the memories discovered.
func Traverse(ctx context.Context, store Store, startID string, opts TraverseOptions) (*TraverseResponse, error) {
	depth := opts.MaxDepth
	if depth == 0 {
		depth = DefaultTraverseDepth
	}
	if depth < 0 || depth > MaxTraverseDepth {
		return nil, fmt.Errorf("traverse depth %d out of range [0,%d]: %w", depth, MaxTraverseDepth, cortexerr.ErrInvalidInput)
	}
	direction := opts.Direction
	if direction == "" {
		direction = graphengine.DirectionBoth
	}
	switch direction {
	case graphengine.DirectionOutgoing, graphengine.DirectionIncoming, graphengine.DirectionBoth:
	default:
		return nil, fmt.Errorf("invalid traverse direction %q: %w", direction, cortexerr.ErrInvalidInput)
	}
	for _, rt := range opts.Relations {
		if !rt.IsValid() {
			return nil, fmt.Errorf("invalid relation type %q: %w", rt, cortexerr.ErrInvalidInput)
		}
	}
	if opts.MinStrength < 0 || opts.MinStrength > 1 {
		return nil, fmt.Errorf("min strength %v out of range [0,1]: %w", opts.MinStrength, cortexerr.ErrInvalidInput)
	}

	start, err := store.GetMemory(ctx, startID)
	if err != nil {
		return nil, err
	}

	edges, err := store.ListEdges(ctx)
	if err != nil {
		return nil, err
	}
	edgeVals := make([]memory.Edge, len(edges))
	for i, e := range edges {
		edgeVals[i] = *e
	}

	graph := graphengine.Build(edgeVals, graphengine.Filter{
		RelationTypes: opts.Relations,
		MinStrength:   opts.MinStrength,
	})
	results := graph.Traverse(startID, depth, direction)

	resp := &TraverseResponse{Start: start, ByDepth: make(map[int][]TraverseNode)}
	for _, r := range results {
		m, err := store.GetMemory(ctx, r.ID)
		if err != nil {
			continue
		}
		resp.ByDepth[r.Depth] = append(resp.ByDepth[r.Depth], TraverseNode{Memory: m, Edge: r.Edge, Path: r.Path})
		resp.Visited++
	}
	return resp, nil
}
