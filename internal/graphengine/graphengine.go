// Package graphengine builds in-memory adjacency maps over memory edges and
// runs bounded traversal and centrality queries against them. Traversal runs entirely in Go rather than as a recursive SQL
// query, so the engine's graph semantics are independent of the storage
// backend.
package graphengine

import (
	"github.com/cortexmemory/cortex/internal/memory"
)

// Direction constrains which edge endpoints Traverse follows.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionBoth     Direction = "both"
)

// Graph is an adjacency-map view over a fixed edge set, built once and
// queried many times.
type Graph struct {
	out map[string][]memory.Edge // source_id -> edges leaving it
	in  map[string][]memory.Edge // target_id -> edges arriving at it
}

// Filter restricts which edges Build includes in the adjacency map.
type Filter struct {
	RelationTypes []memory.RelationType // empty means no restriction
	MinStrength   float64
}

func (f Filter) allows(e memory.Edge) bool {
	if e.Strength < f.MinStrength {
		return false
	}
	if len(f.RelationTypes) == 0 {
		return true
	}
	for _, rt := range f.RelationTypes {
		if e.Relation == rt {
			return true
		}
	}
	return false
}

// Build constructs a Graph from edges, keeping only those that pass f.
func Build(edges []memory.Edge, f Filter) *Graph {
	g := &Graph{out: make(map[string][]memory.Edge), in: make(map[string][]memory.Edge)}
	for _, e := range edges {
		if !f.allows(e) {
			continue
		}
		g.out[e.SourceID] = append(g.out[e.SourceID], e)
		g.in[e.TargetID] = append(g.in[e.TargetID], e)
	}
	return g
}

// neighbors returns the edges to follow from id in the given direction.
func (g *Graph) neighbors(id string, dir Direction) []memory.Edge {
	switch dir {
	case DirectionOutgoing:
		return g.out[id]
	case DirectionIncoming:
		return g.in[id]
	default:
		all := make([]memory.Edge, 0, len(g.out[id])+len(g.in[id]))
		all = append(all, g.out[id]...)
		all = append(all, g.in[id]...)
		return all
	}
}

// otherEnd returns the id on the opposite end of e from id, given that e
// touches id on at least one side (true when e came from g.out[id] or
// g.in[id]).
func otherEnd(e memory.Edge, id string) string {
	if e.SourceID == id {
		return e.TargetID
	}
	return e.SourceID
}

// TraverseResult is one node reached during a bounded BFS: its distance
// from the start and the path of edges that reached it. Edge is the last
// hop of Path, kept as its own field for callers that only care how the
// node was entered.
type TraverseResult struct {
	ID    string
	Edge  memory.Edge
	Path  []memory.Edge
	Depth int
}

// Traverse runs a breadth-first search from startID out to maxDepth hops,
// following edges in the given direction, and returns every node reached
// (excluding startID itself). The visited set is seeded with startID so a
// cycle back to the origin never re-emits it.
func (g *Graph) Traverse(startID string, maxDepth int, dir Direction) []TraverseResult {
	if maxDepth <= 0 {
		return nil
	}
	visited := map[string]bool{startID: true}
	paths := map[string][]memory.Edge{startID: nil}
	var results []TraverseResult
	frontier := []string{startID}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			for _, e := range g.neighbors(id, dir) {
				other := otherEnd(e, id)
				if visited[other] {
					continue
				}
				visited[other] = true
				path := append(append([]memory.Edge{}, paths[id]...), e)
				paths[other] = path
				results = append(results, TraverseResult{ID: other, Edge: e, Path: path, Depth: depth})
				next = append(next, other)
			}
		}
		frontier = next
	}
	return results
}

// Centrality returns the normalized in-degree of id: its in-degree divided
// by the maximum in-degree observed across the whole graph, or 0 if no
// node has any incoming edges. Result lies in [0,1].
func (g *Graph) Centrality(id string) float64 {
	maxIn := 0
	for _, edges := range g.in {
		if len(edges) > maxIn {
			maxIn = len(edges)
		}
	}
	if maxIn == 0 {
		return 0
	}
	return float64(len(g.in[id])) / float64(maxIn)
}

// InDegree returns the raw count of incoming edges to id.
func (g *Graph) InDegree(id string) int { return len(g.in[id]) }
