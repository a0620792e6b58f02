// Package extract implements the session-end extraction pipeline:
// windowing a transcript from a resumable cursor, deriving git context,
// prompting an external extractor, parsing and deduplicating its
// response, inserting surviving candidates as memories, wiring edges
// against the existing graph, and running the lifecycle sweep. The whole
// pipeline is designed to never throw to its caller — every failure mode
// returns a Result with Success=false and a diagnostic, since extraction
// runs at session-end and must not block session closure.
package extract

import (
	"context"
)

// Extractor is the external collaborator that turns a prompt into a raw
// model response. anthropicextractor provides the one concrete
// implementation this engine ships.
type Extractor interface {
	Extract(ctx context.Context, prompt string) (string, error)
}

// Candidate is one parsed, not-yet-validated extraction result, before
// invariant checking and dedup.
type Candidate struct {
	MemoryType string
	Summary    string
	Content    string
	Confidence float64
	Priority   int
	Scope      string
	Tags       []string
}

// Result is the outcome of one extraction run. Success is false for every
// failure mode the pipeline can encounter; Error carries a diagnostic in
// that case. The other fields report counts from a successful run.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	CandidatesFound   int `json:"candidates_found,omitempty"`
	CandidatesDropped int `json:"candidates_dropped,omitempty"`
	DuplicatesSkipped int `json:"duplicates_skipped,omitempty"`
	Inserted          int `json:"inserted,omitempty"`
	InsertFailures    int `json:"insert_failures,omitempty"`
	EdgesCreated      int `json:"edges_created,omitempty"`

	LifecycleError string `json:"lifecycle_error,omitempty"`
}
