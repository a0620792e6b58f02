package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/cortexmemory/cortex/internal/cortexerr"
)

// RelationType is the closed set of edge relation_type values.
type RelationType string

const (
	RelationRelatesTo   RelationType = "relates_to"
	RelationDerivedFrom RelationType = "derived_from"
	RelationContradicts RelationType = "contradicts"
	RelationExemplifies RelationType = "exemplifies"
	RelationRefines     RelationType = "refines"
	RelationSupersedes  RelationType = "supersedes"
	RelationSourceOf    RelationType = "source_of"
)

var validRelationTypes = map[RelationType]bool{
	RelationRelatesTo: true, RelationDerivedFrom: true, RelationContradicts: true,
	RelationExemplifies: true, RelationRefines: true, RelationSupersedes: true,
	RelationSourceOf: true,
}

// IsValid reports whether r is one of the closed set of relation types.
func (r RelationType) IsValid() bool { return validRelationTypes[r] }

// EdgeStatus is the closed set of edge status values.
type EdgeStatus string

const (
	EdgeStatusActive    EdgeStatus = "active"
	EdgeStatusSuggested EdgeStatus = "suggested"
)

// IsValid reports whether s is active or suggested.
func (s EdgeStatus) IsValid() bool { return s == EdgeStatusActive || s == EdgeStatusSuggested }

// Edge is a directed, typed relation between two memories.
type Edge struct {
	ID            string
	SourceID      string
	TargetID      string
	Relation      RelationType
	Strength      float64 // [0,1]
	Bidirectional bool
	Status        EdgeStatus

	CreatedAt time.Time
}

// NewEdgeParams carries the caller-supplied fields for NewEdge.
type NewEdgeParams struct {
	ID            string
	SourceID      string
	TargetID      string
	Relation      RelationType
	Strength      float64
	Bidirectional bool
	Status        EdgeStatus
	CreatedAt     time.Time
}

// NewEdge constructs an Edge:
// source_id and target_id must differ (no self-loops), relation_type must
// be in the closed set, and strength must lie in [0,1]. The
// (source_id, target_id, relation_type) uniqueness invariant is enforced by
// storage, not here.
func NewEdge(p NewEdgeParams) (*Edge, error) {
	id := strings.TrimSpace(p.ID)
	sourceID := strings.TrimSpace(p.SourceID)
	targetID := strings.TrimSpace(p.TargetID)

	if id == "" {
		return nil, fmt.Errorf("edge id must not be empty: %w", cortexerr.ErrValidation)
	}
	if sourceID == "" || targetID == "" {
		return nil, fmt.Errorf("edge source_id/target_id must not be empty: %w", cortexerr.ErrValidation)
	}
	if sourceID == targetID {
		return nil, fmt.Errorf("edge source_id and target_id must differ, both %q: %w", sourceID, cortexerr.ErrValidation)
	}
	if !p.Relation.IsValid() {
		return nil, fmt.Errorf("invalid relation_type %q: %w", p.Relation, cortexerr.ErrValidation)
	}
	if p.Strength < 0 || p.Strength > 1 {
		return nil, fmt.Errorf("edge strength %v out of range [0,1]: %w", p.Strength, cortexerr.ErrValidation)
	}
	status := p.Status
	if status == "" {
		status = EdgeStatusActive
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid edge status %q: %w", status, cortexerr.ErrValidation)
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return &Edge{
		ID:            id,
		SourceID:      sourceID,
		TargetID:      targetID,
		Relation:      p.Relation,
		Strength:      p.Strength,
		Bidirectional: p.Bidirectional,
		Status:        status,
		CreatedAt:     createdAt,
	}, nil
}
