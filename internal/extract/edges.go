package extract

import (
	"github.com/cortexmemory/cortex/internal/memory"
	"github.com/cortexmemory/cortex/internal/similarity"
)

// EdgePlan is one proposed edge between a newly-inserted memory and an
// existing one, or a no-op, from the classification run for every
// (inserted, existing) pair.
type EdgePlan struct {
	TargetID      string
	Relation      memory.RelationType
	Strength      float64
	Bidirectional bool
	Status        memory.EdgeStatus
	Create        bool // false for definitely_different/ignore/consolidate pairs
}

// PlanEdges classifies newMem against every existing memory and returns one
// EdgePlan per pair:
//   - definitely_different -> no edge
//   - definitely_similar -> active relates_to edge, strength = Jaccard, bidirectional
//   - maybe -> apply action classification to the Jaccard score:
//     relate -> active edge; suggest -> suggested edge; consolidate -> not
//     created this release; ignore -> no edge
func PlanEdges(newMem *memory.Memory, existing []*memory.Memory) []EdgePlan {
	newTokens := similarity.Tokenize(candidateText(newMem.Summary, newMem.Content))

	plans := make([]EdgePlan, 0, len(existing))
	for _, other := range existing {
		if other.ID == newMem.ID {
			continue
		}
		otherTokens := similarity.Tokenize(candidateText(other.Summary, other.Content))
		score := similarity.Jaccard(newTokens, otherTokens)

		switch similarity.Prefilter(score) {
		case similarity.BandDefinitelyDifferent:
			plans = append(plans, EdgePlan{TargetID: other.ID, Create: false})
		case similarity.BandDefinitelySimilar:
			plans = append(plans, EdgePlan{
				TargetID: other.ID, Relation: memory.RelationRelatesTo, Strength: score,
				Bidirectional: true, Status: memory.EdgeStatusActive, Create: true,
			})
		default: // maybe
			plans = append(plans, planFromAction(other.ID, score))
		}
	}
	return plans
}

func planFromAction(targetID string, score float64) EdgePlan {
	switch similarity.ClassifyAction(score) {
	case similarity.ActionRelate:
		return EdgePlan{TargetID: targetID, Relation: memory.RelationRelatesTo, Strength: score, Status: memory.EdgeStatusActive, Create: true}
	case similarity.ActionSuggest:
		return EdgePlan{TargetID: targetID, Relation: memory.RelationRelatesTo, Strength: score, Status: memory.EdgeStatusSuggested, Create: true}
	default: // consolidate, ignore
		return EdgePlan{TargetID: targetID, Create: false}
	}
}
