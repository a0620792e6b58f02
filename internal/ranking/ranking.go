// Package ranking implements the engine's composite memory score, surface
// selection under line/token budgets, and merging of per-scope search
// results.
package ranking

import (
	"encoding/json"
	"math"
	"time"

	"github.com/cortexmemory/cortex/internal/memory"
)

// The composite-rank weights are fixed, not configurable.
const (
	weightConfidence = 0.50
	weightPriority   = 0.20
	weightCentrality = 0.15
	weightAccess     = 0.15
	branchBoost      = 0.10
)

// MaxLogAccessCount computes max(log(access_count+1)) over memories, the
// normalizer the access-count term divides by. Returns 0 for an empty
// corpus; callers must then treat the access term as 0.
func MaxLogAccessCount(memories []*memory.Memory) float64 {
	var max float64
	for _, m := range memories {
		v := math.Log(float64(m.AccessCount) + 1)
		if v > max {
			max = v
		}
	}
	return max
}

// Rank computes m's composite rank given the corpus-wide normalizer
// maxLogAccess (see MaxLogAccessCount), m's centrality in the memory graph,
// the active branch (for the boost term), now (for age), and the
// half-life in days to use for the recency multiplier. Result is clamped
// to [0,1].
func Rank(m *memory.Memory, centrality, maxLogAccess float64, activeBranch string, now time.Time, halfLifeDays float64) float64 {
	score := weightConfidence*m.Confidence +
		weightPriority*(float64(m.Priority)/10) +
		weightCentrality*centrality +
		weightAccess*accessTerm(m.AccessCount, maxLogAccess)

	if branchMatches(m.SourceContext, activeBranch) {
		score += branchBoost
	}

	if !m.Pinned {
		score *= recencyFactor(ageDays(m.CreatedAt, now), halfLifeDays)
	}

	return clamp01(score)
}

func accessTerm(accessCount int, maxLogAccess float64) float64 {
	if maxLogAccess == 0 {
		return 0
	}
	return math.Log(float64(accessCount)+1) / maxLogAccess
}

// branchMatches reports whether m's source_context.branch equals
// activeBranch. A parse failure or missing branch field silently drops the
// boost rather than erroring.
func branchMatches(sourceContextJSON, activeBranch string) bool {
	if activeBranch == "" || sourceContextJSON == "" {
		return false
	}
	var sc struct {
		Branch string `json:"branch"`
	}
	if err := json.Unmarshal([]byte(sourceContextJSON), &sc); err != nil {
		return false
	}
	return sc.Branch != "" && sc.Branch == activeBranch
}

func recencyFactor(ageDays, halfLifeDays float64) float64 {
	if halfLifeDays <= 0 {
		halfLifeDays = 1
	}
	age := ageDays
	if age < 0 {
		age = 0
	}
	return 1 / (1 + age/halfLifeDays)
}

func ageDays(t, now time.Time) float64 {
	return now.Sub(t).Hours() / 24
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
