// Package decay implements the confidence-decay formulas and the
// lifecycle action decision tree: a half-life table keyed by memory
// type, modifiers that extend the effective half-life for frequently
// accessed or highly central memories, and the archive/prune/exempt
// decision for the lifecycle sweep.
package decay

import (
	"math"
	"time"

	"github.com/cortexmemory/cortex/internal/memory"
)

// baseHalfLifeDays is the half-life table, in days.
// architecture, decision, code_description, and code are stable (no
// decay — represented here as 0, meaning "never decays").
var baseHalfLifeDays = map[memory.Type]float64{
	memory.TypeArchitecture:    0,
	memory.TypeDecision:        0,
	memory.TypeCodeDescription: 0,
	memory.TypeCode:            0,
	memory.TypePattern:         60,
	memory.TypeGotcha:          45,
	memory.TypeContext:         30,
	memory.TypeProgress:        7,
}

// IsStable reports whether t never decays.
func IsStable(t memory.Type) bool { return baseHalfLifeDays[t] == 0 }

// EffectiveHalfLife returns the half-life in days for a memory of type t.
// The two modifiers compound: the half-life doubles when the memory has
// been accessed more than 10 times, and doubles again when its centrality
// exceeds 0.5. Stable types remain 0 (never decays) regardless of
// modifiers.
func EffectiveHalfLife(t memory.Type, accessCount int, centrality float64) float64 {
	hl := baseHalfLifeDays[t]
	if hl == 0 {
		return 0
	}
	if accessCount > 10 {
		hl *= 2
	}
	if centrality > 0.5 {
		hl *= 2
	}
	return hl
}

// DecayFactor returns the exponential decay multiplier for a memory last
// created/updated ageDays ago, given its effective half-life. A half-life
// of 0 means no decay (factor 1).
func DecayFactor(halfLifeDays, ageDays float64) float64 {
	if halfLifeDays <= 0 {
		return 1
	}
	if ageDays <= 0 {
		return 1
	}
	return math.Pow(0.5, ageDays/halfLifeDays)
}

// DecayedConfidence applies DecayFactor to a memory's stored confidence.
func DecayedConfidence(confidence, halfLifeDays, ageDays float64) float64 {
	return confidence * DecayFactor(halfLifeDays, ageDays)
}

// LifecycleAction is the outcome of the lifecycle decision tree for a
// single memory.
type LifecycleAction string

const (
	ActionNone    LifecycleAction = "none"
	ActionArchive LifecycleAction = "archive"
	ActionPrune   LifecycleAction = "prune"
	ActionExempt  LifecycleAction = "exempt"
)

// DecisionInput carries everything the lifecycle decision tree needs about
// one memory at evaluation time.
type DecisionInput struct {
	Status                memory.Status
	Pinned                bool
	Centrality            float64
	DecayedConfidence     float64
	DaysSinceLastAccess   float64
	DaysConfidenceBelow03 float64 // how long decayed confidence has stayed under 0.3
}

// Decide walks the lifecycle decision tree in order:
//  1. pruned/superseded memories are already terminal: none.
//  2. archived memories untouched for >=30 days: prune.
//  3. pinned memories: exempt.
//  4. highly central memories (centrality > 0.5): exempt.
//  5. decayed confidence sustained under 0.3 for >=14 days: archive.
//  6. otherwise: none.
func Decide(in DecisionInput) LifecycleAction {
	if in.Status == memory.StatusPruned || in.Status == memory.StatusSuperseded {
		return ActionNone
	}
	if in.Status == memory.StatusArchived {
		if in.DaysSinceLastAccess >= 30 {
			return ActionPrune
		}
		return ActionNone
	}
	if in.Pinned {
		return ActionExempt
	}
	if in.Centrality > 0.5 {
		return ActionExempt
	}
	if in.DecayedConfidence < 0.3 && in.DaysConfidenceBelow03 >= 14 {
		return ActionArchive
	}
	return ActionNone
}

// DaysBelowThreshold returns how many of the ageDays a memory's decayed
// confidence has spent under threshold. The decay curve is deterministic,
// so the crossing moment is computed analytically: confidence * 0.5^(t/h)
// falls to threshold at t = h * log2(confidence/threshold). A memory that
// started below threshold has been below it since creation.
func DaysBelowThreshold(confidence, halfLifeDays, ageDays, threshold float64) float64 {
	if confidence < threshold {
		return ageDays
	}
	if halfLifeDays <= 0 || threshold <= 0 {
		return 0
	}
	crossing := halfLifeDays * math.Log2(confidence/threshold)
	if crossing >= ageDays {
		return 0
	}
	return ageDays - crossing
}

// AgeDays returns the number of days elapsed between t and now, never
// negative.
func AgeDays(t, now time.Time) float64 {
	d := now.Sub(t).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}
