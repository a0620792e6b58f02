// Package similarity implements the engine's text- and vector-similarity
// primitives: tokenization, Jaccard and cosine similarity,
// pre-filter banding, and suggested-action classification.
package similarity

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/cortexmemory/cortex/internal/cortexerr"
)

// TokenSet is a precomputed set of lowercase tokens, used so repeated
// Jaccard computations against the same memory don't re-tokenize.
type TokenSet struct {
	set map[string]struct{}
}

// Tokenize lowercases s, splits on non-letter/non-digit runes, and drops
// empty tokens, returning a TokenSet ready for Jaccard comparisons.
func Tokenize(s string) TokenSet {
	set := make(map[string]struct{})
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			set[b.String()] = struct{}{}
			b.Reset()
		}
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return TokenSet{set: set}
}

// Len returns the number of distinct tokens in the set.
func (t TokenSet) Len() int { return len(t.set) }

// Jaccard computes |A∩B| / |A∪B| between a and b, using the conventions
// fixed for the degenerate cases: J(∅,∅) = 1, J(∅,X) = 0 for
// nonempty X.
func Jaccard(a, b TokenSet) float64 {
	if len(a.set) == 0 && len(b.set) == 0 {
		return 1
	}
	if len(a.set) == 0 || len(b.set) == 0 {
		return 0
	}

	small, large := a.set, b.set
	if len(large) < len(small) {
		small, large = large, small
	}
	intersection := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			intersection++
		}
	}
	union := len(a.set) + len(b.set) - intersection
	return float64(intersection) / float64(union)
}

// Cosine computes the cosine similarity between two equal-length dense
// vectors. Returns ErrVectorDimensionMismatch if lengths differ, and
// ErrEmptyVector if either vector is empty. A non-empty vector of zero
// magnitude scores 0, not an error.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine: len(a)=%d, len(b)=%d: %w", len(a), len(b), cortexerr.ErrVectorDimensionMismatch)
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("cosine: vectors are empty: %w", cortexerr.ErrEmptyVector)
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}

// Band is the pre-filter classification computed ahead of
// running a more expensive full similarity pass.
type Band string

const (
	BandDefinitelySimilar   Band = "definitely_similar"
	BandDefinitelyDifferent Band = "definitely_different"
	BandMaybe               Band = "maybe"
)

// Prefilter classifies a Jaccard score into a Band: >0.6 is
// definitely_similar, <0.1 is definitely_different, else maybe.
func Prefilter(jaccard float64) Band {
	switch {
	case jaccard > 0.6:
		return BandDefinitelySimilar
	case jaccard < 0.1:
		return BandDefinitelyDifferent
	default:
		return BandMaybe
	}
}

// Action is the suggested handling for a pair of similar memories.
type Action string

const (
	ActionIgnore      Action = "ignore"
	ActionRelate      Action = "relate"
	ActionSuggest     Action = "suggest"
	ActionConsolidate Action = "consolidate"
)

// ClassifyAction maps a similarity score (cosine when embeddings are
// available, else Jaccard) to a suggested action: <0.1 ignore, <0.4
// relate, <=0.5 suggest, >0.5 consolidate.
func ClassifyAction(score float64) Action {
	switch {
	case score < 0.1:
		return ActionIgnore
	case score < 0.4:
		return ActionRelate
	case score <= 0.5:
		return ActionSuggest
	default:
		return ActionConsolidate
	}
}
