package extract

import (
	"github.com/cortexmemory/cortex/internal/memory"
	"github.com/cortexmemory/cortex/internal/similarity"
)

// duplicateJaccardThreshold is inclusive at the boundary, deliberately
// distinct from similarity.Prefilter's exclusive-at-0.6 definitely_similar
// band: a pair scoring exactly 0.6 is a duplicate but not an auto-edge.
const duplicateJaccardThreshold = 0.6

// candidateText is the "summary+content" string dedup and edge creation
// both tokenize for Jaccard comparisons.
func candidateText(summary, content string) string {
	return summary + " " + content
}

// DeduplicateCandidates drops every candidate whose tokenized
// "summary+content" is >= duplicateJaccardThreshold similar to an
// already-kept candidate earlier in the batch, or to any existing active
// memory. It returns the surviving candidates in
// their original order and how many were skipped.
func DeduplicateCandidates(candidates []Candidate, existing []*memory.Memory) (kept []Candidate, skipped int) {
	existingTokens := make([]similarity.TokenSet, len(existing))
	for i, m := range existing {
		existingTokens[i] = similarity.Tokenize(candidateText(m.Summary, m.Content))
	}

	var keptTokens []similarity.TokenSet
	for _, c := range candidates {
		tokens := similarity.Tokenize(candidateText(c.Summary, c.Content))

		isDup := false
		for _, kt := range keptTokens {
			if similarity.Jaccard(tokens, kt) >= duplicateJaccardThreshold {
				isDup = true
				break
			}
		}
		if !isDup {
			for _, et := range existingTokens {
				if similarity.Jaccard(tokens, et) >= duplicateJaccardThreshold {
					isDup = true
					break
				}
			}
		}

		if isDup {
			skipped++
			continue
		}
		kept = append(kept, c)
		keptTokens = append(keptTokens, tokens)
	}

	return kept, skipped
}
