package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/memory"
)

// fencedJSONPattern matches a ```json ... ``` or ``` ... ``` fenced block,
// which models commonly wrap structured output in even when asked for a
// bare array.
var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// extractJSONArray pulls the JSON array text out of response, unwrapping a
// fenced block if present.
func extractJSONArray(response string) string {
	if m := fencedJSONPattern.FindStringSubmatch(response); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(response)
}

// ParseOptions controls the lenient-parsing variant. The default (zero
// value) drops any candidate whose memory_type is outside the closed set;
// setting CoerceInvalidType keeps such a candidate as "context" instead,
// provided every other field is valid.
type ParseOptions struct {
	CoerceInvalidType bool
}

// rawCandidate mirrors the extractor's JSON shape exactly, with Tags typed
// loosely so a model that emits non-string tag elements doesn't fail the
// whole batch's decode.
type rawCandidate struct {
	MemoryType string  `json:"memory_type"`
	Summary    string  `json:"summary"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
	Priority   int     `json:"priority"`
	Scope      string  `json:"scope"`
	Tags       []any   `json:"tags"`
}

// ParseResponse parses an extractor response into validated candidates.
// Non-array JSON is rejected. Each array element that violates a type,
// confidence, or priority invariant is dropped; dropped reports how many
// were. With opts.CoerceInvalidType, an otherwise-valid candidate with an
// unrecognized memory_type is coerced to "context" rather than dropped.
func ParseResponse(response string, opts ParseOptions) (candidates []Candidate, dropped int, err error) {
	raw := extractJSONArray(response)
	if raw == "" {
		return nil, 0, fmt.Errorf("extract: empty response: %w", cortexerr.ErrMalformedResponse)
	}

	var parsed []rawCandidate
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, 0, fmt.Errorf("extract: response is not a JSON array: %w: %v", cortexerr.ErrMalformedResponse, err)
	}

	for _, r := range parsed {
		c := Candidate{
			MemoryType: r.MemoryType,
			Summary:    r.Summary,
			Content:    r.Content,
			Confidence: r.Confidence,
			Priority:   r.Priority,
			Scope:      r.Scope,
			Tags:       coerceTags(r.Tags),
		}

		validType := memory.Type(c.MemoryType).IsValid() && memory.Type(c.MemoryType) != memory.TypeCode
		otherFieldsValid := c.Confidence >= 0 && c.Confidence <= 1 &&
			c.Priority >= 1 && c.Priority <= 10 &&
			(c.Scope == string(memory.ScopeProject) || c.Scope == string(memory.ScopeGlobal)) &&
			strings.TrimSpace(c.Summary) != "" && strings.TrimSpace(c.Content) != ""

		if !validType {
			if opts.CoerceInvalidType && otherFieldsValid {
				c.MemoryType = string(memory.TypeContext)
			} else {
				dropped++
				continue
			}
		}
		if !otherFieldsValid {
			dropped++
			continue
		}
		if c.Scope == string(memory.ScopeGlobal) && c.Confidence <= 0.8 {
			dropped++
			continue
		}

		candidates = append(candidates, c)
	}

	return candidates, dropped, nil
}

// coerceTags converts whatever JSON shape Tags decoded into (strings,
// numbers, bools) into a clean []string, dropping empty/blank entries.
func coerceTags(tags []any) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		var s string
		switch v := t.(type) {
		case string:
			s = v
		default:
			s = fmt.Sprint(v)
		}
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
