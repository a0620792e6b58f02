package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexmemory/cortex/internal/memory"
	"github.com/cortexmemory/cortex/internal/ranking"
)

func newMem(t *testing.T, typ memory.Type, summary string, tags []string) *memory.Memory {
	t.Helper()
	m, err := memory.New(memory.NewParams{
		ID: "m-" + summary, Content: "content", Summary: summary,
		MemoryType: typ, Scope: memory.ScopeProject,
		Confidence: 0.8, Priority: 5, SourceType: memory.SourceManual, SourceSession: "s",
		Tags: tags,
	})
	require.NoError(t, err)
	return m
}

func TestRenderEmptyWhenNoneSelected(t *testing.T) {
	assert.Equal(t, "", Render("cortex", "main", nil, Staleness{}))
}

func TestRenderOrdersSectionsByTaxonomy(t *testing.T) {
	gotcha := newMem(t, memory.TypeGotcha, "watch out", nil)
	arch := newMem(t, memory.TypeArchitecture, "layered design", nil)

	out := Render("cortex", "main", []ranking.Ranked{
		{Memory: gotcha, Rank: 0.9},
		{Memory: arch, Rank: 0.1},
	}, Staleness{})

	archIdx := indexOf(out, "## Architecture")
	gotchaIdx := indexOf(out, "## Gotcha")
	assert.Greater(t, gotchaIdx, archIdx)
}

func TestRenderIncludesTagsLineWhenPresent(t *testing.T) {
	m := newMem(t, memory.TypeDecision, "chose sqlite", []string{"storage", "sqlite"})
	out := Render("cortex", "main", []ranking.Ranked{{Memory: m, Rank: 0.5}}, Staleness{})
	assert.Contains(t, out, "tags: storage, sqlite")
}

func TestRenderStalenessWarning(t *testing.T) {
	m := newMem(t, memory.TypeDecision, "chose sqlite", nil)
	out := Render("cortex", "main", []ranking.Ranked{{Memory: m, Rank: 0.5}}, Staleness{Stale: true, AgeHours: 30})
	assert.Contains(t, out, "stale")
}

func TestWrapAddsSentinelMarkers(t *testing.T) {
	wrapped := Wrap("body\n")
	assert.Contains(t, wrapped, StartMarker)
	assert.Contains(t, wrapped, EndMarker)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
