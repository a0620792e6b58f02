// Package surface renders the budgeted, ranked memory selection into the
// markdown block injected into a consumer file.
package surface

import (
	"fmt"
	"strings"

	"github.com/cortexmemory/cortex/internal/memory"
	"github.com/cortexmemory/cortex/internal/ranking"
)

// StartMarker and EndMarker wrap the rendered block for in-place insertion.
const (
	StartMarker = "<!-- CORTEX_MEMORY_START -->"
	EndMarker   = "<!-- CORTEX_MEMORY_END -->"
)

// taxonomy is the fixed section order. memory_type =
// code never reaches here (select_for_surface excludes it upstream), but
// it has no section title regardless.
var taxonomy = []struct {
	Type  memory.Type
	Title string
}{
	{memory.TypeArchitecture, "Architecture"},
	{memory.TypeDecision, "Decision"},
	{memory.TypePattern, "Pattern"},
	{memory.TypeGotcha, "Gotcha"},
	{memory.TypeContext, "Context"},
	{memory.TypeProgress, "Progress"},
	{memory.TypeCodeDescription, "Code Description"},
}

// Staleness carries the cache-age warning data a surface render may need
// to annotate.
type Staleness struct {
	Stale    bool
	AgeHours float64
}

// Render builds the markdown document for selected, given systemName and
// activeBranch for the header, and an optional staleness warning. Returns
// "" when selected is empty.
func Render(systemName, activeBranch string, selected []ranking.Ranked, staleness Staleness) string {
	if len(selected) == 0 {
		return ""
	}

	byType := make(map[memory.Type][]*memory.Memory)
	for _, r := range selected {
		byType[r.Memory.MemoryType] = append(byType[r.Memory.MemoryType], r.Memory)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s memory\n\n", systemName)
	if activeBranch != "" {
		fmt.Fprintf(&b, "_branch: %s_\n\n", activeBranch)
	}
	if staleness.Stale {
		fmt.Fprintf(&b, "> ⚠ stale surface (age: %.1fh)\n\n", staleness.AgeHours)
	}

	for _, section := range taxonomy {
		members := byType[section.Type]
		if len(members) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", section.Title)
		for _, m := range members {
			fmt.Fprintf(&b, "- %s\n", m.Summary)
			if len(m.Tags) > 0 {
				fmt.Fprintf(&b, "  tags: %s\n", strings.Join(m.Tags, ", "))
			}
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// Wrap surrounds body with the sentinel START/END markers, for insertion
// into a consumer file.
func Wrap(body string) string {
	return StartMarker + "\n" + body + EndMarker + "\n"
}
