package extract

import (
	"fmt"
	"strings"

	"github.com/cortexmemory/cortex/internal/gitctx"
)

// PromptInput carries everything BuildPrompt needs to render an extraction
// prompt.
type PromptInput struct {
	ProjectName string
	Window      string
	Git         gitctx.Context
}

// BuildPrompt renders the extraction prompt: the transcript window, the
// derived git context, and the closed set of output rules (memory_type,
// confidence, priority, scope) the model must follow.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are extracting durable project memories from a coding session transcript for project %q.\n\n", in.ProjectName)

	fmt.Fprintf(&b, "Git context:\n- branch: %s\n", in.Git.Branch)
	if len(in.Git.Commits) > 0 {
		b.WriteString("- recent commits:\n")
		for _, c := range in.Git.Commits {
			fmt.Fprintf(&b, "  - %s\n", c)
		}
	}
	if len(in.Git.Files) > 0 {
		b.WriteString("- changed files:\n")
		for _, f := range in.Git.Files {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
	}
	b.WriteString("\n")

	b.WriteString("Transcript window:\n---\n")
	b.WriteString(in.Window)
	b.WriteString("\n---\n\n")

	b.WriteString(`Extract every durable memory worth keeping for future sessions on this project. A memory is durable if it would still matter days or weeks from now — an architectural choice, a decision and its rationale, a recurring pattern, a gotcha that cost time, useful project context, notable progress, or a description of what a piece of code does.

Respond with a JSON array only (a bare array, or one fenced in a ` + "```json" + ` block). Each element is an object with exactly these fields:

- "memory_type": one of "architecture", "decision", "pattern", "gotcha", "context", "progress", "code_description". Never "code" — extraction never produces raw code memories.
- "summary": a one-to-three sentence summary, suitable for display in a compact surface.
- "content": the fuller detail behind the summary.
- "confidence": a number in [0,1], how confident you are this is accurate and durable.
- "priority": an integer in [1,10], how important this is to surface to a future session.
- "scope": "project" or "global". Use "global" only when this memory applies beyond this one project and your confidence exceeds 0.8; otherwise use "project".
- "tags": an array of short lowercase strings (may be empty).

Omit anything speculative, anything already obvious from the code, and anything that duplicates a memory you have already emitted in this same response.`)

	return b.String()
}
