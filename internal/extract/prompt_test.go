package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cortexmemory/cortex/internal/gitctx"
)

func TestBuildPromptEmbedsWindowAndGitContext(t *testing.T) {
	prompt := BuildPrompt(PromptInput{
		ProjectName: "myproj",
		Window:      `{"role":"user","text":"we chose sqlite"}`,
		Git: gitctx.Context{
			Branch:  "feature-x",
			Commits: []string{"abc123 add storage layer"},
			Files:   []string{"internal/storage/store.go"},
		},
	})

	assert.Contains(t, prompt, "myproj")
	assert.Contains(t, prompt, "we chose sqlite")
	assert.Contains(t, prompt, "feature-x")
	assert.Contains(t, prompt, "abc123 add storage layer")
	assert.Contains(t, prompt, "internal/storage/store.go")
}

func TestBuildPromptDocumentsOutputRules(t *testing.T) {
	prompt := BuildPrompt(PromptInput{ProjectName: "p", Window: "w", Git: gitctx.Unknown})

	// The closed type set, the numeric ranges, and the global-scope rule
	// all have to reach the model verbatim.
	for _, fragment := range []string{
		`"architecture"`, `"decision"`, `"pattern"`, `"gotcha"`,
		`"context"`, `"progress"`, `"code_description"`,
		"[0,1]", "[1,10]", "0.8",
	} {
		assert.Contains(t, prompt, fragment)
	}
}
