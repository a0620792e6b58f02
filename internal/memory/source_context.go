package memory

import (
	"encoding/json"
	"fmt"

	"github.com/cortexmemory/cortex/internal/cortexerr"
)

// SourceContext is the schema-lite payload stored as Memory.SourceContext
// JSON. It is opaque at the storage boundary: different
// source types stamp different subsets of these recognized fields, and
// readers must tolerate missing keys and parse failures rather than
// erroring (notably the branch boost in ranking and the branch filter in
// recall, both of which degrade silently).
type SourceContext struct {
	Branch     string   `json:"branch,omitempty"`
	Commits    []string `json:"commits,omitempty"`
	Files      []string `json:"files,omitempty"`
	FilePath   string   `json:"file_path,omitempty"`
	StartLine  int      `json:"start_line,omitempty"`
	EndLine    int      `json:"end_line,omitempty"`
	MergedFrom []string `json:"merged_from,omitempty"`
	SessionID  string   `json:"session_id,omitempty"`
}

// NewExtractionSourceContext builds the shape extraction stamps: the git
// branch plus the top commits/files derived for the window.
func NewExtractionSourceContext(branch string, commits, files []string, sessionID string) SourceContext {
	return SourceContext{Branch: branch, Commits: commits, Files: files, SessionID: sessionID}
}

// NewCodeIndexSourceContext builds the shape index-code stamps: the file a
// code_description/code pair describes.
func NewCodeIndexSourceContext(filePath string, startLine, endLine int) SourceContext {
	return SourceContext{FilePath: filePath, StartLine: startLine, EndLine: endLine}
}

// NewConsolidationSourceContext builds the shape a merge-produced memory
// stamps, recording what was merged away.
func NewConsolidationSourceContext(mergedFromIDs []string) SourceContext {
	return SourceContext{MergedFrom: mergedFromIDs}
}

// Encode marshals sc to its canonical JSON string form for storage in
// Memory.SourceContext.
func (sc SourceContext) Encode() (string, error) {
	b, err := json.Marshal(sc)
	if err != nil {
		return "", fmt.Errorf("encode source_context: %w: %v", cortexerr.ErrInternal, err)
	}
	return string(b), nil
}

// DecodeSourceContext parses raw into a SourceContext. An empty or
// malformed raw decodes to a zero-value SourceContext rather than
// erroring: callers at read sites must tolerate missing/unparseable
// context.
func DecodeSourceContext(raw string) SourceContext {
	var sc SourceContext
	if raw == "" {
		return sc
	}
	if err := json.Unmarshal([]byte(raw), &sc); err != nil {
		return SourceContext{}
	}
	return sc
}
