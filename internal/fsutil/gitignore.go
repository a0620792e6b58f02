// Package fsutil holds small filesystem helpers shared across the engine,
// starting with the .gitignore maintenance the .memory directory needs so
// engine-owned state never lands in version control.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GitignoreTemplate is the content written when no .gitignore exists yet.
const GitignoreTemplate = `# SQLite databases — local state, never synced via git
*.db
*.db-journal
*.db-wal
*.db-shm

# Lock, cache, and status files
locks/
surface-cache/
cortex-status.json
`

// requiredPatterns must each appear on its own line for .memory/.gitignore
// to count as up to date.
var requiredPatterns = []string{"*.db", "*.db-wal", "*.db-shm", "locks/", "surface-cache/"}

// EnsureGitignored makes sure memoryDir/.gitignore exists and contains
// every required pattern, creating the file if absent and appending any
// missing pattern on its own line otherwise. Existing content is never
// rewritten and patterns are never duplicated. Returns true if the file
// was created or modified.
func EnsureGitignored(memoryDir string) (bool, error) {
	path := filepath.Join(memoryDir, ".gitignore")

	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return false, fmt.Errorf("fsutil: read %s: %w", path, err)
		}
		if err := os.WriteFile(path, []byte(GitignoreTemplate), 0o644); err != nil {
			return false, fmt.Errorf("fsutil: write %s: %w", path, err)
		}
		return true, nil
	}

	missing := missingPatterns(string(content))
	if len(missing) == 0 {
		return false, nil
	}

	var b strings.Builder
	b.Write(content)
	if len(content) > 0 && content[len(content)-1] != '\n' {
		b.WriteByte('\n')
	}
	for _, p := range missing {
		b.WriteString(p)
		b.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return false, fmt.Errorf("fsutil: write %s: %w", path, err)
	}
	return true, nil
}

// missingPatterns returns the required patterns that don't already appear
// as a line (modulo surrounding whitespace) in content.
func missingPatterns(content string) []string {
	present := make(map[string]bool)
	for _, line := range strings.Split(content, "\n") {
		present[strings.TrimSpace(line)] = true
	}
	var missing []string
	for _, p := range requiredPatterns {
		if !present[p] {
			missing = append(missing, p)
		}
	}
	return missing
}
