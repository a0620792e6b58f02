package fsutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureGitignoredCreatesFile(t *testing.T) {
	dir := t.TempDir()
	created, err := EnsureGitignored(dir)
	require.NoError(t, err)
	assert.True(t, created)
	assert.FileExists(t, filepath.Join(dir, ".gitignore"))
}

func TestEnsureGitignoredNoopWhenUpToDate(t *testing.T) {
	dir := t.TempDir()
	_, err := EnsureGitignored(dir)
	require.NoError(t, err)

	created, err := EnsureGitignored(dir)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestEnsureGitignoredAppendsMissingPatterns(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("custom-entry"), 0o644))

	created, err := EnsureGitignored(dir)
	require.NoError(t, err)
	assert.True(t, created)

	content, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "custom-entry\n")
	assert.Contains(t, string(content), "locks/")
	assert.Contains(t, string(content), "surface-cache/")
}

func TestEnsureGitignoredNeverDuplicates(t *testing.T) {
	dir := t.TempDir()
	_, err := EnsureGitignored(dir)
	require.NoError(t, err)
	_, err = EnsureGitignored(dir)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(content), "locks/"))
}
