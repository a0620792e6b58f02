package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadSurfaceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	now := time.Now().UTC()
	require.NoError(t, SaveSurface(dir, Cached{Surface: "# hi", Branch: "main", Cwd: "/tmp", GeneratedAt: now}))

	c, st, ok := LoadCachedSurface(dir, now)
	require.True(t, ok)
	assert.Equal(t, "# hi", c.Surface)
	assert.False(t, st.Stale)
}

func TestLoadCachedSurfaceMissingIsNotOK(t *testing.T) {
	_, _, ok := LoadCachedSurface(t.TempDir(), time.Now().UTC())
	assert.False(t, ok)
}

func TestLoadCachedSurfaceMalformedIsNotOK(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte("not json"), 0o644))
	_, _, ok := LoadCachedSurface(dir, time.Now().UTC())
	assert.False(t, ok)
}

func TestLoadCachedSurfaceStaleAfter24Hours(t *testing.T) {
	dir := t.TempDir()
	generated := time.Now().UTC().Add(-25 * time.Hour)
	require.NoError(t, SaveSurface(dir, Cached{Surface: "x", GeneratedAt: generated}))

	_, st, ok := LoadCachedSurface(dir, time.Now().UTC())
	require.True(t, ok)
	assert.True(t, st.Stale)
	assert.InDelta(t, 25, st.AgeHours, 0.1)
}

func TestInvalidateSurfaceCacheSucceedsOnAbsentDir(t *testing.T) {
	assert.NoError(t, InvalidateSurfaceCache(filepath.Join(t.TempDir(), "missing")))
}

func TestInvalidateSurfaceCacheClearsContents(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveSurface(dir, Cached{Surface: "x"}))
	require.NoError(t, InvalidateSurfaceCache(dir))

	_, _, ok := LoadCachedSurface(dir, time.Now().UTC())
	assert.False(t, ok)
}

