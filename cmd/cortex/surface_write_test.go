package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexmemory/cortex/internal/surface"
)

func TestSpliceSurfaceIntoEmptyFile(t *testing.T) {
	out := spliceSurface("", surface.Wrap("body\n"))
	assert.True(t, strings.HasPrefix(out, surface.StartMarker))
	assert.Contains(t, out, "body")
}

func TestSpliceSurfaceAppendsWhenNoMarkers(t *testing.T) {
	out := spliceSurface("# My notes\nkeep this", surface.Wrap("body\n"))
	assert.True(t, strings.HasPrefix(out, "# My notes\nkeep this\n"))
	assert.Contains(t, out, surface.StartMarker)
}

func TestSpliceSurfaceReplacesMarkerRegionInPlace(t *testing.T) {
	existing := "above\n" + surface.Wrap("old body\n") + "below\n"
	out := spliceSurface(existing, surface.Wrap("new body\n"))

	assert.Contains(t, out, "above\n")
	assert.Contains(t, out, "below\n")
	assert.Contains(t, out, "new body")
	assert.NotContains(t, out, "old body")
	assert.Equal(t, 1, strings.Count(out, surface.StartMarker))
	assert.Equal(t, 1, strings.Count(out, surface.EndMarker))
}

func TestReadHookInputValidShape(t *testing.T) {
	in, err := readHookInput(strings.NewReader(`{"session_id":"s","transcript_path":"/t","cwd":"/c"}`))
	require.NoError(t, err)
	assert.Equal(t, "s", in.SessionID)
}

func TestReadHookInputRejectsBadShapes(t *testing.T) {
	_, err := readHookInput(strings.NewReader(`[1,2,3]`))
	assert.Error(t, err)

	_, err = readHookInput(strings.NewReader(`{"session_id":"s"}`))
	assert.Error(t, err)

	_, err = readHookInput(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestDeriveSummaryFirstLineTruncated(t *testing.T) {
	assert.Equal(t, "first", deriveSummary("first\nsecond"))
	long := strings.Repeat("x", 500)
	assert.LessOrEqual(t, len(deriveSummary(long)), summaryMaxLen+3)
}
