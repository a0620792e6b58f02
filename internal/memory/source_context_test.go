package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceContextRoundTrip(t *testing.T) {
	sc := NewExtractionSourceContext("main", []string{"abc123"}, []string{"a.go", "b.go"}, "sess-1")
	encoded, err := sc.Encode()
	require.NoError(t, err)

	decoded := DecodeSourceContext(encoded)
	assert.Equal(t, "main", decoded.Branch)
	assert.Equal(t, []string{"abc123"}, decoded.Commits)
	assert.Equal(t, []string{"a.go", "b.go"}, decoded.Files)
	assert.Equal(t, "sess-1", decoded.SessionID)
}

func TestDecodeSourceContextEmptyIsZeroValue(t *testing.T) {
	sc := DecodeSourceContext("")
	assert.Equal(t, SourceContext{}, sc)
}

func TestDecodeSourceContextMalformedIsZeroValue(t *testing.T) {
	sc := DecodeSourceContext("{not json")
	assert.Equal(t, SourceContext{}, sc)
}

func TestCodeIndexSourceContext(t *testing.T) {
	sc := NewCodeIndexSourceContext("internal/foo/bar.go", 10, 42)
	assert.Equal(t, "internal/foo/bar.go", sc.FilePath)
	assert.Equal(t, 10, sc.StartLine)
	assert.Equal(t, 42, sc.EndLine)
}

func TestConsolidationSourceContext(t *testing.T) {
	sc := NewConsolidationSourceContext([]string{"m-1", "m-2"})
	assert.Equal(t, []string{"m-1", "m-2"}, sc.MergedFrom)
}
