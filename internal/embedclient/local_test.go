package embedclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexmemory/cortex/internal/memory"
)

func TestEmbedLocalRejectsEmptyText(t *testing.T) {
	c := NewLocalClient()
	_, err := c.EmbedLocal("   ")
	assert.Error(t, err)
}

func TestEmbedLocalProducesExpectedDimension(t *testing.T) {
	c := NewLocalClient()
	v, err := c.EmbedLocal("hello world")
	require.NoError(t, err)
	assert.Len(t, v, memory.LocalEmbeddingDim)
}

func TestEmbedLocalIsDeterministic(t *testing.T) {
	c := NewLocalClient()
	a, err := c.EmbedLocal("repeatable text")
	require.NoError(t, err)
	b, err := c.EmbedLocal("repeatable text")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEmbedLocalCachesModelLoadedAcrossCalls(t *testing.T) {
	c := NewLocalClient()
	assert.False(t, c.ModelLoaded())
	_, err := c.EmbedLocal("anything")
	require.NoError(t, err)
	assert.True(t, c.ModelLoaded())
}
