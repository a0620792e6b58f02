package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExtractionCheckpointRejectsNegativeCursor(t *testing.T) {
	_, err := NewExtractionCheckpoint(NewExtractionCheckpointParams{
		ID: "c-1", SessionID: "sess-1", CursorPosition: -1,
	})
	assert.Error(t, err)
}

func TestNewExtractionCheckpointRejectsEmptyFields(t *testing.T) {
	_, err := NewExtractionCheckpoint(NewExtractionCheckpointParams{ID: "", SessionID: "sess-1"})
	assert.Error(t, err)

	_, err = NewExtractionCheckpoint(NewExtractionCheckpointParams{ID: "c-1", SessionID: ""})
	assert.Error(t, err)
}

func TestNewExtractionCheckpointDefaultsExtractedAt(t *testing.T) {
	c, err := NewExtractionCheckpoint(NewExtractionCheckpointParams{ID: "c-1", SessionID: "sess-1"})
	require.NoError(t, err)
	assert.False(t, c.ExtractedAt.IsZero())
	assert.Equal(t, int64(0), c.CursorPosition)
}
