package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() NewParams {
	return NewParams{
		ID:            "m-1",
		Content:       "uses viper for config",
		Summary:       "config via viper",
		MemoryType:    TypeArchitecture,
		Scope:         ScopeProject,
		Confidence:    0.8,
		Priority:      5,
		SourceType:    SourceManual,
		SourceSession: "sess-1",
	}
}

func TestNewTrimsFields(t *testing.T) {
	p := validParams()
	p.ID = "  m-1  "
	p.Content = "  content  "
	p.Summary = "  summary  "
	p.SourceSession = "  sess-1  "

	m, err := New(p)
	require.NoError(t, err)
	assert.Equal(t, "m-1", m.ID)
	assert.Equal(t, "content", m.Content)
	assert.Equal(t, "summary", m.Summary)
	assert.Equal(t, "sess-1", m.SourceSession)
}

func TestNewDefaultsStatusAndTimestamps(t *testing.T) {
	m, err := New(validParams())
	require.NoError(t, err)
	assert.Equal(t, StatusActive, m.Status)
	assert.False(t, m.CreatedAt.IsZero())
	assert.Equal(t, m.CreatedAt, m.UpdatedAt)
	assert.Equal(t, m.CreatedAt, m.LastAccessedAt)
}

func TestNewRejectsEmptyRequiredFields(t *testing.T) {
	cases := []func(*NewParams){
		func(p *NewParams) { p.ID = "" },
		func(p *NewParams) { p.Content = "   " },
		func(p *NewParams) { p.Summary = "" },
		func(p *NewParams) { p.SourceSession = "" },
	}
	for _, mutate := range cases {
		p := validParams()
		mutate(&p)
		_, err := New(p)
		assert.Error(t, err)
	}
}

func TestNewRejectsInvalidEnums(t *testing.T) {
	p := validParams()
	p.MemoryType = "bogus"
	_, err := New(p)
	assert.Error(t, err)

	p = validParams()
	p.Scope = "bogus"
	_, err = New(p)
	assert.Error(t, err)

	p = validParams()
	p.Status = "bogus"
	_, err = New(p)
	assert.Error(t, err)
}

func TestNewRejectsOutOfRangeConfidenceAndPriority(t *testing.T) {
	p := validParams()
	p.Confidence = 1.5
	_, err := New(p)
	assert.Error(t, err)

	p = validParams()
	p.Confidence = -0.1
	_, err = New(p)
	assert.Error(t, err)

	p = validParams()
	p.Priority = 0
	_, err = New(p)
	assert.Error(t, err)

	p = validParams()
	p.Priority = 11
	_, err = New(p)
	assert.Error(t, err)
}

func TestNewRejectsWrongEmbeddingDims(t *testing.T) {
	p := validParams()
	p.RemoteEmbedding = make([]float64, 10)
	_, err := New(p)
	assert.Error(t, err)

	p = validParams()
	p.LocalEmbedding = make([]float32, 10)
	_, err = New(p)
	assert.Error(t, err)
}

func TestNewAcceptsCorrectEmbeddingDims(t *testing.T) {
	p := validParams()
	p.RemoteEmbedding = make([]float64, RemoteEmbeddingDim)
	p.LocalEmbedding = make([]float32, LocalEmbeddingDim)
	_, err := New(p)
	assert.NoError(t, err)
}

func TestLineCost(t *testing.T) {
	m, err := New(validParams())
	require.NoError(t, err)
	m.Summary = "one line"
	assert.Equal(t, 1, m.LineCost())
	m.Summary = "line one\nline two\nline three"
	assert.Equal(t, 3, m.LineCost())
	m.Summary = ""
	assert.Equal(t, 1, m.LineCost())
}
