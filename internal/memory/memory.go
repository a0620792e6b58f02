// Package memory defines the engine's core entities — Memory, Edge, and
// ExtractionCheckpoint — with construction-time invariant checks. Entities are immutable records built through factory
// functions; storage and every other component operate on these types.
package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/cortexmemory/cortex/internal/cortexerr"
)

// Type is the closed set of memory_type values.
type Type string

const (
	TypeArchitecture    Type = "architecture"
	TypeDecision        Type = "decision"
	TypePattern         Type = "pattern"
	TypeGotcha          Type = "gotcha"
	TypeContext         Type = "context"
	TypeProgress        Type = "progress"
	TypeCodeDescription Type = "code_description"
	TypeCode            Type = "code"
)

var validTypes = map[Type]bool{
	TypeArchitecture: true, TypeDecision: true, TypePattern: true,
	TypeGotcha: true, TypeContext: true, TypeProgress: true,
	TypeCodeDescription: true, TypeCode: true,
}

// IsValid reports whether t is one of the closed set of memory types.
func (t Type) IsValid() bool { return validTypes[t] }

// Scope is the storage partition a memory belongs to.
type Scope string

const (
	ScopeProject Scope = "project"
	ScopeGlobal  Scope = "global"
)

// IsValid reports whether s is project or global.
func (s Scope) IsValid() bool { return s == ScopeProject || s == ScopeGlobal }

// Status is the closed set of memory lifecycle states.
type Status string

const (
	StatusActive     Status = "active"
	StatusSuperseded Status = "superseded"
	StatusArchived   Status = "archived"
	StatusPruned     Status = "pruned"
)

var validStatuses = map[Status]bool{
	StatusActive: true, StatusSuperseded: true, StatusArchived: true, StatusPruned: true,
}

// IsValid reports whether s is one of the closed set of statuses.
func (s Status) IsValid() bool { return validStatuses[s] }

// SourceType is the closed set of provenance kinds.
type SourceType string

const (
	SourceExtraction SourceType = "extraction"
	SourceManual     SourceType = "manual"
	SourceCodeIndex  SourceType = "code_index"
)

// RemoteEmbeddingDim is the dimensionality of the remote embedding vector.
const RemoteEmbeddingDim = 768

// LocalEmbeddingDim is the dimensionality of the local embedding vector.
const LocalEmbeddingDim = 384

// Memory is the engine's atomic unit of stored knowledge.
type Memory struct {
	ID      string
	Content string
	Summary string

	MemoryType Type
	Scope      Scope

	RemoteEmbedding []float64 // nil or len == RemoteEmbeddingDim
	LocalEmbedding  []float32 // nil or len == LocalEmbeddingDim

	Confidence float64 // [0,1]
	Priority   int     // [1,10]
	Pinned     bool

	SourceType    SourceType
	SourceSession string
	SourceContext string // opaque JSON blob; see source_context.go

	Tags []string

	AccessCount    int
	LastAccessedAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Status Status
}

// NewParams carries the caller-supplied fields for New. Timestamp fields
// are optional; when zero, New stamps them with the construction moment.
type NewParams struct {
	ID      string
	Content string
	Summary string

	MemoryType Type
	Scope      Scope

	RemoteEmbedding []float64
	LocalEmbedding  []float32

	Confidence float64
	Priority   int
	Pinned     bool

	SourceType    SourceType
	SourceSession string
	SourceContext string

	Tags []string

	AccessCount    int
	LastAccessedAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Status Status
}

// New constructs a Memory, enforcing every construction invariant. Trimming
// is normative for id/content/summary/source_session: the trimmed values
// are what get stored.
func New(p NewParams) (*Memory, error) {
	id := strings.TrimSpace(p.ID)
	content := strings.TrimSpace(p.Content)
	summary := strings.TrimSpace(p.Summary)
	sourceSession := strings.TrimSpace(p.SourceSession)

	if id == "" {
		return nil, fmt.Errorf("memory id must not be empty: %w", cortexerr.ErrValidation)
	}
	if content == "" {
		return nil, fmt.Errorf("memory content must not be empty: %w", cortexerr.ErrValidation)
	}
	if summary == "" {
		return nil, fmt.Errorf("memory summary must not be empty: %w", cortexerr.ErrValidation)
	}
	if sourceSession == "" {
		return nil, fmt.Errorf("memory source_session must not be empty: %w", cortexerr.ErrValidation)
	}
	if !p.MemoryType.IsValid() {
		return nil, fmt.Errorf("invalid memory_type %q: %w", p.MemoryType, cortexerr.ErrValidation)
	}
	if !p.Scope.IsValid() {
		return nil, fmt.Errorf("invalid scope %q: %w", p.Scope, cortexerr.ErrValidation)
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return nil, fmt.Errorf("confidence %v out of range [0,1]: %w", p.Confidence, cortexerr.ErrValidation)
	}
	if p.Priority < 1 || p.Priority > 10 {
		return nil, fmt.Errorf("priority %d out of range [1,10]: %w", p.Priority, cortexerr.ErrValidation)
	}
	status := p.Status
	if status == "" {
		status = StatusActive
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid status %q: %w", status, cortexerr.ErrValidation)
	}
	if p.RemoteEmbedding != nil && len(p.RemoteEmbedding) != RemoteEmbeddingDim {
		return nil, fmt.Errorf("remote embedding has %d dims, want %d: %w", len(p.RemoteEmbedding), RemoteEmbeddingDim, cortexerr.ErrValidation)
	}
	if p.LocalEmbedding != nil && len(p.LocalEmbedding) != LocalEmbeddingDim {
		return nil, fmt.Errorf("local embedding has %d dims, want %d: %w", len(p.LocalEmbedding), LocalEmbeddingDim, cortexerr.ErrValidation)
	}

	now := time.Now().UTC()
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	lastAccessedAt := p.LastAccessedAt
	if lastAccessedAt.IsZero() {
		lastAccessedAt = createdAt
	}

	tags := make([]string, len(p.Tags))
	copy(tags, p.Tags)

	return &Memory{
		ID:              id,
		Content:         content,
		Summary:         summary,
		MemoryType:      p.MemoryType,
		Scope:           p.Scope,
		RemoteEmbedding: p.RemoteEmbedding,
		LocalEmbedding:  p.LocalEmbedding,
		Confidence:      p.Confidence,
		Priority:        p.Priority,
		Pinned:          p.Pinned,
		SourceType:      p.SourceType,
		SourceSession:   sourceSession,
		SourceContext:   p.SourceContext,
		Tags:            tags,
		AccessCount:     p.AccessCount,
		LastAccessedAt:  lastAccessedAt,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
		Status:          status,
	}, nil
}

// LineCost returns the number of newline-separated lines in the memory's
// summary, minimum 1.
func (m *Memory) LineCost() int {
	if m.Summary == "" {
		return 1
	}
	n := strings.Count(m.Summary, "\n") + 1
	if n < 1 {
		return 1
	}
	return n
}
