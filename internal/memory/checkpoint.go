package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/cortexmemory/cortex/internal/cortexerr"
)

// ExtractionCheckpoint tracks how far the extraction pipeline has read a
// given transcript (by session_id), so re-running extraction is resumable
// and idempotent.
type ExtractionCheckpoint struct {
	ID             string
	SessionID      string
	CursorPosition int64
	ExtractedAt    time.Time
}

// NewExtractionCheckpointParams carries the caller-supplied fields for
// NewExtractionCheckpoint.
type NewExtractionCheckpointParams struct {
	ID             string
	SessionID      string
	CursorPosition int64
	ExtractedAt    time.Time
}

// NewExtractionCheckpoint constructs an ExtractionCheckpoint, enforcing
// the invariant that cursor_position is never negative.
func NewExtractionCheckpoint(p NewExtractionCheckpointParams) (*ExtractionCheckpoint, error) {
	id := strings.TrimSpace(p.ID)
	sessionID := strings.TrimSpace(p.SessionID)

	if id == "" {
		return nil, fmt.Errorf("checkpoint id must not be empty: %w", cortexerr.ErrValidation)
	}
	if sessionID == "" {
		return nil, fmt.Errorf("checkpoint session_id must not be empty: %w", cortexerr.ErrValidation)
	}
	if p.CursorPosition < 0 {
		return nil, fmt.Errorf("checkpoint cursor_position %d must not be negative: %w", p.CursorPosition, cortexerr.ErrValidation)
	}

	extractedAt := p.ExtractedAt
	if extractedAt.IsZero() {
		extractedAt = time.Now().UTC()
	}

	return &ExtractionCheckpoint{
		ID:             id,
		SessionID:      sessionID,
		CursorPosition: p.CursorPosition,
		ExtractedAt:    extractedAt,
	}, nil
}
