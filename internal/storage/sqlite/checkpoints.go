package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/memory"
)

// GetCheckpoint fetches the extraction checkpoint for sessionID, if any.
// Returns cortexerr.ErrNotFound when none exists — callers treat that as
// cursor_position 0.
func (s *Store) GetCheckpoint(ctx context.Context, sessionID string) (*memory.ExtractionCheckpoint, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, session_id, cursor_position, extracted_at FROM extraction_checkpoints WHERE session_id = ?`, sessionID)

	var c memory.ExtractionCheckpoint
	var extractedAt string
	err := row.Scan(&c.ID, &c.SessionID, &c.CursorPosition, &extractedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("checkpoint for session %s: %w", sessionID, cortexerr.ErrNotFound)
		}
		return nil, fmt.Errorf("sqlite: get checkpoint: %w: %v", cortexerr.ErrInternal, err)
	}
	c.ExtractedAt, _ = parseTime(extractedAt)
	return &c, nil
}

// UpsertCheckpoint inserts or replaces the checkpoint row for c.SessionID.
func (s *Store) UpsertCheckpoint(ctx context.Context, c *memory.ExtractionCheckpoint) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO extraction_checkpoints (id, session_id, cursor_position, extracted_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET cursor_position = excluded.cursor_position, extracted_at = excluded.extracted_at`,
		c.ID, c.SessionID, c.CursorPosition, c.ExtractedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert checkpoint for session %s: %w: %v", c.SessionID, cortexerr.ErrInternal, err)
	}
	return nil
}

// DeleteCheckpoint removes the checkpoint row for sessionID, if present.
func (s *Store) DeleteCheckpoint(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM extraction_checkpoints WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("sqlite: delete checkpoint for session %s: %w: %v", sessionID, cortexerr.ErrInternal, err)
	}
	return nil
}
