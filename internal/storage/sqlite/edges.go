package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/memory"
)

const edgeColumns = `id, source_id, target_id, relation_type, strength, bidirectional, status, created_at`

// InsertEdge inserts e. Duplicate (source_id, target_id, relation_type)
// violations are reported as cortexerr.ErrDuplicateEdge so callers in the
// extraction pipeline can swallow them where idempotence is intended.
func (s *Store) InsertEdge(ctx context.Context, e *memory.Edge) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO edges (id, source_id, target_id, relation_type, strength, bidirectional, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SourceID, e.TargetID, string(e.Relation), e.Strength, e.Bidirectional, string(e.Status), e.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("edge %s->%s (%s): %w", e.SourceID, e.TargetID, e.Relation, cortexerr.ErrDuplicateEdge)
		}
		return fmt.Errorf("sqlite: insert edge: %w: %v", cortexerr.ErrInternal, err)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// go-sqlite3 surfaces these as errors whose message contains "UNIQUE
// constraint failed" (or the SQLite result code name); string matching is
// the only option database/sql exposes without depending on the driver's
// concrete error type.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLITE_CONSTRAINT")
}

// ListEdges returns every edge in the store, for graph traversal and
// centrality computation, which both need the whole
// edge set in memory.
func (s *Store) ListEdges(ctx context.Context) ([]*memory.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+edgeColumns+` FROM edges`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list edges: %w: %v", cortexerr.ErrInternal, err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// ListEdgesFrom returns active edges whose source_id is id, for recall's
// source_of traversal.
func (s *Store) ListEdgesFrom(ctx context.Context, id string, relation memory.RelationType) ([]*memory.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+edgeColumns+` FROM edges WHERE source_id = ? AND relation_type = ? AND status = 'active'`, id, string(relation))
	if err != nil {
		return nil, fmt.Errorf("sqlite: list edges from %s: %w: %v", id, cortexerr.ErrInternal, err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// GetEdge fetches a single edge by id.
func (s *Store) GetEdge(ctx context.Context, id string) (*memory.Edge, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+edgeColumns+` FROM edges WHERE id = ?`, id)
	e, err := scanEdge(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("edge %s: %w", id, cortexerr.ErrNotFound)
		}
		return nil, err
	}
	return e, nil
}

func scanEdge(row rowScanner) (*memory.Edge, error) {
	var e memory.Edge
	var relation, status, createdAt string
	if err := row.Scan(&e.ID, &e.SourceID, &e.TargetID, &relation, &e.Strength, &e.Bidirectional, &status, &createdAt); err != nil {
		return nil, err
	}
	e.Relation = memory.RelationType(relation)
	e.Status = memory.EdgeStatus(status)
	e.CreatedAt, _ = parseTime(createdAt)
	return &e, nil
}

func scanEdges(rows *sql.Rows) ([]*memory.Edge, error) {
	var out []*memory.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan edge: %w: %v", cortexerr.ErrInternal, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate edges: %w: %v", cortexerr.ErrInternal, err)
	}
	return out, nil
}
