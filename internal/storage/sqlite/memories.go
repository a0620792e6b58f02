package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/logx"
	"github.com/cortexmemory/cortex/internal/memory"
)

const timeLayout = time.RFC3339Nano

// InsertMemory inserts m. Callers are expected to have constructed m via
// memory.New, so no invariant checks happen here.
func (s *Store) InsertMemory(ctx context.Context, m *memory.Memory) error {
	tagsJSON, err := json.Marshal(m.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: marshal tags: %w: %v", cortexerr.ErrInternal, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO memories (
			id, content, summary, memory_type, scope, embedding, local_embedding,
			confidence, priority, pinned, source_type, source_session, source_context,
			tags, access_count, last_accessed_at, created_at, updated_at, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Content, m.Summary, string(m.MemoryType), string(m.Scope),
		encodeRemoteEmbedding(m.RemoteEmbedding), encodeLocalEmbedding(m.LocalEmbedding),
		m.Confidence, m.Priority, m.Pinned, string(m.SourceType), m.SourceSession, m.SourceContext,
		string(tagsJSON), m.AccessCount, m.LastAccessedAt.Format(timeLayout),
		m.CreatedAt.Format(timeLayout), m.UpdatedAt.Format(timeLayout), string(m.Status),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert memory %s: %w: %v", m.ID, cortexerr.ErrInternal, err)
	}
	return nil
}

const memoryColumns = `id, content, summary, memory_type, scope, embedding, local_embedding,
	confidence, priority, pinned, source_type, source_session, source_context,
	tags, access_count, last_accessed_at, created_at, updated_at, status`

// GetMemory fetches a single memory by id. Returns cortexerr.ErrNotFound if
// absent.
func (s *Store) GetMemory(ctx context.Context, id string) (*memory.Memory, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memoryColumns+` FROM memories WHERE id = ?`, id)
	m, err := scanMemory(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("memory %s: %w", id, cortexerr.ErrNotFound)
		}
		return nil, err
	}
	return m, nil
}

// ListMemoriesByStatus returns every memory with the given status, in no
// particular order (callers that need a ranking sort afterward).
func (s *Store) ListMemoriesByStatus(ctx context.Context, statuses ...memory.Status) ([]*memory.Memory, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := make([]byte, 0, len(statuses)*2)
	args := make([]any, 0, len(statuses))
	for i, st := range statuses {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, string(st))
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+memoryColumns+` FROM memories WHERE status IN (`+string(placeholders)+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list memories by status: %w: %v", cortexerr.ErrInternal, err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// ListMemoriesMissingEmbedding returns active memories whose remote or local
// embedding column (selected by remote) is null, for the backfill queue.
func (s *Store) ListMemoriesMissingEmbedding(ctx context.Context, remote bool) ([]*memory.Memory, error) {
	col := "local_embedding"
	if remote {
		col = "embedding"
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+memoryColumns+` FROM memories WHERE status = 'active' AND `+col+` IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list memories missing embedding: %w: %v", cortexerr.ErrInternal, err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// ListMemoriesWithEmbedding returns active memories whose remote or local
// embedding column (selected by remote) is present and decodes to the
// expected dimension. A row that claims an embedding but whose BLOB decodes
// to the wrong shape is skipped with a warning rather than returned.
func (s *Store) ListMemoriesWithEmbedding(ctx context.Context, remote bool) ([]*memory.Memory, error) {
	col := "local_embedding"
	if remote {
		col = "embedding"
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+memoryColumns+` FROM memories WHERE status = 'active' AND `+col+` IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list memories with embedding: %w: %v", cortexerr.ErrInternal, err)
	}
	defer rows.Close()

	all, err := scanMemories(rows)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, m := range all {
		if remote && !remoteDimOK(m.RemoteEmbedding) {
			logx.Warnf("sqlite: memory %s claims a remote embedding of %d dims, skipping", m.ID, len(m.RemoteEmbedding))
			continue
		}
		if !remote && !localDimOK(m.LocalEmbedding) {
			logx.Warnf("sqlite: memory %s claims a local embedding of %d dims, skipping", m.ID, len(m.LocalEmbedding))
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// UpdateMemoryEmbedding sets the remote and/or local embedding column for
// id, leaving the other column untouched when its argument is nil. Used by
// the backfill loop, which only ever fills previously-null slots.
func (s *Store) UpdateMemoryEmbedding(ctx context.Context, id string, remote []float64, local []float32) error {
	switch {
	case remote != nil && local != nil:
		_, err := s.db.ExecContext(ctx, `UPDATE memories SET embedding = ?, local_embedding = ?, updated_at = ? WHERE id = ?`,
			encodeRemoteEmbedding(remote), encodeLocalEmbedding(local), time.Now().UTC().Format(timeLayout), id)
		return wrapExecErr(err, "update memory embedding", id)
	case remote != nil:
		_, err := s.db.ExecContext(ctx, `UPDATE memories SET embedding = ?, updated_at = ? WHERE id = ?`,
			encodeRemoteEmbedding(remote), time.Now().UTC().Format(timeLayout), id)
		return wrapExecErr(err, "update memory embedding", id)
	case local != nil:
		_, err := s.db.ExecContext(ctx, `UPDATE memories SET local_embedding = ?, updated_at = ? WHERE id = ?`,
			encodeLocalEmbedding(local), time.Now().UTC().Format(timeLayout), id)
		return wrapExecErr(err, "update memory embedding", id)
	}
	return nil
}

// UpdateMemoryConfidence sets confidence for id (the lifecycle sweep's decay
// write) without touching any other column.
func (s *Store) UpdateMemoryConfidence(ctx context.Context, id string, confidence float64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE memories SET confidence = ?, updated_at = ? WHERE id = ?`,
		confidence, time.Now().UTC().Format(timeLayout), id)
	return wrapExecErr(err, "update memory confidence", id)
}

// UpdateMemoryStatus transitions id to status (lifecycle archive/prune,
// consolidation supersede).
func (s *Store) UpdateMemoryStatus(ctx context.Context, id string, status memory.Status) error {
	_, err := s.db.ExecContext(ctx, `UPDATE memories SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(timeLayout), id)
	return wrapExecErr(err, "update memory status", id)
}

// TouchMemoriesAccessed increments access_count and stamps last_accessed_at
// for every id, in one transaction (recall's post-retrieval bookkeeping).
func (s *Store) TouchMemoriesAccessed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.withImmediateTx(ctx, func(conn *sql.Conn) error {
		now := time.Now().UTC().Format(timeLayout)
		for _, id := range ids {
			if _, err := conn.ExecContext(ctx, `UPDATE memories SET access_count = access_count + 1, last_accessed_at = ? WHERE id = ?`, now, id); err != nil {
				return fmt.Errorf("sqlite: touch memory %s: %w: %v", id, cortexerr.ErrInternal, err)
			}
		}
		return nil
	})
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func wrapExecErr(err error, op, id string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("sqlite: %s %s: %w: %v", op, id, cortexerr.ErrInternal, err)
}

// rowScanner abstracts over *sql.Row and *sql.Rows for scanMemory.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*memory.Memory, error) {
	var m memory.Memory
	var memType, scope, sourceType, status string
	var remoteBlob, localBlob []byte
	var tagsJSON string
	var lastAccessedAt, createdAt, updatedAt string

	err := row.Scan(
		&m.ID, &m.Content, &m.Summary, &memType, &scope, &remoteBlob, &localBlob,
		&m.Confidence, &m.Priority, &m.Pinned, &sourceType, &m.SourceSession, &m.SourceContext,
		&tagsJSON, &m.AccessCount, &lastAccessedAt, &createdAt, &updatedAt, &status,
	)
	if err != nil {
		return nil, err
	}

	m.MemoryType = memory.Type(memType)
	m.Scope = memory.Scope(scope)
	m.SourceType = memory.SourceType(sourceType)
	m.Status = memory.Status(status)

	remote, err := decodeRemoteEmbedding(remoteBlob)
	if err != nil {
		return nil, fmt.Errorf("sqlite: decode remote embedding for %s: %w", m.ID, err)
	}
	m.RemoteEmbedding = remote

	local, err := decodeLocalEmbedding(localBlob)
	if err != nil {
		return nil, fmt.Errorf("sqlite: decode local embedding for %s: %w", m.ID, err)
	}
	m.LocalEmbedding = local

	if err := json.Unmarshal([]byte(tagsJSON), &m.Tags); err != nil {
		m.Tags = nil
	}

	m.LastAccessedAt, _ = parseTime(lastAccessedAt)
	m.CreatedAt, _ = parseTime(createdAt)
	m.UpdatedAt, _ = parseTime(updatedAt)

	return &m, nil
}

func scanMemories(rows *sql.Rows) ([]*memory.Memory, error) {
	var out []*memory.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			logx.Warnf("sqlite: skipping corrupt memory row: %v", err)
			continue
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate memories: %w: %v", cortexerr.ErrInternal, err)
	}
	return out, nil
}
