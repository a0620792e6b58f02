package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/memory"
)

// ApplyMerge writes the result of one human-approved consolidation merge
// atomically: insert merged, insert one supersedes edge per superseded
// predecessor, and transition each predecessor to superseded. All writes
// share one IMMEDIATE transaction so a failure partway leaves nothing
// behind.
func (s *Store) ApplyMerge(ctx context.Context, merged *memory.Memory, edges []*memory.Edge, supersededIDs []string) error {
	tagsJSON, err := json.Marshal(merged.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: marshal merged tags: %w: %v", cortexerr.ErrInternal, err)
	}

	return s.withImmediateTx(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, `
			INSERT INTO memories (
				id, content, summary, memory_type, scope, embedding, local_embedding,
				confidence, priority, pinned, source_type, source_session, source_context,
				tags, access_count, last_accessed_at, created_at, updated_at, status
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			merged.ID, merged.Content, merged.Summary, string(merged.MemoryType), string(merged.Scope),
			encodeRemoteEmbedding(merged.RemoteEmbedding), encodeLocalEmbedding(merged.LocalEmbedding),
			merged.Confidence, merged.Priority, merged.Pinned, string(merged.SourceType), merged.SourceSession, merged.SourceContext,
			string(tagsJSON), merged.AccessCount, merged.LastAccessedAt.Format(timeLayout),
			merged.CreatedAt.Format(timeLayout), merged.UpdatedAt.Format(timeLayout), string(merged.Status),
		)
		if err != nil {
			return fmt.Errorf("sqlite: merge: insert memory %s: %w: %v", merged.ID, cortexerr.ErrInternal, err)
		}

		for _, e := range edges {
			if _, err := conn.ExecContext(ctx, `
				INSERT INTO edges (id, source_id, target_id, relation_type, strength, bidirectional, status, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				e.ID, e.SourceID, e.TargetID, string(e.Relation), e.Strength, e.Bidirectional, string(e.Status),
				e.CreatedAt.Format(timeLayout),
			); err != nil {
				return fmt.Errorf("sqlite: merge: insert edge %s->%s: %w: %v", e.SourceID, e.TargetID, cortexerr.ErrInternal, err)
			}
		}

		now := time.Now().UTC().Format(timeLayout)
		for _, id := range supersededIDs {
			if _, err := conn.ExecContext(ctx, `UPDATE memories SET status = ?, updated_at = ? WHERE id = ?`,
				string(memory.StatusSuperseded), now, id); err != nil {
				return fmt.Errorf("sqlite: merge: supersede %s: %w: %v", id, cortexerr.ErrInternal, err)
			}
		}
		return nil
	})
}
