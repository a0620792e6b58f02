// Package sqlite implements the engine's storage layer on top of
// github.com/ncruces/go-sqlite3. Schema, CRUD, the keyword-search index,
// and checkpoint/restore all live here.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements creates the base schema. Every statement is
// idempotent (IF NOT EXISTS) so Open can run it unconditionally against an
// existing database.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS memories (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		summary TEXT NOT NULL,
		memory_type TEXT NOT NULL,
		scope TEXT NOT NULL,
		embedding BLOB,
		local_embedding BLOB,
		confidence REAL NOT NULL,
		priority INTEGER NOT NULL,
		pinned INTEGER NOT NULL DEFAULT 0,
		source_type TEXT NOT NULL,
		source_session TEXT NOT NULL,
		source_context TEXT,
		tags TEXT NOT NULL DEFAULT '[]',
		access_count INTEGER NOT NULL DEFAULT 0,
		last_accessed_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active'
	)`,
	`CREATE TABLE IF NOT EXISTS edges (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
		target_id TEXT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
		relation_type TEXT NOT NULL,
		strength REAL NOT NULL,
		bidirectional INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL,
		UNIQUE(source_id, target_id, relation_type)
	)`,
	`CREATE TABLE IF NOT EXISTS extraction_checkpoints (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL UNIQUE,
		cursor_position INTEGER NOT NULL DEFAULT 0,
		extracted_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_memories_status ON memories(status)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_source_id ON edges(source_id)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_target_id ON edges(target_id)`,
	`CREATE INDEX IF NOT EXISTS idx_checkpoints_session_id ON extraction_checkpoints(session_id)`,

	`CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
		id UNINDEXED,
		content,
		summary,
		tags,
		tokenize = 'unicode61'
	)`,

	`CREATE TRIGGER IF NOT EXISTS memories_fts_insert AFTER INSERT ON memories BEGIN
		INSERT INTO memories_fts(id, content, summary, tags) VALUES (new.id, new.content, new.summary, new.tags);
	END`,
	`CREATE TRIGGER IF NOT EXISTS memories_fts_update AFTER UPDATE ON memories BEGIN
		DELETE FROM memories_fts WHERE id = old.id;
		INSERT INTO memories_fts(id, content, summary, tags) VALUES (new.id, new.content, new.summary, new.tags);
	END`,
	`CREATE TRIGGER IF NOT EXISTS memories_fts_delete AFTER DELETE ON memories BEGIN
		DELETE FROM memories_fts WHERE id = old.id;
	END`,
}

// AllowlistedTables are the tables restore_checkpoint is permitted to
// overwrite. The FTS index is not listed: it is virtual and
// repopulates itself via the triggers above as restore reinserts rows into
// memories.
var AllowlistedTables = []string{"memories", "edges", "extraction_checkpoints"}

// applySchema runs every schema statement against db.
func applySchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: apply schema: %w", err)
		}
	}
	return nil
}
