// Package migrations holds idempotent schema-evolution steps, run in
// numeric order every time a store is opened: each migration checks
// whether its change is already present before applying it, so re-running
// against an up-to-date database is always a no-op.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// BackfillFTS repopulates memories_fts from memories when the index is
// empty but memories is not — the state a database ends up in if it was
// created by a version of the engine that predates the FTS triggers.
func BackfillFTS(ctx context.Context, db *sql.DB) error {
	var memCount, ftsCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&memCount); err != nil {
		return fmt.Errorf("migrations: count memories: %w", err)
	}
	if memCount == 0 {
		return nil
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories_fts`).Scan(&ftsCount); err != nil {
		return fmt.Errorf("migrations: count memories_fts: %w", err)
	}
	if ftsCount > 0 {
		return nil
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO memories_fts(id, content, summary, tags)
		SELECT id, content, summary, tags FROM memories
	`)
	if err != nil {
		return fmt.Errorf("migrations: backfill memories_fts: %w", err)
	}
	return nil
}
