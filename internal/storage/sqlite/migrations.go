package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cortexmemory/cortex/internal/storage/sqlite/migrations"
)

// migrationSteps runs in order every time a non-read-only store is opened,
// after applySchema. Each step must be safe to run against a database that
// already has the change applied.
var migrationSteps = []func(context.Context, *sql.DB) error{
	migrations.BackfillFTS,
}

// runMigrations applies migrationSteps in order, stopping at the first
// failure.
func runMigrations(ctx context.Context, db *sql.DB) error {
	for _, step := range migrationSteps {
		if err := step(ctx, db); err != nil {
			return fmt.Errorf("sqlite: run migrations: %w", err)
		}
	}
	return nil
}
