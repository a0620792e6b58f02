package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/cortexmemory/cortex/internal/cortexerr"
)

// CreateCheckpoint snapshots the database to a sibling file at path via
// VACUUM INTO, which is atomic with respect to concurrent readers/writers.
// path must not contain a single quote — VACUUM INTO takes
// its target as a string literal and sqlite offers no bind-parameter form
// for it.
func (s *Store) CreateCheckpoint(ctx context.Context, path string) error {
	if err := rejectQuotedPath(path); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`VACUUM INTO '%s'`, path))
	if err != nil {
		return fmt.Errorf("sqlite: create checkpoint at %s: %w: %v", path, cortexerr.ErrInternal, err)
	}
	return nil
}

// RestoreCheckpoint overwrites every allowlisted table's rows with the
// contents of the database at path. It attaches path as a second database,
// then for each table in AllowlistedTables deletes the main database's rows
// and copies across from the attached one, before detaching. Table names are taken only from the hard-coded allowlist and
// quoted as identifiers, never interpolated from caller input.
func (s *Store) RestoreCheckpoint(ctx context.Context, path string) error {
	if err := rejectQuotedPath(path); err != nil {
		return err
	}

	const attachName = "restore_src"

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`ATTACH DATABASE '%s' AS %s`, path, attachName))
	if err != nil {
		return fmt.Errorf("sqlite: attach %s for restore: %w: %v", path, cortexerr.ErrInternal, err)
	}
	defer s.db.ExecContext(context.Background(), `DETACH DATABASE `+attachName)

	for _, table := range AllowlistedTables {
		quoted := quoteIdentifier(table)
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+quoted); err != nil {
			return fmt.Errorf("sqlite: restore: clear %s: %w: %v", table, cortexerr.ErrInternal, err)
		}
		srcTable := attachName + "." + quoted
		if _, err := s.db.ExecContext(ctx, `INSERT INTO `+quoted+` SELECT * FROM `+srcTable); err != nil {
			return fmt.Errorf("sqlite: restore: copy %s: %w: %v", table, cortexerr.ErrInternal, err)
		}
	}

	return nil
}

func rejectQuotedPath(path string) error {
	if strings.Contains(path, "'") {
		return fmt.Errorf("checkpoint path %q must not contain a single quote: %w", path, cortexerr.ErrInvalidInput)
	}
	return nil
}

// quoteIdentifier wraps name in double quotes for use as a SQL identifier.
// Safe here only because callers pass names exclusively from
// AllowlistedTables.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
