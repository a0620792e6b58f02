package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/storage"
)

// Store wraps a single embedded SQLite database (one scope: project or
// global).
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if absent) the SQLite database at path and applies
// the schema. readOnly connections skip schema application, since a
// read-only connection can't create tables and is expected to be opened
// against a database another writer already initialized.
func Open(ctx context.Context, path string, readOnly bool) (*Store, error) {
	conn := storage.SQLiteConnString(path, readOnly)
	db, err := sql.Open("sqlite3", conn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w: %v", path, cortexerr.ErrInternal, err)
	}
	if !readOnly {
		if err := applySchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		if err := runMigrations(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Store{db: db, path: path}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the filesystem path this store was opened against.
func (s *Store) Path() string { return s.path }

// DB exposes the underlying *sql.DB for callers (e.g. checkpoint/restore)
// that need raw access.
func (s *Store) DB() *sql.DB { return s.db }

// immediateRetryMaxElapsed bounds how long beginImmediateWithRetry keeps
// retrying SQLITE_BUSY before giving up.
const immediateRetryMaxElapsed = 30 * time.Second

// withImmediateTx runs fn inside a BEGIN IMMEDIATE transaction on a
// dedicated connection. database/sql's BeginTx can't express IMMEDIATE
// mode with this driver, so the transaction is driven with raw
// BEGIN/COMMIT/ROLLBACK statements on a connection checked out of the
// pool for the duration.
func (s *Store) withImmediateTx(ctx context.Context, fn func(*sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("sqlite: acquire connection: %w: %v", cortexerr.ErrInternal, err)
	}
	defer conn.Close()

	if err := beginImmediateWithRetry(ctx, conn); err != nil {
		return fmt.Errorf("sqlite: begin immediate: %w: %v", cortexerr.ErrInternal, err)
	}

	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	if err := fn(conn); err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("sqlite: commit: %w: %v", cortexerr.ErrInternal, err)
	}
	committed = true
	return nil
}

// beginImmediateWithRetry issues BEGIN IMMEDIATE, retrying on SQLITE_BUSY
// with exponential backoff. busy_timeout alone (set via the connection
// string) is usually sufficient, but a second IMMEDIATE transaction
// starting at the same instant as this one's busy_timeout window can still
// collide; the retry absorbs that race.
func beginImmediateWithRetry(ctx context.Context, conn *sql.Conn) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = immediateRetryMaxElapsed

	return backoff.Retry(func() error {
		_, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE")
		if err == nil {
			return nil
		}
		if isBusyError(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))
}

// isBusyError reports whether err is SQLite's "database is locked"/busy
// condition, worth retrying rather than failing immediately.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED")
}
