package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/memory"
)

// LifecycleUpdate carries one memory's decision-tree outcome for the
// lifecycle sweep to apply. Nil fields mean "don't touch" that part of the
// memory's row.
type LifecycleUpdate struct {
	MemoryID string

	NewConfidence *float64
	NewStatus     *memory.Status
}

// ApplyLifecycleSweep writes every update from one lifecycle pass in a
// single transaction, so a failed sweep leaves the database in its
// pre-sweep state.
func (s *Store) ApplyLifecycleSweep(ctx context.Context, updates []LifecycleUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return s.withImmediateTx(ctx, func(conn *sql.Conn) error {
		now := time.Now().UTC().Format(timeLayout)
		for _, u := range updates {
			if u.NewConfidence != nil {
				if _, err := conn.ExecContext(ctx, `UPDATE memories SET confidence = ?, updated_at = ? WHERE id = ?`,
					*u.NewConfidence, now, u.MemoryID); err != nil {
					return fmt.Errorf("sqlite: lifecycle update confidence %s: %w: %v", u.MemoryID, cortexerr.ErrInternal, err)
				}
			}
			if u.NewStatus != nil {
				if _, err := conn.ExecContext(ctx, `UPDATE memories SET status = ?, updated_at = ? WHERE id = ?`,
					string(*u.NewStatus), now, u.MemoryID); err != nil {
					return fmt.Errorf("sqlite: lifecycle update status %s: %w: %v", u.MemoryID, cortexerr.ErrInternal, err)
				}
			}
		}
		return nil
	})
}
