// Package storage holds concerns shared across storage backends: the
// SQLite connection-string builder and scope routing. The concrete
// SQLite implementation lives in the sqlite subpackage.
package storage

import "github.com/cortexmemory/cortex/internal/memory"

// RouteScope picks the store matching scope out of the two open database
// handles a command holds. S is typically *sqlite.Store; callers pass their own
// concrete type.
func RouteScope[S any](scope memory.Scope, project, global S) S {
	if scope == memory.ScopeGlobal {
		return global
	}
	return project
}
