package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/memory"
)

// SearchMemories runs a keyword search against memories_fts and returns
// matching active memories in the index's own rank order (best match
// first). query is tokenized on whitespace and each token is wrapped in
// double quotes before being handed to FTS5's MATCH operator, so a query
// like `foo OR bar` is searched for literally rather than being interpreted
// as FTS5 query syntax.
func (s *Store) SearchMemories(ctx context.Context, query string, limit int) ([]*memory.Memory, error) {
	ftsQuery := quoteTokens(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+memoryColumnsPrefixed("m")+`
		FROM memories_fts
		JOIN memories m ON m.id = memories_fts.id
		WHERE memories_fts MATCH ? AND m.status = 'active'
		ORDER BY rank
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: search memories: %w: %v", cortexerr.ErrInternal, err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// quoteTokens splits q on whitespace and wraps each token in double quotes,
// doubling any embedded quote per FTS5 string-literal escaping rules.
func quoteTokens(q string) string {
	fields := strings.Fields(q)
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

// memoryColumnNames lists the memories columns in the same order as
// memoryColumns, for queries that need per-column aliasing.
var memoryColumnNames = []string{
	"id", "content", "summary", "memory_type", "scope", "embedding", "local_embedding",
	"confidence", "priority", "pinned", "source_type", "source_session", "source_context",
	"tags", "access_count", "last_accessed_at", "created_at", "updated_at", "status",
}

// memoryColumnsPrefixed returns memoryColumnNames with each column
// qualified by alias, for queries that join memories against another
// table.
func memoryColumnsPrefixed(alias string) string {
	cols := make([]string, len(memoryColumnNames))
	for i, c := range memoryColumnNames {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}
