package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/logx"
	"github.com/cortexmemory/cortex/internal/memory"
)

func newIndexCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index-code <cwd> <proseId> <codePath>",
		Short: "Attach a code memory to a prose description, superseding any prior code memory for the file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolveEnv(args[0])
			if err != nil {
				return fail(err)
			}
			st, err := openStores(rootCtx, e, false)
			if err != nil {
				return fail(err)
			}
			defer st.Close()

			proseID, codePath := args[1], args[2]

			prose, err := st.Project.GetMemory(rootCtx, proseID)
			if err != nil {
				return fail(err)
			}

			absPath := codePath
			if !filepath.IsAbs(absPath) {
				absPath = filepath.Join(e.Cwd, codePath)
			}
			code, err := os.ReadFile(absPath)
			if err != nil {
				return fail(fmt.Errorf("read %s: %w: %v", codePath, cortexerr.ErrInvalidInput, err))
			}

			relPath, err := filepath.Rel(e.Cwd, absPath)
			if err != nil {
				relPath = codePath
			}
			lineCount := strings.Count(string(code), "\n") + 1

			sc := memory.NewCodeIndexSourceContext(relPath, 1, lineCount)
			scJSON, err := sc.Encode()
			if err != nil {
				return fail(err)
			}

			codeMem, err := memory.New(memory.NewParams{
				ID:            uuid.NewString(),
				Content:       string(code),
				Summary:       fmt.Sprintf("Code: %s", relPath),
				MemoryType:    memory.TypeCode,
				Scope:         memory.ScopeProject,
				Confidence:    1.0,
				Priority:      prose.Priority,
				SourceType:    memory.SourceCodeIndex,
				SourceSession: prose.SourceSession,
				SourceContext: scJSON,
			})
			if err != nil {
				return fail(err)
			}

			if err := st.Project.InsertMemory(rootCtx, codeMem); err != nil {
				return fail(err)
			}

			edge, err := memory.NewEdge(memory.NewEdgeParams{
				ID:       uuid.NewString(),
				SourceID: prose.ID,
				TargetID: codeMem.ID,
				Relation: memory.RelationSourceOf,
				Strength: 1.0,
				Status:   memory.EdgeStatusActive,
			})
			if err != nil {
				return fail(err)
			}
			if err := st.Project.InsertEdge(rootCtx, edge); err != nil {
				return fail(err)
			}

			superseded := supersedePriorCodeFor(st, relPath, codeMem.ID)

			if !quietFlag {
				fmt.Printf("indexed %s -> %s (%d prior superseded)\n", prose.ID, codeMem.ID, superseded)
			}
			return nil
		},
	}
}

// supersedePriorCodeFor transitions any other active code memory for the
// same file to superseded and records a supersedes edge from the new
// memory. Best-effort per row.
func supersedePriorCodeFor(st *stores, filePath, newID string) int {
	active, err := st.Project.ListMemoriesByStatus(rootCtx, memory.StatusActive)
	if err != nil {
		logx.Warnf("index-code: list active memories: %v", err)
		return 0
	}

	count := 0
	for _, m := range active {
		if m.ID == newID || m.MemoryType != memory.TypeCode {
			continue
		}
		if memory.DecodeSourceContext(m.SourceContext).FilePath != filePath {
			continue
		}
		edge, err := memory.NewEdge(memory.NewEdgeParams{
			ID:       uuid.NewString(),
			SourceID: newID,
			TargetID: m.ID,
			Relation: memory.RelationSupersedes,
			Strength: 1.0,
			Status:   memory.EdgeStatusActive,
		})
		if err == nil {
			if err := st.Project.InsertEdge(rootCtx, edge); err != nil {
				logx.Warnf("index-code: supersedes edge for %s: %v", m.ID, err)
			}
		}
		if err := st.Project.UpdateMemoryStatus(rootCtx, m.ID, memory.StatusSuperseded); err != nil {
			logx.Warnf("index-code: supersede %s: %v", m.ID, err)
			continue
		}
		count++
	}
	return count
}
