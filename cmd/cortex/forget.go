package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cortexmemory/cortex/internal/memory"
)

func newForgetCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "forget <cwd> <idOrQuery>",
		Short: "Archive a memory by id, or list candidates matching a query",
		Args:  cobra.ExactArgs(2),
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

			idOrQuery := args[1]

			if m, scope, err := findByID(st, idOrQuery); err == nil {
				if m.Status == memory.StatusArchived {
					fmt.Printf("%s is already archived\n", m.ID)
					return nil
				}
				if dryRun {
					fmt.Printf("would archive %s (%s): %s\n", m.ID, scope, m.Summary)
					return nil
				}
				store := st.Project
				if scope == memory.ScopeGlobal {
					store = st.Global
				}
				if err := store.UpdateMemoryStatus(rootCtx, m.ID, memory.StatusArchived); err != nil {
					return fail(err)
				}
				fmt.Printf("archived %s: %s\n", m.ID, m.Summary)
				return nil
			}

			// Not an id: keyword search for candidates.
			candidates, err := searchBoth(st, idOrQuery, 10)
			if err != nil {
				return fail(err)
			}
			if len(candidates) == 0 {
				fmt.Println("No matching memories.")
				return nil
			}
			fmt.Println("No memory with that id; candidates:")
			for _, m := range candidates {
				fmt.Printf("  %s  [%s] %s\n", m.ID, m.MemoryType, m.Summary)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print what would be archived without writing")
	return cmd
}

// findByID looks idOrQuery up as a memory id in the project then global
// store.
func findByID(st *stores, id string) (*memory.Memory, memory.Scope, error) {
	if m, err := st.Project.GetMemory(rootCtx, id); err == nil {
		return m, memory.ScopeProject, nil
	}
	m, err := st.Global.GetMemory(rootCtx, id)
	if err != nil {
		return nil, "", err
	}
	return m, memory.ScopeGlobal, nil
}

// searchBoth runs a keyword search over both stores.
func searchBoth(st *stores, query string, limit int) ([]*memory.Memory, error) {
	pm, err := st.Project.SearchMemories(rootCtx, query, limit)
	if err != nil {
		return nil, err
	}
	gm, err := st.Global.SearchMemories(rootCtx, query, limit)
	if err != nil {
		return nil, err
	}
	return append(pm, gm...), nil
}
