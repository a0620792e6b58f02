package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cortexmemory/cortex/internal/memory"
	"github.com/cortexmemory/cortex/internal/telemetry"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <cwd>",
		Short: "Print a read-only telemetry snapshot over both databases",
		Args:  cobra.ExactArgs(1),
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

			allStatuses := []memory.Status{
				memory.StatusActive, memory.StatusSuperseded, memory.StatusArchived, memory.StatusPruned,
			}
			projectMemories, err := st.Project.ListMemoriesByStatus(rootCtx, allStatuses...)
			if err != nil {
				return fail(err)
			}
			globalMemories, err := st.Global.ListMemoriesByStatus(rootCtx, allStatuses...)
			if err != nil {
				return fail(err)
			}

			projectEdges, err := st.Project.ListEdges(rootCtx)
			if err != nil {
				return fail(err)
			}
			globalEdges, err := st.Global.ListEdges(rootCtx)
			if err != nil {
				return fail(err)
			}

			snap, err := telemetry.Build(projectMemories, globalMemories,
				len(projectEdges)+len(globalEdges), e.StatusFile, e.CacheDir, time.Now().UTC())
			if err != nil {
				return fail(err)
			}

			out, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return fail(err)
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
