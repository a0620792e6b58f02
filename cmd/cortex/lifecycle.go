package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cortexmemory/cortex/internal/lifecycle"
)

func newLifecycleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lifecycle <cwd>",
		Short: "Run the decay/archive/prune sweep over both databases",
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

			now := time.Now().UTC()

			projectReport, err := lifecycle.Sweep(rootCtx, st.Project, now)
			if err != nil {
				return fail(err)
			}
			globalReport, err := lifecycle.Sweep(rootCtx, st.Global, now)
			if err != nil {
				return fail(err)
			}

			fmt.Printf("project: decayed %d, archived %d, pruned %d\n",
				projectReport.Decayed, projectReport.Archived, projectReport.Pruned)
			fmt.Printf("global:  decayed %d, archived %d, pruned %d\n",
				globalReport.Decayed, globalReport.Archived, globalReport.Pruned)
			return nil
		},
	}
}
