package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cortexmemory/cortex/internal/cortexconfig"
	"github.com/cortexmemory/cortex/internal/embedclient"
)

func newBackfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill <cwd>",
		Short: "Fill missing embeddings in both databases",
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

			remote := embedclient.NewRemoteClient(providerKey(), cortexconfig.GetString(cortexconfig.KeyEmbeddingModel), "", "")
			local := embedclient.NewLocalClient()

			for _, s := range []*struct {
				name  string
				store embedclient.Store
			}{
				{"project", st.Project},
				{"global", st.Global},
			} {
				report := embedclient.RunBackfill(rootCtx, s.store, remote, local, e.ProjectName)
				if !report.OK {
					return fail(fmt.Errorf("backfill %s: %s", s.name, report.Error))
				}
				fmt.Printf("%s: processed %d, failed %d (method %s)\n",
					s.name, report.Processed, report.Failed, report.Method)
				for _, msg := range report.Errors {
					fmt.Printf("  error: %s\n", msg)
				}
			}
			return nil
		},
	}
}
