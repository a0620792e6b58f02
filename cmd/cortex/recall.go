package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cortexmemory/cortex/internal/cortexconfig"
	"github.com/cortexmemory/cortex/internal/embedclient"
	"github.com/cortexmemory/cortex/internal/recall"
)

func newRecallCmd() *cobra.Command {
	var (
		branch  string
		limit   int
		keyword bool
	)

	cmd := &cobra.Command{
		Use:   "recall <cwd> <query>",
		Short: "Search memories across project and global scopes",
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

			remote := embedclient.NewRemoteClient(providerKey(), cortexconfig.GetString(cortexconfig.KeyEmbeddingModel), "", "")

			resp, err := recall.Recall(rootCtx, st.Project, st.Global, remote, recall.Options{
				Query:        args[1],
				Branch:       branch,
				Limit:        limit,
				ForceKeyword: keyword,
				ProjectName:  e.ProjectName,
			})
			if err != nil {
				return fail(err)
			}

			if jsonOutput {
				out, err := json.MarshalIndent(resp, "", "  ")
				if err != nil {
					return fail(err)
				}
				fmt.Println(string(out))
				return nil
			}

			printRecallMarkdown(resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&branch, "branch", "", "Only return memories from this branch")
	cmd.Flags().IntVar(&limit, "limit", recall.DefaultLimit, "Maximum number of results")
	cmd.Flags().BoolVar(&keyword, "keyword", false, "Force keyword search even when semantic search is available")
	return cmd
}

// printRecallMarkdown renders results as the ranked markdown list humans
// read.
func printRecallMarkdown(resp *recall.Response) {
	if len(resp.Results) == 0 {
		fmt.Println("No memories found.")
		return
	}
	fmt.Printf("## Recall results (%s)\n\n", resp.Method)
	for i, item := range resp.Results {
		m := item.Memory
		fmt.Printf("%d. **[%s]** %s _(score %.3f)_\n", i+1, m.MemoryType, m.Summary, item.Score)
		if len(m.Tags) > 0 {
			fmt.Printf("   tags: %s\n", strings.Join(m.Tags, ", "))
		}
		for _, code := range item.CodeBlocks {
			fmt.Printf("   code: %s\n", code.Summary)
		}
		if len(item.Related) > 0 {
			var summaries []string
			for _, r := range item.Related {
				summaries = append(summaries, r.Memory.Summary)
			}
			fmt.Printf("   related: %s\n", strings.Join(summaries, "; "))
		}
	}
}
