package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cortexmemory/cortex/internal/consolidate"
	"github.com/cortexmemory/cortex/internal/cortexconfig"
	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/memory"
)

func newConsolidateCmd() *cobra.Command {
	var (
		threshold     float64
		mergeA        string
		mergeB        string
		mergedSummary string
		mergedContent string
	)

	cmd := &cobra.Command{
		Use:   "consolidate <cwd>",
		Short: "Detect duplicate memory pairs, or merge an approved pair",
		Long:  `Without merge flags, runs read-only duplicate detection over both databases and prints pair counts. With --merge-a/--merge-b plus --summary and --content, performs the approved merge: the merged memory supersedes both predecessors.`,
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

			if mergeA != "" || mergeB != "" {
				return runApprovedMerge(st, mergeA, mergeB, mergedSummary, mergedContent)
			}

			opts := consolidate.Options{
				Threshold: threshold,
				MaxPasses: cortexconfig.GetInt(cortexconfig.KeyMaxConsolidatePasses),
			}

			var total consolidate.Report
			for _, s := range []*struct {
				name  string
				store consolidate.Store
			}{
				{"project", st.Project},
				{"global", st.Global},
			} {
				report, err := consolidate.ExecuteConsolidate(rootCtx, s.store, opts)
				if err != nil {
					return fail(err)
				}
				total.PairsFound += report.PairsFound
				total.PairsMerged += report.PairsMerged
				total.PairsSkipped += report.PairsSkipped
			}

			fmt.Printf("pairs found: %d, merged: %d, skipped: %d\n",
				total.PairsFound, total.PairsMerged, total.PairsSkipped)
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", consolidate.DefaultThreshold, "Similarity threshold for duplicate detection")
	cmd.Flags().StringVar(&mergeA, "merge-a", "", "First memory id of an approved merge pair")
	cmd.Flags().StringVar(&mergeB, "merge-b", "", "Second memory id of an approved merge pair")
	cmd.Flags().StringVar(&mergedSummary, "summary", "", "Summary for the merged memory")
	cmd.Flags().StringVar(&mergedContent, "content", "", "Content for the merged memory")
	return cmd
}

// runApprovedMerge executes one human-approved merge. Both memories must
// live in the same scope database.
func runApprovedMerge(st *stores, idA, idB, summary, content string) error {
	if idA == "" || idB == "" || summary == "" || content == "" {
		return fail(fmt.Errorf("merge requires --merge-a, --merge-b, --summary, and --content: %w", cortexerr.ErrInvalidInput))
	}

	a, scopeA, err := findByID(st, idA)
	if err != nil {
		return fail(err)
	}
	b, scopeB, err := findByID(st, idB)
	if err != nil {
		return fail(err)
	}
	if scopeA != scopeB {
		return fail(fmt.Errorf("cannot merge across scopes (%s vs %s): %w", scopeA, scopeB, cortexerr.ErrInvalidInput))
	}

	store := st.Project
	if scopeA == memory.ScopeGlobal {
		store = st.Global
	}

	merged, err := consolidate.MergePair(rootCtx, store, consolidate.Pair{A: a, B: b},
		summary, content, "consolidate")
	if err != nil {
		return fail(err)
	}

	fmt.Printf("merged %s + %s -> %s\n", idA, idB, merged.ID)
	return nil
}
