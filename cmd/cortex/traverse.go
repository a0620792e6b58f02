package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/recall"
)

func newTraverseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "traverse <cwd> <memoryId> [maxDepth]",
		Short: "Walk the memory graph outward from a starting memory",
		Args:  cobra.RangeArgs(2, 3),
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

			opts := recall.TraverseOptions{}
			if len(args) == 3 {
				depth, err := strconv.Atoi(args[2])
				if err != nil {
					return fail(fmt.Errorf("maxDepth %q is not an integer: %w", args[2], cortexerr.ErrInvalidInput))
				}
				opts.MaxDepth = depth
			}

			startID := args[1]
			resp, err := recall.Traverse(rootCtx, st.Project, startID, opts)
			if notFound(err) {
				resp, err = recall.Traverse(rootCtx, st.Global, startID, opts)
			}
			if err != nil {
				return fail(err)
			}

			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return fail(err)
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
