package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cortexmemory/cortex/internal/gitctx"
	"github.com/cortexmemory/cortex/internal/memory"
	"github.com/cortexmemory/cortex/internal/storage"
)

// summaryMaxLen caps the summary derived from remembered content.
const summaryMaxLen = 200

func newRememberCmd() *cobra.Command {
	var (
		memType  string
		priority int
		scope    string
		pinned   bool
		tags     string
	)

	cmd := &cobra.Command{
		Use:   "remember <cwd> <content>",
		Short: "Explicitly insert a memory (confidence 1.0)",
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

			branch := gitctx.Derive(rootCtx, e.Cwd).Branch
			sc := memory.SourceContext{Branch: branch}
			scJSON, err := sc.Encode()
			if err != nil {
				return fail(err)
			}

			var tagList []string
			if tags != "" {
				for _, t := range strings.Split(tags, ",") {
					if t = strings.TrimSpace(t); t != "" {
						tagList = append(tagList, t)
					}
				}
			}

			content := args[1]
			m, err := memory.New(memory.NewParams{
				ID:            uuid.NewString(),
				Content:       content,
				Summary:       deriveSummary(content),
				MemoryType:    memory.Type(memType),
				Scope:         memory.Scope(scope),
				Confidence:    1.0,
				Priority:      priority,
				Pinned:        pinned,
				SourceType:    memory.SourceManual,
				SourceSession: "manual",
				SourceContext: scJSON,
				Tags:          tagList,
			})
			if err != nil {
				return fail(err)
			}

			store := storage.RouteScope(m.Scope, st.Project, st.Global)
			if err := store.InsertMemory(rootCtx, m); err != nil {
				return fail(err)
			}

			if !quietFlag {
				fmt.Printf("remembered %s (%s, %s)\n", m.ID, m.MemoryType, m.Scope)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&memType, "type", string(memory.TypeContext), "Memory type")
	cmd.Flags().IntVar(&priority, "priority", 5, "Priority [1,10]")
	cmd.Flags().StringVar(&scope, "scope", string(memory.ScopeProject), "Scope (project or global)")
	cmd.Flags().BoolVar(&pinned, "pinned", false, "Pin the memory (never decays)")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags")
	return cmd
}

// deriveSummary takes the first line of content, truncated to a readable
// length.
func deriveSummary(content string) string {
	line := content
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if len(line) > summaryMaxLen {
		line = line[:summaryMaxLen-1] + "…"
	}
	return line
}
