package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/cortexmemory/cortex/internal/cache"
	"github.com/cortexmemory/cortex/internal/cortexconfig"
	"github.com/cortexmemory/cortex/internal/gitctx"
	"github.com/cortexmemory/cortex/internal/graphengine"
	"github.com/cortexmemory/cortex/internal/logx"
	"github.com/cortexmemory/cortex/internal/memory"
	"github.com/cortexmemory/cortex/internal/ranking"
	"github.com/cortexmemory/cortex/internal/surface"
)

// Surface token budgets.
const (
	surfaceTokenTarget = 1500
	surfaceTokenCap    = 2000
)

func newGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <cwd>",
		Short: "Render the memory surface, cache it, and write it into the workspace",
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

			branch := gitctx.Derive(rootCtx, e.Cwd).Branch

			body, selected, err := renderSurface(rootCtx, st, e, branch)
			if err != nil {
				return fail(err)
			}

			if err := writeSurfaceFile(e, body); err != nil {
				return fail(err)
			}

			now := time.Now().UTC()
			if err := cache.SaveSurface(e.CacheDir, cache.Cached{
				Surface: body, Branch: branch, Cwd: e.Cwd, GeneratedAt: now,
			}); err != nil {
				logx.Warnf("save surface cache: %v", err)
			}

			if !quietFlag {
				fmt.Printf("surface generated: %d memories, branch %s\n", selected, branch)
			}
			return nil
		},
	}
}

// renderSurface ranks both scopes' active memories, selects under budgets,
// and renders the markdown block. Returns the body and how many memories
// were selected.
func renderSurface(ctx context.Context, st *stores, e *env, branch string) (string, int, error) {
	now := time.Now().UTC()
	halfLife := float64(cortexconfig.GetInt(cortexconfig.KeyRecencyHalfLifeDays))

	var ranked []ranking.Ranked
	for _, s := range []interface {
		ListMemoriesByStatus(ctx context.Context, statuses ...memory.Status) ([]*memory.Memory, error)
		ListEdges(ctx context.Context) ([]*memory.Edge, error)
	}{st.Project, st.Global} {
		active, err := s.ListMemoriesByStatus(ctx, memory.StatusActive)
		if err != nil {
			return "", 0, err
		}
		edges, err := s.ListEdges(ctx)
		if err != nil {
			return "", 0, err
		}
		edgeVals := make([]memory.Edge, len(edges))
		for i, ed := range edges {
			edgeVals[i] = *ed
		}
		graph := graphengine.Build(edgeVals, graphengine.Filter{})
		maxLog := ranking.MaxLogAccessCount(active)

		for _, m := range active {
			ranked = append(ranked, ranking.Ranked{
				Memory: m,
				Rank:   ranking.Rank(m, graph.Centrality(m.ID), maxLog, branch, now, halfLife),
			})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Rank > ranked[j].Rank })

	selected := ranking.SelectForSurface(ranked, lineBudgets(), surfaceTokenTarget, surfaceTokenCap)
	body := surface.Render("Cortex", branch, selected, surface.Staleness{})
	return body, len(selected), nil
}

// lineBudgets reads the per-type line budgets from config.
func lineBudgets() ranking.LineBudgets {
	return ranking.LineBudgets{
		memory.TypeArchitecture:    cortexconfig.GetInt(cortexconfig.KeyLineBudgetArchitecture),
		memory.TypeDecision:        cortexconfig.GetInt(cortexconfig.KeyLineBudgetDecision),
		memory.TypePattern:         cortexconfig.GetInt(cortexconfig.KeyLineBudgetPattern),
		memory.TypeGotcha:          cortexconfig.GetInt(cortexconfig.KeyLineBudgetGotcha),
		memory.TypeContext:         cortexconfig.GetInt(cortexconfig.KeyLineBudgetContext),
		memory.TypeProgress:        cortexconfig.GetInt(cortexconfig.KeyLineBudgetProgress),
		memory.TypeCodeDescription: cortexconfig.GetInt(cortexconfig.KeyLineBudgetCodeDescription),
	}
}
