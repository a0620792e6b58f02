package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cortexmemory/cortex/internal/cache"
)

func newLoadSurfaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load-surface <cwd>",
		Short: "Write the cached surface into the workspace, if one exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolveEnv(args[0])
			if err != nil {
				return fail(err)
			}

			cached, staleness, ok := cache.LoadCachedSurface(e.CacheDir, time.Now().UTC())
			if !ok {
				if !quietFlag {
					fmt.Println("no cached surface")
				}
				return nil
			}

			if err := writeSurfaceFile(e, cached.Surface); err != nil {
				return fail(err)
			}

			if !quietFlag {
				if staleness.Stale {
					fmt.Printf("loaded cached surface (stale, %.1fh old)\n", staleness.AgeHours)
				} else {
					fmt.Println("loaded cached surface")
				}
			}
			return nil
		},
	}
}
