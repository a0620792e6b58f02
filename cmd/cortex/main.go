// Command cortex is the memory engine's subcommand surface, invoked by
// editor/agent hooks at session boundaries. Each invocation is short-lived
// and stateless in memory; everything durable lives in the per-project and
// per-user databases.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cortexmemory/cortex/internal/logx"
	"github.com/cortexmemory/cortex/internal/obs"
)

// Version and Build are stamped at link time.
var (
	Version = "dev"
	Build   = "unknown"
)

var (
	rootCtx    context.Context
	rootCancel context.CancelFunc

	jsonOutput  bool
	quietFlag   bool
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:           "cortex",
	Short:         "cortex - local-first memory engine for agentic coding sessions",
	Long:          `Cortex captures, stores, ranks, and surfaces knowledge extracted from coding sessions, persisting everything in embedded per-project and per-user databases.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("cortex version %s (%s)\n", Version, Build)
			return
		}
		_ = cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

		logx.SetVerbose(verboseFlag)
		logx.SetQuiet(quietFlag)

		if err := obs.Init(obs.Options{}); err != nil {
			logx.Warnf("telemetry init: %v", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = obs.Shutdown(context.Background())
		if rootCancel != nil {
			rootCancel()
		}
	},
}

func init() {
	rootCmd.Flags().Bool("version", false, "Print version and exit")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")

	rootCmd.AddCommand(
		newExtractCmd(),
		newGenerateCmd(),
		newRecallCmd(),
		newRememberCmd(),
		newIndexCodeCmd(),
		newForgetCmd(),
		newConsolidateCmd(),
		newLifecycleCmd(),
		newTraverseCmd(),
		newInspectCmd(),
		newBackfillCmd(),
		newLoadSurfaceCmd(),
		newDoctorCmd(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[cortex] %v\n", err)
		os.Exit(1)
	}
}
