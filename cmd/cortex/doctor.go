package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cortexmemory/cortex/internal/fslock"
	"github.com/cortexmemory/cortex/internal/memory"
	"github.com/cortexmemory/cortex/internal/storage/sqlite"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor <cwd>",
		Short: "Read-only health check over both databases and the lock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolveEnv(args[0])
			if err != nil {
				return fail(err)
			}

			healthy := true
			for _, db := range []struct {
				name string
				path string
			}{
				{"project", e.ProjectDB},
				{"global", e.GlobalDB},
			} {
				if _, err := os.Stat(db.path); os.IsNotExist(err) {
					fmt.Printf("%s: no database at %s\n", db.name, db.path)
					continue
				}
				if !checkDatabase(db.name, db.path) {
					healthy = false
				}
			}

			checkLock(e.LockPath)

			if !healthy {
				return fail(fmt.Errorf("health check found problems"))
			}
			fmt.Println("ok")
			return nil
		},
	}
}

// checkDatabase opens path read-only and reports foreign-key violations
// and embedding rows whose BLOB doesn't decode to the expected dimension.
func checkDatabase(name, path string) bool {
	store, err := sqlite.Open(rootCtx, path, true)
	if err != nil {
		fmt.Printf("%s: open failed: %v\n", name, err)
		return false
	}
	defer store.Close()

	healthy := true

	rows, err := store.DB().QueryContext(rootCtx, `PRAGMA foreign_key_check`)
	if err != nil {
		fmt.Printf("%s: foreign_key_check failed: %v\n", name, err)
		healthy = false
	} else {
		violations := 0
		for rows.Next() {
			violations++
		}
		rows.Close()
		if violations > 0 {
			fmt.Printf("%s: %d foreign key violations\n", name, violations)
			healthy = false
		}
	}

	dangling := countDanglingEmbeddings(store)
	if dangling > 0 {
		fmt.Printf("%s: %d memories with undecodable embeddings\n", name, dangling)
		healthy = false
	}

	if healthy {
		fmt.Printf("%s: ok\n", name)
	}
	return healthy
}

// countDanglingEmbeddings counts rows whose embedding column is non-null
// but decodes to the wrong dimension.
func countDanglingEmbeddings(store *sqlite.Store) int {
	all, err := store.ListMemoriesByStatus(rootCtx,
		memory.StatusActive, memory.StatusSuperseded, memory.StatusArchived, memory.StatusPruned)
	if err != nil {
		return 0
	}
	dangling := 0
	for _, m := range all {
		if m.RemoteEmbedding != nil && len(m.RemoteEmbedding) != memory.RemoteEmbeddingDim {
			dangling++
			continue
		}
		if m.LocalEmbedding != nil && len(m.LocalEmbedding) != memory.LocalEmbeddingDim {
			dangling++
		}
	}
	return dangling
}

// checkLock prints the pid and start time recorded in the surface lock
// file. It does not check whether that process is still running, and it
// prints nothing when no lock file can be read.
func checkLock(lockPath string) {
	info, err := fslock.ReadInfo(lockPath)
	if err != nil {
		return
	}
	fmt.Printf("surface lock held by pid %d (since %s)\n", info.PID, info.StartedAt.Format("2006-01-02 15:04:05"))
}
