// Package gitctx derives the git context an extraction prompt embeds:
// the current branch, a short recent commit log, and a deduplicated,
// sorted union of files touched by recent history plus any staged or
// unstaged changes. It shells out to the git binary (os/exec with cmd.Dir
// set to the target directory) rather than linking a git-plumbing
// library.
package gitctx

import (
	"context"
	"os/exec"
	"sort"
	"strconv"
	"strings"
)

const (
	recentCommitCount = 10
	recentLogWindow   = 20 // commits to scan for the changed-files union
)

// Context is the derived git state for one working directory.
type Context struct {
	Branch  string
	Commits []string // up to recentCommitCount "sha subject" log lines, newest first
	Files   []string // deduplicated, sorted union of changed files
}

// Unknown is the context yielded for a non-git directory.
var Unknown = Context{Branch: "unknown"}

// Derive builds the git context for cwd. It never returns an error: any
// git command failure collapses to Unknown, since a missing or unreadable
// repository is an expected, not exceptional, input to extraction.
func Derive(ctx context.Context, cwd string) Context {
	branch, ok := currentBranch(ctx, cwd)
	if !ok {
		return Unknown
	}

	commits := recentCommits(ctx, cwd, recentCommitCount)

	files := make(map[string]struct{})
	for _, f := range changedFilesFromLog(ctx, cwd, recentLogWindow) {
		files[f] = struct{}{}
	}
	for _, f := range statusFiles(ctx, cwd) {
		files[f] = struct{}{}
	}

	sortedFiles := make([]string, 0, len(files))
	for f := range files {
		sortedFiles = append(sortedFiles, f)
	}
	sort.Strings(sortedFiles)

	return Context{Branch: branch, Commits: commits, Files: sortedFiles}
}

func run(ctx context.Context, cwd string, args ...string) (string, bool) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = cwd
	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	return string(out), true
}

func currentBranch(ctx context.Context, cwd string) (string, bool) {
	out, ok := run(ctx, cwd, "rev-parse", "--abbrev-ref", "HEAD")
	if !ok {
		return "", false
	}
	branch := strings.TrimSpace(out)
	if branch == "" {
		return "", false
	}
	return branch, true
}

func recentCommits(ctx context.Context, cwd string, n int) []string {
	out, ok := run(ctx, cwd, "log", "-n", strconv.Itoa(n), "--format=%h %s")
	if !ok {
		return nil
	}
	return splitNonEmptyLines(out)
}

// changedFilesFromLog returns the union of files touched across the last n
// commits, via --name-only log output.
func changedFilesFromLog(ctx context.Context, cwd string, n int) []string {
	out, ok := run(ctx, cwd, "log", "-n", strconv.Itoa(n), "--name-only", "--format=")
	if !ok {
		return nil
	}
	return splitNonEmptyLines(out)
}

// statusFiles returns the deduplicated set of files with staged or
// unstaged changes, via git status's machine-readable porcelain format.
func statusFiles(ctx context.Context, cwd string) []string {
	out, ok := run(ctx, cwd, "status", "--porcelain=v1")
	if !ok {
		return nil
	}
	var files []string
	for _, line := range splitNonEmptyLines(out) {
		if len(line) < 4 {
			continue
		}
		path := strings.TrimSpace(line[3:])
		if idx := strings.Index(path, " -> "); idx >= 0 {
			path = path[idx+len(" -> "):]
		}
		if path != "" {
			files = append(files, path)
		}
	}
	return files
}

func splitNonEmptyLines(s string) []string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
