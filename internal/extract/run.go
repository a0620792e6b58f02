package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/gitctx"
	"github.com/cortexmemory/cortex/internal/lifecycle"
	"github.com/cortexmemory/cortex/internal/logx"
	"github.com/cortexmemory/cortex/internal/memory"
)

const (
	contextCommitLimit = 3
	contextFileLimit   = 10
)

// Store is the storage surface the pipeline writes through. *sqlite.Store
// satisfies it.
type Store interface {
	GetCheckpoint(ctx context.Context, sessionID string) (*memory.ExtractionCheckpoint, error)
	UpsertCheckpoint(ctx context.Context, c *memory.ExtractionCheckpoint) error
	ListMemoriesByStatus(ctx context.Context, statuses ...memory.Status) ([]*memory.Memory, error)
	InsertMemory(ctx context.Context, m *memory.Memory) error
	InsertEdge(ctx context.Context, e *memory.Edge) error

	lifecycle.Store
}

// HookInput is the stop-hook payload the extract command reads from stdin.
type HookInput struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	Cwd            string `json:"cwd"`
}

// Pipeline wires one extraction run: both scope stores, the external
// extractor, and the project identity used in prompts and embedding text.
type Pipeline struct {
	Project     Store
	Global      Store
	Extractor   Extractor
	ProjectName string
	ParseOpts   ParseOptions
}

// Run executes the full session-end pipeline. It never returns an error:
// every failure mode is folded into the Result so the invoking hook is
// never blocked by a panic or propagated exception.
func (p *Pipeline) Run(ctx context.Context, in HookInput) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Success: false, Error: fmt.Sprintf("extraction panic: %v", r)}
		}
	}()

	if in.SessionID == "" || in.TranscriptPath == "" || in.Cwd == "" {
		return Result{Success: false, Error: "hook input requires session_id, transcript_path, and cwd"}
	}

	transcript, err := os.ReadFile(in.TranscriptPath)
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("read transcript: %v", err)}
	}

	var cursor int64
	if cp, err := p.Project.GetCheckpoint(ctx, in.SessionID); err == nil {
		cursor = cp.CursorPosition
	} else if !errors.Is(err, cortexerr.ErrNotFound) {
		return Result{Success: false, Error: fmt.Sprintf("read checkpoint: %v", err)}
	}

	window, nextCursor := Window(transcript, cursor)
	if window == "" {
		result = Result{Success: true}
		result.LifecycleError = p.runLifecycle(ctx)
		return result
	}

	git := gitctx.Derive(ctx, in.Cwd)
	prompt := BuildPrompt(PromptInput{ProjectName: p.ProjectName, Window: window, Git: git})

	response, err := p.Extractor.Extract(ctx, prompt)
	if err != nil {
		// Skip the failed chunk rather than retrying it on every future
		// session close.
		p.saveCheckpoint(ctx, in.SessionID, nextCursor)
		return Result{Success: false, Error: fmt.Sprintf("extractor: %v", err)}
	}

	candidates, dropped, err := ParseResponse(response, p.ParseOpts)
	if err != nil {
		p.saveCheckpoint(ctx, in.SessionID, nextCursor)
		return Result{Success: false, Error: fmt.Sprintf("parse response: %v", err)}
	}

	projectExisting, err := p.Project.ListMemoriesByStatus(ctx, memory.StatusActive)
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("list project memories: %v", err)}
	}
	globalExisting, err := p.Global.ListMemoriesByStatus(ctx, memory.StatusActive)
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("list global memories: %v", err)}
	}
	allExisting := append(append([]*memory.Memory{}, projectExisting...), globalExisting...)

	kept, skipped := DeduplicateCandidates(candidates, allExisting)

	result = Result{
		Success:           true,
		CandidatesFound:   len(candidates) + dropped,
		CandidatesDropped: dropped,
		DuplicatesSkipped: skipped,
	}

	sc := memory.NewExtractionSourceContext(
		git.Branch, head(git.Commits, contextCommitLimit), head(git.Files, contextFileLimit), in.SessionID)
	scJSON, err := sc.Encode()
	if err != nil {
		scJSON = ""
	}

	for _, c := range kept {
		m, err := memory.New(memory.NewParams{
			ID:            uuid.NewString(),
			Content:       c.Content,
			Summary:       c.Summary,
			MemoryType:    memory.Type(c.MemoryType),
			Scope:         memory.Scope(c.Scope),
			Confidence:    c.Confidence,
			Priority:      c.Priority,
			SourceType:    memory.SourceExtraction,
			SourceSession: in.SessionID,
			SourceContext: scJSON,
			Tags:          c.Tags,
		})
		if err != nil {
			logx.Warnf("extract: candidate failed validation: %v", err)
			result.InsertFailures++
			continue
		}

		store := p.Project
		existing := projectExisting
		if m.Scope == memory.ScopeGlobal {
			store = p.Global
			existing = globalExisting
		}

		if err := store.InsertMemory(ctx, m); err != nil {
			logx.Warnf("extract: insert memory %s: %v", m.ID, err)
			result.InsertFailures++
			continue
		}
		result.Inserted++

		result.EdgesCreated += p.createEdges(ctx, store, m, existing)
	}

	p.saveCheckpoint(ctx, in.SessionID, nextCursor)

	result.LifecycleError = p.runLifecycle(ctx)
	return result
}

// createEdges inserts every edge PlanEdges proposes between m and the
// pre-batch existing set, swallowing duplicate-unique violations and
// logging (but not failing on) any other insert error.
func (p *Pipeline) createEdges(ctx context.Context, store Store, m *memory.Memory, existing []*memory.Memory) int {
	created := 0
	for _, plan := range PlanEdges(m, existing) {
		if !plan.Create {
			continue
		}
		e, err := memory.NewEdge(memory.NewEdgeParams{
			ID:            uuid.NewString(),
			SourceID:      m.ID,
			TargetID:      plan.TargetID,
			Relation:      plan.Relation,
			Strength:      plan.Strength,
			Bidirectional: plan.Bidirectional,
			Status:        plan.Status,
		})
		if err != nil {
			logx.Warnf("extract: build edge %s->%s: %v", m.ID, plan.TargetID, err)
			continue
		}
		if err := store.InsertEdge(ctx, e); err != nil {
			if !errors.Is(err, cortexerr.ErrDuplicateEdge) {
				logx.Warnf("extract: insert edge %s->%s: %v", m.ID, plan.TargetID, err)
			}
			continue
		}
		created++
	}
	return created
}

// saveCheckpoint best-effort persists the cursor; a checkpoint write
// failure is logged, never fatal, since the worst case is re-extracting a
// window next session and dedup absorbing the repeats.
func (p *Pipeline) saveCheckpoint(ctx context.Context, sessionID string, cursor int64) {
	cp, err := memory.NewExtractionCheckpoint(memory.NewExtractionCheckpointParams{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		CursorPosition: cursor,
	})
	if err != nil {
		logx.Warnf("extract: build checkpoint: %v", err)
		return
	}
	if err := p.Project.UpsertCheckpoint(ctx, cp); err != nil {
		logx.Warnf("extract: save checkpoint: %v", err)
	}
}

// runLifecycle sweeps both stores; errors are reported in the Result but
// never fail extraction.
func (p *Pipeline) runLifecycle(ctx context.Context) string {
	now := time.Now().UTC()
	var msgs []string
	if _, err := lifecycle.Sweep(ctx, p.Project, now); err != nil {
		msgs = append(msgs, fmt.Sprintf("project sweep: %v", err))
	}
	if _, err := lifecycle.Sweep(ctx, p.Global, now); err != nil {
		msgs = append(msgs, fmt.Sprintf("global sweep: %v", err))
	}
	if len(msgs) == 0 {
		return ""
	}
	msg := msgs[0]
	for _, m := range msgs[1:] {
		msg += "; " + m
	}
	logx.Warnf("extract: lifecycle: %s", msg)
	return msg
}

func head(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
