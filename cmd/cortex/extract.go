package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/cortexmemory/cortex/internal/cache"
	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/extract"
	"github.com/cortexmemory/cortex/internal/extract/anthropicextractor"
	"github.com/cortexmemory/cortex/internal/logx"
	"github.com/cortexmemory/cortex/internal/telemetry"
)

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Extract memories from a session transcript (stop-hook entry point)",
		Long:  `Reads a stop-hook JSON payload ({"session_id", "transcript_path", "cwd"}) from stdin and runs the extraction pipeline. Pipeline failures are reported in the JSON result with a zero exit so session closure is never blocked; only a malformed stdin payload exits non-zero.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readHookInput(cmd.InOrStdin())
			if err != nil {
				return fail(err)
			}

			result := runExtraction(in)

			writeExtractionStatus(in, result)

			out, err := json.Marshal(result)
			if err != nil {
				return fail(fmt.Errorf("marshal result: %w: %v", cortexerr.ErrInternal, err))
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

// readHookInput decodes and validates the stop-hook stdin payload. Any
// shape other than a single JSON object with the three required string
// fields is rejected.
func readHookInput(r io.Reader) (extract.HookInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return extract.HookInput{}, fmt.Errorf("read stdin: %w: %v", cortexerr.ErrInvalidInput, err)
	}

	var in extract.HookInput
	if err := json.Unmarshal(data, &in); err != nil {
		return extract.HookInput{}, fmt.Errorf("stdin is not a JSON object: %w: %v", cortexerr.ErrInvalidInput, err)
	}
	if in.SessionID == "" || in.TranscriptPath == "" || in.Cwd == "" {
		return extract.HookInput{}, fmt.Errorf("stdin requires session_id, transcript_path, and cwd: %w", cortexerr.ErrInvalidInput)
	}
	return in, nil
}

// runExtraction wires the pipeline and runs it. Every failure beyond this
// point is folded into the Result.
func runExtraction(in extract.HookInput) extract.Result {
	e, err := resolveEnv(in.Cwd)
	if err != nil {
		return extract.Result{Success: false, Error: err.Error()}
	}
	st, err := openStores(rootCtx, e, false)
	if err != nil {
		return extract.Result{Success: false, Error: err.Error()}
	}
	defer st.Close()

	extractor, err := anthropicextractor.New(providerKey(), "")
	if err != nil {
		return extract.Result{Success: false, Error: fmt.Sprintf("no extractor available: %v", err)}
	}

	pipeline := &extract.Pipeline{
		Project:     st.Project,
		Global:      st.Global,
		Extractor:   extractor,
		ProjectName: e.ProjectName,
	}
	result := pipeline.Run(rootCtx, in)

	if result.Success && result.Inserted > 0 {
		if err := cache.InvalidateSurfaceCache(e.CacheDir); err != nil {
			logx.Warnf("invalidate surface cache: %v", err)
		}
	}
	return result
}

// writeExtractionStatus best-effort persists the run outcome for inspect.
func writeExtractionStatus(in extract.HookInput, result extract.Result) {
	e, err := resolveEnv(in.Cwd)
	if err != nil {
		return
	}
	status := "success"
	if !result.Success {
		status = "failure"
	}
	le := telemetry.LastExtraction{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Error:     result.Error,
	}
	if err := telemetry.WriteLastExtraction(e.StatusFile, le); err != nil {
		logx.Warnf("write extraction status: %v", err)
	}
}
