package analyzer

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kmori/sentinel-go/internal/git"
	"github.com/kmori/sentinel-go/internal/ollama"
	"github.com/kmori/sentinel-go/internal/prompt"
	"github.com/kmori/sentinel-go/internal/report"
	"github.com/kmori/sentinel-go/internal/verdict"
)

// Generator is the inference call the engine depends on. Satisfied by
// *ollama.Client; tests substitute fakes.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (ollama.GenerateResult, error)
}

var _ Generator = (*ollama.Client)(nil)

// Options configures an analysis run.
type Options struct {
	Model      string
	Vocabulary verdict.Vocabulary
	Debug      bool
	Out        io.Writer // progress output; defaults to stdout
}

// Engine drives the sequential per-commit pipeline: diff retrieval, prompt
// rendering, inference, normalization, and persistence. One commit completes
// fully before the next begins; there is no parallelism by design, to avoid
// overloading a single local endpoint and to keep output ordering stable.
type Engine struct {
	reader   git.RepositoryReader
	renderer prompt.Renderer
	client   Generator
	writer   *report.Writer
	opts     Options
	out      io.Writer
}

// New creates an engine. The model identifier must already be resolved; the
// engine never blocks on interactive input.
func New(reader git.RepositoryReader, renderer prompt.Renderer, client Generator, writer *report.Writer, opts Options) *Engine {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Engine{
		reader:   reader,
		renderer: renderer,
		client:   client,
		writer:   writer,
		opts:     opts,
		out:      out,
	}
}

// Run processes every enumerated commit and returns the final summary.
// Cancellation is honored only at the top of the loop, after the previous
// commit's persist step, so the on-disk report is never left mid-commit.
// Nothing inside the loop aborts the run; only enumeration and report
// persistence failures are fatal.
func (e *Engine) Run(ctx context.Context) (report.Summary, error) {
	fmt.Fprint(e.out, "Fetching commits...")
	commits, err := e.reader.ListCommits(ctx)
	if err != nil {
		fmt.Fprintln(e.out)
		return report.Summary{}, fmt.Errorf("enumerate commits: %w", err)
	}
	fmt.Fprintf(e.out, " found %d commits.\n", len(commits))

	// The commit in flight always completes through its persist step; an
	// interrupt is observed only at the loop top, never by cancelling the
	// diff or inference call underneath a half-processed commit.
	workCtx := context.WithoutCancel(ctx)

	total := len(commits)
	for i, c := range commits {
		if ctx.Err() != nil {
			fmt.Fprintln(e.out, "\nInterrupted; stopping before the next commit.")
			break
		}

		fmt.Fprintf(e.out, "\nProcessing commit %d/%d: %s\n", i+1, total, c.Hash)
		fmt.Fprintf(e.out, "  Author: %s\n", c.Author)
		fmt.Fprintf(e.out, "  Date: %s\n", c.Date)
		fmt.Fprintf(e.out, "  Message: %s\n", truncateLine(c.Subject(), 60))

		res, skipReason := e.analyzeOne(workCtx, c)
		if res == nil {
			fmt.Fprintf(e.out, "  Skipping commit: %s\n", skipReason)
			continue
		}

		if err := e.writer.Record(*res); err != nil {
			return report.Summary{}, err
		}

		paint := report.VerdictColor(res.Verdict, e.opts.Vocabulary)
		fmt.Fprintf(e.out, "  VERDICT: %s\n", paint(string(res.Verdict)))
		if res.Verdict == verdict.Error {
			fmt.Fprintf(e.out, "  ERROR DETAILS: %s\n", res.Reasoning)
		} else if res.Reasoning != "" {
			fmt.Fprintf(e.out, "  REASONING: %s\n", res.Reasoning)
		}
		fmt.Fprintf(e.out, "  ANALYSIS TIME: %s\n", report.FormatDuration(res.AnalysisTimeSeconds))
		fmt.Fprintf(e.out, "  Progress: %d/%d commits analyzed (%.1f%%)\n", i+1, total, float64(i+1)/float64(total)*100)
	}

	return e.writer.Finalize()
}

// analyzeOne runs the pipeline for a single commit. It returns either a
// result to record, or a nil result with the reason the commit was skipped.
func (e *Engine) analyzeOne(ctx context.Context, c git.CommitRecord) (*report.CommitResult, string) {
	diff, err := e.reader.Diff(ctx, c.Hash)
	if err != nil {
		// Recoverable: the commit stays in the report as an ERROR entry.
		return e.errorResult(c, fmt.Sprintf("diff retrieval failed: %v", err), 0, nil), ""
	}

	if !e.reader.TouchesFilters(diff.Files) {
		return nil, "no changed files match the configured filters"
	}

	if diff.Empty() {
		// An empty diff is never sent to the model.
		return e.errorResult(c, "empty diff: nothing to analyze", 0, nil), ""
	}

	rendered := e.renderer.Render(c, diff.Text)
	fmt.Fprintf(e.out, "  Sending to model for analysis (payload size: %d bytes)...", len(rendered))
	if len(rendered) > ollama.PayloadWarnBytes {
		fmt.Fprintf(e.out, "\n  Warning: payload size exceeds %d bytes. This may cause timeouts or hangs.", ollama.PayloadWarnBytes)
	}

	start := time.Now()
	gen, err := e.client.Generate(ctx, e.opts.Model, rendered)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		fmt.Fprintln(e.out)
		return e.errorResult(c, err.Error(), elapsed, gen.Raw), ""
	}
	fmt.Fprintln(e.out, " received response.")

	if e.opts.Debug {
		fmt.Fprintf(e.out, "--- DEBUG: RAW API RESPONSE ---\n%s\n-------------------------------\n", gen.Raw)
	}

	out := verdict.Normalize(gen.Text, e.opts.Vocabulary)
	res := &report.CommitResult{
		Hash:                c.Hash,
		Author:              c.Author,
		Date:                c.Date,
		Message:             c.Message,
		Verdict:             out.Verdict,
		Reasoning:           out.Reasoning,
		AnalysisTimeSeconds: report.RoundSeconds(elapsed),
	}
	if out.Verdict == verdict.Error {
		res.RawResponse = gen.Raw
	}
	return res, ""
}

func (e *Engine) errorResult(c git.CommitRecord, reason string, elapsed float64, raw []byte) *report.CommitResult {
	return &report.CommitResult{
		Hash:                c.Hash,
		Author:              c.Author,
		Date:                c.Date,
		Message:             c.Message,
		Verdict:             verdict.Error,
		Reasoning:           reason,
		AnalysisTimeSeconds: report.RoundSeconds(elapsed),
		RawResponse:         raw,
	}
}

func truncateLine(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
