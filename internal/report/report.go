package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/kmori/sentinel-go/internal/verdict"
)

// CommitResult is the persisted record for one analyzed commit.
type CommitResult struct {
	Hash                string          `json:"hash"`
	Author              string          `json:"author"`
	Date                string          `json:"date"`
	Message             string          `json:"message"`
	Verdict             verdict.Verdict `json:"verdict"`
	Reasoning           string          `json:"reasoning"`
	AnalysisTimeSeconds float64         `json:"analysis_time_seconds"`
	RawResponse         json.RawMessage `json:"raw_response,omitempty"`
}

// Summary aggregates a whole run. Computed from the recorded results; the
// per-verdict counts always carry the two vocabulary words and ERROR, even
// when zero.
type Summary struct {
	Repository             string         `json:"repository"`
	Model                  string         `json:"model"`
	PromptSource           string         `json:"prompt_source"`
	Since                  string         `json:"since,omitempty"`
	Until                  string         `json:"until,omitempty"`
	GeneratedAt            string         `json:"generated_at"`
	TotalCommits           int            `json:"total_commits"`
	VerdictCounts          map[string]int `json:"verdict_counts"`
	TotalAnalysisSeconds   float64        `json:"total_analysis_seconds"`
	AverageAnalysisSeconds float64        `json:"average_analysis_seconds"`
}

// Report is the root persisted artifact.
type Report struct {
	Summary Summary        `json:"analysis_summary"`
	Commits []CommitResult `json:"commits"`
}

// Meta is the run-level context baked into every save.
type Meta struct {
	Repository   string
	Model        string
	PromptSource string
	Since        string
	Until        string
	Vocabulary   verdict.Vocabulary
}

// Writer accumulates commit results and rewrites the report file after
// every record, so an interrupted run still leaves a valid report covering
// everything processed so far. Single writer; append-only in memory.
type Writer struct {
	path    string
	meta    Meta
	now     func() time.Time
	results []CommitResult
}

// NewWriter creates a report writer targeting path.
func NewWriter(path string, meta Meta) *Writer {
	return &Writer{path: path, meta: meta, now: time.Now}
}

// Record appends one result and immediately persists the whole report.
// Prior entries are never mutated.
func (w *Writer) Record(res CommitResult) error {
	w.results = append(w.results, res)
	return w.save()
}

// Results returns the recorded results in processing order.
func (w *Writer) Results() []CommitResult {
	return w.results
}

// Finalize computes the run summary and performs the final write. With zero
// commits it writes an all-zero summary and an empty commit list.
func (w *Writer) Finalize() (Summary, error) {
	if err := w.save(); err != nil {
		return Summary{}, err
	}
	return w.summary(), nil
}

func (w *Writer) summary() Summary {
	counts := map[string]int{
		w.meta.Vocabulary.Positive: 0,
		w.meta.Vocabulary.Negative: 0,
		string(verdict.Error):      0,
	}
	total := 0.0
	for _, r := range w.results {
		counts[string(r.Verdict)]++
		total += r.AnalysisTimeSeconds
	}

	avg := 0.0
	if len(w.results) > 0 {
		avg = total / float64(len(w.results))
	}

	return Summary{
		Repository:             w.meta.Repository,
		Model:                  w.meta.Model,
		PromptSource:           w.meta.PromptSource,
		Since:                  w.meta.Since,
		Until:                  w.meta.Until,
		GeneratedAt:            w.now().Format(time.RFC3339),
		TotalCommits:           len(w.results),
		VerdictCounts:          counts,
		TotalAnalysisSeconds:   RoundSeconds(total),
		AverageAnalysisSeconds: RoundSeconds(avg),
	}
}

// save rewrites the report file wholesale.
func (w *Writer) save() error {
	rep := Report{Summary: w.summary(), Commits: w.results}
	if rep.Commits == nil {
		rep.Commits = []CommitResult{}
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(w.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RoundSeconds rounds elapsed seconds to two decimals for persistence.
func RoundSeconds(s float64) float64 {
	return math.Round(s*100) / 100
}
