package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kmori/sentinel-go/internal/report"
	"github.com/kmori/sentinel-go/internal/verdict"
)

const defaultTimeout = 10 * time.Second

// Notifier posts a run summary to a webhook. Failures here are logged by
// the caller, never fatal: the report is already persisted by the time the
// notifier runs.
type Notifier struct {
	url        string
	httpClient *http.Client
}

// New creates a notifier for the given webhook URL.
func New(url string) *Notifier {
	return &Notifier{
		url:        url,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type message struct {
	Text string `json:"text"`
}

// Send posts the summary text. A notifier with an empty URL is a no-op.
func (n *Notifier) Send(ctx context.Context, text string) error {
	if n.url == "" {
		return nil
	}

	payload, err := json.Marshal(message{Text: text})
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// SummaryText renders the run summary as the webhook message body.
func SummaryText(sum report.Summary, vocab verdict.Vocabulary) string {
	return fmt.Sprintf(
		"Commit analysis finished for %s\nModel: %s\nCommits analyzed: %d\n%s: %d | %s: %d | ERROR: %d\nTotal analysis time: %s",
		sum.Repository,
		sum.Model,
		sum.TotalCommits,
		vocab.Positive, sum.VerdictCounts[vocab.Positive],
		vocab.Negative, sum.VerdictCounts[vocab.Negative],
		sum.VerdictCounts[string(verdict.Error)],
		report.FormatDuration(sum.TotalAnalysisSeconds),
	)
}
