package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultGenerateURL is the standard local Ollama generate endpoint.
	DefaultGenerateURL = "http://localhost:11434/api/generate"

	// DefaultTimeout bounds a single generate call.
	DefaultTimeout = 120 * time.Second

	// PayloadWarnBytes is the request size above which callers should warn
	// the operator: very large prompts tend to hang local models.
	PayloadWarnBytes = 100_000

	generateSuffix = "/api/generate"
	tagsSuffix     = "/api/tags"

	maxErrBody = 500
)

// TransportError covers connection failures and timeouts talking to the
// inference endpoint. Recoverable at the commit level.
type TransportError struct {
	Err     error
	Timeout bool
	Wait    time.Duration // configured bound, for timeout messages
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("timed out waiting for model response (%s)", e.Wait)
	}
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FormatError covers a response that is not the expected envelope: an HTTP
// error status, an undecodable body, or a missing response field.
type FormatError struct {
	Reason string
	Body   string // truncated response body for diagnostics
}

func (e *FormatError) Error() string {
	if e.Body == "" {
		return e.Reason
	}
	return e.Reason + ": " + e.Body
}

// ModelInfo describes one installed model as reported by the endpoint.
type ModelInfo struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modified_at"`
}

// HumanSize formats the model size for display.
func (m ModelInfo) HumanSize() string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)
	switch {
	case m.Size >= gb:
		return fmt.Sprintf("%.1f GB", float64(m.Size)/gb)
	case m.Size >= mb:
		return fmt.Sprintf("%.1f MB", float64(m.Size)/mb)
	case m.Size > 0:
		return fmt.Sprintf("%.1f KB", float64(m.Size)/kb)
	default:
		return "unknown size"
	}
}

// GenerateResult carries the model's text plus the raw response body for
// debug output and error records.
type GenerateResult struct {
	Text string
	Raw  json.RawMessage
}

// Client is a synchronous, non-streaming client for an Ollama-style
// inference endpoint. It performs no retries; a failed call is the caller's
// decision to downgrade.
type Client struct {
	generateURL string
	timeout     time.Duration
	httpClient  *http.Client
}

// NewClient creates a client for the given generate URL. An empty URL uses
// the default local endpoint; a non-positive timeout uses the default.
func NewClient(generateURL string, timeout time.Duration) *Client {
	if generateURL == "" {
		generateURL = DefaultGenerateURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		generateURL: generateURL,
		timeout:     timeout,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response *string `json:"response"`
}

// Generate sends one blocking generate request and returns the model's
// response text. The full output is returned at once; streaming is off.
func (c *Client) Generate(ctx context.Context, model, prompt string) (GenerateResult, error) {
	payload, err := json.Marshal(generateRequest{Model: model, Prompt: prompt, Stream: false})
	if err != nil {
		return GenerateResult{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.generateURL, bytes.NewReader(payload))
	if err != nil {
		return GenerateResult{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return GenerateResult{}, &TransportError{Err: err, Timeout: isTimeout(err), Wait: c.timeout}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return GenerateResult{}, &TransportError{Err: err, Timeout: isTimeout(err), Wait: c.timeout}
	}

	if resp.StatusCode != http.StatusOK {
		return GenerateResult{}, &FormatError{
			Reason: fmt.Sprintf("HTTP %d", resp.StatusCode),
			Body:   truncate(string(body), maxErrBody),
		}
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return GenerateResult{}, &FormatError{
			Reason: fmt.Sprintf("undecodable response body: %v", err),
			Body:   truncate(string(body), maxErrBody),
		}
	}
	if result.Response == nil {
		return GenerateResult{}, &FormatError{
			Reason: `missing "response" field in API response`,
			Body:   truncate(string(body), maxErrBody),
		}
	}

	return GenerateResult{
		Text: strings.TrimSpace(*result.Response),
		Raw:  json.RawMessage(body),
	}, nil
}

type tagsResponse struct {
	Models []ModelInfo `json:"models"`
}

// Models lists the models installed on the endpoint. Used for discovery and
// interactive selection only, never on the per-commit path.
func (c *Client) Models(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tagsURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err, Timeout: isTimeout(err), Wait: c.timeout}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err, Timeout: isTimeout(err), Wait: c.timeout}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &FormatError{
			Reason: fmt.Sprintf("HTTP %d", resp.StatusCode),
			Body:   truncate(string(body), maxErrBody),
		}
	}

	var result tagsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &FormatError{
			Reason: fmt.Sprintf("undecodable tags response: %v", err),
			Body:   truncate(string(body), maxErrBody),
		}
	}
	return result.Models, nil
}

// tagsURL derives the model-listing URL from the generate URL.
func (c *Client) tagsURL() string {
	base := strings.TrimSuffix(c.generateURL, generateSuffix)
	return strings.TrimRight(base, "/") + tagsSuffix
}

func isTimeout(err error) bool {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
