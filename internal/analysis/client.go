// ABOUTME: HTTP client for the external market analysis service.
// ABOUTME: One POST to <base>/analyze per call; normalizes failures into error kinds.

package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultTimeout = 60 * time.Second

// errorBodyLimit caps how much of an upstream error body gets drained.
const errorBodyLimit = 4096

// Client performs outbound calls to the analysis service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an analysis client for the given base URL.
// An empty base URL is allowed at construction time; it surfaces as a
// TransportError on the first Analyze call, not as a startup failure.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "analysis"),
	}
}

// Analyze issues exactly one request to the analysis service and returns
// the decoded document. Non-success statuses become UpstreamError;
// network failures become TransportError. Neither is retried here.
func (c *Client) Analyze(ctx context.Context, req *Request) (Result, error) {
	if c.baseURL == "" {
		return nil, &TransportError{Err: errors.New("analysis base URL not configured")}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("analysis request failed", "error", err, "asset", req.Asset)
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a bounded amount so the connection can be reused.
		io.CopyN(io.Discard, resp.Body, errorBodyLimit)
		c.logger.Error("analysis service returned error",
			"status", resp.StatusCode,
			"asset", req.Asset,
			"timeframe", req.Timeframe)
		return nil, &UpstreamError{StatusCode: resp.StatusCode}
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.Error("failed to decode analysis response", "error", err)
		return nil, &TransportError{Err: err}
	}

	c.logger.Debug("analysis fetched",
		"asset", req.Asset,
		"timeframe", req.Timeframe,
		"keys", len(result))
	return result, nil
}
