// ABOUTME: HTTP client for the relay endpoint: POSTs the payload, parses SSE.
// ABOUTME: Maps relay error statuses to typed errors; EOF without done is abnormal.

package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/quantrelay/quantrelay/internal/narrative"
	"github.com/quantrelay/quantrelay/internal/relay"
)

// RelayError is a non-success response from the relay, carrying the
// status code and the (bounded) response body for display.
type RelayError struct {
	StatusCode int
	Body       string
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay returned status %d: %s", e.StatusCode, e.Body)
}

// Client talks to a relay endpoint over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a relay client. token may be empty when the relay
// runs without auth. The underlying HTTP client has no overall timeout:
// narrative streams are open-ended and cancellation comes from the
// caller's context.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Chat posts the conversation payload and returns the narrative stream.
// The returned channel yields chunks in arrival order and closes after
// the done chunk; closing without one means the stream terminated
// abnormally and the caller must treat the turn as failed.
func (c *Client) Chat(ctx context.Context, req *relay.ChatRequest) (<-chan narrative.StreamChunk, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling relay: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &RelayError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	out := make(chan narrative.StreamChunk)
	go c.readStream(ctx, resp.Body, out)
	return out, nil
}

// readStream parses SSE events from the response body into chunks.
// Event framing follows the relay: "event:" then "data:" lines, blank
// line terminated. An "error" event, a parse failure, or EOF all close
// the channel without a done chunk.
func (c *Client) readStream(ctx context.Context, body io.ReadCloser, out chan<- narrative.StreamChunk) {
	defer close(out)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if event == "" {
				continue
			}
			if done := c.dispatch(ctx, event, data, out); done {
				return
			}
			event, data = "", ""
		}
	}
}

// dispatch handles one complete SSE event. Returns true when the stream
// is finished, normally or not.
func (c *Client) dispatch(ctx context.Context, event, data string, out chan<- narrative.StreamChunk) bool {
	switch event {
	case "chunk":
		var chunk narrative.StreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return true
		}
		select {
		case out <- chunk:
			return false
		case <-ctx.Done():
			return true
		}
	case "done":
		select {
		case out <- narrative.StreamChunk{Done: true}:
		case <-ctx.Done():
		}
		return true
	case "error":
		// Terminal failure after a partial stream; close without done.
		return true
	default:
		return false
	}
}
