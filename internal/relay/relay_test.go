// ABOUTME: Tests for the relay endpoint's HTTP outcomes and SSE streaming.
// ABOUTME: Uses stub analyzer/synthesizer pairs to script each failure mode.

package relay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantrelay/quantrelay/internal/analysis"
	"github.com/quantrelay/quantrelay/internal/narrative"
)

type stubAnalyzer struct {
	result  analysis.Result
	err     error
	calls   int
	lastReq *analysis.Request
}

func (s *stubAnalyzer) Analyze(ctx context.Context, req *analysis.Request) (analysis.Result, error) {
	s.calls++
	s.lastReq = req
	return s.result, s.err
}

type stubSynthesizer struct {
	chunks []narrative.StreamChunk
	err    error
	calls  int
}

func (s *stubSynthesizer) Synthesize(ctx context.Context, result analysis.Result, asset string, timeframe analysis.Timeframe) (<-chan narrative.StreamChunk, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan narrative.StreamChunk, len(s.chunks))
	for _, c := range s.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func postChat(t *testing.T, h *Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.HandleChat(rec, req)
	return rec
}

// sseEvent is one parsed event from an SSE body.
type sseEvent struct {
	event string
	data  string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var current sseEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if current.event != "" {
				events = append(events, current)
				current = sseEvent{}
			}
		}
	}
	return events
}

func validBody() *ChatRequest {
	return &ChatRequest{
		Messages:  []Message{textMessage("user", "Should I buy Bitcoin?")},
		Asset:     "BTC",
		Timeframe: "medium",
	}
}

func TestHandleChat_EmptyMessagesRejected(t *testing.T) {
	h := NewHandler(&stubAnalyzer{}, &stubSynthesizer{}, nil, nil)

	rec := postChat(t, h, &ChatRequest{Messages: []Message{}, Asset: "BTC", Timeframe: "medium"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid message format", rec.Body.String())
}

func TestHandleChat_NoTextPartRejected(t *testing.T) {
	h := NewHandler(&stubAnalyzer{}, &stubSynthesizer{}, nil, nil)

	rec := postChat(t, h, &ChatRequest{
		Messages:  []Message{{Role: "user", Parts: []Part{{Type: "image"}}}},
		Asset:     "BTC",
		Timeframe: "medium",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid message format", rec.Body.String())
}

func TestHandleChat_MissingAssetRejected(t *testing.T) {
	h := NewHandler(&stubAnalyzer{}, &stubSynthesizer{}, nil, nil)

	rec := postChat(t, h, &ChatRequest{
		Messages:  []Message{textMessage("user", "Should I buy Bitcoin?")},
		Timeframe: "medium",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Asset and timeframe are required", rec.Body.String())
}

func TestHandleChat_MalformedJSONRejected(t *testing.T) {
	h := NewHandler(&stubAnalyzer{}, &stubSynthesizer{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.HandleChat(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid message format", rec.Body.String())
}

func TestHandleChat_UpstreamFailureMapsTo500PlainText(t *testing.T) {
	analyzer := &stubAnalyzer{err: &analysis.UpstreamError{StatusCode: http.StatusServiceUnavailable}}
	synth := &stubSynthesizer{}
	h := NewHandler(analyzer, synth, nil, nil)

	rec := postChat(t, h, validBody())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error from backend", rec.Body.String())
	assert.Equal(t, 0, synth.calls, "synthesizer must not run after upstream failure")
}

func TestHandleChat_TransportFailureMapsTo500JSON(t *testing.T) {
	analyzer := &stubAnalyzer{err: &analysis.TransportError{Err: errors.New("connection refused")}}
	h := NewHandler(analyzer, &stubSynthesizer{}, nil, nil)

	rec := postChat(t, h, validBody())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Failed to process the request.", body["error"])
}

func TestHandleChat_GenerationFailureMapsTo500JSON(t *testing.T) {
	analyzer := &stubAnalyzer{result: analysis.Result{"outlook": "bullish"}}
	synth := &stubSynthesizer{err: &narrative.GenerationError{Err: errors.New("backend down")}}
	h := NewHandler(analyzer, synth, nil, nil)

	rec := postChat(t, h, validBody())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Failed to process the request.", body["error"])
}

func TestHandleChat_SuccessStreamsChunksThenDone(t *testing.T) {
	analyzer := &stubAnalyzer{result: analysis.Result{"outlook": "bullish"}}
	synth := &stubSynthesizer{chunks: []narrative.StreamChunk{
		{Delta: "Sum"},
		{Delta: "mary: Bullish."},
		{Done: true},
	}}
	h := NewHandler(analyzer, synth, nil, nil)

	rec := postChat(t, h, validBody())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, 1, analyzer.calls, "exactly one analysis call")
	assert.Equal(t, 1, synth.calls, "exactly one synthesis call")

	events := parseSSE(t, rec.Body.String())
	require.Len(t, events, 3)

	var text strings.Builder
	doneCount := 0
	for _, ev := range events {
		var chunk narrative.StreamChunk
		require.NoError(t, json.Unmarshal([]byte(ev.data), &chunk))
		text.WriteString(chunk.Delta)
		if ev.event == "done" {
			doneCount++
			assert.True(t, chunk.Done)
		}
	}
	assert.Equal(t, "Summary: Bullish.", text.String())
	assert.Equal(t, 1, doneCount)
	assert.Equal(t, "done", events[len(events)-1].event, "done must be last")
}

func TestHandleChat_PassesValidatedRequestToAnalyzer(t *testing.T) {
	analyzer := &stubAnalyzer{result: analysis.Result{}}
	synth := &stubSynthesizer{chunks: []narrative.StreamChunk{{Done: true}}}
	h := NewHandler(analyzer, synth, nil, nil)

	postChat(t, h, validBody())

	require.NotNil(t, analyzer.lastReq)
	assert.Equal(t, "Should I buy Bitcoin?", analyzer.lastReq.Query)
	assert.Equal(t, "BTC", analyzer.lastReq.Asset)
	assert.Equal(t, analysis.TimeframeMedium, analyzer.lastReq.Timeframe)
}

func TestHandleChat_InterruptedStreamEmitsErrorEventNotDone(t *testing.T) {
	analyzer := &stubAnalyzer{result: analysis.Result{}}
	// Channel closes without a done marker: mid-stream generator failure.
	synth := &stubSynthesizer{chunks: []narrative.StreamChunk{
		{Delta: "partial "},
		{Delta: "text"},
	}}
	h := NewHandler(analyzer, synth, nil, nil)

	rec := postChat(t, h, validBody())

	events := parseSSE(t, rec.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, "chunk", events[0].event)
	assert.Equal(t, "chunk", events[1].event)
	assert.Equal(t, "error", events[2].event)
	for _, ev := range events {
		assert.NotEqual(t, "done", ev.event)
	}
}

func TestHandleChat_MethodNotAllowed(t *testing.T) {
	h := NewHandler(&stubAnalyzer{}, &stubSynthesizer{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	h.HandleChat(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	h := NewHandler(&stubAnalyzer{}, &stubSynthesizer{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.HandleHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}
