// ABOUTME: HTTP handler composing the validate -> analyze -> narrate pipeline.
// ABOUTME: Streams narrative chunks as SSE; maps every failure to a fixed outcome.

package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/quantrelay/quantrelay/internal/analysis"
	"github.com/quantrelay/quantrelay/internal/metrics"
	"github.com/quantrelay/quantrelay/internal/narrative"
)

// Fixed response bodies. Clients match on these exactly.
const (
	bodyInvalidMessages  = "Invalid message format"
	bodyMissingAsset     = "Asset and timeframe are required"
	bodyUpstreamError    = "Error from backend"
	bodyProcessingFailed = "Failed to process the request."
)

// Analyzer fetches a structured analysis for a validated request.
type Analyzer interface {
	Analyze(ctx context.Context, req *analysis.Request) (analysis.Result, error)
}

// Synthesizer turns an analysis result into a narrative chunk stream.
type Synthesizer interface {
	Synthesize(ctx context.Context, result analysis.Result, asset string, timeframe analysis.Timeframe) (<-chan narrative.StreamChunk, error)
}

// Handler serves the relay endpoint.
type Handler struct {
	analyzer Analyzer
	synth    Synthesizer
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewHandler creates a relay handler. metrics may be nil.
func NewHandler(analyzer Analyzer, synth Synthesizer, logger *slog.Logger, m *metrics.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		analyzer: analyzer,
		synth:    synth,
		logger:   logger.With("component", "relay"),
		metrics:  m,
	}
}

// Register attaches the relay routes to a mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/chat", h.HandleChat)
	mux.HandleFunc("/healthz", h.HandleHealth)
}

// HandleChat handles POST /api/chat.
//
// Exactly one Analyze call happens per request, and the synthesizer is
// invoked only if it succeeds. Chunks are forwarded as they arrive; the
// stream is never buffered whole.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.RecordRequest(metrics.OutcomeInvalid)
		h.sendPlainError(w, http.StatusBadRequest, bodyInvalidMessages)
		return
	}

	analysisReq, err := ValidateChatRequest(&req)
	if err != nil {
		h.metrics.RecordRequest(metrics.OutcomeInvalid)
		switch {
		case errors.Is(err, ErrMissingAssetTimeframe):
			h.sendPlainError(w, http.StatusBadRequest, bodyMissingAsset)
		default:
			h.sendPlainError(w, http.StatusBadRequest, bodyInvalidMessages)
		}
		return
	}

	// Fail fast if the writer cannot stream.
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("streaming not supported")
		h.sendJSONError(w, http.StatusInternalServerError, bodyProcessingFailed)
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), analysisReq)
	if err != nil {
		h.handleAnalysisError(w, err, analysisReq)
		return
	}

	chunks, err := h.synth.Synthesize(r.Context(), result, analysisReq.Asset, analysisReq.Timeframe)
	if err != nil {
		h.metrics.RecordRequest(metrics.OutcomeGenFail)
		h.logger.Error("narrative generation failed",
			"error", err,
			"asset", analysisReq.Asset)
		h.sendJSONError(w, http.StatusInternalServerError, bodyProcessingFailed)
		return
	}

	h.streamChunks(r.Context(), w, flusher, chunks)
}

// handleAnalysisError maps analysis failures to their HTTP outcomes.
func (h *Handler) handleAnalysisError(w http.ResponseWriter, err error, req *analysis.Request) {
	var upstreamErr *analysis.UpstreamError
	if errors.As(err, &upstreamErr) {
		h.metrics.RecordRequest(metrics.OutcomeUpstreamFail)
		h.metrics.RecordUpstreamError("upstream")
		h.logger.Error("analysis service failure",
			"status", upstreamErr.StatusCode,
			"asset", req.Asset)
		h.sendPlainError(w, http.StatusInternalServerError, bodyUpstreamError)
		return
	}

	h.metrics.RecordRequest(metrics.OutcomeUpstreamFail)
	h.metrics.RecordUpstreamError("transport")
	h.logger.Error("analysis transport failure", "error", err, "asset", req.Asset)
	h.sendJSONError(w, http.StatusInternalServerError, bodyProcessingFailed)
}

// streamChunks forwards the chunk sequence as SSE events. A sequence
// that ends without a done marker gets a terminal error event instead,
// so the client marks the message as failed rather than complete.
func (h *Handler) streamChunks(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, chunks <-chan narrative.StreamChunk) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	start := time.Now()
	sawDone := false

	for {
		select {
		case <-ctx.Done():
			// Client went away; stop forwarding.
			return

		case chunk, ok := <-chunks:
			if !ok {
				if !sawDone {
					h.metrics.RecordRequest(metrics.OutcomeInterrupted)
					h.writeSSEEvent(w, "error", map[string]string{"error": "narrative stream interrupted"})
					flusher.Flush()
				}
				return
			}

			if chunk.Done {
				sawDone = true
				h.writeSSEEvent(w, "done", chunk)
				flusher.Flush()
				h.metrics.RecordRequest(metrics.OutcomeStreamed)
				h.metrics.RecordStreamDuration(time.Since(start).Seconds())
				return
			}

			h.metrics.RecordChunk()
			h.writeSSEEvent(w, "chunk", chunk)
			flusher.Flush()
		}
	}
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeSSEEvent writes a single SSE event to the response writer.
func (h *Handler) writeSSEEvent(w http.ResponseWriter, event string, data interface{}) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("failed to marshal SSE data", "error", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", dataJSON)
}

// sendPlainError writes a plain-text error body with no trailing newline;
// clients compare these bodies byte for byte.
func (h *Handler) sendPlainError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, message)
}

// sendJSONError writes a JSON error response.
func (h *Handler) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
