// ABOUTME: Prometheus metrics for the relay pipeline.
// ABOUTME: Counters for request outcomes, upstream failures, and forwarded chunks.

// Package metrics wires Prometheus instrumentation for the relay.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcome label values.
const (
	OutcomeStreamed     = "streamed"
	OutcomeInterrupted  = "interrupted"
	OutcomeInvalid      = "invalid"
	OutcomeUpstreamFail = "upstream_failure"
	OutcomeGenFail      = "generation_failure"
)

// Metrics holds the relay's Prometheus collectors. A nil *Metrics is
// valid everywhere and records nothing, so instrumentation stays
// optional.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	chunksForwarded prometheus.Counter
	upstreamErrors  *prometheus.CounterVec
	streamDuration  prometheus.Histogram
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quantrelay_chat_requests_total",
			Help: "Chat relay requests by outcome.",
		}, []string{"outcome"}),
		chunksForwarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "quantrelay_stream_chunks_forwarded_total",
			Help: "Narrative stream chunks forwarded to clients.",
		}),
		upstreamErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quantrelay_upstream_errors_total",
			Help: "Analysis service failures by kind.",
		}, []string{"kind"}),
		streamDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "quantrelay_stream_duration_seconds",
			Help:    "Wall time of successful narrative streams.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest increments the request counter for an outcome.
func (m *Metrics) RecordRequest(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

// RecordChunk counts one forwarded stream chunk.
func (m *Metrics) RecordChunk() {
	if m == nil {
		return
	}
	m.chunksForwarded.Inc()
}

// RecordUpstreamError counts an analysis failure by kind
// ("upstream" or "transport").
func (m *Metrics) RecordUpstreamError(kind string) {
	if m == nil {
		return
	}
	m.upstreamErrors.WithLabelValues(kind).Inc()
}

// RecordStreamDuration observes the duration of a completed stream.
func (m *Metrics) RecordStreamDuration(seconds float64) {
	if m == nil {
		return
	}
	m.streamDuration.Observe(seconds)
}
