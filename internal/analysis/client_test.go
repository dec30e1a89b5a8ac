// ABOUTME: Tests for the analysis service client.
// ABOUTME: Verifies request shape, passthrough of results, and error kind mapping.

package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeframe(t *testing.T) {
	tests := []struct {
		input string
		want  Timeframe
		ok    bool
	}{
		{"short", TimeframeShort, true},
		{"medium", TimeframeMedium, true},
		{"long", TimeframeLong, true},
		{"", "", false},
		{"weekly", "", false},
		{"MEDIUM", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseTimeframe(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestAnalyze_SendsExpectedRequestBody(t *testing.T) {
	var captured map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/analyze", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]any{"outlook": "bullish"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	result, err := c.Analyze(context.Background(), &Request{
		Query:     "Should I buy Bitcoin?",
		Asset:     "BTC",
		Timeframe: TimeframeMedium,
	})
	require.NoError(t, err)

	assert.Equal(t, "Should I buy Bitcoin?", captured["query"])
	assert.Equal(t, "BTC", captured["asset"])
	assert.Equal(t, "medium", captured["timeframe"])
	assert.Equal(t, "bullish", result["outlook"])
}

func TestAnalyze_PassesDocumentThroughUnmodified(t *testing.T) {
	doc := map[string]any{
		"query":        "outlook?",
		"asset_symbol": "ETH",
		"analysis": map[string]any{
			"technical": map[string]any{"rsi": 61.2},
			"sentiment": "neutral",
		},
		"confidence": 0.72,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(doc)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	result, err := c.Analyze(context.Background(), &Request{Query: "outlook?", Asset: "ETH", Timeframe: TimeframeLong})
	require.NoError(t, err)

	assert.Equal(t, "ETH", result["asset_symbol"])
	assert.Equal(t, 0.72, result["confidence"])
	nested, ok := result["analysis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "neutral", nested["sentiment"])
}

func TestAnalyze_NonSuccessStatusIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	_, err := c.Analyze(context.Background(), &Request{Query: "q", Asset: "BTC", Timeframe: TimeframeShort})

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusServiceUnavailable, upstreamErr.StatusCode)
}

func TestAnalyze_UnreachableServiceIsTransportError(t *testing.T) {
	// Reserve a port, then close it so the connection is refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, nil)
	_, err := c.Analyze(context.Background(), &Request{Query: "q", Asset: "BTC", Timeframe: TimeframeShort})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)

	var upstreamErr *UpstreamError
	assert.False(t, errors.As(err, &upstreamErr))
}

func TestAnalyze_MissingBaseURLIsTransportError(t *testing.T) {
	c := NewClient("", time.Second, nil)
	_, err := c.Analyze(context.Background(), &Request{Query: "q", Asset: "BTC", Timeframe: TimeframeShort})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestAnalyze_MalformedResponseIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	_, err := c.Analyze(context.Background(), &Request{Query: "q", Asset: "BTC", Timeframe: TimeframeShort})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}
