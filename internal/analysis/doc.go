// ABOUTME: Package analysis holds the outbound client for the market analysis service.
// ABOUTME: Defines the validated request shape and the upstream error taxonomy.

// Package analysis talks to the external market analysis service.
//
// The service is treated as an atomic unit: one POST per Analyze call,
// no retries, no caching. Failures split into two kinds so callers can
// log them apart:
//
//   - UpstreamError: the service answered with a non-success status
//   - TransportError: the service could not be reached at all
//
// Both are terminal for the current request.
package analysis
