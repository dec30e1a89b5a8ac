// ABOUTME: Error kinds returned by the analysis client.
// ABOUTME: UpstreamError and TransportError are surfaced the same way but logged apart.

package analysis

import "fmt"

// UpstreamError means the analysis service was reachable but answered
// with a non-success status. It carries the upstream status code for
// diagnostics; the relay does not interpret it further.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("analysis service returned status %d", e.StatusCode)
}

// TransportError means the analysis service could not be reached, or its
// response could not be read. Callers surface it identically to
// UpstreamError; the distinct kind exists for logging.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("analysis service unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
