// ABOUTME: Generator capability interface for streaming text-completion backends.
// ABOUTME: Increment carries either a text delta or a terminal backend error.

package narrative

import "context"

// Increment is one unit of generator output. Exactly one of Text or Err
// is meaningful: a non-nil Err is terminal and no further increments
// follow it.
type Increment struct {
	Text string
	Err  error
}

// Generator is the capability interface for any text-completion backend:
// it accepts a prompt and yields ordered text increments, signalling
// completion by closing the channel or failure via an Err increment.
//
// A non-nil error from Stream means the backend failed before producing
// any output.
type Generator interface {
	Stream(ctx context.Context, prompt string) (<-chan Increment, error)
}
