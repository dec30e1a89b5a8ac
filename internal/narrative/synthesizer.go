// ABOUTME: Synthesizer forwards generator increments as an ordered StreamChunk sequence.
// ABOUTME: Waits for the first increment so immediate backend failures stay clean.

package narrative

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quantrelay/quantrelay/internal/analysis"
)

// StreamChunk is one unit of the narrative stream. Delta carries a text
// increment; Done marks the end of a successful stream and appears
// exactly once, last, with an empty delta.
type StreamChunk struct {
	Delta string `json:"delta"`
	Done  bool   `json:"done"`
}

// GenerationError means the narrative backend failed before emitting any
// output. Mid-stream failures are not errors from Synthesize; they show
// up as a chunk sequence that ends without a done marker.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("narrative generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Synthesizer composes prompts and exposes generator output as a
// structured chunk stream.
type Synthesizer struct {
	gen    Generator
	logger *slog.Logger
}

// NewSynthesizer creates a synthesizer over the given generator.
func NewSynthesizer(gen Generator, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		gen:    gen,
		logger: logger.With("component", "narrative"),
	}
}

// Synthesize builds the prompt for the analysis result and returns the
// narrative as a lazy, ordered, finite chunk sequence.
//
// If the backend fails before producing any increment, Synthesize
// returns a GenerationError and no chunks are emitted. Once the first
// increment has arrived, failures are reported by closing the returned
// channel without a done chunk; increments already delivered stand.
//
// The returned channel is unbuffered: the consumer's read rate gates how
// fast increments are pulled from the backend, bounding memory to one
// chunk in flight.
func (s *Synthesizer) Synthesize(ctx context.Context, result analysis.Result, asset string, timeframe analysis.Timeframe) (<-chan StreamChunk, error) {
	prompt := BuildPrompt(result, asset, timeframe)

	in, err := s.gen.Stream(ctx, prompt)
	if err != nil {
		return nil, &GenerationError{Err: err}
	}

	// Hold until the backend commits to output. A backend that dies
	// immediately must surface as a clean failure, not an empty stream.
	var first *Increment
	select {
	case inc, ok := <-in:
		if ok {
			if inc.Err != nil {
				return nil, &GenerationError{Err: inc.Err}
			}
			first = &inc
		}
	case <-ctx.Done():
		return nil, &GenerationError{Err: ctx.Err()}
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)

		if first == nil {
			// Backend completed without output. Still a successful,
			// if empty, stream.
			s.emit(ctx, out, StreamChunk{Done: true})
			return
		}
		if !s.emit(ctx, out, StreamChunk{Delta: first.Text}) {
			return
		}

		for inc := range in {
			if inc.Err != nil {
				s.logger.Warn("generator failed mid-stream", "error", inc.Err)
				return
			}
			if !s.emit(ctx, out, StreamChunk{Delta: inc.Text}) {
				return
			}
		}
		s.emit(ctx, out, StreamChunk{Done: true})
	}()
	return out, nil
}

// emit sends a chunk unless the context is cancelled first.
func (s *Synthesizer) emit(ctx context.Context, out chan<- StreamChunk, chunk StreamChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
