// ABOUTME: Package narrative turns an analysis document into a streamed narrative.
// ABOUTME: Defines the Generator capability interface and the chunk pipeline.

// Package narrative synthesizes a human-readable market narrative from a
// structured analysis result.
//
// The text-completion backend is abstracted behind the Generator
// interface: anything that accepts a prompt and yields ordered text
// increments can drive the synthesizer. Production uses an
// OpenAI-compatible backend; tests substitute scripted fakes.
//
// The synthesizer's output is a lazy, finite, non-restartable sequence
// of StreamChunk values with Done=true exactly once, as the last chunk.
// A backend failure before the first increment is a clean
// GenerationError with no chunks emitted; a failure mid-stream closes
// the sequence without a done marker, which consumers must treat as an
// error, not completion.
package narrative
