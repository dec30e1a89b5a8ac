// ABOUTME: OpenAI-compatible Generator backed by the chat completions streaming API.
// ABOUTME: Forwards content deltas verbatim; EOF closes the increment channel.

package narrative

import (
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

const defaultModel = openai.GPT4oMini

// OpenAIGenerator streams completions from an OpenAI-compatible endpoint.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator for the given credentials.
// baseURL may be empty for the public API; model falls back to a default.
func NewOpenAIGenerator(apiKey, baseURL, model string) *OpenAIGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Stream opens a completion stream for the prompt and forwards each
// content delta as an Increment. The channel closes when the backend
// signals completion; a mid-stream failure is delivered as a terminal
// Err increment.
func (g *OpenAIGenerator) Stream(ctx context.Context, prompt string) (<-chan Increment, error) {
	stream, err := g.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:  g.model,
		Stream: true,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, err
	}

	out := make(chan Increment)
	go func() {
		defer close(out)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				select {
				case out <- Increment{Err: err}:
				case <-ctx.Done():
				}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case out <- Increment{Text: delta}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
