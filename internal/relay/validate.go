// ABOUTME: Request validation for the chat relay endpoint.
// ABOUTME: Pure function from conversation payload to a validated analysis request.

package relay

import (
	"errors"
	"strings"

	"github.com/quantrelay/quantrelay/internal/analysis"
)

// Validation failures, in the order the rules are applied.
var (
	// ErrInvalidMessages means the messages/parts shape is unusable:
	// no messages, a last message without parts, or no non-empty text part.
	ErrInvalidMessages = errors.New("invalid message format")

	// ErrMissingAssetTimeframe means asset or timeframe is absent or the
	// timeframe is not a recognized horizon. Only checked once the
	// message shape has passed.
	ErrMissingAssetTimeframe = errors.New("asset and timeframe are required")
)

// ValidateChatRequest checks the payload shape and extracts the fields
// the pipeline needs. Rules apply in order and the first failure wins:
//
//  1. messages must be non-empty
//  2. the last message must have parts
//  3. the last message must have a text part with non-empty trimmed content
//  4. asset and timeframe must be present; timeframe must be recognized
//
// No side effects; pure function of its input.
func ValidateChatRequest(req *ChatRequest) (*analysis.Request, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, ErrInvalidMessages
	}

	last := req.Messages[len(req.Messages)-1]
	if len(last.Parts) == 0 {
		return nil, ErrInvalidMessages
	}

	query := ""
	for _, part := range last.Parts {
		if part.Type == PartTypeText && strings.TrimSpace(part.Text) != "" {
			query = part.Text
			break
		}
	}
	if query == "" {
		return nil, ErrInvalidMessages
	}

	if strings.TrimSpace(req.Asset) == "" || strings.TrimSpace(req.Timeframe) == "" {
		return nil, ErrMissingAssetTimeframe
	}
	timeframe, ok := analysis.ParseTimeframe(req.Timeframe)
	if !ok {
		return nil, ErrMissingAssetTimeframe
	}

	return &analysis.Request{
		Query:     query,
		Asset:     req.Asset,
		Timeframe: timeframe,
	}, nil
}
