// ABOUTME: Conversation state machine: submit, suggest, and regenerate commands.
// ABOUTME: Tracks idle/submitted/streaming/ready/error and owns the message log.

package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/quantrelay/quantrelay/internal/analysis"
	"github.com/quantrelay/quantrelay/internal/narrative"
	"github.com/quantrelay/quantrelay/internal/relay"
)

// Status is the conversation lifecycle state.
type Status string

// Lifecycle states.
const (
	StatusIdle      Status = "idle"
	StatusSubmitted Status = "submitted"
	StatusStreaming Status = "streaming"
	StatusReady     Status = "ready"
	StatusError     Status = "error"
)

// Conversation errors.
var (
	// ErrNothingToRegenerate means the last message is not an assistant
	// reply, so there is nothing to replay.
	ErrNothingToRegenerate = errors.New("last message is not an assistant reply")

	// ErrStreamInterrupted means the narrative stream ended without a
	// done marker. Chunks already applied stand, but the message is not
	// complete.
	ErrStreamInterrupted = errors.New("narrative stream ended without completion")
)

// RelayCaller is the client-side view of the relay endpoint: one call,
// one ordered chunk stream. The stream closing without a done chunk
// signals abnormal termination.
type RelayCaller interface {
	Chat(ctx context.Context, req *relay.ChatRequest) (<-chan narrative.StreamChunk, error)
}

// Conversation owns one message log and one status. Instances are
// independent; nothing is shared between conversations.
type Conversation struct {
	mu     sync.Mutex
	store  *MessageStore
	status Status
	cancel context.CancelFunc

	client    RelayCaller
	asset     string
	timeframe analysis.Timeframe
	logger    *slog.Logger

	// onDelta, when set, observes each applied text delta. Set it
	// before the first Submit; it is invoked outside the lock.
	onDelta func(delta string)
}

// NewConversation creates an idle conversation for one asset/timeframe.
func NewConversation(client RelayCaller, asset string, timeframe analysis.Timeframe, logger *slog.Logger) *Conversation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conversation{
		store:     NewMessageStore(),
		status:    StatusIdle,
		client:    client,
		asset:     asset,
		timeframe: timeframe,
		logger:    logger.With("component", "chat"),
	}
}

// OnDelta registers an observer for streamed text deltas.
func (c *Conversation) OnDelta(fn func(delta string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDelta = fn
}

// Status returns the current lifecycle state.
func (c *Conversation) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Messages returns a copy of the message log in order.
func (c *Conversation) Messages() []Message {
	return c.store.Messages()
}

// Submit appends a user message and drives the pipeline to completion.
// A whitespace-only text is a no-op. Submit blocks until the stream
// finishes; a previous in-flight request is aborted first so at most one
// analysis request is in flight per conversation.
func (c *Conversation) Submit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.mu.Lock()
	c.abortLocked()
	// The message keeps the text exactly as typed; trimming only gates
	// the no-op check.
	c.store.Append(RoleUser, []Part{{Type: PartTypeText, Text: text}})
	c.status = StatusSubmitted
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	return c.drive(runCtx, c.store.Messages(), "")
}

// Suggest submits a predefined prompt. It is the same code path as
// Submit with an alternate input source.
func (c *Conversation) Suggest(ctx context.Context, text string) error {
	return c.Submit(ctx, text)
}

// Regenerate replays the latest user turn. Valid only when the last
// message is an assistant reply; that reply's parts are discarded and
// refilled from a fresh stream. No new user message is created and the
// user is not re-prompted, so back-to-back calls issue independent
// requests derived from the same user message.
func (c *Conversation) Regenerate(ctx context.Context) error {
	c.mu.Lock()
	last, ok := c.store.Last()
	if !ok || last.Role != RoleAssistant {
		c.mu.Unlock()
		return ErrNothingToRegenerate
	}
	if _, ok := c.store.LastUser(); !ok {
		c.mu.Unlock()
		return ErrNothingToRegenerate
	}

	c.abortLocked()
	if err := c.store.ClearParts(last.ID); err != nil {
		c.mu.Unlock()
		return err
	}
	c.status = StatusSubmitted
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	return c.drive(runCtx, c.messagesThroughLastUser(), last.ID)
}

// Abort cancels an in-flight request. The status falls back to idle;
// a superseding Submit sets its own submitted state.
func (c *Conversation) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abortLocked()
	if c.status == StatusSubmitted || c.status == StatusStreaming {
		c.status = StatusIdle
	}
}

func (c *Conversation) abortLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// drive runs one relay call and applies the resulting stream. payload is
// the message window sent to the relay; assistantID names the message
// receiving deltas, or empty to append a fresh one once the call is
// accepted.
func (c *Conversation) drive(ctx context.Context, payload []Message, assistantID string) error {
	req := &relay.ChatRequest{
		Messages:  toWireMessages(payload),
		Asset:     c.asset,
		Timeframe: string(c.timeframe),
	}

	chunks, err := c.client.Chat(ctx, req)
	if err != nil {
		c.failUnlessAborted(ctx)
		c.logger.Error("relay call failed", "error", err, "asset", c.asset)
		return err
	}

	if assistantID == "" {
		msg := c.store.Append(RoleAssistant, nil)
		assistantID = msg.ID
	}

	sawDone := false
	for chunk := range chunks {
		if chunk.Done {
			sawDone = true
			break
		}
		c.markStreaming()
		if err := c.store.AppendTextDelta(assistantID, chunk.Delta); err != nil {
			c.failUnlessAborted(ctx)
			return err
		}
		c.notifyDelta(chunk.Delta)
	}

	if ctx.Err() != nil {
		// Aborted: Abort or a superseding Submit owns the status.
		return ctx.Err()
	}
	if !sawDone {
		c.setStatus(StatusError)
		return ErrStreamInterrupted
	}
	c.setStatus(StatusReady)
	return nil
}

// messagesThroughLastUser returns the log truncated after the most
// recent user message, which is the window a regeneration replays.
func (c *Conversation) messagesThroughLastUser() []Message {
	msgs := c.store.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return msgs[:i+1]
		}
	}
	return nil
}

// markStreaming moves submitted -> streaming on the first chunk.
func (c *Conversation) markStreaming() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusSubmitted {
		c.status = StatusStreaming
	}
}

func (c *Conversation) setStatus(status Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

func (c *Conversation) failUnlessAborted(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	c.setStatus(StatusError)
}

func (c *Conversation) notifyDelta(delta string) {
	c.mu.Lock()
	fn := c.onDelta
	c.mu.Unlock()
	if fn != nil {
		fn(delta)
	}
}

// toWireMessages converts store messages to the relay's wire shape.
func toWireMessages(msgs []Message) []relay.Message {
	out := make([]relay.Message, len(msgs))
	for i, m := range msgs {
		parts := make([]relay.Part, len(m.Parts))
		for j, p := range m.Parts {
			parts[j] = relay.Part{Type: p.Type, Text: p.Text}
		}
		out[i] = relay.Message{ID: m.ID, Role: string(m.Role), Parts: parts}
	}
	return out
}
