// ABOUTME: Message model and append-only, insertion-ordered message store.
// ABOUTME: Message identity is immutable; text parts grow by delta concatenation.

package chat

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartTypeText is the only part kind interpreted by this client.
const PartTypeText = "text"

// Part is one typed fragment of a message's content.
type Part struct {
	Type string
	Text string
}

// Message is one conversation turn. ID is assigned once and never
// changes; Parts are append-only while the message streams.
type Message struct {
	ID    string
	Role  Role
	Parts []Part
}

// Text returns the concatenation of the message's text parts.
func (m *Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Type == PartTypeText {
			out += p.Text
		}
	}
	return out
}

// ErrMessageNotFound is returned when a message ID has no entry in the store.
var ErrMessageNotFound = errors.New("message not found")

// MessageStore is an append-only, insertion-ordered log of messages.
// Messages are never reordered or removed; the only mutations are
// appending messages, growing a message's text part, and clearing parts
// ahead of a regeneration.
type MessageStore struct {
	mu       sync.Mutex
	messages []Message
}

// NewMessageStore creates an empty store.
func NewMessageStore() *MessageStore {
	return &MessageStore{}
}

// Append adds a message with a fresh ID and returns a copy of it.
func (s *MessageStore) Append(role Role, parts []Part) Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := Message{
		ID:    uuid.New().String(),
		Role:  role,
		Parts: append([]Part(nil), parts...),
	}
	s.messages = append(s.messages, msg)
	return copyMessage(&msg)
}

// AppendTextDelta grows the message's text by concatenating a delta.
// The delta extends the last text part, or starts one if none exists.
func (s *MessageStore) AppendTextDelta(id, delta string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.findLocked(id)
	if msg == nil {
		return ErrMessageNotFound
	}

	for i := len(msg.Parts) - 1; i >= 0; i-- {
		if msg.Parts[i].Type == PartTypeText {
			msg.Parts[i].Text += delta
			return nil
		}
	}
	msg.Parts = append(msg.Parts, Part{Type: PartTypeText, Text: delta})
	return nil
}

// ClearParts removes a message's parts ahead of a regeneration. The
// message itself, and its position and ID, stay untouched.
func (s *MessageStore) ClearParts(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.findLocked(id)
	if msg == nil {
		return ErrMessageNotFound
	}
	msg.Parts = nil
	return nil
}

// Last returns a copy of the most recent message.
func (s *MessageStore) Last() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) == 0 {
		return Message{}, false
	}
	return copyMessage(&s.messages[len(s.messages)-1]), true
}

// LastUser returns a copy of the most recent user-authored message.
func (s *MessageStore) LastUser() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == RoleUser {
			return copyMessage(&s.messages[i]), true
		}
	}
	return Message{}, false
}

// Messages returns a copy of the log in insertion order.
func (s *MessageStore) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.messages))
	for i := range s.messages {
		out[i] = copyMessage(&s.messages[i])
	}
	return out
}

// Len returns the number of messages in the store.
func (s *MessageStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *MessageStore) findLocked(id string) *Message {
	for i := range s.messages {
		if s.messages[i].ID == id {
			return &s.messages[i]
		}
	}
	return nil
}

func copyMessage(m *Message) Message {
	return Message{
		ID:    m.ID,
		Role:  m.Role,
		Parts: append([]Part(nil), m.Parts...),
	}
}
