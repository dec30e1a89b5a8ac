// ABOUTME: Tests for the append-only message store.
// ABOUTME: Verifies ordering, identity, delta concatenation, and copy semantics.

package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageStore_AppendPreservesInsertionOrder(t *testing.T) {
	s := NewMessageStore()
	first := s.Append(RoleUser, []Part{{Type: PartTypeText, Text: "one"}})
	second := s.Append(RoleAssistant, []Part{{Type: PartTypeText, Text: "two"}})
	third := s.Append(RoleUser, []Part{{Type: PartTypeText, Text: "three"}})

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, first.ID, msgs[0].ID)
	assert.Equal(t, second.ID, msgs[1].ID)
	assert.Equal(t, third.ID, msgs[2].ID)
}

func TestMessageStore_IDsAreUnique(t *testing.T) {
	s := NewMessageStore()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		msg := s.Append(RoleUser, nil)
		require.NotEmpty(t, msg.ID)
		require.False(t, seen[msg.ID], "duplicate message ID")
		seen[msg.ID] = true
	}
}

func TestMessageStore_AppendTextDeltaGrowsByConcatenation(t *testing.T) {
	s := NewMessageStore()
	msg := s.Append(RoleAssistant, nil)

	require.NoError(t, s.AppendTextDelta(msg.ID, "Sum"))
	require.NoError(t, s.AppendTextDelta(msg.ID, "mary: Bullish."))

	got, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, "Summary: Bullish.", got.Text())
	require.Len(t, got.Parts, 1, "deltas extend one text part")
}

func TestMessageStore_AppendTextDeltaUnknownID(t *testing.T) {
	s := NewMessageStore()
	err := s.AppendTextDelta("missing", "x")
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestMessageStore_ClearPartsKeepsIdentityAndPosition(t *testing.T) {
	s := NewMessageStore()
	s.Append(RoleUser, []Part{{Type: PartTypeText, Text: "question"}})
	asst := s.Append(RoleAssistant, []Part{{Type: PartTypeText, Text: "old answer"}})

	require.NoError(t, s.ClearParts(asst.ID))

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, asst.ID, last.ID)
	assert.Equal(t, RoleAssistant, last.Role)
	assert.Empty(t, last.Parts)
	assert.Equal(t, 2, s.Len())
}

func TestMessageStore_LastUserSkipsAssistantMessages(t *testing.T) {
	s := NewMessageStore()
	user := s.Append(RoleUser, []Part{{Type: PartTypeText, Text: "question"}})
	s.Append(RoleAssistant, []Part{{Type: PartTypeText, Text: "answer"}})

	got, ok := s.LastUser()
	require.True(t, ok)
	assert.Equal(t, user.ID, got.ID)
}

func TestMessageStore_MessagesReturnsCopies(t *testing.T) {
	s := NewMessageStore()
	s.Append(RoleUser, []Part{{Type: PartTypeText, Text: "original"}})

	msgs := s.Messages()
	msgs[0].Parts[0].Text = "mutated"

	fresh := s.Messages()
	assert.Equal(t, "original", fresh[0].Parts[0].Text)
}

func TestMessage_TextConcatenatesOnlyTextParts(t *testing.T) {
	m := Message{Parts: []Part{
		{Type: PartTypeText, Text: "a"},
		{Type: "image"},
		{Type: PartTypeText, Text: "b"},
	}}
	assert.Equal(t, "ab", m.Text())
}
