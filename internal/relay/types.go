// ABOUTME: Wire types for the inbound conversation payload.
// ABOUTME: Messages carry polymorphic parts; only text parts are interpreted.

package relay

// PartTypeText is the only part kind this relay interprets. Other kinds
// are accepted and ignored.
const PartTypeText = "text"

// Part is one typed fragment of a message's content.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Message is one conversation turn in the inbound payload.
type Message struct {
	ID    string `json:"id,omitempty"`
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// ChatRequest is the JSON request body for POST /api/chat.
type ChatRequest struct {
	Messages  []Message `json:"messages"`
	Asset     string    `json:"asset"`
	Timeframe string    `json:"timeframe"`
}
