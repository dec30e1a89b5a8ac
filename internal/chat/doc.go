// ABOUTME: Package chat is the client side of the relay: message log and state machine.
// ABOUTME: Submit, regenerate, and suggest all funnel into one relay call path.

// Package chat drives a conversation against the relay endpoint.
//
// A Conversation owns an append-only MessageStore and a single lifecycle
// status (idle, submitted, streaming, ready, error). The three user
// actions are commands consumed by the state machine:
//
//	Submit(text)   append a user message and run the pipeline
//	Suggest(text)  Submit with a predefined prompt; not a separate path
//	Regenerate()   replay the latest user turn without new input
//
// All three share one transition: append or confirm the driving user
// message, move to submitted, call the relay, move to streaming on the
// first chunk, ready on the done marker, and error on any failure —
// including a stream that ends without a done marker.
//
// Conversations are independent: no state is shared between instances.
package chat
