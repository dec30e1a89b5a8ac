// ABOUTME: Package relay exposes the chat relay endpoint over HTTP.
// ABOUTME: Composes validation, analysis fetch, and narrative streaming via SSE.

// Package relay is the single entry point clients talk to.
//
// One POST /api/chat request runs the whole pipeline: validate the
// conversation payload, fetch a structured analysis from the upstream
// service, synthesize a narrative, and stream it back as Server-Sent
// Events. Every failure mode maps to a fixed HTTP outcome:
//
//	400 "Invalid message format"                       malformed messages/parts
//	400 "Asset and timeframe are required"             missing asset or timeframe
//	500 "Error from backend"                           upstream non-success status
//	500 {"error":"Failed to process the request."}     transport or generation failure
//
// The relay performs no retries, no persistence, and no caching. Each
// chunk is forwarded as soon as it is received; the whole stream is
// never buffered.
package relay
