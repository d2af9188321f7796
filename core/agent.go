package core

import "context"

// Request is the input handed to an agent for one conversation turn.
type Request struct {
	// Message is the newly submitted payload.
	Message any
	// Messages is the settled conversation history (local/success payloads
	// in original order), computed at call time. The newly submitted
	// message is appended to the store before the history is computed, so
	// Messages already ends with it — backends must not send Message again.
	Messages []any
}

// Handlers carries the three event callbacks for one request lifecycle.
//
// Contract: an agent emits zero or more OnUpdate calls followed by exactly
// one OnSuccess or OnError call. Handlers for a single request must not be
// invoked concurrently with each other; emitting them from a goroutine is
// fine as long as they are sequential.
type Handlers struct {
	// OnUpdate delivers a partial reply payload (e.g. one streaming chunk's
	// accumulated state). May be called any number of times.
	OnUpdate func(payload any)
	// OnSuccess delivers the final reply payload. Terminal.
	OnSuccess func(payload any)
	// OnError reports that the request failed. Terminal.
	OnError func(err error)
}

// Agent is the external collaborator that produces replies. Request may
// return before any handler fires; asynchrony (goroutines, network calls,
// streaming) is entirely the agent's concern. Retry policy, if any, also
// lives in the agent — by the time a terminal handler fires the outcome is
// final.
//
// Implementations must respect ctx cancellation for in-flight work.
type Agent interface {
	Request(ctx context.Context, req Request, h Handlers)
}
