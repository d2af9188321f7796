// Package agent houses concrete implementations of core.Agent. The interface
// itself lives in the core package to centralize domain contracts; keeping
// only implementations here prevents the façade from depending on any
// particular backend. Add additional providers in sub-packages without
// changing calling code.
package agent

import (
	"context"

	"github.com/hupe1980/chatflow/core"
)

// Func adapts an ordinary function to core.Agent. Handy for tests, demos and
// glue code around transports that do not warrant a named type.
type Func func(ctx context.Context, req core.Request, h core.Handlers)

// Request implements core.Agent.
func (f Func) Request(ctx context.Context, req core.Request, h core.Handlers) { f(ctx, req, h) }

// Turn is the payload convention the SDK-backed agents in the sub-packages
// understand: an explicit conversation role plus text. Plain string payloads
// are also accepted and treated as user turns, so simple chats can submit
// raw strings while keeping assistant replies (which the agents emit as
// Turn values) correctly attributed in later history.
type Turn struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// AsTurn normalizes a history payload into a Turn. Strings become user
// turns; unknown payload shapes are reported as not ok and should be skipped.
func AsTurn(payload any) (Turn, bool) {
	switch v := payload.(type) {
	case Turn:
		return v, true
	case *Turn:
		if v == nil {
			return Turn{}, false
		}
		return *v, true
	case string:
		return Turn{Role: "user", Text: v}, true
	default:
		return Turn{}, false
	}
}
