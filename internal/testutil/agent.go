package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/chatflow/core"
)

// ScriptedAgent replays a fixed lifecycle synchronously inside Request:
// every Updates entry through OnUpdate, then OnError if Err is set,
// otherwise OnSuccess with Final. Deterministic by construction.
type ScriptedAgent struct {
	Updates []any
	Final   any
	Err     error

	mu       sync.Mutex
	requests []core.Request
}

// Request implements core.Agent.
func (a *ScriptedAgent) Request(_ context.Context, req core.Request, h core.Handlers) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	a.mu.Unlock()

	for _, u := range a.Updates {
		h.OnUpdate(u)
	}
	if a.Err != nil {
		h.OnError(a.Err)
		return
	}
	h.OnSuccess(a.Final)
}

// Requests returns a copy of every request the agent has received.
func (a *ScriptedAgent) Requests() []core.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]core.Request, len(a.requests))
	copy(out, a.requests)
	return out
}

// LastRequest returns the most recent request, or a zero value when none.
func (a *ScriptedAgent) LastRequest() core.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.requests) == 0 {
		return core.Request{}
	}
	return a.requests[len(a.requests)-1]
}

// ManualAgent captures each request's handlers so a test can fire lifecycle
// events itself, at any point and in any interleaving across submissions.
type ManualAgent struct {
	mu    sync.Mutex
	calls []*ManualCall
}

// ManualCall is one captured request.
type ManualCall struct {
	Req core.Request
	H   core.Handlers
}

// Request implements core.Agent. It only records the call; nothing fires
// until the test invokes the captured handlers.
func (a *ManualAgent) Request(_ context.Context, req core.Request, h core.Handlers) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, &ManualCall{Req: req, H: h})
}

// Call returns the i-th captured request.
func (a *ManualAgent) Call(i int) *ManualCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[i]
}

// Calls returns the number of captured requests.
func (a *ManualAgent) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}
