package chatflow

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/chatflow/core"
	"github.com/hupe1980/chatflow/logging"
)

// request tracks one submission's lifecycle: the placeholder record it may
// have inserted (pendingID) and the single live reply record it owns once
// the first agent event arrives (liveID). Each submission carries its own
// request value, so overlapping submissions stay logically independent while
// interleaving in the shared store.
//
// The mutex serializes the event handlers of this one request; mutations to
// the shared store are pure updater functions, so no lock spans requests.
type request struct {
	chat    *Chat
	ctx     context.Context
	message any
	logger  *logging.ChatLogger
	started time.Time

	mu        sync.Mutex
	pendingID string
	liveID    string
}

// begin appends the local record, inserts the placeholder when configured
// and issues the agent request. It returns as soon as the request has been
// issued; a synchronous agent may already have settled by then.
func (r *request) begin() {
	r.started = time.Now()

	userID := r.chat.ids.Next()
	r.chat.store.Update(func(prev []core.Message) []core.Message {
		return append(prev, core.Message{ID: userID, Payload: r.message, Status: core.StatusLocal})
	})

	if p := r.chat.placeholder; p != nil {
		payload := p.resolve(r.message, r.chat.RequestMessages())
		r.pendingID = r.chat.ids.Next()
		pendingID := r.pendingID
		r.chat.store.Update(func(prev []core.Message) []core.Message {
			return append(prev, core.Message{ID: pendingID, Payload: payload, Status: core.StatusLoading})
		})
	}

	history := r.chat.RequestMessages()
	r.logger.LogSubmission(len(history))

	r.chat.agent.Request(r.ctx, core.Request{Message: r.message, Messages: history}, core.Handlers{
		OnUpdate:  func(payload any) { r.settle(payload, core.StatusLoading) },
		OnSuccess: func(payload any) { r.settle(payload, core.StatusSuccess) },
		OnError:   r.fail,
	})
}

// settle is the shared transition for updates and success: the first event
// of either kind replaces the placeholder with a fresh live record, later
// events rewrite that record in place. A second terminal event is applied
// permissively rather than rejected.
func (r *request) settle(payload any, status core.Status) {
	kind := "update"
	if status == core.StatusSuccess {
		kind = "success"
	}
	r.logger.LogAgentEvent(kind)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.liveID == "" {
		r.liveID = r.chat.ids.Next()
		liveID, pendingID := r.liveID, r.pendingID
		r.chat.store.Update(func(prev []core.Message) []core.Message {
			next := make([]core.Message, 0, len(prev)+1)
			for _, m := range prev {
				if m.ID != pendingID {
					next = append(next, m)
				}
			}
			return append(next, core.Message{ID: liveID, Payload: payload, Status: status})
		})
		return
	}

	liveID := r.liveID
	r.chat.store.Update(func(prev []core.Message) []core.Message {
		for i := range prev {
			if prev[i].ID == liveID {
				prev[i].Payload = payload
				prev[i].Status = status
			}
		}
		return prev
	})
}

// fail reconciles a terminal agent failure. With a fallback policy the
// resolved payload lands as one error record replacing the placeholder and
// live record; without one (or when the fallback itself fails) both are
// removed, leaving only the user's local message.
func (r *request) fail(err error) {
	r.logger.LogAgentEvent("error")

	r.mu.Lock()
	defer r.mu.Unlock()

	withFallback := r.chat.fallback != nil
	r.logger.LogRequestFailed(err, r.started, withFallback)

	if !withFallback {
		r.remove(r.pendingID, r.liveID)
		return
	}

	payload, ferr := r.chat.fallback.resolve(r.ctx, r.message, FallbackContext{
		Err:      err,
		Messages: r.chat.RequestMessages(),
	})
	if ferr != nil {
		r.logger.Error("Fallback resolution failed, removing pending records", "error", ferr.Error())
		r.remove(r.pendingID, r.liveID)
		return
	}

	errorID := r.chat.ids.Next()
	pendingID, liveID := r.pendingID, r.liveID
	r.chat.store.Update(func(prev []core.Message) []core.Message {
		next := make([]core.Message, 0, len(prev)+1)
		for _, m := range prev {
			if m.ID != pendingID && m.ID != liveID {
				next = append(next, m)
			}
		}
		return append(next, core.Message{ID: errorID, Payload: payload, Status: core.StatusError})
	})
}

// remove drops the given record ids from the store (empty ids match nothing).
func (r *request) remove(ids ...string) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			drop[id] = true
		}
	}
	r.chat.store.Update(func(prev []core.Message) []core.Message {
		next := make([]core.Message, 0, len(prev))
		for _, m := range prev {
			if !drop[m.ID] {
				next = append(next, m)
			}
		}
		return next
	})
}
