// Package chatflow manages the lifecycle of a conversational message list
// bound to an asynchronous agent. Most applications interact with this
// package by:
//  1. Creating a Chat via New() (wiring an agent plus optional seed
//     messages, parser, placeholder and fallback policies)
//  2. Subscribing to store changes to drive a rendering layer
//  3. Submitting user messages (Submit) and deriving display messages
//
// The façade coordinates an append-only message store with overlapping
// request lifecycles (placeholder insertion, streaming updates, terminal
// success or error-with-fallback) so that every mutation is observable and
// each submission reconciles the store with exactly one terminal state. All
// defaults are safe for local development and testing; production callers
// typically supply a structured logger.
package chatflow

import (
	"context"
	"errors"

	"github.com/hupe1980/chatflow/core"
	"github.com/hupe1980/chatflow/display"
	"github.com/hupe1980/chatflow/logging"
	"github.com/hupe1980/chatflow/store"
)

// ErrNoAgent is returned by Submit when no agent was configured. This is a
// wiring mistake by the caller, not a runtime condition to recover from.
var ErrNoAgent = errors.New("chatflow: submit called without a configured agent")

// DefaultMessage seeds the store at construction time. A missing ID defaults
// to "default_<index>"; a missing Status defaults to StatusLocal.
type DefaultMessage struct {
	Payload any
	ID      string
	Status  core.Status
}

// Options configures a Chat instance.
type Options struct {
	// Agent produces replies. Required only if Submit is ever called.
	Agent core.Agent

	// DefaultMessages seed the store in order.
	DefaultMessages []DefaultMessage

	// Parser maps one stored payload to one-or-many display payloads.
	// Nil means identity.
	Parser display.Parser

	// Placeholder, when set, inserts a provisional loading message
	// immediately on each submission, before any agent event arrives.
	Placeholder *Placeholder

	// Fallback, when set, produces the visible error-status payload for a
	// failed request. Without it a failed request leaves no trace beyond
	// the user's own message.
	Fallback *Fallback

	// Logger receives request lifecycle logging (defaults to NoOp).
	Logger logging.Logger
}

// Chat aggregates the message store, the request orchestration and the
// display derivation for one conversation. Public methods are safe for
// concurrent use; overlapping submissions interleave in the shared store
// without locking against each other.
type Chat struct {
	store       *store.Store
	agent       core.Agent
	parser      display.Parser
	placeholder *Placeholder
	fallback    *Fallback
	logger      *logging.ChatLogger
	ids         *core.IDGenerator
}

// New creates a Chat with optional overrides.
func New(optFns ...func(o *Options)) *Chat {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	seed := make([]core.Message, len(opts.DefaultMessages))
	for i, dm := range opts.DefaultMessages {
		id := dm.ID
		if id == "" {
			id = core.DefaultID(i)
		}
		status := dm.Status
		if status == "" {
			status = core.StatusLocal
		}
		seed[i] = core.Message{ID: id, Payload: dm.Payload, Status: status}
	}

	return &Chat{
		store:       store.New(seed),
		agent:       opts.Agent,
		parser:      opts.Parser,
		placeholder: opts.Placeholder,
		fallback:    opts.Fallback,
		logger:      logging.NewChatLogger(opts.Logger),
		ids:         &core.IDGenerator{},
	}
}

// Messages returns the current stored sequence (defensive copy).
func (c *Chat) Messages() []core.Message { return c.store.Messages() }

// Len returns the number of stored records.
func (c *Chat) Len() int { return c.store.Len() }

// DisplayMessages derives the render-ready sequence from the current store
// content through the configured parser. Pure; recompute freely.
func (c *Chat) DisplayMessages() []display.Message {
	return display.Derive(c.store.Messages(), c.parser)
}

// RequestMessages returns the settled conversation history (payloads of
// local and success records, in order) as handed to the agent and to
// placeholder/fallback functions. Always computed from the live store.
func (c *Chat) RequestMessages() []any {
	return core.SettledPayloads(c.store.Messages())
}

// SetMessages replaces the whole stored sequence. Escape hatch for bulk
// edits (e.g. clearing history) outside the request lifecycle.
func (c *Chat) SetMessages(messages []core.Message) { c.store.Set(messages) }

// UpdateMessages applies a pure updater to the stored sequence atomically.
func (c *Chat) UpdateMessages(fn func(prev []core.Message) []core.Message) {
	c.store.Update(fn)
}

// Subscribe registers fn to run after every store commit with the new
// sequence. The returned cancel function removes the subscription.
func (c *Chat) Subscribe(fn func(messages []core.Message)) (cancel func()) {
	return c.store.Subscribe(fn)
}

// Submit appends message as a local record and drives one request lifecycle
// against the configured agent: optional placeholder insertion, zero or more
// streaming updates onto a single live reply record, then exactly one
// terminal success or error reconciliation.
//
// Submit returns once the agent call has been issued; it never blocks on the
// reply itself. Asynchrony belongs to the agent — a synchronous agent may
// have completed the whole lifecycle by the time Submit returns.
func (c *Chat) Submit(ctx context.Context, message any) error {
	if c.agent == nil {
		return ErrNoAgent
	}

	r := &request{
		chat:    c,
		ctx:     ctx,
		message: message,
		logger:  c.logger.WithRequest(core.NewCorrelationID()),
	}

	r.begin()

	return nil
}
