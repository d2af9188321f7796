package chatflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chatflow/core"
	"github.com/hupe1980/chatflow/internal/testutil"
)

func statuses(msgs []core.Message) []core.Status {
	out := make([]core.Status, len(msgs))
	for i, m := range msgs {
		out[i] = m.Status
	}
	return out
}

func byStatus(msgs []core.Message, status core.Status) []core.Message {
	var out []core.Message
	for _, m := range msgs {
		if m.Status == status {
			out = append(out, m)
		}
	}
	return out
}

func assertUniqueIDs(t *testing.T, msgs []core.Message) {
	t.Helper()
	seen := map[string]bool{}
	for _, m := range msgs {
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
	}
}

func TestSubmit_NoAgentConfigured(t *testing.T) {
	c := New()
	err := c.Submit(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoAgent)
	assert.Equal(t, 0, c.Len(), "a rejected submit must not touch the store")
}

func TestNew_SeedsDefaultMessages(t *testing.T) {
	c := New(func(o *Options) {
		o.DefaultMessages = []DefaultMessage{
			{Payload: "welcome"},
			{Payload: "pinned", ID: "pin", Status: core.StatusSuccess},
			{Payload: "note"},
		}
	})

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "default_0", msgs[0].ID)
	assert.Equal(t, core.StatusLocal, msgs[0].Status)
	assert.Equal(t, "pin", msgs[1].ID)
	assert.Equal(t, core.StatusSuccess, msgs[1].Status)
	assert.Equal(t, "default_2", msgs[2].ID)
}

func TestSubmit_SynchronousSuccess(t *testing.T) {
	agent := &testutil.ScriptedAgent{Final: "hi there"}
	c := New(func(o *Options) {
		o.Agent = agent
		o.DefaultMessages = []DefaultMessage{{Payload: "welcome"}}
	})

	require.NoError(t, c.Submit(context.Background(), "hello"))

	msgs := c.Messages()
	require.Len(t, msgs, 3, "seed + local + success, nothing else")
	assert.Equal(t,
		[]core.Status{core.StatusLocal, core.StatusLocal, core.StatusSuccess},
		statuses(msgs))
	assert.Equal(t, "hello", msgs[1].Payload)
	assert.Equal(t, "hi there", msgs[2].Payload)
	assert.Empty(t, byStatus(msgs, core.StatusLoading), "no loading residue")
	assertUniqueIDs(t, msgs)
}

func TestSubmit_PlaceholderInserted(t *testing.T) {
	agent := &testutil.ManualAgent{}
	c := New(func(o *Options) {
		o.Agent = agent
		o.Placeholder = StaticPlaceholder("thinking...")
	})

	require.NoError(t, c.Submit(context.Background(), "hello"))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, core.StatusLocal, msgs[0].Status)
	assert.Equal(t, core.StatusLoading, msgs[1].Status)
	assert.Equal(t, "thinking...", msgs[1].Payload)
	require.Equal(t, 1, agent.Calls())
}

func TestSubmit_StreamingLifecycle(t *testing.T) {
	agent := &testutil.ManualAgent{}
	c := New(func(o *Options) {
		o.Agent = agent
		o.Placeholder = StaticPlaceholder("thinking...")
	})

	require.NoError(t, c.Submit(context.Background(), "hello"))
	placeholderID := c.Messages()[1].ID
	call := agent.Call(0)

	// First chunk replaces the placeholder with a fresh live record.
	call.H.OnUpdate("chunk one")
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	loading := byStatus(msgs, core.StatusLoading)
	require.Len(t, loading, 1)
	assert.NotEqual(t, placeholderID, loading[0].ID)
	assert.Equal(t, "chunk one", loading[0].Payload)
	liveID := loading[0].ID

	// Second chunk rewrites the same live record in place.
	call.H.OnUpdate("chunk one, chunk two")
	msgs = c.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, liveID, msgs[1].ID)
	assert.Equal(t, "chunk one, chunk two", msgs[1].Payload)
	assert.Equal(t, core.StatusLoading, msgs[1].Status)

	// The terminal event settles the same id into success.
	call.H.OnSuccess("chunk one, chunk two, done")
	msgs = c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, liveID, msgs[1].ID)
	assert.Equal(t, core.StatusSuccess, msgs[1].Status)
	assert.Equal(t, "chunk one, chunk two, done", msgs[1].Payload)
}

func TestSubmit_SuccessWithoutUpdatesReplacesPlaceholder(t *testing.T) {
	agent := &testutil.ManualAgent{}
	c := New(func(o *Options) {
		o.Agent = agent
		o.Placeholder = StaticPlaceholder("thinking...")
	})

	require.NoError(t, c.Submit(context.Background(), "hello"))
	placeholderID := c.Messages()[1].ID

	agent.Call(0).H.OnSuccess("done")

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.NotEqual(t, placeholderID, msgs[1].ID)
	assert.Equal(t, core.StatusSuccess, msgs[1].Status)
	assert.Equal(t, "done", msgs[1].Payload)
}

func TestSubmit_ErrorWithoutFallbackLeavesNoTrace(t *testing.T) {
	agent := &testutil.ManualAgent{}
	c := New(func(o *Options) {
		o.Agent = agent
		o.DefaultMessages = []DefaultMessage{{Payload: "welcome"}}
		o.Placeholder = StaticPlaceholder("thinking...")
	})

	require.NoError(t, c.Submit(context.Background(), "hello"))
	call := agent.Call(0)
	call.H.OnUpdate("partial") // establish a live record as well
	call.H.OnError(errors.New("agent down"))

	msgs := c.Messages()
	require.Len(t, msgs, 2, "only the seed and the user's local message remain")
	assert.Equal(t, "welcome", msgs[0].Payload)
	assert.Equal(t, "hello", msgs[1].Payload)
	assert.Equal(t, core.StatusLocal, msgs[1].Status)
}

func TestSubmit_ErrorWithStaticFallback(t *testing.T) {
	agent := &testutil.ScriptedAgent{
		Updates: []any{"partial"},
		Err:     errors.New("agent down"),
	}
	c := New(func(o *Options) {
		o.Agent = agent
		o.Placeholder = StaticPlaceholder("thinking...")
		o.Fallback = StaticFallback("something went wrong")
	})

	require.NoError(t, c.Submit(context.Background(), "hello"))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, core.StatusLocal, msgs[0].Status)
	assert.Equal(t, core.StatusError, msgs[1].Status)
	assert.Equal(t, "something went wrong", msgs[1].Payload)
	assert.Empty(t, byStatus(msgs, core.StatusLoading))
}

func TestSubmit_ErrorWithComputedFallback(t *testing.T) {
	agentErr := errors.New("rate limited")
	agent := &testutil.ScriptedAgent{Err: agentErr}

	var gotCtx FallbackContext
	c := New(func(o *Options) {
		o.Agent = agent
		o.Fallback = FallbackFrom(func(_ context.Context, message any, fctx FallbackContext) (any, error) {
			gotCtx = fctx
			return fmt.Sprintf("failed to answer %q: %v", message, fctx.Err), nil
		})
	})

	require.NoError(t, c.Submit(context.Background(), "hello"))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, core.StatusError, msgs[1].Status)
	assert.Equal(t, `failed to answer "hello": rate limited`, msgs[1].Payload)
	assert.ErrorIs(t, gotCtx.Err, agentErr)
	assert.Equal(t, []any{"hello"}, gotCtx.Messages, "fallback sees settled history only")
}

func TestSubmit_FallbackResolutionFailure(t *testing.T) {
	agent := &testutil.ScriptedAgent{Err: errors.New("agent down")}
	c := New(func(o *Options) {
		o.Agent = agent
		o.Placeholder = StaticPlaceholder("thinking...")
		o.Fallback = FallbackFrom(func(context.Context, any, FallbackContext) (any, error) {
			return nil, errors.New("template store unreachable")
		})
	})

	require.NoError(t, c.Submit(context.Background(), "hello"))

	// Treated as the no-fallback removal path.
	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, core.StatusLocal, msgs[0].Status)
	assert.Equal(t, "hello", msgs[0].Payload)
}

func TestRequestMessages_ExcludesUnsettled(t *testing.T) {
	c := New()
	c.SetMessages([]core.Message{
		{ID: "a", Payload: "one", Status: core.StatusLocal},
		{ID: "b", Payload: "two", Status: core.StatusLoading},
		{ID: "c", Payload: "three", Status: core.StatusSuccess},
		{ID: "d", Payload: "four", Status: core.StatusError},
	})

	assert.Equal(t, []any{"one", "three"}, c.RequestMessages())
}

func TestSubmit_PlaceholderFuncSeesSettledHistory(t *testing.T) {
	agent := &testutil.ManualAgent{}
	var gotHistory []any
	c := New(func(o *Options) {
		o.Agent = agent
		o.DefaultMessages = []DefaultMessage{{Payload: "welcome"}}
		o.Placeholder = PlaceholderFrom(func(message any, pctx PlaceholderContext) any {
			gotHistory = pctx.Messages
			return fmt.Sprintf("answering %v...", message)
		})
	})

	require.NoError(t, c.Submit(context.Background(), "hello"))

	// The just-appended local message is settled history; the placeholder
	// itself obviously is not part of what it gets to see.
	assert.Equal(t, []any{"welcome", "hello"}, gotHistory)
	assert.Equal(t, "answering hello...", c.Messages()[2].Payload)
}

func TestSubmit_AgentSeesFreshHistory(t *testing.T) {
	agent := &testutil.ManualAgent{}
	c := New(func(o *Options) {
		o.Agent = agent
		o.Placeholder = StaticPlaceholder("...")
	})

	require.NoError(t, c.Submit(context.Background(), "first"))
	require.NoError(t, c.Submit(context.Background(), "second"))

	// The second request's history reflects the first request's local
	// message even though that request is still in flight.
	assert.Equal(t, []any{"first"}, agent.Call(0).Req.Messages)
	assert.Equal(t, []any{"first", "second"}, agent.Call(1).Req.Messages)
}

func TestSubmit_ConcurrentLifecyclesInterleave(t *testing.T) {
	agent := &testutil.ManualAgent{}
	c := New(func(o *Options) {
		o.Agent = agent
		o.Placeholder = StaticPlaceholder("...")
	})

	require.NoError(t, c.Submit(context.Background(), "alpha"))
	require.NoError(t, c.Submit(context.Background(), "beta"))
	first, second := agent.Call(0), agent.Call(1)

	first.H.OnUpdate("alpha partial")
	second.H.OnUpdate("beta partial")
	second.H.OnSuccess("beta done")
	first.H.OnError(errors.New("alpha failed"))

	msgs := c.Messages()
	assertUniqueIDs(t, msgs)
	require.Len(t, msgs, 3, "two locals plus beta's success; alpha left no trace")
	assert.Equal(t, "alpha", msgs[0].Payload)
	assert.Equal(t, "beta", msgs[1].Payload)
	assert.Equal(t, "beta done", msgs[2].Payload)
	assert.Equal(t, core.StatusSuccess, msgs[2].Status)
}

func TestSubmit_IDsUniqueAtEverySnapshot(t *testing.T) {
	agent := &testutil.ScriptedAgent{Updates: []any{"p1", "p2"}, Final: "done"}
	c := New(func(o *Options) {
		o.Agent = agent
		o.Placeholder = StaticPlaceholder("...")
	})

	var mu sync.Mutex
	cancel := c.Subscribe(func(msgs []core.Message) {
		mu.Lock()
		defer mu.Unlock()
		assertUniqueIDs(t, msgs)
	})
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, c.Submit(context.Background(), fmt.Sprintf("msg %d", i)))
		}(i)
	}
	wg.Wait()

	msgs := c.Messages()
	assertUniqueIDs(t, msgs)
	assert.Len(t, msgs, 16, "per submit: one local and one success")
	assert.Empty(t, byStatus(msgs, core.StatusLoading))
}

func TestSubmit_SecondTerminalEventAppliedPermissively(t *testing.T) {
	agent := &testutil.ManualAgent{}
	c := New(func(o *Options) { o.Agent = agent })

	require.NoError(t, c.Submit(context.Background(), "hello"))
	call := agent.Call(0)
	call.H.OnSuccess("first final")
	liveID := c.Messages()[1].ID

	// A misbehaving agent's second terminal event is applied, not rejected.
	call.H.OnSuccess("second final")

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, liveID, msgs[1].ID)
	assert.Equal(t, "second final", msgs[1].Payload)
}

func TestDisplayMessages_IdentityRoundTrip(t *testing.T) {
	agent := &testutil.ScriptedAgent{Final: "hi"}
	c := New(func(o *Options) {
		o.Agent = agent
		o.DefaultMessages = []DefaultMessage{{Payload: "welcome"}}
	})
	require.NoError(t, c.Submit(context.Background(), "hello"))

	stored := c.Messages()
	derived := c.DisplayMessages()
	require.Len(t, derived, len(stored))
	for i := range stored {
		assert.Equal(t, stored[i].ID, derived[i].ID)
		assert.Equal(t, stored[i].Payload, derived[i].Payload)
		assert.Equal(t, stored[i].Status, derived[i].Status)
	}
}

func TestDisplayMessages_FanOut(t *testing.T) {
	c := New(func(o *Options) {
		o.Parser = func(p any) []any {
			if p == "composite" {
				return []any{"part a", "part b"}
			}
			return []any{p}
		}
	})
	c.SetMessages([]core.Message{
		{ID: "msg_1", Payload: "plain", Status: core.StatusLocal},
		{ID: "msg_2", Payload: "composite", Status: core.StatusSuccess},
	})

	derived := c.DisplayMessages()
	require.Len(t, derived, 3)
	assert.Equal(t, "msg_1", derived[0].ID)
	assert.Equal(t, "msg_2_0", derived[1].ID)
	assert.Equal(t, "msg_2_1", derived[2].ID)
}

func TestUpdateMessages_EscapeHatch(t *testing.T) {
	c := New(func(o *Options) {
		o.DefaultMessages = []DefaultMessage{{Payload: "one"}, {Payload: "two"}}
	})

	c.UpdateMessages(func(prev []core.Message) []core.Message {
		return prev[:1] // bulk delete outside the request lifecycle
	})
	require.Equal(t, 1, c.Len())

	c.SetMessages(nil)
	assert.Equal(t, 0, c.Len())
}
