package core

// Status describes where a message sits in the request lifecycle.
//
// Transitions are one-directional per record: a "local" record never changes
// status (the agent's reply arrives as a new record), and a "loading" record
// settles into exactly one of "success" or "error". Terminal records never
// transition again.
type Status string

const (
	// StatusLocal marks a user-authored message not yet processed by the agent.
	StatusLocal Status = "local"
	// StatusLoading marks a placeholder or in-flight agent reply.
	StatusLoading Status = "loading"
	// StatusSuccess marks a terminal, agent-confirmed reply.
	StatusSuccess Status = "success"
	// StatusError marks a terminal failed reply (fallback payload).
	StatusError Status = "error"
)

// Terminal reports whether the status is one of the two terminal states.
func (s Status) Terminal() bool { return s == StatusSuccess || s == StatusError }

// Settled reports whether a record with this status counts as settled
// conversation history for agent requests (only user messages and confirmed
// replies do; placeholders, in-flight replies and failures are excluded).
func (s Status) Settled() bool { return s == StatusLocal || s == StatusSuccess }

// Message is one record in the conversation sequence. The Payload is the
// agent-domain representation and is deliberately untyped: strings, numbers
// and structured values all pass through unchanged. After insertion a record
// is only ever mutated by the request lifecycle that owns its id.
type Message struct {
	ID      string `json:"id"`
	Payload any    `json:"message"`
	Status  Status `json:"status"`
}

// SettledPayloads extracts the payloads of all settled records, preserving
// their relative order. This is the filtered history handed to agents and to
// placeholder/fallback functions.
func SettledPayloads(messages []Message) []any {
	out := make([]any, 0, len(messages))
	for _, m := range messages {
		if m.Status.Settled() {
			out = append(out, m.Payload)
		}
	}
	return out
}
