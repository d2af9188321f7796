package display

import (
	"fmt"

	"github.com/hupe1980/chatflow/core"
)

// Parser maps one agent-domain payload to one or more display-domain
// payloads, e.g. splitting a composite reply into separate bubbles. A nil
// Parser is treated as identity (one display message per record).
type Parser func(payload any) []any

// Message is a derived, display-domain record. It is never stored; it is
// recomputed from the source sequence whenever that changes.
type Message struct {
	ID      string      `json:"id"`
	Payload any         `json:"message"`
	Status  core.Status `json:"status"`
}

// Derive maps each stored record through parse and flattens the results.
//
// Display ids stay stable across re-derivation as long as the source id and
// fan-out count are unchanged: a record that parses to a single payload
// keeps the source id, while fan-out appends "_<index>". A parser returning
// an empty slice drops the record from display entirely.
//
// Derive is idempotent and side-effect-free as long as parse is.
func Derive(messages []core.Message, parse Parser) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if parse == nil {
			out = append(out, Message{ID: m.ID, Payload: m.Payload, Status: m.Status})
			continue
		}
		payloads := parse(m.Payload)
		if len(payloads) == 1 {
			out = append(out, Message{ID: m.ID, Payload: payloads[0], Status: m.Status})
			continue
		}
		for i, p := range payloads {
			out = append(out, Message{
				ID:      fmt.Sprintf("%s_%d", m.ID, i),
				Payload: p,
				Status:  m.Status,
			})
		}
	}
	return out
}
