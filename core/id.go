package core

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator hands out record identifiers of the form "msg_<n>" from a
// process-lifetime monotonic counter. Identifiers are never reused, so ids
// stay pairwise unique across the whole store even when records are removed.
// Safe for concurrent use.
type IDGenerator struct {
	counter atomic.Int64
}

// Next returns the next record identifier.
func (g *IDGenerator) Next() string {
	return fmt.Sprintf("msg_%d", g.counter.Add(1))
}

// DefaultID returns the stable identifier used for the index-th pre-seeded
// message when the caller did not supply one.
func DefaultID(index int) string {
	return fmt.Sprintf("default_%d", index)
}

// NewCorrelationID generates a unique identifier for a single submission,
// used to correlate log entries across the request lifecycle. Correlation
// ids are never used as store record ids.
func NewCorrelationID() string { return uuid.NewString() }
