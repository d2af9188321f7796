// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a ChatLogger with contextual helpers
// (conversation, request correlation) and domain specific logging helpers for
// submissions and agent lifecycle events.
package logging
