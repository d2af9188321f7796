// Package core provides the foundational domain types and interfaces used by
// chatflow. It defines the core abstractions for:
//
//   - Messages (ordered, append-only conversation records carrying a status)
//   - Agents (external collaborators emitting update/success/error events)
//   - Identifier generation (monotonic, process-lifetime unique record ids)
//
// The package intentionally keeps implementation concerns (the store, the
// request orchestration, concrete agent backends) out of scope, exposing
// small types and interfaces so higher layers and custom backends stay
// decoupled.
package core
