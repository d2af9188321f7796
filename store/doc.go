// Package store houses the ordered message store backing a chatflow
// conversation. It pairs a notifying setter (for observers such as a
// rendering layer) with a plain synchronous getter reading the same cell, so
// in-flight request callbacks always see the latest committed sequence
// instead of a snapshot captured when the callback was created.
//
// Add alternative observation mechanisms (channels, batched notifiers) on
// top of Subscribe without changing calling code — only the wiring layer
// needs to decide how changes reach the renderer.
package store
