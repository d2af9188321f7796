package chatflow

import "context"

// PlaceholderContext carries the settled conversation history available to a
// placeholder function at resolution time.
type PlaceholderContext struct {
	Messages []any
}

// PlaceholderFunc computes a placeholder payload for a submission.
type PlaceholderFunc func(message any, pctx PlaceholderContext) any

// Placeholder is the provisional-message policy: either a constant payload
// or a function of the submission. The variant is resolved at the call site,
// avoiding runtime type inspection of configuration values.
type Placeholder struct {
	value any
	fn    PlaceholderFunc
}

// StaticPlaceholder uses the same payload for every submission.
func StaticPlaceholder(value any) *Placeholder { return &Placeholder{value: value} }

// PlaceholderFrom computes the payload per submission.
func PlaceholderFrom(fn PlaceholderFunc) *Placeholder { return &Placeholder{fn: fn} }

func (p *Placeholder) resolve(message any, history []any) any {
	if p.fn != nil {
		return p.fn(message, PlaceholderContext{Messages: history})
	}
	return p.value
}

// FallbackContext carries the agent failure and the settled conversation
// history available to a fallback function at resolution time.
type FallbackContext struct {
	Err      error
	Messages []any
}

// FallbackFunc computes the visible error payload for a failed submission.
// It may block (the resolution step is the one async boundary of the error
// path); returning an error means no fallback message is shown.
type FallbackFunc func(ctx context.Context, message any, fctx FallbackContext) (any, error)

// Fallback is the failed-request policy: either a constant payload or a
// function of the submission and failure.
type Fallback struct {
	value any
	fn    FallbackFunc
}

// StaticFallback uses the same payload for every failure.
func StaticFallback(value any) *Fallback { return &Fallback{value: value} }

// FallbackFrom computes the payload per failure.
func FallbackFrom(fn FallbackFunc) *Fallback { return &Fallback{fn: fn} }

func (f *Fallback) resolve(ctx context.Context, message any, fctx FallbackContext) (any, error) {
	if f.fn != nil {
		return f.fn(ctx, message, fctx)
	}
	return f.value, nil
}
