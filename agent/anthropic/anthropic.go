// Package anthropic provides a core.Agent backed by the Anthropic Messages
// API. It adapts chatflow's payload convention (agent.Turn / plain strings)
// into the SDK's message format.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/chatflow/agent"
	"github.com/hupe1980/chatflow/core"
)

// Options configures the Anthropic agent (model id, sampling, max tokens,
// API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	System      string
	APIKey      string
}

// Agent wraps the Anthropic Messages API behind core.Agent.
type Agent struct {
	client *anthropic.Client
	opts   Options
}

// New creates an Anthropic agent using the official client.
func New(optFns ...func(o *Options)) *Agent {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Agent{client: &client, opts: opts}
}

// NewFromClient creates an Anthropic agent from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Agent {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Agent{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// Request implements core.Agent. The Messages API is called without
// streaming: zero updates, then exactly one terminal event.
//
// TODO: adopt Messages.NewStreaming and surface accumulated deltas through
// OnUpdate, matching the openai sub-package.
func (a *Agent) Request(ctx context.Context, req core.Request, h core.Handlers) {
	params := a.buildParams(req)

	go func() {
		resp, err := a.client.Messages.New(ctx, params)
		if err != nil {
			h.OnError(fmt.Errorf("anthropic api error: %w", err))
			return
		}

		var text string
		for _, block := range resp.Content {
			if block.Type == "text" {
				text += block.AsText().Text
			}
		}
		h.OnSuccess(agent.Turn{Role: "assistant", Text: text})
	}()
}

// buildParams assembles the Messages API request from the settled history.
// The history already carries the new submission as its final entry, so
// req.Message is never appended separately.
func (a *Agent) buildParams(req core.Request) anthropic.MessageNewParams {
	var messages []anthropic.MessageParam
	for _, payload := range req.Messages {
		turn, ok := agent.AsTurn(payload)
		if !ok {
			continue
		}
		switch turn.Role {
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Text)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Text)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       a.opts.Model,
		Messages:    messages,
		MaxTokens:   a.opts.MaxTokens,
		Temperature: anthropic.Float(a.opts.Temperature),
	}
	if a.opts.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: a.opts.System}}
	}
	return params
}
