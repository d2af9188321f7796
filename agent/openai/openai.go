// Package openai provides a core.Agent backed by the OpenAI Chat Completions
// API, including streaming. It adapts chatflow's payload convention
// (agent.Turn / plain strings) into the SDK's message format and back.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/hupe1980/chatflow/agent"
	"github.com/hupe1980/chatflow/core"
)

// Options configure the OpenAI agent. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	// Stream toggles delta streaming: each accumulated chunk is delivered
	// through OnUpdate before the final OnSuccess.
	Stream bool
}

// Agent wraps the OpenAI Chat Completions API behind core.Agent.
type Agent struct {
	client *openai.Client
	opts   Options
}

// New creates an OpenAI agent using the default client (API key from env).
func New(optFns ...func(o *Options)) *Agent {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates an OpenAI agent from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		Stream:              true,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Agent{client: client, opts: opts}
}

// Request implements core.Agent. The API call runs on its own goroutine so
// the caller's Submit never blocks on the network.
func (a *Agent) Request(ctx context.Context, req core.Request, h core.Handlers) {
	params := a.buildParams(req)

	go func() {
		if a.opts.Stream {
			a.handleStreaming(ctx, params, h)
			return
		}
		a.handleNonStreaming(ctx, params, h)
	}()
}

// buildParams assembles the chat completion request from the settled history.
// The history already carries the new submission as its final entry, so
// req.Message is never appended separately. History payloads that match no
// known shape are skipped rather than failing the whole request.
func (a *Agent) buildParams(req core.Request) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	for _, payload := range req.Messages {
		turn, ok := agent.AsTurn(payload)
		if !ok {
			continue
		}
		switch turn.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(turn.Text))
		default:
			messages = append(messages, openai.UserMessage(turn.Text))
		}
	}

	return openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               a.opts.Model,
		Temperature:         openai.Float(a.opts.Temperature),
		MaxCompletionTokens: openai.Int(a.opts.MaxCompletionTokens),
	}
}

// handleStreaming forwards each accumulated text delta through OnUpdate and
// the full reply through OnSuccess once the stream ends.
func (a *Agent) handleStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	h core.Handlers,
) {
	stream := a.client.Chat.Completions.NewStreaming(ctx, params)
	var builder strings.Builder
	for stream.Next() {
		ck := stream.Current()
		for _, ch := range ck.Choices {
			if ch.Delta.Content == "" {
				continue
			}
			builder.WriteString(ch.Delta.Content)
			h.OnUpdate(agent.Turn{Role: "assistant", Text: builder.String()})
		}
	}
	if err := stream.Err(); err != nil {
		h.OnError(fmt.Errorf("openai streaming error: %w", err))
		return
	}
	h.OnSuccess(agent.Turn{Role: "assistant", Text: builder.String()})
}

// handleNonStreaming performs a single completion call: no updates, one
// terminal event.
func (a *Agent) handleNonStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	h core.Handlers,
) {
	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		h.OnError(fmt.Errorf("openai api error: %w", err))
		return
	}
	var text string
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}
	h.OnSuccess(agent.Turn{Role: "assistant", Text: text})
}
