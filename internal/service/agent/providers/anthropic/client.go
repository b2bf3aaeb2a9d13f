// Package anthropic implements the ModelClient for Claude models on the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"jobhunter/internal/domain/models/agent"
	svc "jobhunter/internal/domain/services/agent"
)

// ProviderName is the name agent profiles use to select this client.
const ProviderName = "anthropic"

const defaultMaxTokens = 4096

// Client implements svc.ModelClient with the Anthropic Go SDK.
type Client struct {
	client *anthropic.Client
	logger *slog.Logger
}

// NewClient creates a new Anthropic client with the given API key.
// Extra request options are appended after the key (base URL, retries, HTTP client).
func NewClient(apiKey string, logger *slog.Logger, opts ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)

	return &Client{
		client: &client,
		logger: logger,
	}, nil
}

// Name implements svc.ModelClient
func (c *Client) Name() string {
	return ProviderName
}

// StreamResponse implements svc.ModelClient.
// Text deltas are forwarded as they arrive; tool-use blocks are assembled
// from their JSON deltas and reported with the final response.
func (c *Client) StreamResponse(ctx context.Context, req *svc.ModelRequest) (<-chan svc.ModelStreamEvent, error) {
	messages, err := convertTurns(req.Turns)
	if err != nil {
		return nil, fmt.Errorf("failed to convert turns: %w", err)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: int64(maxTokens),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: req.System,
			},
		}
	}
	if len(req.Tools) > 0 {
		params.Tools = convertTools(req.Tools)
	}

	c.logger.Debug("anthropic stream starting",
		"model", req.Model,
		"messages", len(messages),
		"tools", len(req.Tools),
		"max_tokens", maxTokens,
	)

	events := make(chan svc.ModelStreamEvent, 16)

	go func() {
		defer close(events)

		stream := c.client.Messages.NewStreaming(ctx, params)
		defer stream.Close()

		// Accumulator for final message metadata
		message := anthropic.Message{}
		var text strings.Builder
		calls := newToolAssembler()

		for stream.Next() {
			event := stream.Current()

			if err := message.Accumulate(event); err != nil {
				send(ctx, events, svc.ModelStreamEvent{Err: fmt.Errorf("failed to accumulate message: %w", err)})
				return
			}

			switch e := event.AsAny().(type) {
			case anthropic.ContentBlockStartEvent:
				if e.ContentBlock.Type == "tool_use" {
					calls.start(e.Index, e.ContentBlock.ID, e.ContentBlock.Name)
				}

			case anthropic.ContentBlockDeltaEvent:
				switch e.Delta.Type {
				case "text_delta":
					if e.Delta.Text == "" {
						continue
					}
					text.WriteString(e.Delta.Text)
					if !send(ctx, events, svc.ModelStreamEvent{TextDelta: e.Delta.Text}) {
						return
					}
				case "input_json_delta":
					calls.append(e.Index, e.Delta.PartialJSON)
				}
			}
		}

		if err := stream.Err(); err != nil {
			send(ctx, events, svc.ModelStreamEvent{Err: fmt.Errorf("anthropic streaming error: %w", err)})
			return
		}

		usage := message.Usage
		resp := &svc.ModelResponse{
			Model:     string(message.Model),
			Text:      text.String(),
			ToolCalls: calls.finish(),
			Usage: agent.Usage{
				// Cached prompt tokens still occupy the context window.
				InputTokens:  int(usage.InputTokens + usage.CacheCreationInputTokens + usage.CacheReadInputTokens),
				OutputTokens: int(usage.OutputTokens),
			},
			StopReason: string(message.StopReason),
			Completion: agent.CompletionFromStopReason(string(message.StopReason)),
		}

		c.logger.Debug("anthropic stream finished",
			"model", resp.Model,
			"stop_reason", resp.StopReason,
			"input_tokens", resp.Usage.InputTokens,
			"output_tokens", resp.Usage.OutputTokens,
			"tool_calls", len(resp.ToolCalls),
		)

		send(ctx, events, svc.ModelStreamEvent{Response: resp})
	}()

	return events, nil
}

// send delivers ev unless the consumer has gone away.
func send(ctx context.Context, ch chan<- svc.ModelStreamEvent, ev svc.ModelStreamEvent) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- ev:
		return true
	}
}

// toolAssembler collects tool_use blocks by content block index.
type toolAssembler struct {
	order  []int64
	blocks map[int64]*toolBlock
}

type toolBlock struct {
	id    string
	name  string
	input strings.Builder
}

func newToolAssembler() *toolAssembler {
	return &toolAssembler{blocks: make(map[int64]*toolBlock)}
}

func (a *toolAssembler) start(index int64, id, name string) {
	if _, ok := a.blocks[index]; !ok {
		a.order = append(a.order, index)
	}
	a.blocks[index] = &toolBlock{id: id, name: name}
}

func (a *toolAssembler) append(index int64, partial string) {
	if b, ok := a.blocks[index]; ok {
		b.input.WriteString(partial)
	}
}

// finish returns the calls in emission order. A call streamed without
// input gets an empty object.
func (a *toolAssembler) finish() []agent.ToolCall {
	if len(a.order) == 0 {
		return nil
	}
	calls := make([]agent.ToolCall, 0, len(a.order))
	for _, idx := range a.order {
		b := a.blocks[idx]
		input := strings.TrimSpace(b.input.String())
		if input == "" {
			input = "{}"
		}
		calls = append(calls, agent.ToolCall{
			ID:    b.id,
			Name:  b.name,
			Input: []byte(input),
		})
	}
	return calls
}
