// Package meridian adapts providers from the meridian-llm-go library (lorem,
// OpenRouter) to the ModelClient interface.
//
// The adapter is text-only: tool definitions are not forwarded, and tool
// calls and results already in the history are replayed as plain text so the
// model still sees what happened.
package meridian

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/providers/lorem"
	"github.com/haowjy/meridian-llm-go/providers/openrouter"

	"jobhunter/internal/domain/models/agent"
	svc "jobhunter/internal/domain/services/agent"
)

const defaultMaxTokens = 4096

// Client wraps a library provider and implements svc.ModelClient.
type Client struct {
	provider llmprovider.Provider
	logger   *slog.Logger
}

// NewClient creates a client from an existing library provider.
func NewClient(provider llmprovider.Provider, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		provider: provider,
		logger:   logger,
	}
}

// NewLoremClient creates a client backed by the lorem mock provider.
// Lorem requires no API key.
func NewLoremClient(logger *slog.Logger) *Client {
	return NewClient(lorem.NewProvider(), logger)
}

// NewOpenRouterClient creates a client backed by OpenRouter.
func NewOpenRouterClient(apiKey string, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openrouter API key is required")
	}
	provider, err := openrouter.NewProvider(apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenRouter provider: %w", err)
	}
	return NewClient(provider, logger), nil
}

// Name implements svc.ModelClient
func (c *Client) Name() string {
	return c.provider.Name().String()
}

// SupportsTools implements svc.ToolSupport. Tool definitions are not
// forwarded through this adapter.
func (c *Client) SupportsTools() bool {
	return false
}

// StreamResponse implements svc.ModelClient
func (c *Client) StreamResponse(ctx context.Context, req *svc.ModelRequest) (<-chan svc.ModelStreamEvent, error) {
	if !c.provider.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by %s provider", req.Model, c.Name())
	}
	if len(req.Tools) > 0 {
		c.logger.Debug("tool definitions not forwarded", "provider", c.Name(), "tools", len(req.Tools))
	}

	libEvents, err := c.provider.StreamResponse(ctx, convertRequest(req))
	if err != nil {
		return nil, err
	}

	events := make(chan svc.ModelStreamEvent, 16)

	go func() {
		defer close(events)
		// The library closes its channel when it is done; keep reading so its
		// goroutine never blocks on a consumer that stopped early.
		defer func() {
			for range libEvents {
			}
		}()

		var text strings.Builder
		resp := &svc.ModelResponse{Model: req.Model}
		sawMetadata := false

		for ev := range libEvents {
			if ev.Error != nil {
				send(ctx, events, svc.ModelStreamEvent{Err: ev.Error})
				return
			}

			if d := ev.Delta; d != nil && d.DeltaType == "text_delta" && d.TextDelta != nil && *d.TextDelta != "" {
				text.WriteString(*d.TextDelta)
				if !send(ctx, events, svc.ModelStreamEvent{TextDelta: *d.TextDelta}) {
					return
				}
			}

			if m := ev.Metadata; m != nil {
				sawMetadata = true
				if m.Model != "" {
					resp.Model = m.Model
				}
				resp.Usage = agent.Usage{InputTokens: m.InputTokens, OutputTokens: m.OutputTokens}
				resp.StopReason = m.StopReason
			}
		}

		if !sawMetadata {
			send(ctx, events, svc.ModelStreamEvent{Err: errors.New("stream ended without metadata")})
			return
		}

		resp.Text = text.String()
		resp.Completion = agent.CompletionFromStopReason(resp.StopReason)
		// Without tool definitions the model cannot legitimately ask for tools.
		if resp.Completion == agent.CompletionToolUse {
			resp.Completion = agent.CompletionNatural
		}
		send(ctx, events, svc.ModelStreamEvent{Response: resp})
	}()

	return events, nil
}

func send(ctx context.Context, ch chan<- svc.ModelStreamEvent, ev svc.ModelStreamEvent) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- ev:
		return true
	}
}

// convertRequest builds the library request. Every turn becomes a single
// text block; consecutive turns with the same library role are merged.
func convertRequest(req *svc.ModelRequest) *llmprovider.GenerateRequest {
	var messages []llmprovider.Message

	for _, turn := range req.Turns {
		role, content := renderTurn(turn)
		if content == "" {
			continue
		}
		if n := len(messages); n > 0 && messages[n-1].Role == role {
			last := messages[n-1].Blocks[len(messages[n-1].Blocks)-1]
			merged := *last.TextContent + "\n\n" + content
			last.TextContent = &merged
			continue
		}
		messages = append(messages, llmprovider.Message{
			Role: role,
			Blocks: []*llmprovider.Block{
				{
					BlockType:   "text",
					Sequence:    0,
					TextContent: &content,
				},
			},
		})
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	params := &llmprovider.RequestParams{
		MaxTokens: &maxTokens,
	}
	if req.System != "" {
		system := req.System
		params.System = &system
	}

	return &llmprovider.GenerateRequest{
		Messages: messages,
		Model:    req.Model,
		Params:   params,
	}
}

// renderTurn maps a turn to a library role and its text.
func renderTurn(turn agent.Turn) (string, string) {
	switch turn.Role {
	case agent.RoleAssistant:
		var b strings.Builder
		b.WriteString(turn.Content)
		for _, call := range turn.ToolCalls {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			input := string(call.Input)
			if input == "" {
				input = "{}"
			}
			fmt.Fprintf(&b, "[called %s %s]", call.Name, input)
		}
		return "assistant", b.String()

	case agent.RoleToolResult:
		label := "result"
		if turn.IsError {
			label = "error"
		}
		return "user", fmt.Sprintf("[%s %s for %s] %s", turn.ToolName, label, turn.ToolCallID, turn.Content)

	default:
		return "user", turn.Content
	}
}
