package agent

import (
	"context"

	"jobhunter/internal/domain/models/agent"
)

// ModelClient defines the interface every model provider adapter implements.
// The orchestrator depends only on this abstraction, never on a provider SDK.
type ModelClient interface {
	// StreamResponse starts one model call. Text deltas are delivered as they
	// arrive; the final event carries Response. A transport failure is
	// delivered as an event with Err set (or returned directly when the call
	// cannot be started). The channel is closed after the final event.
	StreamResponse(ctx context.Context, req *ModelRequest) (<-chan ModelStreamEvent, error)

	// Name returns the provider name (e.g., "anthropic", "lorem")
	Name() string
}

// ModelRequest contains the parameters for one model call.
type ModelRequest struct {
	Model     string
	System    string
	Turns     []agent.Turn
	Tools     []ToolSpec
	MaxTokens int
}

// ModelStreamEvent is one item of a streaming model response.
// Exactly one field is set.
type ModelStreamEvent struct {
	TextDelta string
	Response  *ModelResponse
	Err       error
}

// ModelResponse is the completed model response.
type ModelResponse struct {
	// Model that served the request (may differ from the request if aliased)
	Model string

	// Text is the full assistant text of this response
	Text string

	// ToolCalls requested by the model, in emission order
	ToolCalls []agent.ToolCall

	// Usage as reported by the provider
	Usage agent.Usage

	// StopReason is the raw provider value, kept for logging
	StopReason string

	// Completion is the typed completion signal derived from StopReason
	Completion agent.CompletionSignal
}

// ToolSupport is implemented by model clients that may be unable to carry
// tool definitions to their provider. Clients that do not implement it are
// assumed to support tools.
type ToolSupport interface {
	SupportsTools() bool
}
