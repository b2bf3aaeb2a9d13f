package agent

import (
	"context"

	"jobhunter/internal/domain/models/agent"
)

// ToolSpec describes a capability to the model.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolHandler is one entry of the capability registry.
// Implementations must respect context cancellation and own their timeouts;
// the orchestrator imposes none.
type ToolHandler interface {
	// Spec returns the tool's name, description and JSON input schema.
	Spec() ToolSpec

	// Invoke runs the tool with decoded parameters.
	// A returned error is treated the same as a failed ToolResult.
	Invoke(ctx context.Context, params map[string]any) (agent.ToolResult, error)
}

// ToolHandlerFunc adapts a function and a spec into a ToolHandler.
type ToolHandlerFunc struct {
	ToolSpec ToolSpec
	Fn       func(ctx context.Context, params map[string]any) (agent.ToolResult, error)
}

// Spec implements ToolHandler
func (f ToolHandlerFunc) Spec() ToolSpec {
	return f.ToolSpec
}

// Invoke implements ToolHandler
func (f ToolHandlerFunc) Invoke(ctx context.Context, params map[string]any) (agent.ToolResult, error) {
	return f.Fn(ctx, params)
}
