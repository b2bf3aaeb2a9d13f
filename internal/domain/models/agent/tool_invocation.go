package agent

import (
	"encoding/json"
	"time"
)

// ToolResult is the envelope every tool handler returns.
// Success=true carries Data; Success=false carries Error. Message is an
// optional human-readable summary in both cases.
type ToolResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ToolInvocation records one dispatched tool call from request to result.
type ToolInvocation struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Input       json.RawMessage `json:"input,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	Success     *bool           `json:"success,omitempty"`
	Output      any             `json:"output,omitempty"`
	Error       string          `json:"error,omitempty"`
	Message     string          `json:"message,omitempty"`
}

// Completed reports whether the dispatcher finalized the invocation.
func (inv *ToolInvocation) Completed() bool {
	return inv.CompletedAt != nil && inv.Success != nil
}

// Succeeded reports whether the invocation finished successfully.
func (inv *ToolInvocation) Succeeded() bool {
	return inv.Success != nil && *inv.Success
}

// ResultContent renders the invocation outcome as the text the model sees in
// the matching tool_result turn.
func (inv *ToolInvocation) ResultContent() string {
	if !inv.Succeeded() {
		if inv.Message != "" && inv.Message != inv.Error {
			return "error: " + inv.Error + " (" + inv.Message + ")"
		}
		return "error: " + inv.Error
	}

	payload := map[string]any{"result": inv.Output}
	if inv.Message != "" {
		payload["message"] = inv.Message
	}
	data, err := json.Marshal(payload)
	if err != nil {
		// Output was validated at the dispatcher boundary; this is unreachable
		// for invocations produced by it.
		return "error: unserializable tool output"
	}
	return string(data)
}

// ToTurn converts a finalized invocation into its tool_result turn.
func (inv *ToolInvocation) ToTurn() Turn {
	createdAt := inv.StartedAt
	if inv.CompletedAt != nil {
		createdAt = *inv.CompletedAt
	}
	return Turn{
		Role:       RoleToolResult,
		Content:    inv.ResultContent(),
		ToolCallID: inv.ID,
		ToolName:   inv.Name,
		IsError:    !inv.Succeeded(),
		CreatedAt:  createdAt,
	}
}
