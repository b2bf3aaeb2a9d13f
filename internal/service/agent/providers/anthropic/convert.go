package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"jobhunter/internal/domain/models/agent"
	svc "jobhunter/internal/domain/services/agent"
)

// convertTurns converts conversation turns to Anthropic messages.
//
// Tool-result turns become tool_result blocks in a user message. Consecutive
// turns that map to the same API role are merged into one message, so the
// results of one dispatch batch (and a user message following them) travel
// together.
func convertTurns(turns []agent.Turn) ([]anthropic.MessageParam, error) {
	type group struct {
		role   agent.Role
		blocks []anthropic.ContentBlockParamUnion
	}
	var groups []*group

	add := func(role agent.Role, blocks ...anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(groups); n > 0 && groups[n-1].role == role {
			groups[n-1].blocks = append(groups[n-1].blocks, blocks...)
			return
		}
		groups = append(groups, &group{role: role, blocks: blocks})
	}

	for i, turn := range turns {
		switch turn.Role {
		case agent.RoleUser:
			if turn.Content == "" {
				return nil, fmt.Errorf("turn %d: user turn has no content", i)
			}
			add(agent.RoleUser, anthropic.NewTextBlock(turn.Content))

		case agent.RoleAssistant:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(turn.ToolCalls)+1)
			if turn.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(turn.Content))
			}
			for _, call := range turn.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, toolInput(call.Input), call.Name))
			}
			add(agent.RoleAssistant, blocks...)

		case agent.RoleToolResult:
			if turn.ToolCallID == "" {
				return nil, fmt.Errorf("turn %d: tool result missing tool call id", i)
			}
			add(agent.RoleUser, anthropic.NewToolResultBlock(turn.ToolCallID, turn.Content, turn.IsError))

		default:
			return nil, fmt.Errorf("turn %d: unsupported role '%s'", i, turn.Role)
		}
	}

	messages := make([]anthropic.MessageParam, 0, len(groups))
	for _, g := range groups {
		if g.role == agent.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(g.blocks...))
		} else {
			messages = append(messages, anthropic.NewUserMessage(g.blocks...))
		}
	}
	return messages, nil
}

// toolInput returns the call input as raw JSON, defaulting to an empty object.
func toolInput(raw json.RawMessage) any {
	if len(raw) == 0 || !json.Valid(raw) {
		return map[string]any{}
	}
	return raw
}

// convertTools converts tool specs to Anthropic custom tool definitions.
func convertTools(specs []svc.ToolSpec) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		tool := anthropic.ToolParam{
			Name: spec.Name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: spec.InputSchema["properties"],
				Required:   requiredFields(spec.InputSchema["required"]),
			},
		}
		if spec.Description != "" {
			tool.Description = anthropic.String(spec.Description)
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return tools
}

// requiredFields accepts the "required" list as built in Go or decoded from JSON/YAML.
func requiredFields(v any) []string {
	switch r := v.(type) {
	case []string:
		return r
	case []any:
		out := make([]string, 0, len(r))
		for _, item := range r {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
