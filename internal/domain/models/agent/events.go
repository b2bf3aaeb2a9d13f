package agent

import (
	"encoding/json"
	"fmt"
)

// EventType is the wire discriminator of a StreamEvent.
type EventType string

// Wire event types
const (
	EventTextDelta      EventType = "chunk"           // Incremental assistant text
	EventToolStart      EventType = "tool_start"      // A tool is about to run
	EventToolTransition EventType = "tool_transition" // Dispatcher moves from one tool to the next
	EventToolResult     EventType = "tool_result"     // A tool finished (successfully or not)
	EventBudgetUpdate   EventType = "context_usage"   // Token usage after a model response
	EventCompletion     EventType = "complete"        // Terminal: loop finished
	EventError          EventType = "error"           // Terminal: fatal failure
)

// IsTerminal reports whether no further events may follow this type.
func (t EventType) IsTerminal() bool {
	return t == EventCompletion || t == EventError
}

// StreamEvent is one unit of the outbound protocol.
// Payload is one of the *Event structs below; Seq is assigned by the emitter.
type StreamEvent struct {
	Type    EventType
	Seq     int
	Payload any
}

// MarshalJSON encodes the payload, which carries its own "type" field.
func (e StreamEvent) MarshalJSON() ([]byte, error) {
	if e.Payload == nil {
		return nil, fmt.Errorf("stream event %q has no payload", e.Type)
	}
	return json.Marshal(e.Payload)
}

// TextDeltaEvent carries incremental assistant text. Consumers concatenate
// contents in arrival order.
type TextDeltaEvent struct {
	Type    EventType `json:"type"`
	Content string    `json:"content"`
}

// ToolStartEvent announces a tool invocation.
type ToolStartEvent struct {
	Type   EventType       `json:"type"`
	Tool   string          `json:"tool"`
	ToolID string          `json:"toolId"`
	Input  json.RawMessage `json:"input,omitempty"`
}

// ToolTransitionEvent names the previous and next tool between sequential steps.
type ToolTransitionEvent struct {
	Type     EventType `json:"type"`
	FromTool string    `json:"fromTool"`
	ToTool   string    `json:"toTool"`
	ToolID   string    `json:"toolId"`
}

// ToolResultEvent reports a finished tool invocation.
type ToolResultEvent struct {
	Type    EventType `json:"type"`
	ToolID  string    `json:"toolId"`
	Tool    string    `json:"tool"`
	Success bool      `json:"success"`
	Result  any       `json:"result,omitempty"`
	Error   string    `json:"error,omitempty"`
	Message string    `json:"message,omitempty"`
}

// BudgetUpdateEvent reports accumulated usage after a model response.
// ContextPercentage is expressed in percent (0-100).
type BudgetUpdateEvent struct {
	Type              EventType `json:"type"`
	InputTokens       int       `json:"inputTokens"`
	OutputTokens      int       `json:"outputTokens"`
	TotalTokens       int       `json:"totalTokens"`
	ContextPercentage float64   `json:"contextPercentage"`
	MaxContextTokens  int       `json:"maxContextTokens"`
}

// CompletionEvent terminates a successful run. Content equals the
// concatenation of every text delta emitted in the run.
type CompletionEvent struct {
	Type       EventType           `json:"type"`
	SessionID  string              `json:"sessionId"`
	StopReason TerminationDecision `json:"stopReason"`
	Content    string              `json:"content"`
}

// ErrorEvent terminates a failed run.
type ErrorEvent struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId,omitempty"`
	Error     string    `json:"error"`
}

// Helper constructors for events

// NewTextDeltaEvent creates a chunk event
func NewTextDeltaEvent(content string) StreamEvent {
	return StreamEvent{Type: EventTextDelta, Payload: &TextDeltaEvent{Type: EventTextDelta, Content: content}}
}

// NewToolStartEvent creates a tool_start event
func NewToolStartEvent(call ToolCall) StreamEvent {
	return StreamEvent{Type: EventToolStart, Payload: &ToolStartEvent{
		Type:   EventToolStart,
		Tool:   call.Name,
		ToolID: call.ID,
		Input:  call.Input,
	}}
}

// NewToolTransitionEvent creates a tool_transition event
func NewToolTransitionEvent(from, to ToolCall) StreamEvent {
	return StreamEvent{Type: EventToolTransition, Payload: &ToolTransitionEvent{
		Type:     EventToolTransition,
		FromTool: from.Name,
		ToTool:   to.Name,
		ToolID:   to.ID,
	}}
}

// NewToolResultEvent creates a tool_result event from a finalized invocation
func NewToolResultEvent(inv *ToolInvocation) StreamEvent {
	ev := &ToolResultEvent{
		Type:    EventToolResult,
		ToolID:  inv.ID,
		Tool:    inv.Name,
		Success: inv.Succeeded(),
		Message: inv.Message,
	}
	if ev.Success {
		ev.Result = inv.Output
	} else {
		ev.Error = inv.Error
	}
	return StreamEvent{Type: EventToolResult, Payload: ev}
}

// NewBudgetUpdateEvent creates a context_usage event
func NewBudgetUpdateEvent(state BudgetState, percentage float64, maxContext int) StreamEvent {
	return StreamEvent{Type: EventBudgetUpdate, Payload: &BudgetUpdateEvent{
		Type:              EventBudgetUpdate,
		InputTokens:       state.InputTokens,
		OutputTokens:      state.OutputTokens,
		TotalTokens:       state.CumulativeTokens,
		ContextPercentage: percentage,
		MaxContextTokens:  maxContext,
	}}
}

// NewCompletionEvent creates a complete event
func NewCompletionEvent(sessionID string, decision TerminationDecision, content string) StreamEvent {
	return StreamEvent{Type: EventCompletion, Payload: &CompletionEvent{
		Type:       EventCompletion,
		SessionID:  sessionID,
		StopReason: decision,
		Content:    content,
	}}
}

// NewErrorEvent creates an error event
func NewErrorEvent(sessionID, message string) StreamEvent {
	return StreamEvent{Type: EventError, Payload: &ErrorEvent{
		Type:      EventError,
		SessionID: sessionID,
		Error:     message,
	}}
}
