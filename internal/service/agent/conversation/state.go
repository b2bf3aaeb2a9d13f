// Package conversation holds the ordered turn history of one session.
package conversation

import (
	"fmt"
	"time"

	"jobhunter/internal/domain/models/agent"
)

// State is the turn sequence owned by a single loop run.
// It is not safe for concurrent use; a run has exactly one writer.
//
// Invariant: every tool_result turn answers a call emitted by the most recent
// assistant turn, and results are appended in dispatch order.
type State struct {
	turns    []agent.Turn
	hydrated int
	pending  []agent.ToolCall
	answered map[string]int
	now      func() time.Time
}

// New creates an empty state.
func New() *State {
	return &State{now: time.Now, answered: map[string]int{}}
}

// Hydrate creates a state seeded with persisted history. Hydrated turns are
// not reported by NewTurns.
func Hydrate(history []agent.Turn) (*State, error) {
	s := New()
	for i, turn := range history {
		if !turn.Role.Valid() {
			return nil, fmt.Errorf("history turn %d: unknown role %q", i, turn.Role)
		}
		if turn.Role == agent.RoleToolResult {
			if err := s.checkToolResult(turn.ToolCallID); err != nil {
				return nil, fmt.Errorf("history turn %d: %w", i, err)
			}
		}
		s.push(turn)
	}
	s.hydrated = len(s.turns)
	return s, nil
}

// AppendUser adds the inbound user message.
func (s *State) AppendUser(content string) {
	s.push(agent.Turn{Role: agent.RoleUser, Content: content, CreatedAt: s.now()})
}

// AppendAssistant adds one model response together with the tool calls it
// requested. The calls become the pending set for tool_result turns.
func (s *State) AppendAssistant(text string, calls []agent.ToolCall) {
	var copied []agent.ToolCall
	if len(calls) > 0 {
		copied = make([]agent.ToolCall, len(calls))
		copy(copied, calls)
	}
	s.push(agent.Turn{Role: agent.RoleAssistant, Content: text, ToolCalls: copied, CreatedAt: s.now()})
}

// AppendToolResult adds the result turn of a finalized invocation.
func (s *State) AppendToolResult(inv *agent.ToolInvocation) error {
	if !inv.Completed() {
		return fmt.Errorf("tool invocation %s is not finalized", inv.ID)
	}
	if err := s.checkToolResult(inv.ID); err != nil {
		return err
	}
	s.push(inv.ToTurn())
	return nil
}

// ClosePendingCalls answers every unanswered call of the last assistant turn
// with a failed result, so the history stays replayable after a run stops
// with tool calls outstanding. It returns the number of turns added.
func (s *State) ClosePendingCalls(reason string) int {
	unanswered := s.PendingCalls()
	for _, call := range unanswered {
		s.push(agent.Turn{
			Role:       agent.RoleToolResult,
			Content:    "error: not executed: " + reason,
			ToolCallID: call.ID,
			ToolName:   call.Name,
			IsError:    true,
			CreatedAt:  s.now(),
		})
	}
	return len(unanswered)
}

// PendingCalls returns the calls of the last assistant turn that have no
// tool_result yet, in emission order. Calls sharing an id are answered in
// order.
func (s *State) PendingCalls() []agent.ToolCall {
	var out []agent.ToolCall
	seen := map[string]int{}
	for _, call := range s.pending {
		seen[call.ID]++
		if seen[call.ID] > s.answered[call.ID] {
			out = append(out, call)
		}
	}
	return out
}

// Turns returns a copy of the full history.
func (s *State) Turns() []agent.Turn {
	out := make([]agent.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// NewTurns returns the turns added since hydration, in order.
func (s *State) NewTurns() []agent.Turn {
	out := make([]agent.Turn, len(s.turns)-s.hydrated)
	copy(out, s.turns[s.hydrated:])
	return out
}

// Len returns the number of turns.
func (s *State) Len() int {
	return len(s.turns)
}

func (s *State) checkToolResult(callID string) error {
	if callID == "" {
		return fmt.Errorf("tool result has no call id")
	}
	calls := 0
	for _, call := range s.pending {
		if call.ID == callID {
			calls++
		}
	}
	switch {
	case calls == 0:
		return fmt.Errorf("tool result %s does not answer the preceding assistant turn", callID)
	case s.answered[callID] >= calls:
		return fmt.Errorf("tool call %s already has a result", callID)
	}
	return nil
}

func (s *State) push(turn agent.Turn) {
	switch turn.Role {
	case agent.RoleAssistant:
		s.pending = turn.ToolCalls
		s.answered = map[string]int{}
	case agent.RoleToolResult:
		s.answered[turn.ToolCallID]++
	default:
		s.pending = nil
		s.answered = map[string]int{}
	}
	s.turns = append(s.turns, turn)
}
