package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobhunter/internal/domain"
	"jobhunter/internal/domain/models/agent"
	svc "jobhunter/internal/domain/services/agent"
	"jobhunter/internal/service/agent/budget"
	"jobhunter/internal/service/agent/conversation"
	"jobhunter/internal/service/agent/tools"
)

// step is one scripted model call.
type step struct {
	deltas   []string
	resp     *svc.ModelResponse
	err      error // delivered on the stream
	startErr error // returned by StreamResponse
	hang     bool  // never send the final response
}

type scriptedModel struct {
	mu       sync.Mutex
	steps    []step
	requests []*svc.ModelRequest
}

func (m *scriptedModel) Name() string { return "scripted" }

func (m *scriptedModel) StreamResponse(ctx context.Context, req *svc.ModelRequest) (<-chan svc.ModelStreamEvent, error) {
	m.mu.Lock()
	if len(m.requests) >= len(m.steps) {
		m.mu.Unlock()
		return nil, errors.New("unexpected model call")
	}
	st := m.steps[len(m.requests)]
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if st.startErr != nil {
		return nil, st.startErr
	}

	ch := make(chan svc.ModelStreamEvent)
	go func() {
		defer close(ch)
		send := func(ev svc.ModelStreamEvent) bool {
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, d := range st.deltas {
			if !send(svc.ModelStreamEvent{TextDelta: d}) {
				return
			}
		}
		switch {
		case st.hang:
			<-ctx.Done()
		case st.err != nil:
			send(svc.ModelStreamEvent{Err: st.err})
		default:
			send(svc.ModelStreamEvent{Response: st.resp})
		}
	}()
	return ch, nil
}

func (m *scriptedModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

type recordingSink struct {
	events []agent.StreamEvent
	failAt int // 1-based event number to fail on; 0 never
	onSend func(agent.StreamEvent)
}

func (s *recordingSink) Send(ctx context.Context, ev agent.StreamEvent) error {
	if s.failAt > 0 && len(s.events)+1 == s.failAt {
		return errors.New("broken pipe")
	}
	s.events = append(s.events, ev)
	if s.onSend != nil {
		s.onSend(ev)
	}
	return nil
}

func (s *recordingSink) types() []agent.EventType {
	out := make([]agent.EventType, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}

func (s *recordingSink) count(t agent.EventType) int {
	n := 0
	for _, ev := range s.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func (s *recordingSink) text() string {
	var b strings.Builder
	for _, ev := range s.events {
		if d, ok := ev.Payload.(*agent.TextDeltaEvent); ok {
			b.WriteString(d.Content)
		}
	}
	return b.String()
}

func (s *recordingSink) last() agent.StreamEvent {
	return s.events[len(s.events)-1]
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jobsTool(results int) svc.ToolHandler {
	return svc.ToolHandlerFunc{
		ToolSpec: svc.ToolSpec{Name: "search_jobs_indeed", InputSchema: map[string]any{"type": "object"}},
		Fn: func(ctx context.Context, params map[string]any) (agent.ToolResult, error) {
			postings := make([]map[string]any, results)
			for i := range postings {
				postings[i] = map[string]any{"title": "Job", "rank": i}
			}
			return agent.ToolResult{Success: true, Data: postings}, nil
		},
	}
}

func newSession(t *testing.T, model svc.ModelClient, maxContext int, handlers ...svc.ToolHandler) *Session {
	t.Helper()
	b := tools.NewRegistryBuilder()
	for _, h := range handlers {
		b.Register(h)
	}
	registry, err := b.Build()
	require.NoError(t, err)
	tracker, err := budget.NewTracker(maxContext)
	require.NoError(t, err)
	return &Session{
		ID:        "sess-1",
		Model:     model,
		ModelName: "test-model",
		MaxTokens: 1024,
		Tools:     registry,
		State:     conversation.New(),
		Tracker:   tracker,
	}
}

func toolCall(id, name string) agent.ToolCall {
	return agent.ToolCall{ID: id, Name: name, Input: json.RawMessage(`{"query":"golang"}`)}
}

func toolUse(usage agent.Usage, calls ...agent.ToolCall) *svc.ModelResponse {
	return &svc.ModelResponse{ToolCalls: calls, Usage: usage, StopReason: "tool_use", Completion: agent.CompletionToolUse}
}

func endTurn(text string, usage agent.Usage) *svc.ModelResponse {
	return &svc.ModelResponse{Text: text, Usage: usage, StopReason: "end_turn", Completion: agent.CompletionNatural}
}

func TestRun_ScenarioA_SearchThenAnswer(t *testing.T) {
	model := &scriptedModel{steps: []step{
		{deltas: []string{"Let me search. "}, resp: toolUse(agent.Usage{InputTokens: 100, OutputTokens: 20}, toolCall("t1", "search_jobs_indeed"))},
		{deltas: []string{"I found ", "3 jobs."}, resp: endTurn("I found 3 jobs.", agent.Usage{InputTokens: 300, OutputTokens: 30})},
	}}
	sess := newSession(t, model, 200000, jobsTool(3))
	sink := &recordingSink{}

	result := New(0.95, quietLogger()).Run(context.Background(), sess, "find me jobs", sink)

	require.NoError(t, result.Err)
	assert.Equal(t, agent.DecisionStopNatural, result.Decision)
	assert.Equal(t, 2, model.calls())
	assert.Equal(t, 2, result.Iterations)

	assert.Equal(t, 1, sink.count(agent.EventToolStart))
	assert.Equal(t, 1, sink.count(agent.EventToolResult))
	assert.Equal(t, 0, sink.count(agent.EventToolTransition))
	assert.GreaterOrEqual(t, sink.count(agent.EventTextDelta), 1)
	assert.Equal(t, 1, sink.count(agent.EventCompletion))
	assert.Equal(t, 0, sink.count(agent.EventError))

	var toolResult *agent.ToolResultEvent
	for _, ev := range sink.events {
		if r, ok := ev.Payload.(*agent.ToolResultEvent); ok {
			toolResult = r
		}
	}
	require.NotNil(t, toolResult)
	assert.True(t, toolResult.Success)
	assert.Len(t, toolResult.Result, 3)

	assert.Equal(t, agent.EventCompletion, sink.last().Type)
	completion := sink.last().Payload.(*agent.CompletionEvent)
	assert.Equal(t, "sess-1", completion.SessionID)
	assert.Equal(t, sink.text(), completion.Content)
	assert.Equal(t, "Let me search. I found 3 jobs.", completion.Content)

	for i, ev := range sink.events {
		assert.Equal(t, i+1, ev.Seq)
	}

	// user, assistant(tool call), tool_result, assistant
	require.Len(t, result.Turns, 4)
	assert.Equal(t, agent.RoleUser, result.Turns[0].Role)
	assert.Equal(t, "t1", result.Turns[2].ToolCallID)
	assert.Equal(t, "I found 3 jobs.", result.Turns[3].Content)

	// The second call sees the tool result.
	second := model.requests[1]
	require.Len(t, second.Turns, 3)
	assert.Equal(t, agent.RoleToolResult, second.Turns[2].Role)
	assert.Equal(t, "test-model", second.Model)
	require.Len(t, second.Tools, 1)
}

func TestRun_ScenarioB_BudgetStopsWithPendingTools(t *testing.T) {
	model := &scriptedModel{steps: []step{
		{resp: toolUse(agent.Usage{InputTokens: 90000, OutputTokens: 1000}, toolCall("t1", "search_jobs_indeed"))},
		{resp: toolUse(agent.Usage{InputTokens: 98000, OutputTokens: 1000}, toolCall("t2", "search_jobs_indeed"), toolCall("t3", "search_jobs_indeed"))},
	}}
	sess := newSession(t, model, 200000, jobsTool(1))
	sink := &recordingSink{}

	result := New(0.95, quietLogger()).Run(context.Background(), sess, "find me jobs", sink)

	require.NoError(t, result.Err)
	assert.Equal(t, agent.DecisionStopBudget, result.Decision)
	assert.Equal(t, 2, model.calls())
	assert.Equal(t, 190000, result.Budget.CumulativeTokens)

	types := sink.types()
	require.GreaterOrEqual(t, len(types), 2)
	assert.Equal(t, agent.EventBudgetUpdate, types[len(types)-2])
	assert.Equal(t, agent.EventCompletion, types[len(types)-1])

	update := sink.events[len(sink.events)-2].Payload.(*agent.BudgetUpdateEvent)
	assert.GreaterOrEqual(t, update.ContextPercentage, 95.0)
	assert.Equal(t, 190000, update.TotalTokens)

	assert.Equal(t, 1, sink.count(agent.EventToolStart), "only the first response's tool ran")
	completion := sink.last().Payload.(*agent.CompletionEvent)
	assert.Equal(t, agent.DecisionStopBudget, completion.StopReason)

	// Pending calls are closed in history so the session can be resumed.
	last := result.Turns[len(result.Turns)-1]
	assert.Equal(t, agent.RoleToolResult, last.Role)
	assert.Equal(t, "t3", last.ToolCallID)
	assert.True(t, last.IsError)
}

func TestRun_ReportedThresholdAlwaysStops(t *testing.T) {
	model := &scriptedModel{steps: []step{
		{resp: toolUse(agent.Usage{InputTokens: 189000, OutputTokens: 999}, toolCall("t1", "search_jobs_indeed"))},
	}}
	sess := newSession(t, model, 200000, jobsTool(1))
	sink := &recordingSink{}

	result := New(0.95, quietLogger()).Run(context.Background(), sess, "find me jobs", sink)

	update := sink.events[0].Payload.(*agent.BudgetUpdateEvent)
	assert.Equal(t, 189999, update.TotalTokens)
	assert.GreaterOrEqual(t, update.ContextPercentage, 95.0)
	assert.Equal(t, agent.DecisionStopBudget, result.Decision)
	assert.Equal(t, 1, model.calls())
	assert.Zero(t, sink.count(agent.EventToolStart))
}

func TestRun_NaturalCompletionNeedsNoExtraRoundTrip(t *testing.T) {
	model := &scriptedModel{steps: []step{
		{deltas: []string{"Hello!"}, resp: endTurn("Hello!", agent.Usage{InputTokens: 10, OutputTokens: 2})},
	}}
	sess := newSession(t, model, 200000)
	sink := &recordingSink{}

	result := New(0.95, quietLogger()).Run(context.Background(), sess, "hi", sink)

	assert.Equal(t, agent.DecisionStopNatural, result.Decision)
	assert.Equal(t, 1, model.calls())
	assert.Equal(t, []agent.EventType{agent.EventTextDelta, agent.EventBudgetUpdate, agent.EventCompletion}, sink.types())
}

func TestRun_ModelOutputLimit(t *testing.T) {
	model := &scriptedModel{steps: []step{
		{deltas: []string{"partial"}, resp: &svc.ModelResponse{
			ToolCalls:  []agent.ToolCall{toolCall("t1", "search_jobs_indeed")},
			Usage:      agent.Usage{InputTokens: 10, OutputTokens: 1024},
			StopReason: "max_tokens",
			Completion: agent.CompletionOutputLimit,
		}},
	}}
	sess := newSession(t, model, 200000, jobsTool(1))
	sink := &recordingSink{}

	result := New(0.95, quietLogger()).Run(context.Background(), sess, "hi", sink)

	assert.Equal(t, agent.DecisionStopModelLimit, result.Decision)
	assert.Equal(t, 0, sink.count(agent.EventToolStart))
	assert.Equal(t, agent.EventCompletion, sink.last().Type)
}

func TestRun_UnknownSignalWithoutToolsStops(t *testing.T) {
	model := &scriptedModel{steps: []step{
		{resp: &svc.ModelResponse{Text: "done", Usage: agent.Usage{InputTokens: 5, OutputTokens: 1}, StopReason: "pause_turn", Completion: agent.CompletionUnknown}},
	}}
	sess := newSession(t, model, 200000)
	sink := &recordingSink{}

	result := New(0.95, quietLogger()).Run(context.Background(), sess, "hi", sink)

	assert.Equal(t, agent.DecisionStopNatural, result.Decision)
	assert.Equal(t, 1, model.calls())
	// Non-streamed text is still emitted as a chunk.
	assert.Equal(t, "done", sink.text())
}

func TestRun_ToolResultsInDispatchOrderWithTransitions(t *testing.T) {
	model := &scriptedModel{steps: []step{
		{resp: toolUse(agent.Usage{InputTokens: 10, OutputTokens: 10},
			toolCall("a", "search_jobs_indeed"),
			toolCall("b", "missing_tool"),
			toolCall("c", "search_jobs_indeed"),
		)},
		{resp: endTurn("ok", agent.Usage{InputTokens: 10, OutputTokens: 10})},
	}}
	sess := newSession(t, model, 200000, jobsTool(2))
	sink := &recordingSink{}

	result := New(0.95, quietLogger()).Run(context.Background(), sess, "hi", sink)

	require.NoError(t, result.Err)
	assert.Equal(t, agent.DecisionStopNatural, result.Decision)

	var ids []string
	for _, turn := range result.Turns {
		if turn.Role == agent.RoleToolResult {
			ids = append(ids, turn.ToolCallID)
		}
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	assert.Equal(t, []agent.EventType{
		agent.EventBudgetUpdate,
		agent.EventToolStart, agent.EventToolResult,
		agent.EventToolTransition, agent.EventToolStart, agent.EventToolResult,
		agent.EventToolTransition, agent.EventToolStart, agent.EventToolResult,
		agent.EventTextDelta, agent.EventBudgetUpdate, agent.EventCompletion,
	}, sink.types())

	// Unknown tool is a failed result, not a failed run.
	failed := sink.events[5].Payload.(*agent.ToolResultEvent)
	assert.Equal(t, "b", failed.ToolID)
	assert.False(t, failed.Success)
	assert.Contains(t, failed.Error, "unknown tool")
}

func TestRun_CumulativeTokensEqualSumOfUsage(t *testing.T) {
	usages := []agent.Usage{{InputTokens: 100, OutputTokens: 10}, {InputTokens: 250, OutputTokens: 40}, {InputTokens: 400, OutputTokens: 5}}
	model := &scriptedModel{steps: []step{
		{resp: toolUse(usages[0], toolCall("a", "search_jobs_indeed"))},
		{resp: toolUse(usages[1], toolCall("b", "search_jobs_indeed"))},
		{resp: endTurn("done", usages[2])},
	}}
	sess := newSession(t, model, 200000, jobsTool(1))
	sink := &recordingSink{}

	result := New(0.95, quietLogger()).Run(context.Background(), sess, "hi", sink)

	want := 0
	prev := 0
	for _, ev := range sink.events {
		if u, ok := ev.Payload.(*agent.BudgetUpdateEvent); ok {
			assert.GreaterOrEqual(t, u.TotalTokens, prev)
			prev = u.TotalTokens
		}
	}
	for _, u := range usages {
		want += u.Total()
	}
	assert.Equal(t, want, result.Budget.CumulativeTokens)
	assert.Equal(t, want, prev)
	assert.Equal(t, 3, result.Iterations)
}

func TestRun_ProviderErrorIsFatal(t *testing.T) {
	tests := []struct {
		name string
		step step
	}{
		{name: "stream error", step: step{deltas: []string{"par"}, err: errors.New("connection reset")}},
		{name: "start error", step: step{startErr: errors.New("401 unauthorized")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &scriptedModel{steps: []step{tt.step}}
			sess := newSession(t, model, 200000)
			sink := &recordingSink{}

			result := New(0.95, quietLogger()).Run(context.Background(), sess, "hi", sink)

			assert.Equal(t, agent.DecisionStopError, result.Decision)
			assert.ErrorIs(t, result.Err, domain.ErrProviderCommunication)
			assert.Equal(t, 1, sink.count(agent.EventError))
			assert.Equal(t, 0, sink.count(agent.EventCompletion))
			assert.Equal(t, agent.EventError, sink.last().Type)
			assert.Contains(t, sink.last().Payload.(*agent.ErrorEvent).Error, "scripted")
		})
	}
}

func TestRun_ToolFailureIsRecoverable(t *testing.T) {
	failing := svc.ToolHandlerFunc{
		ToolSpec: svc.ToolSpec{Name: "search_jobs_indeed"},
		Fn: func(ctx context.Context, params map[string]any) (agent.ToolResult, error) {
			return agent.ToolResult{}, errors.New("indeed is down")
		},
	}
	model := &scriptedModel{steps: []step{
		{resp: toolUse(agent.Usage{InputTokens: 10, OutputTokens: 10}, toolCall("t1", "search_jobs_indeed"))},
		{deltas: []string{"The search failed, try LinkedIn."}, resp: endTurn("", agent.Usage{InputTokens: 10, OutputTokens: 10})},
	}}
	sess := newSession(t, model, 200000, failing)
	sink := &recordingSink{}

	result := New(0.95, quietLogger()).Run(context.Background(), sess, "hi", sink)

	require.NoError(t, result.Err)
	assert.Equal(t, agent.DecisionStopNatural, result.Decision)
	assert.Equal(t, 0, sink.count(agent.EventError))
	toolTurn := model.requests[1].Turns[2]
	assert.True(t, toolTurn.IsError)
	assert.Contains(t, toolTurn.Content, "indeed is down")
}

func TestRun_RepeatedToolCallIDIsAnsweredNotFatal(t *testing.T) {
	model := &scriptedModel{steps: []step{
		{resp: toolUse(agent.Usage{InputTokens: 10, OutputTokens: 10},
			toolCall("t1", "search_jobs_indeed"),
			toolCall("t1", "search_jobs_indeed"),
		)},
		{deltas: []string{"Found one job."}, resp: endTurn("", agent.Usage{InputTokens: 10, OutputTokens: 10})},
	}}
	sess := newSession(t, model, 200000, jobsTool(1))
	sink := &recordingSink{}

	result := New(0.95, quietLogger()).Run(context.Background(), sess, "hi", sink)

	require.NoError(t, result.Err)
	assert.Equal(t, agent.DecisionStopNatural, result.Decision)
	assert.Equal(t, 0, sink.count(agent.EventError))
	assert.Equal(t, 2, sink.count(agent.EventToolResult))
	require.Equal(t, 2, model.calls())
	turns := model.requests[1].Turns
	require.Len(t, turns, 4)
	assert.False(t, turns[2].IsError)
	assert.True(t, turns[3].IsError)
	assert.Contains(t, turns[3].Content, "duplicate tool call id")
}

func TestRun_SinkFailureFailsClosed(t *testing.T) {
	model := &scriptedModel{steps: []step{
		{resp: toolUse(agent.Usage{InputTokens: 10, OutputTokens: 10}, toolCall("t1", "search_jobs_indeed"))},
		{resp: endTurn("never", agent.Usage{InputTokens: 10, OutputTokens: 10})},
	}}
	ran := false
	tool := svc.ToolHandlerFunc{
		ToolSpec: svc.ToolSpec{Name: "search_jobs_indeed"},
		Fn: func(ctx context.Context, params map[string]any) (agent.ToolResult, error) {
			ran = true
			return agent.ToolResult{Success: true}, nil
		},
	}
	sess := newSession(t, model, 200000, tool)
	// Event 1 is budget_update, event 2 the tool_start.
	sink := &recordingSink{failAt: 2}

	result := New(0.95, quietLogger()).Run(context.Background(), sess, "hi", sink)

	assert.Equal(t, agent.DecisionStopError, result.Decision)
	assert.ErrorIs(t, result.Err, domain.ErrEventDelivery)
	assert.False(t, ran)
	assert.Equal(t, 1, model.calls())
	assert.Equal(t, []agent.EventType{agent.EventBudgetUpdate}, sink.types())
}

func TestRun_CancellationDiscardsInFlightTool(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := &scriptedModel{steps: []step{
		{resp: toolUse(agent.Usage{InputTokens: 10, OutputTokens: 10}, toolCall("t1", "slow"), toolCall("t2", "slow"))},
	}}
	runs := 0
	slow := svc.ToolHandlerFunc{
		ToolSpec: svc.ToolSpec{Name: "slow"},
		Fn: func(ctx context.Context, params map[string]any) (agent.ToolResult, error) {
			runs++
			cancel() // client disconnects while the tool runs
			return agent.ToolResult{Success: true, Data: "late"}, nil
		},
	}
	sess := newSession(t, model, 200000, slow)
	sink := &recordingSink{}

	result := New(0.95, quietLogger()).Run(ctx, sess, "hi", sink)

	assert.Equal(t, agent.DecisionStopError, result.Decision)
	assert.ErrorIs(t, result.Err, context.Canceled)
	assert.Equal(t, 1, runs)
	assert.Equal(t, 0, sink.count(agent.EventToolResult))
	assert.Equal(t, 1, sink.count(agent.EventError), "error event is attempted")
	assert.Equal(t, 0, sink.count(agent.EventCompletion))

	// Both calls are answered in history as not executed.
	var results []agent.Turn
	for _, turn := range result.Turns {
		if turn.Role == agent.RoleToolResult {
			results = append(results, turn)
		}
	}
	require.Len(t, results, 2)
	assert.True(t, results[0].IsError)
}

func TestRun_CancellationWhileStreaming(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := &scriptedModel{steps: []step{{deltas: []string{"thinking"}, hang: true}}}
	sess := newSession(t, model, 200000)
	sink := &recordingSink{onSend: func(ev agent.StreamEvent) {
		if ev.Type == agent.EventTextDelta {
			cancel()
		}
	}}

	result := New(0.95, quietLogger()).Run(ctx, sess, "hi", sink)

	assert.Equal(t, agent.DecisionStopError, result.Decision)
	assert.ErrorIs(t, result.Err, context.Canceled)
	assert.Equal(t, []agent.EventType{agent.EventTextDelta, agent.EventError}, sink.types())
	assert.Equal(t, "request cancelled", sink.last().Payload.(*agent.ErrorEvent).Error)
	require.Len(t, result.Turns, 1, "only the user turn survives")
}

func TestRun_CancellationWithClosedTransport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := &scriptedModel{steps: []step{{deltas: []string{"thinking"}, hang: true}}}
	sess := newSession(t, model, 200000)
	var sent []agent.EventType
	sink := svc.EventSinkFunc(func(ctx context.Context, ev agent.StreamEvent) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		sent = append(sent, ev.Type)
		if ev.Type == agent.EventTextDelta {
			cancel()
		}
		return nil
	})

	result := New(0.95, quietLogger()).Run(ctx, sess, "hi", sink)

	assert.Equal(t, agent.DecisionStopError, result.Decision)
	assert.ErrorIs(t, result.Err, context.Canceled)
	assert.Equal(t, []agent.EventType{agent.EventTextDelta}, sent)
}

func TestRun_HydratedHistoryIsSentButNotReturned(t *testing.T) {
	state, err := conversation.Hydrate([]agent.Turn{
		{Role: agent.RoleUser, Content: "earlier"},
		{Role: agent.RoleAssistant, Content: "earlier answer"},
	})
	require.NoError(t, err)

	model := &scriptedModel{steps: []step{{resp: endTurn("again", agent.Usage{InputTokens: 1, OutputTokens: 1})}}}
	sess := newSession(t, model, 200000)
	sess.State = state

	result := New(0.95, quietLogger()).Run(context.Background(), sess, "now", &recordingSink{})

	require.Len(t, model.requests[0].Turns, 3)
	assert.Equal(t, "earlier", model.requests[0].Turns[0].Content)
	require.Len(t, result.Turns, 2)
	assert.Equal(t, "now", result.Turns[0].Content)
}

func TestNew_ThresholdFallback(t *testing.T) {
	assert.Equal(t, budget.DefaultThreshold, New(0, nil).Threshold())
	assert.Equal(t, budget.DefaultThreshold, New(1.5, nil).Threshold())
	assert.Equal(t, 0.8, New(0.8, nil).Threshold())
}
