package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobhunter/internal/domain"
	"jobhunter/internal/domain/models/agent"
	svc "jobhunter/internal/domain/services/agent"
	"jobhunter/internal/service/agent/budget"
)

func TestEmitter_SequencesAndSealsOnCompletion(t *testing.T) {
	sink := &recordingSink{}
	e := NewEmitter("s1", sink)
	ctx := context.Background()

	require.NoError(t, e.Text(ctx, "Hello, "))
	require.NoError(t, e.Text(ctx, ""))
	require.NoError(t, e.Text(ctx, "world"))
	require.NoError(t, e.Complete(ctx, agent.DecisionStopNatural))

	require.Len(t, sink.events, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{sink.events[0].Seq, sink.events[1].Seq, sink.events[2].Seq})
	assert.Equal(t, "Hello, world", sink.last().Payload.(*agent.CompletionEvent).Content)
	assert.True(t, e.Sealed())

	err := e.Text(ctx, "late")
	assert.ErrorIs(t, err, domain.ErrStreamClosed)
	assert.Len(t, sink.events, 3)
}

func TestEmitter_SealsOnError(t *testing.T) {
	sink := &recordingSink{}
	e := NewEmitter("s1", sink)
	ctx := context.Background()

	require.NoError(t, e.Fail(ctx, "boom"))
	assert.ErrorIs(t, e.Complete(ctx, agent.DecisionStopNatural), domain.ErrStreamClosed)
	assert.Equal(t, []agent.EventType{agent.EventError}, sink.types())
}

func TestEmitter_SinkFailureIsSticky(t *testing.T) {
	sink := &recordingSink{failAt: 1}
	e := NewEmitter("s1", sink)
	ctx := context.Background()

	err := e.Text(ctx, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEventDelivery)
	assert.False(t, e.Delivered())

	// Nothing else is attempted, including the error event.
	assert.ErrorIs(t, e.Fail(ctx, "boom"), domain.ErrEventDelivery)
	assert.Empty(t, sink.events)
	assert.Empty(t, e.Transcript())
}

func TestEmitter_WireFormat(t *testing.T) {
	sink := &recordingSink{}
	e := NewEmitter("abc", sink)
	ctx := context.Background()

	require.NoError(t, e.ToolStarting(ctx, toolCall("t1", "search_jobs_indeed")))
	require.NoError(t, e.Complete(ctx, agent.DecisionStopBudget))

	start, err := sink.events[0].MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"tool_start","tool":"search_jobs_indeed","toolId":"t1","input":{"query":"golang"}}`, string(start))

	done, err := sink.events[1].MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"complete","sessionId":"abc","stopReason":"stop_budget","content":""}`, string(done))
}

func TestPolicy_Evaluate(t *testing.T) {
	tests := []struct {
		name       string
		cumulative int
		resp       *svc.ModelResponse
		want       agent.TerminationDecision
	}{
		{
			name:       "budget wins over tool calls",
			cumulative: 190000,
			resp:       toolUse(agent.Usage{}, toolCall("t1", "x")),
			want:       agent.DecisionStopBudget,
		},
		{
			name:       "budget wins over natural completion",
			cumulative: 199999,
			resp:       endTurn("", agent.Usage{}),
			want:       agent.DecisionStopBudget,
		},
		{
			name:       "natural completion",
			cumulative: 1000,
			resp:       endTurn("", agent.Usage{}),
			want:       agent.DecisionStopNatural,
		},
		{
			name:       "natural signal with tool calls continues",
			cumulative: 1000,
			resp:       &svc.ModelResponse{ToolCalls: []agent.ToolCall{toolCall("t1", "x")}, Completion: agent.CompletionNatural},
			want:       agent.DecisionContinue,
		},
		{
			name:       "output limit",
			cumulative: 1000,
			resp:       &svc.ModelResponse{Completion: agent.CompletionOutputLimit},
			want:       agent.DecisionStopModelLimit,
		},
		{
			name:       "tool use continues",
			cumulative: 189999,
			resp:       toolUse(agent.Usage{}, toolCall("t1", "x")),
			want:       agent.DecisionContinue,
		},
		{
			name:       "unknown signal continues",
			cumulative: 10,
			resp:       &svc.ModelResponse{Completion: agent.CompletionUnknown},
			want:       agent.DecisionContinue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker, err := budget.NewTracker(200000)
			require.NoError(t, err)
			tracker.Accumulate(agent.Usage{InputTokens: tt.cumulative})

			got := Policy{Threshold: 0.95}.Evaluate(tracker, tt.resp)

			assert.Equal(t, tt.want, got)
		})
	}
}
