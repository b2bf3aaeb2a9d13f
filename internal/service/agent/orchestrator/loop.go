package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"jobhunter/internal/domain"
	"jobhunter/internal/domain/models/agent"
	svc "jobhunter/internal/domain/services/agent"
	"jobhunter/internal/service/agent/budget"
	"jobhunter/internal/service/agent/conversation"
	"jobhunter/internal/service/agent/tools"
)

// Session is everything one loop run owns. It is created per inbound user
// message and discarded when the run returns.
type Session struct {
	ID           string
	Model        svc.ModelClient
	ModelName    string
	SystemPrompt string
	MaxTokens    int
	Tools        *tools.Registry
	State        *conversation.State
	Tracker      *budget.Tracker
}

// Orchestrator drives the model/tool loop. It holds no per-session state and
// is safe for concurrent use by many sessions.
type Orchestrator struct {
	policy Policy
	logger *slog.Logger
}

// New creates an orchestrator. A threshold outside (0, 1] falls back to
// budget.DefaultThreshold.
func New(threshold float64, logger *slog.Logger) *Orchestrator {
	if threshold <= 0 || threshold > 1 {
		threshold = budget.DefaultThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		policy: Policy{Threshold: threshold},
		logger: logger,
	}
}

// Threshold returns the budget threshold the policy applies.
func (o *Orchestrator) Threshold() float64 {
	return o.policy.Threshold
}

// Run appends message to the session and loops until a stop decision.
//
// State machine: awaiting_model -> model_streaming -> {dispatching_tools | terminal},
// dispatching_tools -> awaiting_model. Recoverable tool failures stay inside
// the loop; provider failures, event delivery failures and cancellation end it
// with stop_error. The returned result is never nil.
func (o *Orchestrator) Run(ctx context.Context, sess *Session, message string, sink svc.EventSink) *svc.RunResult {
	emitter := NewEmitter(sess.ID, sink)
	dispatcher := tools.NewDispatcher(sess.Tools, o.logger)
	logger := o.logger.With("session_id", sess.ID, "model", sess.ModelName)

	sess.State.AppendUser(message)

	result := &svc.RunResult{SessionID: sess.ID}
	finish := func(decision agent.TerminationDecision, err error) *svc.RunResult {
		if n := sess.State.ClosePendingCalls(fmt.Sprintf("run stopped (%s)", decision)); n > 0 {
			logger.Debug("closed unexecuted tool calls", "count", n, "decision", decision)
		}
		result.Decision = decision
		result.Budget = sess.Tracker.State()
		result.Turns = sess.State.NewTurns()
		result.Err = err
		return result
	}

	for {
		result.Iterations++
		logger.Debug("awaiting model", "iteration", result.Iterations, "turns", sess.State.Len())

		resp, text, err := o.stream(ctx, sess, emitter)
		if err != nil {
			return finish(agent.DecisionStopError, o.fail(ctx, logger, emitter, err))
		}

		sess.Tracker.Accumulate(resp.Usage)
		sess.State.AppendAssistant(text, resp.ToolCalls)

		state := sess.Tracker.State()
		update := agent.NewBudgetUpdateEvent(state, sess.Tracker.Percentage(), sess.Tracker.MaxContext())
		if err := emitter.Emit(ctx, update); err != nil {
			return finish(agent.DecisionStopError, o.fail(ctx, logger, emitter, err))
		}

		decision := o.policy.Evaluate(sess.Tracker, resp)
		logger.Debug("model response evaluated",
			"iteration", result.Iterations,
			"stop_reason", resp.StopReason,
			"completion", resp.Completion,
			"tool_calls", len(resp.ToolCalls),
			"cumulative_tokens", state.CumulativeTokens,
			"decision", decision,
		)

		if decision == agent.DecisionContinue && len(resp.ToolCalls) == 0 {
			// Nothing left to do even though the provider gave no explicit signal.
			decision = agent.DecisionStopNatural
		}
		if decision.IsStop() {
			if err := emitter.Complete(ctx, decision); err != nil {
				return finish(agent.DecisionStopError, o.fail(ctx, logger, emitter, err))
			}
			logger.Info("orchestrator run completed",
				"decision", decision,
				"iterations", result.Iterations,
				"cumulative_tokens", state.CumulativeTokens,
				"context_percentage", sess.Tracker.Percentage(),
			)
			return finish(decision, nil)
		}

		invocations, dispatchErr := dispatcher.Dispatch(ctx, resp.ToolCalls, emitter)
		for i := range invocations {
			if err := sess.State.AppendToolResult(&invocations[i]); err != nil {
				return finish(agent.DecisionStopError, o.fail(ctx, logger, emitter, err))
			}
		}
		if dispatchErr != nil {
			return finish(agent.DecisionStopError, o.fail(ctx, logger, emitter, dispatchErr))
		}
	}
}

// stream performs one model call, forwarding text as it arrives.
// It returns the final response and the text that was emitted for it.
func (o *Orchestrator) stream(ctx context.Context, sess *Session, emitter *Emitter) (*svc.ModelResponse, string, error) {
	req := &svc.ModelRequest{
		Model:     sess.ModelName,
		System:    sess.SystemPrompt,
		Turns:     sess.State.Turns(),
		Tools:     sess.Tools.Specs(),
		MaxTokens: sess.MaxTokens,
	}

	events, err := sess.Model.StreamResponse(ctx, req)
	if err != nil {
		return nil, "", providerError(ctx, sess.Model.Name(), err)
	}

	var text strings.Builder
	for {
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return nil, "", providerError(ctx, sess.Model.Name(), errors.New("stream ended without a final response"))
			}
			switch {
			case ev.Err != nil:
				return nil, "", providerError(ctx, sess.Model.Name(), ev.Err)

			case ev.Response != nil:
				// Providers that do not stream deltas deliver the whole text here.
				if text.Len() == 0 && ev.Response.Text != "" {
					if err := emitter.Text(ctx, ev.Response.Text); err != nil {
						return nil, "", err
					}
					text.WriteString(ev.Response.Text)
				}
				return ev.Response, text.String(), nil

			case ev.TextDelta != "":
				if err := emitter.Text(ctx, ev.TextDelta); err != nil {
					return nil, "", err
				}
				text.WriteString(ev.TextDelta)
			}
		}
	}
}

// fail ends the stream with a single error event unless the transport has
// already failed.
func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, emitter *Emitter, err error) error {
	switch {
	case ctx.Err() != nil:
		logger.Info("orchestrator run cancelled", "error", err)
		// The sink may refuse a cancelled context; that is expected.
		if emitErr := emitter.Fail(ctx, "request cancelled"); emitErr != nil {
			logger.Debug("error event not delivered after cancellation", "error", emitErr)
		}
		return err
	case !emitter.Delivered():
		logger.Error("event delivery failed, stopping run", "error", err)
		return err
	}

	logger.Error("orchestrator run failed", "error", err)
	if emitErr := emitter.Fail(ctx, clientMessage(err)); emitErr != nil {
		logger.Error("failed to deliver error event", "error", emitErr)
	}
	return err
}

func providerError(ctx context.Context, provider string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, domain.ErrProviderCommunication) {
		return err
	}
	return &domain.ProviderError{Provider: provider, Err: err}
}

// clientMessage is the text of the terminal error event.
func clientMessage(err error) string {
	var provErr *domain.ProviderError
	if errors.As(err, &provErr) {
		return fmt.Sprintf("model provider %s is unavailable: %v", provErr.Provider, provErr.Err)
	}
	if errors.Is(err, domain.ErrProviderCommunication) {
		return err.Error()
	}
	return "internal error: " + err.Error()
}
