package orchestrator

import (
	"jobhunter/internal/domain/models/agent"
	svc "jobhunter/internal/domain/services/agent"
	"jobhunter/internal/service/agent/budget"
)

// Policy decides, after every model response, whether the loop continues.
// Precedence: budget, natural completion, model output limit, continue.
// There is no iteration cap.
type Policy struct {
	// Threshold is the fraction of the context window at which the run stops.
	Threshold float64
}

// Evaluate applies the policy to the tracker state after resp was accounted.
func (p Policy) Evaluate(tracker *budget.Tracker, resp *svc.ModelResponse) agent.TerminationDecision {
	if tracker.IsOverThreshold(p.Threshold) {
		return agent.DecisionStopBudget
	}

	switch resp.Completion {
	case agent.CompletionNatural:
		// Some OpenAI-compatible providers report "stop" alongside tool calls;
		// requested work is never treated as done.
		if len(resp.ToolCalls) == 0 {
			return agent.DecisionStopNatural
		}
	case agent.CompletionOutputLimit:
		return agent.DecisionStopModelLimit
	}

	return agent.DecisionContinue
}
