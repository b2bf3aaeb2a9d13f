package agent

// TerminationDecision is the outcome of the termination policy after a model
// response.
type TerminationDecision string

const (
	DecisionContinue       TerminationDecision = "continue"
	DecisionStopNatural    TerminationDecision = "stop_natural"
	DecisionStopBudget     TerminationDecision = "stop_budget"
	DecisionStopModelLimit TerminationDecision = "stop_model_limit"
	DecisionStopError      TerminationDecision = "stop_error"
)

// IsStop reports whether the decision ends the loop.
func (d TerminationDecision) IsStop() bool {
	return d != DecisionContinue
}

// CompletionSignal is the typed reason a model response ended, mapped by the
// model-calling layer from provider stop reasons.
type CompletionSignal string

const (
	// CompletionNatural: the model finished and requests no further work.
	CompletionNatural CompletionSignal = "natural"
	// CompletionToolUse: the model stopped to have tools executed.
	CompletionToolUse CompletionSignal = "tool_use"
	// CompletionOutputLimit: the provider cut the response at its per-call output limit.
	CompletionOutputLimit CompletionSignal = "output_limit"
	// CompletionUnknown: any other stop reason (pause, refusal, unmapped values).
	CompletionUnknown CompletionSignal = "unknown"
)

// CompletionFromStopReason maps provider stop reasons onto CompletionSignal.
// Anthropic and OpenAI-style values are both recognised.
func CompletionFromStopReason(stopReason string) CompletionSignal {
	switch stopReason {
	case "end_turn", "stop_sequence", "stop":
		return CompletionNatural
	case "tool_use", "tool_calls", "function_call":
		return CompletionToolUse
	case "max_tokens", "length", "model_context_window_exceeded":
		return CompletionOutputLimit
	default:
		return CompletionUnknown
	}
}
