package agent

// Usage is the token usage a provider reports for one model response.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Total returns input plus output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// BudgetState is the accumulated usage of one session.
// All fields are monotonically non-decreasing within a session.
type BudgetState struct {
	InputTokens      int `json:"inputTokens"`
	OutputTokens     int `json:"outputTokens"`
	CumulativeTokens int `json:"cumulativeTokens"`
}
