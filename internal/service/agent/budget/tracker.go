package budget

import (
	"fmt"
	"math"

	"jobhunter/internal/domain/models/agent"
)

// DefaultThreshold is the fraction of the context window at which a session
// stops with stop_budget.
const DefaultThreshold = 0.95

// Tracker accumulates reported token usage for one session.
//
// Thread-safety: NOT thread-safe. A tracker belongs to a single loop run.
type Tracker struct {
	maxContext int
	state      agent.BudgetState
}

// NewTracker creates a tracker for a provider context window of maxContext tokens.
func NewTracker(maxContext int) (*Tracker, error) {
	if maxContext <= 0 {
		return nil, fmt.Errorf("max context must be positive, got %d", maxContext)
	}
	return &Tracker{maxContext: maxContext}, nil
}

// Accumulate adds one response's usage and returns the new state.
// Negative counts are clamped to zero so the state never decreases.
func (t *Tracker) Accumulate(usage agent.Usage) agent.BudgetState {
	in := max(usage.InputTokens, 0)
	out := max(usage.OutputTokens, 0)

	t.state.InputTokens += in
	t.state.OutputTokens += out
	t.state.CumulativeTokens += in + out

	return t.state
}

// State returns the current accumulated state.
func (t *Tracker) State() agent.BudgetState {
	return t.state
}

// MaxContext returns the context window the tracker measures against.
func (t *Tracker) MaxContext() int {
	return t.maxContext
}

// Percentage returns cumulative tokens as a percentage (0-100, may exceed 100)
// of the context window, rounded to two decimals. This is the value reported
// on the wire and the value IsOverThreshold compares.
func (t *Tracker) Percentage() float64 {
	return round2(float64(t.state.CumulativeTokens) / float64(t.maxContext) * 100)
}

// IsOverThreshold reports whether Percentage reached threshold (a fraction
// in (0, 1]) of the context window.
func (t *Tracker) IsOverThreshold(threshold float64) bool {
	return t.Percentage() >= round2(threshold*100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
