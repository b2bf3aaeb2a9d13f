package agent

import (
	"context"

	"jobhunter/internal/domain/models/agent"
)

// ChatService runs one orchestration loop per inbound user message.
type ChatService interface {
	// Chat validates the request, hydrates the session, runs the loop and
	// streams every event to sink. The returned error is non-nil only for
	// failures that happened before the stream started (validation, unknown
	// agent, history load); run-time failures are delivered as an error event
	// and reported in RunResult.
	Chat(ctx context.Context, req *ChatRequest, sink EventSink) (*RunResult, error)

	// History returns the persisted turns of a session owned by userID.
	History(ctx context.Context, userID, sessionID string) ([]agent.Turn, error)

	// Agents lists the agents a request can select.
	Agents() []AgentInfo
}

// ChatRequest is the inbound request DTO. UserID is set from the
// authenticated request, never from the body.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
	AgentID   string `json:"agentId"`
	UserID    string `json:"-"`
}

// RunResult summarises a finished loop run.
type RunResult struct {
	SessionID  string                    `json:"sessionId"`
	Decision   agent.TerminationDecision `json:"decision"`
	Budget     agent.BudgetState         `json:"budget"`
	Iterations int                       `json:"iterations"`
	Turns      []agent.Turn              `json:"turns"`
	Err        error                     `json:"-"`
}

// AgentInfo describes a selectable agent.
type AgentInfo struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Provider      string   `json:"provider"`
	Model         string   `json:"model"`
	Tools         []string `json:"tools"`
	ContextWindow int      `json:"contextWindow"`
	Available     bool     `json:"available"`
}
