// Package memory provides an in-process HistoryStore for development and
// tests. History is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sync"

	"jobhunter/internal/domain"
	"jobhunter/internal/domain/models/agent"
)

// HistoryStore keeps session turns in a map guarded by a RWMutex.
type HistoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	userID string
	turns  []agent.Turn
}

// NewHistoryStore creates an empty store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{sessions: make(map[string]*session)}
}

// LoadHistory implements HistoryStore
func (s *HistoryStore) LoadHistory(ctx context.Context, userID, sessionID string) ([]agent.Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok || len(sess.turns) == 0 {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	if sess.userID != userID {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrForbidden)
	}
	return cloneTurns(sess.turns), nil
}

// AppendTurns implements HistoryStore
func (s *HistoryStore) AppendTurns(ctx context.Context, userID, sessionID string, turns []agent.Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(turns) == 0 {
		return nil
	}
	for i, t := range turns {
		if !t.Role.Valid() {
			return fmt.Errorf("%w: turn %d has unknown role %q", domain.ErrValidation, i, t.Role)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{userID: userID}
		s.sessions[sessionID] = sess
	}
	if sess.userID != userID {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrForbidden)
	}
	sess.turns = append(sess.turns, cloneTurns(turns)...)
	return nil
}

// cloneTurns copies turns and their tool call slices so callers cannot
// mutate stored history.
func cloneTurns(turns []agent.Turn) []agent.Turn {
	out := make([]agent.Turn, len(turns))
	for i, t := range turns {
		if t.ToolCalls != nil {
			calls := make([]agent.ToolCall, len(t.ToolCalls))
			copy(calls, t.ToolCalls)
			t.ToolCalls = calls
		}
		out[i] = t
	}
	return out
}
