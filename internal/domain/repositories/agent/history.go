package agent

import (
	"context"

	"jobhunter/internal/domain/models/agent"
)

// HistoryStore persists conversation turns per session. A session belongs to
// the user that appended its first turns; userID is "" when requests are
// unauthenticated.
type HistoryStore interface {
	// LoadHistory returns the turns of a session in order.
	// Returns domain.ErrNotFound if the session has no history and
	// domain.ErrForbidden if it belongs to another user.
	LoadHistory(ctx context.Context, userID, sessionID string) ([]agent.Turn, error)

	// AppendTurns appends turns to a session, creating it for userID if
	// needed. Turns are stored atomically: either all are appended or none.
	// Returns domain.ErrForbidden if the session belongs to another user.
	AppendTurns(ctx context.Context, userID, sessionID string, turns []agent.Turn) error
}
