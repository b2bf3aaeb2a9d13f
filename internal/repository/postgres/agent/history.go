// Package agent implements the conversation HistoryStore on PostgreSQL.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"jobhunter/internal/domain"
	"jobhunter/internal/domain/models/agent"
	"jobhunter/internal/domain/repositories"
	agentRepo "jobhunter/internal/domain/repositories/agent"
	"jobhunter/internal/repository/postgres"
)

// PostgresHistoryStore implements the HistoryStore interface using PostgreSQL
type PostgresHistoryStore struct {
	pool      *pgxpool.Pool
	tables    *postgres.TableNames
	txManager repositories.TransactionManager
	logger    *slog.Logger
	now       func() time.Time
}

// NewHistoryStore creates a new PostgresHistoryStore
func NewHistoryStore(config *postgres.RepositoryConfig, txManager repositories.TransactionManager) agentRepo.HistoryStore {
	return &PostgresHistoryStore{
		pool:      config.Pool,
		tables:    config.Tables,
		txManager: txManager,
		logger:    config.Logger,
		now:       time.Now,
	}
}

// LoadHistory implements HistoryStore
func (r *PostgresHistoryStore) LoadHistory(ctx context.Context, userID, sessionID string) ([]agent.Turn, error) {
	query := fmt.Sprintf(`
		SELECT role, content, tool_call_id, tool_name, tool_calls, is_error, created_at
		FROM %s
		WHERE session_id = $1 AND user_id = $2
		ORDER BY seq
	`, r.tables.ConversationTurns)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []agent.Turn
	for rows.Next() {
		var (
			turn       agent.Turn
			role       string
			toolCallID *string
			toolName   *string
			toolCalls  []byte
		)
		if err := rows.Scan(&role, &turn.Content, &toolCallID, &toolName, &toolCalls, &turn.IsError, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turn.Role = agent.Role(role)
		if toolCallID != nil {
			turn.ToolCallID = *toolCallID
		}
		if toolName != nil {
			turn.ToolName = *toolName
		}
		if turn.ToolCalls, err = decodeToolCalls(toolCalls); err != nil {
			return nil, fmt.Errorf("session %s: %w", sessionID, err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	if len(turns) == 0 {
		return nil, r.missingSession(ctx, sessionID)
	}
	return turns, nil
}

// missingSession tells a session that does not exist from one owned by
// another user.
func (r *PostgresHistoryStore) missingSession(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE session_id = $1)`, r.tables.ConversationTurns)

	var exists bool
	if err := postgres.GetExecutor(ctx, r.pool).QueryRow(ctx, query, sessionID).Scan(&exists); err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if exists {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrForbidden)
	}
	return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
}

// AppendTurns implements HistoryStore.
// Appends to one session are serialised with a transaction-scoped advisory
// lock so sequence numbers never collide and ownership is checked against
// the committed first turn.
func (r *PostgresHistoryStore) AppendTurns(ctx context.Context, userID, sessionID string, turns []agent.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	rows, err := r.encodeTurns(turns)
	if err != nil {
		return err
	}

	lockQuery := `SELECT pg_advisory_xact_lock(hashtext($1))`
	ownerQuery := fmt.Sprintf(`SELECT user_id FROM %s WHERE session_id = $1 ORDER BY seq LIMIT 1`, r.tables.ConversationTurns)
	seqQuery := fmt.Sprintf(`SELECT COALESCE(MAX(seq), 0) FROM %s WHERE session_id = $1`, r.tables.ConversationTurns)
	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (session_id, user_id, seq, role, content, tool_call_id, tool_name, tool_calls, is_error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.tables.ConversationTurns)

	err = r.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		executor := postgres.GetExecutor(txCtx, r.pool)

		if _, err := executor.Exec(txCtx, lockQuery, sessionID); err != nil {
			return fmt.Errorf("lock session: %w", err)
		}

		var owner string
		err := executor.QueryRow(txCtx, ownerQuery, sessionID).Scan(&owner)
		switch {
		case postgres.IsPgNoRowsError(err):
		case err != nil:
			return fmt.Errorf("read session owner: %w", err)
		case owner != userID:
			return fmt.Errorf("session %s: %w", sessionID, domain.ErrForbidden)
		}

		var last int
		if err := executor.QueryRow(txCtx, seqQuery, sessionID).Scan(&last); err != nil {
			return fmt.Errorf("read last seq: %w", err)
		}

		for i, row := range rows {
			_, err := executor.Exec(txCtx, insertQuery,
				sessionID, userID, last+i+1, row.role, row.content,
				row.toolCallID, row.toolName, row.toolCalls, row.isError, row.createdAt,
			)
			if err != nil {
				if postgres.IsPgDuplicateError(err) {
					return fmt.Errorf("turn %d of session %s already exists: %w", last+i+1, sessionID, err)
				}
				return fmt.Errorf("insert turn: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Debug("turns appended", "session_id", sessionID, "user_id", userID, "count", len(rows))
	return nil
}

type turnRow struct {
	role       string
	content    string
	toolCallID *string
	toolName   *string
	toolCalls  []byte
	isError    bool
	createdAt  time.Time
}

// encodeTurns validates every turn before anything is written.
func (r *PostgresHistoryStore) encodeTurns(turns []agent.Turn) ([]turnRow, error) {
	rows := make([]turnRow, len(turns))
	for i, t := range turns {
		if !t.Role.Valid() {
			return nil, fmt.Errorf("%w: turn %d has unknown role %q", domain.ErrValidation, i, t.Role)
		}
		calls, err := encodeToolCalls(t.ToolCalls)
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", i, err)
		}
		createdAt := t.CreatedAt
		if createdAt.IsZero() {
			createdAt = r.now()
		}
		rows[i] = turnRow{
			role:       string(t.Role),
			content:    t.Content,
			toolCallID: nullable(t.ToolCallID),
			toolName:   nullable(t.ToolName),
			toolCalls:  calls,
			isError:    t.IsError,
			createdAt:  createdAt,
		}
	}
	return rows, nil
}

func encodeToolCalls(calls []agent.ToolCall) ([]byte, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(calls)
	if err != nil {
		return nil, fmt.Errorf("encode tool calls: %w", err)
	}
	return data, nil
}

func decodeToolCalls(data []byte) ([]agent.ToolCall, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var calls []agent.ToolCall
	if err := json.Unmarshal(data, &calls); err != nil {
		return nil, fmt.Errorf("decode tool calls: %w", err)
	}
	return calls, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
