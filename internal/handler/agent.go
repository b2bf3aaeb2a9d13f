package handler

import (
	"log/slog"
	"net/http"

	"jobhunter/internal/domain/models/agent"
	svc "jobhunter/internal/domain/services/agent"
	"jobhunter/internal/handler/sse"
	"jobhunter/internal/httputil"
)

// AgentHandler serves the chat stream, session history and agent listing.
type AgentHandler struct {
	chat      svc.ChatService
	sseConfig *sse.Config
	logger    *slog.Logger
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(chat svc.ChatService, sseConfig *sse.Config, logger *slog.Logger) *AgentHandler {
	if sseConfig == nil {
		sseConfig = sse.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AgentHandler{
		chat:      chat,
		sseConfig: sseConfig,
		logger:    logger,
	}
}

// Chat runs one orchestration loop and streams its events.
// POST /api/agents/{agentId}/chat
//
// Request body: {"message": "...", "sessionId": "...", "agentId": "..."}.
// The agent in the path wins over the body. Requests rejected before the
// loop starts get a problem response; once the stream has started every
// failure is reported as an "error" event.
func (h *AgentHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req svc.ChatRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if agentID := r.PathValue("agentId"); agentID != "" {
		req.AgentID = agentID
	}
	req.UserID = httputil.GetUserID(r)

	writer, err := sse.NewWriter(w, h.sseConfig.EventIDs)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer writer.Close()

	keepAlive := h.sseConfig.NewStrategy()
	keepAlive.Start(writer, h.logger)
	defer keepAlive.Stop()

	result, err := h.chat.Chat(r.Context(), &req, writer)
	if err != nil {
		if writer.Started() {
			// Cannot switch to a problem response mid-stream.
			h.logger.Error("chat failed after stream start", "agent_id", req.AgentID, "error", err)
			return
		}
		handleError(w, h.logger, err)
		return
	}

	h.logger.Info("chat stream finished",
		"session_id", result.SessionID,
		"agent_id", req.AgentID,
		"decision", result.Decision,
		"iterations", result.Iterations,
		"cumulative_tokens", result.Budget.CumulativeTokens,
		"error", result.Err,
	)
}

// sessionTurnsResponse is the body of GET /api/sessions/{id}/turns
type sessionTurnsResponse struct {
	SessionID string       `json:"sessionId"`
	Turns     []agent.Turn `json:"turns"`
}

// SessionTurns returns the persisted history of a session owned by the
// caller. Another user's session is reported as not found.
// GET /api/sessions/{id}/turns
func (h *AgentHandler) SessionTurns(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	turns, err := h.chat.History(r.Context(), httputil.GetUserID(r), sessionID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, sessionTurnsResponse{SessionID: sessionID, Turns: turns})
}

// ListAgents returns the configured agent profiles.
// GET /api/agents
func (h *AgentHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"agents": h.chat.Agents(),
	})
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

