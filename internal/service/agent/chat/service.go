// Package chat implements the ChatService: request validation, session
// hydration, one orchestrator run per message, and persistence of the turns
// the run produced.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"jobhunter/internal/agents"
	"jobhunter/internal/capabilities"
	"jobhunter/internal/config"
	"jobhunter/internal/domain"
	"jobhunter/internal/domain/models/agent"
	agentRepo "jobhunter/internal/domain/repositories/agent"
	svc "jobhunter/internal/domain/services/agent"
	"jobhunter/internal/service/agent/budget"
	"jobhunter/internal/service/agent/conversation"
	"jobhunter/internal/service/agent/orchestrator"
	"jobhunter/internal/service/agent/tools"
)

// Config holds the limits applied when a profile or the capability
// catalogue does not specify them.
type Config struct {
	DefaultContextWindow int
	MaxOutputTokens      int
}

// Deps are the collaborators of the chat service.
type Deps struct {
	Agents       *agents.Catalog
	Providers    map[string]svc.ModelClient
	Tools        *tools.Registry
	Capabilities *capabilities.Registry
	History      agentRepo.HistoryStore
	Orchestrator *orchestrator.Orchestrator
	Config       Config
	Logger       *slog.Logger
}

// runtime is a profile resolved against providers, tools and capabilities.
type runtime struct {
	profile    agents.Profile
	client     svc.ModelClient
	tools      *tools.Registry
	maxContext int
	maxTokens  int
}

// Service implements svc.ChatService
type Service struct {
	orchestrator *orchestrator.Orchestrator
	history      agentRepo.HistoryStore
	runtimes     map[string]*runtime
	infos        []svc.AgentInfo
	logger       *slog.Logger
	newSessionID func() string
}

// NewService resolves every agent profile once. Profiles whose provider is
// not configured stay listed but unavailable; profiles naming unknown tools
// are a configuration error.
func NewService(deps Deps) (*Service, error) {
	if deps.Agents == nil || deps.History == nil || deps.Orchestrator == nil {
		return nil, errors.New("chat service: agents, history and orchestrator are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Config.DefaultContextWindow <= 0 {
		deps.Config.DefaultContextWindow = 200000
	}

	s := &Service{
		orchestrator: deps.Orchestrator,
		history:      deps.History,
		runtimes:     make(map[string]*runtime),
		logger:       logger,
		newSessionID: func() string { return uuid.NewString() },
	}

	for _, profile := range deps.Agents.List() {
		registry := deps.Tools
		if profile.Tools != nil {
			sub, err := deps.Tools.Subset(profile.Tools)
			if err != nil {
				return nil, fmt.Errorf("agent %s: %w", profile.ID, err)
			}
			registry = sub
		}

		maxContext := deps.Config.DefaultContextWindow
		maxTokens := deps.Config.MaxOutputTokens
		if profile.MaxOutputTokens > 0 {
			maxTokens = profile.MaxOutputTokens
		}
		if deps.Capabilities != nil {
			maxContext = deps.Capabilities.ContextWindow(profile.Provider, profile.Model, maxContext)
			maxTokens = deps.Capabilities.MaxOutput(profile.Provider, profile.Model, maxTokens)
		}

		client, ok := deps.Providers[profile.Provider]
		available := ok && client != nil && profile.Model != ""
		if available && registry.Len() > 0 && !supportsTools(client, deps.Capabilities, profile) {
			logger.Warn("model cannot call tools; agent runs without them",
				"agent_id", profile.ID, "provider", profile.Provider, "model", profile.Model)
			registry, _ = registry.Subset([]string{})
		}
		switch {
		case !ok || client == nil:
			logger.Warn("agent unavailable: provider not configured", "agent_id", profile.ID, "provider", profile.Provider)
		case profile.Model == "":
			logger.Warn("agent unavailable: no model configured", "agent_id", profile.ID, "provider", profile.Provider)
		}
		if available {
			s.runtimes[profile.ID] = &runtime{
				profile:    profile,
				client:     client,
				tools:      registry,
				maxContext: maxContext,
				maxTokens:  maxTokens,
			}
		}

		s.infos = append(s.infos, svc.AgentInfo{
			ID:            profile.ID,
			Name:          profile.Name,
			Description:   profile.Description,
			Provider:      profile.Provider,
			Model:         profile.Model,
			Tools:         registry.Names(),
			ContextWindow: maxContext,
			Available:     available,
		})
	}

	if len(s.runtimes) == 0 {
		logger.Warn("no agent is available; configure a provider API key")
	}
	return s, nil
}

// Chat implements svc.ChatService
func (s *Service) Chat(ctx context.Context, req *svc.ChatRequest, sink svc.EventSink) (*svc.RunResult, error) {
	if err := validateChatRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	rt, ok := s.runtimes[req.AgentID]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("agent %q not found or unavailable", req.AgentID)}
	}

	sessionID := req.SessionID
	var history []agent.Turn
	if sessionID == "" {
		sessionID = s.newSessionID()
	} else {
		loaded, err := s.history.LoadHistory(ctx, req.UserID, sessionID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			s.logger.Info("no history for session, starting fresh", "session_id", sessionID)
		case errors.Is(err, domain.ErrForbidden):
			s.logger.Warn("session resume by another user refused", "session_id", sessionID, "user_id", req.UserID)
			return nil, sessionNotFound(sessionID)
		case err != nil:
			return nil, fmt.Errorf("load history: %w", err)
		default:
			history = loaded
		}
	}

	state, err := conversation.Hydrate(history)
	if err != nil {
		return nil, fmt.Errorf("hydrate session %s: %w", sessionID, err)
	}
	// A previous run that died between an assistant turn and its results
	// would otherwise leave the history unreplayable.
	state.ClosePendingCalls("interrupted")

	tracker, err := budget.NewTracker(rt.maxContext)
	if err != nil {
		return nil, err
	}

	s.logger.Info("chat run starting",
		"session_id", sessionID,
		"user_id", req.UserID,
		"agent_id", rt.profile.ID,
		"provider", rt.client.Name(),
		"model", rt.profile.Model,
		"history_turns", len(history),
		"max_context", rt.maxContext,
	)

	result := s.orchestrator.Run(ctx, &orchestrator.Session{
		ID:           sessionID,
		Model:        rt.client,
		ModelName:    rt.profile.Model,
		SystemPrompt: rt.profile.SystemPrompt,
		MaxTokens:    rt.maxTokens,
		Tools:        rt.tools,
		State:        state,
		Tracker:      tracker,
	}, req.Message, sink)

	s.persist(ctx, req.UserID, sessionID, result.Turns)
	return result, nil
}

// persist stores the run's new turns. It outlives a disconnected client:
// the turns were produced and must not be lost with the request.
func (s *Service) persist(ctx context.Context, userID, sessionID string, turns []agent.Turn) {
	if len(turns) == 0 {
		return
	}
	if err := s.history.AppendTurns(context.WithoutCancel(ctx), userID, sessionID, turns); err != nil {
		s.logger.Error("failed to persist session turns",
			"session_id", sessionID,
			"turns", len(turns),
			"error", err,
		)
		return
	}
	s.logger.Debug("session turns persisted", "session_id", sessionID, "turns", len(turns))
}

// History implements svc.ChatService
func (s *Service) History(ctx context.Context, userID, sessionID string) ([]agent.Turn, error) {
	if err := validation.Validate(sessionID, validation.Required, validation.By(isUUID)); err != nil {
		return nil, fmt.Errorf("%w: sessionId: %v", domain.ErrValidation, err)
	}
	turns, err := s.history.LoadHistory(ctx, userID, sessionID)
	if errors.Is(err, domain.ErrForbidden) {
		return nil, sessionNotFound(sessionID)
	}
	return turns, err
}

// sessionNotFound reports a session owned by another user exactly like one
// that does not exist.
func sessionNotFound(sessionID string) error {
	return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
}

// Agents implements svc.ChatService
func (s *Service) Agents() []svc.AgentInfo {
	out := make([]svc.AgentInfo, len(s.infos))
	copy(out, s.infos)
	return out
}

// supportsTools consults the client first, then the capability catalogue.
// Models missing from the catalogue are assumed to support tools.
func supportsTools(client svc.ModelClient, caps *capabilities.Registry, profile agents.Profile) bool {
	if ts, ok := client.(svc.ToolSupport); ok && !ts.SupportsTools() {
		return false
	}
	if caps == nil {
		return true
	}
	mc, err := caps.GetModelCapabilities(profile.Provider, profile.Model)
	if err != nil {
		return true
	}
	return mc.SupportsTools
}

func validateChatRequest(req *svc.ChatRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Message,
			validation.Required,
			validation.Length(1, config.MaxMessageLength),
		),
		validation.Field(&req.AgentID,
			validation.Required,
			validation.Length(1, config.MaxIDLength),
		),
		validation.Field(&req.SessionID, validation.By(isUUID)),
	)
}

func isUUID(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return errors.New("must be a valid UUID")
	}
	return nil
}
