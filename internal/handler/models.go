package handler

import (
	"log/slog"
	"net/http"

	"jobhunter/internal/capabilities"
	"jobhunter/internal/httputil"
)

// ModelsHandler handles HTTP requests for model capabilities
type ModelsHandler struct {
	registry  *capabilities.Registry
	available map[string]bool
	logger    *slog.Logger
}

// NewModelsHandler creates a new models handler. Only providers listed in
// configured are reported.
func NewModelsHandler(registry *capabilities.Registry, configured []string, logger *slog.Logger) *ModelsHandler {
	available := make(map[string]bool, len(configured))
	for _, p := range configured {
		available[p] = true
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelsHandler{
		registry:  registry,
		available: available,
		logger:    logger,
	}
}

// ProviderResponse represents a provider with its models
type ProviderResponse struct {
	ID     string          `json:"id"`
	Models []ModelResponse `json:"models"`
}

// ModelResponse represents a model's capabilities for the API response
type ModelResponse struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name"`
	ContextWindow int    `json:"context_window"`
	MaxOutput     int    `json:"max_output"`
	ToolCalls     string `json:"tool_calls,omitempty"` // excellent, good, basic; empty when unsupported
}

// GetCapabilities returns model capabilities for all configured providers
// GET /api/models
func (h *ModelsHandler) GetCapabilities(w http.ResponseWriter, r *http.Request) {
	providers := []ProviderResponse{}

	for _, id := range h.registry.GetAllProviders() {
		if !h.available[id] {
			continue
		}
		models, err := h.registry.ListProviderModels(id)
		if err != nil {
			h.logger.Warn("failed to list provider models", "provider", id, "error", err)
			continue
		}
		providers = append(providers, convertProvider(id, models))
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"providers": providers,
	})
}

func convertProvider(id string, models []capabilities.ModelCapabilities) ProviderResponse {
	out := ProviderResponse{ID: id, Models: make([]ModelResponse, 0, len(models))}
	for _, m := range models {
		resp := ModelResponse{
			ID:            m.ID,
			DisplayName:   m.DisplayName,
			ContextWindow: m.ContextWindow,
			MaxOutput:     m.MaxOutput,
		}
		if m.SupportsTools {
			resp.ToolCalls = string(m.ToolCallQuality)
		}
		out.Models = append(out.Models, resp)
	}
	return out
}
