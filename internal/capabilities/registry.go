package capabilities

import (
	"embed"
	"fmt"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry is the read-only model capability catalogue.
// It is loaded once at startup and never mutated, so it needs no locking.
type Registry struct {
	providers map[string]*ProviderCapabilities
	order     []string
}

// NewRegistry loads every embedded provider file.
func NewRegistry() (*Registry, error) {
	entries, err := configFiles.ReadDir("config")
	if err != nil {
		return nil, fmt.Errorf("read capability configs: %w", err)
	}

	r := &Registry{providers: make(map[string]*ProviderCapabilities)}
	for _, entry := range entries {
		data, err := configFiles.ReadFile(path.Join("config", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if err := r.load(strings.TrimSuffix(entry.Name(), ".yaml"), data); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) load(name string, data []byte) error {
	var caps ProviderCapabilities
	if err := yaml.Unmarshal(data, &caps); err != nil {
		return fmt.Errorf("failed to unmarshal %s capabilities: %w", name, err)
	}
	if caps.Provider == "" {
		caps.Provider = name
	}
	for _, m := range caps.Models {
		if m.ContextWindow <= 0 {
			return fmt.Errorf("%s/%s: context_window must be positive", caps.Provider, m.ID)
		}
	}
	r.providers[caps.Provider] = &caps
	r.order = append(r.order, caps.Provider)
	return nil
}

// GetModelCapabilities returns capabilities for a specific model
func (r *Registry) GetModelCapabilities(provider, model string) (*ModelCapabilities, error) {
	providerCaps, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	for i := range providerCaps.Models {
		if providerCaps.Models[i].ID == model {
			return &providerCaps.Models[i], nil
		}
	}
	return nil, fmt.Errorf("unknown model %s for provider %s", model, provider)
}

// ContextWindow returns the model's context window, or fallback when the
// model is not catalogued.
func (r *Registry) ContextWindow(provider, model string, fallback int) int {
	if m, err := r.GetModelCapabilities(provider, model); err == nil {
		return m.ContextWindow
	}
	return fallback
}

// MaxOutput clamps requested to the model's output limit. Uncatalogued
// models get requested unchanged.
func (r *Registry) MaxOutput(provider, model string, requested int) int {
	m, err := r.GetModelCapabilities(provider, model)
	if err != nil || m.MaxOutput <= 0 {
		return requested
	}
	if requested <= 0 {
		return m.MaxOutput
	}
	return min(requested, m.MaxOutput)
}

// ListProviderModels returns all models for a provider (ordered as defined in YAML)
func (r *Registry) ListProviderModels(provider string) ([]ModelCapabilities, error) {
	providerCaps, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
	return slices.Clone(providerCaps.Models), nil
}

// GetAllProviders returns the catalogued providers in load order.
func (r *Registry) GetAllProviders() []string {
	return slices.Clone(r.order)
}
