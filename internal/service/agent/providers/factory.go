// Package providers creates the model clients agent profiles refer to by
// provider name.
package providers

import (
	"fmt"
	"log/slog"
	"sort"

	"jobhunter/internal/config"
	svc "jobhunter/internal/domain/services/agent"
	"jobhunter/internal/service/agent/providers/anthropic"
	"jobhunter/internal/service/agent/providers/meridian"
)

// Factory creates model clients from configuration.
type Factory struct {
	config *config.Config
	logger *slog.Logger
}

// NewFactory creates a new provider factory
func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	return &Factory{
		config: cfg,
		logger: logger,
	}
}

// GetProvider returns a client for the given provider name.
//
// Supported providers:
//   - "anthropic" - Claude models via the Anthropic API
//   - "openrouter" - many vendors via OpenRouter (text only)
//   - "lorem" - mock provider, dev and test environments only
func (f *Factory) GetProvider(providerName string) (svc.ModelClient, error) {
	switch providerName {
	case anthropic.ProviderName:
		if f.config.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
		client, err := anthropic.NewClient(f.config.AnthropicAPIKey, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Anthropic client: %w", err)
		}
		return client, nil

	case "openrouter":
		if f.config.OpenRouterAPIKey == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY environment variable not set")
		}
		client, err := meridian.NewOpenRouterClient(f.config.OpenRouterAPIKey, f.logger)
		if err != nil {
			return nil, err
		}
		return client, nil

	case "lorem":
		if f.config.Environment != "dev" && f.config.Environment != "test" {
			return nil, fmt.Errorf("lorem provider is only available in dev/test environments")
		}
		return meridian.NewLoremClient(f.logger), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}
}

// BuildAll creates a client for every named provider that can be configured.
// Providers that fail are logged and left out; agents using them are
// reported as unavailable.
func (f *Factory) BuildAll(names []string) map[string]svc.ModelClient {
	unique := make(map[string]bool, len(names))
	for _, name := range names {
		unique[name] = true
	}
	sorted := make([]string, 0, len(unique))
	for name := range unique {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	clients := make(map[string]svc.ModelClient, len(sorted))
	for _, name := range sorted {
		client, err := f.GetProvider(name)
		if err != nil {
			f.logger.Warn("provider not configured", "provider", name, "error", err)
			continue
		}
		clients[name] = client
		f.logger.Info("provider configured", "provider", name)
	}
	return clients
}
