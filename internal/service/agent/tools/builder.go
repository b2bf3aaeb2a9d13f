package tools

import (
	"errors"
	"fmt"
	"regexp"

	svc "jobhunter/internal/domain/services/agent"
	"jobhunter/internal/service/agent/tools/external"
)

var toolNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// RegistryBuilder provides a fluent API for building the capability registry.
// Registration errors are collected and reported by Build.
type RegistryBuilder struct {
	handlers map[string]svc.ToolHandler
	order    []string
	config   *ToolConfig
	errs     []error
}

// NewRegistryBuilder creates a new builder with default tool configuration.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{
		handlers: make(map[string]svc.ToolHandler),
		config:   DefaultToolConfig(),
	}
}

// WithConfig sets custom tool configuration.
// If not called, defaults will be used.
func (b *RegistryBuilder) WithConfig(config *ToolConfig) *RegistryBuilder {
	if config != nil {
		b.config = config
	}
	return b
}

// Register adds a handler. Duplicate or invalid names make Build fail.
func (b *RegistryBuilder) Register(handler svc.ToolHandler) *RegistryBuilder {
	if handler == nil {
		b.errs = append(b.errs, errors.New("nil tool handler"))
		return b
	}

	name := handler.Spec().Name
	switch {
	case !toolNamePattern.MatchString(name):
		b.errs = append(b.errs, fmt.Errorf("invalid tool name %q", name))
	case b.handlers[name] != nil:
		b.errs = append(b.errs, fmt.Errorf("duplicate tool name %q", name))
	default:
		b.handlers[name] = handler
		b.order = append(b.order, name)
	}
	return b
}

// WithJobSearch registers the search_jobs tool backed by an external search client.
// Only registers if a client is provided.
func (b *RegistryBuilder) WithJobSearch(client external.SearchClient) *RegistryBuilder {
	if client != nil {
		b.Register(NewJobSearchTool(client, b.config))
	}
	return b
}

// Build freezes the registry. The builder must not be reused afterwards.
func (b *RegistryBuilder) Build() (*Registry, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	handlers := make(map[string]svc.ToolHandler, len(b.handlers))
	for name, h := range b.handlers {
		handlers[name] = h
	}
	order := make([]string, len(b.order))
	copy(order, b.order)

	return &Registry{handlers: handlers, order: order}, nil
}
