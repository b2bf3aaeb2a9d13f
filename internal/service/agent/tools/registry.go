package tools

import (
	"fmt"

	svc "jobhunter/internal/domain/services/agent"
)

// Registry is the immutable capability registry: a name → handler map built
// once by RegistryBuilder and injected into each orchestrator run.
// It is safe for concurrent use because nothing mutates it after Build.
type Registry struct {
	handlers map[string]svc.ToolHandler
	order    []string // registration order, used for stable tool specs
}

// Get retrieves a tool handler by name.
func (r *Registry) Get(name string) (svc.ToolHandler, bool) {
	if r == nil {
		return nil, false
	}
	h, ok := r.handlers[name]
	return h, ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Specs returns the specs advertised to the model, in registration order.
func (r *Registry) Specs() []svc.ToolSpec {
	if r == nil {
		return nil
	}
	specs := make([]svc.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.handlers[name].Spec())
	}
	return specs
}

// Subset returns a new registry restricted to names, preserving this
// registry's order. An empty names list yields an empty registry.
// Unknown names are an error so misconfigured agent profiles fail at startup.
func (r *Registry) Subset(names []string) (*Registry, error) {
	allowed := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := r.Get(name); !ok {
			return nil, fmt.Errorf("tool not registered: %s", name)
		}
		allowed[name] = true
	}

	sub := &Registry{handlers: make(map[string]svc.ToolHandler, len(allowed))}
	for _, name := range r.order {
		if allowed[name] {
			sub.handlers[name] = r.handlers[name]
			sub.order = append(sub.order, name)
		}
	}
	return sub, nil
}
