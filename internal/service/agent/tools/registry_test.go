package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobhunter/internal/domain/models/agent"
	svc "jobhunter/internal/domain/services/agent"
)

func staticTool(name string, result agent.ToolResult, err error) svc.ToolHandler {
	return svc.ToolHandlerFunc{
		ToolSpec: svc.ToolSpec{Name: name, Description: name + " tool", InputSchema: map[string]any{"type": "object"}},
		Fn: func(ctx context.Context, params map[string]any) (agent.ToolResult, error) {
			return result, err
		},
	}
}

func TestRegistryBuilder_Build(t *testing.T) {
	registry, err := NewRegistryBuilder().
		Register(staticTool("alpha", agent.ToolResult{Success: true}, nil)).
		Register(staticTool("beta", agent.ToolResult{Success: true}, nil)).
		Build()
	require.NoError(t, err)

	assert.Equal(t, 2, registry.Len())
	assert.Equal(t, []string{"alpha", "beta"}, registry.Names())

	specs := registry.Specs()
	require.Len(t, specs, 2)
	assert.Equal(t, "alpha", specs[0].Name)
	assert.Equal(t, "beta", specs[1].Name)

	h, ok := registry.Get("beta")
	require.True(t, ok)
	assert.Equal(t, "beta", h.Spec().Name)

	_, ok = registry.Get("gamma")
	assert.False(t, ok)
}

func TestRegistryBuilder_RejectsBadRegistrations(t *testing.T) {
	tests := []struct {
		name     string
		handlers []svc.ToolHandler
		wantErr  string
	}{
		{
			name: "duplicate name",
			handlers: []svc.ToolHandler{
				staticTool("alpha", agent.ToolResult{}, nil),
				staticTool("alpha", agent.ToolResult{}, nil),
			},
			wantErr: `duplicate tool name "alpha"`,
		},
		{
			name:     "invalid name",
			handlers: []svc.ToolHandler{staticTool("has space", agent.ToolResult{}, nil)},
			wantErr:  `invalid tool name "has space"`,
		},
		{
			name:     "empty name",
			handlers: []svc.ToolHandler{staticTool("", agent.ToolResult{}, nil)},
			wantErr:  `invalid tool name ""`,
		},
		{
			name:     "nil handler",
			handlers: []svc.ToolHandler{nil},
			wantErr:  "nil tool handler",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewRegistryBuilder()
			for _, h := range tt.handlers {
				b.Register(h)
			}
			registry, err := b.Build()
			require.Error(t, err)
			assert.Nil(t, registry)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRegistryBuilder_BuildIsImmutable(t *testing.T) {
	b := NewRegistryBuilder().Register(staticTool("alpha", agent.ToolResult{}, nil))
	registry, err := b.Build()
	require.NoError(t, err)

	b.Register(staticTool("beta", agent.ToolResult{}, nil))

	assert.Equal(t, 1, registry.Len())
	_, ok := registry.Get("beta")
	assert.False(t, ok)
}

func TestRegistryBuilder_WithJobSearchSkipsNilClient(t *testing.T) {
	registry, err := NewRegistryBuilder().WithJobSearch(nil).Build()
	require.NoError(t, err)
	assert.Equal(t, 0, registry.Len())

	registry, err = NewRegistryBuilder().WithJobSearch(&fakeSearchClient{}).Build()
	require.NoError(t, err)
	assert.Equal(t, []string{JobSearchToolName}, registry.Names())
}

func TestRegistry_Subset(t *testing.T) {
	registry, err := NewRegistryBuilder().
		Register(staticTool("alpha", agent.ToolResult{}, nil)).
		Register(staticTool("beta", agent.ToolResult{}, nil)).
		Register(staticTool("gamma", agent.ToolResult{}, nil)).
		Build()
	require.NoError(t, err)

	t.Run("empty list allows nothing", func(t *testing.T) {
		sub, err := registry.Subset([]string{})
		require.NoError(t, err)
		assert.Equal(t, 0, sub.Len())
		assert.Empty(t, sub.Specs())
	})

	t.Run("keeps registration order", func(t *testing.T) {
		sub, err := registry.Subset([]string{"gamma", "alpha"})
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "gamma"}, sub.Names())
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := registry.Subset([]string{"alpha", "delta"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tool not registered: delta")
	})
}

func TestRegistry_NilSafe(t *testing.T) {
	var registry *Registry
	assert.Equal(t, 0, registry.Len())
	assert.Nil(t, registry.Names())
	assert.Nil(t, registry.Specs())
	_, ok := registry.Get("alpha")
	assert.False(t, ok)
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	registry, err := NewRegistryBuilder().
		Register(staticTool("alpha", agent.ToolResult{Success: true}, nil)).
		Build()
	require.NoError(t, err)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				_, _ = registry.Get("alpha")
				_ = registry.Specs()
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

var errBoom = errors.New("boom")
