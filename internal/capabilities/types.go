package capabilities

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ToolCallQuality represents how well a model handles function calling
type ToolCallQuality string

const (
	ToolCallQualityExcellent ToolCallQuality = "excellent"
	ToolCallQualityGood      ToolCallQuality = "good"
	ToolCallQualityBasic     ToolCallQuality = "basic"
)

// ModelCapabilities is the catalogue entry of one model.
type ModelCapabilities struct {
	// Model identifier (set during YAML unmarshaling)
	ID string `yaml:"-" json:"id"`

	DisplayName string `yaml:"display_name" json:"display_name"`

	SupportsTools   bool            `yaml:"supports_tools" json:"supports_tools"`
	ToolCallQuality ToolCallQuality `yaml:"tool_call_quality" json:"tool_call_quality,omitempty"`

	// ContextWindow is the budget maximum for a session on this model.
	ContextWindow int `yaml:"context_window" json:"context_window"`
	// MaxOutput caps max_tokens for a single model call.
	MaxOutput int `yaml:"max_output" json:"max_output"`
}

// ProviderCapabilities represents all models for a provider
type ProviderCapabilities struct {
	Provider string              `yaml:"provider" json:"provider"`
	Models   []ModelCapabilities `yaml:"-" json:"models"` // YAML order
}

// UnmarshalYAML decodes the models mapping while keeping its key order.
func (p *ProviderCapabilities) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("provider capabilities: expected mapping, got kind %d", node.Kind)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "provider":
			p.Provider = value.Value
		case "models":
			if value.Kind != yaml.MappingNode {
				return fmt.Errorf("provider capabilities: models must be a mapping")
			}
			for j := 0; j+1 < len(value.Content); j += 2 {
				var model ModelCapabilities
				if err := value.Content[j+1].Decode(&model); err != nil {
					return fmt.Errorf("model %s: %w", value.Content[j].Value, err)
				}
				model.ID = value.Content[j].Value
				p.Models = append(p.Models, model)
			}
		}
	}
	return nil
}
