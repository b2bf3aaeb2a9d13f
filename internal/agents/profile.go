// Package agents loads the agent profiles a chat request can select.
package agents

import (
	"regexp"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var agentIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

// Profile configures one agent: which model serves it, how it is prompted,
// and which registry tools it may call. Empty Provider/Model fall back to the
// server defaults. A missing tools key grants every registered tool; an
// empty list grants none.
type Profile struct {
	ID              string   `yaml:"id" json:"id"`
	Name            string   `yaml:"name" json:"name"`
	Description     string   `yaml:"description" json:"description,omitempty"`
	Provider        string   `yaml:"provider" json:"provider"`
	Model           string   `yaml:"model" json:"model"`
	MaxOutputTokens int      `yaml:"max_output_tokens" json:"maxOutputTokens,omitempty"`
	Tools           []string `yaml:"tools" json:"tools"`
	SystemPrompt    string   `yaml:"system_prompt" json:"-"`
}

// Validate implements validation.Validatable
func (p Profile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID,
			validation.Required,
			validation.Match(agentIDPattern).Error("must be a lowercase slug"),
		),
		validation.Field(&p.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&p.SystemPrompt, validation.Required),
		validation.Field(&p.MaxOutputTokens, validation.Min(0)),
		validation.Field(&p.Tools, validation.Each(validation.Required)),
	)
}

// withDefaults fills an unset provider or model.
func (p Profile) withDefaults(provider, model string) Profile {
	if p.Provider == "" {
		p.Provider = provider
		if p.Model == "" {
			p.Model = model
		}
	}
	if p.Model == "" && p.Provider == provider {
		p.Model = model
	}
	p.Tools = slices.Clone(p.Tools)
	return p
}
