package agents

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"jobhunter/internal/domain"
)

//go:embed config/agents.yaml
var defaultProfiles []byte

// Catalog is the read-only set of agent profiles.
type Catalog struct {
	profiles map[string]Profile
	order    []string
}

type catalogFile struct {
	Agents []Profile `yaml:"agents"`
}

// Defaults controls how profiles without provider or model are completed.
type Defaults struct {
	Provider string
	Model    string
}

// LoadDefault parses the embedded profiles.
func LoadDefault(defaults Defaults) (*Catalog, error) {
	return Parse(defaultProfiles, defaults)
}

// LoadFile parses profiles from a YAML file on disk.
func LoadFile(path string, defaults Defaults) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent profiles: %w", err)
	}
	return Parse(data, defaults)
}

// Parse decodes and validates a profiles document.
func Parse(data []byte, defaults Defaults) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse agent profiles: %w", err)
	}
	if len(file.Agents) == 0 {
		return nil, fmt.Errorf("no agent profiles defined")
	}

	c := &Catalog{profiles: make(map[string]Profile, len(file.Agents))}
	for i, p := range file.Agents {
		if err := validation.Validate(p); err != nil {
			return nil, fmt.Errorf("agent profile %d (%s): %w", i, p.ID, err)
		}
		if _, dup := c.profiles[p.ID]; dup {
			return nil, fmt.Errorf("duplicate agent profile %q", p.ID)
		}
		c.profiles[p.ID] = p.withDefaults(defaults.Provider, defaults.Model)
		c.order = append(c.order, p.ID)
	}
	return c, nil
}

// Get returns a profile by id, or domain.ErrNotFound.
func (c *Catalog) Get(id string) (Profile, error) {
	p, ok := c.profiles[id]
	if !ok {
		return Profile{}, fmt.Errorf("agent %q: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

// List returns all profiles in file order.
func (c *Catalog) List() []Profile {
	out := make([]Profile, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.profiles[id])
	}
	return out
}

// IDs returns profile ids in file order.
func (c *Catalog) IDs() []string {
	return slices.Clone(c.order)
}
