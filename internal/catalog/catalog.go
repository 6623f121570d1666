package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultModel is the model selected when a category has no usable priority list.
const DefaultModel = "gpt-4-turbo"

// Catalog holds the model profiles and per-category priority lists.
// A Catalog is not modified after construction; accessors return copies.
type Catalog struct {
	Version      string
	DefaultModel string
	Profiles     map[string]Profile  // keyed by model name
	Priorities   map[string][]string // keyed by category, most preferred first
}

// Builtin returns the stock routing table.
func Builtin() *Catalog {
	return &Catalog{
		Version:      "1",
		DefaultModel: DefaultModel,
		Profiles: map[string]Profile{
			"gpt-4-turbo": {
				Name:            "gpt-4-turbo",
				Modalities:      []string{"text", "code", "image"},
				Strengths:       []string{"complex reasoning", "multi-modal analysis", "coding"},
				CostPer1KTokens: 0.01,
				MaxTokens:       128000,
			},
			"claude-3-opus": {
				Name:            "claude-3-opus",
				Modalities:      []string{"text", "code", "image"},
				Strengths:       []string{"long-form reasoning", "code understanding", "factual accuracy"},
				CostPer1KTokens: 0.015,
				MaxTokens:       200000,
			},
			"gemini-1.5-pro": {
				Name:            "gemini-1.5-pro",
				Modalities:      []string{"text", "code", "image"},
				Strengths:       []string{"multi-modal chat", "creative writing", "fast execution"},
				CostPer1KTokens: 0.008,
				MaxTokens:       100000,
			},
			"mistral-medium": {
				Name:            "mistral-medium",
				Modalities:      []string{"text", "code"},
				Strengths:       []string{"lightweight tasks", "low-latency", "cost efficiency"},
				CostPer1KTokens: 0.003,
				MaxTokens:       32000,
			},
		},
		Priorities: map[string][]string{
			"image_analysis":   {"gpt-4-turbo", "claude-3-opus", "gemini-1.5-pro"},
			"complex_code":     {"claude-3-opus", "gpt-4-turbo", "gemini-1.5-pro"},
			"creative_writing": {"gemini-1.5-pro", "gpt-4-turbo"},
			"fast_low_cost":    {"mistral-medium", "gemini-1.5-pro"},
			"long_context":     {"claude-3-opus", "gpt-4-turbo"},
			"general_text":     {"gemini-1.5-pro", "mistral-medium"},
		},
	}
}

// Load reads a catalog file from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog from YAML.
// A missing default_model falls back to DefaultModel.
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	cat := &Catalog{
		Version:      f.Version,
		DefaultModel: f.DefaultModel,
		Profiles:     make(map[string]Profile, len(f.Models)),
		Priorities:   make(map[string][]string, len(f.Priorities)),
	}
	if cat.DefaultModel == "" {
		cat.DefaultModel = DefaultModel
	}

	for _, m := range f.Models {
		if _, dup := cat.Profiles[m.Name]; dup {
			return nil, fmt.Errorf("parsing catalog: duplicate model %q", m.Name)
		}
		cat.Profiles[m.Name] = m.Clone()
	}
	for category, models := range f.Priorities {
		cat.Priorities[category] = cloneStrings(models)
	}

	return cat, nil
}

// Profile returns a copy of the named model's profile.
func (c *Catalog) Profile(name string) (Profile, bool) {
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, false
	}
	return p.Clone(), true
}

// Priority returns a copy of the ranked candidates for a category.
func (c *Catalog) Priority(category string) []string {
	return cloneStrings(c.Priorities[category])
}

// ModelNames returns sorted model names.
func (c *Catalog) ModelNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CategoryNames returns the sorted category keys that have a priority entry.
func (c *Catalog) CategoryNames() []string {
	names := make([]string, 0, len(c.Priorities))
	for name := range c.Priorities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{
		Version:      c.Version,
		DefaultModel: c.DefaultModel,
		Profiles:     make(map[string]Profile, len(c.Profiles)),
		Priorities:   make(map[string][]string, len(c.Priorities)),
	}
	for name, p := range c.Profiles {
		out.Profiles[name] = p.Clone()
	}
	for category, models := range c.Priorities {
		out.Priorities[category] = cloneStrings(models)
	}
	return out
}
