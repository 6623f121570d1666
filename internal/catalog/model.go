package catalog

// Profile describes one routable model.
// Fields match the catalog file schema.
type Profile struct {
	Name            string   `yaml:"name" json:"name"`
	Modalities      []string `yaml:"modalities" json:"modalities"`
	Strengths       []string `yaml:"strengths" json:"strengths"`
	CostPer1KTokens float64  `yaml:"cost_per_1k_tokens" json:"cost_per_1k_tokens"`
	MaxTokens       int      `yaml:"max_tokens" json:"max_tokens"`
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	p.Modalities = cloneStrings(p.Modalities)
	p.Strengths = cloneStrings(p.Strengths)
	return p
}

// HasModality reports whether the profile supports the given modality.
func (p Profile) HasModality(m string) bool {
	for _, mod := range p.Modalities {
		if mod == m {
			return true
		}
	}
	return false
}

// File is the on-disk representation of a catalog.
type File struct {
	Version      string              `yaml:"version"`
	DefaultModel string              `yaml:"default_model"`
	Models       []Profile           `yaml:"models"`
	Priorities   map[string][]string `yaml:"priorities"`
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
