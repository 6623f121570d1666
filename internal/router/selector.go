package router

import "github.com/everstacklabs/modelrouter/internal/catalog"

// Selector picks the preferred model for a category.
type Selector struct {
	priorities   map[Category][]string
	defaultModel string
}

// NewSelector copies the priority table out of cat.
func NewSelector(cat *catalog.Catalog) *Selector {
	s := &Selector{
		priorities:   make(map[Category][]string, len(cat.Priorities)),
		defaultModel: cat.DefaultModel,
	}
	if s.defaultModel == "" {
		s.defaultModel = catalog.DefaultModel
	}
	for category := range cat.Priorities {
		s.priorities[Category(category)] = cat.Priority(category)
	}
	return s
}

// Select returns the highest-ranked candidate for the category, or the
// default model when the category is unmapped or has no candidates.
func (s *Selector) Select(c Category) string {
	if candidates := s.priorities[c]; len(candidates) > 0 {
		return candidates[0]
	}
	return s.defaultModel
}

// Candidates returns a copy of the ranked list for the category.
func (s *Selector) Candidates(c Category) []string {
	candidates := s.priorities[c]
	out := make([]string, len(candidates))
	copy(out, candidates)
	return out
}

// DefaultModel returns the fallback model identifier.
func (s *Selector) DefaultModel() string {
	return s.defaultModel
}
