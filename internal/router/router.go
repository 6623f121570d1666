// Package router maps free-text queries to a preferred model.
//
// Routing is a pure table lookup: Classify assigns a Category from keyword
// and token-count rules, the Selector takes the first model of that
// category's priority list, and Route prices the estimate against the
// chosen model's profile.
package router

import (
	"errors"
	"math"
	"sync"

	"github.com/everstacklabs/modelrouter/internal/catalog"
)

// costScale rounds estimated costs to 4 decimal places.
const costScale = 10000

// Router routes queries against an immutable copy of a catalog.
// It is safe for concurrent use.
type Router struct {
	catalog  *catalog.Catalog
	selector *Selector
}

// New creates a Router from cat. The catalog is copied so later changes
// by the caller are not observed.
func New(cat *catalog.Catalog) (*Router, error) {
	if cat == nil {
		return nil, errors.New("router: nil catalog")
	}
	own := cat.Clone()
	return &Router{
		catalog:  own,
		selector: NewSelector(own),
	}, nil
}

// Route classifies the query, selects a model and estimates the cost.
// It returns a *ProfileNotFoundError when the selected model has no profile.
func (r *Router) Route(query string, hasImage bool, estimatedTokens int) (Decision, error) {
	category := Classify(query, hasImage, estimatedTokens)
	model := r.selector.Select(category)

	profile, ok := r.catalog.Profile(model)
	if !ok {
		return Decision{}, &ProfileNotFoundError{Model: model, Category: category}
	}

	return Decision{
		Category:         category,
		SelectedModel:    model,
		EstimatedCostUSD: EstimateCost(profile.CostPer1KTokens, estimatedTokens),
		MaxTokens:        profile.MaxTokens,
		Modalities:       profile.Modalities,
		Strengths:        profile.Strengths,
	}, nil
}

// Select exposes the router's model choice for a category.
func (r *Router) Select(c Category) string {
	return r.selector.Select(c)
}

// Candidates returns the ranked models for a category.
func (r *Router) Candidates(c Category) []string {
	return r.selector.Candidates(c)
}

// Profiles returns copies of all profiles sorted by model name.
func (r *Router) Profiles() []catalog.Profile {
	names := r.catalog.ModelNames()
	out := make([]catalog.Profile, 0, len(names))
	for _, name := range names {
		p, _ := r.catalog.Profile(name)
		out = append(out, p)
	}
	return out
}

// EstimateCost prices tokens at costPer1K, rounded half-up to 4 decimals.
// Negative token counts cost nothing.
func EstimateCost(costPer1K float64, tokens int) float64 {
	if tokens <= 0 {
		return 0
	}
	cost := costPer1K * float64(tokens) / 1000
	return math.Round(cost*costScale) / costScale
}

var builtin = sync.OnceValue(func() *Router {
	r, _ := New(catalog.Builtin())
	return r
})

// Route routes a query against the built-in catalog.
func Route(query string, hasImage bool, estimatedTokens int) (Decision, error) {
	return builtin().Route(query, hasImage, estimatedTokens)
}

// Select returns the built-in catalog's model for a category.
func Select(c Category) string {
	return builtin().Select(c)
}
