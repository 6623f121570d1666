package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/everstacklabs/modelrouter/internal/router"
)

// ExitCode constants for CLI.
const (
	ExitSuccess = 0
	ExitFailure = 1 // Invalid catalog or fatal routing error
	ExitChanges = 2 // Changes detected (diff mode)
)

// Item is one query to route. A nil EstimatedTokens uses the pipeline default.
type Item struct {
	Query           string `yaml:"query"`
	HasImage        bool   `yaml:"has_image"`
	EstimatedTokens *int   `yaml:"estimated_tokens,omitempty"`
}

// Result holds the outcome of routing one item.
type Result struct {
	Item     Item
	Tokens   int
	Decision router.Decision
}

// Summary aggregates a batch.
type Summary struct {
	Results      []Result
	TotalCostUSD float64
	ByModel      map[string]int
}

// Pipeline routes batches of queries through a Router.
type Pipeline struct {
	router        *router.Router
	defaultTokens int
}

// New creates a new Pipeline.
func New(r *router.Router, defaultTokens int) *Pipeline {
	return &Pipeline{router: r, defaultTokens: defaultTokens}
}

// Run routes every item in order. A ProfileNotFoundError means the
// routing tables are inconsistent, so the batch stops there.
func (p *Pipeline) Run(items []Item) (*Summary, error) {
	summary := &Summary{ByModel: make(map[string]int)}

	for i, item := range items {
		tokens := p.defaultTokens
		if item.EstimatedTokens != nil {
			tokens = *item.EstimatedTokens
		}

		d, err := p.router.Route(item.Query, item.HasImage, tokens)
		if err != nil {
			var pnf *router.ProfileNotFoundError
			if errors.As(err, &pnf) {
				slog.Error("routing table inconsistent", "item", i, "model", pnf.Model, "category", pnf.Category)
			}
			return summary, fmt.Errorf("routing item %d: %w", i, err)
		}

		slog.Debug("query routed", "item", i, "category", d.Category, "model", d.SelectedModel, "cost_usd", d.EstimatedCostUSD)
		summary.Results = append(summary.Results, Result{Item: item, Tokens: tokens, Decision: d})
		summary.TotalCostUSD = roundCost(summary.TotalCostUSD + d.EstimatedCostUSD)
		summary.ByModel[d.SelectedModel]++
	}

	return summary, nil
}

func roundCost(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// LoadItems reads a YAML list of items.
func LoadItems(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading batch file: %w", err)
	}
	var items []Item
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing batch file: %w", err)
	}
	return items, nil
}

// Examples returns a sample batch covering the main categories.
func Examples() []Item {
	tokens := func(n int) *int { return &n }
	return []Item{
		{Query: "Can you analyze this Python function and explain the bug?", EstimatedTokens: tokens(1500)},
		{Query: "Here's an image of a receipt. Summarize the total items.", HasImage: true, EstimatedTokens: tokens(500)},
		{Query: "Write a short story about dragons and space travel", EstimatedTokens: tokens(3000)},
		{Query: "Quick answer: What is the capital of France?", EstimatedTokens: tokens(200)},
		{Query: "Give me a 150,000 token report about world history", EstimatedTokens: tokens(150000)},
	}
}
