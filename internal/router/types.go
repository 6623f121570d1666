package router

import "fmt"

// Category is the query-intent class that drives model choice.
type Category string

const (
	CategoryImageAnalysis   Category = "image_analysis"
	CategoryCreativeWriting Category = "creative_writing"
	CategoryComplexCode     Category = "complex_code"
	CategoryLongContext     Category = "long_context"
	CategoryFastLowCost     Category = "fast_low_cost"
	CategoryGeneralText     Category = "general_text"
)

// Categories returns every category in classification order.
func Categories() []Category {
	return []Category{
		CategoryImageAnalysis,
		CategoryCreativeWriting,
		CategoryComplexCode,
		CategoryLongContext,
		CategoryFastLowCost,
		CategoryGeneralText,
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// Decision is the outcome of routing one query.
type Decision struct {
	Category         Category `json:"category" yaml:"category"`
	SelectedModel    string   `json:"selected_model" yaml:"selected_model"`
	EstimatedCostUSD float64  `json:"estimated_cost_usd" yaml:"estimated_cost_usd"`
	MaxTokens        int      `json:"max_tokens_supported" yaml:"max_tokens_supported"`
	Modalities       []string `json:"modalities" yaml:"modalities"`
	Strengths        []string `json:"strengths" yaml:"strengths"`
}

// ProfileNotFoundError means the selector produced a model with no profile.
// It indicates inconsistent routing tables and should be treated as fatal.
type ProfileNotFoundError struct {
	Model    string
	Category Category
}

func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf("no profile for model %q selected for category %s", e.Model, e.Category)
}
