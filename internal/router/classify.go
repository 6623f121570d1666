package router

import "strings"

const (
	// LongContextThreshold is exceeded (strictly) by long_context queries.
	LongContextThreshold = 100000
	// LowCostThreshold is undercut (strictly) by fast_low_cost queries.
	LowCostThreshold = 1000
)

var (
	creativeKeywords = []string{"generate", "creative", "story"}
	codeKeywords     = []string{"analyze", "debug", "explain", "code"}
	quickKeywords    = []string{"quick"}
)

// signal carries the classifier inputs after normalization.
type signal struct {
	query    string
	hasImage bool
	tokens   int
}

type guard struct {
	category Category
	match    func(s signal) bool
}

// guards are evaluated in order and the first match wins. Keyword sets
// overlap, so the order is observable: "story" beats "debug".
var guards = []guard{
	{CategoryImageAnalysis, func(s signal) bool { return s.hasImage }},
	{CategoryCreativeWriting, func(s signal) bool { return containsAny(s.query, creativeKeywords) }},
	{CategoryComplexCode, func(s signal) bool { return containsAny(s.query, codeKeywords) }},
	{CategoryLongContext, func(s signal) bool { return s.tokens > LongContextThreshold }},
	{CategoryFastLowCost, func(s signal) bool {
		return containsAny(s.query, quickKeywords) || s.tokens < LowCostThreshold
	}},
}

// Classify assigns exactly one category to a query. Keyword matching is
// case-insensitive substring matching; general_text is the fallback.
func Classify(query string, hasImage bool, estimatedTokens int) Category {
	s := signal{
		query:    strings.ToLower(query),
		hasImage: hasImage,
		tokens:   estimatedTokens,
	}
	for _, g := range guards {
		if g.match(s) {
			return g.category
		}
	}
	return CategoryGeneralText
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
