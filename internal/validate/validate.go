package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/everstacklabs/modelrouter/internal/catalog"
	"github.com/everstacklabs/modelrouter/internal/router"
)

// Severity classifies validation issues.
type Severity int

const (
	SeverityError   Severity = iota // Routing tables are inconsistent
	SeverityWarning                 // Routing still works but degrades to defaults
)

// Issue represents a single validation problem.
type Issue struct {
	Severity Severity
	Subject  string // model name or category
	Field    string
	Message  string
}

func (i Issue) String() string {
	sev := "ERROR"
	if i.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s: %s", sev, i.Subject, i.Field, i.Message)
}

// Result holds all validation issues.
type Result struct {
	Issues []Issue
}

// HasErrors returns true if there are any blocking errors.
func (r *Result) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only error-severity issues.
func (r *Result) Errors() []Issue {
	var errs []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			errs = append(errs, i)
		}
	}
	return errs
}

// Warnings returns only warning-severity issues.
func (r *Result) Warnings() []Issue {
	var warns []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityWarning {
			warns = append(warns, i)
		}
	}
	return warns
}

func (r *Result) add(sev Severity, subject, field, msg string) {
	r.Issues = append(r.Issues, Issue{Severity: sev, Subject: subject, Field: field, Message: msg})
}

// Known modality values.
var knownModalities = map[string]bool{
	"text":  true,
	"code":  true,
	"image": true,
	"audio": true,
	"video": true,
}

// ValidateProfile checks a single profile.
func ValidateProfile(p catalog.Profile) *Result {
	r := &Result{}
	subject := p.Name
	if subject == "" {
		subject = "<unnamed>"
		r.add(SeverityError, subject, "name", "required field is empty")
	}

	if p.CostPer1KTokens <= 0 {
		r.add(SeverityError, subject, "cost_per_1k_tokens",
			fmt.Sprintf("value %.6f must be positive", p.CostPer1KTokens))
	}
	if p.MaxTokens <= 0 {
		r.add(SeverityError, subject, "max_tokens",
			fmt.Sprintf("value %d must be positive", p.MaxTokens))
	}
	if len(p.Modalities) == 0 {
		r.add(SeverityError, subject, "modalities", "at least one modality required")
	}
	for _, mod := range p.Modalities {
		if !knownModalities[mod] {
			r.add(SeverityWarning, subject, "modalities", fmt.Sprintf("unknown modality %q", mod))
		}
	}
	if len(p.Strengths) == 0 {
		r.add(SeverityWarning, subject, "strengths", "no strengths listed")
	}

	return r
}

// ValidateCatalog checks every profile and the priority table.
// Every category must map to a non-empty list of known models; gaps are
// survivable (the selector falls back to the default) but reported.
func ValidateCatalog(cat *catalog.Catalog) *Result {
	r := &Result{}

	for _, name := range cat.ModelNames() {
		p, _ := cat.Profile(name)
		if p.Name != name {
			r.add(SeverityError, name, "name", fmt.Sprintf("profile keyed as %q is named %q", name, p.Name))
		}
		r.Issues = append(r.Issues, ValidateProfile(p).Issues...)
	}

	if cat.DefaultModel == "" {
		r.add(SeverityError, "catalog", "default_model", "required field is empty")
	} else if _, ok := cat.Profile(cat.DefaultModel); !ok {
		r.add(SeverityError, "catalog", "default_model",
			fmt.Sprintf("default model %q has no profile", cat.DefaultModel))
	}

	for _, name := range cat.CategoryNames() {
		if !router.Category(name).Valid() {
			r.add(SeverityError, name, "priorities", "unknown category")
		}
	}

	for _, c := range router.Categories() {
		validatePriority(r, cat, c)
	}

	return r
}

func validatePriority(r *Result, cat *catalog.Catalog, c router.Category) {
	subject := string(c)
	models, ok := cat.Priorities[subject]
	if !ok {
		r.add(SeverityWarning, subject, "priorities",
			fmt.Sprintf("no priority list, falls back to %s", cat.DefaultModel))
		return
	}
	if len(models) == 0 {
		r.add(SeverityWarning, subject, "priorities",
			fmt.Sprintf("empty priority list, falls back to %s", cat.DefaultModel))
		return
	}

	seen := make(map[string]bool, len(models))
	for i, m := range models {
		if seen[m] {
			r.add(SeverityWarning, subject, fmt.Sprintf("priorities[%d]", i),
				fmt.Sprintf("duplicate entry %q", m))
		}
		seen[m] = true
		if _, ok := cat.Profile(m); !ok {
			r.add(SeverityError, subject, fmt.Sprintf("priorities[%d]", i),
				fmt.Sprintf("unknown model %q", m))
		}
	}

	if c == router.CategoryImageAnalysis {
		if head, ok := cat.Profile(models[0]); ok && !head.HasModality("image") {
			r.add(SeverityWarning, subject, "priorities[0]",
				fmt.Sprintf("model %q does not support image input", head.Name))
		}
	}
}

// FormatResult formats validation results for display.
func FormatResult(r *Result) string {
	if len(r.Issues) == 0 {
		return "Validation passed: no issues found."
	}

	var b strings.Builder
	errors := sorted(r.Errors())
	warnings := sorted(r.Warnings())

	if len(errors) > 0 {
		b.WriteString(fmt.Sprintf("Errors (%d):\n", len(errors)))
		for _, e := range errors {
			b.WriteString(fmt.Sprintf("  %s\n", e))
		}
	}

	if len(warnings) > 0 {
		b.WriteString(fmt.Sprintf("Warnings (%d):\n", len(warnings)))
		for _, w := range warnings {
			b.WriteString(fmt.Sprintf("  %s\n", w))
		}
	}

	return b.String()
}

func sorted(issues []Issue) []Issue {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Subject != issues[j].Subject {
			return issues[i].Subject < issues[j].Subject
		}
		return issues[i].Field < issues[j].Field
	})
	return issues
}
