package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/everstacklabs/modelrouter/internal/catalog"
	"github.com/everstacklabs/modelrouter/internal/router"
)

// Compute compares a candidate catalog against a base catalog.
func Compute(base, candidate *catalog.Catalog) *ChangeSet {
	cs := &ChangeSet{}

	for _, name := range candidate.ModelNames() {
		p, _ := candidate.Profile(name)
		old, exists := base.Profile(name)
		if !exists {
			cs.Added = append(cs.Added, ProfileChange{Name: name, Profile: p})
			continue
		}
		if changes := computeFieldChanges(old, p); len(changes) > 0 {
			cs.Updated = append(cs.Updated, ProfileUpdate{Name: name, Changes: changes})
		} else {
			cs.Unchanged++
		}
	}

	for _, name := range base.ModelNames() {
		if _, ok := candidate.Profile(name); !ok {
			p, _ := base.Profile(name)
			cs.Removed = append(cs.Removed, ProfileChange{Name: name, Profile: p})
		}
	}

	if base.DefaultModel != candidate.DefaultModel {
		cs.DefaultModel = &FieldChange{Field: "default_model", OldValue: base.DefaultModel, NewValue: candidate.DefaultModel}
	}

	oldSel := router.NewSelector(base)
	newSel := router.NewSelector(candidate)
	for _, category := range categoryUnion(base, candidate) {
		c := router.Category(category)
		oldCands := base.Priority(category)
		newCands := candidate.Priority(category)
		oldModel := oldSel.Select(c)
		newModel := newSel.Select(c)
		if oldModel == newModel && orderedEqual(oldCands, newCands) {
			continue
		}
		cs.Routing = append(cs.Routing, RoutingChange{
			Category:      category,
			OldModel:      oldModel,
			NewModel:      newModel,
			OldCandidates: oldCands,
			NewCandidates: newCands,
		})
	}

	return cs
}

func computeFieldChanges(existing, candidate catalog.Profile) []FieldChange {
	var changes []FieldChange

	if existing.CostPer1KTokens != candidate.CostPer1KTokens {
		changes = append(changes, FieldChange{Field: "cost_per_1k_tokens", OldValue: existing.CostPer1KTokens, NewValue: candidate.CostPer1KTokens})
	}
	if existing.MaxTokens != candidate.MaxTokens {
		changes = append(changes, FieldChange{Field: "max_tokens", OldValue: existing.MaxTokens, NewValue: candidate.MaxTokens})
	}

	// Modalities are a set; strengths are displayed in order.
	if !setEqual(existing.Modalities, candidate.Modalities) {
		changes = append(changes, FieldChange{Field: "modalities", OldValue: existing.Modalities, NewValue: candidate.Modalities})
	}
	if !orderedEqual(existing.Strengths, candidate.Strengths) {
		changes = append(changes, FieldChange{Field: "strengths", OldValue: existing.Strengths, NewValue: candidate.Strengths})
	}

	return changes
}

// categoryUnion returns the known categories followed by any extra keys
// either catalog defines, so unknown keys still show up in the diff.
func categoryUnion(a, b *catalog.Catalog) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range router.Categories() {
		seen[string(c)] = true
		out = append(out, string(c))
	}
	var extra []string
	for _, cat := range []*catalog.Catalog{a, b} {
		for _, name := range cat.CategoryNames() {
			if !seen[name] {
				seen[name] = true
				extra = append(extra, name)
			}
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// setEqual compares two string slices ignoring order.
func setEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := make([]string, len(a))
	copy(sa, a)
	sort.Strings(sa)
	sb := make([]string, len(b))
	copy(sb, b)
	sort.Strings(sb)
	return orderedEqual(sa, sb)
}

func orderedEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// RenderSummary formats a changeset for terminal output.
func RenderSummary(cs *ChangeSet) string {
	if !cs.HasChanges() {
		return fmt.Sprintf("No changes (%d profiles unchanged).", cs.Unchanged)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Profiles: %d added, %d removed, %d updated, %d unchanged\n",
		len(cs.Added), len(cs.Removed), len(cs.Updated), cs.Unchanged)

	for _, a := range cs.Added {
		fmt.Fprintf(&b, "  + %s ($%g/1K, %d tokens)\n", a.Name, a.Profile.CostPer1KTokens, a.Profile.MaxTokens)
	}
	for _, r := range cs.Removed {
		fmt.Fprintf(&b, "  - %s\n", r.Name)
	}
	for _, u := range cs.Updated {
		fmt.Fprintf(&b, "  ~ %s\n", u.Name)
		for _, c := range u.Changes {
			fmt.Fprintf(&b, "      %s: %v -> %v\n", c.Field, c.OldValue, c.NewValue)
		}
	}

	if cs.DefaultModel != nil {
		fmt.Fprintf(&b, "Default model: %v -> %v\n", cs.DefaultModel.OldValue, cs.DefaultModel.NewValue)
	}

	if len(cs.Routing) > 0 {
		b.WriteString("Routing:\n")
		for _, rc := range cs.Routing {
			marker := " "
			if rc.SelectionChanged() {
				marker = "!"
			}
			fmt.Fprintf(&b, "  %s %-16s %s -> %s  %v -> %v\n",
				marker, rc.Category, rc.OldModel, rc.NewModel, rc.OldCandidates, rc.NewCandidates)
		}
	}

	return b.String()
}
