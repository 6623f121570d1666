package diff

import (
	"strings"
	"testing"

	"github.com/everstacklabs/modelrouter/internal/catalog"
)

func TestIdenticalCatalogsHaveNoChanges(t *testing.T) {
	cs := Compute(catalog.Builtin(), catalog.Builtin())

	if cs.HasChanges() {
		t.Errorf("expected no changes, got:\n%s", RenderSummary(cs))
	}
	if cs.Unchanged != 4 {
		t.Errorf("expected 4 unchanged, got %d", cs.Unchanged)
	}
	if !strings.HasPrefix(RenderSummary(cs), "No changes") {
		t.Errorf("unexpected summary: %q", RenderSummary(cs))
	}
}

func TestAddedAndRemovedProfiles(t *testing.T) {
	candidate := catalog.Builtin()
	delete(candidate.Profiles, "mistral-medium")
	candidate.Profiles["mistral-small"] = catalog.Profile{
		Name:            "mistral-small",
		Modalities:      []string{"text"},
		Strengths:       []string{"cheap"},
		CostPer1KTokens: 0.001,
		MaxTokens:       32000,
	}

	cs := Compute(catalog.Builtin(), candidate)

	if len(cs.Added) != 1 || cs.Added[0].Name != "mistral-small" {
		t.Errorf("expected mistral-small added, got %+v", cs.Added)
	}
	if len(cs.Removed) != 1 || cs.Removed[0].Name != "mistral-medium" {
		t.Errorf("expected mistral-medium removed, got %+v", cs.Removed)
	}
	if cs.TotalChanged() != 2 {
		t.Errorf("TotalChanged = %d, want 2", cs.TotalChanged())
	}
}

func TestUpdatedProfileFields(t *testing.T) {
	candidate := catalog.Builtin()
	p := candidate.Profiles["gpt-4-turbo"]
	p.CostPer1KTokens = 0.012
	p.Modalities = []string{"image", "code", "text"} // reordered only
	p.Strengths = []string{"coding", "complex reasoning", "multi-modal analysis"}
	candidate.Profiles["gpt-4-turbo"] = p

	cs := Compute(catalog.Builtin(), candidate)

	if len(cs.Updated) != 1 {
		t.Fatalf("expected 1 updated profile, got %d", len(cs.Updated))
	}
	fields := make(map[string]bool)
	for _, c := range cs.Updated[0].Changes {
		fields[c.Field] = true
	}
	if !fields["cost_per_1k_tokens"] {
		t.Error("expected cost change")
	}
	if !fields["strengths"] {
		t.Error("expected strengths change (order matters)")
	}
	if fields["modalities"] {
		t.Error("modalities reorder should not be a change")
	}
	if fields["max_tokens"] {
		t.Error("max_tokens did not change")
	}
}

func TestRoutingChanges(t *testing.T) {
	candidate := catalog.Builtin()
	candidate.Priorities["fast_low_cost"] = []string{"gemini-1.5-pro", "mistral-medium"}
	candidate.Priorities["complex_code"] = []string{"claude-3-opus", "gemini-1.5-pro"}
	delete(candidate.Priorities, "long_context")

	cs := Compute(catalog.Builtin(), candidate)

	byCategory := make(map[string]RoutingChange)
	for _, rc := range cs.Routing {
		byCategory[rc.Category] = rc
	}

	fast, ok := byCategory["fast_low_cost"]
	if !ok || !fast.SelectionChanged() || fast.NewModel != "gemini-1.5-pro" {
		t.Errorf("expected fast_low_cost selection change, got %+v", fast)
	}
	code, ok := byCategory["complex_code"]
	if !ok || code.SelectionChanged() {
		t.Errorf("expected complex_code candidate-only change, got %+v", code)
	}
	long, ok := byCategory["long_context"]
	if !ok || long.NewModel != catalog.DefaultModel {
		t.Errorf("expected long_context to fall back to default, got %+v", long)
	}
	if _, ok := byCategory["general_text"]; ok {
		t.Error("general_text did not change")
	}

	out := RenderSummary(cs)
	if !strings.Contains(out, "! fast_low_cost") {
		t.Errorf("summary should flag selection change:\n%s", out)
	}
}

func TestDefaultModelChangeAndExtraCategory(t *testing.T) {
	candidate := catalog.Builtin()
	candidate.DefaultModel = "claude-3-opus"
	candidate.Priorities["translation"] = []string{"gpt-4-turbo"}

	cs := Compute(catalog.Builtin(), candidate)

	if cs.DefaultModel == nil || cs.DefaultModel.NewValue != "claude-3-opus" {
		t.Errorf("expected default model change, got %+v", cs.DefaultModel)
	}
	found := false
	for _, rc := range cs.Routing {
		if rc.Category == "translation" {
			found = true
			if rc.OldModel != catalog.DefaultModel || rc.NewModel != "gpt-4-turbo" {
				t.Errorf("unexpected translation change: %+v", rc)
			}
		}
	}
	if !found {
		t.Error("extra category should appear in routing changes")
	}
}
