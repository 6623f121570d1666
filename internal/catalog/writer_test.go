package catalog

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteThenLoadBuiltin(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "catalog.yaml")

	if err := Write(path, Builtin()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.DefaultModel != DefaultModel {
		t.Errorf("default model = %q, want %q", loaded.DefaultModel, DefaultModel)
	}
	if len(loaded.Profiles) != 4 {
		t.Errorf("loaded %d profiles, want 4", len(loaded.Profiles))
	}
	opus, ok := loaded.Profile("claude-3-opus")
	if !ok {
		t.Fatal("claude-3-opus missing after reload")
	}
	if opus.MaxTokens != 200000 {
		t.Errorf("claude-3-opus max_tokens = %d, want 200000", opus.MaxTokens)
	}
	if got := loaded.Priority("fast_low_cost"); len(got) != 2 || got[0] != "mistral-medium" {
		t.Errorf("fast_low_cost priority = %v", got)
	}
}

func TestMarshalIncludesHeaderAndSortedModels(t *testing.T) {
	data, err := Marshal(Builtin())
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "# Model routing catalog") {
		t.Error("expected header comment")
	}
	claude := strings.Index(content, "name: claude-3-opus")
	mistral := strings.Index(content, "name: mistral-medium")
	if claude < 0 || mistral < 0 || claude > mistral {
		t.Error("models should be written sorted by name")
	}
}

func TestParseDefaultsMissingDefaultModel(t *testing.T) {
	cat, err := Parse([]byte(`
version: "2"
models:
  - name: small
    modalities: [text]
    strengths: [cheap]
    cost_per_1k_tokens: 0.001
    max_tokens: 8000
priorities:
  general_text: [small]
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cat.DefaultModel != DefaultModel {
		t.Errorf("default model = %q, want %q", cat.DefaultModel, DefaultModel)
	}
	if cat.Version != "2" {
		t.Errorf("version = %q, want 2", cat.Version)
	}
}

func TestParseRejectsDuplicateModels(t *testing.T) {
	_, err := Parse([]byte(`
models:
  - name: small
    cost_per_1k_tokens: 0.001
    max_tokens: 8000
  - name: small
    cost_per_1k_tokens: 0.002
    max_tokens: 8000
`))
	if err == nil {
		t.Fatal("expected duplicate model error")
	}
	if !strings.Contains(err.Error(), "duplicate model") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	cat := Builtin()

	p, _ := cat.Profile("gpt-4-turbo")
	p.Modalities[0] = "mutated"
	prio := cat.Priority("image_analysis")
	prio[0] = "mutated"

	again, _ := cat.Profile("gpt-4-turbo")
	if again.Modalities[0] != "text" {
		t.Error("Profile must return a copy")
	}
	if cat.Priority("image_analysis")[0] != "gpt-4-turbo" {
		t.Error("Priority must return a copy")
	}

	clone := cat.Clone()
	clone.Priorities["general_text"][0] = "mutated"
	if cat.Priorities["general_text"][0] != "gemini-1.5-pro" {
		t.Error("Clone must not share priority slices")
	}
}
