package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const fileHeader = "# Model routing catalog\n# Edit profiles and priorities, then run: modelrouter validate --catalog <file>\n\n"

// Marshal encodes a catalog to YAML with models sorted by name.
func Marshal(c *Catalog) ([]byte, error) {
	f := File{
		Version:      c.Version,
		DefaultModel: c.DefaultModel,
		Priorities:   make(map[string][]string, len(c.Priorities)),
	}
	for _, name := range c.ModelNames() {
		f.Models = append(f.Models, c.Profiles[name].Clone())
	}
	for category, models := range c.Priorities {
		f.Priorities[category] = cloneStrings(models)
	}

	data, err := yaml.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("marshaling catalog: %w", err)
	}
	return append([]byte(fileHeader), data...), nil
}

// Write saves a catalog to path, creating parent directories as needed.
func Write(path string, c *Catalog) error {
	data, err := Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating catalog dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	return nil
}
