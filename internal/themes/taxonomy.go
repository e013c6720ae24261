package themes

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

// ThemeDefinition is a static taxonomy entry: a theme name and the trigger
// terms that place a review under it.
type ThemeDefinition struct {
	Name     string   `yaml:"name"`
	Triggers []string `yaml:"triggers"`
}

// TaxonomyFile is the YAML root structure.
type TaxonomyFile struct {
	Themes []ThemeDefinition `yaml:"themes"`
}

// LoadTaxonomy reads theme definitions from path, falling back to the
// embedded default when path is empty. The result is loaded once at startup
// and shared read-only across workers.
func LoadTaxonomy(path string) ([]ThemeDefinition, error) {
	data := defaultTaxonomy
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read taxonomy: %w", err)
		}
		data = fileData
	}

	var file TaxonomyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if len(file.Themes) == 0 {
		return nil, errors.New("taxonomy defines no themes")
	}
	for _, theme := range file.Themes {
		if theme.Name == "" {
			return nil, errors.New("taxonomy entry missing name")
		}
		if len(theme.Triggers) == 0 {
			return nil, fmt.Errorf("theme %q has no triggers", theme.Name)
		}
	}
	return file.Themes, nil
}
