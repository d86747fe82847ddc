// Package catalog provides the task catalog: an embedded default list of
// trackable activities, optionally overridden by a user file.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/ticklist/pkg/domain/checklist"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// Default returns the embedded catalog. It panics on a broken embed, which
// is a build defect, not a runtime condition.
func Default() *checklist.Catalog {
	c, err := parse(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load returns the catalog at overridePath, or the embedded default when the
// path is empty.
func Load(overridePath string) (*checklist.Catalog, error) {
	if overridePath == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(overridePath) // #nosec G304 -- path comes from user config
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	c, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", overridePath, err)
	}
	return c, nil
}

func parse(data []byte) (*checklist.Catalog, error) {
	var c checklist.Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
