package checklist

import (
	"fmt"

	"github.com/felixgeelhaar/ticklist/pkg/domain/reset"
)

// CatalogEntry describes one trackable activity in the static catalog.
type CatalogEntry struct {
	Key      string        `yaml:"key" json:"key"`
	Name     string        `yaml:"name" json:"name"`
	Category Category      `yaml:"category" json:"category"`
	Cadence  reset.Cadence `yaml:"cadence,omitempty" json:"cadence,omitempty"`
	Mode     DetectionMode `yaml:"mode" json:"mode"`
	MaxCount int           `yaml:"max_count,omitempty" json:"max_count,omitempty"`
}

// NewTask instantiates a fresh task from the entry.
func (e CatalogEntry) NewTask() *Task {
	t := NewTask(e.Key, e.Name, e.Category, e.Mode)
	t.Cadence = e.Cadence
	if e.MaxCount > 1 {
		t.MaxCount = e.MaxCount
	}
	return t
}

// Catalog is the static list of activities the checklist tracks. It is
// consulted when a persisted state is empty and to backfill tasks introduced
// by newer builds.
type Catalog struct {
	Entries []CatalogEntry `yaml:"tasks" json:"tasks"`
}

// Validate checks the catalog for duplicate keys and unknown enum values.
// A broken catalog is a build defect, so callers fail hard on it.
func (c *Catalog) Validate() error {
	seen := make(map[string]struct{}, len(c.Entries))
	for _, e := range c.Entries {
		if e.Key == "" {
			return fmt.Errorf("catalog entry %q has no key", e.Name)
		}
		if _, dup := seen[e.Key]; dup {
			return fmt.Errorf("duplicate catalog key %q", e.Key)
		}
		seen[e.Key] = struct{}{}
		if !e.Category.IsValid() {
			return fmt.Errorf("catalog entry %s: unknown category %q", e.Key, string(e.Category))
		}
		if !e.Mode.IsValid() {
			return fmt.Errorf("catalog entry %s: unknown mode %q", e.Key, string(e.Mode))
		}
		if e.Cadence != "" && !e.Cadence.IsValid() {
			return fmt.Errorf("catalog entry %s: unknown cadence %q", e.Key, string(e.Cadence))
		}
	}
	return nil
}

// Has reports whether the catalog knows the given task key.
func (c *Catalog) Has(key string) bool {
	for _, e := range c.Entries {
		if e.Key == key {
			return true
		}
	}
	return false
}

// Backfill appends a task for every catalog entry the state is missing,
// leaving existing tasks untouched. It returns the keys that were added.
func (c *Catalog) Backfill(st *ChecklistState) []string {
	var added []string
	for _, e := range c.Entries {
		if _, exists := st.Task(e.Key); exists {
			continue
		}
		if err := st.AddTask(e.NewTask()); err == nil {
			added = append(added, e.Key)
		}
	}
	return added
}
