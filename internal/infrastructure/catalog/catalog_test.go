package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/ticklist/pkg/domain/checklist"
	"github.com/felixgeelhaar/ticklist/pkg/domain/reset"
)

func TestDefault_IsValidAndNonEmpty(t *testing.T) {
	c := Default()
	if len(c.Entries) == 0 {
		t.Fatalf("embedded catalog must carry tasks")
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("embedded catalog invalid: %v", err)
	}
}

func TestDefault_JumboCactpotPinnedToDrawingCadence(t *testing.T) {
	c := Default()
	for _, e := range c.Entries {
		if e.Key != "jumbo-cactpot" {
			continue
		}
		if got := e.NewTask().GoverningCadence(); got != reset.CadenceJumboCactpot {
			t.Fatalf("jumbo-cactpot governed by %s, want the drawing cadence", got)
		}
		return
	}
	t.Fatalf("jumbo-cactpot missing from the default catalog")
}

func TestLoad_EmptyPathReturnsDefault(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Entries) != len(Default().Entries) {
		t.Fatalf("empty path must yield the embedded catalog")
	}
}

func TestLoad_OverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	body := `
tasks:
  - key: custom-task
    name: Custom Task
    category: daily
    mode: manual
`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Entries) != 1 || c.Entries[0].Key != "custom-task" {
		t.Fatalf("entries = %+v", c.Entries)
	}
	if c.Entries[0].Category != checklist.CategoryDaily {
		t.Fatalf("category = %q", c.Entries[0].Category)
	}
}

func TestLoad_InvalidOverrideErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	body := `
tasks:
  - key: dup
    name: One
    category: daily
    mode: manual
  - key: dup
    name: Two
    category: daily
    mode: manual
`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("duplicate keys must fail validation")
	}
}
