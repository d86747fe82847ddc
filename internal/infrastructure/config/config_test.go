package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.SaveDebounceDuration(); got != 2*time.Second {
		t.Fatalf("default debounce = %v", got)
	}
	if got := cfg.TickIntervalDuration(); got != time.Minute {
		t.Fatalf("default tick = %v", got)
	}
}

func TestLoad_ParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
profile: main
save_debounce: 5s
tick_interval: 30s
plugins:
  - path: /usr/local/bin/ticklist-detector-mock
    enabled: true
    config:
      verbose: "1"
`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Profile != "main" {
		t.Fatalf("profile = %q", cfg.Profile)
	}
	if got := cfg.SaveDebounceDuration(); got != 5*time.Second {
		t.Fatalf("debounce = %v", got)
	}
	if got := cfg.TickIntervalDuration(); got != 30*time.Second {
		t.Fatalf("tick = %v", got)
	}
	if len(cfg.Plugins) != 1 || !cfg.Plugins[0].Enabled || cfg.Plugins[0].Config["verbose"] != "1" {
		t.Fatalf("plugins = %+v", cfg.Plugins)
	}
}

func TestLoad_MalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("profile: [broken"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("malformed config must error, not silently default")
	}
}

func TestLoad_BadDurationErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("save_debounce: soon"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("unparseable duration must error")
	}
}
