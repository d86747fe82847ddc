// Package config loads the ticklist configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultSaveDebounce = 2 * time.Second
	defaultTickInterval = time.Minute
)

// PluginConfig describes one detector plugin binary to load.
type PluginConfig struct {
	Path    string            `yaml:"path"`
	Enabled bool              `yaml:"enabled"`
	Config  map[string]string `yaml:"config,omitempty"`
}

// Config is the daemon configuration, read from <root>/.ticklist/config.yaml.
// Durations are Go duration strings ("2s", "1m").
type Config struct {
	// Profile names the checklist owner; useful when several game profiles
	// share one machine.
	Profile string `yaml:"profile,omitempty"`

	// SaveDebounce is the write coalescing window for state persistence.
	SaveDebounce string `yaml:"save_debounce,omitempty"`

	// TickInterval is how often the daemon reconciles reset boundaries and
	// polls plugin detectors.
	TickInterval string `yaml:"tick_interval,omitempty"`

	// CatalogPath overrides the embedded task catalog.
	CatalogPath string `yaml:"catalog_path,omitempty"`

	Plugins []PluginConfig `yaml:"plugins,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		SaveDebounce: defaultSaveDebounce.String(),
		TickInterval: defaultTickInterval.String(),
	}
}

// Load reads the config file at path. A missing file yields defaults; a
// present but unreadable one is an error, since silently ignoring a config
// the user wrote is worse than failing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the CLI flag
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the duration fields parse.
func (c *Config) Validate() error {
	if c.SaveDebounce != "" {
		if _, err := time.ParseDuration(c.SaveDebounce); err != nil {
			return fmt.Errorf("invalid save_debounce %q: %w", c.SaveDebounce, err)
		}
	}
	if c.TickInterval != "" {
		if _, err := time.ParseDuration(c.TickInterval); err != nil {
			return fmt.Errorf("invalid tick_interval %q: %w", c.TickInterval, err)
		}
	}
	return nil
}

// SaveDebounceDuration returns the parsed debounce window.
func (c *Config) SaveDebounceDuration() time.Duration {
	if d, err := time.ParseDuration(c.SaveDebounce); err == nil && d > 0 {
		return d
	}
	return defaultSaveDebounce
}

// TickIntervalDuration returns the parsed reconciliation interval.
func (c *Config) TickIntervalDuration() time.Duration {
	if d, err := time.ParseDuration(c.TickInterval); err == nil && d > 0 {
		return d
	}
	return defaultTickInterval
}
