// Package config loads the reviewdeck application configuration from
// YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spiffcs/reviewdeck/internal/match"
	"gopkg.in/yaml.v3"
)

// DefaultDebounceMS is the delay before a search query edit takes
// effect, in milliseconds.
const DefaultDebounceMS = 300

// Config represents the application configuration.
type Config struct {
	DefaultFormat string `yaml:"default_format,omitempty"`

	// Search tuning overrides
	Search *SearchOverrides `yaml:"search,omitempty"`

	// Cache settings
	Cache *CacheOverrides `yaml:"cache,omitempty"`
}

// SearchOverrides allows customizing the fuzzy search behavior.
type SearchOverrides struct {
	DebounceMS       *int     `yaml:"debounce_ms,omitempty"`
	TitleWeight      *float64 `yaml:"title_weight,omitempty"`
	RepositoryWeight *float64 `yaml:"repository_weight,omitempty"`
	AuthorWeight     *float64 `yaml:"author_weight,omitempty"`
}

// CacheOverrides allows tuning the fetch cache.
type CacheOverrides struct {
	Disabled *bool `yaml:"disabled,omitempty"`
}

// GetSearchWeights returns the matcher weights with any overrides
// applied on top of the defaults.
func (c *Config) GetSearchWeights() match.Weights {
	weights := match.DefaultWeights()
	if c.Search == nil {
		return weights
	}
	if c.Search.TitleWeight != nil {
		weights.Title = *c.Search.TitleWeight
	}
	if c.Search.RepositoryWeight != nil {
		weights.Repository = *c.Search.RepositoryWeight
	}
	if c.Search.AuthorWeight != nil {
		weights.Author = *c.Search.AuthorWeight
	}
	return weights
}

// GetDebounce returns the search debounce delay with any override applied.
func (c *Config) GetDebounce() time.Duration {
	ms := DefaultDebounceMS
	if c.Search != nil && c.Search.DebounceMS != nil && *c.Search.DebounceMS >= 0 {
		ms = *c.Search.DebounceMS
	}
	return time.Duration(ms) * time.Millisecond
}

// CacheDisabled reports whether the fetch cache is turned off.
func (c *Config) CacheDisabled() bool {
	return c.Cache != nil && c.Cache.Disabled != nil && *c.Cache.Disabled
}

// DefaultConfigDir returns the default config directory.
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".reviewdeck"
	}
	return filepath.Join(configDir, "reviewdeck")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the
// current directory.
func LocalConfigPath() string {
	return ".reviewdeck.yaml"
}

// ConfigFileExists returns true if the config file exists on disk.
func ConfigFileExists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Load loads the configuration from disk. The global config from the
// XDG config directory is loaded first, then any local .reviewdeck.yaml
// is merged on top (local values take precedence).
func Load() (*Config, error) {
	cfg := &Config{
		DefaultFormat: "table",
	}

	globalPath := ConfigPath()
	if _, err := os.Stat(globalPath); err == nil {
		data, err := os.ReadFile(globalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read global config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse global config file: %w", err)
		}
	}

	localPath := LocalConfigPath()
	if _, err := os.Stat(localPath); err == nil {
		data, err := os.ReadFile(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read local config file: %w", err)
		}

		var localCfg Config
		if err := yaml.Unmarshal(data, &localCfg); err != nil {
			return nil, fmt.Errorf("failed to parse local config file: %w", err)
		}

		cfg = mergeConfig(cfg, &localCfg)
	}

	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = "table"
	}

	return cfg, nil
}

// mergeConfig merges local config on top of global config. Local values
// take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := &Config{}

	if local.DefaultFormat != "" {
		result.DefaultFormat = local.DefaultFormat
	} else {
		result.DefaultFormat = global.DefaultFormat
	}

	result.Search = mergeSearch(global.Search, local.Search)

	if local.Cache != nil {
		result.Cache = local.Cache
	} else {
		result.Cache = global.Cache
	}

	return result
}

func mergeSearch(global, local *SearchOverrides) *SearchOverrides {
	if global == nil {
		return local
	}
	if local == nil {
		return global
	}

	merged := *global
	if local.DebounceMS != nil {
		merged.DebounceMS = local.DebounceMS
	}
	if local.TitleWeight != nil {
		merged.TitleWeight = local.TitleWeight
	}
	if local.RepositoryWeight != nil {
		merged.RepositoryWeight = local.RepositoryWeight
	}
	if local.AuthorWeight != nil {
		merged.AuthorWeight = local.AuthorWeight
	}
	return &merged
}

// Save writes the configuration to the global config path.
func Save(cfg *Config) error {
	dir := DefaultConfigDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(ConfigPath(), data, 0600)
}
