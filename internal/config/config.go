// Package config provides configuration loading for looseleaf.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file name under the data directory.
const FileName = "config.yaml"

// Config represents the complete looseleaf configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Autosave AutosaveConfig `yaml:"autosave"`
	AI       AIConfig       `yaml:"ai"`
}

// StorageConfig configures durable storage.
type StorageConfig struct {
	// Path is the data directory (default: ~/.looseleaf).
	Path string `yaml:"path"`
	// Backend selects the durable store: "sqlite" or "files".
	Backend string `yaml:"backend"`
}

// AutosaveConfig configures the autosave scheduler.
type AutosaveConfig struct {
	// Debounce is the coalescing window for flushes.
	Debounce time.Duration `yaml:"debounce"`
}

// AIConfig configures the generative-language gateway.
type AIConfig struct {
	// Endpoint is the completion endpoint URL (empty = built-in default).
	Endpoint string `yaml:"endpoint"`
	// Temperature controls randomness (0.0-1.0).
	Temperature float64 `yaml:"temperature"`
	// TopK limits sampling to the K most likely tokens.
	TopK int `yaml:"top_k"`
	// TopP is the nucleus-sampling threshold.
	TopP float64 `yaml:"top_p"`
	// KeyEnv names an environment variable holding the API key. When set
	// and non-empty, it overrides the stored encrypted key.
	KeyEnv string `yaml:"key_env"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:    defaultDataDir(),
			Backend: "sqlite",
		},
		Autosave: AutosaveConfig{
			Debounce: 2 * time.Second,
		},
		AI: AIConfig{
			Temperature: 0.7,
			TopK:        40,
			TopP:        0.95,
			KeyEnv:      "LOOSELEAF_API_KEY",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".looseleaf"
	}
	return filepath.Join(home, ".looseleaf")
}

// Load reads the config file under the data directory, layered over the
// defaults. A missing file is not an error.
func Load(dir string) (*Config, error) {
	cfg := DefaultConfig()
	if dir != "" {
		cfg.Storage.Path = dir
	}

	path := filepath.Join(cfg.Storage.Path, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Merge(&file)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge overlays non-zero fields from other onto c.
func (c *Config) Merge(other *Config) {
	if other.Storage.Path != "" {
		c.Storage.Path = other.Storage.Path
	}
	if other.Storage.Backend != "" {
		c.Storage.Backend = other.Storage.Backend
	}
	if other.Autosave.Debounce != 0 {
		c.Autosave.Debounce = other.Autosave.Debounce
	}
	if other.AI.Endpoint != "" {
		c.AI.Endpoint = other.AI.Endpoint
	}
	if other.AI.Temperature != 0 {
		c.AI.Temperature = other.AI.Temperature
	}
	if other.AI.TopK != 0 {
		c.AI.TopK = other.AI.TopK
	}
	if other.AI.TopP != 0 {
		c.AI.TopP = other.AI.TopP
	}
	if other.AI.KeyEnv != "" {
		c.AI.KeyEnv = other.AI.KeyEnv
	}
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "sqlite", "files":
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	if c.Autosave.Debounce < 0 {
		return fmt.Errorf("config: negative autosave debounce")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 1 {
		return fmt.Errorf("config: temperature must be in [0,1]")
	}
	return nil
}

// Save writes the config to the data directory, creating it if needed.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.MkdirAll(c.Storage.Path, 0o755); err != nil {
		return fmt.Errorf("config: create data dir: %w", err)
	}
	path := filepath.Join(c.Storage.Path, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
