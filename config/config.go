// Package config loads vectorize settings from a YAML file.
//
// Values of the form ${VAR} are expanded from the environment before
// parsing, so tokens can stay out of the file. Command-line flags override
// whatever the file sets.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/poiesic/vectorize/ai"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/export"
	"gopkg.in/yaml.v3"
)

// Config is the complete vectorize configuration.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Run      RunConfig      `yaml:"run"`
	Store    StoreConfig    `yaml:"store"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ProviderConfig selects and addresses the embedding backend.
type ProviderConfig struct {
	Type       string `yaml:"type"` // openai, ollama, huggingface
	Host       string `yaml:"host"`
	Model      string `yaml:"model"`
	Token      string `yaml:"token"`
	Dimensions int    `yaml:"dimensions"`
}

// RunConfig holds defaults for embedding runs.
type RunConfig struct {
	BatchSize int    `yaml:"batch_size"`
	Format    string `yaml:"format"`
	OutputDir string `yaml:"output_dir"`
	Normalize bool   `yaml:"normalize"`
}

// StoreConfig locates the run journal and vector cache. An empty path
// disables both.
type StoreConfig struct {
	Path  string `yaml:"path"`
	Cache bool   `yaml:"cache"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		Provider: ProviderConfig{
			Type:  aiDefaults.Provider,
			Host:  aiDefaults.Host,
			Model: aiDefaults.Model,
			Token: aiDefaults.Token,
		},
		Run: RunConfig{
			BatchSize: 32,
			Format:    string(core.FormatNativeTensor),
			OutputDir: ".",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
			Path: "/metrics",
		},
	}
}

// LoadFromFile reads and parses a YAML configuration file.
// Environment variables in the format ${VAR_NAME} are expanded.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.AIConfig().Validate(); err != nil {
		return err
	}

	if c.Run.BatchSize <= 0 {
		return fmt.Errorf("run.batch_size must be positive, got %d", c.Run.BatchSize)
	}
	if c.Run.Format != "" {
		format, err := core.ParseFormat(c.Run.Format)
		if err != nil {
			return fmt.Errorf("run.format: %w", err)
		}
		if err := export.Supported(format); err != nil {
			return fmt.Errorf("run.format: %w", err)
		}
	}

	if c.Store.Cache && c.Store.Path == "" {
		return fmt.Errorf("store.cache requires store.path")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}

	return nil
}

// AIConfig converts the provider section into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithProvider(c.Provider.Type),
		ai.WithHost(c.Provider.Host),
		ai.WithModel(c.Provider.Model),
		ai.WithToken(c.Provider.Token),
		ai.WithDimensions(c.Provider.Dimensions),
	)
}
