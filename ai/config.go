// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"errors"
	"strings"
)

// Supported embedding backends.
const (
	ProviderOpenAI      = "openai"
	ProviderOllama      = "ollama"
	ProviderHuggingFace = "huggingface"
)

// Config holds configuration for an embedding provider.
type Config struct {
	// Provider selects the backend: "openai" (any OpenAI-compatible server),
	// "ollama" or "huggingface".
	Provider string

	// Host is the base URL of the embedding service.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server.
	// Optional for huggingface, which defaults to the hosted inference API.
	Host string

	// Model is the embedding model identifier.
	// Example: "all-MiniLM-L6-v2", "text-embedding-3-small"
	Model string

	// Token authenticates against the service. Local servers accept anything.
	Token string

	// Dimensions, when positive, declares the vector length up front and
	// skips the probe request.
	Dimensions int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider sets the embedding backend.
func WithProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithHost sets the embedding service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithToken sets the API token.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithDimensions declares the embedding dimensionality.
func WithDimensions(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimensions = dim
	}
}

// DefaultConfig returns a Config with sensible defaults for a local OpenAI-compatible service.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderOpenAI,
		Host:     "http://localhost:11434/v1",
		Model:    "all-minilm",
		Token:    "none",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:8080/v1"),
//	    WithModel("text-embedding-3-small"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// For the openai provider it adds the /v1 suffix to the host if missing,
// which is required by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
// The ollama provider talks to the native API and keeps the host as given.
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Provider == ProviderOpenAI && c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/") + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Provider {
	case ProviderOpenAI, ProviderOllama:
		if c.Host == "" {
			return errors.New("ai config: Host is required")
		}
	case ProviderHuggingFace:
	default:
		return errors.New("ai config: Provider must be one of openai, ollama, huggingface")
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	if c.Dimensions < 0 {
		return errors.New("ai config: Dimensions cannot be negative")
	}
	return nil
}
