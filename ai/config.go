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
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/lahza/core"
)

// Supported embedding providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

const (
	defaultGeminiHost  = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel = "gemini-embedding-001"
	defaultOpenAIHost  = "http://localhost:11434/v1"
	defaultOpenAIModel = "nomic-embed-text"

	// Gemini's OpenAI-compatible chat endpoint.
	defaultCleanerHost = "https://generativelanguage.googleapis.com/v1beta/openai"
)

// Config holds configuration for AI service providers.
type Config struct {
	// Provider selects the embedding backend: "gemini" or "openai".
	Provider string

	// APIKey authenticates against the provider. Required for gemini.
	APIKey string

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "https://generativelanguage.googleapis.com/v1beta" or
	// "http://localhost:11434/v1" for a local OpenAI-compatible server
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "gemini-embedding-001", "nomic-embed-text"
	EmbeddingModel string

	// Dimensions is the output dimensionality requested from the provider.
	// Every returned vector is checked against it.
	// Default: 768
	Dimensions int

	// CleanerHost is the base URL of an OpenAI-compatible chat API used to
	// clean transcripts before embedding.
	CleanerHost string

	// CleanerModel is the chat model for transcript cleaning.
	// Empty disables cleaning.
	CleanerModel string

	// NativeDimensions leaves the output dimensionality to the model and
	// skips the length check. Only diagnostics set it.
	NativeDimensions bool

	// Timeout bounds a single embedding call.
	// Default: 30s
	Timeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider selects the embedding provider. When the host or model are still
// the previous provider's defaults they are switched to the new provider's defaults.
func WithProvider(provider string) ConfigOption {
	return func(c *Config) {
		if c.Provider == provider {
			return
		}
		oldHost, oldModel := providerDefaults(c.Provider)
		c.Provider = provider
		newHost, newModel := providerDefaults(provider)
		if c.EmbeddingHost == oldHost {
			c.EmbeddingHost = newHost
		}
		if c.EmbeddingModel == oldModel {
			c.EmbeddingModel = newModel
		}
	}
}

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithDimensions sets the requested output dimensionality.
func WithDimensions(dims int) ConfigOption {
	return func(c *Config) {
		c.Dimensions = dims
	}
}

// WithCleaner enables transcript cleaning with a chat model. An empty host
// keeps the current one.
func WithCleaner(host, model string) ConfigOption {
	return func(c *Config) {
		if host != "" {
			c.CleanerHost = host
		}
		c.CleanerModel = model
	}
}

// WithNativeDimensions stops requesting Dimensions so the model's own
// output length comes back unchecked.
func WithNativeDimensions() ConfigOption {
	return func(c *Config) {
		c.NativeDimensions = true
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// DefaultConfig returns a Config for the Gemini embedding API at 768 dimensions.
// The API key must still be supplied.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderGemini,
		EmbeddingHost:  defaultGeminiHost,
		EmbeddingModel: defaultGeminiModel,
		Dimensions:     core.EmbeddingDimensions,
		CleanerHost:    defaultCleanerHost,
		Timeout:        30 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithProvider(ProviderOpenAI),
//	    WithEmbeddingHost("http://localhost:11434"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func providerDefaults(provider string) (host, model string) {
	switch provider {
	case ProviderGemini:
		return defaultGeminiHost, defaultGeminiModel
	case ProviderOpenAI:
		return defaultOpenAIHost, defaultOpenAIModel
	}
	return "", ""
}

// Normalize ensures the configuration is in a canonical form.
// OpenAI-compatible hosts get a /v1 suffix; all hosts lose any trailing slash.
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
	c.CleanerHost = strings.TrimSuffix(c.CleanerHost, "/")
	if c.Provider == ProviderOpenAI && c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Provider {
	case ProviderGemini:
		if c.APIKey == "" {
			return fmt.Errorf("%w: APIKey is required for gemini", ErrInvalidConfig)
		}
	case ProviderOpenAI:
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider)
	}
	if c.EmbeddingHost == "" {
		return fmt.Errorf("%w: EmbeddingHost is required", ErrInvalidConfig)
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: EmbeddingModel is required", ErrInvalidConfig)
	}
	if c.Dimensions <= 0 {
		return fmt.Errorf("%w: Dimensions must be positive", ErrInvalidConfig)
	}
	if c.CleanerModel != "" && c.CleanerHost == "" {
		return fmt.Errorf("%w: CleanerHost is required when CleanerModel is set", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: Timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
