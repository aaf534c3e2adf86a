package gemini

import (
	"log/slog"

	"github.com/poiesic/lahza/ai"
)

// Provider implements ai.AIProvider using the Gemini API.
type Provider struct {
	config   *ai.Config
	embedder ai.Embedder
	logger   *slog.Logger
}

// NewProvider creates a new AI provider backed by Gemini.
// The config is validated and normalized before use.
//
// Returns ai.AIProvider interface to enforce abstraction.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	embedder, err := NewEmbedder(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:   config,
		embedder: embedder,
		logger:   slog.Default().With("component", "gemini-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Model returns the configured embedding model.
func (p *Provider) Model() string {
	return p.config.EmbeddingModel
}

// Close releases resources held by the provider.
func (p *Provider) Close() error {
	p.logger.Debug("closing Gemini provider")
	return nil
}
