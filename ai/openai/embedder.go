package openai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/lahza/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	dims     int
	native   bool
	timeout  time.Duration
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	token := config.APIKey
	if token == "" {
		token = "none"
	}

	opts := []openai.Option{
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(token),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	}
	if !config.NativeDimensions {
		opts = append(opts, openai.WithEmbeddingDimensions(config.Dimensions))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrInvalidConfig, err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrInvalidConfig, err)
	}

	return &Embedder{
		embedder: embedder,
		dims:     config.Dimensions,
		native:   config.NativeDimensions,
		timeout:  config.Timeout,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
// config.Dimensions is sent as the requested output size and every returned
// vector is checked against it, unless config.NativeDimensions is set.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	e, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	if e.native {
		return e, nil
	}
	return ai.RequireDimensions(e, e.dims), nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Warn("failed to generate embedding", "length", len(text), "preview", ai.Preview(text, 50), "err", err)
		return nil, fmt.Errorf("%w: %w", ai.ErrEmbeddingFailed, err)
	}

	if len(vectors) == 0 || len(vectors[0]) == 0 {
		e.logger.Warn("embedder returned empty result", "length", len(text), "preview", ai.Preview(text, 50))
		return nil, fmt.Errorf("%w: no vector in response", ai.ErrEmbeddingFailed)
	}

	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Warn("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, fmt.Errorf("%w: %w", ai.ErrEmbeddingFailed, err)
	}

	return vectors, nil
}
