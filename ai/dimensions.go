package ai

import (
	"context"
	"fmt"
)

// CheckDimensions returns an error wrapping ErrEmbeddingFailed unless vec has
// exactly dims components.
func CheckDimensions(vec []float32, dims int) error {
	if len(vec) != dims {
		return fmt.Errorf("%w: got %d dimensions, want %d", ErrEmbeddingFailed, len(vec), dims)
	}
	return nil
}

// RequireDimensions wraps an Embedder so that every vector it returns is
// checked against dims. A mismatch is reported as ErrEmbeddingFailed.
func RequireDimensions(inner Embedder, dims int) Embedder {
	return &dimensionGuard{inner: inner, dims: dims}
}

type dimensionGuard struct {
	inner Embedder
	dims  int
}

func (g *dimensionGuard) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vec, err := g.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := CheckDimensions(vec, g.dims); err != nil {
		return nil, err
	}
	return vec, nil
}

func (g *dimensionGuard) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := g.inner.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrEmbeddingFailed, len(vecs), len(texts))
	}
	for i, vec := range vecs {
		if err := CheckDimensions(vec, g.dims); err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
	}
	return vecs, nil
}

// Preview shortens text for log lines.
func Preview(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max]) + "..."
}
