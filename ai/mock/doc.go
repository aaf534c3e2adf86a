// Package mock provides test double implementations of AI service interfaces.
//
// # Usage in Tests
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    if text == "B" {
//	        return nil, fmt.Errorf("%w: boom", ai.ErrEmbeddingFailed)
//	    }
//	    return mock.DeterministicVector(text, core.EmbeddingDimensions), nil
//	}
//
//	count := embedder.CallCount()
//
// By default MockEmbedder returns deterministic unit vectors of
// core.EmbeddingDimensions components derived from the text hash.
package mock
