package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Every failure, whatever its cause, is returned wrapping ErrEmbeddingFailed.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// TranscriptCleaner rewrites raw speech-to-text output into edited text:
// stutters and filler removed, punctuation fixed, wording and dialect kept.
type TranscriptCleaner interface {
	// CleanTranscript returns the cleaned text. Failures wrap ErrCleaningFailed.
	CleanTranscript(ctx context.Context, text string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Model returns the embedding model identifier, used to namespace cached vectors.
	Model() string

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
