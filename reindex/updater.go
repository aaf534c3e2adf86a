package reindex

import (
	"context"
	"fmt"

	"github.com/poiesic/lahza/core"
)

// PageFetcher reads one page of chunks ordered by ascending ID.
type PageFetcher interface {
	FetchPage(ctx context.Context, offset, limit int) ([]*core.Chunk, error)
}

// EmbeddingWriter persists one chunk's embedding.
type EmbeddingWriter interface {
	UpdateEmbedding(ctx context.Context, id core.ID, vector []float32) error
}

// Updater validates vectors before handing them to an EmbeddingWriter.
type Updater struct {
	writer EmbeddingWriter
}

// NewUpdater creates an Updater writing through w.
func NewUpdater(w EmbeddingWriter) *Updater {
	return &Updater{writer: w}
}

// Update writes vector as the embedding of chunk id.
// A vector that is not core.EmbeddingDimensions long is rejected before any
// write. All failures wrap ErrUpdate.
func (u *Updater) Update(ctx context.Context, id core.ID, vector []float32) error {
	if err := core.ValidateVector(vector); err != nil {
		return fmt.Errorf("%w: chunk %d: %w", ErrUpdate, id, err)
	}
	if err := u.writer.UpdateEmbedding(ctx, id, vector); err != nil {
		return fmt.Errorf("%w: chunk %d: %w", ErrUpdate, id, err)
	}
	return nil
}
