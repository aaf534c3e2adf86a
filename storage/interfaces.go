package storage

import (
	"context"

	"github.com/poiesic/lahza/core"
)

// ChunkRepository provides operations for managing transcript chunks.
// Implementations must be thread-safe and support concurrent access.
type ChunkRepository interface {
	// FetchPage returns up to limit chunks with ID and Content populated,
	// ordered by ascending ID, skipping the first offset rows.
	// The page is unconditional: chunks that already carry an embedding are included.
	// Returns an empty slice when offset is past the last row.
	// Returns ErrInvalidQuery if offset < 0 or limit < 1.
	FetchPage(ctx context.Context, offset, limit int) ([]*core.Chunk, error)

	// UpdateEmbedding overwrites the embedding of one chunk.
	// Writing the same vector twice leaves the same state.
	// Returns ErrNotFound if no chunk has the given ID.
	UpdateEmbedding(ctx context.Context, id core.ID, vector []float32) error

	// AddChunks inserts chunks, assigning IDs from the store's sequence.
	// Returns the chunks with IDs populated.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)
}

// EpisodeRepository provides operations for managing episodes.
type EpisodeRepository interface {
	// UpsertEpisode inserts an episode or, when one with the same VideoID
	// exists, replaces its fields while keeping its ID.
	// Returns the episode with its ID populated.
	UpsertEpisode(ctx context.Context, episode *core.Episode) (*core.Episode, error)

	// GetEpisode retrieves a single episode by ID.
	// Returns ErrNotFound if the episode doesn't exist.
	GetEpisode(ctx context.Context, id core.ID) (*core.Episode, error)

	// GetEpisodeByVideoID retrieves an episode by its upstream video identifier.
	// Returns ErrNotFound if the episode doesn't exist.
	GetEpisodeByVideoID(ctx context.Context, videoID string) (*core.Episode, error)
}

// MatchParams bounds a similarity query.
type MatchParams struct {
	// Threshold is the minimum cosine similarity for a hit.
	Threshold float32
	// Count is the maximum number of hits.
	Count int
	// EpisodeID restricts hits to one episode when non-zero.
	EpisodeID core.ID
}

// VectorSearcher performs similarity search over chunk embeddings.
type VectorSearcher interface {
	// MatchChunks returns chunks whose similarity to query is at least
	// params.Threshold, joined with their episode, highest similarity first,
	// at most params.Count of them. Chunks without an embedding never match.
	MatchChunks(ctx context.Context, query []float32, params MatchParams) ([]*core.SearchResult, error)
}

// CheckpointRepository persists resume cursors for long-running jobs.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint, setting UpdatedAt.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint with the given name.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, name string) (*core.Checkpoint, error)
}

// Store aggregates every repository a lahza backend provides.
type Store interface {
	ChunkRepository
	EpisodeRepository
	VectorSearcher
	CheckpointRepository

	// Close closes the storage backend and releases resources.
	Close() error
}
