package core

import "time"

// EmbeddingDimensions is the contractual length of every stored embedding.
// Providers are always asked for this many components explicitly.
const EmbeddingDimensions = 768

// ID is a unique identifier for domain entities.
// Chunk and episode IDs come from database sequences.
type ID uint64

// Episode is a source recording (one podcast episode).
type Episode struct {
	Id           ID
	VideoID      string // Upstream video identifier, unique per episode
	Title        string
	URL          string
	ThumbnailURL string
	PublishedAt  time.Time
	Metadata     map[string]string
}

// Chunk is a timestamped segment of transcript text belonging to an Episode.
type Chunk struct {
	Id        ID
	EpisodeID ID
	Content   string
	StartTime float64   // Seconds from the start of the episode
	EndTime   float64   // Seconds from the start of the episode
	Embedding []float32 // Absent until computed; EmbeddingDimensions long when present
}

// HasEmbedding reports whether the chunk carries a computed embedding.
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// SearchResult is a chunk joined with its episode and ranked by similarity.
// It is never persisted.
type SearchResult struct {
	Id           ID      `json:"id"`
	EpisodeID    ID      `json:"episode_id"`
	Content      string  `json:"content"`
	StartTime    float64 `json:"start_time"`
	EndTime      float64 `json:"end_time"`
	Similarity   float32 `json:"similarity"`
	EpisodeTitle string  `json:"episode_title"`
	EpisodeURL   string  `json:"episode_url"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
}

// Checkpoint records a resumable cursor for a named long-running job.
type Checkpoint struct {
	Name      string
	Offset    int
	UpdatedAt time.Time
}
