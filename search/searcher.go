package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/lahza/ai"
	"github.com/poiesic/lahza/core"
	"github.com/poiesic/lahza/storage"
)

// Match parameters used by the search endpoint.
const (
	DefaultThreshold float32 = 0.65
	DefaultCount             = 10
)

// QueryCache stores query embeddings so repeated queries skip the provider.
type QueryCache interface {
	// Get returns the cached vector for query, or ok=false on a miss.
	Get(ctx context.Context, query string) (vector []float32, ok bool, err error)
	// Set stores the vector for query.
	Set(ctx context.Context, query string, vector []float32) error
}

// Searcher provides semantic search over transcript chunks.
type Searcher struct {
	vectors   storage.VectorSearcher
	embedder  ai.Embedder
	cache     QueryCache
	threshold float32
	count     int
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithCache consults cache before embedding a query.
func WithCache(cache QueryCache) Option {
	return func(s *Searcher) error {
		s.cache = cache
		return nil
	}
}

// WithThreshold overrides the minimum similarity for a hit.
func WithThreshold(threshold float32) Option {
	return func(s *Searcher) error {
		if threshold < -1 || threshold > 1 {
			return fmt.Errorf("threshold %.2f outside [-1, 1]", threshold)
		}
		s.threshold = threshold
		return nil
	}
}

// WithCount overrides the maximum number of hits.
func WithCount(count int) Option {
	return func(s *Searcher) error {
		if count < 1 {
			return fmt.Errorf("count must be positive, got %d", count)
		}
		s.count = count
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(vectors storage.VectorSearcher, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if vectors == nil {
		return nil, ErrVectorSearcherRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		vectors:   vectors,
		embedder:  embedder,
		threshold: DefaultThreshold,
		count:     DefaultCount,
		logger:    slog.Default().With("component", "searcher"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns the chunks most similar to query, best first.
// A non-zero episodeID restricts hits to that episode.
func (s *Searcher) Search(ctx context.Context, query string, episodeID core.ID) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, episodeID, nil)
}

// SearchWithMonitor is Search with callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, episodeID core.ID, monitor SearchMonitor) ([]*core.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	embedding, cached, err := s.embed(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "length", len(query), "preview", ai.Preview(query, 50), "err", err)
		return nil, err
	}
	monitor.AfterEmbedding(len(embedding), cached)

	results, err := s.vectors.MatchChunks(ctx, embedding, storage.MatchParams{
		Threshold: s.threshold,
		Count:     s.count,
		EpisodeID: episodeID,
	})
	if err != nil {
		s.logger.Error("error querying for similar chunks", "err", err)
		return nil, err
	}
	if results == nil {
		results = []*core.SearchResult{}
	}
	monitor.AfterMatch(results)

	s.logger.Debug("search complete", "hits", len(results), "cached", cached, "episode", episodeID)
	monitor.Finish(results)
	return results, nil
}

func (s *Searcher) embed(ctx context.Context, query string) ([]float32, bool, error) {
	if s.cache != nil {
		vector, ok, err := s.cache.Get(ctx, query)
		if err != nil {
			s.logger.Warn("query cache read failed", "err", err)
		} else if ok && core.ValidateVector(vector) == nil {
			return vector, true, nil
		}
	}

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, query, vector); err != nil {
			s.logger.Warn("query cache write failed", "err", err)
		}
	}
	return vector, false, nil
}
