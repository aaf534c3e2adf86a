package badger

import (
	"context"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lahza/core"
	"github.com/poiesic/lahza/storage"
)

var _ storage.VectorSearcher = (*ChunkRepository)(nil)

// MatchChunks ranks every embedded chunk by cosine similarity to query.
// This is a full scan; it serves local development and tests, not large archives.
func (r *ChunkRepository) MatchChunks(ctx context.Context, query []float32, params storage.MatchParams) ([]*core.SearchResult, error) {
	if params.Count < 1 || len(query) == 0 {
		return nil, fmt.Errorf("%w: count %d, query length %d", storage.ErrInvalidQuery, params.Count, len(query))
	}

	var results []*core.SearchResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			chunk, err := decodeChunk(iter.Item())
			if err != nil {
				return err
			}
			if !chunk.HasEmbedding() {
				continue
			}
			if params.EpisodeID != 0 && chunk.EpisodeID != params.EpisodeID {
				continue
			}

			similarity := core.CosineSimilarity(query, chunk.Embedding)
			if similarity < params.Threshold {
				continue
			}
			results = append(results, &core.SearchResult{
				Id:         chunk.Id,
				EpisodeID:  chunk.EpisodeID,
				Content:    chunk.Content,
				StartTime:  chunk.StartTime,
				EndTime:    chunk.EndTime,
				Similarity: similarity,
			})
		}

		// Sort by similarity descending, ties broken by ID for stable output
		slices.SortFunc(results, func(a, b *core.SearchResult) int {
			switch {
			case a.Similarity > b.Similarity:
				return -1
			case a.Similarity < b.Similarity:
				return 1
			case a.Id < b.Id:
				return -1
			case a.Id > b.Id:
				return 1
			}
			return 0
		})
		if len(results) > params.Count {
			results = results[:params.Count]
		}

		return joinEpisodes(tx, results)
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// joinEpisodes fills episode fields on each result.
func joinEpisodes(tx *badger.Txn, results []*core.SearchResult) error {
	episodes := make(map[core.ID]*core.Episode)
	for _, result := range results {
		episode, ok := episodes[result.EpisodeID]
		if !ok {
			var err error
			episode, err = readEpisode(tx, result.EpisodeID)
			if err != nil {
				return err
			}
			episodes[result.EpisodeID] = episode
		}
		if episode == nil {
			continue
		}
		result.EpisodeTitle = episode.Title
		result.EpisodeURL = episode.URL
		result.ThumbnailURL = episode.ThumbnailURL
	}
	return nil
}
