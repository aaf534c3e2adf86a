package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/lahza/core"
	"github.com/poiesic/lahza/storage"
)

// FetchPage returns a page of chunks in ascending ID order.
// Only Id and Content are populated on the returned chunks.
func (s *Store) FetchPage(ctx context.Context, offset, limit int) ([]*core.Chunk, error) {
	if offset < 0 || limit < 1 {
		return nil, fmt.Errorf("%w: offset %d, limit %d", storage.ErrInvalidQuery, offset, limit)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, content FROM chunks ORDER BY id ASC OFFSET $1 LIMIT $2`,
		offset, limit)
	if err != nil {
		return nil, err
	}

	page, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*core.Chunk, error) {
		var (
			id      int64
			content string
		)
		if err := row.Scan(&id, &content); err != nil {
			return nil, err
		}
		return &core.Chunk{Id: core.ID(id), Content: content}, nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// UpdateEmbedding overwrites the embedding of one chunk.
func (s *Store) UpdateEmbedding(ctx context.Context, id core.ID, vector []float32) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE chunks SET embedding = $1 WHERE id = $2`,
		pgvector.NewVector(vector), int64(id))
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: chunk %d", storage.ErrNotFound, id)
	}
	return nil
}

// AddChunks inserts chunks in one transaction, populating IDs from the serial column.
func (s *Store) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, chunk := range chunks {
			var embedding *pgvector.Vector
			if chunk.HasEmbedding() {
				v := pgvector.NewVector(chunk.Embedding)
				embedding = &v
			}
			batch.Queue(
				`INSERT INTO chunks (episode_id, content, start_time, end_time, embedding)
				 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
				int64(chunk.EpisodeID), chunk.Content, chunk.StartTime, chunk.EndTime, embedding)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()
		for _, chunk := range chunks {
			var id int64
			if err := results.QueryRow().Scan(&id); err != nil {
				return err
			}
			chunk.Id = core.ID(id)
		}
		return results.Close()
	})
	if err != nil {
		return nil, mapError(err)
	}
	return chunks, nil
}

// GetChunk retrieves a single chunk by ID.
func (s *Store) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	var (
		chunkID, episodeID int64
		embedding          *pgvector.Vector
	)
	chunk := &core.Chunk{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, episode_id, content, start_time, end_time, embedding FROM chunks WHERE id = $1`,
		int64(id)).Scan(&chunkID, &episodeID, &chunk.Content, &chunk.StartTime, &chunk.EndTime, &embedding)
	if err != nil {
		return nil, mapError(err)
	}

	chunk.Id = core.ID(chunkID)
	chunk.EpisodeID = core.ID(episodeID)
	if embedding != nil {
		chunk.Embedding = embedding.Slice()
	}
	return chunk, nil
}

// CountChunks returns the number of stored chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM chunks`).Scan(&count); err != nil {
		return 0, err
	}
	return int(count), nil
}

// MatchChunks delegates ranking to the match_chunks SQL function.
func (s *Store) MatchChunks(ctx context.Context, query []float32, params storage.MatchParams) ([]*core.SearchResult, error) {
	if params.Count < 1 || len(query) == 0 {
		return nil, fmt.Errorf("%w: count %d, query length %d", storage.ErrInvalidQuery, params.Count, len(query))
	}

	var filter *int64
	if params.EpisodeID != 0 {
		id := int64(params.EpisodeID)
		filter = &id
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, episode_id, content, start_time, end_time, similarity,
		        episode_title, episode_url, coalesce(thumbnail_url, '')
		 FROM match_chunks($1, $2, $3, $4)`,
		pgvector.NewVector(query), float64(params.Threshold), params.Count, filter)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*core.SearchResult, error) {
		var (
			id, episodeID int64
			similarity    float64
		)
		result := &core.SearchResult{}
		err := row.Scan(&id, &episodeID, &result.Content, &result.StartTime, &result.EndTime,
			&similarity, &result.EpisodeTitle, &result.EpisodeURL, &result.ThumbnailURL)
		if err != nil {
			return nil, err
		}
		result.Id = core.ID(id)
		result.EpisodeID = core.ID(episodeID)
		result.Similarity = float32(similarity)
		return result, nil
	})
}
