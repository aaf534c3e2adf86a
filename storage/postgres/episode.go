package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/poiesic/lahza/core"
)

const episodeColumns = `id, coalesce(video_id, ''), title, url, coalesce(thumbnail_url, ''), published_at, metadata`

// UpsertEpisode inserts or updates an episode keyed by video_id.
// Episodes without a VideoID are always inserted (NULL never conflicts).
func (s *Store) UpsertEpisode(ctx context.Context, episode *core.Episode) (*core.Episode, error) {
	if err := core.ValidateEpisode(episode); err != nil {
		return nil, err
	}

	var publishedAt *time.Time
	if !episode.PublishedAt.IsZero() {
		publishedAt = &episode.PublishedAt
	}
	metadata := episode.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO episodes (video_id, title, url, thumbnail_url, published_at, metadata)
		 VALUES (NULLIF($1, ''), $2, $3, NULLIF($4, ''), $5, $6)
		 ON CONFLICT (video_id) DO UPDATE SET
		     title = EXCLUDED.title,
		     url = EXCLUDED.url,
		     thumbnail_url = EXCLUDED.thumbnail_url,
		     published_at = EXCLUDED.published_at,
		     metadata = EXCLUDED.metadata
		 RETURNING id`,
		episode.VideoID, episode.Title, episode.URL, episode.ThumbnailURL, publishedAt, metadata,
	).Scan(&id)
	if err != nil {
		return nil, mapError(err)
	}

	episode.Id = core.ID(id)
	return episode, nil
}

// GetEpisode retrieves a single episode by ID.
func (s *Store) GetEpisode(ctx context.Context, id core.ID) (*core.Episode, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE id = $1`, int64(id))
	episode, err := scanEpisode(row)
	if err != nil {
		return nil, fmt.Errorf("episode %d: %w", id, mapError(err))
	}
	return episode, nil
}

// GetEpisodeByVideoID retrieves an episode by its upstream video identifier.
func (s *Store) GetEpisodeByVideoID(ctx context.Context, videoID string) (*core.Episode, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE video_id = $1`, videoID)
	episode, err := scanEpisode(row)
	if err != nil {
		return nil, fmt.Errorf("video %q: %w", videoID, mapError(err))
	}
	return episode, nil
}

func scanEpisode(row pgx.Row) (*core.Episode, error) {
	var (
		id          int64
		publishedAt *time.Time
		metadata    map[string]string
	)
	episode := &core.Episode{}
	err := row.Scan(&id, &episode.VideoID, &episode.Title, &episode.URL, &episode.ThumbnailURL, &publishedAt, &metadata)
	if err != nil {
		return nil, err
	}

	episode.Id = core.ID(id)
	if publishedAt != nil {
		episode.PublishedAt = publishedAt.UTC()
	}
	if len(metadata) > 0 {
		episode.Metadata = metadata
	}
	return episode, nil
}
