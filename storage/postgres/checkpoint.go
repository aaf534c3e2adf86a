package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/poiesic/lahza/core"
)

// SaveCheckpoint persists a named checkpoint.
func (s *Store) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	checkpoint.UpdatedAt = time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO checkpoints (name, next_offset, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET next_offset = EXCLUDED.next_offset, updated_at = EXCLUDED.updated_at`,
		checkpoint.Name, int64(checkpoint.Offset), checkpoint.UpdatedAt)
	return err
}

// LoadCheckpoint retrieves the named checkpoint.
// Returns nil, nil if no checkpoint exists.
func (s *Store) LoadCheckpoint(ctx context.Context, name string) (*core.Checkpoint, error) {
	var offset int64
	checkpoint := &core.Checkpoint{Name: name}
	err := s.pool.QueryRow(ctx,
		`SELECT next_offset, updated_at FROM checkpoints WHERE name = $1`, name,
	).Scan(&offset, &checkpoint.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	checkpoint.Offset = int(offset)
	return checkpoint, nil
}
