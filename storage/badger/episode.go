package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lahza/core"
	"github.com/poiesic/lahza/storage"
)

// EpisodeRepository implements storage.EpisodeRepository for BadgerDB.
type EpisodeRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.EpisodeRepository = (*EpisodeRepository)(nil)

// NewEpisodeRepository creates a new EpisodeRepository.
func NewEpisodeRepository(backend *Backend) (*EpisodeRepository, error) {
	idSeq, err := backend.GetSequence(episodeIDSeq)
	if err != nil {
		return nil, err
	}

	return &EpisodeRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *EpisodeRepository) Close() error {
	return r.idSeq.Release()
}

// UpsertEpisode inserts or replaces an episode keyed by VideoID.
// Episodes without a VideoID are always inserted.
func (r *EpisodeRepository) UpsertEpisode(ctx context.Context, episode *core.Episode) (*core.Episode, error) {
	if err := core.ValidateEpisode(episode); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var existing core.ID
		if episode.VideoID != "" {
			id, err := readIndexedID(tx, makeEpisodeVideoKey(episode.VideoID))
			if err != nil {
				return err
			}
			existing = id
		}

		if existing != 0 {
			episode.Id = existing
		} else {
			id, err := nextID(r.idSeq)
			if err != nil {
				return err
			}
			episode.Id = core.ID(id)
			if episode.VideoID != "" {
				if err := tx.Set(makeEpisodeVideoKey(episode.VideoID), storage.MarshalID(episode.Id)); err != nil {
					return err
				}
			}
		}

		if err := tx.Set(makeEpisodeKey(episode.Id), storage.MarshalEpisode(episode)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return episode, nil
}

// GetEpisode retrieves a single episode by ID.
func (r *EpisodeRepository) GetEpisode(ctx context.Context, id core.ID) (*core.Episode, error) {
	var result *core.Episode
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readEpisode(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: episode %d", storage.ErrNotFound, id)
		}
		return nil
	}, false)
	return result, err
}

// GetEpisodeByVideoID retrieves an episode through the video ID index.
func (r *EpisodeRepository) GetEpisodeByVideoID(ctx context.Context, videoID string) (*core.Episode, error) {
	var result *core.Episode
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := readIndexedID(tx, makeEpisodeVideoKey(videoID))
		if err != nil {
			return err
		}
		if id != 0 {
			result, err = readEpisode(tx, id)
			if err != nil {
				return err
			}
		}
		if result == nil {
			return fmt.Errorf("%w: video %q", storage.ErrNotFound, videoID)
		}
		return nil
	}, false)
	return result, err
}

// readEpisode reads an episode from the transaction.
// Returns nil, nil if it doesn't exist.
func readEpisode(tx *badger.Txn, id core.ID) (*core.Episode, error) {
	item, err := tx.Get(makeEpisodeKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var episode *core.Episode
	err = item.Value(func(val []byte) error {
		var err error
		episode, err = storage.UnmarshalEpisode(val)
		return err
	})
	return episode, err
}

// readIndexedID reads an ID stored as an index value.
// Returns 0 if the index key doesn't exist.
func readIndexedID(tx *badger.Txn, key []byte) (core.ID, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}

	var id core.ID
	err = item.Value(func(val []byte) error {
		var err error
		id, err = storage.UnmarshalID(val)
		return err
	})
	return id, err
}
