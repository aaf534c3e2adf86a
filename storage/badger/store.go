package badger

import (
	"errors"

	"github.com/poiesic/lahza/storage"
)

// Store implements storage.Store on a single BadgerDB backend.
type Store struct {
	*ChunkRepository
	*EpisodeRepository
	*CheckpointRepository
	backend *Backend
}

var _ storage.Store = (*Store)(nil)

// NewStore opens (creating if needed) a BadgerDB store in the directory at path.
//
// Returns storage.Store interface to enforce abstraction.
func NewStore(path string) (storage.Store, error) {
	return openStore(path, false)
}

// NewMemoryStore creates an in-memory store for testing.
// Caller must close the store when done.
func NewMemoryStore() (*Store, error) {
	return openStore("", true)
}

func openStore(path string, inMemory bool) (*Store, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	chunks, err := NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	episodes, err := NewEpisodeRepository(backend)
	if err != nil {
		chunks.Close()
		backend.Close()
		return nil, err
	}

	return &Store{
		ChunkRepository:      chunks,
		EpisodeRepository:    episodes,
		CheckpointRepository: NewCheckpointRepository(backend),
		backend:              backend,
	}, nil
}

// Close releases the ID sequences and closes the backend.
func (s *Store) Close() error {
	return errors.Join(
		s.ChunkRepository.Close(),
		s.EpisodeRepository.Close(),
		s.backend.Close(),
	)
}
