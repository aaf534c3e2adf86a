package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lahza/core"
	"github.com/poiesic/lahza/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	idSeq, err := backend.GetSequence(chunkIDSeq)
	if err != nil {
		return nil, err
	}

	return &ChunkRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ChunkRepository) Close() error {
	return r.idSeq.Release()
}

// FetchPage returns a page of chunks in ascending ID order.
// Only Id and Content are populated on the returned chunks.
func (r *ChunkRepository) FetchPage(ctx context.Context, offset, limit int) ([]*core.Chunk, error) {
	if offset < 0 || limit < 1 {
		return nil, fmt.Errorf("%w: offset %d, limit %d", storage.ErrInvalidQuery, offset, limit)
	}

	page := make([]*core.Chunk, 0, limit)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		skipped := 0
		for iter.Rewind(); iter.Valid() && len(page) < limit; iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if skipped < offset {
				skipped++
				continue
			}

			chunk, err := decodeChunk(iter.Item())
			if err != nil {
				return err
			}
			page = append(page, &core.Chunk{Id: chunk.Id, Content: chunk.Content})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// UpdateEmbedding overwrites the embedding of one chunk.
func (r *ChunkRepository) UpdateEmbedding(ctx context.Context, id core.ID, vector []float32) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeChunkKey(id)
		chunk, err := readChunk(tx, key)
		if err != nil {
			return err
		}
		if chunk == nil {
			return fmt.Errorf("%w: chunk %d", storage.ErrNotFound, id)
		}

		chunk.Embedding = append([]float32(nil), vector...)
		if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// AddChunks inserts chunks, assigning each a new ID from the sequence.
// Every chunk must pass core.ValidateChunk and reference an existing episode.
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if _, err := tx.Get(makeEpisodeKey(chunk.EpisodeID)); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("%w: episode %d", storage.ErrNotFound, chunk.EpisodeID)
				}
				return err
			}

			id, err := nextID(r.idSeq)
			if err != nil {
				return err
			}
			chunk.Id = core.ID(id)

			if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readChunk(tx, makeChunkKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: chunk %d", storage.ErrNotFound, id)
		}
		return nil
	}, false)
	return result, err
}

// CountChunks returns the number of stored chunks.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// readChunk reads a chunk from the transaction.
// Returns nil, nil if the key doesn't exist.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeChunk(item)
}

func decodeChunk(item *badger.Item) (*core.Chunk, error) {
	var chunk *core.Chunk
	err := item.Value(func(val []byte) error {
		var err error
		chunk, err = storage.UnmarshalChunk(val)
		return err
	})
	return chunk, err
}
