package reindex

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/poiesic/lahza/ai"
	"github.com/poiesic/lahza/ai/mock"
	"github.com/poiesic/lahza/core"
	"github.com/poiesic/lahza/storage"
)

// fakeChunkStore is an in-memory PageFetcher and EmbeddingWriter.
type fakeChunkStore struct {
	mu         sync.Mutex
	chunks     map[core.ID]*core.Chunk
	fetchErr   error
	updateErrs map[core.ID]error
	fetches    []int // offsets requested
	writes     int
}

func newFakeChunkStore(contents ...string) *fakeChunkStore {
	s := &fakeChunkStore{
		chunks:     make(map[core.ID]*core.Chunk),
		updateErrs: make(map[core.ID]error),
	}
	for i, content := range contents {
		id := core.ID(i + 1)
		s.chunks[id] = &core.Chunk{Id: id, Content: content}
	}
	return s
}

func (s *fakeChunkStore) FetchPage(ctx context.Context, offset, limit int) ([]*core.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetches = append(s.fetches, offset)
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}

	ids := make([]core.ID, 0, len(s.chunks))
	for id := range s.chunks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	page := []*core.Chunk{}
	for i := offset; i < len(ids) && len(page) < limit; i++ {
		c := s.chunks[ids[i]]
		page = append(page, &core.Chunk{Id: c.Id, Content: c.Content})
	}
	return page, nil
}

func (s *fakeChunkStore) UpdateEmbedding(ctx context.Context, id core.ID, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes++
	if err := s.updateErrs[id]; err != nil {
		return err
	}
	c, ok := s.chunks[id]
	if !ok {
		return fmt.Errorf("%w: chunk %d", storage.ErrNotFound, id)
	}
	c.Embedding = append([]float32(nil), vector...)
	return nil
}

func (s *fakeChunkStore) embedding(id core.ID) []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunks[id].Embedding
}

func (s *fakeChunkStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// failingOn returns a mock embedder that fails for the given contents.
func failingOn(contents ...string) *mock.MockEmbedder {
	bad := make(map[string]bool)
	for _, c := range contents {
		bad[c] = true
	}
	m := mock.NewMockEmbedder()
	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if bad[text] {
			return nil, fmt.Errorf("%w: no vector in response", ai.ErrEmbeddingFailed)
		}
		return mock.DeterministicVector(text, core.EmbeddingDimensions), nil
	}
	return m
}

// fakeCheckpoints is an in-memory storage.CheckpointRepository.
type fakeCheckpoints struct {
	mu    sync.Mutex
	saved map[string]int
	log   []int
}

func newFakeCheckpoints() *fakeCheckpoints {
	return &fakeCheckpoints{saved: make(map[string]int)}
}

func (f *fakeCheckpoints) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[checkpoint.Name] = checkpoint.Offset
	f.log = append(f.log, checkpoint.Offset)
	return nil
}

func (f *fakeCheckpoints) LoadCheckpoint(ctx context.Context, name string) (*core.Checkpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	offset, ok := f.saved[name]
	if !ok {
		return nil, nil
	}
	return &core.Checkpoint{Name: name, Offset: offset}, nil
}
