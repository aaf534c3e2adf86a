package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/lahza/core"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func addEpisode(t *testing.T, store *Store, videoID string) *core.Episode {
	t.Helper()
	episode, err := store.UpsertEpisode(context.Background(), &core.Episode{
		VideoID: videoID,
		Title:   "Episode " + videoID,
		URL:     "https://www.youtube.com/watch?v=" + videoID,
	})
	require.NoError(t, err)
	return episode
}

// addChunks inserts n chunks numbered from 0 for the given episode.
func addChunks(t *testing.T, store *Store, episodeID core.ID, n int) []*core.Chunk {
	t.Helper()
	chunks := make([]*core.Chunk, n)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			EpisodeID: episodeID,
			Content:   fmt.Sprintf("chunk %d", i),
			StartTime: float64(i * 30),
			EndTime:   float64(i*30 + 29),
		}
	}
	added, err := store.AddChunks(context.Background(), chunks...)
	require.NoError(t, err)
	return added
}

func unitVector(axis int) []float32 {
	v := make([]float32, core.EmbeddingDimensions)
	v[axis] = 1
	return v
}
