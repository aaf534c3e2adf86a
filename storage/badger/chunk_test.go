package badger

import (
	"context"
	"testing"

	"github.com/poiesic/lahza/core"
	"github.com/poiesic/lahza/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddChunks_AssignsAscendingIDs(t *testing.T) {
	store := setupTestStore(t)
	episode := addEpisode(t, store, "vid1")

	added := addChunks(t, store, episode.Id, 3)
	require.Len(t, added, 3)
	assert.NotZero(t, added[0].Id)
	assert.Less(t, added[0].Id, added[1].Id)
	assert.Less(t, added[1].Id, added[2].Id)

	count, err := store.CountChunks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestAddChunks_Rejects(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	t.Run("invalid chunk", func(t *testing.T) {
		episode := addEpisode(t, store, "vid1")
		_, err := store.AddChunks(ctx, &core.Chunk{EpisodeID: episode.Id, Content: ""})
		assert.ErrorIs(t, err, core.ErrInvalidChunk)
	})

	t.Run("unknown episode", func(t *testing.T) {
		_, err := store.AddChunks(ctx, &core.Chunk{EpisodeID: 999, Content: "x", EndTime: 1})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestFetchPage(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	episode := addEpisode(t, store, "vid1")
	added := addChunks(t, store, episode.Id, 12)

	t.Run("pages partition the table in id order", func(t *testing.T) {
		var seen []core.ID
		for offset := 0; ; offset += 5 {
			page, err := store.FetchPage(ctx, offset, 5)
			require.NoError(t, err)
			if len(page) == 0 {
				break
			}
			for _, c := range page {
				seen = append(seen, c.Id)
			}
		}
		require.Len(t, seen, 12)
		for i, c := range added {
			assert.Equal(t, c.Id, seen[i])
		}
	})

	t.Run("only id and content are populated", func(t *testing.T) {
		require.NoError(t, store.UpdateEmbedding(ctx, added[0].Id, unitVector(0)))

		page, err := store.FetchPage(ctx, 0, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "chunk 0", page[0].Content)
		assert.Nil(t, page[0].Embedding)
		assert.Zero(t, page[0].EpisodeID)
	})

	t.Run("includes already embedded chunks", func(t *testing.T) {
		page, err := store.FetchPage(ctx, 0, 12)
		require.NoError(t, err)
		assert.Len(t, page, 12)
	})

	t.Run("offset past end is empty", func(t *testing.T) {
		page, err := store.FetchPage(ctx, 12, 5)
		require.NoError(t, err)
		assert.Empty(t, page)
	})

	t.Run("short final page", func(t *testing.T) {
		page, err := store.FetchPage(ctx, 10, 5)
		require.NoError(t, err)
		assert.Len(t, page, 2)
	})

	t.Run("invalid arguments", func(t *testing.T) {
		_, err := store.FetchPage(ctx, -1, 5)
		assert.ErrorIs(t, err, storage.ErrInvalidQuery)
		_, err = store.FetchPage(ctx, 0, 0)
		assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	})
}

func TestUpdateEmbedding(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	episode := addEpisode(t, store, "vid1")
	added := addChunks(t, store, episode.Id, 1)
	id := added[0].Id

	vector := unitVector(3)
	require.NoError(t, store.UpdateEmbedding(ctx, id, vector))
	first, err := store.GetChunk(ctx, id)
	require.NoError(t, err)

	// Idempotent
	require.NoError(t, store.UpdateEmbedding(ctx, id, vector))
	second, err := store.GetChunk(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, vector, first.Embedding)
	assert.Equal(t, first, second)
	assert.Equal(t, "chunk 0", second.Content)
	assert.Equal(t, episode.Id, second.EpisodeID)

	t.Run("missing chunk", func(t *testing.T) {
		err := store.UpdateEmbedding(ctx, 9999, vector)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestGetChunk_NotFound(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.GetChunk(context.Background(), 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
