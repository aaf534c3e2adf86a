package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/lahza/ai/mock"
	"github.com/poiesic/lahza/core"
	"github.com/poiesic/lahza/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *badger.Store {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestPipeline(t *testing.T, store *badger.Store, embedder *mock.MockEmbedder, opts ...Option) *Pipeline {
	t.Helper()
	opts = append([]Option{WithEmbedRetry(2, time.Millisecond)}, opts...)
	p, err := NewPipeline(store, store, embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

// makeTranscript returns n segments of 100 characters each, 10 seconds apart.
func makeTranscript(videoID string, n int) *Transcript {
	segments := make([]Segment, n)
	for i := range segments {
		segments[i] = Segment{
			Start: float64(i * 10),
			End:   float64(i*10 + 10),
			Text:  fmt.Sprintf("%03d", i) + strings.Repeat("x", 97),
		}
	}
	return &Transcript{VideoID: videoID, Title: "Episode " + videoID, Segments: segments}
}

func TestNewPipeline_Validation(t *testing.T) {
	store := setupStore(t)
	embedder := mock.NewMockEmbedder()

	_, err := NewPipeline(nil, store, embedder)
	assert.ErrorIs(t, err, ErrEpisodeRepositoryRequired)
	_, err = NewPipeline(store, nil, embedder)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)
	_, err = NewPipeline(store, store, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
	_, err = NewPipeline(store, store, embedder, WithInsertBatchSize(0))
	assert.Error(t, err)
}

func TestIngest(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	embedder := mock.NewMockEmbedder()
	p := newTestPipeline(t, store, embedder, WithInsertBatchSize(3))

	// 20 segments of 100 characters -> chunks of 8 segments, last one shorter
	report, err := p.Ingest(ctx, makeTranscript("vid1", 20))
	require.NoError(t, err)

	assert.Equal(t, 20, report.Segments)
	assert.Equal(t, 3, report.Chunks)
	assert.Equal(t, 3, report.Embedded)
	assert.Zero(t, report.Unembedded)
	assert.Equal(t, 3, report.Inserted)
	assert.NotZero(t, report.Episode.Id)

	page, err := store.FetchPage(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 3)

	var lastStart float64 = -1
	for _, c := range page {
		stored, err := store.GetChunk(ctx, c.Id)
		require.NoError(t, err)
		assert.Equal(t, report.Episode.Id, stored.EpisodeID)
		assert.Len(t, stored.Embedding, core.EmbeddingDimensions)
		assert.Greater(t, stored.StartTime, lastStart, "chunks are inserted in start order")
		lastStart = stored.StartTime
	}

	first, err := store.GetChunk(ctx, page[0].Id)
	require.NoError(t, err)
	assert.Equal(t, 0.0, first.StartTime)
	assert.Equal(t, 80.0, first.EndTime)
}

func TestIngest_FailedEmbeddingStoredWithoutVector(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	var calls atomic.Int32
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		calls.Add(1)
		if strings.HasPrefix(text, "008") {
			return nil, errors.New("quota exceeded")
		}
		return mock.DeterministicVector(text, core.EmbeddingDimensions), nil
	}
	p := newTestPipeline(t, store, embedder)

	report, err := p.Ingest(ctx, makeTranscript("vid2", 20))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Inserted)
	assert.Equal(t, 2, report.Embedded)
	assert.Equal(t, 1, report.Unembedded)
	assert.Equal(t, int32(4), calls.Load(), "the failing chunk is attempted twice")

	page, err := store.FetchPage(ctx, 0, 10)
	require.NoError(t, err)
	second, err := store.GetChunk(ctx, page[1].Id)
	require.NoError(t, err)
	assert.False(t, second.HasEmbedding())
}

func TestIngest_WrongDimensionIsUnembedded(t *testing.T) {
	store := setupStore(t)
	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = 1024
	p := newTestPipeline(t, store, embedder)

	report, err := p.Ingest(context.Background(), makeTranscript("vid3", 3))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Unembedded)
	assert.Equal(t, 1, report.Inserted)
}

func TestIngest_UpsertsEpisode(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	p := newTestPipeline(t, store, mock.NewMockEmbedder())

	first, err := p.Ingest(ctx, makeTranscript("same", 1))
	require.NoError(t, err)

	again := makeTranscript("same", 1)
	again.Title = "Renamed"
	second, err := p.Ingest(ctx, again)
	require.NoError(t, err)

	assert.Equal(t, first.Episode.Id, second.Episode.Id)
	episode, err := store.GetEpisodeByVideoID(ctx, "same")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", episode.Title)
}

func TestIngest_NoSegments(t *testing.T) {
	store := setupStore(t)
	embedder := mock.NewMockEmbedder()
	p := newTestPipeline(t, store, embedder)

	report, err := p.Ingest(context.Background(), &Transcript{VideoID: "empty", Title: "Empty"})
	require.NoError(t, err)
	assert.Zero(t, report.Chunks)
	assert.Zero(t, embedder.CallCount())
}

func TestIngest_InvalidEpisode(t *testing.T) {
	store := setupStore(t)
	p := newTestPipeline(t, store, mock.NewMockEmbedder())

	_, err := p.Ingest(context.Background(), &Transcript{VideoID: "v"})
	assert.ErrorIs(t, err, core.ErrInvalidEpisode)
}

func TestIngest_Cancelled(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		cancel()
		return nil, ctx.Err()
	}
	p := newTestPipeline(t, store, embedder)

	_, err := p.Ingest(ctx, makeTranscript("vid4", 20))
	assert.ErrorIs(t, err, context.Canceled)

	count, err := store.CountChunks(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIngest_CleanerRewritesContent(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	embedder := mock.NewMockEmbedder()

	cleaner := mock.NewMockCleaner()
	cleaner.CleanTranscriptFunc = func(ctx context.Context, text string) (string, error) {
		if strings.HasPrefix(text, "008") {
			return "", errors.New("model overloaded")
		}
		return "cleaned " + text[:3], nil
	}
	p := newTestPipeline(t, store, embedder, WithCleaner(cleaner))

	report, err := p.Ingest(ctx, makeTranscript("vid-clean", 20))
	require.NoError(t, err)
	assert.Equal(t, 3, cleaner.CallCount())
	assert.Equal(t, 2, report.Cleaned)
	assert.Equal(t, 3, report.Embedded)

	page, err := store.FetchPage(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, "cleaned 000", page[0].Content)
	assert.True(t, strings.HasPrefix(page[1].Content, "008"), "a failed cleaning keeps the raw text")
	assert.Equal(t, "cleaned 016", page[2].Content)

	assert.ElementsMatch(t, []string{"cleaned 000", page[1].Content, "cleaned 016"}, embedder.Texts(),
		"the stored text is the text that was embedded")
}

func TestIngest_BlankCleaningKeepsRawText(t *testing.T) {
	store := setupStore(t)
	cleaner := mock.NewMockCleaner()
	cleaner.CleanTranscriptFunc = func(ctx context.Context, text string) (string, error) {
		return "   ", nil
	}
	p := newTestPipeline(t, store, mock.NewMockEmbedder(), WithCleaner(cleaner))

	report, err := p.Ingest(context.Background(), makeTranscript("vid-blank", 2))
	require.NoError(t, err)
	assert.Zero(t, report.Cleaned)

	page, err := store.FetchPage(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.True(t, strings.HasPrefix(page[0].Content, "000"))
}
