package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lahza/ai"
	"github.com/poiesic/lahza/core"
	"github.com/poiesic/lahza/storage"
)

// Pipeline defaults.
const (
	DefaultPoolSize        = 5
	DefaultInsertBatchSize = 50
	DefaultEmbedAttempts   = 5
	DefaultEmbedDelay      = 2 * time.Second
)

type Pipeline struct {
	episodes    storage.EpisodeRepository
	chunks      storage.ChunkRepository
	pool        *ants.Pool
	embedder    *spanEmbedder
	charLimit   int
	insertBatch int
	logger      *slog.Logger
}

type Option func(*Pipeline) error

// WithPoolSize sets how many chunks are embedded concurrently.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithInsertBatchSize sets how many chunks go into one store call.
func WithInsertBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("insert batch size must be positive, got %d", size)
		}
		p.insertBatch = size
		return nil
	}
}

// WithCharLimit sets the chunk size in characters.
func WithCharLimit(limit int) Option {
	return func(p *Pipeline) error {
		if limit < 1 {
			return fmt.Errorf("char limit must be positive, got %d", limit)
		}
		p.charLimit = limit
		return nil
	}
}

// WithCleaner runs every chunk through cleaner before embedding and stores
// the cleaned text. A chunk whose cleaning fails keeps its raw text.
func WithCleaner(cleaner ai.TranscriptCleaner) Option {
	return func(p *Pipeline) error {
		p.embedder.cleaner = cleaner
		return nil
	}
}

// WithEmbedRetry sets the attempts per chunk and the base delay between them.
func WithEmbedRetry(attempts int, delay time.Duration) Option {
	return func(p *Pipeline) error {
		if attempts < 1 {
			return fmt.Errorf("attempts must be positive, got %d", attempts)
		}
		p.embedder.attempts = attempts
		p.embedder.delay = delay
		return nil
	}
}

func NewPipeline(
	episodes storage.EpisodeRepository,
	chunks storage.ChunkRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if episodes == nil {
		return nil, ErrEpisodeRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	pool, err := ants.NewPool(DefaultPoolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		episodes:    episodes,
		chunks:      chunks,
		pool:        pool,
		charLimit:   ChunkCharLimit,
		insertBatch: DefaultInsertBatchSize,
		embedder: &spanEmbedder{
			embedder: embedder,
			attempts: DefaultEmbedAttempts,
			delay:    DefaultEmbedDelay,
		},
		logger: slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.embedder.logger = p.logger

	return p, nil
}

// Report summarizes one ingested transcript.
type Report struct {
	Episode  *core.Episode
	Segments int
	Chunks   int
	// Cleaned chunks store the cleaner's text instead of the raw transcript.
	Cleaned  int
	Embedded int
	// Unembedded chunks were stored without a vector.
	Unembedded int
	Inserted   int
}

// Ingest stores one transcript: upsert the episode, chunk the segments,
// embed the chunks concurrently and insert them ordered by start time.
// Chunks already inserted stay in place if a later insert group fails.
func (p *Pipeline) Ingest(ctx context.Context, transcript *Transcript) (*Report, error) {
	episode, err := p.episodes.UpsertEpisode(ctx, transcript.Episode())
	if err != nil {
		return nil, fmt.Errorf("failed to save episode %s: %w", transcript.VideoID, err)
	}
	p.logger.Info("episode saved", "episode", episode.Id, "video_id", episode.VideoID, "title", episode.Title)

	spans := ChunkSegments(transcript.Segments, p.charLimit)
	report := &Report{Episode: episode, Segments: len(transcript.Segments), Chunks: len(spans)}
	if len(spans) == 0 {
		return report, nil
	}

	chunks, cleaned, err := p.embedSpans(ctx, episode.Id, spans)
	if err != nil {
		return report, err
	}
	report.Cleaned = cleaned

	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].StartTime < chunks[j].StartTime
	})
	for _, c := range chunks {
		if c.HasEmbedding() {
			report.Embedded++
		} else {
			report.Unembedded++
		}
	}

	for i := 0; i < len(chunks); i += p.insertBatch {
		end := min(i+p.insertBatch, len(chunks))
		added, err := p.chunks.AddChunks(ctx, chunks[i:end]...)
		if err != nil {
			return report, fmt.Errorf("failed to insert chunks %d-%d: %w", i, end, err)
		}
		report.Inserted += len(added)
		p.logger.Debug("chunks written", "written", report.Inserted, "total", len(chunks))
	}

	p.logger.Info("transcript ingested",
		"episode", episode.Id,
		"chunks", report.Chunks,
		"cleaned", report.Cleaned,
		"embedded", report.Embedded,
		"unembedded", report.Unembedded)
	return report, nil
}

func (p *Pipeline) embedSpans(ctx context.Context, episodeID core.ID, spans []Span) ([]*core.Chunk, int, error) {
	chunks := make([]*core.Chunk, len(spans))
	cleaned := make([]bool, len(spans))
	var wg sync.WaitGroup

	for i, span := range spans {
		chunks[i] = &core.Chunk{
			EpisodeID: episodeID,
			Content:   span.Text,
			StartTime: span.Start,
			EndTime:   span.End,
		}

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			text, ok := p.embedder.clean(ctx, span)
			chunks[i].Content = text
			cleaned[i] = ok
			chunks[i].Embedding = p.embedder.embed(ctx, span, text)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, 0, fmt.Errorf("failed to schedule embedding: %w", err)
		}
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	count := 0
	for _, ok := range cleaned {
		if ok {
			count++
		}
	}
	return chunks, count, nil
}

// Release stops the worker pool.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
