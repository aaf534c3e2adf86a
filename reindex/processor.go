package reindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/lahza/ai"
	"github.com/poiesic/lahza/core"
	"github.com/poiesic/lahza/retry"
)

// Processor runs one reindex batch: fetch a page, embed each chunk, write
// each vector back. It keeps no state between calls.
type Processor struct {
	fetcher   PageFetcher
	embedder  ai.Embedder
	updater   *Updater
	itemDelay time.Duration
	logger    *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets a custom logger for the processor.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithItemDelay pauses after every successful update, to stay under
// provider rate limits.
func WithItemDelay(delay time.Duration) Option {
	return func(p *Processor) {
		p.itemDelay = delay
	}
}

// NewProcessor creates a Processor.
// Usually fetcher and writer are the same storage.ChunkRepository.
func NewProcessor(fetcher PageFetcher, writer EmbeddingWriter, embedder ai.Embedder, opts ...Option) (*Processor, error) {
	if fetcher == nil {
		return nil, errors.New("page fetcher is required")
	}
	if writer == nil {
		return nil, errors.New("embedding writer is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}

	p := &Processor{
		fetcher:  fetcher,
		embedder: embedder,
		updater:  NewUpdater(writer),
		logger:   slog.Default().With("component", "reindex-processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ProcessBatch reindexes the page [offset, offset+limit).
//
// A fetch failure aborts the batch and is returned wrapping ErrFetchFailed.
// Otherwise every fetched chunk gets exactly one ItemResult, in page order,
// and NextOffset is offset+limit regardless of how many items succeeded.
// Chunks are processed one at a time.
func (p *Processor) ProcessBatch(ctx context.Context, offset, limit int) (*BatchResult, error) {
	if offset < 0 || limit < 1 {
		return nil, fmt.Errorf("%w: offset %d, limit %d", ErrInvalidBatch, offset, limit)
	}

	p.logger.Debug("fetching", "offset", offset, "limit", limit)
	page, err := p.fetcher.FetchPage(ctx, offset, limit)
	if err != nil {
		p.logger.Error("page fetch failed", "offset", offset, "limit", limit, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	if len(page) == 0 {
		p.logger.Debug("empty", "offset", offset)
		return &BatchResult{
			Message:    MessageNoMoreChunks,
			NextOffset: offset,
			Details:    []ItemResult{},
		}, nil
	}

	p.logger.Debug("processing", "offset", offset, "count", len(page))
	details := make([]ItemResult, 0, len(page))
	for _, chunk := range page {
		details = append(details, p.processItem(ctx, chunk))
	}

	result := &BatchResult{
		Message:    MessageBatchProcessed,
		Processed:  len(page),
		Count:      len(page),
		NextOffset: offset + limit,
		Details:    details,
	}

	p.logger.Debug("responding", "next_offset", result.NextOffset)
	succeeded, failed, errored := result.Tally()
	p.logger.Info("batch processed",
		"offset", offset,
		"processed", result.Processed,
		"succeeded", succeeded,
		"failed", failed,
		"errored", errored)
	return result, nil
}

// RunBatch implements BatchRunner so the driver can run in process.
func (p *Processor) RunBatch(ctx context.Context, offset, limit int) (*BatchResult, error) {
	return p.ProcessBatch(ctx, offset, limit)
}

func (p *Processor) processItem(ctx context.Context, chunk *core.Chunk) ItemResult {
	vector, err := p.embedder.EmbedText(ctx, chunk.Content)
	if err != nil {
		return p.itemFailure(ctx, chunk, "embed", err)
	}

	if err := p.updater.Update(ctx, chunk.Id, vector); err != nil {
		return p.itemFailure(ctx, chunk, "update", err)
	}

	if p.itemDelay > 0 {
		retry.Sleep(ctx, p.itemDelay)
	}
	return ItemResult{ID: chunk.Id, Status: StatusSuccess}
}

func (p *Processor) itemFailure(ctx context.Context, chunk *core.Chunk, stage string, err error) ItemResult {
	status := StatusFailed
	if ctx.Err() != nil {
		status = StatusError
	}
	p.logger.Warn("chunk failed",
		"id", chunk.Id,
		"stage", stage,
		"status", status,
		"length", len(chunk.Content),
		"preview", ai.Preview(chunk.Content, 50),
		"err", err)
	return ItemResult{ID: chunk.Id, Status: status, Error: err.Error()}
}
