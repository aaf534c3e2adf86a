package reindex

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/lahza/core"
	"github.com/poiesic/lahza/retry"
	"github.com/poiesic/lahza/storage"
)

// Driver defaults.
const (
	DefaultBatchSize   = 5
	DefaultMaxAttempts = 5
	DefaultRetryDelay  = 2 * time.Second
	DefaultBatchDelay  = 1 * time.Second
	DefaultItemDelay   = 500 * time.Millisecond

	// DefaultCheckpointName names the driver's persisted cursor.
	DefaultCheckpointName = "reindex"
)

// BatchRunner runs one reindex batch. It is implemented in process by
// *Processor and remotely by *HTTPRunner.
type BatchRunner interface {
	RunBatch(ctx context.Context, offset, limit int) (*BatchResult, error)
}

// DriverConfig controls the batch loop.
type DriverConfig struct {
	// BatchSize is the limit sent with every batch.
	BatchSize int
	// StartOffset is where the loop begins when no checkpoint exists.
	StartOffset int
	// MaxAttempts bounds the calls made for one offset before giving up.
	MaxAttempts int
	// RetryDelay is the first backoff delay; it doubles per retry.
	RetryDelay time.Duration
	// BatchDelay is the pause between successful batches.
	BatchDelay time.Duration
	// CheckpointName names the persisted cursor when a CheckpointRepository is set.
	CheckpointName string
}

// DefaultDriverConfig returns the default driver settings.
func DefaultDriverConfig() DriverConfig {
	return DriverConfig{
		BatchSize:      DefaultBatchSize,
		MaxAttempts:    DefaultMaxAttempts,
		RetryDelay:     DefaultRetryDelay,
		BatchDelay:     DefaultBatchDelay,
		CheckpointName: DefaultCheckpointName,
	}
}

// Summary totals a driver run.
type Summary struct {
	StartOffset int
	// NextOffset is the first offset not yet processed.
	NextOffset int
	Batches    int
	Processed  int
	Succeeded  int
	Failed     int
	Errored    int
	Elapsed    time.Duration
}

// Driver repeatedly runs batches until the chunk table is exhausted.
type Driver struct {
	runner      BatchRunner
	config      DriverConfig
	checkpoints storage.CheckpointRepository
	progress    *ProgressTracker
	logger      *slog.Logger
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithCheckpoints persists the cursor after every batch so an interrupted
// run resumes where it stopped.
func WithCheckpoints(repo storage.CheckpointRepository) DriverOption {
	return func(d *Driver) {
		d.checkpoints = repo
	}
}

// WithProgress prints a running tally to w.
func WithProgress(w io.Writer) DriverOption {
	return func(d *Driver) {
		d.progress = NewProgressTracker(w)
	}
}

// WithDriverLogger sets a custom logger for the driver.
func WithDriverLogger(logger *slog.Logger) DriverOption {
	return func(d *Driver) {
		d.logger = logger
	}
}

// NewDriver creates a Driver. Zero config fields take their defaults.
func NewDriver(runner BatchRunner, config DriverConfig, opts ...DriverOption) *Driver {
	defaults := DefaultDriverConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.RetryDelay < 0 {
		config.RetryDelay = 0
	}
	if config.BatchDelay < 0 {
		config.BatchDelay = 0
	}
	if config.StartOffset < 0 {
		config.StartOffset = 0
	}
	if config.CheckpointName == "" {
		config.CheckpointName = defaults.CheckpointName
	}

	d := &Driver{
		runner:   runner,
		config:   config,
		progress: NewProgressTracker(io.Discard),
		logger:   slog.Default().With("component", "reindex-driver"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run loops over batches until a batch processes fewer chunks than the
// batch size. A failing batch is retried at the same offset with backoff;
// once attempts are exhausted Run stops and returns ErrBatchFailed with the
// summary's NextOffset at the unprocessed page.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	offset, err := d.startOffset(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	summary := &Summary{StartOffset: offset, NextOffset: offset}
	d.progress.Start(offset)
	d.logger.Info("reindex started", "offset", offset, "batch_size", d.config.BatchSize)

	err = d.loop(ctx, summary)
	summary.Elapsed = time.Since(start)
	d.progress.Finish(summary.NextOffset, err)
	if err != nil {
		d.logger.Error("reindex stopped", "next_offset", summary.NextOffset, "err", err)
		return summary, err
	}

	if d.checkpoints != nil {
		if err := d.saveCheckpoint(ctx, 0); err != nil {
			return summary, err
		}
	}
	d.logger.Info("reindex complete",
		"processed", summary.Processed,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"errored", summary.Errored,
		"elapsed", summary.Elapsed)
	return summary, nil
}

func (d *Driver) loop(ctx context.Context, summary *Summary) error {
	limit := d.config.BatchSize
	offset := summary.NextOffset

	for {
		var result *BatchResult
		err := retry.WithBackoff(ctx, func() error {
			r, err := d.runner.RunBatch(ctx, offset, limit)
			if err != nil {
				d.logger.Warn("batch call failed", "offset", offset, "err", err)
				return err
			}
			result = r
			return nil
		}, d.config.MaxAttempts, d.config.RetryDelay)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w at offset %d after %d attempts: %w", ErrBatchFailed, offset, d.config.MaxAttempts, err)
		}

		if result.Processed == 0 {
			return nil
		}

		succeeded, failed, errored := result.Tally()
		summary.Batches++
		summary.Processed += result.Processed
		summary.Succeeded += succeeded
		summary.Failed += failed
		summary.Errored += errored
		d.progress.Record(offset, result)

		next := result.NextOffset
		if next <= offset {
			next = offset + limit
		}
		offset = next
		summary.NextOffset = offset

		if d.checkpoints != nil {
			if err := d.saveCheckpoint(ctx, offset); err != nil {
				return err
			}
		}

		if result.Processed < limit {
			return nil
		}

		if d.config.BatchDelay > 0 && !retry.Sleep(ctx, d.config.BatchDelay) {
			return ctx.Err()
		}
	}
}

func (d *Driver) startOffset(ctx context.Context) (int, error) {
	if d.checkpoints == nil {
		return d.config.StartOffset, nil
	}
	checkpoint, err := d.checkpoints.LoadCheckpoint(ctx, d.config.CheckpointName)
	if err != nil {
		return 0, fmt.Errorf("load checkpoint: %w", err)
	}
	if checkpoint == nil || checkpoint.Offset == 0 {
		return d.config.StartOffset, nil
	}
	d.logger.Info("resuming from checkpoint", "offset", checkpoint.Offset, "updated_at", checkpoint.UpdatedAt)
	return checkpoint.Offset, nil
}

func (d *Driver) saveCheckpoint(ctx context.Context, offset int) error {
	err := d.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{Name: d.config.CheckpointName, Offset: offset})
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}
