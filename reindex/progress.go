package reindex

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker prints a running tally of reindex batches.
type ProgressTracker struct {
	writer    io.Writer
	startTime time.Time
	started   bool
	processed int
	succeeded int
	failed    int
	errored   int
	mu        sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stdout)
func NewProgressTracker(writer io.Writer) *ProgressTracker {
	return &ProgressTracker{writer: writer}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start(offset int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.processed, p.succeeded, p.failed, p.errored = 0, 0, 0, 0
	fmt.Fprintf(p.writer, "Starting reindex at offset %d\n", offset)
}

// Record adds one batch result to the tally and prints a line for it.
func (p *ProgressTracker) Record(offset int, result *BatchResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	succeeded, failed, errored := result.Tally()
	p.processed += result.Processed
	p.succeeded += succeeded
	p.failed += failed
	p.errored += errored

	fmt.Fprintf(p.writer, "Offset %d: %d chunks (ok %d, failed %d, error %d) | Processed: %d (ok %d, failed %d, error %d)\n",
		offset, result.Processed, succeeded, failed, errored,
		p.processed, p.succeeded, p.failed, p.errored)
}

// Finish prints the final tally.
func (p *ProgressTracker) Finish(nextOffset int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	status := "Done"
	if err != nil {
		status = fmt.Sprintf("Stopped at offset %d", nextOffset)
	}
	fmt.Fprintf(p.writer, "%s. Processed: %d (ok %d, failed %d, error %d) in %s\n",
		status, p.processed, p.succeeded, p.failed, p.errored,
		time.Since(p.startTime).Round(time.Millisecond))
}
