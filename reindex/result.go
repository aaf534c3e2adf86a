package reindex

import "github.com/poiesic/lahza/core"

// Messages carried by BatchResult.
const (
	MessageNoMoreChunks   = "No more chunks found"
	MessageBatchProcessed = "Batch processed"
)

// ItemStatus is the outcome of processing one chunk.
type ItemStatus string

const (
	// StatusSuccess means the chunk was embedded and written.
	StatusSuccess ItemStatus = "success"
	// StatusFailed means embedding or the write failed for this chunk.
	StatusFailed ItemStatus = "failed"
	// StatusError means the chunk was abandoned because the invocation was
	// cancelled or ran out of time.
	StatusError ItemStatus = "error"
)

// ItemResult reports the outcome for a single chunk.
type ItemResult struct {
	ID     core.ID    `json:"id"`
	Status ItemStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

// BatchResult is the response of one reindex invocation.
// len(Details) == Processed == Count == size of the fetched page.
type BatchResult struct {
	Message    string       `json:"message"`
	Processed  int          `json:"processed"`
	Count      int          `json:"count"`
	NextOffset int          `json:"next_offset"`
	Details    []ItemResult `json:"details"`
}

// Tally counts the statuses in the result.
func (r *BatchResult) Tally() (succeeded, failed, errored int) {
	for _, d := range r.Details {
		switch d.Status {
		case StatusSuccess:
			succeeded++
		case StatusFailed:
			failed++
		case StatusError:
			errored++
		}
	}
	return succeeded, failed, errored
}
