package reindex

import "errors"

var (
	// ErrInvalidBatch is returned for a negative offset or a non-positive limit.
	ErrInvalidBatch = errors.New("invalid batch bounds")

	// ErrFetchFailed wraps a page fetch failure. It aborts the whole batch.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrUpdate wraps a rejected or failed embedding write for one chunk.
	ErrUpdate = errors.New("update failed")

	// ErrBatchFailed is returned by the driver when a batch keeps failing
	// after every retry.
	ErrBatchFailed = errors.New("batch failed")
)
