package ai

import "errors"

var (
	// ErrEmbeddingFailed is returned for every embedding failure: API error
	// payloads, missing vectors, wrong dimensionality, transport errors and timeouts.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrCleaningFailed is returned when a transcript cleaner produced no usable text.
	ErrCleaningFailed = errors.New("transcript cleaning failed")

	// ErrInvalidConfig indicates an incomplete or inconsistent Config.
	ErrInvalidConfig = errors.New("invalid ai config")
)
