package pipeline

import "errors"

// Sentinel errors for the write pipeline.
var (
	// ErrRetriesExhausted indicates a batch write failed through all
	// retry attempts. Previously flushed batches remain written; the
	// run is marked failed in the ledger with the attempted count.
	ErrRetriesExhausted = errors.New("pipeline: batch write retries exhausted")
)
