// Package pipeline owns the transform-and-write path for one run.
//
// It serializes decoded records into line protocol, spools them to a
// per-process transient file, writes them to the time-series store in
// fixed-size batches with bounded exponential backoff, and optionally
// retains a gzip-compressed audit artifact named from the run identity.
//
// # Failure semantics
//
// A batch that fails through all retries propagates ErrRetriesExhausted;
// batches flushed before it stay written (at-least-once delivery). The
// Result reports attempted lines so the ledger records the true extent of
// a partial run.
//
// # Duplicate suppression
//
// With override mode on, the run simply re-writes all points and relies on
// the store's replace-on-duplicate-timestamp semantics. With override off,
// an ExistenceChecker probes the store per (measurement, timestamp) and
// existing points are dropped before flushing.
package pipeline
