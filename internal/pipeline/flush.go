package pipeline

import (
	"context"
	"fmt"
	"time"
)

// flush writes lines to the store in fixed-size batches.
//
// Each batch is retried by writeWithRetry; between successful batches a
// configurable pause respects the store's ingestion rate limits. On
// failure the attempted count includes the failed batch — prior batches
// stay written (at-least-once, no rollback).
func (p *Pipeline) flush(ctx context.Context, lines []string) (int, error) {
	if len(lines) == 0 {
		return 0, nil
	}

	batchSize := p.opts.BatchSize
	if batchSize <= 0 {
		batchSize = len(lines)
	}

	written := 0
	for start := 0; start < len(lines); start += batchSize {
		end := start + batchSize
		if end > len(lines) {
			end = len(lines)
		}
		batch := lines[start:end]

		written += len(batch)
		if err := p.writeWithRetry(ctx, batch); err != nil {
			return written, err
		}
		p.log.Info("batch written", "lines", len(batch), "total", written)

		if end < len(lines) && p.opts.WriteDelay > 0 {
			if err := sleepCtx(ctx, p.opts.WriteDelay); err != nil {
				return written, err
			}
		}
	}

	return written, nil
}

// writeWithRetry issues one batch write with a bounded exponential backoff.
//
// The retry loop is an explicit state machine: attempt counter and current
// backoff are plain values, and exhaustion returns ErrRetriesExhausted
// wrapping the final store error.
func (p *Pipeline) writeWithRetry(ctx context.Context, batch []string) error {
	backoff := p.opts.InitialBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	for attempt := 1; ; attempt++ {
		err := p.store.WriteBatch(ctx, batch)
		if err == nil {
			return nil
		}

		if attempt > p.opts.MaxRetries {
			return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
		}

		p.log.Warn("batch write failed, backing off",
			"attempt", attempt,
			"backoff", backoff.String(),
			"error", err,
		)

		if err := sleepCtx(ctx, backoff); err != nil {
			return err
		}

		backoff *= 2
		if p.opts.MaxBackoff > 0 && backoff > p.opts.MaxBackoff {
			backoff = p.opts.MaxBackoff
		}
	}
}

// sleepCtx pauses for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
