package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/furnaceworks/bf-pipeline/internal/decode"
	"github.com/furnaceworks/bf-pipeline/internal/infrastructure/logging"
	"github.com/furnaceworks/bf-pipeline/internal/points"
)

// StoreWriter writes one batch of line-protocol records to the time-series
// store. Implementations make exactly one attempt per call; the pipeline
// owns retry.
type StoreWriter interface {
	WriteBatch(ctx context.Context, lines []string) error
}

// ExistenceChecker reports whether a point already exists in the store.
// It backs duplicate suppression when override mode is disabled.
type ExistenceChecker interface {
	Exists(ctx context.Context, measurement string, ts time.Time) (bool, error)
}

// NoopChecker is an ExistenceChecker that never finds a point.
// It stands in when duplicate suppression is not wired (tests, dry runs).
type NoopChecker struct{}

// Exists always reports absent.
func (NoopChecker) Exists(context.Context, string, time.Time) (bool, error) {
	return false, nil
}

// Options controls pipeline behaviour for one run.
type Options struct {
	// BatchSize is the number of lines per store write.
	BatchSize int

	// WriteDelay is the pause between successful batch writes.
	WriteDelay time.Duration

	// MaxRetries bounds retry attempts per failed batch.
	MaxRetries int

	// InitialBackoff is the first retry delay; it doubles per attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the retry delay.
	MaxBackoff time.Duration

	// OutputDir is where the spool and audit artifacts live.
	OutputDir string

	// DBWrite enables writing to the store. When false the run only
	// spools (and optionally retains) the serialized lines.
	DBWrite bool

	// Override re-writes all points, relying on the store's
	// replace-on-duplicate-timestamp semantics. When false, pre-existing
	// points are suppressed via the ExistenceChecker.
	Override bool

	// RetainFile keeps a compressed audit copy of the run's lines.
	RetainFile bool
}

// Unit identifies one pipeline run for artifact naming.
type Unit struct {
	Mode     string // "live" or "daily"
	DateStr  string // formatted date for filenames
	TimeStr  string // formatted time, live mode only
	RangeStr string // intra-day range, daily mode only
}

// artifactName returns the canonical audit file name for the unit.
func (u Unit) artifactName() string {
	if u.Mode == "live" {
		return fmt.Sprintf("live_%s_%s.txt", u.DateStr, u.TimeStr)
	}
	return fmt.Sprintf("date_%s_Range%s.txt", u.DateStr, u.RangeStr)
}

// Result summarizes one pipeline run.
type Result struct {
	// Records is the number of decoded records processed.
	Records int

	// LinesBuilt is the number of serialized points produced.
	LinesBuilt int

	// LinesWritten is the number of lines attempted against the store.
	// On a failed run this counts lines in batches that were attempted,
	// not necessarily committed (at-least-once, never rolled back).
	LinesWritten int

	// PointsFile is the path of the retained audit artifact, empty when
	// retention is disabled or the run failed before finalizing.
	PointsFile string
}

// Pipeline buffers serialized points for one run and writes them to the
// store in retried batches, with an optional compressed audit copy.
//
// The pipeline is the sole owner of the run's interaction with the store
// and of the spool artifact; the orchestrator owns record acquisition and
// ledger bookkeeping.
type Pipeline struct {
	builder *points.Builder
	store   StoreWriter
	checker ExistenceChecker
	log     *logging.Logger
	opts    Options
}

// New creates a Pipeline for one run.
//
// Parameters:
//   - builder: Point builder over the deployment's classifier
//   - store: Batch writer for the time-series store
//   - checker: Existence probe for duplicate suppression (NoopChecker if
//     suppression is not wired)
//   - log: Run-scoped logger
//   - opts: Behaviour options for this run
func New(builder *points.Builder, store StoreWriter, checker ExistenceChecker, log *logging.Logger, opts Options) *Pipeline {
	return &Pipeline{
		builder: builder,
		store:   store,
		checker: checker,
		log:     log,
		opts:    opts,
	}
}

// Run processes one run's records end to end: serialize, spool, flush to
// the store, and finalize the audit artifact.
//
// Records without a usable timestamp are logged and skipped — they cannot
// be keyed in the store. A store failure after retries exhaust returns an
// error with previously flushed batches left in place; the Result then
// carries the attempted line count.
//
// Parameters:
//   - ctx: Context for cancellation
//   - records: Decoded records for this unit
//   - loc: Zone the upstream localizes timestamps in
//   - unit: Run identity for artifact naming
//
// Returns:
//   - *Result: Always non-nil, populated as far as the run progressed
//   - error: First unrecoverable failure (spool I/O or exhausted retries)
func (p *Pipeline) Run(ctx context.Context, records []decode.Record, loc *time.Location, unit Unit) (*Result, error) {
	result := &Result{Records: len(records)}

	sp, err := newSpool(p.opts.OutputDir)
	if err != nil {
		return result, err
	}
	// The spool is transient unless the run succeeds with retention on.
	finalized := false
	defer func() {
		if !finalized {
			if derr := sp.Discard(); derr != nil {
				p.log.Warn("discarding spool failed", "error", derr)
			}
		}
	}()

	var lines []string
	for _, rec := range records {
		ts, err := rec.Timestamp(loc)
		if err != nil {
			if errors.Is(err, decode.ErrNoTimestamp) {
				p.log.Warn("record has no timestamp, skipping", "fields", rec.Len())
			} else {
				p.log.Warn("record timestamp unparsable, skipping", "error", err)
			}
			continue
		}

		recLines := p.builder.Build(rec, ts)
		if len(recLines) == 0 {
			continue
		}
		if err := sp.Append(recLines); err != nil {
			return result, err
		}
		lines = append(lines, recLines...)
	}
	result.LinesBuilt = len(lines)
	p.log.Debug("points built", "records", len(records), "lines", len(lines))

	if p.opts.DBWrite {
		toWrite := lines
		if !p.opts.Override {
			toWrite, err = p.filterExisting(ctx, lines)
			if err != nil {
				return result, err
			}
		}

		written, err := p.flush(ctx, toWrite)
		result.LinesWritten = written
		if err != nil {
			return result, err
		}
	}

	if p.opts.RetainFile {
		finalPath, err := sp.Retain(p.opts.OutputDir, unit.artifactName())
		if err != nil {
			return result, err
		}
		finalized = true
		result.PointsFile = finalPath
		p.log.Info("audit artifact retained", "path", finalPath)
	}

	return result, nil
}

// filterExisting drops lines whose (measurement, timestamp) already holds a
// point in the store. Probe results are memoized per run so repeated pairs
// cost one query.
func (p *Pipeline) filterExisting(ctx context.Context, lines []string) ([]string, error) {
	type key struct {
		measurement string
		ts          int64
	}
	seen := make(map[key]bool)

	kept := lines[:0:0]
	for _, line := range lines {
		measurement := points.Measurement(line)
		ts, ok := points.Timestamp(line)
		if measurement == "" || !ok {
			kept = append(kept, line)
			continue
		}

		k := key{measurement, ts.Unix()}
		exists, cached := seen[k]
		if !cached {
			var err error
			exists, err = p.checker.Exists(ctx, measurement, ts)
			if err != nil {
				return nil, fmt.Errorf("existence check: %w", err)
			}
			seen[k] = exists
		}
		if !exists {
			kept = append(kept, line)
		}
	}

	if dropped := len(lines) - len(kept); dropped > 0 {
		p.log.Info("duplicate suppression dropped lines", "dropped", dropped)
	}
	return kept, nil
}
