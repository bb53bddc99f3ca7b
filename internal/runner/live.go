package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/furnaceworks/bf-pipeline/internal/decode"
	"github.com/furnaceworks/bf-pipeline/internal/ledger"
	"github.com/furnaceworks/bf-pipeline/internal/pipeline"
)

// RunLive polls the upstream live endpoint until the context is
// cancelled.
//
// Each cycle fetches the current snapshot, decodes it, runs the write
// pipeline, and records the outcome in the ledger when enabled. The next
// cycle starts one cadence period after the previous one began: the
// sleep is shortened by the cycle's own duration, and a cycle that
// overruns the cadence is logged and followed immediately by the next
// one, never by a catch-up burst.
//
// A fetch failure is fatal. The live feed has no history, so a missed
// snapshot cannot be refetched later and continuing silently would leave
// an undetectable gap.
func (r *Runner) RunLive(ctx context.Context) error {
	cadence := r.cfg.GetCadence()
	r.log.Info("starting live mode",
		slog.Duration("cadence", cadence),
		slog.Bool("log_run", r.opts.LogRun),
	)

	for {
		start := time.Now()

		if err := r.liveCycle(ctx); err != nil {
			return err
		}

		elapsed := time.Since(start)
		if elapsed > cadence {
			r.log.Warn("live cycle exceeded cadence",
				slog.Duration("elapsed", elapsed),
				slog.Duration("cadence", cadence),
			)
		}
		if err := sleepCtx(ctx, cadence-elapsed); err != nil {
			r.log.Info("live mode stopping", slog.String("reason", err.Error()))
			return nil
		}
	}
}

// liveCycle executes one fetch→decode→write pass for the current instant.
func (r *Runner) liveCycle(ctx context.Context) error {
	now := time.Now().UTC()
	dateStr := now.Format(dateLayout)
	timeStr := now.Format(timeLayout)
	runID := newRunID()

	logName := fmt.Sprintf("live_%s_%s_%d.log", dateStr, timeStr, os.Getpid())
	log, closer, logPath := r.runLogger(logName, runID)
	if closer != nil {
		defer closer.Close()
	}

	raw, err := r.fetcher.FetchLive(ctx)
	if err != nil {
		log.Error("live fetch failed", slog.String("error", err.Error()))
		return fmt.Errorf("live fetch: %w", err)
	}
	log.Debug("fetched live payload", slog.Int("bytes", len(raw)))

	records, err := decode.Decode(raw)
	if err != nil {
		log.Error("live payload decode failed", slog.String("error", err.Error()))
		return fmt.Errorf("live decode: %w", err)
	}

	unit := pipeline.Unit{Mode: "live", DateStr: dateStr, TimeStr: timeStr}
	result, runErr := r.pipe.Run(ctx, records, r.cfg.Location(), unit)
	if runErr != nil {
		log.Error("live pipeline run failed", slog.String("error", runErr.Error()))
	} else {
		log.Info("live cycle complete",
			slog.Int("records", result.Records),
			slog.Int("lines_written", result.LinesWritten),
		)
	}

	if r.opts.LogRun {
		rec := &ledger.RunRecord{
			RunTime:        time.Now().UTC(),
			DateRun:        dateStr,
			Range:          "1",
			Mode:           "live",
			Parameters:     r.runParameters(runID),
			ProcessID:      os.Getpid(),
			Success:        runErr == nil,
			NumRecords:     result.Records,
			LogPath:        logPath,
			PointsFilePath: result.PointsFile,
		}
		if err := r.repo.Upsert(ctx, rec); err != nil {
			log.Error("failed to record live run", slog.String("error", err.Error()))
		}
	}

	return runErr
}
