package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/furnaceworks/bf-pipeline/internal/decode"
	"github.com/furnaceworks/bf-pipeline/internal/ledger"
	"github.com/furnaceworks/bf-pipeline/internal/pipeline"
)

// rangesPerDay is the number of intra-day ranges the upstream daily
// endpoint splits each date into. Range 1 covers hours 0-12, range 2
// covers hours 12-24.
const rangesPerDay = 2

// RunRange processes every date from start to end inclusive, fetching
// both intra-day ranges for each.
//
// Units are isolated: a failed (date, range) unit is logged with its
// identity, recorded in the ledger as unsuccessful, and never prevents
// the remaining units from running. The current UTC date is processed
// but not ledgered, since its upstream data is still accumulating and a
// success row would wrongly mark the day complete.
//
// Returns an error only for invalid input or context cancellation; unit
// failures are reported through logs and the ledger.
func (r *Runner) RunRange(ctx context.Context, start, end time.Time) error {
	if start.After(end) {
		return fmt.Errorf("start date %s is after end date %s",
			start.Format(dateLayout), end.Format(dateLayout))
	}

	allow, err := loadVariableList(r.opts.VariableFile)
	if err != nil {
		return err
	}
	if allow != nil {
		r.log.Info("variable allow-list loaded",
			slog.String("file", r.opts.VariableFile),
			slog.Int("variables", len(allow)),
		)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	unitDelay := r.cfg.GetUnitDelay()
	first := true

	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		ledgerThisDate := r.opts.LogRun
		if !date.Before(today) {
			ledgerThisDate = false
			r.log.Info("skipping ledger entry, date still accumulating data",
				slog.String("date", date.Format(dateLayout)),
			)
		}

		for rangeNum := 1; rangeNum <= rangesPerDay; rangeNum++ {
			if !first && unitDelay > 0 {
				if err := sleepCtx(ctx, unitDelay); err != nil {
					return err
				}
			}
			first = false

			if err := ctx.Err(); err != nil {
				return err
			}

			r.runUnit(ctx, date, rangeNum, allow, ledgerThisDate)
		}
	}

	return nil
}

// runUnit processes one (date, range) unit end to end. All failures are
// absorbed here so sibling units keep running.
func (r *Runner) runUnit(ctx context.Context, date time.Time, rangeNum int, allow map[string]struct{}, ledgerThis bool) {
	dateStr := date.Format(dateLayout)
	rangeStr := strconv.Itoa(rangeNum)
	runID := newRunID()

	logName := fmt.Sprintf("daily_%s_%s_%d.log", dateStr, rangeStr, os.Getpid())
	log, closer, logPath := r.runLogger(logName, runID)
	if closer != nil {
		defer closer.Close()
	}

	log.Info("processing unit",
		slog.String("date", dateStr),
		slog.Int("range", rangeNum),
	)

	numRecords := 0
	pointsFile := ""
	unitErr := func() error {
		raw, err := r.fetcher.FetchDaily(ctx, date, rangeNum)
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}

		records, err := decode.Decode(raw)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		records = filterRecords(records, allow)

		unit := pipeline.Unit{Mode: "daily", DateStr: dateStr, RangeStr: rangeStr}
		result, err := r.pipe.Run(ctx, records, r.cfg.Location(), unit)
		numRecords = result.Records
		pointsFile = result.PointsFile
		if err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}

		log.Info("unit complete",
			slog.Int("records", result.Records),
			slog.Int("lines_written", result.LinesWritten),
		)
		return nil
	}()

	if unitErr != nil {
		log.Error("unit failed",
			slog.String("date", dateStr),
			slog.Int("range", rangeNum),
			slog.String("error", unitErr.Error()),
		)
	}

	if ledgerThis {
		rec := &ledger.RunRecord{
			RunTime:        time.Now().UTC(),
			DateRun:        dateStr,
			Range:          rangeStr,
			Mode:           "daily",
			Parameters:     r.runParameters(runID),
			ProcessID:      os.Getpid(),
			Success:        unitErr == nil,
			NumRecords:     numRecords,
			LogPath:        logPath,
			PointsFilePath: pointsFile,
		}
		if err := r.repo.Upsert(ctx, rec); err != nil {
			log.Error("failed to record unit run", slog.String("error", err.Error()))
		}
	}
}
