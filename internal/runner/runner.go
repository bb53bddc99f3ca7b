package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/furnaceworks/bf-pipeline/internal/decode"
	"github.com/furnaceworks/bf-pipeline/internal/infrastructure/config"
	"github.com/furnaceworks/bf-pipeline/internal/infrastructure/logging"
	"github.com/furnaceworks/bf-pipeline/internal/ledger"
	"github.com/furnaceworks/bf-pipeline/internal/pipeline"
)

// Filename layouts for run artifacts and log files. These match the
// formats the ops tooling expects when globbing the output directories.
const (
	dateLayout = "01-02-2006"
	timeLayout = "15-04-05"
)

// Fetcher retrieves raw payloads from the upstream data service.
//
// internal/fetch provides the production implementation; tests substitute
// fakes.
type Fetcher interface {
	FetchLive(ctx context.Context) (string, error)
	FetchDaily(ctx context.Context, date time.Time, rangeNum int) (string, error)
}

// Options shape a single invocation of the runner.
type Options struct {
	// LogRun enables recording run outcomes in the SQLite ledger.
	LogRun bool

	// VariableFile optionally restricts processing to the raw variable
	// names listed in this file, one per line. Range mode only.
	VariableFile string

	// Parameters is the effective invocation parameter set, serialized
	// into the ledger row for later inspection.
	Parameters map[string]any
}

// Runner orchestrates fetch, decode, transform and write cycles in live
// and historical range modes.
//
// Each run is single-threaded: units execute sequentially and the runner
// is the sole writer to its ledger file.
type Runner struct {
	fetcher Fetcher
	pipe    *pipeline.Pipeline
	repo    ledger.Repository
	cfg     *config.Config
	log     *logging.Logger
	opts    Options
	version string
}

// New creates a runner.
//
// repo may be nil when ledger recording is disabled; it is only touched
// when opts.LogRun is set.
func New(fetcher Fetcher, pipe *pipeline.Pipeline, repo ledger.Repository, cfg *config.Config, log *logging.Logger, version string, opts Options) *Runner {
	return &Runner{
		fetcher: fetcher,
		pipe:    pipe,
		repo:    repo,
		cfg:     cfg,
		log:     log,
		opts:    opts,
		version: version,
	}
}

// runLogger derives a per-run logger that tees to a log file named after
// the unit, and returns the file path for the ledger row. Falls back to
// the base logger if the file cannot be created.
func (r *Runner) runLogger(name, runID string) (*logging.Logger, io.Closer, string) {
	if err := os.MkdirAll(r.cfg.Run.LogDir, 0o755); err != nil {
		r.log.Warn("cannot create log directory, using base logger",
			slog.String("dir", r.cfg.Run.LogDir),
			slog.String("error", err.Error()),
		)
		return r.log.With(slog.String("run_id", runID)), nil, ""
	}

	path := filepath.Join(r.cfg.Run.LogDir, name)
	log, closer, err := logging.NewRun(r.cfg.Logging, r.version, path)
	if err != nil {
		r.log.Warn("cannot open run log file, using base logger",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return r.log.With(slog.String("run_id", runID)), nil, ""
	}

	return log.With(slog.String("run_id", runID)), closer, path
}

// newRunID returns the identifier attached to a run's log lines and
// ledger parameters.
func newRunID() string {
	return uuid.New().String()
}

// runParameters merges the invocation parameters with per-run identity.
func (r *Runner) runParameters(runID string) map[string]any {
	params := make(map[string]any, len(r.opts.Parameters)+1)
	for k, v := range r.opts.Parameters {
		params[k] = v
	}
	params["run_id"] = runID
	return params
}

// loadVariableList reads the allow-list file: one raw variable name per
// line, blank lines ignored. Returns nil when no file is configured,
// which downstream treats as "no restriction".
func loadVariableList(path string) (map[string]struct{}, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading variable file: %w", err)
	}

	allow := make(map[string]struct{})
	for _, line := range strings.Split(string(data), "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		allow[name] = struct{}{}
	}

	return allow, nil
}

// filterRecords applies the allow-list to every record. A nil allow-list
// passes records through unchanged.
func filterRecords(records []decode.Record, allow map[string]struct{}) []decode.Record {
	if allow == nil {
		return records
	}
	out := make([]decode.Record, len(records))
	for i, rec := range records {
		out[i] = rec.Filter(allow)
	}
	return out
}

// sleepCtx waits d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
