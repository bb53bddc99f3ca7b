// Blast Furnace Telemetry Pipeline
//
// This is the main entry point for the bfpipeline application. It pulls
// raw furnace telemetry from the upstream monitoring API, normalizes it
// into InfluxDB line protocol, and writes it to the time-series store,
// with an SQLite ledger tracking which (date, range) units have been
// loaded.
//
// Two modes are supported:
//   - live:  poll the snapshot endpoint on a fixed cadence
//   - daily: backfill one date or a date range, both intra-day ranges each
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/furnaceworks/bf-pipeline/internal/fetch"
	"github.com/furnaceworks/bf-pipeline/internal/infrastructure/config"
	"github.com/furnaceworks/bf-pipeline/internal/infrastructure/database"
	"github.com/furnaceworks/bf-pipeline/internal/infrastructure/influxdb"
	"github.com/furnaceworks/bf-pipeline/internal/infrastructure/logging"
	"github.com/furnaceworks/bf-pipeline/internal/ledger"
	"github.com/furnaceworks/bf-pipeline/internal/mapping"
	"github.com/furnaceworks/bf-pipeline/internal/pipeline"
	"github.com/furnaceworks/bf-pipeline/internal/points"
	"github.com/furnaceworks/bf-pipeline/internal/runner"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
)

// cliDateLayout is the MM-DD-YYYY format the date flags accept.
const cliDateLayout = "01-02-2006"

// options collects the parsed command-line flags.
type options struct {
	mode         string
	date         string
	startDate    string
	endDate      string
	rangeParam   int
	dbWrite      bool
	override     bool
	retainFile   bool
	logRun       bool
	variableFile string
	configPath   string
}

func main() {
	// Cancel on interrupt signals for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, parseFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context, opts *options) error {
	log := logging.Default()
	log.Info("starting bfpipeline",
		"version", version,
		"commit", commit,
		"mode", opts.mode,
	)

	// .env carries upstream and store credentials in development; absence
	// is not an error.
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded .env file")
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", opts.configPath)

	// Reinitialise logger with config settings.
	log = logging.New(cfg.Logging, version)

	tables, err := mapping.LoadTables(cfg.Mappings.Path)
	if err != nil {
		return fmt.Errorf("loading field mappings: %w", err)
	}
	classifier := mapping.NewClassifier(tables)
	log.Info("field mappings loaded",
		"path", cfg.Mappings.Path,
		"variables", classifier.Size(),
	)

	// The store is only needed when writes are enabled; a dry run
	// (build + optional retention) must work without it.
	var store pipeline.StoreWriter
	var checker pipeline.ExistenceChecker = pipeline.NoopChecker{}
	if opts.dbWrite {
		influx, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to influxdb: %w", err)
		}
		defer influx.Close()
		store = influx
		if !opts.override {
			checker = influx
		}
		log.Info("connected to influxdb", "url", cfg.InfluxDB.URL)
	}

	// Run ledger, only opened when run recording is requested.
	var repo ledger.Repository
	if opts.logRun {
		db, err := database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening run ledger: %w", err)
		}
		defer db.Close()

		sqlRepo := ledger.NewSQLiteRepository(db.DB)
		if err := sqlRepo.Init(ctx); err != nil {
			return fmt.Errorf("initializing run ledger: %w", err)
		}
		repo = sqlRepo
		log.Info("run ledger ready", "path", db.Path())
	}

	pipe := pipeline.New(points.NewBuilder(classifier), store, checker, log, pipeline.Options{
		BatchSize:      cfg.Pipeline.BatchSize,
		WriteDelay:     cfg.Pipeline.GetWriteDelay(),
		MaxRetries:     cfg.Pipeline.MaxRetries,
		InitialBackoff: cfg.Pipeline.GetInitialBackoff(),
		MaxBackoff:     cfg.Pipeline.GetMaxBackoff(),
		OutputDir:      cfg.Pipeline.OutputDir,
		DBWrite:        opts.dbWrite,
		Override:       opts.override,
		RetainFile:     opts.retainFile,
	})

	r := runner.New(fetch.New(cfg.Upstream, log), pipe, repo, cfg, log, version, runner.Options{
		LogRun:       opts.logRun,
		VariableFile: opts.variableFile,
		Parameters:   opts.parameters(),
	})

	if opts.mode == "live" {
		return r.RunLive(ctx)
	}

	start, end, err := opts.resolveDates()
	if err != nil {
		return err
	}
	return r.RunRange(ctx, start, end)
}

// parseFlags reads the command line into an options struct.
func parseFlags() *options {
	opts := &options{}
	flag.StringVar(&opts.mode, "mode", "daily", "run mode: live (fetch latest) or daily (fetch by date)")
	flag.StringVar(&opts.date, "date", "", "date to backfill, MM-DD-YYYY (default: yesterday UTC)")
	flag.StringVar(&opts.startDate, "startdate", "", "range start date, MM-DD-YYYY")
	flag.StringVar(&opts.endDate, "enddate", "", "range end date, MM-DD-YYYY")
	flag.IntVar(&opts.rangeParam, "range", 1, "intra-day range: 1 is hours 0-12, 2 is hours 12-24")
	flag.BoolVar(&opts.dbWrite, "db-write", false, "write points to InfluxDB")
	flag.BoolVar(&opts.override, "override", true, "write even when a point already exists for the timestamp")
	flag.BoolVar(&opts.retainFile, "retain-file", false, "retain the gzipped points file in the output directory")
	flag.BoolVar(&opts.logRun, "log-run", false, "record run details in the SQLite ledger")
	flag.StringVar(&opts.variableFile, "variable-file", "", "process only the variables listed in this file (range mode)")
	flag.StringVar(&opts.configPath, "config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	// A degenerate range is a single-date run.
	if opts.startDate != "" && opts.startDate == opts.endDate {
		opts.date = opts.startDate
		opts.startDate = ""
		opts.endDate = ""
	}

	return opts
}

// resolveDates turns the date flags into an inclusive [start, end] span.
//
// Precedence: an explicit start/end pair wins, then a single date, then
// yesterday (UTC), matching how the cron jobs invoke the backfill.
func (o *options) resolveDates() (time.Time, time.Time, error) {
	if o.startDate != "" || o.endDate != "" {
		if o.startDate == "" || o.endDate == "" {
			return time.Time{}, time.Time{}, fmt.Errorf("startdate and enddate must be given together")
		}
		start, err := time.ParseInLocation(cliDateLayout, o.startDate, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid startdate %q: %w", o.startDate, err)
		}
		end, err := time.ParseInLocation(cliDateLayout, o.endDate, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid enddate %q: %w", o.endDate, err)
		}
		return start, end, nil
	}

	dateStr := o.date
	if dateStr == "" {
		dateStr = time.Now().UTC().AddDate(0, 0, -1).Format(cliDateLayout)
	}
	date, err := time.ParseInLocation(cliDateLayout, dateStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	return date, date, nil
}

// parameters serializes the effective invocation for the ledger row.
func (o *options) parameters() map[string]any {
	return map[string]any{
		"mode":          o.mode,
		"date":          o.date,
		"startdate":     o.startDate,
		"enddate":       o.endDate,
		"range":         o.rangeParam,
		"db_write":      o.dbWrite,
		"override":      o.override,
		"retain_file":   o.retainFile,
		"log_run":       o.logRun,
		"variable_file": o.variableFile,
	}
}
