// Package logging provides structured logging for the pipeline.
//
// It wraps log/slog with configuration-driven level, format, and output
// selection, plus per-run log files: each pipeline run (live poll or one
// (date, range) backfill unit) writes to its own log artifact in addition to
// the process output, and the run ledger stores that artifact's path.
//
// # Usage
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("starting", "mode", mode)
//
//	runLog, closer, err := logging.NewRun(cfg.Logging, version, logPath)
//	defer closer.Close()
package logging
