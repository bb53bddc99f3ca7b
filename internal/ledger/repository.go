// Package ledger records pipeline run outcomes in an embedded SQLite store.
//
// Each run is keyed by its natural identity (date_run, range, mode); a
// repeated backfill of the same key replaces the prior row, which is what
// makes re-running a date range safe. One process owns the ledger file at
// a time, so each write is a single transactional upsert with no external
// locking.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RunRecord is one pipeline execution's outcome.
//
// (DateRun, Range, Mode) is the natural key; upserting an existing key
// replaces every other column (last-write-wins).
type RunRecord struct {
	RunTime        time.Time      `json:"run_time"`
	DateRun        string         `json:"date_run"`
	Range          string         `json:"range"`
	Mode           string         `json:"mode"`
	Parameters     map[string]any `json:"parameters,omitempty"`
	ProcessID      int            `json:"process_id"`
	Success        bool           `json:"success"`
	NumRecords     int            `json:"num_records"`
	LogPath        string         `json:"log_path,omitempty"`
	PointsFilePath string         `json:"points_file_path,omitempty"`
}

// Repository defines run-ledger operations.
type Repository interface {
	Init(ctx context.Context) error
	Upsert(ctx context.Context, rec *RunRecord) error
	Get(ctx context.Context, dateRun, rangeParam, mode string) (*RunRecord, error)
}

// SQLiteRepository stores run records in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new run-ledger repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Init creates the runs table if it does not exist. Idempotent; safe to
// call on every process start.
func (r *SQLiteRepository) Init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_time TEXT,
			date_run TEXT,
			"range" TEXT,
			mode TEXT,
			parameters TEXT,
			process_id INTEGER,
			success INTEGER,
			num_records INTEGER,
			log_path TEXT,
			points_file_path TEXT,
			UNIQUE(date_run, "range", mode)
		)`)
	if err != nil {
		return fmt.Errorf("creating runs table: %w", err)
	}
	return nil
}

// Upsert inserts or replaces the run record for its natural key.
//
// A second call with the same (date_run, range, mode) leaves exactly one
// row holding the second call's values.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - rec: Run record to persist
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteRepository) Upsert(ctx context.Context, rec *RunRecord) error {
	if rec == nil {
		return errors.New("run record is required")
	}
	if rec.DateRun == "" || rec.Mode == "" {
		return errors.New("date_run and mode are required")
	}
	if rec.RunTime.IsZero() {
		rec.RunTime = time.Now().UTC()
	}

	var paramsJSON *string
	if rec.Parameters != nil {
		b, err := json.Marshal(rec.Parameters)
		if err != nil {
			return fmt.Errorf("marshalling run parameters: %w", err)
		}
		s := string(b)
		paramsJSON = &s
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (run_time, date_run, "range", mode, parameters, process_id, success, num_records, log_path, points_file_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date_run, "range", mode) DO UPDATE SET
			run_time=excluded.run_time,
			parameters=excluded.parameters,
			process_id=excluded.process_id,
			success=excluded.success,
			num_records=excluded.num_records,
			log_path=excluded.log_path,
			points_file_path=excluded.points_file_path`,
		rec.RunTime.UTC().Format(time.RFC3339),
		rec.DateRun,
		rec.Range,
		rec.Mode,
		paramsJSON,
		rec.ProcessID,
		boolToInt(rec.Success),
		rec.NumRecords,
		nullableString(rec.LogPath),
		nullableString(rec.PointsFilePath),
	)
	if err != nil {
		return fmt.Errorf("upserting run record: %w", err)
	}

	return nil
}

// Get returns the run record for a natural key, or ErrNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, dateRun, rangeParam, mode string) (*RunRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT run_time, date_run, "range", mode, parameters, process_id, success, num_records, log_path, points_file_path
		FROM runs WHERE date_run = ? AND "range" = ? AND mode = ?`,
		dateRun, rangeParam, mode,
	)

	var (
		rec        RunRecord
		runTime    string
		paramsJSON sql.NullString
		success    int
		logPath    sql.NullString
		pointsPath sql.NullString
	)
	err := row.Scan(&runTime, &rec.DateRun, &rec.Range, &rec.Mode, &paramsJSON,
		&rec.ProcessID, &success, &rec.NumRecords, &logPath, &pointsPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying run record: %w", err)
	}

	if t, perr := time.Parse(time.RFC3339, runTime); perr == nil {
		rec.RunTime = t
	}
	rec.Success = success != 0
	rec.LogPath = logPath.String
	rec.PointsFilePath = pointsPath.String
	if paramsJSON.Valid && paramsJSON.String != "" {
		if uerr := json.Unmarshal([]byte(paramsJSON.String), &rec.Parameters); uerr != nil {
			return nil, fmt.Errorf("unmarshalling run parameters: %w", uerr)
		}
	}

	return &rec, nil
}

// boolToInt stores success as 0/1 in SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullableString returns nil for empty strings, or the string otherwise.
// Used for nullable TEXT columns in SQLite.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
