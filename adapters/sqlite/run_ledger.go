// Package sqlite keeps the run ledger: one row per batch run and one per
// experiment outcome.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"labmerge/domain/core"
	"labmerge/internal/errors"
	"labmerge/internal/migration"
	"labmerge/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the SQLite file at path (":memory:" for a throwaway
// ledger) and applies the schema
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, errors.IOError(err, "failed to open ledger %s", path)
	}
	// one connection keeps an in-memory database alive across calls
	db.SetMaxOpenConns(1)

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// RunLedger implements ports.RunLedgerPort on SQLite
type RunLedger struct {
	db *sqlx.DB
}

var _ ports.RunLedgerPort = (*RunLedger)(nil)

// NewRunLedger creates a ledger over an opened database
func NewRunLedger(db *sqlx.DB) *RunLedger {
	return &RunLedger{db: db}
}

// StartRun inserts a new run
func (l *RunLedger) StartRun(ctx context.Context, run ports.RunRecord) error {
	_, err := l.db.NamedExecContext(ctx, `
		INSERT INTO batch_runs (id, command, input_dir, output_dir, started_at, completed_at, merged, empty, failed)
		VALUES (:id, :command, :input_dir, :output_dir, :started_at, :completed_at, :merged, :empty, :failed)
	`, run)
	if err != nil {
		return errors.Wrapf(err, "failed to start run %s", run.ID)
	}
	return nil
}

// RecordExperiment stores the outcome of one experiment; recording the same
// experiment twice in a run keeps the latest outcome
func (l *RunLedger) RecordExperiment(ctx context.Context, rec ports.ExperimentRecord) error {
	_, err := l.db.NamedExecContext(ctx, `
		INSERT INTO experiment_results (run_id, experiment_id, status, row_count, column_count, output_path, error, recorded_at)
		VALUES (:run_id, :experiment_id, :status, :row_count, :column_count, :output_path, :error, :recorded_at)
		ON CONFLICT (run_id, experiment_id) DO UPDATE SET
			status = excluded.status,
			row_count = excluded.row_count,
			column_count = excluded.column_count,
			output_path = excluded.output_path,
			error = excluded.error,
			recorded_at = excluded.recorded_at
	`, rec)
	if err != nil {
		return errors.Wrapf(err, "failed to record %s", rec.Experiment)
	}
	return nil
}

// FinishRun stores the completion time and the final counts
func (l *RunLedger) FinishRun(ctx context.Context, run ports.RunRecord) error {
	res, err := l.db.NamedExecContext(ctx, `
		UPDATE batch_runs
		SET completed_at = :completed_at, merged = :merged, empty = :empty, failed = :failed
		WHERE id = :id
	`, run)
	if err != nil {
		return errors.Wrapf(err, "failed to finish run %s", run.ID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.InvalidInput(fmt.Sprintf("run %s was never started", run.ID))
	}
	return nil
}

// GetRun returns one run
func (l *RunLedger) GetRun(ctx context.Context, id core.RunID) (*ports.RunRecord, error) {
	var run ports.RunRecord
	err := l.db.GetContext(ctx, &run, `
		SELECT id, command, input_dir, output_dir, started_at, completed_at, merged, empty, failed
		FROM batch_runs
		WHERE id = ?
	`, id)
	if err == sql.ErrNoRows {
		return nil, errors.InvalidInput(fmt.Sprintf("run %s not found", id))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load run %s", id)
	}
	return &run, nil
}

// ListExperiments returns the outcomes of a run in the order they were recorded
func (l *RunLedger) ListExperiments(ctx context.Context, runID core.RunID) ([]ports.ExperimentRecord, error) {
	var recs []ports.ExperimentRecord
	err := l.db.SelectContext(ctx, &recs, `
		SELECT run_id, experiment_id, status, row_count, column_count, output_path, error, recorded_at
		FROM experiment_results
		WHERE run_id = ?
		ORDER BY recorded_at, rowid
	`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list experiments of run %s", runID)
	}
	return recs, nil
}
