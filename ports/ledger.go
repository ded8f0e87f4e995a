package ports

import (
	"context"
	"time"

	"labmerge/domain/core"
)

// ExperimentStatus is the outcome of one experiment within a batch run
type ExperimentStatus string

const (
	ExperimentMerged ExperimentStatus = "merged"
	ExperimentEmpty  ExperimentStatus = "empty"
	ExperimentFailed ExperimentStatus = "failed"
)

// RunRecord describes one batch run
type RunRecord struct {
	ID          core.RunID `db:"id"`
	Command     string     `db:"command"`
	InputDir    string     `db:"input_dir"`
	OutputDir   string     `db:"output_dir"`
	StartedAt   time.Time  `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`
	Merged      int        `db:"merged"`
	Empty       int        `db:"empty"`
	Failed      int        `db:"failed"`
}

// ExperimentRecord is the outcome of one experiment
type ExperimentRecord struct {
	RunID      core.RunID        `db:"run_id"`
	Experiment core.ExperimentID `db:"experiment_id"`
	Status     ExperimentStatus  `db:"status"`
	Rows       int               `db:"row_count"`
	Columns    int               `db:"column_count"`
	OutputPath string            `db:"output_path"`
	Error      string            `db:"error"`
	RecordedAt time.Time         `db:"recorded_at"`
}

// RunLedgerPort records batch outcomes so reruns can be audited
type RunLedgerPort interface {
	StartRun(ctx context.Context, run RunRecord) error
	RecordExperiment(ctx context.Context, rec ExperimentRecord) error
	FinishRun(ctx context.Context, run RunRecord) error
	ListExperiments(ctx context.Context, runID core.RunID) ([]ExperimentRecord, error)
}
