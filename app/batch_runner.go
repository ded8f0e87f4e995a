package app

import (
	"context"
	"time"

	"labmerge/domain/core"
	"labmerge/internal"
	"labmerge/ports"
)

// BatchRequest names the experiments of one run and where they live
type BatchRequest struct {
	Command     string
	InputDir    string
	OutputDir   string
	ReportDir   string
	Experiments []core.ExperimentID
}

// BatchReport summarizes one run
type BatchReport struct {
	RunID      core.RunID
	Outcomes   []*MergeOutcome
	Validation []*FileReport
	Merged     int
	Empty      int
	Failed     int
}

// BatchRunner merges experiments one after another. Per-experiment merge
// failures are recorded and the batch continues; read and schema faults stop
// it.
type BatchRunner struct {
	merge      *MergeService
	validation *ValidationService
	ledger     ports.RunLedgerPort // optional
	logger     *internal.Logger
}

// NewBatchRunner creates a batch runner. ledger may be nil.
func NewBatchRunner(merge *MergeService, validation *ValidationService, ledger ports.RunLedgerPort, logger *internal.Logger) *BatchRunner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &BatchRunner{
		merge:      merge,
		validation: validation,
		ledger:     ledger,
		logger:     logger,
	}
}

// Merge processes every requested experiment in order. Cancellation is
// checked between experiments. On a fatal error the partial report is
// returned with the error.
func (r *BatchRunner) Merge(ctx context.Context, req BatchRequest) (*BatchReport, error) {
	report := &BatchReport{RunID: core.NewRunID()}
	run := ports.RunRecord{
		ID:        report.RunID,
		Command:   req.Command,
		InputDir:  req.InputDir,
		OutputDir: req.OutputDir,
		StartedAt: time.Now().UTC(),
	}
	if r.ledger != nil {
		if err := r.ledger.StartRun(ctx, run); err != nil {
			return nil, err
		}
	}
	r.logger.Info("run %s: merging %d experiments from %s", report.RunID, len(req.Experiments), req.InputDir)

	var runErr error
	for _, id := range req.Experiments {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		outcome, err := r.merge.MergeExperiment(ctx, req.InputDir, req.OutputDir, id)
		if err != nil {
			r.logger.Error("run %s aborted at %s: %v", report.RunID, id, err)
			outcome = &MergeOutcome{Experiment: id, Status: ports.ExperimentFailed, Err: err}
			runErr = err
		}
		report.add(outcome)
		r.record(ctx, report.RunID, outcome)
		if runErr != nil {
			break
		}
	}

	r.finish(ctx, run, report)
	r.logger.Info("run %s: %d merged, %d empty, %d failed", report.RunID, report.Merged, report.Empty, report.Failed)
	return report, runErr
}

// Run merges and then validates the merged outputs
func (r *BatchRunner) Run(ctx context.Context, req BatchRequest) (*BatchReport, error) {
	report, err := r.Merge(ctx, req)
	if err != nil {
		return report, err
	}
	if r.validation == nil {
		return report, nil
	}
	report.Validation, err = r.validation.ValidateDir(ctx, req.OutputDir, req.ReportDir)
	return report, err
}

func (b *BatchReport) add(o *MergeOutcome) {
	b.Outcomes = append(b.Outcomes, o)
	switch o.Status {
	case ports.ExperimentMerged:
		b.Merged++
	case ports.ExperimentEmpty:
		b.Empty++
	default:
		b.Failed++
	}
}

func (r *BatchRunner) record(ctx context.Context, runID core.RunID, o *MergeOutcome) {
	if r.ledger == nil {
		return
	}
	rec := ports.ExperimentRecord{
		RunID:      runID,
		Experiment: o.Experiment,
		Status:     o.Status,
		Rows:       o.Rows,
		Columns:    o.Columns,
		OutputPath: o.OutputPath,
		RecordedAt: time.Now().UTC(),
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	// a ledger failure must not lose the merge itself
	if err := r.ledger.RecordExperiment(context.WithoutCancel(ctx), rec); err != nil {
		r.logger.Warn("run %s: failed to record %s: %v", runID, o.Experiment, err)
	}
}

func (r *BatchRunner) finish(ctx context.Context, run ports.RunRecord, report *BatchReport) {
	if r.ledger == nil {
		return
	}
	completed := time.Now().UTC()
	run.CompletedAt = &completed
	run.Merged = report.Merged
	run.Empty = report.Empty
	run.Failed = report.Failed
	if err := r.ledger.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		r.logger.Warn("run %s: failed to close ledger entry: %v", run.ID, err)
	}
}
