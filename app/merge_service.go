package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"labmerge/adapters/stats/temporal"
	"labmerge/domain/core"
	"labmerge/domain/experiment"
	"labmerge/domain/frame"
	"labmerge/internal"
	"labmerge/internal/errors"
	"labmerge/ports"
)

// MergeConfig controls how the joined series are normalized
type MergeConfig struct {
	// Cadence is the reporting grid of the merged table
	Cadence temporal.ResampleConfig
	// DateMode converts a numeric Local Time column
	DateMode core.DateMode
	// TimestampLayout renders the index of the persisted table
	TimestampLayout string
	// Tolerance bounds, in seconds, how far back an as-of match may lie;
	// zero accepts any earlier row.
	Tolerance float64
	// SourceStep is the per-source grid in seconds. The timeline more than
	// one step past the last sample of a secondary stays unmatched.
	SourceStep float64
}

// DefaultMergeConfig is a 60 s grid anchored at the first timestamp
func DefaultMergeConfig() MergeConfig {
	return MergeConfig{
		Cadence:         temporal.MinuteCadence(),
		DateMode:        core.DateModeOrigin,
		TimestampLayout: core.TimestampLayout,
		SourceStep:      1,
	}
}

// MergeOutcome is the result of merging one experiment. Err is set for
// per-experiment failures; the batch continues past them.
type MergeOutcome struct {
	Experiment core.ExperimentID
	Status     ports.ExperimentStatus
	Rows       int
	Columns    int
	OutputPath string
	Err        error
	Duration   time.Duration
}

// MergeService joins the series of an experiment onto the primary timeline
// and persists the merged table
type MergeService struct {
	series    *SeriesReader
	summaries *SummaryService
	writer    ports.WorkbookWriter
	cfg       MergeConfig
	logger    *internal.Logger
}

// NewMergeService creates a merge service
func NewMergeService(series *SeriesReader, summaries *SummaryService, writer ports.WorkbookWriter, cfg MergeConfig, logger *internal.Logger) *MergeService {
	if cfg.TimestampLayout == "" {
		cfg.TimestampLayout = core.TimestampLayout
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &MergeService{
		series:    series,
		summaries: summaries,
		writer:    writer,
		cfg:       cfg,
		logger:    logger,
	}
}

// MergeExperiment reads, merges and writes one experiment. A returned error
// is a read or schema fault and should stop the batch; anything else is
// reported through the outcome.
func (s *MergeService) MergeExperiment(ctx context.Context, inputDir, outputDir string, id core.ExperimentID) (*MergeOutcome, error) {
	startTime := time.Now()
	path := filepath.Join(inputDir, id.InputFileName())
	outcome := &MergeOutcome{Experiment: id}

	// Step 1: read every sheet; failures here are fatal
	params, err := s.summaries.ReadParameters(ctx, path)
	if err != nil {
		return nil, err
	}
	primary, err := s.series.ReadPrimary(ctx, path)
	if err != nil {
		return nil, err
	}
	secondaries := make([]*frame.Frame, len(experiment.Secondaries))
	for i, layout := range experiment.Secondaries {
		if secondaries[i], err = s.series.ReadSecondary(ctx, path, layout); err != nil {
			return nil, err
		}
	}

	// Step 2: join and resample
	merged, err := s.Merge(primary, secondaries)
	switch {
	case err == nil:
	case core.IsSchemaError(err):
		return nil, err
	case core.IsEmptyMerge(err):
		outcome.Status = ports.ExperimentEmpty
		outcome.Err = err
		outcome.Duration = time.Since(startTime)
		s.logger.Warn("Merge unsuccessful for %s: no rows", id)
		return outcome, nil
	default:
		return s.failed(outcome, startTime, err), nil
	}

	// Step 3: summary columns
	if _, err := s.summaries.Attach(merged, params); err != nil {
		return s.failed(outcome, startTime, err), nil
	}

	// Step 4: render the index and persist
	if err := merged.FormatIndex(s.cfg.TimestampLayout); err != nil {
		return s.failed(outcome, startTime, err), nil
	}
	outPath := filepath.Join(outputDir, id.OutputFileName())
	if err := s.writer.WriteFrame(ctx, outPath, merged); err != nil {
		return s.failed(outcome, startTime, err), nil
	}

	outcome.Status = ports.ExperimentMerged
	outcome.Rows = merged.Len()
	outcome.Columns = merged.Width()
	outcome.OutputPath = outPath
	outcome.Duration = time.Since(startTime)
	s.logger.Info("Merge successful for %s: %d rows, %d columns in %.2fms",
		id, outcome.Rows, outcome.Columns, float64(outcome.Duration.Nanoseconds())/1e6)
	return outcome, nil
}

func (s *MergeService) failed(outcome *MergeOutcome, startTime time.Time, err error) *MergeOutcome {
	outcome.Status = ports.ExperimentFailed
	outcome.Err = errors.MergeFailed(err, outcome.Experiment.String())
	outcome.Duration = time.Since(startTime)
	s.logger.Error("%v", outcome.Err)
	return outcome
}

// Merge as-of joins the secondaries onto the primary elapsed-time column,
// converts Local Time to timestamps and resamples onto the reporting grid.
// secondaries must follow the order of experiment.Secondaries. The result is
// indexed by Local Time.
func (s *MergeService) Merge(primary *frame.Frame, secondaries []*frame.Frame) (*frame.Frame, error) {
	if len(secondaries) != len(experiment.Secondaries) {
		return nil, fmt.Errorf("expected %d secondary series, got %d", len(experiment.Secondaries), len(secondaries))
	}

	merged := primary
	for i, layout := range experiment.Secondaries {
		joined, err := temporal.JoinAsOf(merged, secondaries[i], temporal.AsOfSpec{
			LeftOn:    experiment.ElapsedColumn,
			RightOn:   experiment.SecondaryKey,
			Suffix:    layout.Suffix,
			Tolerance: s.cfg.Tolerance,
			TailStep:  s.cfg.SourceStep,
		})
		if err != nil {
			if core.IsSchemaError(err) {
				return nil, errors.SchemaError(err, "joining %s", layout.Sheet)
			}
			return nil, fmt.Errorf("joining %s: %w", layout.Sheet, err)
		}
		merged = joined
	}

	if err := coerceTime(merged, experiment.LocalTimeColumn, s.cfg.DateMode); err != nil {
		return nil, errors.SchemaError(err, "normalizing %q", experiment.LocalTimeColumn)
	}
	if err := merged.SetIndex(experiment.LocalTimeColumn); err != nil {
		return nil, errors.SchemaError(err, "indexing by %q", experiment.LocalTimeColumn)
	}

	resampled, err := temporal.Resample(merged, s.cfg.Cadence)
	if err != nil {
		return nil, err
	}
	if resampled.Len() == 0 {
		return nil, core.ErrEmptyMerge
	}
	s.logger.Debug("[MergeService] %d joined rows resampled to %d at %s", merged.Len(), resampled.Len(), s.cfg.Cadence.Every)
	return resampled, nil
}
