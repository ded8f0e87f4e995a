package container

import (
	"context"
	"fmt"
	"io"

	"labmerge/adapters/excel"
	"labmerge/adapters/sqlite"
	"labmerge/adapters/stats/temporal"
	"labmerge/app"
	"labmerge/domain/core"
	"labmerge/domain/experiment"
	"labmerge/domain/summary"
	"labmerge/internal"
	"labmerge/internal/config"
	"labmerge/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Adapters
	Reader ports.WorkbookReader
	Writer ports.WorkbookWriter
	Ledger ports.RunLedgerPort

	// Services
	Series     *app.SeriesReader
	Summaries  *app.SummaryService
	Merge      *app.MergeService
	Validation *app.ValidationService
	Batch      *app.BatchRunner
}

// New creates a new dependency injection container. out receives the
// validation console report.
func New(cfg *config.Config, logger *internal.Logger, out io.Writer) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewLoggerFromName(cfg.LogLevel)
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	c.Reader = excel.NewReader(logger)
	c.Writer = excel.NewWriter(cfg.Excel, logger)

	if err := c.initServices(out); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return c, nil
}

// initServices wires the pipeline services over the adapters
func (c *Container) initServices(out io.Writer) error {
	cfg := c.Config

	dateMode, err := core.ParseDateMode(cfg.Merge.DateMode)
	if err != nil {
		return err
	}
	policy, err := summary.ParseCollisionPolicy(cfg.Merge.CollisionPolicy)
	if err != nil {
		return err
	}

	sourceCadence := temporal.SecondCadence()
	sourceCadence.Every = cfg.Merge.SourceInterval
	mergeCfg := app.DefaultMergeConfig()
	mergeCfg.Cadence.Every = cfg.Merge.ReportInterval
	mergeCfg.DateMode = dateMode
	mergeCfg.Tolerance = cfg.Merge.Tolerance
	mergeCfg.SourceStep = cfg.Merge.SourceInterval.Seconds()

	validationCfg := app.DefaultValidationConfig()
	validationCfg.Threshold = cfg.Validation.Threshold
	validationCfg.Columns = cfg.Validation.Columns
	validationCfg.ReportPrefix = cfg.Validation.ReportPrefix
	validationCfg.Sheet = cfg.Excel.SheetName

	c.Series = app.NewSeriesReader(c.Reader, sourceCadence, dateMode, c.Logger)
	c.Summaries = app.NewSummaryService(c.Reader, policy, c.Logger)
	c.Merge = app.NewMergeService(c.Series, c.Summaries, c.Writer, mergeCfg, c.Logger)
	c.Validation = app.NewValidationService(c.Reader, c.Writer, validationCfg, out, c.Logger)
	c.Batch = app.NewBatchRunner(c.Merge, c.Validation, nil, c.Logger)
	return nil
}

// InitLedger opens the run ledger when one is configured
func (c *Container) InitLedger(ctx context.Context) error {
	if c.Config.Paths.Ledger == "" {
		return nil
	}
	db, err := sqlite.Open(ctx, c.Config.Paths.Ledger)
	if err != nil {
		return fmt.Errorf("failed to open run ledger: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("run ledger connection test failed: %w", err)
	}

	c.DB = db
	c.Ledger = sqlite.NewRunLedger(db)
	c.Batch = app.NewBatchRunner(c.Merge, c.Validation, c.Ledger, c.Logger)
	c.Logger.Debug("run ledger opened at %s", c.Config.Paths.Ledger)
	return nil
}

// Experiments expands the configured batch selection
func (c *Container) Experiments() ([]core.ExperimentID, error) {
	b := c.Config.Batch
	return experiment.Selection{
		Prefix:  b.Prefix,
		Start:   b.Start,
		End:     b.End,
		Exclude: b.Exclude,
		Extra:   b.Extra,
	}.IDs()
}

// BatchRequest builds the request for the configured directories
func (c *Container) BatchRequest(command string, ids []core.ExperimentID) app.BatchRequest {
	return app.BatchRequest{
		Command:     command,
		InputDir:    c.Config.Paths.InputDir,
		OutputDir:   c.Config.Paths.OutputDir,
		ReportDir:   c.Config.Paths.ReportDir,
		Experiments: ids,
	}
}

// Shutdown closes the run ledger
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
