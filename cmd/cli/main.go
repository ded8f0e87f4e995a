package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"labmerge/app"
	"labmerge/domain/core"
	"labmerge/internal"
	"labmerge/internal/config"
	"labmerge/internal/container"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
	inputDir   string
	outputDir  string
	reportDir  string
	ledger     string
}

func main() {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "labmerge",
		Short: "Merge experiment workbooks onto one timeline and check their temperatures",
		Long: `labmerge reads <ID>_FORMATTED.xlsx exports, joins the Blaze statistics and
distribution series onto the Temp and Conc timeline, resamples to 60 s,
flattens the Summary sheet into constant columns and writes <ID>_Merged.xlsx.

Example:
  labmerge run --config labmerge.yaml
  labmerge merge C7 C1R2 --input C_EXP_FORMATTED --output Merged`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file (defaults apply when omitted)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: error|warn|info|debug|trace")
	flags.StringVar(&opts.inputDir, "input", "", "Directory holding <ID>_FORMATTED.xlsx files")
	flags.StringVar(&opts.outputDir, "output", "", "Directory receiving <ID>_Merged.xlsx files")
	flags.StringVar(&opts.reportDir, "report-dir", "", "Directory receiving validation reports")
	flags.StringVar(&opts.ledger, "ledger", "", "SQLite file recording batch outcomes")

	rootCmd.AddCommand(
		newMergeCmd(opts),
		newValidateCmd(opts),
		newRunCmd(opts),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newMergeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "merge [experiment-ids...]",
		Short: "Merge the selected experiments",
		Long: `Merge every experiment of the configured selection, or only the IDs given
as arguments. A missing workbook or sheet stops the batch; an experiment
whose merge fails or produces no rows is reported and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), opts, func(ctx context.Context, c *container.Container) error {
				ids, err := selectExperiments(c, args)
				if err != nil {
					return err
				}
				report, err := c.Batch.Merge(ctx, c.BatchRequest("merge", ids))
				printBatch(report)
				return err
			})
		},
	}
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [merged-dir]",
		Short: "Flag rows whose temperature readings disagree",
		Long: `Check every numbered .xlsx workbook of the merged directory, in order of the
first number in its name, and write the rows whose temperature spread exceeds
the threshold to ProblemRows_<file>.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), opts, func(ctx context.Context, c *container.Container) error {
				dir := c.Config.Paths.OutputDir
				if len(args) == 1 {
					dir = args[0]
				}
				reports, err := c.Validation.ValidateDir(ctx, dir, c.Config.Paths.ReportDir)
				printValidation(reports)
				return err
			})
		},
	}
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Merge the configured selection, then validate the merged outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), opts, func(ctx context.Context, c *container.Container) error {
				ids, err := c.Experiments()
				if err != nil {
					return err
				}
				report, err := c.Batch.Run(ctx, c.BatchRequest("run", ids))
				printBatch(report)
				if report != nil {
					printValidation(report.Validation)
				}
				return err
			})
		},
	}
}

// withContainer loads the configuration, applies the flag overrides and
// hands a wired container to fn
func withContainer(ctx context.Context, opts *rootOptions, fn func(context.Context, *container.Container) error) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.inputDir != "" {
		cfg.Paths.InputDir = opts.inputDir
	}
	if opts.outputDir != "" {
		cfg.Paths.OutputDir = opts.outputDir
	}
	if opts.reportDir != "" {
		cfg.Paths.ReportDir = opts.reportDir
	}
	if opts.ledger != "" {
		cfg.Paths.Ledger = opts.ledger
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger := internal.NewLoggerFromName(cfg.LogLevel)
	c, err := container.New(cfg, logger, os.Stdout)
	if err != nil {
		return err
	}
	if err := c.InitLedger(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown: %v", err)
		}
	}()

	return fn(ctx, c)
}

func selectExperiments(c *container.Container, args []string) ([]core.ExperimentID, error) {
	if len(args) == 0 {
		return c.Experiments()
	}
	ids := make([]core.ExperimentID, 0, len(args))
	for _, arg := range args {
		id, err := core.ParseExperimentID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printBatch(report *app.BatchReport) {
	if report == nil {
		return
	}
	for _, o := range report.Outcomes {
		switch {
		case o.Err == nil:
			fmt.Printf("  %-6s %-7s %d rows -> %s\n", o.Experiment, o.Status, o.Rows, o.OutputPath)
		default:
			color.New(color.FgYellow).Printf("  %-6s %-7s %v\n", o.Experiment, o.Status, o.Err)
		}
	}
	summary := color.New(color.Bold)
	if report.Failed > 0 {
		summary = color.New(color.Bold, color.FgRed)
	}
	summary.Printf("run %s: %d merged, %d empty, %d failed\n", report.RunID, report.Merged, report.Empty, report.Failed)
}

func printValidation(reports []*app.FileReport) {
	if len(reports) == 0 {
		return
	}
	flagged, failed := 0, 0
	for _, r := range reports {
		switch {
		case r.Err != nil:
			failed++
			color.New(color.FgRed).Printf("  %s: %v\n", r.File, r.Err)
		case len(r.Flagged) > 0:
			flagged++
		}
	}
	fmt.Printf("validated %d files: %d with problem rows, %d could not be checked\n", len(reports), flagged, failed)
}
