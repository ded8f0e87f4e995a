package app

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"labmerge/domain/experiment"
	"labmerge/domain/frame"
	"labmerge/internal"
	"labmerge/internal/errors"
	"labmerge/ports"

	"github.com/fatih/color"
	"github.com/montanaflynn/stats"
)

// ValidationConfig controls the temperature spread check
type ValidationConfig struct {
	// Threshold is the largest tolerated spread, in percent of the minimum
	Threshold float64
	// Columns are the redundant temperature readings compared per row
	Columns []string
	// TimeColumn labels flagged rows
	TimeColumn string
	// ReportPrefix is prepended to the merged file name of a report
	ReportPrefix string
	// Sheet is the sheet of the merged workbooks
	Sheet string
}

// DefaultValidationConfig compares the four temperature readings at 0.1 %
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		Threshold:    0.1,
		Columns:      []string{"Temp", "Temp_Blaze_Stats", "Temp_Blaze_LW_Dist", "Temp_Blaze_CW_Dist"},
		TimeColumn:   experiment.LocalTimeColumn,
		ReportPrefix: "ProblemRows_",
		Sheet:        "Sheet1",
	}
}

// PercentColumn is the extra report column holding the spread
const PercentColumn = "Percentage Difference"

// FlaggedRow is one row whose temperature spread exceeds the threshold
type FlaggedRow struct {
	Row          int // zero-based data row
	LocalTime    string
	Temperatures []float64
	Percent      float64
}

// FileReport is the validation result of one merged workbook
type FileReport struct {
	File       string
	Checked    int
	Skipped    int // rows with a missing temperature
	Flagged    []FlaggedRow
	ReportPath string // empty when nothing was flagged
	Err        error
}

// ValidationService scans merged workbooks for rows whose redundant
// temperature readings disagree
type ValidationService struct {
	reader ports.WorkbookReader
	writer ports.WorkbookWriter
	cfg    ValidationConfig
	out    io.Writer
	logger *internal.Logger
}

// NewValidationService creates a validation service that prints its
// per-file report to out (stdout when nil)
func NewValidationService(reader ports.WorkbookReader, writer ports.WorkbookWriter, cfg ValidationConfig, out io.Writer, logger *internal.Logger) *ValidationService {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ValidationService{
		reader: reader,
		writer: writer,
		cfg:    cfg,
		out:    out,
		logger: logger,
	}
}

// PercentageDifference is (max - min) / min * 100. It is NaN when any value
// is missing.
func PercentageDifference(temps []float64) float64 {
	for _, v := range temps {
		if math.IsNaN(v) {
			return math.NaN()
		}
	}
	hi, err := stats.Max(temps)
	if err != nil {
		return math.NaN()
	}
	lo, err := stats.Min(temps)
	if err != nil {
		return math.NaN()
	}
	return (hi - lo) / lo * 100
}

// CheckFrame returns the rows of f whose spread exceeds the threshold and
// the number of rows skipped for a missing temperature
func (s *ValidationService) CheckFrame(f *frame.Frame) ([]FlaggedRow, int, error) {
	columns := make([][]float64, len(s.cfg.Columns))
	for i, name := range s.cfg.Columns {
		values, err := f.Floats(name)
		if err != nil {
			return nil, 0, errors.SchemaError(err, "temperature column %q", name)
		}
		columns[i] = values
	}
	timeCol, hasTime := f.Column(s.cfg.TimeColumn)

	var flagged []FlaggedRow
	skipped := 0
	for r := 0; r < f.Len(); r++ {
		temps := make([]float64, len(columns))
		for i, values := range columns {
			temps[i] = values[r]
		}
		pct := PercentageDifference(temps)
		if math.IsNaN(pct) {
			skipped++
			s.logger.Debug("[ValidationService] row %d skipped: missing temperature", r+1)
			continue
		}
		if pct <= s.cfg.Threshold {
			continue
		}
		row := FlaggedRow{Row: r, Temperatures: temps, Percent: pct}
		if hasTime {
			row.LocalTime = columnText(timeCol, r)
		}
		flagged = append(flagged, row)
	}
	return flagged, skipped, nil
}

// ValidateFile checks one merged workbook and writes its report to
// reportDir when any row is flagged
func (s *ValidationService) ValidateFile(ctx context.Context, path, reportDir string) (*FileReport, error) {
	name := filepath.Base(path)
	report := &FileReport{File: name}

	fmt.Fprintf(s.out, "Checking file: %s\n", name)
	fmt.Fprintln(s.out, "------------------------------------------")
	defer fmt.Fprintln(s.out, "------------------------------------------")

	grid, err := s.reader.ReadSheet(ctx, path, s.cfg.Sheet, ports.ReadOptions{CachedValues: true})
	if err != nil {
		return nil, err
	}
	f, err := frame.FromGrid(grid)
	if err != nil {
		return nil, errors.SchemaError(err, "reading %s", name)
	}

	flagged, skipped, err := s.CheckFrame(f)
	if err != nil {
		return nil, err
	}
	report.Checked = f.Len()
	report.Skipped = skipped
	report.Flagged = flagged

	red := color.New(color.FgRed)
	for _, row := range flagged {
		red.Fprintf(s.out, "Local Time: %s - Row %d: Temperature difference greater than %g%%\n",
			row.LocalTime, row.Row+1, s.cfg.Threshold)
	}

	if len(flagged) == 0 {
		fmt.Fprintf(s.out, "All temperature differences are within the %g%% range.\n", s.cfg.Threshold)
		return report, nil
	}

	reportPath := filepath.Join(reportDir, s.cfg.ReportPrefix+name)
	if err := s.writer.WriteFrame(ctx, reportPath, s.reportFrame(flagged)); err != nil {
		return nil, err
	}
	report.ReportPath = reportPath
	fmt.Fprintf(s.out, "Problem rows are saved in %s\n", reportPath)
	return report, nil
}

// ValidateDir checks every merged workbook of dir in ascending order of the
// first number in the file name. A file that cannot be checked is reported
// and the scan continues.
func (s *ValidationService) ValidateDir(ctx context.Context, dir, reportDir string) ([]*FileReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.IOError(err, "failed to list %s", dir)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}

	ordered, ignored := OrderByNumber(names)
	for _, name := range ignored {
		s.logger.Warn("skipping %s: not a numbered .xlsx workbook", name)
	}

	reports := make([]*FileReport, 0, len(ordered))
	for _, name := range ordered {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := s.ValidateFile(ctx, filepath.Join(dir, name), reportDir)
		if err != nil {
			s.logger.Error("validation of %s failed: %v", name, err)
			report = &FileReport{File: name, Err: err}
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (s *ValidationService) reportFrame(flagged []FlaggedRow) *frame.Frame {
	times := make([]string, len(flagged))
	temps := make([][]float64, len(s.cfg.Columns))
	for i := range temps {
		temps[i] = make([]float64, len(flagged))
	}
	pcts := make([]float64, len(flagged))
	for r, row := range flagged {
		times[r] = row.LocalTime
		for i, v := range row.Temperatures {
			temps[i][r] = v
		}
		pcts[r] = row.Percent
	}

	cols := []*frame.Column{frame.NewTextColumn(s.cfg.TimeColumn, times)}
	for i, name := range s.cfg.Columns {
		cols = append(cols, frame.NewFloatColumn(name, temps[i]))
	}
	cols = append(cols, frame.NewFloatColumn(PercentColumn, pcts))
	return frame.MustNew(cols...)
}

var firstNumber = regexp.MustCompile(`\d+`)

// OrderByNumber sorts .xlsx file names by the first integer in each name.
// Names that are not .xlsx or hold no digit are returned separately.
func OrderByNumber(names []string) (ordered, ignored []string) {
	type numbered struct {
		name string
		n    int
	}
	var keep []numbered
	for _, name := range names {
		match := firstNumber.FindString(name)
		if !strings.EqualFold(filepath.Ext(name), ".xlsx") || match == "" {
			ignored = append(ignored, name)
			continue
		}
		n, err := strconv.Atoi(match)
		if err != nil {
			ignored = append(ignored, name)
			continue
		}
		keep = append(keep, numbered{name: name, n: n})
	}
	sort.SliceStable(keep, func(i, j int) bool {
		if keep[i].n != keep[j].n {
			return keep[i].n < keep[j].n
		}
		return keep[i].name < keep[j].name
	})
	for _, k := range keep {
		ordered = append(ordered, k.name)
	}
	return ordered, ignored
}

func columnText(col *frame.Column, r int) string {
	switch col.Kind {
	case frame.KindText:
		return col.Texts[r]
	case frame.KindTime:
		return frame.Time(col.Times[r]).String()
	default:
		return frame.Number(col.Floats[r]).String()
	}
}
