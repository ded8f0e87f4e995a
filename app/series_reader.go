package app

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"labmerge/adapters/excel"
	"labmerge/adapters/stats/temporal"
	"labmerge/domain/core"
	"labmerge/domain/experiment"
	"labmerge/domain/frame"
	"labmerge/internal"
	"labmerge/internal/errors"
	"labmerge/ports"
)

// SeriesReader extracts the four time series of an experiment workbook and
// normalizes them for joining
type SeriesReader struct {
	reader   ports.WorkbookReader
	cadence  temporal.ResampleConfig
	dateMode core.DateMode
	logger   *internal.Logger
}

// NewSeriesReader creates a series reader. cadence is the per-source grid,
// normally temporal.SecondCadence().
func NewSeriesReader(reader ports.WorkbookReader, cadence temporal.ResampleConfig, dateMode core.DateMode, logger *internal.Logger) *SeriesReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SeriesReader{
		reader:   reader,
		cadence:  cadence,
		dateMode: dateMode,
		logger:   logger,
	}
}

// ReadSeries reads the series described by layout
func (s *SeriesReader) ReadSeries(ctx context.Context, path string, layout experiment.SeriesLayout) (*frame.Frame, error) {
	if layout.Kind == experiment.SeriesPrimary {
		return s.ReadPrimary(ctx, path)
	}
	return s.ReadSecondary(ctx, path, layout)
}

// ReadPrimary reads the primary series: its first columns, the elapsed time
// as float, every column forward-filled. It is not resampled; its elapsed
// seconds are the canonical timeline.
func (s *SeriesReader) ReadPrimary(ctx context.Context, path string) (*frame.Frame, error) {
	layout := experiment.Primary
	f, err := s.readTable(ctx, path, layout)
	if err != nil {
		return nil, err
	}
	if layout.KeepColumns > 0 {
		f = f.SelectFirst(layout.KeepColumns)
	}

	if err := coerceFloat(f, experiment.ElapsedColumn); err != nil {
		return nil, errors.SchemaError(err, "sheet %q of %s", layout.Sheet, path)
	}

	for _, col := range f.Columns() {
		if err := f.SetColumn(forwardFilled(col)); err != nil {
			return nil, errors.Wrapf(err, "forward-filling %q", col.Name)
		}
	}

	s.logger.Debug("[SeriesReader] %s: %d rows, %d columns", layout.Sheet, f.Len(), f.Width())
	return f, nil
}

// ReadSecondary reads a statistics or distribution series and resamples it
// onto the per-source grid. The timestamp comes back as the first column.
func (s *SeriesReader) ReadSecondary(ctx context.Context, path string, layout experiment.SeriesLayout) (*frame.Frame, error) {
	if layout.IndexColumn == "" {
		return nil, errors.InvalidInput(fmt.Sprintf("series %s has no timestamp column", layout.Kind))
	}
	f, err := s.readTable(ctx, path, layout)
	if err != nil {
		return nil, err
	}

	if layout.HeaderBlock != nil {
		if err := s.applyHeaderBlock(ctx, path, layout, f); err != nil {
			return nil, err
		}
	}

	if err := coerceTime(f, layout.IndexColumn, s.dateMode); err != nil {
		return nil, errors.SchemaError(err, "sheet %q of %s", layout.Sheet, path)
	}
	if err := coerceFloat(f, experiment.SecondaryKey); err != nil {
		return nil, errors.SchemaError(err, "sheet %q of %s", layout.Sheet, path)
	}

	rawRows := f.Len()
	if err := f.SetIndex(layout.IndexColumn); err != nil {
		return nil, errors.SchemaError(err, "sheet %q of %s", layout.Sheet, path)
	}
	resampled, err := temporal.Resample(f, s.cadence)
	if err != nil {
		return nil, errors.Wrapf(err, "resampling %q", layout.Sheet)
	}
	if err := resampled.ResetIndex(); err != nil {
		return nil, errors.Wrapf(err, "restoring %q", layout.IndexColumn)
	}

	s.logger.Debug("[SeriesReader] %s: %d rows resampled to %d at %s", layout.Sheet, rawRows, resampled.Len(), s.cadence.Every)
	return resampled, nil
}

func (s *SeriesReader) readTable(ctx context.Context, path string, layout experiment.SeriesLayout) (*frame.Frame, error) {
	grid, err := s.reader.ReadSheet(ctx, path, layout.Sheet, ports.ReadOptions{
		SkipRows:     layout.SkipRows,
		CachedValues: true,
	})
	if err != nil {
		return nil, err
	}
	f, err := frame.FromGrid(grid)
	if err != nil {
		return nil, errors.SchemaError(err, "sheet %q of %s", layout.Sheet, path)
	}
	return f, nil
}

// applyHeaderBlock joins each column of the header block into one title and
// uses the titles in place of the generated ones. A column whose block is
// blank keeps its generated title.
func (s *SeriesReader) applyHeaderBlock(ctx context.Context, path string, layout experiment.SeriesLayout, f *frame.Frame) error {
	block := layout.HeaderBlock
	grid, err := s.reader.ReadSheet(ctx, path, layout.Sheet, ports.ReadOptions{
		MaxRows:      block.Rows,
		FirstCol:     block.FirstCol,
		LastCol:      block.LastCol,
		CachedValues: true,
	})
	if err != nil {
		return err
	}

	for i, title := range HeaderBlockTitles(grid) {
		pos := block.ReplaceFrom + i
		if pos >= f.Width() {
			break
		}
		if title == "" {
			continue
		}
		if err := f.RenameColumn(pos, uniqueTitle(f, pos, title)); err != nil {
			return errors.Wrapf(err, "renaming column %d", pos)
		}
	}
	return nil
}

// HeaderBlockTitles joins the non-empty cells of every grid column with a
// single space
func HeaderBlockTitles(grid *frame.Grid) []string {
	width := grid.Width()
	titles := make([]string, width)
	for c := 0; c < width; c++ {
		var parts []string
		for r := 0; r < grid.Height(); r++ {
			if text := strings.TrimSpace(grid.Cell(r, c).String()); text != "" {
				parts = append(parts, text)
			}
		}
		titles[c] = strings.Join(parts, " ")
	}
	return titles
}

func uniqueTitle(f *frame.Frame, pos int, title string) string {
	names := f.ColumnNames()
	taken := func(name string) bool {
		for i, n := range names {
			if i != pos && n == name {
				return true
			}
		}
		return false
	}
	candidate := title
	for n := 1; taken(candidate); n++ {
		candidate = fmt.Sprintf("%s.%d", title, n)
	}
	return candidate
}

// coerceFloat converts a numeric text column to float in place
func coerceFloat(f *frame.Frame, name string) error {
	col, ok := f.Column(name)
	if !ok {
		return core.NewMissingColumnError(name)
	}
	switch col.Kind {
	case frame.KindFloat:
		return nil
	case frame.KindText:
		values := make([]float64, len(col.Texts))
		for i, text := range col.Texts {
			if strings.TrimSpace(text) == "" {
				values[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
			if err != nil {
				return fmt.Errorf("%w: row %d holds %q", core.NewColumnKindError(name, frame.KindFloat.String()), i, text)
			}
			values[i] = v
		}
		return f.SetColumn(frame.NewFloatColumn(name, values))
	default:
		return core.NewColumnKindError(name, frame.KindFloat.String())
	}
}

// coerceTime converts a day-count or text column to time in place
func coerceTime(f *frame.Frame, name string, mode core.DateMode) error {
	col, ok := f.Column(name)
	if !ok {
		return core.NewMissingColumnError(name)
	}
	switch col.Kind {
	case frame.KindTime:
		return nil
	case frame.KindFloat:
		times, err := excel.SerialsToTimes(col.Floats, mode)
		if err != nil {
			return fmt.Errorf("%w: %v", core.NewColumnKindError(name, frame.KindTime.String()), err)
		}
		return f.SetColumn(frame.NewTimeColumn(name, times))
	default:
		times := make([]time.Time, len(col.Texts))
		for i, text := range col.Texts {
			if text == "" {
				continue
			}
			t, err := time.Parse(core.TimestampLayout, strings.TrimSpace(text))
			if err != nil {
				return fmt.Errorf("%w: row %d holds %q", core.NewColumnKindError(name, frame.KindTime.String()), i, text)
			}
			times[i] = t
		}
		return f.SetColumn(frame.NewTimeColumn(name, times))
	}
}

func forwardFilled(col *frame.Column) *frame.Column {
	switch col.Kind {
	case frame.KindTime:
		return frame.NewTimeColumn(col.Name, temporal.ForwardFill(col.Times, time.Time.IsZero))
	case frame.KindText:
		return frame.NewTextColumn(col.Name, temporal.ForwardFill(col.Texts, func(s string) bool { return s == "" }))
	default:
		return frame.NewFloatColumn(col.Name, temporal.ForwardFillFloats(col.Floats))
	}
}
