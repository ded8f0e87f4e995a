package excel

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"labmerge/domain/core"
	"labmerge/domain/frame"
	"labmerge/internal"
	"labmerge/internal/errors"
	"labmerge/ports"

	"github.com/xuri/excelize/v2"
)

// Reader loads sheets of .xlsx workbooks as typed cells
type Reader struct {
	logger *internal.Logger
}

var _ ports.WorkbookReader = (*Reader)(nil)

// NewReader creates a workbook reader
func NewReader(logger *internal.Logger) *Reader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Reader{logger: logger}
}

// SheetNames lists the sheets of a workbook in workbook order
func (r *Reader) SheetNames(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := r.open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// ReadSheet reads the block of a sheet selected by opts
func (r *Reader) ReadSheet(ctx context.Context, path, sheet string, opts ports.ReadOptions) (*frame.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	startTime := time.Now()

	f, err := r.open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, errors.SchemaError(core.NewMissingSheetError(path, sheet), "cannot read sheet")
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.IOError(err, "failed to read sheet %q of %s", sheet, path)
	}

	lo, hi, err := columnBounds(opts.FirstCol, opts.LastCol)
	if err != nil {
		return nil, errors.InvalidInput(err.Error())
	}

	first := opts.SkipRows
	if first > len(rows) {
		first = len(rows)
	}
	last := len(rows)
	if opts.MaxRows > 0 && first+opts.MaxRows < last {
		last = first + opts.MaxRows
	}

	styles := newStyleCache(f)
	date1904 := workbookUses1904(f)

	grid := &frame.Grid{Rows: make([][]frame.Cell, 0, last-first)}
	for ri := first; ri < last; ri++ {
		raw := rows[ri]
		upper := len(raw)
		if hi > 0 && (hi < upper || !opts.CachedValues) {
			upper = hi
		}
		var cells []frame.Cell
		for ci := lo; ci < upper; ci++ {
			value := ""
			if ci < len(raw) {
				value = raw[ci]
			}
			axis, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				return nil, errors.InvalidInput(err.Error())
			}
			cell, err := typedCell(f, sheet, axis, value, styles, date1904, opts.CachedValues)
			if err != nil {
				return nil, errors.IOError(err, "failed to read cell %s!%s", sheet, axis)
			}
			cells = append(cells, cell)
		}
		grid.Rows = append(grid.Rows, cells)
	}

	r.logger.Debug("[ExcelReader] %s!%q read in %.2fms (%d rows, %d columns)",
		path, sheet, float64(time.Since(startTime).Nanoseconds())/1e6, grid.Height(), grid.Width())
	return grid, nil
}

func (r *Reader) open(path string) (*excelize.File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.IOError(err, "workbook not found: %s", path)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.IOError(err, "failed to open workbook %s", path)
	}
	return f, nil
}

// columnBounds turns letter bounds into a zero-based [lo, hi) range; hi is
// zero when unbounded.
func columnBounds(firstCol, lastCol string) (int, int, error) {
	lo, hi := 0, 0
	if firstCol != "" {
		n, err := excelize.ColumnNameToNumber(firstCol)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid first column %q: %w", firstCol, err)
		}
		lo = n - 1
	}
	if lastCol != "" {
		n, err := excelize.ColumnNameToNumber(lastCol)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid last column %q: %w", lastCol, err)
		}
		hi = n
	}
	if hi > 0 && hi <= lo {
		return 0, 0, fmt.Errorf("column range %s:%s is empty", firstCol, lastCol)
	}
	return lo, hi, nil
}

func workbookUses1904(f *excelize.File) bool {
	props, err := f.GetWorkbookProps()
	if err != nil || props.Date1904 == nil {
		return false
	}
	return *props.Date1904
}

// typedCell classifies one raw cell value using the cell's stored type and
// its number format.
func typedCell(f *excelize.File, sheet, axis, raw string, styles *styleCache, date1904, cached bool) (frame.Cell, error) {
	if !cached {
		if formula, err := f.GetCellFormula(sheet, axis); err == nil && formula != "" {
			return frame.Text("=" + formula), nil
		}
	}
	if raw == "" {
		return frame.Empty(), nil
	}

	cellType, err := f.GetCellType(sheet, axis)
	if err != nil {
		return frame.Cell{}, err
	}
	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError:
		return frame.Text(raw), nil
	case excelize.CellTypeBool:
		return frame.Bool(raw == "1" || strings.EqualFold(raw, "true")), nil
	case excelize.CellTypeDate:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return frame.Time(t), nil
			}
		}
		return frame.Text(raw), nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return frame.Text(raw), nil
	}
	if styleID, err := f.GetCellStyle(sheet, axis); err == nil && styles.dateStyle(styleID) {
		if t, err := excelize.ExcelDateToTime(v, date1904); err == nil {
			return frame.Time(t), nil
		}
	}
	return frame.Number(v), nil
}
