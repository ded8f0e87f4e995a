package excel

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"time"

	"labmerge/domain/frame"
	"labmerge/internal"
	"labmerge/internal/errors"
	"labmerge/ports"

	"github.com/xuri/excelize/v2"
)

// Writer saves frames as single-sheet workbooks
type Writer struct {
	cfg    ExcelConfig
	logger *internal.Logger
}

var _ ports.WorkbookWriter = (*Writer)(nil)

// NewWriter creates a workbook writer
func NewWriter(cfg ExcelConfig, logger *internal.Logger) *Writer {
	if cfg.SheetName == "" {
		cfg.SheetName = DefaultExcelConfig().SheetName
	}
	if cfg.DateNumFmt == "" {
		cfg.DateNumFmt = DefaultExcelConfig().DateNumFmt
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Writer{cfg: cfg, logger: logger}
}

// WriteFrame writes f to path, replacing any existing file. An index is
// written as the first column. Missing values become blank cells.
func (w *Writer) WriteFrame(ctx context.Context, path string, f *frame.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	startTime := time.Now()

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.IOError(err, "failed to create output directory %s", dir)
		}
	}

	out := excelize.NewFile()
	defer out.Close()

	sheet := w.cfg.SheetName
	if idx, err := out.GetSheetIndex(sheet); err != nil || idx == -1 {
		// a fresh workbook only has Sheet1
		if err := out.SetSheetName("Sheet1", sheet); err != nil {
			return errors.IOError(err, "failed to name sheet %q", sheet)
		}
	}

	header := make([]interface{}, 0, f.Width()+1)
	var timeCols []int
	if f.Index != nil {
		header = append(header, f.IndexName)
		timeCols = append(timeCols, 1)
	}
	offset := len(header)
	for i, col := range f.Columns() {
		header = append(header, col.Name)
		if col.Kind == frame.KindTime {
			timeCols = append(timeCols, offset+i+1)
		}
	}
	if err := out.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.IOError(err, "failed to write header to %s", path)
	}

	columns := f.Columns()
	for r := 0; r < f.Len(); r++ {
		row := make([]interface{}, 0, len(header))
		if f.Index != nil {
			row = append(row, timeValue(f.Index[r]))
		}
		for _, col := range columns {
			row = append(row, cellValue(col, r))
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := out.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.IOError(err, "failed to write row %d to %s", r+2, path)
		}
	}

	if len(timeCols) > 0 && f.Len() > 0 {
		numFmt := w.cfg.DateNumFmt
		style, err := out.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
		if err != nil {
			return errors.IOError(err, "failed to create date style")
		}
		for _, c := range timeCols {
			top, _ := excelize.CoordinatesToCellName(c, 2)
			bottom, _ := excelize.CoordinatesToCellName(c, f.Len()+1)
			if err := out.SetCellStyle(sheet, top, bottom, style); err != nil {
				return errors.IOError(err, "failed to style column %d", c)
			}
		}
	}

	if err := out.SaveAs(path); err != nil {
		return errors.IOError(err, "failed to save %s", path)
	}
	w.logger.Debug("[ExcelWriter] wrote %s in %.2fms (%d rows, %d columns)",
		path, float64(time.Since(startTime).Nanoseconds())/1e6, f.Len(), len(header))
	return nil
}

func cellValue(col *frame.Column, r int) interface{} {
	switch col.Kind {
	case frame.KindTime:
		return timeValue(col.Times[r])
	case frame.KindText:
		if col.Texts[r] == "" {
			return nil
		}
		return col.Texts[r]
	default:
		v := col.Floats[r]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	}
}

func timeValue(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
