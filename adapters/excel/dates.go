package excel

import (
	"fmt"
	"math"
	"time"

	"labmerge/domain/core"

	"github.com/xuri/excelize/v2"
)

// originEpoch is day zero for core.DateModeOrigin
var originEpoch = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// SerialToTime converts a day-count into a timestamp. Spreadsheet mode uses
// the 1900 date system (serial 1 is 1900-01-01 and serial 60 is the
// non-existent 1900-02-29, so later serials are offset by one day); origin
// mode counts plain calendar days from 1900-01-01.
func SerialToTime(days float64, mode core.DateMode) (time.Time, error) {
	if math.IsNaN(days) || math.IsInf(days, 0) {
		return time.Time{}, fmt.Errorf("invalid day count %v", days)
	}
	switch mode {
	case core.DateModeOrigin:
		whole := math.Floor(days)
		frac := time.Duration(math.Round((days - whole) * float64(24*time.Hour) / float64(time.Microsecond)))
		return originEpoch.AddDate(0, 0, int(whole)).Add(frac * time.Microsecond), nil
	default:
		return excelize.ExcelDateToTime(days, false)
	}
}

// SerialsToTimes converts a float column of day-counts; NaN becomes the zero time.
func SerialsToTimes(days []float64, mode core.DateMode) ([]time.Time, error) {
	out := make([]time.Time, len(days))
	for i, d := range days {
		if math.IsNaN(d) {
			continue
		}
		t, err := SerialToTime(d, mode)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}
