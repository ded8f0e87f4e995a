package core

import (
	"fmt"
	"strings"
)

// TimestampLayout is the rendering of the merged table's time index
const TimestampLayout = "2006-01-02 15:04:05"

// DateMode selects how a numeric day-count is turned into a timestamp
type DateMode string

const (
	// DateModeSpreadsheet follows the 1900 spreadsheet date system, including
	// the fictitious 1900-02-29 (serial 60).
	DateModeSpreadsheet DateMode = "spreadsheet"
	// DateModeOrigin adds the day-count to 1900-01-01 as plain calendar days.
	// Modern serials land two days after DateModeSpreadsheet. It is the
	// default, matching the merged workbooks produced so far.
	DateModeOrigin DateMode = "origin"
)

// ParseDateMode parses a configured date mode name
func ParseDateMode(s string) (DateMode, error) {
	switch DateMode(strings.ToLower(strings.TrimSpace(s))) {
	case DateModeSpreadsheet:
		return DateModeSpreadsheet, nil
	case "", DateModeOrigin:
		return DateModeOrigin, nil
	default:
		return "", fmt.Errorf("unknown date mode %q", s)
	}
}
