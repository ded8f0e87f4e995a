package frame

import (
	"strconv"
	"strings"
	"time"
)

// CellKind is the type of a single workbook cell
type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellText
	CellBool
	CellTime
)

// Cell is one typed value read from a sheet. The zero value is an empty cell.
type Cell struct {
	Kind   CellKind
	Number float64
	Text   string
	Bool   bool
	Time   time.Time
}

// Constructors
func Number(v float64) Cell    { return Cell{Kind: CellNumber, Number: v} }
func Text(s string) Cell       { return Cell{Kind: CellText, Text: s} }
func Bool(b bool) Cell         { return Cell{Kind: CellBool, Bool: b} }
func Time(t time.Time) Cell    { return Cell{Kind: CellTime, Time: t} }
func Empty() Cell              { return Cell{} }
func (c Cell) IsEmpty() bool   { return c.Kind == CellEmpty }
func (c Cell) IsNumeric() bool { _, ok := c.Float(); return ok }

// Float returns the numeric value of number and bool cells, and of text cells
// that parse as a number.
func (c Cell) Float() (float64, bool) {
	switch c.Kind {
	case CellNumber:
		return c.Number, true
	case CellBool:
		if c.Bool {
			return 1, true
		}
		return 0, true
	case CellText:
		v, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

// String renders the cell the way it is used in generated titles and names
func (c Cell) String() string {
	switch c.Kind {
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellText:
		return c.Text
	case CellBool:
		if c.Bool {
			return "True"
		}
		return "False"
	case CellTime:
		return c.Time.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

// Grid is the raw rectangular-ish block of cells read from a sheet.
// Rows may be ragged; missing trailing cells are empty.
type Grid struct {
	Rows [][]Cell
}

// Height returns the number of rows
func (g *Grid) Height() int {
	return len(g.Rows)
}

// Width returns the length of the longest row
func (g *Grid) Width() int {
	w := 0
	for _, row := range g.Rows {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// Cell returns the cell at (row, col), or an empty cell out of range
func (g *Grid) Cell(row, col int) Cell {
	if row < 0 || row >= len(g.Rows) || col < 0 || col >= len(g.Rows[row]) {
		return Cell{}
	}
	return g.Rows[row][col]
}
