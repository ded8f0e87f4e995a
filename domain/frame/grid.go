package frame

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// HeaderTitles turns a header row into unique column titles. Blank headers
// become "Unnamed: <position>" and repeated titles get ".1", ".2", ... suffixes,
// which is how the exports have always been labelled downstream.
func HeaderTitles(header []Cell, width int) []string {
	titles := make([]string, width)
	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		var title string
		if i < len(header) {
			title = strings.TrimSpace(header[i].String())
		}
		if title == "" {
			title = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[title]; dup {
			seen[title] = n + 1
			candidate := fmt.Sprintf("%s.%d", title, n+1)
			for {
				if _, taken := seen[candidate]; !taken {
					break
				}
				n++
				candidate = fmt.Sprintf("%s.%d", title, n+1)
			}
			seen[candidate] = 0
			title = candidate
		} else {
			seen[title] = 0
		}
		titles[i] = title
	}
	return titles
}

// FromGrid builds a frame from a grid whose first row is the header. Column
// kinds are inferred from the data cells: all-time columns become time
// columns, columns whose non-empty cells are all numeric become float
// columns, anything else is text.
func FromGrid(g *Grid) (*Frame, error) {
	if g.Height() == 0 {
		return New()
	}
	width := g.Width()
	titles := HeaderTitles(g.Rows[0], width)
	body := g.Rows[1:]

	columns := make([]*Column, width)
	for col := 0; col < width; col++ {
		columns[col] = buildColumn(titles[col], body, col)
	}
	return New(columns...)
}

// FromGridNoHeader builds a frame with positional titles "0", "1", ...
func FromGridNoHeader(g *Grid) (*Frame, error) {
	width := g.Width()
	columns := make([]*Column, width)
	for col := 0; col < width; col++ {
		columns[col] = buildColumn(fmt.Sprintf("%d", col), g.Rows, col)
	}
	return New(columns...)
}

func buildColumn(name string, rows [][]Cell, col int) *Column {
	cell := func(r int) Cell {
		if col < len(rows[r]) {
			return rows[r][col]
		}
		return Cell{}
	}

	allTime, allNumeric, seen := true, true, false
	for r := range rows {
		c := cell(r)
		if c.IsEmpty() {
			continue
		}
		seen = true
		if c.Kind != CellTime {
			allTime = false
		}
		if _, ok := c.Float(); !ok {
			allNumeric = false
		}
	}

	switch {
	case seen && allTime:
		values := make([]time.Time, len(rows))
		for r := range rows {
			values[r] = cell(r).Time
		}
		return NewTimeColumn(name, values)
	case allNumeric:
		values := make([]float64, len(rows))
		for r := range rows {
			if v, ok := cell(r).Float(); ok {
				values[r] = v
			} else {
				values[r] = math.NaN()
			}
		}
		return NewFloatColumn(name, values)
	default:
		values := make([]string, len(rows))
		for r := range rows {
			values[r] = cell(r).String()
		}
		return NewTextColumn(name, values)
	}
}
