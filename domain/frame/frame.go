// Package frame holds the in-memory table used across the pipeline: an ordered
// set of typed, equal-length columns with an optional time index.
package frame

import (
	"fmt"
	"math"
	"time"

	"labmerge/domain/core"
)

// Kind is the element type of a column
type Kind int

const (
	KindFloat Kind = iota
	KindTime
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindTime:
		return "time"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Column is a named, typed vector. Only the slice matching Kind is populated.
// Missing values are NaN (float), the zero time (time) or "" (text).
type Column struct {
	Name   string
	Kind   Kind
	Floats []float64
	Times  []time.Time
	Texts  []string
}

// NewFloatColumn creates a float column
func NewFloatColumn(name string, values []float64) *Column {
	return &Column{Name: name, Kind: KindFloat, Floats: values}
}

// NewTimeColumn creates a time column
func NewTimeColumn(name string, values []time.Time) *Column {
	return &Column{Name: name, Kind: KindTime, Times: values}
}

// NewTextColumn creates a text column
func NewTextColumn(name string, values []string) *Column {
	return &Column{Name: name, Kind: KindText, Texts: values}
}

// ConstantColumn broadcasts one cell value over n rows
func ConstantColumn(name string, value Cell, n int) *Column {
	switch value.Kind {
	case CellTime:
		times := make([]time.Time, n)
		for i := range times {
			times[i] = value.Time
		}
		return NewTimeColumn(name, times)
	case CellText:
		texts := make([]string, n)
		for i := range texts {
			texts[i] = value.Text
		}
		return NewTextColumn(name, texts)
	default:
		v := math.NaN()
		if f, ok := value.Float(); ok && value.Kind != CellEmpty {
			v = f
		}
		floats := make([]float64, n)
		for i := range floats {
			floats[i] = v
		}
		return NewFloatColumn(name, floats)
	}
}

// Len returns the number of values
func (c *Column) Len() int {
	switch c.Kind {
	case KindTime:
		return len(c.Times)
	case KindText:
		return len(c.Texts)
	default:
		return len(c.Floats)
	}
}

// IsMissing reports whether row i holds no value
func (c *Column) IsMissing(i int) bool {
	switch c.Kind {
	case KindTime:
		return c.Times[i].IsZero()
	case KindText:
		return c.Texts[i] == ""
	default:
		return math.IsNaN(c.Floats[i])
	}
}

// Clone returns a deep copy
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	switch c.Kind {
	case KindTime:
		out.Times = append([]time.Time(nil), c.Times...)
	case KindText:
		out.Texts = append([]string(nil), c.Texts...)
	default:
		out.Floats = append([]float64(nil), c.Floats...)
	}
	return out
}

// Take builds a new column from the given row positions; a negative position
// yields a missing value.
func (c *Column) Take(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	switch c.Kind {
	case KindTime:
		out.Times = make([]time.Time, len(rows))
		for i, r := range rows {
			if r >= 0 {
				out.Times[i] = c.Times[r]
			}
		}
	case KindText:
		out.Texts = make([]string, len(rows))
		for i, r := range rows {
			if r >= 0 {
				out.Texts[i] = c.Texts[r]
			}
		}
	default:
		out.Floats = make([]float64, len(rows))
		for i, r := range rows {
			if r >= 0 {
				out.Floats[i] = c.Floats[r]
			} else {
				out.Floats[i] = math.NaN()
			}
		}
	}
	return out
}

// Frame is an ordered collection of equal-length columns with an optional
// time index. When Index is non-nil its length is the row count.
type Frame struct {
	IndexName string
	Index     []time.Time

	columns []*Column
	byName  map[string]int
}

// New creates a frame from columns. Column lengths must agree.
func New(columns ...*Column) (*Frame, error) {
	f := &Frame{byName: make(map[string]int)}
	for _, c := range columns {
		if err := f.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// MustNew is New for fixtures; it panics on error.
func MustNew(columns ...*Column) *Frame {
	f, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return f
}

// Len returns the row count
func (f *Frame) Len() int {
	if f.Index != nil {
		return len(f.Index)
	}
	if len(f.columns) == 0 {
		return 0
	}
	return f.columns[0].Len()
}

// Width returns the number of (non-index) columns
func (f *Frame) Width() int {
	return len(f.columns)
}

// Columns returns the columns in order. The slice must not be modified.
func (f *Frame) Columns() []*Column {
	return f.columns
}

// ColumnNames returns the column names in order
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks a column up by name
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.byName[name]
	if !ok {
		return nil, false
	}
	return f.columns[i], true
}

// HasColumn reports whether a column exists
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.byName[name]
	return ok
}

// Floats returns the values of a float column
func (f *Frame) Floats(name string) ([]float64, error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, core.NewMissingColumnError(name)
	}
	if c.Kind != KindFloat {
		return nil, core.NewColumnKindError(name, KindFloat.String())
	}
	return c.Floats, nil
}

// AddColumn appends a column; the name must be new
func (f *Frame) AddColumn(c *Column) error {
	if f.byName == nil {
		f.byName = make(map[string]int)
	}
	if _, exists := f.byName[c.Name]; exists {
		return core.NewCollisionError(c.Name)
	}
	if (f.Index != nil || len(f.columns) > 0) && c.Len() != f.Len() {
		return fmt.Errorf("column %q has %d rows, frame has %d", c.Name, c.Len(), f.Len())
	}
	f.byName[c.Name] = len(f.columns)
	f.columns = append(f.columns, c)
	return nil
}

// SetColumn replaces an existing column in place or appends a new one
func (f *Frame) SetColumn(c *Column) error {
	if i, exists := f.byName[c.Name]; exists {
		if c.Len() != f.Len() {
			return fmt.Errorf("column %q has %d rows, frame has %d", c.Name, c.Len(), f.Len())
		}
		f.columns[i] = c
		return nil
	}
	return f.AddColumn(c)
}

// RenameColumn renames the column at position i
func (f *Frame) RenameColumn(i int, name string) error {
	old := f.columns[i].Name
	if old == name {
		return nil
	}
	if _, exists := f.byName[name]; exists {
		return core.NewCollisionError(name)
	}
	delete(f.byName, old)
	f.columns[i].Name = name
	f.byName[name] = i
	return nil
}

// RemoveColumn drops a column and returns it
func (f *Frame) RemoveColumn(name string) (*Column, error) {
	i, ok := f.byName[name]
	if !ok {
		return nil, core.NewMissingColumnError(name)
	}
	c := f.columns[i]
	f.columns = append(f.columns[:i:i], f.columns[i+1:]...)
	f.reindex()
	return c, nil
}

func (f *Frame) reindex() {
	f.byName = make(map[string]int, len(f.columns))
	for i, c := range f.columns {
		f.byName[c.Name] = i
	}
}

// SelectFirst returns a frame with only the first n columns
func (f *Frame) SelectFirst(n int) *Frame {
	if n > len(f.columns) {
		n = len(f.columns)
	}
	out := &Frame{IndexName: f.IndexName, Index: f.Index}
	out.columns = append([]*Column(nil), f.columns[:n]...)
	out.reindex()
	return out
}

// Clone returns a deep copy
func (f *Frame) Clone() *Frame {
	out := &Frame{IndexName: f.IndexName}
	if f.Index != nil {
		out.Index = append([]time.Time(nil), f.Index...)
	}
	out.columns = make([]*Column, len(f.columns))
	for i, c := range f.columns {
		out.columns[i] = c.Clone()
	}
	out.reindex()
	return out
}

// SetIndex moves a time column into the index
func (f *Frame) SetIndex(name string) error {
	c, ok := f.Column(name)
	if !ok {
		return core.NewMissingColumnError(name)
	}
	if c.Kind != KindTime {
		return core.NewColumnKindError(name, KindTime.String())
	}
	if _, err := f.RemoveColumn(name); err != nil {
		return err
	}
	f.IndexName = name
	f.Index = c.Times
	return nil
}

// ResetIndex moves the index back to a leading time column
func (f *Frame) ResetIndex() error {
	if f.Index == nil {
		return core.ErrNoTimeIndex
	}
	if f.HasColumn(f.IndexName) {
		return core.NewCollisionError(f.IndexName)
	}
	c := NewTimeColumn(f.IndexName, f.Index)
	f.columns = append([]*Column{c}, f.columns...)
	f.Index = nil
	f.IndexName = ""
	f.reindex()
	return nil
}

// FormatIndex replaces the index with a leading text column holding the
// timestamps rendered with layout.
func (f *Frame) FormatIndex(layout string) error {
	if f.Index == nil {
		return core.ErrNoTimeIndex
	}
	if f.HasColumn(f.IndexName) {
		return core.NewCollisionError(f.IndexName)
	}
	texts := make([]string, len(f.Index))
	for i, t := range f.Index {
		if !t.IsZero() {
			texts[i] = t.Format(layout)
		}
	}
	f.columns = append([]*Column{NewTextColumn(f.IndexName, texts)}, f.columns...)
	f.Index = nil
	f.IndexName = ""
	f.reindex()
	return nil
}
