package ports

import (
	"context"

	"labmerge/domain/frame"
)

// ReadOptions selects the block of a sheet to load
type ReadOptions struct {
	// SkipRows drops this many leading rows before anything else
	SkipRows int
	// MaxRows limits the rows returned after skipping; zero means all
	MaxRows int
	// FirstCol and LastCol bound the columns by letter ("E", "P"); empty
	// means unbounded on that side
	FirstCol string
	LastCol  string
	// CachedValues returns the value last computed by the spreadsheet for
	// formula cells; a formula with no cached value reads as empty. When
	// false, formula cells read as their formula text.
	CachedValues bool
}

// WorkbookReader is the tabular input capability: it loads a block of a
// named sheet as typed cells.
type WorkbookReader interface {
	ReadSheet(ctx context.Context, path, sheet string, opts ReadOptions) (*frame.Grid, error)
	SheetNames(ctx context.Context, path string) ([]string, error)
}
