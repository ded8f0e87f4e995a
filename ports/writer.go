package ports

import (
	"context"

	"labmerge/domain/frame"
)

// WorkbookWriter is the tabular output capability: it persists a frame as a
// single-sheet workbook, replacing any existing file.
type WorkbookWriter interface {
	WriteFrame(ctx context.Context, path string, f *frame.Frame) error
}
