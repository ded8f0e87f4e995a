package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Schema errors: the workbook does not have the expected shape
	ErrSchema        = errors.New("unexpected workbook schema")
	ErrMissingSheet  = fmt.Errorf("%w: missing sheet", ErrSchema)
	ErrMissingColumn = fmt.Errorf("%w: missing column", ErrSchema)
	ErrColumnKind    = fmt.Errorf("%w: column has wrong kind", ErrSchema)

	// Alignment errors
	ErrNoTimeIndex = errors.New("frame has no time index")
	ErrUnsortedKey = errors.New("join key is not sorted")

	// Merge outcome errors
	ErrEmptyMerge      = errors.New("merge produced no rows")
	ErrColumnCollision = errors.New("column name collision")
)

// Error constructors with context
func NewMissingSheetError(path, sheet string) error {
	return fmt.Errorf("%w: %q in %s", ErrMissingSheet, sheet, path)
}

func NewMissingColumnError(column string) error {
	return fmt.Errorf("%w: %q", ErrMissingColumn, column)
}

func NewColumnKindError(column, want string) error {
	return fmt.Errorf("%w: %q is not %s", ErrColumnKind, column, want)
}

func NewCollisionError(column string) error {
	return fmt.Errorf("%w: %q already exists", ErrColumnCollision, column)
}

// Error checking helpers
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

func IsEmptyMerge(err error) bool {
	return errors.Is(err, ErrEmptyMerge)
}

func IsCollision(err error) bool {
	return errors.Is(err, ErrColumnCollision)
}
