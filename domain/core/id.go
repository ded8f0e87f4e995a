package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID        ID
	ExperimentID ID
)

// String conversions for domain IDs
func (id RunID) String() string        { return ID(id).String() }
func (id RunID) IsEmpty() bool         { return ID(id).IsEmpty() }
func (id ExperimentID) String() string { return ID(id).String() }

// NewRunID returns a fresh, time-ordered run identifier
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// ParseExperimentID parses a string into ExperimentID. Identifiers name files,
// so path separators are rejected.
func ParseExperimentID(s string) (ExperimentID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("experiment ID cannot be empty")
	}
	if strings.ContainsAny(s, `/\`) {
		return "", fmt.Errorf("experiment ID %q contains a path separator", s)
	}
	return ExperimentID(s), nil
}

// Input and output file naming for an experiment
const (
	InputSuffix  = "_FORMATTED.xlsx"
	OutputSuffix = "_Merged.xlsx"
)

// InputFileName is the workbook an experiment is read from
func (id ExperimentID) InputFileName() string { return string(id) + InputSuffix }

// OutputFileName is the merged workbook an experiment is written to
func (id ExperimentID) OutputFileName() string { return string(id) + OutputSuffix }
