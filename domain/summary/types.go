package summary

import (
	"fmt"
	"strings"

	"labmerge/domain/frame"
)

// Section markers in the Summary sheet
const (
	StartMarker      = "STARTING CONDITIONS"
	ExperimentMarker = "EXPERIMENTAL RESULTS"
)

// SectionState is the position within the summary list. It decides the
// suffix applied to parameter columns.
type SectionState int

const (
	SectionNone       SectionState = iota // before any marker
	SectionStart                          // after STARTING CONDITIONS
	SectionExperiment                     // after EXPERIMENTAL RESULTS
)

// Suffix returns the column-name suffix for parameters in this section
func (s SectionState) Suffix() string {
	switch s {
	case SectionStart:
		return "_static_start"
	case SectionExperiment:
		return "_static_exp"
	default:
		return ""
	}
}

func (s SectionState) String() string {
	switch s {
	case SectionStart:
		return "start"
	case SectionExperiment:
		return "experiment"
	default:
		return "none"
	}
}

// IsMarker reports whether name opens a section
func IsMarker(name string) bool {
	return name == StartMarker || name == ExperimentMarker
}

// Next returns the state after a parameter named name has been written.
// Markers switch section unconditionally; any other name keeps the state.
func (s SectionState) Next(name string) SectionState {
	switch name {
	case StartMarker:
		return SectionStart
	case ExperimentMarker:
		return SectionExperiment
	default:
		return s
	}
}

// Parameter is one row of the Summary sheet. An unresolved formula or blank
// value cell leaves Value empty.
type Parameter struct {
	Name  string
	Value frame.Cell
}

// CollisionPolicy decides what happens when a parameter column name is
// already present in the merged table
type CollisionPolicy string

const (
	// CollisionOverwrite replaces the existing column with the constant value
	CollisionOverwrite CollisionPolicy = "overwrite"
	// CollisionRename writes the parameter under <name>_summary, _summary_2, ...
	CollisionRename CollisionPolicy = "rename"
	// CollisionError aborts the attach with core.ErrColumnCollision
	CollisionError CollisionPolicy = "error"
)

// RenameSuffix is the first suffix tried by CollisionRename
const RenameSuffix = "_summary"

// ParseCollisionPolicy parses a policy name; empty means CollisionRename
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch p := CollisionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return CollisionRename, nil
	case CollisionOverwrite, CollisionRename, CollisionError:
		return p, nil
	default:
		return "", fmt.Errorf("unknown collision policy %q (want overwrite, rename or error)", s)
	}
}

// Collision records one name clash and how it was resolved
type Collision struct {
	Column  string // the name the parameter asked for
	Written string // the name actually written
	Policy  CollisionPolicy
}

// Result describes an attach
type Result struct {
	Columns    []string // columns written, in parameter order
	Collisions []Collision
	Skipped    int // parameters without a name
}
