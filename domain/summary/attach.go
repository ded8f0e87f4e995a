package summary

import (
	"fmt"
	"strings"

	"labmerge/domain/core"
	"labmerge/domain/frame"
)

// Attach broadcasts every parameter as a constant column of f, in list
// order. Each parameter is written as <name><suffix> with the suffix of the
// current section; marker parameters keep their bare name and then switch
// the section. Names colliding with existing columns, including
// columns written earlier in the same list, are resolved by policy.
func Attach(f *frame.Frame, params []Parameter, policy CollisionPolicy) (*Result, error) {
	if policy == "" {
		policy = CollisionRename
	}
	res := &Result{}
	rows := f.Len()
	state := SectionNone

	for _, p := range params {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			res.Skipped++
			continue
		}

		column := name
		if !IsMarker(name) {
			column += state.Suffix()
		}
		written := column
		if f.HasColumn(column) || column == f.IndexName {
			switch policy {
			case CollisionError:
				return res, fmt.Errorf("parameter %q: %w", name, core.NewCollisionError(column))
			case CollisionRename:
				written = freeName(f, column)
			case CollisionOverwrite:
				if column == f.IndexName {
					return res, fmt.Errorf("parameter %q cannot replace the index: %w", name, core.NewCollisionError(column))
				}
			default:
				return res, fmt.Errorf("unknown collision policy %q", policy)
			}
			res.Collisions = append(res.Collisions, Collision{Column: column, Written: written, Policy: policy})
		}

		if err := f.SetColumn(frame.ConstantColumn(written, p.Value, rows)); err != nil {
			return res, fmt.Errorf("parameter %q: %w", name, err)
		}
		res.Columns = append(res.Columns, written)
		state = state.Next(name)
	}
	return res, nil
}

func freeName(f *frame.Frame, column string) string {
	candidate := column + RenameSuffix
	for n := 2; f.HasColumn(candidate) || candidate == f.IndexName; n++ {
		candidate = fmt.Sprintf("%s%s_%d", column, RenameSuffix, n)
	}
	return candidate
}
