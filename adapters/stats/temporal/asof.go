package temporal

import (
	"fmt"
	"math"
	"sort"

	"labmerge/domain/core"
	"labmerge/domain/frame"
)

// AsOfSpec describes one backward as-of join
type AsOfSpec struct {
	LeftOn  string // float key column on the left (running) frame
	RightOn string // float key column on the right frame
	// Suffix is appended to right-hand columns whose name already exists on
	// the left. Left columns keep their names.
	Suffix string
	// Tolerance bounds how far back a match may lie; zero means unbounded.
	Tolerance float64
	// TailStep ends the right series one step after its last key: left keys
	// beyond last+TailStep match nothing. Zero leaves the tail unbounded.
	TailStep float64
}

// JoinAsOf attaches to every left row the last right row whose key is <= the
// left key. A right row is never taken from the future of the left row.
// Right keys must be non-decreasing; NaN right keys are skipped and a NaN left
// key matches nothing. Right rows past the last left key are never used.
// Interior left keys always match; only Tolerance and TailStep leave them
// unmatched.
func JoinAsOf(left, right *frame.Frame, spec AsOfSpec) (*frame.Frame, error) {
	leftKeys, err := left.Floats(spec.LeftOn)
	if err != nil {
		return nil, fmt.Errorf("left key: %w", err)
	}
	rightKeys, err := right.Floats(spec.RightOn)
	if err != nil {
		return nil, fmt.Errorf("right key: %w", err)
	}

	// compact the usable right rows, keeping their original positions
	keys := make([]float64, 0, len(rightKeys))
	positions := make([]int, 0, len(rightKeys))
	for i, k := range rightKeys {
		if math.IsNaN(k) {
			continue
		}
		if n := len(keys); n > 0 && k < keys[n-1] {
			return nil, fmt.Errorf("%w: %q at row %d", core.ErrUnsortedKey, spec.RightOn, i)
		}
		keys = append(keys, k)
		positions = append(positions, i)
	}

	end := math.Inf(1)
	if n := len(keys); n > 0 && spec.TailStep > 0 {
		end = keys[n-1] + spec.TailStep
	}

	matches := make([]int, len(leftKeys))
	for i, lk := range leftKeys {
		matches[i] = -1
		if math.IsNaN(lk) || lk > end {
			continue
		}
		j := sort.Search(len(keys), func(j int) bool { return keys[j] > lk }) - 1
		if j < 0 {
			continue
		}
		if spec.Tolerance > 0 && lk-keys[j] > spec.Tolerance {
			continue
		}
		matches[i] = positions[j]
	}

	out := left.Clone()
	for _, col := range right.Columns() {
		name := col.Name
		if left.HasColumn(name) {
			name += spec.Suffix
		}
		taken := col.Take(matches)
		taken.Name = name
		if err := out.AddColumn(taken); err != nil {
			return nil, fmt.Errorf("joining %q: %w", col.Name, err)
		}
	}
	return out, nil
}
