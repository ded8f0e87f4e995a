package temporal

import (
	"math"

	"gonum.org/v1/gonum/interp"
)

// ForwardFill replaces every missing value with the most recent non-missing
// value before it. Leading missing values stay missing. The input is not
// modified.
func ForwardFill[T any](values []T, missing func(T) bool) []T {
	out := make([]T, len(values))
	copy(out, values)
	have := false
	var last T
	for i, v := range out {
		if missing(v) {
			if have {
				out[i] = last
			}
			continue
		}
		last, have = v, true
	}
	return out
}

// ForwardFillFloats is ForwardFill with NaN as the missing marker
func ForwardFillFloats(values []float64) []float64 {
	return ForwardFill(values, math.IsNaN)
}

// InterpolateInterior fills NaN values that have a known value on both sides
// by linear interpolation over the sample positions (the series is assumed
// uniformly spaced). Edge gaps, before the first or after the last known
// value, are left as NaN. The input is not modified.
func InterpolateInterior(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)

	xs := make([]float64, 0, len(values))
	ys := make([]float64, 0, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			xs = append(xs, float64(i))
			ys = append(ys, v)
		}
	}
	if len(xs) < 2 || len(xs) == len(values) {
		return out
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		// xs are strictly increasing positions, Fit cannot reject them
		return out
	}

	first, last := int(xs[0]), int(xs[len(xs)-1])
	for i := first + 1; i < last; i++ {
		if math.IsNaN(out[i]) {
			out[i] = pl.Predict(float64(i))
		}
	}
	return out
}

// CountMissing returns the number of NaN values
func CountMissing(values []float64) int {
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}
