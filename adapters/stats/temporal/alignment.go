package temporal

import (
	"fmt"
	"math"
	"time"

	"labmerge/domain/core"
	"labmerge/domain/frame"

	"github.com/montanaflynn/stats"
)

// ============================================================================
// TEMPORAL ALIGNMENT LAYER
// ============================================================================
// Regroups an indexed frame into fixed-width time buckets. Each source is
// normalized to a 1 s grid before joining, and the merged table is regrouped
// to the 60 s reporting cadence afterwards.
// ============================================================================

// Anchor decides where the first bucket starts
type Anchor int

const (
	// AnchorFloor starts at the first timestamp truncated to the bucket width
	AnchorFloor Anchor = iota
	// AnchorStart starts exactly at the first timestamp
	AnchorStart
)

// AggregationFunc defines how to aggregate multiple rows in the same bucket
type AggregationFunc string

const (
	AggMean  AggregationFunc = "mean"
	AggSum   AggregationFunc = "sum"
	AggMin   AggregationFunc = "min"
	AggMax   AggregationFunc = "max"
	AggCount AggregationFunc = "count"
)

// ResampleConfig controls the resampling behavior
type ResampleConfig struct {
	Every         time.Duration
	Anchor        Anchor
	AggregateFunc AggregationFunc
	// Interpolate fills interior gaps after aggregation
	Interpolate bool
}

// SecondCadence is the per-source normalization grid
func SecondCadence() ResampleConfig {
	return ResampleConfig{Every: time.Second, Anchor: AnchorFloor, AggregateFunc: AggMean, Interpolate: true}
}

// MinuteCadence is the merged reporting grid
func MinuteCadence() ResampleConfig {
	return ResampleConfig{Every: time.Minute, Anchor: AnchorStart, AggregateFunc: AggMean, Interpolate: true}
}

// Resample aggregates an indexed frame onto a uniform grid. Rows with a zero
// timestamp are dropped. Only float columns survive; time and text columns
// cannot be averaged. Buckets without rows are NaN until interpolation.
func Resample(f *frame.Frame, cfg ResampleConfig) (*frame.Frame, error) {
	if f.Index == nil {
		return nil, core.ErrNoTimeIndex
	}
	if cfg.Every <= 0 {
		return nil, fmt.Errorf("resample interval must be positive, got %s", cfg.Every)
	}
	if cfg.AggregateFunc == "" {
		cfg.AggregateFunc = AggMean
	}

	origin, last, ok := timeBounds(f.Index)
	if !ok {
		// no usable timestamps: keep the float schema with zero rows
		out := &frame.Frame{IndexName: f.IndexName, Index: []time.Time{}}
		for _, col := range f.Columns() {
			if col.Kind != frame.KindFloat {
				continue
			}
			if err := out.AddColumn(frame.NewFloatColumn(col.Name, []float64{})); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	if cfg.Anchor == AnchorFloor {
		origin = origin.Truncate(cfg.Every)
	}

	grid := generateTimeGrid(origin, last, cfg.Every)
	buckets := make([]int, len(f.Index))
	for i, ts := range f.Index {
		if ts.IsZero() {
			buckets[i] = -1
			continue
		}
		buckets[i] = int(ts.Sub(origin) / cfg.Every)
	}

	out := &frame.Frame{IndexName: f.IndexName, Index: grid}
	for _, col := range f.Columns() {
		if col.Kind != frame.KindFloat {
			continue
		}
		values := resampleToGrid(col.Floats, buckets, len(grid), cfg.AggregateFunc)
		if cfg.Interpolate {
			values = InterpolateInterior(values)
		}
		if err := out.AddColumn(frame.NewFloatColumn(col.Name, values)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// BucketCount is the number of rows Resample produces for a span
func BucketCount(first, last time.Time, every time.Duration, anchor Anchor) int {
	if anchor == AnchorFloor {
		first = first.Truncate(every)
	}
	if last.Before(first) {
		return 0
	}
	return int(last.Sub(first)/every) + 1
}

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

func timeBounds(index []time.Time) (first, last time.Time, ok bool) {
	for _, ts := range index {
		if ts.IsZero() {
			continue
		}
		if !ok || ts.Before(first) {
			first = ts
		}
		if !ok || ts.After(last) {
			last = ts
		}
		ok = true
	}
	return first, last, ok
}

// generateTimeGrid creates evenly spaced time points covering [start, end]
func generateTimeGrid(start, end time.Time, every time.Duration) []time.Time {
	n := int(end.Sub(start)/every) + 1
	grid := make([]time.Time, n)
	for i := range grid {
		grid[i] = start.Add(time.Duration(i) * every)
	}
	return grid
}

// resampleToGrid aggregates values into their buckets. NaN inputs are
// ignored; a bucket with no valid input is NaN.
func resampleToGrid(values []float64, buckets []int, size int, agg AggregationFunc) []float64 {
	grouped := make([]stats.Float64Data, size)
	for i, b := range buckets {
		if b < 0 || math.IsNaN(values[i]) {
			continue
		}
		grouped[b] = append(grouped[b], values[i])
	}

	out := make([]float64, size)
	for i, g := range grouped {
		if len(g) == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = aggregate(g, agg)
	}
	return out
}

// aggregate applies the aggregation function to a non-empty bucket
func aggregate(values stats.Float64Data, fn AggregationFunc) float64 {
	var (
		v   float64
		err error
	)
	switch fn {
	case AggSum:
		v, err = stats.Sum(values)
	case AggMin:
		v, err = stats.Min(values)
	case AggMax:
		v, err = stats.Max(values)
	case AggCount:
		return float64(len(values))
	default:
		v, err = stats.Mean(values)
	}
	if err != nil {
		return math.NaN()
	}
	return v
}
