package temporal

import (
	"errors"
	"math"
	"testing"

	"labmerge/domain/core"
	"labmerge/domain/frame"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinAsOf_BackwardMatchOnly(t *testing.T) {
	left := frame.MustNew(
		frame.NewFloatColumn("Time (sec)", []float64{0, 1, 2.5, 4, 10}),
		frame.NewFloatColumn("Temp", []float64{20, 21, 22, 23, 24}),
	)
	right := frame.MustNew(
		frame.NewFloatColumn("Experimental time (sec)", []float64{0.5, 2, 2.5, 3}),
		frame.NewFloatColumn("Temp", []float64{30, 31, 32, 33}),
	)

	out, err := JoinAsOf(left, right, AsOfSpec{LeftOn: "Time (sec)", RightOn: "Experimental time (sec)", Suffix: "_Blaze_Stats"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Time (sec)", "Temp", "Experimental time (sec)", "Temp_Blaze_Stats"}, out.ColumnNames())

	matched, _ := out.Floats("Experimental time (sec)")
	temps, _ := out.Floats("Temp_Blaze_Stats")
	assert.True(t, math.IsNaN(matched[0]), "nothing precedes t=0")
	assert.Equal(t, []float64{0.5, 2.5, 3, 3}, matched[1:])
	assert.Equal(t, []float64{30, 32, 33, 33}, temps[1:])

	leftTemps, _ := out.Floats("Temp")
	assert.Equal(t, []float64{20, 21, 22, 23, 24}, leftTemps, "left columns keep their names and values")
}

func TestJoinAsOf_NeverLooksAhead(t *testing.T) {
	leftKeys := make([]float64, 200)
	for i := range leftKeys {
		leftKeys[i] = float64(i) * 0.7
	}
	rightKeys := make([]float64, 90)
	for i := range rightKeys {
		rightKeys[i] = float64(i)*1.3 + 0.2
	}
	left := frame.MustNew(frame.NewFloatColumn("Time (sec)", leftKeys))
	right := frame.MustNew(frame.NewFloatColumn("Experimental time (sec)", rightKeys))

	out, err := JoinAsOf(left, right, AsOfSpec{LeftOn: "Time (sec)", RightOn: "Experimental time (sec)"})
	require.NoError(t, err)

	matched, _ := out.Floats("Experimental time (sec)")
	for i, lk := range leftKeys {
		if math.IsNaN(matched[i]) {
			assert.Less(t, lk, rightKeys[0], "unmatched row %d must precede all right keys", i)
			continue
		}
		assert.LessOrEqual(t, matched[i], lk, "row %d matched a future value", i)
	}
}

func TestJoinAsOf_DuplicateRightKeysTakeLast(t *testing.T) {
	left := frame.MustNew(frame.NewFloatColumn("k", []float64{1}))
	right := frame.MustNew(
		frame.NewFloatColumn("rk", []float64{1, 1}),
		frame.NewFloatColumn("v", []float64{10, 11}),
	)
	out, err := JoinAsOf(left, right, AsOfSpec{LeftOn: "k", RightOn: "rk"})
	require.NoError(t, err)
	v, _ := out.Floats("v")
	assert.Equal(t, []float64{11}, v)
}

func TestJoinAsOf_NullKeys(t *testing.T) {
	left := frame.MustNew(frame.NewFloatColumn("k", []float64{math.NaN(), 2}))
	right := frame.MustNew(
		frame.NewFloatColumn("rk", []float64{1, math.NaN(), 2}),
		frame.NewFloatColumn("v", []float64{10, 99, 12}),
	)
	out, err := JoinAsOf(left, right, AsOfSpec{LeftOn: "k", RightOn: "rk"})
	require.NoError(t, err)
	v, _ := out.Floats("v")
	assert.True(t, math.IsNaN(v[0]))
	assert.Equal(t, 12.0, v[1])
}

func TestJoinAsOf_UnsortedRightKeys(t *testing.T) {
	left := frame.MustNew(frame.NewFloatColumn("k", []float64{1}))
	right := frame.MustNew(frame.NewFloatColumn("rk", []float64{2, 1}))
	_, err := JoinAsOf(left, right, AsOfSpec{LeftOn: "k", RightOn: "rk"})
	assert.True(t, errors.Is(err, core.ErrUnsortedKey))
}

func TestJoinAsOf_MissingKeyColumn(t *testing.T) {
	left := frame.MustNew(frame.NewFloatColumn("k", []float64{1}))
	right := frame.MustNew(frame.NewFloatColumn("rk", []float64{1}))
	_, err := JoinAsOf(left, right, AsOfSpec{LeftOn: "k", RightOn: "nope"})
	assert.ErrorIs(t, err, core.ErrMissingColumn)
}

func TestJoinAsOf_Tolerance(t *testing.T) {
	left := frame.MustNew(frame.NewFloatColumn("k", []float64{1, 5}))
	right := frame.MustNew(
		frame.NewFloatColumn("rk", []float64{1}),
		frame.NewFloatColumn("v", []float64{7}),
	)
	out, err := JoinAsOf(left, right, AsOfSpec{LeftOn: "k", RightOn: "rk", Tolerance: 2})
	require.NoError(t, err)
	v, _ := out.Floats("v")
	assert.Equal(t, 7.0, v[0])
	assert.True(t, math.IsNaN(v[1]))
}

func TestJoinAsOf_IrregularRightKeysMatchEveryInteriorRow(t *testing.T) {
	left := frame.MustNew(frame.NewFloatColumn("k", []float64{0, 1, 2, 3}))
	right := frame.MustNew(
		frame.NewFloatColumn("rk", []float64{0, 1.5, 3}),
		frame.NewFloatColumn("v", []float64{10, 11, 12}),
	)
	out, err := JoinAsOf(left, right, AsOfSpec{LeftOn: "k", RightOn: "rk", TailStep: 1})
	require.NoError(t, err)
	v, _ := out.Floats("v")
	assert.Equal(t, []float64{10, 10, 11, 12}, v)
}

func TestJoinAsOf_TailStepEndsShortRightSeries(t *testing.T) {
	left := frame.MustNew(frame.NewFloatColumn("k", []float64{0, 1, 2, 3, 4, 5}))
	right := frame.MustNew(
		frame.NewFloatColumn("rk", []float64{0, 1, 2}),
		frame.NewFloatColumn("v", []float64{10, 11, 12}),
	)

	bounded, err := JoinAsOf(left, right, AsOfSpec{LeftOn: "k", RightOn: "rk", TailStep: 1})
	require.NoError(t, err)
	v, _ := bounded.Floats("v")
	assert.Equal(t, []float64{10, 11, 12, 12}, v[:4])
	assert.True(t, math.IsNaN(v[4]))
	assert.True(t, math.IsNaN(v[5]))

	unbounded, err := JoinAsOf(left, right, AsOfSpec{LeftOn: "k", RightOn: "rk"})
	require.NoError(t, err)
	v, _ = unbounded.Floats("v")
	assert.Equal(t, []float64{10, 11, 12, 12, 12, 12}, v)
}

func TestJoinAsOf_LongerRightSeriesIgnoresExtraSamples(t *testing.T) {
	left := frame.MustNew(frame.NewFloatColumn("k", []float64{0, 1, 2}))
	right := frame.MustNew(
		frame.NewFloatColumn("rk", []float64{0, 1, 2, 3, 4, 5}),
		frame.NewFloatColumn("v", []float64{10, 11, 12, 13, 14, 15}),
	)
	out, err := JoinAsOf(left, right, AsOfSpec{LeftOn: "k", RightOn: "rk"})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Len(), "the primary timeline is never extended")
	v, _ := out.Floats("v")
	assert.Equal(t, []float64{10, 11, 12}, v)
}

func TestJoinAsOf_SequentialSuffixes(t *testing.T) {
	left := frame.MustNew(
		frame.NewFloatColumn("Time (sec)", []float64{0, 1}),
		frame.NewFloatColumn("Temp", []float64{1, 2}),
	)
	mk := func() *frame.Frame {
		return frame.MustNew(
			frame.NewFloatColumn("Experimental time (sec)", []float64{0, 1}),
			frame.NewFloatColumn("Temp", []float64{3, 4}),
		)
	}

	out, err := JoinAsOf(left, mk(), AsOfSpec{LeftOn: "Time (sec)", RightOn: "Experimental time (sec)", Suffix: "_Blaze_Stats"})
	require.NoError(t, err)
	out, err = JoinAsOf(out, mk(), AsOfSpec{LeftOn: "Time (sec)", RightOn: "Experimental time (sec)", Suffix: "_Blaze_LW_Dist"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Time (sec)", "Temp",
		"Experimental time (sec)", "Temp_Blaze_Stats",
		"Experimental time (sec)_Blaze_LW_Dist", "Temp_Blaze_LW_Dist",
	}, out.ColumnNames())
}
