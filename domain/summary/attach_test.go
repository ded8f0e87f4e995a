package summary

import (
	"errors"
	"math"
	"testing"
	"time"

	"labmerge/domain/core"
	"labmerge/domain/frame"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mergedFixture(t *testing.T) *frame.Frame {
	t.Helper()
	f := frame.MustNew(
		frame.NewFloatColumn("Temp", []float64{20, 21}),
		frame.NewFloatColumn("Conc", []float64{1, 2}),
	)
	start := time.Date(2023, 6, 5, 10, 0, 0, 0, time.UTC)
	f.IndexName = "Local Time"
	f.Index = []time.Time{start, start.Add(time.Minute)}
	return f
}

func TestAttachSectionSuffixes(t *testing.T) {
	f := mergedFixture(t)
	params := []Parameter{
		{Name: "A", Value: frame.Number(1)},
		{Name: "STARTING CONDITIONS"},
		{Name: "B", Value: frame.Number(2)},
		{Name: "EXPERIMENTAL RESULTS"},
		{Name: "C", Value: frame.Number(3)},
	}

	res, err := Attach(f, params, CollisionRename)
	require.NoError(t, err)

	want := []string{"A", "STARTING CONDITIONS", "B_static_start", "EXPERIMENTAL RESULTS", "C_static_exp"}
	if diff := cmp.Diff(want, res.Columns); diff != "" {
		t.Errorf("written columns mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(append([]string{"Temp", "Conc"}, want...), f.ColumnNames()); diff != "" {
		t.Errorf("frame columns mismatch (-want +got):\n%s", diff)
	}

	c, err := f.Floats("C_static_exp")
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 3}, c)

	marker, err := f.Floats("STARTING CONDITIONS")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(marker[0]) && math.IsNaN(marker[1]), "marker without value should be missing")
}

func TestAttachValueKinds(t *testing.T) {
	f := mergedFixture(t)
	day := time.Date(2023, 6, 5, 0, 0, 0, 0, time.UTC)
	_, err := Attach(f, []Parameter{
		{Name: "Operator", Value: frame.Text("HO")},
		{Name: "Date", Value: frame.Time(day)},
		{Name: "Formula", Value: frame.Empty()},
	}, CollisionRename)
	require.NoError(t, err)

	op, ok := f.Column("Operator")
	require.True(t, ok)
	assert.Equal(t, frame.KindText, op.Kind)
	assert.Equal(t, []string{"HO", "HO"}, op.Texts)

	date, ok := f.Column("Date")
	require.True(t, ok)
	assert.Equal(t, frame.KindTime, date.Kind)
	assert.True(t, date.Times[1].Equal(day))

	formula, err := f.Floats("Formula")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(formula[0]))
}

func TestAttachCollisionPolicies(t *testing.T) {
	params := []Parameter{{Name: "Temp", Value: frame.Number(99)}}

	t.Run("overwrite", func(t *testing.T) {
		f := mergedFixture(t)
		res, err := Attach(f, params, CollisionOverwrite)
		require.NoError(t, err)
		require.Len(t, res.Collisions, 1)
		assert.Equal(t, Collision{Column: "Temp", Written: "Temp", Policy: CollisionOverwrite}, res.Collisions[0])

		temps, err := f.Floats("Temp")
		require.NoError(t, err)
		assert.Equal(t, []float64{99, 99}, temps, "overwrite replaces the measured series")
		assert.Equal(t, 2, f.Width())
	})

	t.Run("rename", func(t *testing.T) {
		f := mergedFixture(t)
		res, err := Attach(f, append(params, Parameter{Name: "Temp", Value: frame.Number(98)}), CollisionRename)
		require.NoError(t, err)
		assert.Equal(t, []string{"Temp_summary", "Temp_summary_2"}, res.Columns)

		temps, err := f.Floats("Temp")
		require.NoError(t, err)
		assert.Equal(t, []float64{20, 21}, temps, "measured series must survive")
	})

	t.Run("error", func(t *testing.T) {
		f := mergedFixture(t)
		_, err := Attach(f, params, CollisionError)
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrColumnCollision))
		assert.True(t, core.IsCollision(err))
	})

	t.Run("index name", func(t *testing.T) {
		f := mergedFixture(t)
		res, err := Attach(f, []Parameter{{Name: "Local Time", Value: frame.Number(1)}}, CollisionRename)
		require.NoError(t, err)
		assert.Equal(t, []string{"Local Time_summary"}, res.Columns)

		_, err = Attach(f, []Parameter{{Name: "Local Time", Value: frame.Number(1)}}, CollisionOverwrite)
		assert.True(t, core.IsCollision(err))
	})
}

func TestAttachSkipsBlankNames(t *testing.T) {
	f := mergedFixture(t)
	res, err := Attach(f, []Parameter{{Name: "  ", Value: frame.Number(1)}, {Name: "A", Value: frame.Number(2)}}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"A"}, res.Columns)
}

func TestAttachMarkersKeepBareNames(t *testing.T) {
	f := mergedFixture(t)
	params := []Parameter{
		{Name: "EXPERIMENTAL RESULTS"},
		{Name: "Yield", Value: frame.Number(81.5)},
		{Name: "STARTING CONDITIONS"},
		{Name: "Mass", Value: frame.Number(250)},
		{Name: "EXPERIMENTAL RESULTS", Value: frame.Text("again")},
	}

	res, err := Attach(f, params, CollisionRename)
	require.NoError(t, err)

	want := []string{"EXPERIMENTAL RESULTS", "Yield_static_exp", "STARTING CONDITIONS", "Mass_static_start", "EXPERIMENTAL RESULTS_summary"}
	if diff := cmp.Diff(want, res.Columns); diff != "" {
		t.Errorf("written columns mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, IsMarker(StartMarker))
	assert.True(t, IsMarker(ExperimentMarker))
	assert.False(t, IsMarker("Mass"))
}

func TestSectionTransitions(t *testing.T) {
	tests := []struct {
		from SectionState
		name string
		want SectionState
	}{
		{SectionNone, "A", SectionNone},
		{SectionNone, StartMarker, SectionStart},
		{SectionStart, "B", SectionStart},
		{SectionStart, ExperimentMarker, SectionExperiment},
		{SectionNone, ExperimentMarker, SectionExperiment},
		{SectionExperiment, StartMarker, SectionStart},
	}
	for _, tt := range tests {
		if got := tt.from.Next(tt.name); got != tt.want {
			t.Errorf("%s.Next(%q) = %s, want %s", tt.from, tt.name, got, tt.want)
		}
	}
}

func TestParseCollisionPolicy(t *testing.T) {
	p, err := ParseCollisionPolicy("")
	require.NoError(t, err)
	assert.Equal(t, CollisionRename, p)

	p, err = ParseCollisionPolicy(" Overwrite ")
	require.NoError(t, err)
	assert.Equal(t, CollisionOverwrite, p)

	_, err = ParseCollisionPolicy("merge")
	assert.Error(t, err)
}
