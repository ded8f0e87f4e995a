package app

import (
	"context"
	"testing"

	"labmerge/domain/frame"
	"labmerge/domain/summary"
	"labmerge/internal"
	"labmerge/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadParameters(t *testing.T) {
	s := newTestServices(t)
	cfg := testkit.DefaultExperimentConfig()
	cfg.UncachedFormula = true
	path := writeExperiment(t, t.TempDir(), "C1", cfg)

	params, err := s.summaries.ReadParameters(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, params, 6)

	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"Operator", "STARTING CONDITIONS", "Mass (g)", "EXPERIMENTAL RESULTS", "Yield (%)", "Computed"}, names)

	assert.Equal(t, frame.Text("HO"), params[0].Value)
	assert.True(t, params[1].Value.IsEmpty())
	mass, ok := params[2].Value.Float()
	require.True(t, ok)
	assert.Equal(t, 250.0, mass)
	assert.True(t, params[5].Value.IsEmpty(), "a formula never calculated has no cached value")
}

func TestSummaryService_AttachRenamesCollisions(t *testing.T) {
	s := newTestServices(t)
	f := frame.MustNew(frame.NewFloatColumn("Temp", []float64{1, 2}))

	res, err := s.summaries.Attach(f, []summary.Parameter{
		{Name: "Temp", Value: frame.Number(5)},
	})
	require.NoError(t, err)

	require.Len(t, res.Collisions, 1)
	assert.Equal(t, "Temp_summary", res.Collisions[0].Written)
	assert.Equal(t, []string{"Temp", "Temp_summary"}, f.ColumnNames())
}

func TestSummaryService_ErrorPolicy(t *testing.T) {
	s := NewSummaryService(nil, summary.CollisionError, internal.NewLogger(internal.LogLevelError))
	f := frame.MustNew(frame.NewFloatColumn("Temp", []float64{1}))

	_, err := s.Attach(f, []summary.Parameter{{Name: "Temp", Value: frame.Number(5)}})
	assert.Error(t, err)
}
