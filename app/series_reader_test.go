package app

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"labmerge/domain/core"
	"labmerge/domain/experiment"
	"labmerge/domain/frame"
	"labmerge/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestHeaderBlockTitles(t *testing.T) {
	grid := &frame.Grid{Rows: [][]frame.Cell{
		{frame.Text("Mean"), frame.Text("Count"), frame.Empty()},
		{frame.Text("Chord"), frame.Text("Counts")},
		{frame.Text("Length"), frame.Empty()},
		{frame.Text("(um)"), frame.Text("(#/s)")},
		{frame.Empty(), frame.Empty()},
		{frame.Text(" No Wt "), frame.Number(1000)},
	}}

	titles := HeaderBlockTitles(grid)

	assert.Equal(t, []string{"Mean Chord Length (um) No Wt", "Count Counts (#/s) 1000", ""}, titles)
}

func TestReadSecondary_StatisticsTitlesFromHeaderBlock(t *testing.T) {
	s := newTestServices(t)
	path := writeExperiment(t, t.TempDir(), "C1", testkit.DefaultExperimentConfig())

	f, err := s.series.ReadSecondary(context.Background(), path, experiment.Secondaries[0])
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Local Time",
		"Experimental time (sec)",
		"Temp",
		"Stirrer",
		"Mean Chord Length (um) No Wt",
		"Median Chord Length (um) No Wt",
		"Count Counts (#/s) 1-1000",
	}, f.ColumnNames())
	assert.Equal(t, 120, f.Len())

	local, ok := f.Column("Local Time")
	require.True(t, ok)
	assert.Equal(t, frame.KindTime, local.Kind)
	assert.WithinDuration(t, time.Date(2023, 5, 23, 9, 0, 0, 0, time.UTC), local.Times[0], time.Millisecond)
}

func TestReadSecondary_DistributionKeepsMultilineTimestamp(t *testing.T) {
	s := newTestServices(t)
	path := writeExperiment(t, t.TempDir(), "C1", testkit.DefaultExperimentConfig())

	f, err := s.series.ReadSecondary(context.Background(), path, experiment.Secondaries[1])
	require.NoError(t, err)

	names := f.ColumnNames()
	require.NotEmpty(t, names)
	assert.Equal(t, experiment.DistributionTimeColumn, names[0])
	assert.Contains(t, names, experiment.SecondaryKey)
	assert.Contains(t, names, "10-20")
}

func TestReadSecondary_RequiresTimestampColumn(t *testing.T) {
	s := newTestServices(t)
	_, err := s.series.ReadSecondary(context.Background(), "unused.xlsx", experiment.Primary)
	assert.Error(t, err)
}

func TestReadPrimary_ForwardFillsAndDropsExtraColumns(t *testing.T) {
	s := newTestServices(t)
	path := filepath.Join(t.TempDir(), "C7_FORMATTED.xlsx")

	wb := excelize.NewFile()
	require.NoError(t, wb.SetSheetName("Sheet1", experiment.PrimarySheet))
	start := time.Date(2023, 5, 23, 9, 0, 0, 0, time.UTC)
	rows := [][]interface{}{
		{"Temperature and Concentration"},
		{"Local Time", "Time (sec)", "Temp", "Conc", "Flow", "Pressure", "Humidity", "Operator Note"},
		{start, 0, 20.5, 1.0, 2.0, 3.0, 4.0, "start"},
		{start.Add(time.Second), 1, nil, 1.1, nil, 3.1, 4.1, nil},
		{start.Add(2 * time.Second), 2, nil, 1.2, 2.2, 3.2, 4.2, nil},
		{start.Add(3 * time.Second), 3, 21.0, 1.3, 2.3, 3.3, 4.3, "end"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		require.NoError(t, wb.SetSheetRow(experiment.PrimarySheet, cell, &r))
	}
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	f, err := s.series.ReadPrimary(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 7, f.Width())
	assert.False(t, f.HasColumn("Operator Note"))
	assert.Equal(t, 4, f.Len())

	temp, err := f.Floats("Temp")
	require.NoError(t, err)
	assert.Equal(t, []float64{20.5, 20.5, 20.5, 21.0}, temp)

	flow, err := f.Floats("Flow")
	require.NoError(t, err)
	assert.Equal(t, []float64{2.0, 2.0, 2.2, 2.3}, flow)

	elapsed, err := f.Floats(experiment.ElapsedColumn)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, elapsed)
}

func TestReadPrimary_TextElapsedIsSchemaError(t *testing.T) {
	s := newTestServices(t)
	path := filepath.Join(t.TempDir(), "C8_FORMATTED.xlsx")

	wb := excelize.NewFile()
	require.NoError(t, wb.SetSheetName("Sheet1", experiment.PrimarySheet))
	rows := [][]interface{}{
		{"title"},
		{"Local Time", "Time (sec)", "Temp"},
		{"2023-05-23 09:00:00", "zero", 20.0},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		require.NoError(t, wb.SetSheetRow(experiment.PrimarySheet, cell, &r))
	}
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	_, err := s.series.ReadPrimary(context.Background(), path)
	require.Error(t, err)
	assert.True(t, core.IsSchemaError(err))
}

func TestCoerceTime_TextAndDayCounts(t *testing.T) {
	f := frame.MustNew(
		frame.NewTextColumn("a", []string{"2023-05-23 09:00:00", ""}),
		frame.NewFloatColumn("b", []float64{45069.375, math.NaN()}),
	)

	require.NoError(t, coerceTime(f, "a", core.DateModeSpreadsheet))
	require.NoError(t, coerceTime(f, "b", core.DateModeSpreadsheet))

	want := time.Date(2023, 5, 23, 9, 0, 0, 0, time.UTC)
	a, _ := f.Column("a")
	b, _ := f.Column("b")
	assert.WithinDuration(t, want, a.Times[0], 0)
	assert.True(t, a.Times[1].IsZero())
	assert.WithinDuration(t, want, b.Times[0], time.Millisecond)
	assert.True(t, b.Times[1].IsZero())

	assert.True(t, core.IsSchemaError(coerceTime(f, "missing", core.DateModeSpreadsheet)))
}

func TestCoerceTime_DefaultModeCountsCalendarDays(t *testing.T) {
	f := frame.MustNew(frame.NewFloatColumn("Local Time", []float64{45069.375}))
	require.NoError(t, coerceTime(f, "Local Time", DefaultMergeConfig().DateMode))

	col, _ := f.Column("Local Time")
	assert.WithinDuration(t, time.Date(2023, 5, 25, 9, 0, 0, 0, time.UTC), col.Times[0], time.Millisecond)
}

func TestUniqueTitle(t *testing.T) {
	f := frame.MustNew(
		frame.NewFloatColumn("x", []float64{1}),
		frame.NewFloatColumn("y", []float64{1}),
		frame.NewFloatColumn("y.1", []float64{1}),
	)

	assert.Equal(t, "x", uniqueTitle(f, 0, "x"))
	assert.Equal(t, "y.2", uniqueTitle(f, 0, "y"))
	assert.Equal(t, "z", uniqueTitle(f, 0, "z"))
}
