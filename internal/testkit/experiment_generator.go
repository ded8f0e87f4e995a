package testkit

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"labmerge/domain/core"

	"github.com/xuri/excelize/v2"
)

// SummaryRow is one key/value row of the generated Summary sheet
type SummaryRow struct {
	Name  string
	Value interface{}
}

// ExperimentGeneratorConfig configures a synthetic <ID>_FORMATTED.xlsx
type ExperimentGeneratorConfig struct {
	Start         time.Time     `json:"start"`
	PrimaryRows   int           `json:"primary_rows"`
	PrimaryStep   time.Duration `json:"primary_step"`
	SecondaryRows int           `json:"secondary_rows"` // 0 means PrimaryRows
	SecondaryStep time.Duration `json:"secondary_step"` // 0 means PrimaryStep
	BaseTemp      float64       `json:"base_temp"`
	Noise         float64       `json:"noise"` // uniform amplitude added to every reading
	// TempSkew offsets the statistics, LW and CW temperatures, in percent
	TempSkew [3]float64   `json:"temp_skew"`
	Summary  []SummaryRow `json:"summary"`
	// UncachedFormula appends a summary row whose value is a formula with no
	// cached result
	UncachedFormula bool  `json:"uncached_formula"`
	Seed            int64 `json:"seed"`
}

// DefaultExperimentConfig returns two minutes of 1 s data with agreeing
// temperatures
func DefaultExperimentConfig() ExperimentGeneratorConfig {
	return ExperimentGeneratorConfig{
		Start:       time.Date(2023, 5, 23, 9, 0, 0, 0, time.UTC),
		PrimaryRows: 120,
		PrimaryStep: time.Second,
		BaseTemp:    100,
		Summary: []SummaryRow{
			{Name: "Operator", Value: "HO"},
			{Name: "STARTING CONDITIONS"},
			{Name: "Mass (g)", Value: 250.0},
			{Name: "EXPERIMENTAL RESULTS"},
			{Name: "Yield (%)", Value: 81.5},
		},
		Seed: 42,
	}
}

// ExperimentGenerator writes synthetic experiment workbooks with the sheet
// layout of the instrument exports
type ExperimentGenerator struct {
	config ExperimentGeneratorConfig
	rng    *rand.Rand
}

// NewExperimentGenerator creates a new experiment generator
func NewExperimentGenerator(config ExperimentGeneratorConfig) *ExperimentGenerator {
	if config.SecondaryRows == 0 {
		config.SecondaryRows = config.PrimaryRows
	}
	if config.SecondaryStep == 0 {
		config.SecondaryStep = config.PrimaryStep
	}
	return &ExperimentGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// WriteExperiment writes <dir>/<id>_FORMATTED.xlsx and returns its path
func (g *ExperimentGenerator) WriteExperiment(dir string, id core.ExperimentID) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, id.InputFileName())
	return path, g.WriteWorkbook(path)
}

// WriteWorkbook writes the five sheets to path
func (g *ExperimentGenerator) WriteWorkbook(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return err
	}
	for _, name := range []string{"Temp and Conc", "Blaze Statistics", "Blaze LW Distribution", "Blaze CW Distribution"} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	writers := []func(*excelize.File) error{
		g.writeSummary,
		g.writePrimary,
		g.writeStatistics,
		func(f *excelize.File) error { return g.writeDistribution(f, "Blaze LW Distribution", g.config.TempSkew[1]) },
		func(f *excelize.File) error { return g.writeDistribution(f, "Blaze CW Distribution", g.config.TempSkew[2]) },
	}
	for _, write := range writers {
		if err := write(f); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func (g *ExperimentGenerator) writeSummary(f *excelize.File) error {
	for i, row := range g.config.Summary {
		if err := setRow(f, "Summary", i+1, row.Name, row.Value); err != nil {
			return err
		}
	}
	if g.config.UncachedFormula {
		r := len(g.config.Summary) + 1
		if err := setRow(f, "Summary", r, "Computed"); err != nil {
			return err
		}
		cell, _ := excelize.CoordinatesToCellName(2, r)
		if err := f.SetCellFormula("Summary", cell, "B3*2"); err != nil {
			return err
		}
	}
	return nil
}

// writePrimary writes a title row, the header and the readings. The eighth
// column lies outside the primary series.
func (g *ExperimentGenerator) writePrimary(f *excelize.File) error {
	sheet := "Temp and Conc"
	if err := setRow(f, sheet, 1, "Temperature and Concentration"); err != nil {
		return err
	}
	if err := setRow(f, sheet, 2, "Local Time", "Time (sec)", "Temp", "Conc", "Flow", "Pressure", "Humidity", "Operator Note"); err != nil {
		return err
	}
	for i := 0; i < g.config.PrimaryRows; i++ {
		elapsed := time.Duration(i) * g.config.PrimaryStep
		err := setRow(f, sheet, i+3,
			g.config.Start.Add(elapsed),
			elapsed.Seconds(),
			g.reading(g.config.BaseTemp, 0),
			g.reading(5, 0),
			g.reading(1.5, 0),
			g.reading(101.3, 0),
			g.reading(40, 0),
			"ok",
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// writeStatistics writes the six-row header block over E:P, a spacer row
// and the data with its header on row 8
func (g *ExperimentGenerator) writeStatistics(f *excelize.File) error {
	sheet := "Blaze Statistics"
	block := [][]interface{}{
		{"Mean", "Median", "Count"},
		{"Chord", "Chord", "Counts"},
		{"Length", "Length"},
		{"(um)", "(um)", "(#/s)"},
		{nil, nil, nil},
		{"No Wt", "No Wt", "1-1000"},
	}
	for r, cells := range block {
		cell, _ := excelize.CoordinatesToCellName(5, r+1)
		row := cells
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := setRow(f, sheet, 8, "Local Time", "Experimental time (sec)", "Temp", "Stirrer", "m1", "m2", "m3"); err != nil {
		return err
	}
	for i := 0; i < g.config.SecondaryRows; i++ {
		elapsed := time.Duration(i) * g.config.SecondaryStep
		err := setRow(f, sheet, i+9,
			g.config.Start.Add(elapsed),
			elapsed.Seconds(),
			g.reading(g.config.BaseTemp, g.config.TempSkew[0]),
			g.reading(300, 0),
			g.reading(45, 0),
			g.reading(38, 0),
			g.reading(1200, 0),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (g *ExperimentGenerator) writeDistribution(f *excelize.File, sheet string, skew float64) error {
	if err := setRow(f, sheet, 1, sheet); err != nil {
		return err
	}
	if err := setRow(f, sheet, 2, "Chord length bins (um)"); err != nil {
		return err
	}
	if err := setRow(f, sheet, 3, "Local\nTime", "Experimental time (sec)", "Temp", "1-5", "5-10", "10-20"); err != nil {
		return err
	}
	for i := 0; i < g.config.SecondaryRows; i++ {
		elapsed := time.Duration(i) * g.config.SecondaryStep
		err := setRow(f, sheet, i+4,
			g.config.Start.Add(elapsed),
			elapsed.Seconds(),
			g.reading(g.config.BaseTemp, skew),
			g.reading(10, 0),
			g.reading(20, 0),
			g.reading(15, 0),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// reading returns base shifted by skew percent plus noise
func (g *ExperimentGenerator) reading(base, skewPercent float64) float64 {
	v := base * (1 + skewPercent/100)
	if g.config.Noise > 0 {
		v += (g.rng.Float64()*2 - 1) * g.config.Noise
	}
	return v
}

func setRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	return nil
}
