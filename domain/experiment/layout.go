// Package experiment describes the fixed workbook layout of one experiment
// family and which experiments a batch covers.
package experiment

// Sheet names inside <ID>_FORMATTED.xlsx
const (
	SummarySheet    = "Summary"
	PrimarySheet    = "Temp and Conc"
	StatisticsSheet = "Blaze Statistics"
	LWSheet         = "Blaze LW Distribution"
	CWSheet         = "Blaze CW Distribution"
)

// Column names the pipeline relies on
const (
	ElapsedColumn   = "Time (sec)"              // primary timeline, seconds
	SecondaryKey    = "Experimental time (sec)" // timeline of every secondary sheet
	LocalTimeColumn = "Local Time"
	// the distribution sheets wrap their timestamp header over two lines
	DistributionTimeColumn = "Local\nTime"
)

// SeriesKind identifies one of the four time series of an experiment
type SeriesKind string

const (
	SeriesPrimary    SeriesKind = "primary"
	SeriesStatistics SeriesKind = "statistics"
	SeriesLW         SeriesKind = "lw_distribution"
	SeriesCW         SeriesKind = "cw_distribution"
)

// SeriesLayout locates one series inside the workbook
type SeriesLayout struct {
	Kind  SeriesKind
	Sheet string
	// SkipRows is the number of rows above the header row
	SkipRows int
	// KeepColumns limits the series to its first n columns; zero keeps all
	KeepColumns int
	// IndexColumn is the timestamp column used for 1 s resampling; empty for
	// the primary series, which is not resampled
	IndexColumn string
	// Suffix disambiguates colliding column names when joined onto the
	// primary series
	Suffix string
	// HeaderBlock, when set, synthesizes column titles from a block of rows
	HeaderBlock *HeaderBlock
}

// HeaderBlock is a multi-row header whose cells are joined per column into
// one title
type HeaderBlock struct {
	FirstCol, LastCol string
	Rows              int
	// ReplaceFrom is the zero-based column position whose title is replaced
	// by the first synthesized title
	ReplaceFrom int
}

// Primary is the instrument series that defines the canonical timeline
var Primary = SeriesLayout{
	Kind:        SeriesPrimary,
	Sheet:       PrimarySheet,
	SkipRows:    1,
	KeepColumns: 7,
}

// Secondaries are joined onto the primary series in this order
var Secondaries = []SeriesLayout{
	{
		Kind:        SeriesStatistics,
		Sheet:       StatisticsSheet,
		SkipRows:    7,
		IndexColumn: LocalTimeColumn,
		Suffix:      "_Blaze_Stats",
		HeaderBlock: &HeaderBlock{FirstCol: "E", LastCol: "P", Rows: 6, ReplaceFrom: 4},
	},
	{
		Kind:        SeriesLW,
		Sheet:       LWSheet,
		SkipRows:    2,
		IndexColumn: DistributionTimeColumn,
		Suffix:      "_Blaze_LW_Dist",
	},
	{
		Kind:        SeriesCW,
		Sheet:       CWSheet,
		SkipRows:    2,
		IndexColumn: DistributionTimeColumn,
		Suffix:      "_Blaze_CW_Dist",
	},
}

// Layout returns the layout of a series kind
func Layout(kind SeriesKind) (SeriesLayout, bool) {
	if kind == SeriesPrimary {
		return Primary, true
	}
	for _, l := range Secondaries {
		if l.Kind == kind {
			return l, true
		}
	}
	return SeriesLayout{}, false
}
