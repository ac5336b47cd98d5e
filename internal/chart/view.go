package chart

import (
	"fmt"

	"github.com/couchcryptid/disease-map-service/internal/domain"
	"github.com/dustin/go-humanize"
)

// Options are the presentation choices shared by all views.
type Options struct {
	Scale    domain.Scale
	Renderer MatrixRenderer
}

// Overview is the national dashboard for one dataset and year.
type Overview struct {
	Dataset   domain.DatasetInfo `json:"dataset"`
	Year      int                `json:"year"`
	Info      string             `json:"info"`
	Total     float64            `json:"total"`
	TotalText string             `json:"totalText"`
	Values    map[string]float64 `json:"values"`
	Colors    map[string]string  `json:"colors"`
	Range     domain.Range       `json:"range"`
	Bar       Series             `json:"bar"`
	Trend     Series             `json:"trend"`
	Histogram Histogram          `json:"histogram"`
	Matrix    Matrix             `json:"matrix"`
	Legend    []LegendEntry      `json:"legend"`
	Skipped   int                `json:"skipped"`

	disposed bool
}

// Dispose marks the view as detached.
func (o *Overview) Dispose() { o.disposed = true }

// Disposed reports whether the view has been replaced.
func (o *Overview) Disposed() bool { return o.disposed }

// BuildOverview computes every national chart for year. States without an
// observation in year count as zero.
func BuildOverview(info domain.DatasetInfo, ds *domain.Dataset, year int, opts Options) (*Overview, error) {
	values := ds.StateValuesForYear(year)
	sorted := domain.SortedValues(values)
	r := domain.ValueRange(sorted)
	total := ds.Total(year)

	matrix, err := opts.Renderer.Render(ds, r, opts.Scale)
	if err != nil {
		return nil, err
	}

	return &Overview{
		Dataset:   info,
		Year:      year,
		Info:      fmt.Sprintf("Dataset: %s · Year: %d", info.ID, year),
		Total:     total,
		TotalText: fmt.Sprintf("Total USA Cases (%d): %s", year, humanize.Commaf(total)),
		Values:    values,
		Colors:    Colors(values, r, opts.Scale),
		Range:     r,
		Bar:       StateBar(values, year, r, opts.Scale),
		Trend:     TrendLine(ds.YearTotals()),
		Histogram: NewHistogram(sorted, OverviewBuckets),
		Matrix:    matrix,
		Legend:    Legend(r, opts.Scale),
		Skipped:   ds.Skipped,
	}, nil
}

// StateDetail is the drill-down view for one state across all years.
type StateDetail struct {
	Dataset    domain.DatasetInfo `json:"dataset"`
	Query      string             `json:"query"`
	State      string             `json:"state,omitempty"`
	Found      bool               `json:"found"`
	Columns    []string           `json:"columns"`
	Rows       [][]string         `json:"rows"`
	Series     []domain.YearValue `json:"series"`
	Line       Series             `json:"line"`
	Bar        Series             `json:"bar"`
	Scatter    []Point            `json:"scatter"`
	Histogram  Histogram          `json:"histogram"`
	Box        *BoxPlot           `json:"box,omitempty"`
	Latest     *domain.YearValue  `json:"latest,omitempty"`
	LatestText string             `json:"latestText,omitempty"`

	disposed bool
}

// Dispose marks the view as detached.
func (d *StateDetail) Dispose() { d.disposed = true }

// Disposed reports whether the view has been replaced.
func (d *StateDetail) Disposed() bool { return d.disposed }

// BuildStateDetail resolves query against the dataset and builds the state
// charts. An unresolvable query is not an error: the detail has Found false
// and empty charts.
func BuildStateDetail(info domain.DatasetInfo, table *domain.RawTable, ds *domain.Dataset, query string) *StateDetail {
	d := &StateDetail{Dataset: info, Query: query, Columns: []string{}, Rows: [][]string{}, Series: []domain.YearValue{}, Scatter: []Point{}}

	state, ok := ds.LookupState(query)
	if !ok {
		return d
	}
	d.State = state
	d.Found = true

	if table != nil {
		d.Columns = table.Columns
		for _, row := range table.Rows {
			if domain.RowState(row) != state {
				continue
			}
			cells := make([]string, len(table.Columns))
			for i, c := range table.Columns {
				cells[i] = domain.CellText(row[c])
			}
			d.Rows = append(d.Rows, cells)
		}
	}

	d.Series = ds.Series(state)
	d.Line = YearSeries(KindLine, "Cases", d.Series)
	d.Bar = YearSeries(KindBar, "Yearly Cases", d.Series)
	d.Scatter = Scatter(d.Series)

	cases := make([]float64, len(d.Series))
	for i, yv := range d.Series {
		cases[i] = yv.Cases
	}
	d.Histogram = NewHistogram(cases, StateBuckets(len(cases)))
	if box, ok := NewBoxPlot(cases); ok {
		d.Box = &box
	}
	if n := len(d.Series); n > 0 {
		latest := d.Series[n-1]
		d.Latest = &latest
		d.LatestText = fmt.Sprintf("Latest (%d): %s cases", latest.Year, humanize.Commaf(latest.Cases))
	}
	return d
}
