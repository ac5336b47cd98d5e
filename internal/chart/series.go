// Package chart turns aggregated case data into chart-ready view models:
// bar, line and scatter series, histograms, box plots, legends, the
// choropleth overlay and the state-by-year matrix.
package chart

import (
	"sort"
	"strconv"

	"github.com/couchcryptid/disease-map-service/internal/domain"
)

// Series kinds.
const (
	KindBar     = "bar"
	KindLine    = "line"
	KindScatter = "scatter"
)

// Series is one labelled data series. Colors, when set, has one entry per value.
type Series struct {
	Kind         string    `json:"kind"`
	Label        string    `json:"label"`
	Labels       []string  `json:"labels"`
	Values       []float64 `json:"values"`
	Colors       []string  `json:"colors,omitempty"`
	SuggestedMax float64   `json:"suggestedMax,omitempty"`
	Ticks        []Tick    `json:"ticks,omitempty"`
}

// Point is an x/y pair for scatter plots.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StateBar builds the per-state bar series for one year, each bar colored by
// the scale over r.
func StateBar(values map[string]float64, year int, r domain.Range, s domain.Scale) Series {
	states := make([]string, 0, len(values))
	for st := range values {
		states = append(states, st)
	}
	sort.Strings(states)

	out := Series{
		Kind:   KindBar,
		Label:  "Cases (" + strconv.Itoa(year) + ")",
		Labels: states,
		Values: make([]float64, len(states)),
		Colors: make([]string, len(states)),
	}
	for i, st := range states {
		v := values[st]
		out.Values[i] = v
		out.Colors[i] = domain.Hex(s.ColorIn(v, true, r))
	}
	return out
}

// TrendLine builds the national total line in ascending year order.
func TrendLine(totals map[int]float64) Series {
	years := make([]int, 0, len(totals))
	for y := range totals {
		years = append(years, y)
	}
	sort.Ints(years)

	out := Series{Kind: KindLine, Label: "USA total", Labels: make([]string, len(years)), Values: make([]float64, len(years))}
	for i, y := range years {
		out.Labels[i] = strconv.Itoa(y)
		out.Values[i] = totals[y]
	}
	return out
}

// YearSeries renders one state's per-year values as a bar or line series with
// a padded axis maximum and k/M tick labels.
func YearSeries(kind, label string, series []domain.YearValue) Series {
	out := Series{Kind: kind, Label: label, Labels: make([]string, len(series)), Values: make([]float64, len(series))}
	peak := 0.0
	for i, yv := range series {
		out.Labels[i] = strconv.Itoa(yv.Year)
		out.Values[i] = yv.Cases
		if i == 0 || yv.Cases > peak {
			peak = yv.Cases
		}
	}
	if len(series) > 0 {
		out.SuggestedMax = RoundUpNice(peak * 1.08)
		out.Ticks = AxisTicks(out.SuggestedMax, 6)
	}
	return out
}

// Scatter returns one point per year.
func Scatter(series []domain.YearValue) []Point {
	out := make([]Point, len(series))
	for i, yv := range series {
		out[i] = Point{X: float64(yv.Year), Y: yv.Cases}
	}
	return out
}
