package domain

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/aclements/go-moremath/stats"
)

// PivotTable maps canonical state name to year to summed cases. Pairs never
// observed in the input are absent, not zero.
type PivotTable map[string]map[int]float64

// Value returns the summed cases for (state, year) and whether the pair was
// observed.
func (p PivotTable) Value(state string, year int) (float64, bool) {
	years, ok := p[state]
	if !ok {
		return 0, false
	}
	v, ok := years[year]
	return v, ok
}

// YearValue is one point of a per-year series.
type YearValue struct {
	Year  int     `json:"year"`
	Cases float64 `json:"cases"`
}

// Dataset is the aggregated form of one loaded source. It is built fresh on
// every load and never mutated afterwards.
type Dataset struct {
	Years   []int      `json:"years"`
	States  []string   `json:"states"`
	Pivot   PivotTable `json:"pivot"`
	Skipped int        `json:"skipped"`

	records []CaseRecord
}

// NewDataset aggregates a normalization result and keeps its skip count.
func NewDataset(res NormalizeResult) *Dataset {
	ds := Aggregate(res.Records)
	ds.Skipped = res.Skipped
	return ds
}

// Aggregate builds the pivot, the sorted year set and the sorted state set in
// a single pass over records.
func Aggregate(records []CaseRecord) *Dataset {
	pivot := make(PivotTable)
	yearSet := make(map[int]struct{})

	for _, r := range records {
		years, ok := pivot[r.State]
		if !ok {
			years = make(map[int]float64)
			pivot[r.State] = years
		}
		years[r.Year] += r.Cases
		yearSet[r.Year] = struct{}{}
	}

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)

	states := make([]string, 0, len(pivot))
	for s := range pivot {
		states = append(states, s)
	}
	sort.Strings(states)

	return &Dataset{
		Years:   years,
		States:  states,
		Pivot:   pivot,
		records: records,
	}
}

// StateValuesForYear returns an entry for every known state, zero when the
// state has no observation in year.
func (d *Dataset) StateValuesForYear(year int) map[string]float64 {
	out := make(map[string]float64, len(d.States))
	for _, s := range d.States {
		v, _ := d.Pivot.Value(s, year)
		out[s] = v
	}
	return out
}

// YearTotals sums cases per year straight from the records rather than from
// the pivot. The two must agree; tests check it.
func (d *Dataset) YearTotals() map[int]float64 {
	totals := make(map[int]float64, len(d.Years))
	for _, r := range d.records {
		totals[r.Year] += r.Cases
	}
	return totals
}

// Total returns the national total for year.
func (d *Dataset) Total(year int) float64 {
	return d.YearTotals()[year]
}

// HasYear reports whether any record falls in year.
func (d *Dataset) HasYear(year int) bool {
	i := sort.SearchInts(d.Years, year)
	return i < len(d.Years) && d.Years[i] == year
}

// LatestYear returns the most recent year, or 0 for an empty dataset.
func (d *Dataset) LatestYear() int {
	if len(d.Years) == 0 {
		return 0
	}
	return d.Years[len(d.Years)-1]
}

// Series returns the per-year sums for state in ascending year order. Unknown
// states yield an empty series.
func (d *Dataset) Series(state string) []YearValue {
	years := d.Pivot[state]
	out := make([]YearValue, 0, len(years))
	for y, v := range years {
		out = append(out, YearValue{Year: y, Cases: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// LookupState resolves a user-supplied name to a state present in the
// dataset: alias table first, then a case-insensitive match, then the first
// state containing name as a substring.
func (d *Dataset) LookupState(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	canonical := CanonicalState(name)
	if _, ok := d.Pivot[canonical]; ok {
		return canonical, true
	}
	for _, s := range d.States {
		if strings.EqualFold(s, name) {
			return s, true
		}
	}
	needle := strings.ToLower(name)
	for _, s := range d.States {
		if strings.Contains(strings.ToLower(s), needle) {
			return s, true
		}
	}
	return "", false
}

// Range is the minimum and maximum over a slice of values. A Range built from
// no finite values is invalid: Min and Max are NaN and it encodes as nulls.
type Range struct {
	Min   float64
	Max   float64
	Valid bool
}

// NoRange is the sentinel for an empty slice.
var NoRange = Range{Min: math.NaN(), Max: math.NaN()}

// ValueRange returns the bounds of values, ignoring NaN and infinities.
func ValueRange(values []float64) Range {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return NoRange
	}
	lo, hi := stats.Bounds(finite)
	return Range{Min: lo, Max: hi, Valid: true}
}

// MarshalJSON writes {"min":null,"max":null} for an invalid range.
func (r Range) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte(`{"min":null,"max":null}`), nil
	}
	return json.Marshal(struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	}{r.Min, r.Max})
}

// SortedValues returns the values of m ordered by key.
func SortedValues(m map[string]float64) []float64 {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}
