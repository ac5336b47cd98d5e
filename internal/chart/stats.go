package chart

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/aclements/go-moremath/scale"
	"github.com/aclements/go-moremath/stats"
)

// OverviewBuckets is the fixed bucket count of the national histogram.
const OverviewBuckets = 7

// Histogram counts values into equal-width buckets.
type Histogram struct {
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
}

// NewHistogram spreads values over buckets equal-width bins between their
// minimum and maximum. The last bin is closed so the maximum lands in it. A
// zero-width spread uses a bin width of 1.
func NewHistogram(values []float64, buckets int) Histogram {
	if buckets < 1 {
		buckets = 1
	}
	h := Histogram{Labels: make([]string, buckets), Counts: make([]int, buckets)}
	if len(values) == 0 {
		return h
	}

	min, max := stats.Bounds(values)
	size := (max - min) / float64(buckets)
	if size == 0 {
		size = 1
	}
	for _, v := range values {
		idx := int(math.Floor((v - min) / size))
		if idx > buckets-1 {
			idx = buckets - 1
		}
		if idx < 0 {
			idx = 0
		}
		h.Counts[idx]++
	}
	for i := range h.Labels {
		lo := math.Round(min + float64(i)*size)
		hi := math.Round(min + float64(i+1)*size)
		h.Labels[i] = fmt.Sprintf("%s–%s", strconv.FormatFloat(lo, 'f', -1, 64), strconv.FormatFloat(hi, 'f', -1, 64))
	}
	return h
}

// StateBuckets picks the histogram bucket count for n per-year values:
// round(sqrt(n)) clamped to [3, 8].
func StateBuckets(n int) int {
	b := int(math.Round(math.Sqrt(float64(n))))
	return min(8, max(3, b))
}

// BoxPlot is a five-number summary plus the mean.
type BoxPlot struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
}

// NewBoxPlot summarizes values. Quartiles interpolate linearly between the
// closest ranks. It returns false for an empty slice.
func NewBoxPlot(values []float64) (BoxPlot, bool) {
	if len(values) == 0 {
		return BoxPlot{}, false
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return BoxPlot{
		Min:    sorted[0],
		Q1:     quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q3:     quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
		Mean:   stats.Mean(sorted),
	}, true
}

// quantile expects sorted input.
func quantile(sorted []float64, q float64) float64 {
	pos := float64(len(sorted)-1) * q
	base := int(math.Floor(pos))
	rest := pos - float64(base)
	if base+1 < len(sorted) {
		return sorted[base] + rest*(sorted[base+1]-sorted[base])
	}
	return sorted[base]
}

// RoundUpNice rounds n up to one significant digit: 1234 becomes 2000 and
// 87 becomes 90. Values up to 10 round up to the next integer.
func RoundUpNice(n float64) float64 {
	if n <= 10 {
		return math.Ceil(n)
	}
	p := math.Pow(10, math.Floor(math.Log10(n)))
	return math.Ceil(n/p) * p
}

// FormatTick abbreviates axis values: 1500 is "1.5k", 2000000 is "2M".
func FormatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e6:
		return trimZero(strconv.FormatFloat(v/1e6, 'f', 1, 64)) + "M"
	case abs >= 1e3:
		return trimZero(strconv.FormatFloat(v/1e3, 'f', 1, 64)) + "k"
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}

// Tick is one labelled axis mark.
type Tick struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// AxisTicks returns at most maxTicks round tick marks on [0, top].
func AxisTicks(top float64, maxTicks int) []Tick {
	if top <= 0 || math.IsNaN(top) || math.IsInf(top, 0) {
		return []Tick{{Value: 0, Label: "0"}}
	}
	ls := scale.Linear{Min: 0, Max: top}
	major, _ := ls.Ticks(scale.TickOptions{Max: maxTicks})
	out := make([]Tick, len(major))
	for i, v := range major {
		out[i] = Tick{Value: v, Label: FormatTick(v)}
	}
	return out
}
