package chart

import (
	"math"

	"github.com/couchcryptid/disease-map-service/internal/domain"
	"github.com/dustin/go-humanize"
)

// LegendSteps is the number of intervals in the legend; it shows one more
// entry than that.
const LegendSteps = 5

// LegendEntry is one swatch of the color legend.
type LegendEntry struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
	Color string  `json:"color"`
}

// Legend returns LegendSteps+1 evenly spaced, rounded values across r with
// their colors. An invalid range has no legend.
func Legend(r domain.Range, s domain.Scale) []LegendEntry {
	if !r.Valid {
		return nil
	}
	out := make([]LegendEntry, 0, LegendSteps+1)
	for i := 0; i <= LegendSteps; i++ {
		v := math.Round(r.Min + float64(i)/LegendSteps*(r.Max-r.Min))
		out = append(out, LegendEntry{
			Value: v,
			Label: humanize.Commaf(v),
			Color: domain.Hex(s.ColorFor(v, true, r.Min, r.Max)),
		})
	}
	return out
}

// Colors maps every state in values to its fill color.
func Colors(values map[string]float64, r domain.Range, s domain.Scale) map[string]string {
	out := make(map[string]string, len(values))
	for st, v := range values {
		out[st] = domain.Hex(s.ColorIn(v, true, r))
	}
	return out
}

// Choropleth annotates every boundary feature with "fillColor" and "cases".
// Features whose name has no entry in values get the no-data color and a
// null cases property. The input collection is not modified.
func Choropleth(fc *domain.FeatureCollection, values map[string]float64, r domain.Range, s domain.Scale) *domain.FeatureCollection {
	if fc == nil {
		return nil
	}
	return fc.WithProperties(func(f domain.Feature) map[string]any {
		v, ok := values[f.Name()]
		if !ok {
			// Boundary files occasionally spell names differently.
			if canon := domain.CanonicalState(f.Name()); canon != f.Name() {
				v, ok = values[canon]
			}
		}
		props := map[string]any{"fillColor": domain.Hex(s.ColorIn(v, ok, r))}
		if ok {
			props["cases"] = v
		} else {
			props["cases"] = nil
		}
		return props
	})
}
