package domain

import (
	"time"
)

// RawRow is one loosely typed source record keyed by column header. Values are
// strings for CSV and XLSX sources; JSON sources may also carry numbers, bools
// or nil.
type RawRow map[string]any

// RawTable is a parsed source file before normalization.
type RawTable struct {
	Columns []string // header order as it appeared in the source
	Rows    []RawRow
}

// CaseRecord is one normalized observation.
type CaseRecord struct {
	State string  `json:"state"`
	Year  int     `json:"year"`
	Cases float64 `json:"cases"`
}

// Selection identifies what the caller wants to look at. State is optional.
type Selection struct {
	Dataset string `json:"dataset"`
	Year    int    `json:"year"`
	State   string `json:"state,omitempty"`
}

// Summary is the compact description of a loaded dataset that is published
// after every successful load.
type Summary struct {
	Dataset    string          `json:"dataset"`
	Years      []int           `json:"years"`
	StateCount int             `json:"state_count"`
	YearTotals map[int]float64 `json:"year_totals"`
	Rows       int             `json:"rows"`
	Skipped    int             `json:"skipped"`
	LoadedAt   time.Time       `json:"loaded_at"`
}

// NewSummary builds a Summary for ds stamped with the package clock.
func NewSummary(datasetID string, ds *Dataset, rows int) Summary {
	return Summary{
		Dataset:    datasetID,
		Years:      ds.Years,
		StateCount: len(ds.States),
		YearTotals: ds.YearTotals(),
		Rows:       rows,
		Skipped:    ds.Skipped,
		LoadedAt:   clock.Now().UTC(),
	}
}
