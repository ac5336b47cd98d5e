package domain

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Source column headers.
const (
	ColumnState = "State"
	ColumnYear  = "Year"
	ColumnCases = "Cases"
)

// Reasons a row is left out of aggregation.
const (
	SkipMissingState = "missing_state"
	SkipInvalidYear  = "invalid_year"
)

// NormalizeResult holds the canonical records and the diagnostics for rows
// that could not be aggregated.
type NormalizeResult struct {
	Records   []CaseRecord
	Skipped   int
	SkippedBy map[string]int
}

// Normalize converts raw rows into CaseRecords. It never fails: rows without a
// state or a valid year are counted and skipped.
func Normalize(rows []RawRow) NormalizeResult {
	res := NormalizeResult{
		Records:   make([]CaseRecord, 0, len(rows)),
		SkippedBy: make(map[string]int),
	}
	for _, row := range rows {
		rec, reason := NormalizeRow(row)
		if reason != "" {
			res.Skipped++
			res.SkippedBy[reason]++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// NormalizeRow converts a single row. The second return value is empty on
// success, otherwise it names the skip reason.
func NormalizeRow(row RawRow) (CaseRecord, string) {
	stateVal, _ := lookupField(row, ColumnState)
	state := CanonicalState(toText(stateVal))
	if state == "" {
		return CaseRecord{}, SkipMissingState
	}

	yearVal, _ := lookupField(row, ColumnYear)
	year, ok := parseYear(yearVal)
	if !ok {
		return CaseRecord{}, SkipInvalidYear
	}

	casesVal, _ := lookupField(row, ColumnCases)
	return CaseRecord{State: state, Year: year, Cases: parseCases(casesVal)}, ""
}

// lookupField returns the value under key, falling back to a case-insensitive
// header match. When several headers match, the lexicographically smallest
// wins so the result does not depend on map order.
func lookupField(row RawRow, key string) (any, bool) {
	if v, ok := row[key]; ok {
		return v, true
	}
	var matches []string
	for k := range row {
		if strings.EqualFold(strings.TrimSpace(k), key) {
			matches = append(matches, k)
		}
	}
	if len(matches) == 0 {
		return nil, false
	}
	sort.Strings(matches)
	return row[matches[0]], true
}

// toText renders a loosely typed cell as a string.
func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// toNumber coerces a cell to float64. Thousands separators are accepted.
func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case float32:
		return toNumber(float64(t))
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number, string:
		s := strings.TrimSpace(toText(t))
		s = strings.ReplaceAll(s, ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// parseYear accepts positive integral values only ("2019", 2019, "2019.0").
func parseYear(v any) (int, bool) {
	f, ok := toNumber(v)
	if !ok || f <= 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// parseCases returns 0 for missing or non-numeric values. Negative values pass
// through unchanged.
func parseCases(v any) float64 {
	f, ok := toNumber(v)
	if !ok {
		return 0
	}
	return f
}

// RowState returns the canonical state of a raw row, or "" when it has none.
func RowState(row RawRow) string {
	v, _ := lookupField(row, ColumnState)
	return CanonicalState(toText(v))
}

// CellText renders a raw cell for display.
func CellText(v any) string {
	return toText(v)
}
