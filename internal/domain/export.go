package domain

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// WritePivotCSV writes the pivot as a state-by-year grid: a header row
// "State,<year>..." followed by one row per state. Missing cells are written as
// 0. Every cell is double-quoted and embedded quotes are doubled.
func WritePivotCSV(w io.Writer, ds *Dataset) error {
	bw := bufio.NewWriter(w)

	header := make([]string, 0, len(ds.Years)+1)
	header = append(header, ColumnState)
	for _, y := range ds.Years {
		header = append(header, strconv.Itoa(y))
	}
	if err := writeQuotedRow(bw, header); err != nil {
		return err
	}

	for _, s := range ds.States {
		row := make([]string, 0, len(ds.Years)+1)
		row = append(row, s)
		for _, y := range ds.Years {
			v, _ := ds.Pivot.Value(s, y)
			row = append(row, FormatNumber(v))
		}
		if err := writeQuotedRow(bw, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FormatNumber renders v without exponent or trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// QuoteCSV wraps s in double quotes, doubling any quote inside.
func QuoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func writeQuotedRow(w *bufio.Writer, cells []string) error {
	for i, c := range cells {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(QuoteCSV(c)); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}
