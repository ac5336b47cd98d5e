package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/couchcryptid/disease-map-service/internal/domain"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// yearSummary describes one year column of the pivot.
type yearSummary struct {
	Year   int      `json:"year" yaml:"year"`
	Total  float64  `json:"total" yaml:"total"`
	States int      `json:"states" yaml:"states"`
	Min    *float64 `json:"min" yaml:"min"`
	Max    *float64 `json:"max" yaml:"max"`
}

// fileSummary is the summary command's report.
type fileSummary struct {
	File      string         `json:"file" yaml:"file"`
	Columns   []string       `json:"columns" yaml:"columns"`
	Rows      int            `json:"rows" yaml:"rows"`
	Records   int            `json:"records" yaml:"records"`
	Skipped   int            `json:"skipped" yaml:"skipped"`
	SkippedBy map[string]int `json:"skipped_by,omitempty" yaml:"skipped_by,omitempty"`
	States    []string       `json:"states" yaml:"states"`
	Years     []yearSummary  `json:"years" yaml:"years"`
}

func summarize(l *loaded, onlyYear int) fileSummary {
	ds := l.dataset
	totals := ds.YearTotals()
	s := fileSummary{
		File:    l.name,
		Columns: l.table.Columns,
		Rows:    len(l.table.Rows),
		Records: len(l.normalized.Records),
		Skipped: l.normalized.Skipped,
		States:  ds.States,
	}
	if len(l.normalized.SkippedBy) > 0 {
		s.SkippedBy = l.normalized.SkippedBy
	}
	for _, y := range ds.Years {
		if onlyYear != 0 && y != onlyYear {
			continue
		}
		// Only states observed in y count toward the range here.
		var observed []float64
		for _, st := range ds.States {
			if v, ok := ds.Pivot.Value(st, y); ok {
				observed = append(observed, v)
			}
		}
		ys := yearSummary{Year: y, Total: totals[y], States: len(observed)}
		if r := domain.ValueRange(observed); r.Valid {
			ys.Min, ys.Max = &r.Min, &r.Max
		}
		s.Years = append(s.Years, ys)
	}
	return s
}

func newSummaryCmd(root *rootOptions) *cobra.Command {
	var (
		format string
		year   int
	)
	cmd := &cobra.Command{
		Use:   "summary <file>",
		Short: "Print years, national totals and value ranges of a case file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadFile(args[0], root.logger(cmd))
			if err != nil {
				return err
			}
			if year != 0 && !l.dataset.HasYear(year) {
				return fmt.Errorf("year %d not in %s (have %v)", year, l.name, l.dataset.Years)
			}
			s := summarize(l, year)

			out := cmd.OutOrStdout()
			switch format {
			case "text":
				return writeSummaryText(out, s)
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(s); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text|json|yaml")
	cmd.Flags().IntVar(&year, "year", 0, "restrict the per-year table to one year")
	return cmd
}

func writeSummaryText(w io.Writer, s fileSummary) error {
	fmt.Fprintf(w, "File:    %s\n", s.File)
	fmt.Fprintf(w, "Rows:    %s (%s aggregated, %s skipped)\n",
		humanize.Comma(int64(s.Rows)), humanize.Comma(int64(s.Records)), humanize.Comma(int64(s.Skipped)))
	for _, reason := range slices.Sorted(maps.Keys(s.SkippedBy)) {
		fmt.Fprintf(w, "  %-14s %d\n", reason, s.SkippedBy[reason])
	}
	fmt.Fprintf(w, "States:  %d\n", len(s.States))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-6s %14s %7s %14s %14s\n", "Year", "Total", "States", "Min", "Max")
	for _, y := range s.Years {
		lo, hi := "-", "-"
		if y.Min != nil {
			lo, hi = humanize.Commaf(*y.Min), humanize.Commaf(*y.Max)
		}
		fmt.Fprintf(w, "%-6d %14s %7d %14s %14s\n", y.Year, humanize.Commaf(y.Total), y.States, lo, hi)
	}
	_, err := fmt.Fprintln(w)
	return err
}
