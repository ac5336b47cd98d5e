package cli

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"

	"github.com/couchcryptid/disease-map-service/internal/domain"
	"github.com/spf13/cobra"
)

// errValidationFailed is returned when any check reports an error.
var errValidationFailed = errors.New("validation failed")

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func newValidateCmd(root *rootOptions) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check the aggregation invariants of a case file",
		Long: `Check that every input row is either aggregated or reported as skipped,
that the pivot sums to the per-year totals of the normalized records, and that
state names resolve to known US states.

Unrecognized state names are notes by default and errors with --strict.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadFile(args[0], root.logger(cmd))
			if err != nil {
				return err
			}
			phases := []*phase{
				checkRowAccounting(l),
				checkSummation(l.dataset),
				checkStateNames(l.dataset, strict),
			}
			if !report(cmd.OutOrStdout(), l, phases) {
				return errValidationFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat unrecognized state names as errors")
	return cmd
}

// checkRowAccounting verifies that no row disappears silently.
func checkRowAccounting(l *loaded) *phase {
	p := &phase{name: "Row accounting"}
	rows := len(l.table.Rows)
	got := len(l.normalized.Records) + l.normalized.Skipped
	if got != rows {
		p.errorf("%d rows read but %d aggregated + %d skipped", rows, len(l.normalized.Records), l.normalized.Skipped)
	}
	sum := 0
	for _, reason := range slices.Sorted(maps.Keys(l.normalized.SkippedBy)) {
		n := l.normalized.SkippedBy[reason]
		sum += n
		p.notef("%d row(s) skipped: %s", n, reason)
	}
	if sum != l.normalized.Skipped {
		p.errorf("skip reasons add up to %d, want %d", sum, l.normalized.Skipped)
	}
	return p
}

// checkSummation verifies that each pivot column sums to the records total
// for that year.
func checkSummation(ds *domain.Dataset) *phase {
	p := &phase{name: "Summation invariant"}
	totals := ds.YearTotals()
	for _, y := range ds.Years {
		var pivotSum float64
		for _, st := range ds.States {
			v, _ := ds.Pivot.Value(st, y)
			pivotSum += v
		}
		if !nearlyEqual(pivotSum, totals[y]) {
			p.errorf("year %d: pivot sums to %s, records total %s", y, domain.FormatNumber(pivotSum), domain.FormatNumber(totals[y]))
		}
	}
	for y := range totals {
		if !ds.HasYear(y) {
			p.errorf("year %d has records but no pivot column", y)
		}
	}
	return p
}

// checkStateNames lists pivot states outside the canonical state list.
func checkStateNames(ds *domain.Dataset, strict bool) *phase {
	p := &phase{name: "State names"}
	for _, st := range ds.States {
		if domain.IsKnownState(st) {
			continue
		}
		if strict {
			p.errorf("unrecognized state %q", st)
		} else {
			p.notef("unrecognized state %q", st)
		}
	}
	return p
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func report(w io.Writer, l *loaded, phases []*phase) bool {
	fmt.Fprintf(w, "=== Case Data Validation: %s ===\n\n", l.name)

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-24s %s\n", p.name, status)
	}

	fmt.Fprintf(w, "\nRecords: %d rows, %d aggregated, %d skipped, %d states, %d years\n",
		len(l.table.Rows), len(l.normalized.Records), l.normalized.Skipped,
		len(l.dataset.States), len(l.dataset.Years))

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.notes) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
		for _, n := range p.notes {
			fmt.Fprintf(w, "  Note: %s\n", n)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
	} else {
		fmt.Fprintln(w, "\nValidation FAILED.")
	}
	return allPassed
}
