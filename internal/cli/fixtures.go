package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/disease-map-service/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

// fixtureTime stamps LoadedAt in generated summaries so fixtures are
// reproducible.
var fixtureTime = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func newFixturesCmd(root *rootOptions) *cobra.Command {
	var rawOut, summaryOut string
	cmd := &cobra.Command{
		Use:   "fixtures <file>",
		Short: "Generate JSON test fixtures from a case file",
		Long: `Convert a case file into fixtures for the service test suites:

  --raw-out      the source rows as a JSON array of objects, keys in column
                 order, readable by the JSON decoder
  --summary-out  the dataset summary exactly as it is published after a load,
                 stamped with a fixed time`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rawOut == "" && summaryOut == "" {
				return fmt.Errorf("nothing to do: set --raw-out and/or --summary-out")
			}
			l, err := loadFile(args[0], root.logger(cmd))
			if err != nil {
				return err
			}

			if rawOut != "" {
				data, err := encodeRows(l.table)
				if err != nil {
					return err
				}
				if err := os.WriteFile(rawOut, data, 0o644); err != nil { //nolint:gosec // fixtures are not secret
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d rows\n", rawOut, len(l.table.Rows))
			}

			if summaryOut != "" {
				domain.SetClock(clockwork.NewFakeClockAt(fixtureTime))
				defer domain.SetClock(nil)

				s := domain.NewSummary(l.name, l.dataset, len(l.table.Rows))
				data, err := json.MarshalIndent(s, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal summary: %w", err)
				}
				if err := os.WriteFile(summaryOut, append(data, '\n'), 0o644); err != nil { //nolint:gosec // fixtures are not secret
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d states, %d years\n", summaryOut, s.StateCount, len(s.Years))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rawOut, "raw-out", "", "output path for the raw rows JSON fixture")
	cmd.Flags().StringVar(&summaryOut, "summary-out", "", "output path for the summary JSON fixture")
	return cmd
}

// encodeRows writes rows as JSON objects with keys in column order. Cells a
// row does not have are left out.
func encodeRows(t *domain.RawTable) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("[\n")
	for i, row := range t.Rows {
		buf.WriteString("  {")
		first := true
		for _, col := range t.Columns {
			v, ok := row[col]
			if !ok {
				continue
			}
			key, err := json.Marshal(col)
			if err != nil {
				return nil, err
			}
			val, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i+1, col, err)
			}
			if !first {
				buf.WriteString(", ")
			}
			first = false
			buf.Write(key)
			buf.WriteString(": ")
			buf.Write(val)
		}
		buf.WriteString("}")
		if i < len(t.Rows)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("]\n")
	return buf.Bytes(), nil
}
