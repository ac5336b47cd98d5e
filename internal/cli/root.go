// Package cli contains the casepivot commands: offline export, summary and
// validation of case files without running the dashboard service.
package cli

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/couchcryptid/disease-map-service/internal/adapter/sheet"
	"github.com/couchcryptid/disease-map-service/internal/domain"
	"github.com/couchcryptid/disease-map-service/internal/observability"
	"github.com/spf13/cobra"
)

// Version is the casepivot release.
var Version = "0.1.0"

type rootOptions struct {
	logLevel  string
	logFormat string
}

// NewRootCmd builds the casepivot command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "casepivot",
		Short: "Pivot disease case files into state-by-year tables",
		Long: `casepivot reads a case file (XLSX, CSV or JSON with State, Year and Cases
columns), normalizes state names and sums cases per state and year.

Examples:
  casepivot export HIV_data.xlsx -o heatmap_export.csv
  casepivot summary TB_data.csv --format yaml
  casepivot validate Malaria_data.json --strict
  casepivot fixtures TB_data.xlsx --raw-out tb_rows.json --summary-out tb_summary.json`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format: text|json")

	root.AddCommand(
		newExportCmd(opts),
		newSummaryCmd(opts),
		newValidateCmd(opts),
		newFixturesCmd(opts),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	return observability.NewLoggerTo(cmd.ErrOrStderr(), o.logLevel, o.logFormat)
}

// loaded is one case file after decoding, normalization and aggregation.
type loaded struct {
	name       string
	table      *domain.RawTable
	normalized domain.NormalizeResult
	dataset    *domain.Dataset
}

func loadFile(path string, logger *slog.Logger) (*loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	table, err := sheet.Parse(name, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	res := domain.Normalize(table.Rows)
	for _, reason := range slices.Sorted(maps.Keys(res.SkippedBy)) {
		logger.Info("rows skipped", "file", name, "reason", reason, "count", res.SkippedBy[reason])
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrEmptyDataset)
	}
	logger.Debug("file loaded", "file", name, "rows", len(table.Rows), "records", len(res.Records))
	return &loaded{
		name:       name,
		table:      table,
		normalized: res,
		dataset:    domain.NewDataset(res),
	}, nil
}
