package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/disease-map-service/internal/domain"
	"github.com/spf13/cobra"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the state-by-year pivot of a case file as CSV",
		Long: `Write the pivot as a quoted CSV grid: a "State" header followed by one
column per year, one row per state. Missing cells are written as 0.

Output goes to stdout unless --output is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadFile(args[0], root.logger(cmd))
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := domain.WritePivotCSV(w, l.dataset); err != nil {
				return fmt.Errorf("write pivot: %w", err)
			}
			if output != "" && output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d states x %d years to %s\n",
					len(l.dataset.States), len(l.dataset.Years), output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file (default stdout)")
	return cmd
}
