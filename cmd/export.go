// File: cmd/export.go
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/stratagem-cli/internal/export"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <session-id> <json|csv|html|slides>",
	Short: "Export a session's record in the named format.",
	Long: `json is the full machine-readable report, csv a per-actor turn
ledger, html an after-action report, and slides a print-ready debrief
deck. Writes to stdout unless -o is given.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		format, err := export.ParseFormat(args[1])
		if err != nil {
			return err
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		jm, _, err := a.open(args[0])
		if err != nil {
			return err
		}

		report, err := export.BuildReport(jm)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			w = f
		}

		if err := export.New(a.logger).Write(w, format, report); err != nil {
			return err
		}
		if exportOutput != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s export to %s\n", format, exportOutput)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
