// File: cmd/list.go
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [filter]",
	Short: "List known scenario sessions.",
	Long: `Lists sessions from the scenario index: the Postgres archive when
configured, otherwise the journal directory. The optional filter matches
title substrings or an exact status (active, completed, abandoned).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		idx, err := a.scenarioIndex(ctx)
		if err != nil {
			return err
		}

		filter := ""
		if len(args) == 1 {
			filter = args[0]
		}
		metas, err := idx.List(ctx, filter)
		if err != nil {
			return err
		}
		if len(metas) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tTIER\tSTATUS\tTURN")
		for _, m := range metas {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", m.ID, m.Title, m.Tier, m.Status, m.Turn)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
