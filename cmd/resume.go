// File: cmd/resume.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resumeTurns int

var resumeCmd = &cobra.Command{
	Use:   "resume <session-id>",
	Short: "Reopen a session and continue playing from its latest snapshot.",
	Long: `Restores state from the newest parsable snapshot on the active branch.
Branches idle past the auto-prune threshold are retired on open; corrupt
snapshot blocks are skipped in favor of older ones.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		jm, session, err := a.open(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Resumed %s — %s at turn %d/%d on branch %s.\n",
			session.ID, session.Title, session.Turn, session.TotalTurns, session.ActiveBranch)
		return playLoop(ctx, a, jm, session, cmd.InOrStdin(), cmd.OutOrStdout(), resumeTurns)
	},
}

func init() {
	resumeCmd.Flags().IntVarP(&resumeTurns, "turns", "t", 0, "stop after this many turns (0 plays to the end)")
	rootCmd.AddCommand(resumeCmd)
}
