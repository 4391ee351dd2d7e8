// File: cmd/rewind.go
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var rewindCmd = &cobra.Command{
	Use:   "rewind <session-id> [n]",
	Short: "Fork a new branch n turns back (default 1).",
	Long: `Rewinding never rewrites history: it forks a fresh branch from the
nearest snapshot at or below the target turn and makes it active. The
original timeline stays byte-identical in the journal. At the active
branch ceiling the rewind is rejected; prune a branch first.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		n := 1
		if len(args) == 2 {
			var err error
			if n, err = strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("rewind distance must be a number, got %q", args[1])
			}
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		jm, session, err := a.open(args[0])
		if err != nil {
			return err
		}

		requested := session.Turn - n
		branch, snap, err := jm.Rewind(n)
		if err != nil {
			return err
		}

		session.Turn = snap.Turn
		session.ActiveBranch = branch.ID
		a.engine.RestoreFrom(snap, session)
		a.recordMeta(ctx, jm, session)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Forked branch %s at turn %d.\n", branch.ID, branch.ForkTurn)
		if snap.Turn != requested {
			fmt.Fprintf(out, "No snapshot at turn %d; adjusted to the nearest earlier turn %d.\n",
				requested, snap.Turn)
		}
		fmt.Fprintf(out, "Continue with: stratagem resume %s\n", session.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rewindCmd)
}
