// File: cmd/branches.go
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
)

var branchesCmd = &cobra.Command{
	Use:   "branches <session-id> [switch|prune] [branch-id]",
	Short: "List, switch, or prune a session's timeline branches.",
	Long: `Without a subaction, lists every branch with its fork point and
status. "switch" makes a branch active; "prune" retires one (its history
stays in the journal). At most ` + fmt.Sprint(schemas.MaxActiveBranches) + ` branches may be active at once.`,
	Args: cobra.RangeArgs(1, 3),
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
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "BRANCH\tFORKED AT\tCURRENT TURN\tSTATUS\tACTIVE")
			for _, b := range jm.ListBranches() {
				active := ""
				if b.ID == jm.ActiveBranch() {
					active = "*"
				}
				fmt.Fprintf(w, "%s\tturn %d\t%d\t%s\t%s\n",
					b.ID, b.ForkTurn, b.CurrentTurn, b.Status, active)
			}
			return w.Flush()
		}

		if len(args) < 3 {
			return fmt.Errorf("%s needs a branch id", args[1])
		}
		action, branchID := args[1], args[2]
		switch action {
		case "switch":
			snap, err := jm.SwitchBranch(branchID)
			if err != nil {
				return err
			}
			session.ActiveBranch = branchID
			a.engine.RestoreFrom(snap, session)
			if err := jm.Checkpoint(); err != nil {
				return err
			}
			a.recordMeta(ctx, jm, session)
			fmt.Fprintf(out, "Switched to branch %s at turn %d.\n", branchID, snap.Turn)
			return nil
		case "prune":
			if err := jm.PruneBranch(branchID); err != nil {
				return err
			}
			if err := jm.Checkpoint(); err != nil {
				return err
			}
			fmt.Fprintf(out, "Pruned branch %s. Its history remains in the journal.\n", branchID)
			return nil
		default:
			return fmt.Errorf("unknown branch action %q (want switch or prune)", action)
		}
	},
}

func init() {
	rootCmd.AddCommand(branchesCmd)
}
