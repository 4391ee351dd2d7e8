// File: cmd/status.go
package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show a session's current state without advancing it.",
	Args:  cobra.ExactArgs(1),
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
		snap := a.engine.Snapshot(session)
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "%s — %s\n", session.ID, session.Title)
		fmt.Fprintf(out, "Tier %s · %s · phase %s · turn %d of %d · branch %s\n\n",
			session.Tier, session.Status, session.Phase, session.Turn,
			session.TotalTurns, session.ActiveBranch)

		fmt.Fprintln(out, "Actors:")
		for _, actor := range snap.Actors {
			names := make([]string, 0, len(actor.Resources))
			for name := range actor.Resources {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprintf(out, "  %s (%s, %s)", actor.Name, actor.Archetype, actor.Risk.Attitude)
			for _, name := range names {
				fmt.Fprintf(out, "  %s=%.0f", name, actor.Resources[name].Value)
			}
			fmt.Fprintln(out)
		}

		if len(snap.InjectHistory) > 0 {
			fmt.Fprintln(out, "\nDeployed injects:")
			for _, inj := range snap.InjectHistory {
				fmt.Fprintf(out, "  turn %d: %s (%s)\n", inj.DeployedTurn, inj.Title, inj.Polarity)
			}
		}

		fmt.Fprintln(out, "\nBranches:")
		for _, b := range jm.ListBranches() {
			marker := " "
			if b.ID == jm.ActiveBranch() {
				marker = "*"
			}
			fmt.Fprintf(out, " %s %s  forked@%d  turn %d  %s\n",
				marker, b.ID, b.ForkTurn, b.CurrentTurn, b.Status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
