// File: cmd/run.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/stratagem-cli/internal/journal"
)

var runTurns int

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Create a scenario and start playing it immediately.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		spec, err := loadScenarioSpec(args[0])
		if err != nil {
			return err
		}
		session, err := a.engine.Setup(ctx, spec)
		if err != nil {
			return err
		}
		jm, err := journal.Create(a.cfg.Journal(), *session, a.logger)
		if err != nil {
			return err
		}
		a.engine.AttachJournal(jm)
		if _, err := jm.WriteSnapshot(a.engine.Snapshot(session)); err != nil {
			return err
		}
		a.recordMeta(ctx, jm, session)

		fmt.Fprintf(cmd.OutOrStdout(), "Session %s — %s\n", session.ID, session.Title)
		return playLoop(ctx, a, jm, session, cmd.InOrStdin(), cmd.OutOrStdout(), runTurns)
	},
}

func init() {
	runCmd.Flags().IntVarP(&runTurns, "turns", "t", 0, "stop after this many turns (0 plays to the end)")
	rootCmd.AddCommand(runCmd)
}
