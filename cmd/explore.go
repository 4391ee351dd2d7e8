// File: cmd/explore.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/stratagem-cli/internal/montecarlo"
)

var exploreRuns int

var exploreCmd = &cobra.Command{
	Use:   "explore <session-id>",
	Short: "Run Monte Carlo exploration of the next decision point.",
	Long: `Plays the upcoming decision across independent varied runs (actor
intensity, information state, random events, adjudication forks, macro
context) and clusters the outcomes. Runs are read-only: canonical
session state and the journal are never touched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		_, session, err := a.open(args[0])
		if err != nil {
			return err
		}

		dp, err := a.engine.PreviewDecisionPoint(session)
		if err != nil {
			return err
		}

		n := exploreRuns
		if n <= 0 {
			n = a.cfg.Explorer().DefaultRuns
		}
		explorer := montecarlo.New(a.cfg.Explorer(), a.oracle, a.logger)
		report, err := explorer.Explore(ctx, dp, n, session.Seed)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Explored %q at turn %d: %d/%d runs completed.\n\n",
			dp.Chosen.Label, dp.Turn, report.Completed, report.Requested)
		if report.Completed < report.Requested {
			fmt.Fprintf(out, "(%d run(s) failed and were excluded; shares below cover completed runs only.)\n\n",
				report.Requested-report.Completed)
		}
		for _, c := range report.Clusters {
			fmt.Fprintf(out, "%3d%%  %s\n      differs on: %s\n      e.g. %s\n",
				c.Frequency, c.Label, c.Differentiator, c.Representative)
		}
		fmt.Fprintf(out, "\nMost sensitive variable: %s\n%s\n\n%s\n",
			report.SensitiveVariable, report.InformationNote, report.Disclaimer)
		return nil
	},
}

func init() {
	exploreCmd.Flags().IntVarP(&exploreRuns, "runs", "n", 0, "number of exploration runs (default from config)")
	rootCmd.AddCommand(exploreCmd)
}
