// File: cmd/new.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
	"github.com/xkilldash9x/stratagem-cli/internal/journal"
)

var newCmd = &cobra.Command{
	Use:   "new <scenario.yaml>",
	Short: "Create a scenario session from a scenario file.",
	Long: `Validates the scenario file (actors, inject pool, exclusive belief
sets), creates the journal, and writes the setup snapshot. Play it with
"stratagem resume <session-id>".`,
	Args: cobra.ExactArgs(1),
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

		fmt.Fprintf(cmd.OutOrStdout(), "Created session %s (%q, %d turns).\nJournal: %s\n",
			session.ID, session.Title, session.TotalTurns, jm.Path())
		return nil
	},
}

func loadScenarioSpec(path string) (schemas.ScenarioSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return schemas.ScenarioSpec{}, fmt.Errorf("failed to read scenario file: %w", err)
	}
	var spec schemas.ScenarioSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return schemas.ScenarioSpec{}, fmt.Errorf("failed to parse scenario file: %w", err)
	}
	return spec, nil
}

func init() {
	rootCmd.AddCommand(newCmd)
}
