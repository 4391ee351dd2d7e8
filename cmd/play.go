// File: cmd/play.go
// Description: The interactive decision loop shared by `run` and `resume`.
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
	"github.com/xkilldash9x/stratagem-cli/internal/journal"
)

// playLoop drives turns until the scenario is over, the turn budget is
// spent, or the player quits. Quitting between turns loses nothing: only
// completed turns are persisted.
func playLoop(ctx context.Context, a *app, jm *journal.Manager, session *schemas.ScenarioSession, in io.Reader, out io.Writer, maxTurns int) error {
	player, err := a.engine.PlayerActor()
	if err != nil {
		return err
	}
	reader := bufio.NewScanner(in)
	played := 0

	for session.Phase != schemas.PhaseTerminal {
		if maxTurns > 0 && played >= maxTurns {
			break
		}

		turn, err := a.engine.BeginTurn(ctx, session)
		if err != nil {
			if session.Phase == schemas.PhaseTerminal {
				break
			}
			return err
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, turn.Brief)
		printOptions(out, turn.Options)

		decision, quit, err := readDecision(reader, out, player.ID, turn.Options)
		if err != nil {
			return err
		}
		if quit {
			fmt.Fprintln(out, "Stopping; the incomplete turn was not persisted.")
			return nil
		}

		result, err := a.engine.CompleteTurn(ctx, session, turn, decision)
		if err != nil {
			return err
		}
		printResult(out, result.Record, result.Outcome)
		if result.DeployedInject != nil {
			inj := result.DeployedInject
			fmt.Fprintf(out, "\n!! INJECT: %s\n   %s\n   Dilemma: %s / %s\n",
				inj.Title, inj.Description, inj.Dilemma.A, inj.Dilemma.B)
		}
		a.recordMeta(ctx, jm, session)
		played++

		if result.Terminal {
			fmt.Fprintf(out, "\nScenario complete after turn %d.\n", session.Turn)
			jm.SetStatus(schemas.StatusCompleted)
			break
		}
	}
	return nil
}

// printOptions lists the menu dual-framed: every option shows both its
// success and failure odds.
func printOptions(out io.Writer, options []schemas.DecisionOption) {
	fmt.Fprintln(out, "Options:")
	for i, opt := range options {
		fmt.Fprintf(out, "  [%d] %s (%s) — %d%% success / %d%% failure, impact: %s\n      %s\n",
			i+1, opt.Label, opt.Domain, opt.SuccessPercent(), opt.FailurePercent(), opt.Impact, opt.Description)
	}
	fmt.Fprintln(out, `Choose a number, "c <your own action>" for a custom move, or "q" to quit.`)
}

// readDecision parses the player's choice and collects a rationale line.
func readDecision(reader *bufio.Scanner, out io.Writer, actorID string, options []schemas.DecisionOption) (schemas.Decision, bool, error) {
	for {
		fmt.Fprint(out, "> ")
		if !reader.Scan() {
			return schemas.Decision{}, true, reader.Err()
		}
		line := strings.TrimSpace(reader.Text())

		switch {
		case line == "q" || line == "quit":
			return schemas.Decision{}, true, nil

		case strings.HasPrefix(line, "c "):
			custom := strings.TrimSpace(line[2:])
			if custom == "" {
				continue
			}
			return schemas.Decision{
				ActorID: actorID,
				Option: schemas.DecisionOption{
					Label:       custom,
					Description: custom,
					Domain:      "custom",
					Risk:        50,
					Impact:      "unknown",
					Custom:      true,
				},
				Rationale: readRationale(reader, out),
			}, false, nil

		default:
			n, err := strconv.Atoi(line)
			if err != nil || n < 1 || n > len(options) {
				fmt.Fprintf(out, "Pick 1-%d, c <action>, or q.\n", len(options))
				continue
			}
			return schemas.Decision{
				ActorID:   actorID,
				Option:    options[n-1],
				Rationale: readRationale(reader, out),
			}, false, nil
		}
	}
}

func readRationale(reader *bufio.Scanner, out io.Writer) string {
	fmt.Fprint(out, "Why this move? (one line, optional): ")
	if !reader.Scan() {
		return ""
	}
	return strings.TrimSpace(reader.Text())
}

func printResult(out io.Writer, rec schemas.TurnRecord, outcome *schemas.AdjudicationOutcome) {
	fmt.Fprintf(out, "\n== Turn %d: %s ==\n", rec.Turn, outcome.Verdict)
	if outcome.Score.Narrative != "" {
		fmt.Fprintln(out, outcome.Score.Narrative)
	}
	if outcome.Demoted {
		fmt.Fprintln(out, "(Escalation without stated justification: success was demoted one tier.)")
	}
	for _, c := range outcome.Consequences {
		fmt.Fprintf(out, "Consequence — %s: %s\n", c.Title, c.Description)
	}
	for _, f := range rec.BiasFlags {
		fmt.Fprintf(out, "Bias sentinel [%s on %s]: %s\n  Challenge: %s\n", f.Bias, f.ActorID, f.Evidence, f.Challenge)
	}
	for _, note := range rec.DriftNotes {
		fmt.Fprintf(out, "Drift note: %s\n", note)
	}
	if rec.Regenerated > 0 {
		fmt.Fprintf(out, "(Turn was regenerated %d time(s) to satisfy the structural checklist.)\n", rec.Regenerated)
	}
}
