// File: internal/engine/injects.go
// Description: Inject pool validation and dramatic-fit deployment. Injects
// fire when the story needs them, not on a schedule.
package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
)

// Pool bounds from scenario design practice: enough pre-seeded events to
// cover a session, few enough that each one lands.
const (
	minInjects = 3
	maxInjects = 5
)

// deployTension is the dramatic-fit score above which an inject fires
// ahead of its deadline.
const deployTension = 12.0

// validateInjectPool enforces the setup contract: 3-5 injects, at least
// one positive, every dilemma two-sided.
func validateInjectPool(injects []schemas.Inject) error {
	if len(injects) < minInjects || len(injects) > maxInjects {
		return fmt.Errorf("inject pool must hold %d-%d events, got %d", minInjects, maxInjects, len(injects))
	}
	positive := false
	for _, inj := range injects {
		if inj.Polarity == schemas.InjectPositive {
			positive = true
		}
		if inj.Dilemma.A == "" || inj.Dilemma.B == "" {
			return fmt.Errorf("inject %q has a one-sided dilemma", inj.Title)
		}
	}
	if !positive {
		return fmt.Errorf("inject pool needs at least one positive inject")
	}
	return nil
}

// maybeDeployInject fires at most one inject after a persisted turn. An
// inject deploys when the tension score says the moment fits, or
// unconditionally when its deadline turn arrives. Deployment is a one-way
// transition.
func (e *Engine) maybeDeployInject(session *schemas.ScenarioSession) *schemas.Inject {
	tension := e.tensionScore()
	for i := range e.injects {
		inj := &e.injects[i]
		if inj.Deployed {
			continue
		}
		due := inj.Deadline > 0 && session.Turn >= inj.Deadline
		fits := tension >= deployTension && e.polarityFits(inj, tension)
		if !due && !fits {
			continue
		}

		inj.Deployed = true
		inj.DeployedTurn = session.Turn
		deployed := *inj
		e.history = append(e.history, deployed)

		e.logger.Info("Inject deployed",
			zap.String("inject", inj.Title),
			zap.Int("turn", session.Turn),
			zap.Bool("deadline_forced", due),
			zap.Float64("tension", tension))
		return &deployed
	}
	return nil
}

// tensionScore measures how hard the last turn shook the board: mean
// absolute resource movement plus a stalemate bonus when verdicts keep
// landing Moderate.
func (e *Engine) tensionScore() float64 {
	var moved, count float64
	for _, a := range e.store.Actors() {
		for _, lvl := range a.Resources {
			n := len(lvl.Trend)
			if n >= 2 {
				moved += absF(lvl.Trend[n-1] - lvl.Trend[n-2])
				count++
			}
		}
	}
	score := 0.0
	if count > 0 {
		score = moved / count * 2
	}

	// Two consecutive Moderate verdicts read as a stalemate worth breaking.
	n := len(e.lastVerdicts)
	if n >= 2 && e.lastVerdicts[n-1] == schemas.VerdictModerate && e.lastVerdicts[n-2] == schemas.VerdictModerate {
		score += deployTension
	}
	return score
}

// polarityFits deploys positive injects into grinding stalemates and
// negative ones into already-moving situations, for contrast.
func (e *Engine) polarityFits(inj *schemas.Inject, tension float64) bool {
	if inj.Polarity == schemas.InjectPositive {
		return tension < deployTension*2
	}
	return true
}

// RecordVerdict feeds the stalemate heuristic.
func (e *Engine) RecordVerdict(v schemas.Verdict) {
	e.lastVerdicts = append(e.lastVerdicts, v)
	if len(e.lastVerdicts) > 8 {
		e.lastVerdicts = e.lastVerdicts[1:]
	}
}

func absF(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
