// File: internal/adjudicate/resolver.go
// Description: Maps judgment-oracle scores to Strong/Moderate/Weak verdicts
// and produces the immutable adjudication outcome for a turn.
package adjudicate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
)

// Verdict thresholds on the support-minus-counter margin. A margin of
// strongMargin or more means the argument clearly dominates; weakMargin or
// less means the counter-argument dominates; everything between is Moderate.
const (
	strongMargin = 3.0
	weakMargin   = -3.0
)

// Delta constants, documented so outcomes are reproducible:
// the base magnitude of an effect is baseEffect plus a tenth of the option's
// risk value, scaled by the verdict multiplier. The acting side always pays
// actionCost; a Weak verdict backfires for backfireFactor of the base.
const (
	baseEffect     = 5.0
	actionCost     = 5.0
	backfireFactor = 0.6
)

// Resolver turns a proposed action into an AdjudicationOutcome.
type Resolver struct {
	oracle schemas.Oracle
	logger *zap.Logger
}

// New builds a resolver around the given judgment oracle.
func New(oracle schemas.Oracle, logger *zap.Logger) *Resolver {
	return &Resolver{oracle: oracle, logger: logger.Named("adjudicate")}
}

// Resolve runs the full adjudication procedure: score, calibrate, map to a
// verdict, run the escalation and blue-bias checkpoint rules, compute state
// deltas, and attach the mandatory unexpected consequence.
func (r *Resolver) Resolve(ctx context.Context, q schemas.ActionQuery, snap *schemas.Snapshot) (*schemas.AdjudicationOutcome, error) {
	if q.Actor == nil {
		return nil, fmt.Errorf("adjudication requires the acting actor")
	}

	score, err := r.oracle.ScoreAction(ctx, q)
	if err != nil {
		// The resilient oracle absorbs unavailability; an error here means
		// the query itself was unusable.
		return nil, fmt.Errorf("oracle scoring failed: %w", err)
	}

	// Blue-bias checkpoint: when adjudicating an adversary's action, the
	// support score may not be understated relative to the adversary's
	// stated capability.
	if q.Actor.Adversary {
		if floor := capabilityFloor(q.Actor, q.Action.Option.Domain); score.Support < floor {
			r.logger.Debug("Blue-bias check raised adversary support score",
				zap.Float64("from", score.Support), zap.Float64("to", floor),
				zap.String("actor", q.Actor.ID))
			score.Support = floor
		}
	}

	verdict := mapVerdict(score)

	// Escalation checkpoint: above-baseline severity without grounded
	// justification demotes the verdict one level.
	demoted := false
	if q.Severity > 0 && q.Justification == "" {
		verdict = verdict.Demote()
		demoted = true
		r.logger.Info("Escalation check demoted verdict",
			zap.String("actor", q.Actor.ID),
			zap.Int("severity", q.Severity),
			zap.String("verdict", string(verdict)))
	}

	outcome := &schemas.AdjudicationOutcome{
		Action:  q.Action,
		Verdict: verdict,
		Score:   score,
		Deltas:  computeDeltas(q, verdict),
		Signals: deriveSignals(q),
		Demoted: demoted,
	}

	// Exactly one unexpected consequence is mandatory; the resilient oracle
	// guarantees a non-empty record even when degraded.
	consequence, err := r.oracle.GenerateConsequence(ctx, snap, verdict)
	if err != nil || consequence.Description == "" {
		return nil, fmt.Errorf("%w: no usable consequence", schemas.ErrOracleUnavailable)
	}
	outcome.Consequences = append(outcome.Consequences, consequence)

	if verdict == schemas.VerdictModerate {
		outcome.Consequences = append(outcome.Consequences, schemas.Consequence{
			Title: "Complication",
			Description: fmt.Sprintf(
				"The partial success of %q leaves loose ends: the gain is real but contested, and holding it costs attention.",
				q.Action.Option.Label),
			Trigger: "moderate verdict",
		})
	}

	r.logger.Info("Action adjudicated",
		zap.String("actor", q.Actor.ID),
		zap.String("action", q.Action.Option.Label),
		zap.String("verdict", string(verdict)),
		zap.Bool("degraded", score.Degraded))

	return outcome, nil
}

// mapVerdict applies the fixed thresholds to the score margin.
func mapVerdict(score schemas.ActionScore) schemas.Verdict {
	margin := score.Support - score.Counter
	switch {
	case margin >= strongMargin:
		return schemas.VerdictStrong
	case margin <= weakMargin:
		return schemas.VerdictWeak
	default:
		return schemas.VerdictModerate
	}
}

// capabilityFloor converts the actor's strongest relevant resource into a
// minimum support score (0-10 scale). Preference goes to the resource
// matching the action's domain.
func capabilityFloor(a *schemas.Actor, domain string) float64 {
	if lvl, ok := a.Resources[domain]; ok {
		return lvl.Value / 20.0
	}
	var best float64
	for _, lvl := range a.Resources {
		if lvl.Value > best {
			best = lvl.Value
		}
	}
	return best / 20.0
}

// computeDeltas derives resource changes from the verdict and the option's
// risk value. A do-nothing option changes nothing.
func computeDeltas(q schemas.ActionQuery, verdict schemas.Verdict) []schemas.ActorDelta {
	opt := q.Action.Option
	if opt.DoNothing {
		return nil
	}

	magnitude := baseEffect + float64(opt.Risk)/10.0
	reason := fmt.Sprintf("%s verdict on %q", verdict, opt.Label)

	var deltas []schemas.ActorDelta
	resource := opt.Domain
	if resource == "" {
		resource = "position"
	}

	switch verdict {
	case schemas.VerdictStrong:
		if q.Action.TargetID != "" {
			deltas = append(deltas, schemas.ActorDelta{
				ActorID:        q.Action.TargetID,
				ResourceDeltas: map[string]float64{resource: -magnitude},
				Reason:         reason,
			})
		}
		deltas = append(deltas, schemas.ActorDelta{
			ActorID:        q.Action.ActorID,
			ResourceDeltas: map[string]float64{resource: -actionCost},
			Reason:         "cost of action",
		})
	case schemas.VerdictModerate:
		if q.Action.TargetID != "" {
			deltas = append(deltas, schemas.ActorDelta{
				ActorID:        q.Action.TargetID,
				ResourceDeltas: map[string]float64{resource: -magnitude / 2},
				Reason:         reason,
			})
		}
		deltas = append(deltas, schemas.ActorDelta{
			ActorID:        q.Action.ActorID,
			ResourceDeltas: map[string]float64{resource: -actionCost},
			Reason:         "cost of action",
		})
	case schemas.VerdictWeak:
		deltas = append(deltas, schemas.ActorDelta{
			ActorID:        q.Action.ActorID,
			ResourceDeltas: map[string]float64{resource: -(actionCost + magnitude*backfireFactor)},
			Reason:         fmt.Sprintf("backfire on %q", opt.Label),
		})
	}
	return deltas
}

// deriveSignals classifies what other actors learn from watching the
// action. Expensive, risky moves are costly signals; words are cheap talk.
func deriveSignals(q schemas.ActionQuery) []schemas.ObservedSignal {
	opt := q.Action.Option
	if opt.DoNothing {
		return []schemas.ObservedSignal{{
			Subject:     q.Action.ActorID,
			Hypothesis:  "prefers-status-quo",
			Supports:    true,
			Credibility: schemas.SignalCheapTalk,
			Description: fmt.Sprintf("%s held position this turn", q.Action.ActorID),
		}}
	}

	credibility := schemas.SignalMixed
	switch {
	case opt.Risk >= 60:
		credibility = schemas.SignalCostly
	case opt.Domain == "diplomatic" || opt.Domain == "information":
		credibility = schemas.SignalCheapTalk
	}

	hypothesis := "willing-to-escalate"
	if opt.Domain == "diplomatic" {
		hypothesis = "seeks-accommodation"
	}

	return []schemas.ObservedSignal{{
		Subject:     q.Action.ActorID,
		Hypothesis:  hypothesis,
		Supports:    true,
		Credibility: credibility,
		Description: fmt.Sprintf("%s executed %q (%s, risk %d)", q.Action.ActorID, opt.Label, opt.Domain, opt.Risk),
	}}
}
