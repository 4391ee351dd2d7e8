// File: internal/adjudicate/resolver_test.go
package adjudicate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
	"github.com/xkilldash9x/stratagem-cli/internal/oracle"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func attacker() *schemas.Actor {
	return &schemas.Actor{
		ID: "red", Name: "Red", Archetype: schemas.ArchetypeHawk,
		Resources: map[string]schemas.ResourceLevel{"military": {Value: 80}},
	}
}

func query(opt schemas.DecisionOption) schemas.ActionQuery {
	return schemas.ActionQuery{
		Action:        schemas.Decision{ActorID: "red", TargetID: "blue", Option: opt, Rationale: "pressure works"},
		Actor:         attacker(),
		Justification: "pressure works",
	}
}

func TestResolveStrongVerdict(t *testing.T) {
	r := New(oracle.NewScripted(schemas.ActionScore{Support: 8, Counter: 3, Narrative: "clean execution"}), zap.NewNop())

	out, err := r.Resolve(context.Background(), query(schemas.DecisionOption{
		Label: "Strike depot", Domain: "military", Risk: 40, Impact: "decisive",
	}), &schemas.Snapshot{})
	require.NoError(t, err)

	assert.Equal(t, schemas.VerdictStrong, out.Verdict, "margin of 5 clears the strong threshold")
	assert.False(t, out.Demoted)
	require.NotEmpty(t, out.Consequences, "every adjudication carries a consequence")
	assert.NotEmpty(t, out.Consequences[0].Description)

	// Strong: target loses base 5 + risk/10 = 9 of the domain resource, the
	// acting side pays the flat action cost.
	require.Len(t, out.Deltas, 2)
	assert.Equal(t, "blue", out.Deltas[0].ActorID)
	assert.Equal(t, -9.0, out.Deltas[0].ResourceDeltas["military"])
	assert.Equal(t, "red", out.Deltas[1].ActorID)
	assert.Equal(t, -5.0, out.Deltas[1].ResourceDeltas["military"])
}

func TestResolveWeakVerdictBackfires(t *testing.T) {
	r := New(oracle.NewScripted(schemas.ActionScore{Support: 2, Counter: 8}), zap.NewNop())

	out, err := r.Resolve(context.Background(), query(schemas.DecisionOption{
		Label: "Overreach", Domain: "military", Risk: 50,
	}), &schemas.Snapshot{})
	require.NoError(t, err)

	assert.Equal(t, schemas.VerdictWeak, out.Verdict)
	require.Len(t, out.Deltas, 1, "a weak verdict costs only the acting side")
	assert.Equal(t, "red", out.Deltas[0].ActorID)
	assert.Equal(t, -(actionCost + (baseEffect+5)*backfireFactor), out.Deltas[0].ResourceDeltas["military"])
}

func TestResolveModerateAddsComplication(t *testing.T) {
	r := New(oracle.NewScripted(schemas.ActionScore{Support: 5, Counter: 5}), zap.NewNop())

	out, err := r.Resolve(context.Background(), query(schemas.DecisionOption{
		Label: "Probe", Domain: "military", Risk: 30,
	}), &schemas.Snapshot{})
	require.NoError(t, err)

	assert.Equal(t, schemas.VerdictModerate, out.Verdict)
	require.Len(t, out.Consequences, 2, "moderate verdicts add a named complication")
	assert.Equal(t, "Complication", out.Consequences[1].Title)
}

func TestUnjustifiedEscalationDemotes(t *testing.T) {
	r := New(oracle.NewScripted(schemas.ActionScore{Support: 9, Counter: 2}), zap.NewNop())

	q := query(schemas.DecisionOption{Label: "All in", Domain: "military", Risk: 90})
	q.Severity = 2
	q.Justification = ""

	out, err := r.Resolve(context.Background(), q, &schemas.Snapshot{})
	require.NoError(t, err)

	assert.Equal(t, schemas.VerdictModerate, out.Verdict, "strong demotes one level")
	assert.True(t, out.Demoted)
}

func TestJustifiedEscalationKeepsVerdict(t *testing.T) {
	r := New(oracle.NewScripted(schemas.ActionScore{Support: 9, Counter: 2}), zap.NewNop())

	q := query(schemas.DecisionOption{Label: "All in", Domain: "military", Risk: 90})
	q.Severity = 2
	q.Justification = "their mobilization left the flank open"

	out, err := r.Resolve(context.Background(), q, &schemas.Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, schemas.VerdictStrong, out.Verdict)
	assert.False(t, out.Demoted)
}

func TestBlueBiasFloorRaisesAdversarySupport(t *testing.T) {
	// Understated support of 1 against a stated military capability of 80
	// must be raised to the 80/20 = 4.0 floor.
	r := New(oracle.NewScripted(schemas.ActionScore{Support: 1, Counter: 1}), zap.NewNop())

	q := query(schemas.DecisionOption{Label: "Advance", Domain: "military", Risk: 40})
	q.Actor.Adversary = true

	out, err := r.Resolve(context.Background(), q, &schemas.Snapshot{})
	require.NoError(t, err)

	assert.Equal(t, 4.0, out.Score.Support)
	assert.Equal(t, schemas.VerdictStrong, out.Verdict, "margin of 3 after calibration")
}

func TestDoNothingProducesNoDeltas(t *testing.T) {
	r := New(oracle.NewScripted(schemas.ActionScore{Support: 5, Counter: 5}), zap.NewNop())

	out, err := r.Resolve(context.Background(), query(schemas.DecisionOption{
		Label: "Hold position", Domain: "posture", Risk: 15, DoNothing: true,
	}), &schemas.Snapshot{})
	require.NoError(t, err)

	assert.Empty(t, out.Deltas)
	require.Len(t, out.Signals, 1)
	assert.Equal(t, "prefers-status-quo", out.Signals[0].Hypothesis)
	assert.Equal(t, schemas.SignalCheapTalk, out.Signals[0].Credibility)
}

func TestSignalCredibilityClassification(t *testing.T) {
	r := New(oracle.NewScripted(schemas.ActionScore{Support: 6, Counter: 4}), zap.NewNop())

	risky, err := r.Resolve(context.Background(), query(schemas.DecisionOption{
		Label: "Commit forces", Domain: "military", Risk: 70,
	}), &schemas.Snapshot{})
	require.NoError(t, err)
	require.Len(t, risky.Signals, 1)
	assert.Equal(t, schemas.SignalCostly, risky.Signals[0].Credibility, "expensive risky moves are costly signals")

	talk, err := r.Resolve(context.Background(), query(schemas.DecisionOption{
		Label: "Issue statement", Domain: "diplomatic", Risk: 10,
	}), &schemas.Snapshot{})
	require.NoError(t, err)
	require.Len(t, talk.Signals, 1)
	assert.Equal(t, schemas.SignalCheapTalk, talk.Signals[0].Credibility)
	assert.Equal(t, "seeks-accommodation", talk.Signals[0].Hypothesis)
}

func TestConsequenceFailureIsAnError(t *testing.T) {
	scripted := oracle.NewScripted(schemas.ActionScore{Support: 5, Counter: 5}).
		WithConsequence(schemas.Consequence{})

	r := New(scripted, zap.NewNop())
	_, err := r.Resolve(context.Background(), query(schemas.DecisionOption{
		Label: "Probe", Domain: "military", Risk: 30,
	}), &schemas.Snapshot{})
	require.ErrorIs(t, err, schemas.ErrOracleUnavailable)
}
