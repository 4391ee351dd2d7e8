// File: internal/oracle/oracle_test.go
package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
	"github.com/xkilldash9x/stratagem-cli/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testQuery() schemas.ActionQuery {
	return schemas.ActionQuery{
		Action: schemas.Decision{ActorID: "blue", Option: schemas.DecisionOption{Label: "Probe", Domain: "military", Risk: 30}},
		Actor:  &schemas.Actor{ID: "blue", Name: "Blue", Resources: map[string]schemas.ResourceLevel{"military": {Value: 60}}},
	}
}

func TestParseJSONResponsePlain(t *testing.T) {
	out, err := parseJSONResponse[scorePayload](`{"support": 7, "counter": 2, "narrative": "works"}`)
	require.NoError(t, err)
	assert.Equal(t, 7.0, out.Support)
	assert.Equal(t, "works", out.Narrative)
}

func TestParseJSONResponseMarkdownFence(t *testing.T) {
	response := "Here is my assessment:\n```json\n{\"support\": 6, \"counter\": 4, \"narrative\": \"fenced\"}\n```\nLet me know."
	out, err := parseJSONResponse[scorePayload](response)
	require.NoError(t, err)
	assert.Equal(t, 6.0, out.Support)
	assert.Equal(t, "fenced", out.Narrative)
}

func TestParseJSONResponseProseWrapped(t *testing.T) {
	response := `The answer follows. {"support": 3, "counter": 8, "narrative": "buried"} Hope that helps.`
	out, err := parseJSONResponse[scorePayload](response)
	require.NoError(t, err)
	assert.Equal(t, 3.0, out.Support)
}

func TestParseJSONResponseGarbage(t *testing.T) {
	_, err := parseJSONResponse[scorePayload]("no json anywhere here")
	require.Error(t, err)
}

func TestFallbackScoresBalanced(t *testing.T) {
	score, err := NewFallback().ScoreAction(context.Background(), testQuery())
	require.NoError(t, err)
	assert.Equal(t, 5.0, score.Support)
	assert.Equal(t, 5.0, score.Counter)
	assert.True(t, score.Degraded, "fallback output is always marked degraded")
	assert.NotEmpty(t, score.Narrative)
}

func TestFallbackConsequenceGroundedInState(t *testing.T) {
	snap := &schemas.Snapshot{Actors: []*schemas.Actor{
		{ID: "blue", Name: "Blue", Resources: map[string]schemas.ResourceLevel{"military": {Value: 70}}},
		{ID: "red", Name: "Red", Resources: map[string]schemas.ResourceLevel{"economic": {Value: 12}}},
	}}

	c, err := NewFallback().GenerateConsequence(context.Background(), snap, schemas.VerdictModerate)
	require.NoError(t, err)
	assert.NotEmpty(t, c.Description, "the consequence record is never empty")
	assert.Contains(t, c.Description, "Red", "derived from the most stressed resource")
	assert.Contains(t, c.Trigger, "economic")
}

func TestFallbackConsequenceTieBreaksDeterministically(t *testing.T) {
	snap := &schemas.Snapshot{Actors: []*schemas.Actor{{
		ID: "red", Name: "Red",
		Resources: map[string]schemas.ResourceLevel{
			"morale": {Value: 20}, "fuel": {Value: 20}, "cash": {Value: 20},
		},
	}}}

	for i := 0; i < 4; i++ {
		c, err := NewFallback().GenerateConsequence(context.Background(), snap, schemas.VerdictWeak)
		require.NoError(t, err)
		assert.Contains(t, c.Trigger, "cash", "equal-value resources resolve to the first name in order")
	}
}

func TestFallbackConsequenceWithNilSnapshot(t *testing.T) {
	c, err := NewFallback().GenerateConsequence(context.Background(), nil, schemas.VerdictWeak)
	require.NoError(t, err)
	assert.NotEmpty(t, c.Description)
}

func TestResilientDegradesInsteadOfFailing(t *testing.T) {
	down := NewScripted().FailWith(errors.New("connection refused"), errors.New("connection refused"))
	r := NewResilient(down, time.Second, zap.NewNop())

	score, err := r.ScoreAction(context.Background(), testQuery())
	require.NoError(t, err, "oracle unavailability never surfaces as an error")
	assert.True(t, score.Degraded)

	c, err := r.GenerateConsequence(context.Background(), &schemas.Snapshot{}, schemas.VerdictStrong)
	require.NoError(t, err)
	assert.NotEmpty(t, c.Description)
}

func TestResilientPassesThroughHealthyPrimary(t *testing.T) {
	healthy := NewScripted(schemas.ActionScore{Support: 9, Counter: 1, Narrative: "clean"})
	r := NewResilient(healthy, time.Second, zap.NewNop())

	score, err := r.ScoreAction(context.Background(), testQuery())
	require.NoError(t, err)
	assert.Equal(t, 9.0, score.Support)
	assert.False(t, score.Degraded)
}

func TestResilientReplacesEmptyConsequence(t *testing.T) {
	empty := NewScripted().WithConsequence(schemas.Consequence{})
	r := NewResilient(empty, time.Second, zap.NewNop())

	c, err := r.GenerateConsequence(context.Background(), &schemas.Snapshot{}, schemas.VerdictModerate)
	require.NoError(t, err)
	assert.NotEmpty(t, c.Description, "the one-consequence invariant holds even against a broken primary")
}

func TestScriptedReplaysAndRepeats(t *testing.T) {
	s := NewScripted(
		schemas.ActionScore{Support: 8, Counter: 2},
		schemas.ActionScore{Support: 1, Counter: 9},
	)

	first, err := s.ScoreAction(context.Background(), testQuery())
	require.NoError(t, err)
	second, err := s.ScoreAction(context.Background(), testQuery())
	require.NoError(t, err)
	third, err := s.ScoreAction(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, 8.0, first.Support)
	assert.Equal(t, 1.0, second.Support)
	assert.Equal(t, 1.0, third.Support, "the last score repeats")
	assert.Equal(t, 3, s.ScoreCalls)
}

func TestFromConfigDefaultsToFallbackStack(t *testing.T) {
	orc, err := FromConfig(context.Background(), config.OracleConfig{
		Provider: "fallback", Timeout: time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	score, err := orc.ScoreAction(context.Background(), testQuery())
	require.NoError(t, err)
	assert.True(t, score.Degraded)
}
