// File: internal/montecarlo/explorer_test.go
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
	"github.com/xkilldash9x/stratagem-cli/internal/config"
	"github.com/xkilldash9x/stratagem-cli/internal/oracle"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testDecisionPoint() schemas.DecisionPoint {
	option := schemas.DecisionOption{Label: "Tighten the screws", Domain: "economic", Risk: 45}
	return schemas.DecisionPoint{
		Turn:    3,
		ActorID: "blue",
		Options: []schemas.DecisionOption{option},
		Chosen:  option,
		Snapshot: &schemas.Snapshot{
			Turn: 2,
			Actors: []*schemas.Actor{{
				ID: "blue", Name: "Blue",
				Resources: map[string]schemas.ResourceLevel{"economic": {Value: 60}},
			}},
		},
	}
}

func testExplorerConfig() config.ExplorerConfig {
	return config.ExplorerConfig{DefaultRuns: 10, Concurrency: 4}
}

func TestExploreFrequenciesSumToOneHundred(t *testing.T) {
	e := New(testExplorerConfig(), oracle.NewScripted(
		schemas.ActionScore{Support: 8, Counter: 3},
		schemas.ActionScore{Support: 5, Counter: 5},
		schemas.ActionScore{Support: 2, Counter: 8},
	), zap.NewNop())

	report, err := e.Explore(context.Background(), testDecisionPoint(), 10, 42)
	require.NoError(t, err)

	assert.Equal(t, 10, report.Requested)
	assert.Equal(t, 10, report.Completed)
	require.NotEmpty(t, report.Clusters)
	assert.LessOrEqual(t, len(report.Clusters), 5)

	total := 0
	for _, c := range report.Clusters {
		total += c.Frequency
		assert.NotEmpty(t, c.Label)
		assert.NotEmpty(t, c.Representative)
	}
	assert.Equal(t, 100, total, "cluster shares always sum to exactly 100")
	assert.Equal(t, Disclaimer, report.Disclaimer)
	assert.NotEmpty(t, report.InformationNote)
}

func TestChooseAxesGuarantees(t *testing.T) {
	varied := map[schemas.VariationAxis]bool{}
	for run := 0; run < 5; run++ {
		rng := rand.New(rand.NewSource(int64(run) * 7919))
		axes := chooseAxes(rng, run)
		assert.GreaterOrEqual(t, len(axes), minVariedAxes, "every run varies at least three axes")
		// Run r always varies axis r mod 5.
		assert.Contains(t, axes, schemas.AllVariationAxes[run%len(schemas.AllVariationAxes)])
		for _, a := range axes {
			varied[a] = true
		}
	}
	for _, axis := range schemas.AllVariationAxes {
		assert.True(t, varied[axis], "five runs cover all five axes")
	}
}

func TestClusterSplitsHomogeneousBatches(t *testing.T) {
	outcomes := make([]*schemas.IterationOutcome, 0, 6)
	for i := 0; i < 6; i++ {
		outcomes = append(outcomes, &schemas.IterationOutcome{
			Run: i, Verdict: schemas.VerdictModerate, NetDelta: float64(i),
			Narrative: fmt.Sprintf("Run %d", i),
		})
	}

	report := cluster(outcomes, 6)
	assert.GreaterOrEqual(t, len(report.Clusters), 3, "uniform verdicts still split by net position")
	assert.LessOrEqual(t, len(report.Clusters), 5)

	total := 0
	labels := map[string]bool{}
	for _, c := range report.Clusters {
		total += c.Frequency
		labels[c.Label] = true
	}
	assert.Equal(t, 100, total)
	assert.Len(t, labels, len(report.Clusters), "split clusters carry distinct labels")

	// Literally identical outcomes cannot meet the floor; that stays one
	// cluster rather than an artificial split.
	lone := cluster([]*schemas.IterationOutcome{
		{Run: 0, Verdict: schemas.VerdictStrong, Narrative: "only run"},
	}, 1)
	assert.Len(t, lone.Clusters, 1)
}

func TestExploreIsReproducibleWithFixedSeed(t *testing.T) {
	run := func() *schemas.ClusterReport {
		cfg := testExplorerConfig()
		cfg.Concurrency = 1 // serialize so the scripted oracle replays identically
		e := New(cfg, oracle.NewScripted(
			schemas.ActionScore{Support: 8, Counter: 3},
			schemas.ActionScore{Support: 2, Counter: 8},
		), zap.NewNop())
		report, err := e.Explore(context.Background(), testDecisionPoint(), 8, 1234)
		require.NoError(t, err)
		return report
	}

	first, second := run(), run()
	require.Equal(t, len(first.Clusters), len(second.Clusters))
	for i := range first.Clusters {
		assert.Equal(t, first.Clusters[i].Label, second.Clusters[i].Label)
		assert.Equal(t, first.Clusters[i].Frequency, second.Clusters[i].Frequency)
		assert.Equal(t, first.Clusters[i].Runs, second.Clusters[i].Runs)
	}
	assert.Equal(t, first.SensitiveVariable, second.SensitiveVariable)
}

// flakyOracle fails every second scoring call.
type flakyOracle struct {
	mu    sync.Mutex
	calls int
}

func (f *flakyOracle) ScoreAction(_ context.Context, _ schemas.ActionQuery) (schemas.ActionScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls%2 == 0 {
		return schemas.ActionScore{}, errors.New("oracle hiccup")
	}
	return schemas.ActionScore{Support: 6, Counter: 4}, nil
}

func (f *flakyOracle) GenerateConsequence(_ context.Context, _ *schemas.Snapshot, _ schemas.Verdict) (schemas.Consequence, error) {
	return schemas.Consequence{Title: "n/a", Description: "n/a"}, nil
}

func TestExploreDisclosesPartialCompletion(t *testing.T) {
	e := New(testExplorerConfig(), &flakyOracle{}, zap.NewNop())

	report, err := e.Explore(context.Background(), testDecisionPoint(), 10, 9)
	require.NoError(t, err, "partial completion is a report property, not an error")

	assert.Equal(t, 10, report.Requested)
	assert.Equal(t, 5, report.Completed, "failed iterations are dropped and disclosed")

	total := 0
	for _, c := range report.Clusters {
		total += c.Frequency
	}
	assert.Equal(t, 100, total, "shares cover completed runs only")
}

func TestExploreAllRunsFailing(t *testing.T) {
	failing := oracle.NewScripted().FailWith(errors.New("down"), nil)
	e := New(testExplorerConfig(), failing, zap.NewNop())

	_, err := e.Explore(context.Background(), testDecisionPoint(), 4, 1)
	require.Error(t, err)
}

func TestExploreRequiresSnapshot(t *testing.T) {
	e := New(testExplorerConfig(), oracle.NewScripted(), zap.NewNop())
	dp := testDecisionPoint()
	dp.Snapshot = nil
	_, err := e.Explore(context.Background(), dp, 4, 1)
	require.Error(t, err)
}

func TestExploreDoesNotMutateCanonicalSnapshot(t *testing.T) {
	dp := testDecisionPoint()
	before := dp.Snapshot.Actors[0].Resources["economic"].Value

	e := New(testExplorerConfig(), oracle.NewScripted(), zap.NewNop())
	_, err := e.Explore(context.Background(), dp, 6, 99)
	require.NoError(t, err)

	assert.Equal(t, before, dp.Snapshot.Actors[0].Resources["economic"].Value,
		"iterations work on clones only")
}
