// File: internal/store/store_test.go
package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testActor(id string) *schemas.Actor {
	return &schemas.Actor{
		ID:        id,
		Name:      id,
		Archetype: schemas.ArchetypePragmatist,
		Resources: map[string]schemas.ResourceLevel{
			"military": {Value: 60},
			"economic": {Value: 40},
		},
		Attention: schemas.AttentionAdaptive,
	}
}

func newTestStore(t *testing.T, ids ...string) *Store {
	t.Helper()
	s := New(zap.NewNop())
	for _, id := range ids {
		require.NoError(t, s.AddActor(testActor(id)))
	}
	return s
}

func TestAddActorRejectsDuplicates(t *testing.T) {
	s := newTestStore(t, "blue")
	err := s.AddActor(testActor("blue"))
	require.Error(t, err)
}

func TestGetActorReturnsIsolatedCopy(t *testing.T) {
	s := newTestStore(t, "blue")

	a, err := s.GetActor("blue")
	require.NoError(t, err)
	a.Resources["military"] = schemas.ResourceLevel{Value: 0}

	again, err := s.GetActor("blue")
	require.NoError(t, err)
	assert.Equal(t, 60.0, again.Resources["military"].Value, "mutating a returned copy must not touch the store")
}

func TestGetActorUnknown(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetActor("ghost")
	require.ErrorIs(t, err, schemas.ErrUnknownActor)
}

func TestUpdateActorClampsAndExtendsTrend(t *testing.T) {
	s := newTestStore(t, "blue")

	updated, err := s.UpdateActor(schemas.ActorDelta{
		ActorID:        "blue",
		ResourceDeltas: map[string]float64{"military": -200},
		Reason:         "catastrophic loss",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.Resources["military"].Value, "values clamp to [0,100]")
	assert.Equal(t, []float64{0}, updated.Resources["military"].Trend)

	updated, err = s.UpdateActor(schemas.ActorDelta{
		ActorID:        "blue",
		ResourceDeltas: map[string]float64{"military": 150},
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, updated.Resources["military"].Value)
	assert.Equal(t, []float64{0, 100}, updated.Resources["military"].Trend)
}

func TestUpdateActorUnknown(t *testing.T) {
	s := newTestStore(t)
	_, err := s.UpdateActor(schemas.ActorDelta{ActorID: "ghost"})
	require.ErrorIs(t, err, schemas.ErrUnknownActor)
}

func TestSetBeliefBounds(t *testing.T) {
	s := newTestStore(t, "blue", "red")

	require.NoError(t, s.SetBelief("blue", "red", "will-escalate", 0.7))

	err := s.SetBelief("blue", "red", "will-escalate", 1.2)
	require.ErrorIs(t, err, schemas.ErrInvariantViolation)
	err = s.SetBelief("blue", "red", "will-escalate", -0.1)
	require.ErrorIs(t, err, schemas.ErrInvariantViolation)

	err = s.SetBelief("blue", "ghost", "anything", 0.5)
	require.ErrorIs(t, err, schemas.ErrUnknownActor)
}

func TestMarkExclusiveEnforcesSum(t *testing.T) {
	s := newTestStore(t, "blue", "red")

	err := s.MarkExclusive("blue", "red", map[string]float64{"a": 0.5, "b": 0.3})
	require.ErrorIs(t, err, schemas.ErrInvariantViolation)

	require.NoError(t, s.MarkExclusive("blue", "red", map[string]float64{"a": 0.6, "b": 0.4}))

	// Changing one hypothesis so the set no longer sums to 1 is rejected.
	err = s.SetBelief("blue", "red", "a", 0.9)
	require.ErrorIs(t, err, schemas.ErrInvariantViolation)

	// Re-asserting the current value keeps the sum and passes.
	require.NoError(t, s.SetBelief("blue", "red", "a", 0.6))

	d, err := s.GetBelief("blue", "red")
	require.NoError(t, err)
	assert.True(t, d.Exclusive)
	assert.InDelta(t, 1.0, d.Sum(), 1e-9)
}

func TestReplaceDistributionValidates(t *testing.T) {
	s := newTestStore(t, "blue", "red")

	err := s.ReplaceDistribution(&schemas.Distribution{
		Holder: "blue", Subject: "red", Exclusive: true,
		P: map[string]float64{"a": 0.9, "b": 0.3},
	})
	require.ErrorIs(t, err, schemas.ErrInvariantViolation)

	require.NoError(t, s.ReplaceDistribution(&schemas.Distribution{
		Holder: "blue", Subject: "red",
		P: map[string]float64{"a": 0.9, "b": 0.3}, // independent: no sum constraint
	}))
}

func TestDrainChangeLog(t *testing.T) {
	s := newTestStore(t, "blue")

	_, err := s.UpdateActor(schemas.ActorDelta{
		ActorID:        "blue",
		ResourceDeltas: map[string]float64{"economic": -5},
		Reason:         "sanctions bite",
	})
	require.NoError(t, err)

	log := s.DrainChangeLog()
	require.Len(t, log, 1)
	assert.Equal(t, "actor", log[0].Kind)
	assert.Contains(t, log[0].Detail, "sanctions bite")

	assert.Empty(t, s.DrainChangeLog(), "drain clears the log")
}

func TestRestoreReplacesEverything(t *testing.T) {
	s := newTestStore(t, "blue", "red")
	require.NoError(t, s.SetBelief("blue", "red", "hostile-intent", 0.8))

	snap := &schemas.Snapshot{
		Actors: []*schemas.Actor{testActor("green")},
		Beliefs: []*schemas.Distribution{
			{Holder: "green", Subject: "green", P: map[string]float64{"self-doubt": 0.1}},
		},
	}
	s.Restore(snap)

	_, err := s.GetActor("blue")
	require.ErrorIs(t, err, schemas.ErrUnknownActor)
	_, err = s.GetActor("green")
	require.NoError(t, err)
	assert.Empty(t, s.DrainChangeLog(), "restore is not journaled")
}
