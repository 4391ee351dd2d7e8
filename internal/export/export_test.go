// File: internal/export/export_test.go
package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSource stands in for the journal manager.
type fakeSource struct {
	latest   *schemas.Snapshot
	ledger   []*schemas.Snapshot
	branches []schemas.Branch
	err      error
}

func (f *fakeSource) LatestSnapshot() (*schemas.Snapshot, error) { return f.latest, f.err }
func (f *fakeSource) Snapshots() []*schemas.Snapshot             { return f.ledger }
func (f *fakeSource) ListBranches() []schemas.Branch             { return f.branches }

func testActor(id string, military, economic float64) *schemas.Actor {
	return &schemas.Actor{
		ID: id, Name: strings.ToUpper(id[:1]) + id[1:], Role: "state", Archetype: schemas.ArchetypeHawk,
		Risk:      schemas.RiskPosture{Attitude: schemas.RiskNeutral, ReferencePoint: 50},
		Attention: schemas.AttentionAdaptive,
		Resources: map[string]schemas.ResourceLevel{
			"military": {Value: military},
			"economic": {Value: economic},
		},
	}
}

func testSource() *fakeSource {
	session := schemas.ScenarioSession{
		ID: "s-exp01", Title: "Blockade", Tier: "strategic",
		Status: schemas.StatusActive, Phase: schemas.PhasePersisted,
		Turn: 2, TotalTurns: 8, ActiveBranch: "main",
	}
	snap1 := &schemas.Snapshot{
		Turn: 1, Branch: "main", Session: session,
		Actors: []*schemas.Actor{testActor("blue", 60, 55), testActor("red", 70, 40)},
	}
	snap2 := &schemas.Snapshot{
		Turn: 2, Branch: "main", Session: session,
		Actors: []*schemas.Actor{testActor("blue", 58, 50), testActor("red", 65, 42)},
		Beliefs: []*schemas.Distribution{{
			Holder: "blue", Subject: "red-intent",
			P: map[string]float64{"escalate": 0.7, "posture": 0.3},
		}},
		InjectHistory: []schemas.Inject{{
			ID: "i-1", Title: "Backchannel opens", Polarity: schemas.InjectPositive,
			Dilemma: schemas.Dilemma{A: "Engage quietly", B: "Ignore it"}, Deployed: true, DeployedTurn: 2,
		}},
	}
	return &fakeSource{
		latest: snap2,
		ledger: []*schemas.Snapshot{snap1, snap2},
		branches: []schemas.Branch{
			{ID: "main", ForkTurn: 0, CurrentTurn: 2, Status: schemas.BranchActive},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"json", "csv", "html", "slides"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}
	_, err := ParseFormat("pdf")
	require.Error(t, err)
}

func TestBuildReport(t *testing.T) {
	report, err := BuildReport(testSource())
	require.NoError(t, err)

	assert.Equal(t, "s-exp01", report.Session.ID)
	assert.Len(t, report.Actors, 2)
	assert.Len(t, report.Ledger, 2)
	assert.Len(t, report.Injects, 1)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestBuildReportWithoutSnapshot(t *testing.T) {
	_, err := BuildReport(&fakeSource{err: schemas.ErrNoSnapshot})
	require.ErrorIs(t, err, schemas.ErrNoSnapshot)
}

func TestWriteJSONRoundTrips(t *testing.T) {
	report, err := BuildReport(testSource())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, New(zap.NewNop()).Write(&buf, FormatJSON, report))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	if diff := cmp.Diff(report.Session, decoded.Session); diff != "" {
		t.Errorf("session changed through JSON export (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(report.Actors, decoded.Actors); diff != "" {
		t.Errorf("actors changed through JSON export (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(report.Ledger, decoded.Ledger); diff != "" {
		t.Errorf("ledger changed through JSON export (-want +got):\n%s", diff)
	}
}

func TestWriteCSVLedger(t *testing.T) {
	report, err := BuildReport(testSource())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, New(zap.NewNop()).Write(&buf, FormatCSV, report))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	// Header plus one row per actor per snapshot.
	require.Len(t, rows, 1+4)
	assert.Equal(t, []string{"turn", "branch", "phase", "actor", "archetype", "economic", "military"}, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "blue", rows[1][3])
	assert.Equal(t, "55.0", rows[1][5])
	assert.Equal(t, "60.0", rows[1][6])
	assert.Equal(t, "red", rows[4][3])
	assert.Equal(t, "2", rows[4][0])
}

func TestWriteHTMLReport(t *testing.T) {
	report, err := BuildReport(testSource())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, New(zap.NewNop()).Write(&buf, FormatHTML, report))
	doc := buf.String()

	assert.Contains(t, doc, "<!DOCTYPE html>")
	assert.Contains(t, doc, "Blockade")
	assert.Contains(t, doc, "After-Action Report")
	assert.Contains(t, doc, "<table>")
	assert.Contains(t, doc, "Backchannel opens")
	assert.Contains(t, doc, "escalate")
}

func TestWriteSlidesOnePerTurn(t *testing.T) {
	report, err := BuildReport(testSource())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, New(zap.NewNop()).Write(&buf, FormatSlides, report))
	doc := buf.String()

	// Title slide + one per ledger snapshot + closing slide.
	assert.Equal(t, 4, strings.Count(doc, `class="slide"`))
	assert.Contains(t, doc, "Turn 1 (main)")
	assert.Contains(t, doc, "Turn 2 (main)")
	assert.Contains(t, doc, "Debrief Deck")
}

func TestWriteUnknownFormat(t *testing.T) {
	report, err := BuildReport(testSource())
	require.NoError(t, err)
	require.Error(t, New(zap.NewNop()).Write(&bytes.Buffer{}, Format("yaml"), report))
}
