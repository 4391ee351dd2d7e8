// File: internal/archive/archive_test.go
package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testMeta() schemas.ScenarioMeta {
	return schemas.ScenarioMeta{
		ID: "s-arc01", Title: "Strait Crisis", Tier: "operational",
		Status: schemas.StatusActive, Turn: 4, Path: "/journals/s-arc01.md",
	}
}

func TestPostgresRecordUpserts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	meta := testMeta()
	mock.ExpectExec("INSERT INTO scenarios").
		WithArgs(meta.ID, meta.Title, meta.Tier, string(meta.Status), meta.Turn, meta.Path, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	idx := NewPostgresIndex(mock, zap.NewNop())
	require.NoError(t, idx.Record(context.Background(), meta))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecordSurfacesDBError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO scenarios").
		WillReturnError(errors.New("connection reset"))

	idx := NewPostgresIndex(mock, zap.NewNop())
	err = idx.Record(context.Background(), testMeta())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s-arc01")
}

func TestPostgresListWithoutFilter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"id", "title", "tier", "status", "turn", "path"}).
		AddRow("s-1", "Blockade", "strategic", "active", 3, "/j/s-1.md").
		AddRow("s-2", "Border Standoff", "tactical", "completed", 8, "/j/s-2.md")
	mock.ExpectQuery("SELECT id, title, tier, status, turn, path FROM scenarios").
		WillReturnRows(rows)

	idx := NewPostgresIndex(mock, zap.NewNop())
	out, err := idx.List(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, "Blockade", out[0].Title)
	assert.Equal(t, schemas.StatusCompleted, out[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListFilterBindsStatusAndTitle(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"id", "title", "tier", "status", "turn", "path"}).
		AddRow("s-1", "Blockade", "strategic", "active", 3, "/j/s-1.md")
	mock.ExpectQuery("SELECT id, title, tier, status, turn, path FROM scenarios WHERE").
		WithArgs("active", "%active%").
		WillReturnRows(rows)

	idx := NewPostgresIndex(mock, zap.NewNop())
	out, err := idx.List(context.Background(), "active")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaCreatesTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS scenarios").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	idx := NewPostgresIndex(mock, zap.NewNop())
	require.NoError(t, idx.ensureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func writeJournal(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestFSIndexSkimsFrontmatter(t *testing.T) {
	dir := t.TempDir()
	writeJournal(t, dir, "s-1.md",
		"---\nscenario: Strait Crisis\nid: s-1\ntier: operational\nstatus: active\n---\n\n## Turn 1\n")
	writeJournal(t, dir, "s-2.md",
		"---\nscenario: Trade War\nid: s-2\ntier: strategic\nstatus: completed\n---\n")
	writeJournal(t, dir, "notes.txt", "not a journal")
	writeJournal(t, dir, "broken.md", "no frontmatter here")

	idx := NewFSIndex(dir, zap.NewNop())
	out, err := idx.List(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, out, 2)
	byID := map[string]schemas.ScenarioMeta{out[0].ID: out[0], out[1].ID: out[1]}
	assert.Equal(t, "Strait Crisis", byID["s-1"].Title)
	assert.Equal(t, schemas.StatusActive, byID["s-1"].Status)
	assert.Equal(t, filepath.Join(dir, "s-2.md"), byID["s-2"].Path)
}

func TestFSIndexFilters(t *testing.T) {
	dir := t.TempDir()
	writeJournal(t, dir, "s-1.md",
		"---\nscenario: Strait Crisis\nid: s-1\ntier: operational\nstatus: active\n---\n")
	writeJournal(t, dir, "s-2.md",
		"---\nscenario: Trade War\nid: s-2\ntier: strategic\nstatus: completed\n---\n")

	idx := NewFSIndex(dir, zap.NewNop())

	out, err := idx.List(context.Background(), "completed")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "s-2", out[0].ID)

	out, err = idx.List(context.Background(), "strait")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "s-1", out[0].ID)

	out, err = idx.List(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFSIndexMissingDirIsEmpty(t *testing.T) {
	idx := NewFSIndex(filepath.Join(t.TempDir(), "nope"), zap.NewNop())
	out, err := idx.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, out)
}
