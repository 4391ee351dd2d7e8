// File: internal/archive/postgres.go
// Description: Optional Postgres-backed scenario index. The journal files
// stay canonical; the index only makes `list` fast across many scenarios.
package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
)

// DB is the subset of the pgx pool the index needs. pgxmock satisfies it
// in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresIndex records scenario metadata in a single table.
type PostgresIndex struct {
	db     DB
	logger *zap.Logger
}

var _ schemas.ScenarioIndex = (*PostgresIndex)(nil)

// NewPostgresIndex wraps an existing connection pool or mock.
func NewPostgresIndex(db DB, logger *zap.Logger) *PostgresIndex {
	return &PostgresIndex{db: db, logger: logger.Named("archive.postgres")}
}

// Connect opens a pool from a DSN and ensures the schema exists.
func Connect(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresIndex, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect scenario archive: %w", err)
	}
	idx := NewPostgresIndex(pool, logger)
	if err := idx.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return idx, nil
}

func (p *PostgresIndex) ensureSchema(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS scenarios (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			tier       TEXT NOT NULL,
			status     TEXT NOT NULL,
			turn       INTEGER NOT NULL,
			path       TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure archive schema: %w", err)
	}
	return nil
}

// Record upserts one scenario's metadata after each persisted turn.
func (p *PostgresIndex) Record(ctx context.Context, meta schemas.ScenarioMeta) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO scenarios (id, title, tier, status, turn, path, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			tier = EXCLUDED.tier,
			status = EXCLUDED.status,
			turn = EXCLUDED.turn,
			path = EXCLUDED.path,
			updated_at = EXCLUDED.updated_at;
	`, meta.ID, meta.Title, meta.Tier, string(meta.Status), meta.Turn, meta.Path, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record scenario %q: %w", meta.ID, err)
	}
	return nil
}

// List returns scenarios matching the filter, newest first. The filter
// matches title substring or exact status.
func (p *PostgresIndex) List(ctx context.Context, filter string) ([]schemas.ScenarioMeta, error) {
	query := `SELECT id, title, tier, status, turn, path FROM scenarios`
	var args []any
	if filter != "" {
		query += ` WHERE status = $1 OR title ILIKE $2`
		args = append(args, filter, "%"+filter+"%")
	}
	query += ` ORDER BY updated_at DESC;`

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	var out []schemas.ScenarioMeta
	for rows.Next() {
		var m schemas.ScenarioMeta
		var status string
		if err := rows.Scan(&m.ID, &m.Title, &m.Tier, &status, &m.Turn, &m.Path); err != nil {
			return nil, fmt.Errorf("failed to scan scenario row: %w", err)
		}
		m.Status = schemas.SessionStatus(strings.TrimSpace(status))
		out = append(out, m)
	}
	return out, rows.Err()
}
