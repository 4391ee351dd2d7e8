// File: cmd/app.go
// Description: Shared wiring for subcommands: builds the engine stack from
// config and reopens persisted sessions from their journals.
package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
	"github.com/xkilldash9x/stratagem-cli/internal/adjudicate"
	"github.com/xkilldash9x/stratagem-cli/internal/archive"
	"github.com/xkilldash9x/stratagem-cli/internal/belief"
	"github.com/xkilldash9x/stratagem-cli/internal/config"
	"github.com/xkilldash9x/stratagem-cli/internal/engine"
	"github.com/xkilldash9x/stratagem-cli/internal/journal"
	"github.com/xkilldash9x/stratagem-cli/internal/observability"
	"github.com/xkilldash9x/stratagem-cli/internal/oracle"
	"github.com/xkilldash9x/stratagem-cli/internal/sentinel"
	"github.com/xkilldash9x/stratagem-cli/internal/store"
)

// app bundles the wired engine stack for one command invocation.
type app struct {
	cfg    config.Interface
	logger *zap.Logger
	store  *store.Store
	oracle schemas.Oracle
	engine *engine.Engine
}

// newApp builds the full stack from the loaded configuration. The journal
// is attached separately because new scenarios create one and resumed
// scenarios open one.
func newApp(ctx context.Context) (*app, error) {
	logger := observability.GetLogger()
	st := store.New(logger)

	orc, err := oracle.FromConfig(ctx, appCfg.Oracle(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build judgment oracle: %w", err)
	}

	eng := engine.New(
		appCfg.Engine(),
		logger,
		st,
		adjudicate.New(orc, logger),
		belief.New(logger),
		sentinel.New(logger),
		nil, // journal attached by the caller: Create for new, Open for resume
		orc,
	)
	return &app{cfg: appCfg, logger: logger, store: st, oracle: orc, engine: eng}, nil
}

// open loads an existing scenario journal and restores engine state from
// its newest snapshot on the active branch.
func (a *app) open(scenarioID string) (*journal.Manager, *schemas.ScenarioSession, error) {
	jm, err := journal.Open(a.cfg.Journal(), scenarioID, a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open scenario %q: %w", scenarioID, err)
	}
	a.engine.AttachJournal(jm)

	snap, err := jm.LatestSnapshot()
	if err != nil {
		return nil, nil, err
	}
	session := snap.Session
	a.engine.RestoreFrom(snap, &session)
	return jm, &session, nil
}

// scenarioIndex returns the configured index: Postgres when enabled, the
// filesystem skimmer otherwise. The cleanup func closes any pool.
func (a *app) scenarioIndex(ctx context.Context) (schemas.ScenarioIndex, error) {
	if a.cfg.Archive().Enabled {
		idx, err := archive.Connect(ctx, a.cfg.Archive().DSN, a.logger)
		if err != nil {
			return nil, err
		}
		return idx, nil
	}
	return archive.NewFSIndex(a.cfg.Journal().Dir, a.logger), nil
}

// recordMeta best-effort updates the scenario index after state changes.
func (a *app) recordMeta(ctx context.Context, jm *journal.Manager, session *schemas.ScenarioSession) {
	idx, err := a.scenarioIndex(ctx)
	if err != nil {
		a.logger.Warn("Scenario index unavailable", zap.Error(err))
		return
	}
	meta := schemas.ScenarioMeta{
		ID:     session.ID,
		Title:  session.Title,
		Tier:   session.Tier,
		Status: session.Status,
		Turn:   session.Turn,
		Path:   jm.Path(),
	}
	if err := idx.Record(ctx, meta); err != nil {
		a.logger.Warn("Failed to record scenario metadata", zap.Error(err))
	}
}
