// File: internal/oracle/resilient.go
package oracle

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
	"github.com/xkilldash9x/stratagem-cli/internal/config"
)

// Resilient wraps a primary oracle with a bounded per-call timeout and the
// deterministic fallback. It never returns an error for oracle
// unavailability; the returned score or consequence is marked degraded
// instead, so the turn engine keeps moving.
type Resilient struct {
	primary  schemas.Oracle
	fallback schemas.Oracle
	timeout  time.Duration
	logger   *zap.Logger
}

var _ schemas.Oracle = (*Resilient)(nil)

// NewResilient wraps primary with timeout-plus-fallback semantics.
func NewResilient(primary schemas.Oracle, timeout time.Duration, logger *zap.Logger) *Resilient {
	return &Resilient{
		primary:  primary,
		fallback: NewFallback(),
		timeout:  timeout,
		logger:   logger.Named("oracle"),
	}
}

// FromConfig builds the configured oracle stack: genai behind Resilient, or
// the bare fallback when no provider is configured.
func FromConfig(ctx context.Context, cfg config.OracleConfig, logger *zap.Logger) (schemas.Oracle, error) {
	switch cfg.Provider {
	case "genai":
		primary, err := NewGenAIOracle(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return NewResilient(primary, cfg.Timeout, logger), nil
	default:
		return NewResilient(NewFallback(), cfg.Timeout, logger), nil
	}
}

// ScoreAction delegates to the primary oracle and degrades on any failure.
func (r *Resilient) ScoreAction(ctx context.Context, q schemas.ActionQuery) (schemas.ActionScore, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	score, err := r.primary.ScoreAction(callCtx, q)
	if err != nil {
		r.logger.Warn("Oracle unavailable for scoring, using deterministic fallback",
			zap.String("action", q.Action.Option.Label),
			zap.Error(err))
		return r.fallback.ScoreAction(ctx, q)
	}
	return score, nil
}

// GenerateConsequence delegates and degrades the same way. The fallback
// guarantees a non-empty record, preserving the one-consequence invariant.
func (r *Resilient) GenerateConsequence(ctx context.Context, snap *schemas.Snapshot, verdict schemas.Verdict) (schemas.Consequence, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	c, err := r.primary.GenerateConsequence(callCtx, snap, verdict)
	if err != nil || c.Description == "" {
		if err != nil {
			r.logger.Warn("Oracle unavailable for consequence, using deterministic fallback", zap.Error(err))
		}
		return r.fallback.GenerateConsequence(ctx, snap, verdict)
	}
	return c, nil
}
