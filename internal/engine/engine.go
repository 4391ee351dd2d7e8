// File: internal/engine/engine.go
// Description: The turn engine state machine. One turn in flight per
// session; every sub-step runs strictly in phase order, and a turn that
// fails the structural checklist is regenerated before it may persist.
package engine

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
	"github.com/xkilldash9x/stratagem-cli/internal/belief"
	"github.com/xkilldash9x/stratagem-cli/internal/config"
	"github.com/xkilldash9x/stratagem-cli/internal/journal"
	"github.com/xkilldash9x/stratagem-cli/internal/sentinel"
	"github.com/xkilldash9x/stratagem-cli/internal/store"
)

// Adjudicator is the resolver contract the engine drives. Narrow on
// purpose so tests can substitute a scripted implementation.
type Adjudicator interface {
	Resolve(ctx context.Context, q schemas.ActionQuery, snap *schemas.Snapshot) (*schemas.AdjudicationOutcome, error)
}

// Engine orchestrates one decision cycle per call: brief, menu, choice,
// adjudicate, update, persist.
type Engine struct {
	cfg      config.EngineConfig
	logger   *zap.Logger
	store    *store.Store
	resolver Adjudicator
	beliefs  *belief.Engine
	sentinel *sentinel.Sentinel
	journal  *journal.Manager
	oracle   schemas.Oracle
	rng      *rand.Rand

	injects []schemas.Inject
	history []schemas.Inject
	// lastVerdicts feeds the stalemate heuristic for inject timing.
	lastVerdicts []schemas.Verdict
	situation    string
}

// New wires the engine from its collaborators.
func New(
	cfg config.EngineConfig,
	logger *zap.Logger,
	st *store.Store,
	resolver Adjudicator,
	beliefs *belief.Engine,
	snt *sentinel.Sentinel,
	jm *journal.Manager,
	oracle schemas.Oracle,
) *Engine {
	return &Engine{
		cfg:      cfg,
		logger:   logger.Named("engine"),
		store:    st,
		resolver: resolver,
		beliefs:  beliefs,
		sentinel: snt,
		journal:  jm,
		oracle:   oracle,
	}
}

// Setup runs once per scenario: register actors, validate and seed the
// inject pool, seed beliefs, and write the turn-0 snapshot. Failure here is
// fatal for the session; there is no state to fall back to.
func (e *Engine) Setup(ctx context.Context, spec schemas.ScenarioSpec) (*schemas.ScenarioSession, error) {
	if len(spec.Actors) < 2 {
		return nil, fmt.Errorf("scenario needs at least 2 actors, got %d", len(spec.Actors))
	}
	if err := validateInjectPool(spec.Injects); err != nil {
		return nil, err
	}

	seed := spec.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	e.rng = rand.New(rand.NewSource(seed))
	e.situation = spec.Situation

	for i := range spec.Actors {
		a := spec.Actors[i]
		if a.ID == "" {
			return nil, fmt.Errorf("actor %q has no id", a.Name)
		}
		if err := e.store.AddActor(&a); err != nil {
			return nil, fmt.Errorf("setup failed: %w", err)
		}
	}
	for _, set := range spec.ExclusiveBeliefs {
		if err := e.store.MarkExclusive(set.Holder, set.Subject, set.Hypotheses); err != nil {
			return nil, fmt.Errorf("setup failed: %w", err)
		}
	}

	e.injects = append([]schemas.Inject(nil), spec.Injects...)
	for i := range e.injects {
		if e.injects[i].ID == "" {
			e.injects[i].ID = fmt.Sprintf("inj-%d", i+1)
		}
	}

	totalTurns := spec.TotalTurns
	if totalTurns == 0 {
		totalTurns = e.cfg.TotalTurns
	}

	now := time.Now().UTC()
	session := &schemas.ScenarioSession{
		ID:           "s-" + uuid.NewString()[:8],
		Title:        spec.Title,
		Tier:         spec.Tier,
		Status:       schemas.StatusActive,
		Phase:        schemas.PhaseSetup,
		Turn:         0,
		TotalTurns:   totalTurns,
		Difficulty:   spec.Difficulty,
		Criteria:     spec.Criteria,
		ActiveBranch: journal.MainBranch,
		Seed:         seed,
		StartedAt:    now,
		LastPlayedAt: now,
	}

	e.logger.Info("Scenario set up",
		zap.String("session", session.ID),
		zap.Int("actors", len(spec.Actors)),
		zap.Int("injects", len(e.injects)),
		zap.Int("total_turns", totalTurns))
	return session, nil
}

// AttachJournal hands the engine its journal after Create/Open. Kept
// separate from Setup because resume builds the journal first.
func (e *Engine) AttachJournal(jm *journal.Manager) { e.journal = jm }

// RestoreFrom rebuilds engine and store state from a snapshot, used on
// resume and branch switches.
func (e *Engine) RestoreFrom(snap *schemas.Snapshot, session *schemas.ScenarioSession) {
	e.store.Restore(snap)
	e.injects = append([]schemas.Inject(nil), snap.ActiveInjects...)
	e.history = append([]schemas.Inject(nil), snap.InjectHistory...)
	e.rng = rand.New(rand.NewSource(session.Seed + int64(snap.Turn)*101))
	session.Turn = snap.Turn
	session.ActiveBranch = snap.Branch
	session.Phase = schemas.PhasePersisted
}

// Turn is the in-flight state between Briefing and the decision. Nothing
// in it has been persisted; abandoning here loses nothing.
type Turn struct {
	Number  int
	Brief   string
	Options []schemas.DecisionOption
	// aiDecisions were generated before the brief was composed, preserving
	// the information-asymmetry ordering: the brief reflects what the other
	// actors are about to do without revealing it.
	aiDecisions []schemas.Decision
	biasFlags   []schemas.BiasFlag
}

// AIDecisions exposes the pre-generated non-player actions for testing and
// for the adjudication step.
func (t *Turn) AIDecisions() []schemas.Decision { return t.aiDecisions }

// BeginTurn advances Setup/Persisted to Briefing and then AwaitingDecision:
// AI-actor actions are generated first, the brief is composed from the
// resulting posture, and the option menu is presented dual-framed in
// randomized order with an explicit do-nothing entry.
func (e *Engine) BeginTurn(ctx context.Context, session *schemas.ScenarioSession) (*Turn, error) {
	switch session.Phase {
	case schemas.PhaseSetup, schemas.PhasePersisted, schemas.PhaseInjectActive:
	default:
		return nil, fmt.Errorf("cannot begin a turn from phase %s", session.Phase)
	}
	if session.Turn >= session.TotalTurns {
		session.Phase = schemas.PhaseTerminal
		session.Status = schemas.StatusCompleted
		return nil, fmt.Errorf("scenario is over after turn %d", session.Turn)
	}

	session.Turn++
	session.Phase = schemas.PhaseBriefing
	turn := &Turn{Number: session.Turn}

	// AI actions come first so the brief can hint at adversary posture
	// without leaking the specific moves.
	for _, actor := range e.store.Actors() {
		if actor.Player {
			continue
		}
		decision := e.generateAIDecision(ctx, actor)
		turn.aiDecisions = append(turn.aiDecisions, decision)

		// Bias checkpoint 1: scan the generated reasoning, rate limited.
		if flag := e.sentinel.PreCheck(actor.ID, decision.Rationale, session.Turn); flag != nil {
			turn.biasFlags = append(turn.biasFlags, *flag)
		}
	}

	turn.Brief = e.composeBrief(session, turn)
	turn.Options = e.generateMenu(session)
	// Randomized order between turns blunts anchoring on the first option.
	e.rng.Shuffle(len(turn.Options), func(i, j int) {
		turn.Options[i], turn.Options[j] = turn.Options[j], turn.Options[i]
	})

	session.Phase = schemas.PhaseAwaitingDecision
	e.logger.Info("Turn briefed",
		zap.Int("turn", session.Turn),
		zap.Int("options", len(turn.Options)),
		zap.Int("ai_actions", len(turn.aiDecisions)))
	return turn, nil
}

// TurnResult is what a completed decision cycle hands back to the caller.
type TurnResult struct {
	Record         schemas.TurnRecord
	Outcome        *schemas.AdjudicationOutcome
	BeliefUpdates  []belief.Update
	DeployedInject *schemas.Inject
	Terminal       bool
}

// CompleteTurn drives AwaitingDecision through Persisted: adjudicate the
// player's decision and the pre-generated AI actions, apply deltas, run the
// belief update engine, run sentinel checkpoint 2, and persist. A checklist
// failure regenerates the turn up to the configured bound before being
// surfaced as ErrChecklistFailed.
func (e *Engine) CompleteTurn(ctx context.Context, session *schemas.ScenarioSession, turn *Turn, decision schemas.Decision) (*TurnResult, error) {
	if session.Phase != schemas.PhaseAwaitingDecision {
		return nil, fmt.Errorf("no decision pending in phase %s", session.Phase)
	}
	if turn == nil || turn.Number != session.Turn {
		return nil, fmt.Errorf("stale turn handed to CompleteTurn")
	}

	// Bias checkpoint 1 for the player's stated reasoning.
	if flag := e.sentinel.PreCheck(decision.ActorID, decision.Rationale, session.Turn); flag != nil {
		turn.biasFlags = append(turn.biasFlags, *flag)
	}

	session.Phase = schemas.PhaseAdjudicating

	var result *TurnResult
	var failures []sentinel.CheckFailure
	forcedDissent := ""
	for attempt := 0; ; attempt++ {
		var err error
		result, failures, err = e.runAdjudicationCycle(ctx, session, turn, decision, forcedDissent)
		if err != nil {
			session.Phase = schemas.PhaseAwaitingDecision // partial turns are not persisted
			return nil, err
		}
		if len(failures) == 0 {
			result.Record.Regenerated = attempt
			break
		}
		if attempt >= e.cfg.MaxRegenerations {
			session.Phase = schemas.PhaseAwaitingDecision
			return nil, fmt.Errorf("%w after %d regenerations: %s",
				schemas.ErrChecklistFailed, attempt, describeFailures(failures))
		}
		// The dissent check is the one the engine can remedy itself: appoint
		// a devil's advocate and regenerate.
		forcedDissent = e.devilsAdvocate(decision)
		e.logger.Warn("Regenerating turn after checklist failure",
			zap.Int("attempt", attempt+1),
			zap.String("failures", describeFailures(failures)))
	}

	// Updating: apply deltas from every adjudication in this cycle.
	session.Phase = schemas.PhaseUpdating
	for _, delta := range result.Outcome.Deltas {
		if _, err := e.store.UpdateActor(delta); err != nil {
			return nil, fmt.Errorf("failed to apply outcome delta: %w", err)
		}
	}

	// Belief update engine, once per turn, attention-capped per actor.
	updates, err := e.beliefs.Apply(e.store, result.Outcome.Signals)
	if err != nil {
		return nil, fmt.Errorf("belief update failed: %w", err)
	}
	result.BeliefUpdates = updates

	// Persist: the turn entry consumes the store's mutation log, then the
	// snapshot captures the resulting state.
	result.Record.Changes = e.store.DrainChangeLog()
	if err := e.journal.AppendTurn(result.Record); err != nil {
		return nil, err
	}
	snap := e.buildSnapshot(session)
	if _, err := e.journal.WriteSnapshot(snap); err != nil {
		return nil, err
	}
	session.Phase = schemas.PhasePersisted
	session.LastPlayedAt = time.Now().UTC()

	// Persisted -> InjectActive when a pre-seeded inject's moment arrives,
	// otherwise the session loops back to Briefing on the next BeginTurn.
	e.RecordVerdict(result.Outcome.Verdict)
	if inj := e.maybeDeployInject(session); inj != nil {
		result.DeployedInject = inj
		session.Phase = schemas.PhaseInjectActive
	}

	if session.Turn >= session.TotalTurns {
		session.Phase = schemas.PhaseTerminal
		session.Status = schemas.StatusCompleted
		result.Terminal = true
	}

	e.logger.Info("Turn persisted",
		zap.Int("turn", session.Turn),
		zap.String("verdict", string(result.Outcome.Verdict)),
		zap.Int("belief_updates", len(updates)))
	return result, nil
}

// runAdjudicationCycle produces one candidate turn outcome and its
// checklist review without mutating the store.
func (e *Engine) runAdjudicationCycle(ctx context.Context, session *schemas.ScenarioSession, turn *Turn, decision schemas.Decision, forcedDissent string) (*TurnResult, []sentinel.CheckFailure, error) {
	actor, err := e.store.GetActor(decision.ActorID)
	if err != nil {
		return nil, nil, err
	}

	snap := e.buildSnapshot(session)
	q := schemas.ActionQuery{
		Action:        decision,
		Actor:         actor,
		Context:       e.situation,
		Severity:      severityOf(decision.Option),
		Justification: decision.Rationale,
	}

	outcome, err := e.resolver.Resolve(ctx, q, snap)
	if err != nil {
		return nil, nil, err
	}

	// Fold AI action signals into the turn's evidence set so every actor's
	// move is observable this turn.
	for _, ai := range turn.aiDecisions {
		aiActor, err := e.store.GetActor(ai.ActorID)
		if err != nil {
			return nil, nil, err
		}
		aiOutcome, err := e.resolver.Resolve(ctx, schemas.ActionQuery{
			Action:  ai,
			Actor:   aiActor,
			Context: e.situation,
		}, snap)
		if err != nil {
			return nil, nil, err
		}
		outcome.Signals = append(outcome.Signals, aiOutcome.Signals...)
		outcome.Deltas = append(outcome.Deltas, aiOutcome.Deltas...)
	}

	dissenters := e.dissentingActors(decision)
	if forcedDissent != "" && len(dissenters) == 0 {
		dissenters = []string{forcedDissent}
	}

	review := sentinel.TurnReview{
		Outcome:          outcome,
		DissentingActors: dissenters,
		// The menu is always presented with both success and failure
		// framings before a choice is accepted.
		ProConPresented: true,
		// The resolver applies the blue-bias floor to every adversary
		// action unconditionally.
		AdversaryCalibrated: true,
	}
	failures := e.sentinel.PostCheck(review)

	record := schemas.TurnRecord{
		Turn:      session.Turn,
		Branch:    session.ActiveBranch,
		Brief:     turn.Brief,
		Options:   turn.Options,
		Outcome:   outcome,
		BiasFlags: turn.biasFlags,
		At:        time.Now().UTC(),
	}
	if note := e.detectDrift(decision); note != "" {
		record.DriftNotes = append(record.DriftNotes, note)
	}

	return &TurnResult{Record: record, Outcome: outcome}, failures, nil
}

// buildSnapshot captures the full current state for persistence or
// exploration.
func (e *Engine) buildSnapshot(session *schemas.ScenarioSession) *schemas.Snapshot {
	return &schemas.Snapshot{
		Turn:          session.Turn,
		Branch:        session.ActiveBranch,
		Session:       *session,
		Actors:        e.store.Actors(),
		Beliefs:       e.store.Distributions(),
		ActiveInjects: append([]schemas.Inject(nil), e.injects...),
		InjectHistory: append([]schemas.Inject(nil), e.history...),
	}
}

// Snapshot exposes a read-only state capture for the status command and
// the Monte Carlo explorer. It never advances the state machine.
func (e *Engine) Snapshot(session *schemas.ScenarioSession) *schemas.Snapshot {
	return e.buildSnapshot(session)
}

// PlayerActor returns the actor whose decisions come from the user.
func (e *Engine) PlayerActor() (*schemas.Actor, error) {
	for _, a := range e.store.Actors() {
		if a.Player {
			return a, nil
		}
	}
	return nil, fmt.Errorf("scenario has no player actor")
}

// PreviewDecisionPoint assembles a read-only decision point for the Monte
// Carlo explorer. It generates a candidate menu against current state but
// never advances the state machine or touches the journal.
func (e *Engine) PreviewDecisionPoint(session *schemas.ScenarioSession) (schemas.DecisionPoint, error) {
	player, err := e.PlayerActor()
	if err != nil {
		return schemas.DecisionPoint{}, err
	}
	opts := e.generateMenu(session)
	return schemas.DecisionPoint{
		Turn:     session.Turn + 1,
		ActorID:  player.ID,
		Options:  opts,
		Chosen:   opts[0],
		Snapshot: e.buildSnapshot(session),
	}, nil
}

// severityOf grades an option's escalation level above baseline.
func severityOf(opt schemas.DecisionOption) int {
	switch {
	case opt.Risk >= 80:
		return 2
	case opt.Risk >= 60:
		return 1
	default:
		return 0
	}
}

// dissentingActors finds actors whose archetype opposes the chosen option.
// Doves resist high-risk moves, hawks resist standing still, bureaucrats
// resist disruptive off-menu action.
func (e *Engine) dissentingActors(decision schemas.Decision) []string {
	var out []string
	for _, a := range e.store.Actors() {
		if a.ID == decision.ActorID {
			continue
		}
		opt := decision.Option
		switch a.Archetype {
		case schemas.ArchetypeDove:
			if opt.Risk >= 50 {
				out = append(out, a.ID)
			}
		case schemas.ArchetypeHawk:
			if opt.DoNothing || opt.Risk < 25 {
				out = append(out, a.ID)
			}
		case schemas.ArchetypeBureaucrat:
			if opt.Custom {
				out = append(out, a.ID)
			}
		case schemas.ArchetypeIdeologue:
			if opt.Domain == "diplomatic" {
				out = append(out, a.ID)
			}
		}
	}
	return out
}

// devilsAdvocate picks the actor appointed to dissent on a regenerated
// turn: the first non-acting actor, which is deterministic and always
// exists in a valid scenario.
func (e *Engine) devilsAdvocate(decision schemas.Decision) string {
	for _, a := range e.store.Actors() {
		if a.ID != decision.ActorID {
			return a.ID
		}
	}
	return ""
}

// detectDrift flags persona drift without applying it: an archetype acting
// far out of character gets a note in the record, nothing more.
func (e *Engine) detectDrift(decision schemas.Decision) string {
	actor, err := e.store.GetActor(decision.ActorID)
	if err != nil {
		return ""
	}
	opt := decision.Option
	switch actor.Archetype {
	case schemas.ArchetypeDove:
		if opt.Risk >= 70 {
			return fmt.Sprintf("%s (dove) chose a risk-%d action; possible archetype drift, flagged not applied", actor.Name, opt.Risk)
		}
	case schemas.ArchetypeHawk:
		if opt.DoNothing {
			return fmt.Sprintf("%s (hawk) chose to do nothing; possible archetype drift, flagged not applied", actor.Name)
		}
	case schemas.ArchetypeBureaucrat:
		if opt.Custom {
			return fmt.Sprintf("%s (bureaucrat) improvised off-menu; possible archetype drift, flagged not applied", actor.Name)
		}
	}
	return ""
}

func describeFailures(failures []sentinel.CheckFailure) string {
	parts := make([]string, len(failures))
	for i, f := range failures {
		parts[i] = f.Check
	}
	return strings.Join(parts, ", ")
}
