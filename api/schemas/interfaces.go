package schemas

import "context"

// -- Core Service Interfaces --

// Oracle is the judgment boundary: the engine calls it for plausibility
// scores and emergent consequences but never implements the judgment
// itself. Implementations may be LLM-backed, rule-based, or human-in-the-
// loop; tests use deterministic stubs behind the same contract.
type Oracle interface {
	// ScoreAction returns an argument-for-success score, a counter-argument
	// score (both 0-10), and narrative text for the action.
	ScoreAction(ctx context.Context, q ActionQuery) (ActionScore, error)
	// GenerateConsequence derives one emergent event from the current
	// state. The returned record must be non-empty.
	GenerateConsequence(ctx context.Context, snap *Snapshot, outcome Verdict) (Consequence, error)
}

// StateStore is the actor & belief store contract consumed by the turn
// engine, the belief update engine, and the journal manager.
type StateStore interface {
	GetActor(id string) (*Actor, error)
	UpdateActor(delta ActorDelta) (*Actor, error)
	Actors() []*Actor
	GetBelief(holder, subject string) (*Distribution, error)
	SetBelief(holder, subject, hypothesis string, p float64) error
	MarkExclusive(holder, subject string, hypotheses map[string]float64) error
	Distributions() []*Distribution
	// DrainChangeLog returns and clears the mutation log accumulated since
	// the last drain. The journal manager consumes it at turn end.
	DrainChangeLog() []ChangeRecord
}

// ChangeRecord is one entry in the store's mutation log.
type ChangeRecord struct {
	Kind    string `json:"kind"` // "actor" or "belief"
	ActorID string `json:"actor_id"`
	Detail  string `json:"detail"`
}

// JournalManager is the branch and snapshot persistence contract.
type JournalManager interface {
	AppendTurn(rec TurnRecord) error
	WriteSnapshot(snap *Snapshot) (string, error)
	LatestSnapshot() (*Snapshot, error)
	Rewind(n int) (*Branch, *Snapshot, error)
	ListBranches() []Branch
	SwitchBranch(id string) (*Snapshot, error)
	PruneBranch(id string) error
}

// ScenarioIndex lists known scenarios for the `list` command. Backed by
// Postgres when configured, with a filesystem fallback.
type ScenarioIndex interface {
	Record(ctx context.Context, meta ScenarioMeta) error
	List(ctx context.Context, filter string) ([]ScenarioMeta, error)
}

// ScenarioMeta is the index row describing one scenario journal.
type ScenarioMeta struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Tier   string        `json:"tier"`
	Status SessionStatus `json:"status"`
	Turn   int           `json:"turn"`
	Path   string        `json:"path"`
}
