package schemas

import "time"

// -- Snapshot & Branch Schemas --

// BranchStatus marks a timeline as playable or retired.
type BranchStatus string

const (
	BranchActive BranchStatus = "active"
	BranchPruned BranchStatus = "pruned"
)

// MaxActiveBranches is the hard ceiling on simultaneously active branches
// per scenario. A fork past the ceiling is rejected, never silently evicted.
const MaxActiveBranches = 3

// Branch is one timeline of a scenario. The main branch has ForkTurn 0.
type Branch struct {
	ID          string       `json:"id"`
	ForkTurn    int          `json:"fork_turn"`
	CurrentTurn int          `json:"current_turn"`
	Status      BranchStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	LastActive  time.Time    `json:"last_active"`
}

// Snapshot is the full serialized session state at the end of a turn,
// immutable once written. Rewind never edits a snapshot; it forks a new
// branch and writes new entries there.
type Snapshot struct {
	ID      string    `json:"id"`
	Turn    int       `json:"turn"`
	Branch  string    `json:"branch"`
	TakenAt time.Time `json:"taken_at"`

	Session       ScenarioSession `json:"session"`
	Actors        []*Actor        `json:"actors"`
	Beliefs       []*Distribution `json:"beliefs"`
	ActiveInjects []Inject        `json:"active_injects"`
	InjectHistory []Inject        `json:"inject_history"`
}

// Clone returns a deep copy of the snapshot so exploratory runs cannot
// touch canonical state.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	c.Actors = make([]*Actor, len(s.Actors))
	for i, a := range s.Actors {
		c.Actors[i] = a.Clone()
	}
	c.Beliefs = make([]*Distribution, len(s.Beliefs))
	for i, d := range s.Beliefs {
		c.Beliefs[i] = d.Clone()
	}
	c.ActiveInjects = append([]Inject(nil), s.ActiveInjects...)
	c.InjectHistory = append([]Inject(nil), s.InjectHistory...)
	return &c
}

// TurnRecord is one append-only journal entry: the brief, the menu, the
// choice, the adjudication, and the sentinel results for a single turn.
type TurnRecord struct {
	Turn    int    `json:"turn"`
	Branch  string `json:"branch"`
	Brief   string `json:"brief"`
	Options []DecisionOption `json:"options"`
	Outcome *AdjudicationOutcome `json:"outcome"`
	// BiasFlags are the pre-adjudication sentinel findings for the turn.
	BiasFlags []BiasFlag `json:"bias_flags,omitempty"`
	// Regenerated counts how many times the post-adjudication checklist
	// forced the turn to be rebuilt before it persisted.
	Regenerated int `json:"regenerated,omitempty"`
	// DriftNotes flag archetype drift; drift is reported, never applied.
	DriftNotes []string `json:"drift_notes,omitempty"`
	// Changes is the store's mutation log drained at turn end, so every
	// resource and belief movement is traceable to its turn.
	Changes []ChangeRecord `json:"changes,omitempty"`
	At      time.Time      `json:"at"`
}

// BiasFlag is one named-bias detection with its suggested challenge.
type BiasFlag struct {
	ActorID   string `json:"actor_id"`
	Bias      string `json:"bias"`
	Evidence  string `json:"evidence"`
	Challenge string `json:"challenge"`
	Turn      int    `json:"turn"`
}
