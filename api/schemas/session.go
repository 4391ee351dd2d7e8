package schemas

import "time"

// -- Session Schemas --

// Phase is the turn engine's state-machine position. The engine advances
// strictly in order; no phase may run before its predecessor's output exists.
type Phase string

const (
	PhaseSetup            Phase = "Setup"
	PhaseBriefing         Phase = "Briefing"
	PhaseAwaitingDecision Phase = "AwaitingDecision"
	PhaseAdjudicating     Phase = "Adjudicating"
	PhaseUpdating         Phase = "Updating"
	PhasePersisted        Phase = "Persisted"
	PhaseInjectActive     Phase = "InjectActive"
	PhaseTerminal         Phase = "Terminal"
)

// SessionStatus is the scenario lifecycle state recorded in the journal
// frontmatter.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusAbandoned SessionStatus = "abandoned"
)

// ScenarioSession is the explicit session value object threaded through the
// turn engine in place of ambient globals: current turn, active difficulty,
// criteria ranking, and the active branch pointer all live here.
type ScenarioSession struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Tier   string        `json:"tier"`
	Status SessionStatus `json:"status"`
	Phase  Phase         `json:"phase"`
	// Turn is 1-based; 0 means setup has not completed.
	Turn       int `json:"turn"`
	TotalTurns int `json:"total_turns"`
	// Difficulty scales adjudication thresholds and consequence severity.
	Difficulty string `json:"difficulty"`
	// Criteria is the ranked list of decision criteria options are scored
	// against, most important first.
	Criteria []string `json:"criteria"`
	// ActiveBranch points at the timeline the session is currently playing.
	ActiveBranch string    `json:"active_branch"`
	Seed         int64     `json:"seed"`
	StartedAt    time.Time `json:"started_at"`
	LastPlayedAt time.Time `json:"last_played_at"`
}

// ScenarioSpec is the setup-time description of a scenario, typically
// decoded from a YAML scenario file.
type ScenarioSpec struct {
	Title      string   `yaml:"title" json:"title"`
	Tier       string   `yaml:"tier" json:"tier"`
	Difficulty string   `yaml:"difficulty" json:"difficulty"`
	TotalTurns int      `yaml:"total_turns" json:"total_turns"`
	Criteria   []string `yaml:"criteria" json:"criteria"`
	Situation  string   `yaml:"situation" json:"situation"`
	Actors     []Actor  `yaml:"actors" json:"actors"`
	Injects    []Inject `yaml:"injects" json:"injects"`
	// ExclusiveBeliefs pre-declares mutually exclusive hypothesis sets,
	// keyed holder -> subject -> hypotheses.
	ExclusiveBeliefs []ExclusiveBeliefSet `yaml:"exclusive_beliefs,omitempty" json:"exclusive_beliefs,omitempty"`
	Seed             int64                `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// ExclusiveBeliefSet declares one mutually exclusive hypothesis set with its
// initial probabilities. The probabilities must sum to 1.
type ExclusiveBeliefSet struct {
	Holder     string             `yaml:"holder" json:"holder"`
	Subject    string             `yaml:"subject" json:"subject"`
	Hypotheses map[string]float64 `yaml:"hypotheses" json:"hypotheses"`
}
