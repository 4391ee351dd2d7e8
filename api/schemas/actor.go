package schemas

// -- Actor Schemas --

// PersonaArchetype is the closed set of behavioral templates an actor can be
// built from. The archetype is fixed for the life of a session; drift is
// detected and flagged by the turn engine, never applied silently.
type PersonaArchetype string

const (
	ArchetypeHawk        PersonaArchetype = "hawk"
	ArchetypeDove        PersonaArchetype = "dove"
	ArchetypePragmatist  PersonaArchetype = "pragmatist"
	ArchetypeIdeologue   PersonaArchetype = "ideologue"
	ArchetypeBureaucrat  PersonaArchetype = "bureaucrat"
	ArchetypeOpportunist PersonaArchetype = "opportunist"
	ArchetypeDisruptor   PersonaArchetype = "disruptor"
	ArchetypeCustom      PersonaArchetype = "custom"
)

// ValidArchetypes lists every accepted archetype for setup validation.
var ValidArchetypes = []PersonaArchetype{
	ArchetypeHawk, ArchetypeDove, ArchetypePragmatist, ArchetypeIdeologue,
	ArchetypeBureaucrat, ArchetypeOpportunist, ArchetypeDisruptor, ArchetypeCustom,
}

// RiskAttitude classifies how an actor weighs gains against losses relative
// to its reference point.
type RiskAttitude string

const (
	RiskSeeking RiskAttitude = "risk-seeking"
	RiskNeutral RiskAttitude = "risk-neutral"
	RiskAverse  RiskAttitude = "risk-averse"
)

// RiskPosture anchors an actor's risk attitude to a status-quo reference
// point. Actors below their reference point behave as if in the loss domain.
type RiskPosture struct {
	Attitude RiskAttitude `json:"attitude" yaml:"attitude"`
	// ReferencePoint is the status-quo utility the actor measures outcomes
	// against, on the same 0-100 scale as resources.
	ReferencePoint float64 `json:"reference_point" yaml:"reference_point"`
}

// AttentionStyle bounds how many simultaneous signals an actor can process
// in a single turn.
type AttentionStyle string

const (
	AttentionReactive AttentionStyle = "reactive"
	AttentionAdaptive AttentionStyle = "adaptive"
	AttentionAgile    AttentionStyle = "agile"
)

// SignalCap returns the maximum number of belief updates the style permits
// per turn. A return of 0 means unbounded.
func (a AttentionStyle) SignalCap() int {
	switch a {
	case AttentionReactive:
		return 1
	case AttentionAdaptive:
		return 3
	default:
		return 0
	}
}

// Stance is the relationship of one actor toward another.
type Stance string

const (
	StanceAllied    Stance = "allied"
	StanceNeutral   Stance = "neutral"
	StanceHostile   Stance = "hostile"
	StanceDependent Stance = "dependent"
)

// ResourceLevel is a named capability on a 0-100 scale with its per-turn
// trend history. Trend holds the value at the end of each completed turn.
type ResourceLevel struct {
	Value float64   `json:"value" yaml:"value"`
	Trend []float64 `json:"trend,omitempty" yaml:"trend,omitempty"`
}

// Actor is a simulated party in a scenario. ID and Archetype are immutable
// for the session; resources and relationships are mutated only by the turn
// engine after adjudication.
type Actor struct {
	ID        string           `json:"id" yaml:"id"`
	Name      string           `json:"name" yaml:"name"`
	Role      string           `json:"role" yaml:"role"`
	Archetype PersonaArchetype `json:"archetype" yaml:"archetype"`
	// Objectives are ranked, most important first.
	Objectives []string `json:"objectives" yaml:"objectives"`
	// RedLines are constraints the actor never violates, whatever the payoff.
	RedLines      []string                 `json:"red_lines,omitempty" yaml:"red_lines,omitempty"`
	Resources     map[string]ResourceLevel `json:"resources" yaml:"resources"`
	Relationships map[string]Stance        `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	Risk          RiskPosture              `json:"risk" yaml:"risk"`
	Attention     AttentionStyle           `json:"attention" yaml:"attention"`
	// Adversary marks actors played against the user's side. Adjudication
	// applies the blue-bias calibration check to their actions.
	Adversary bool `json:"adversary,omitempty" yaml:"adversary,omitempty"`
	// Player marks the actor whose decisions come from the user; all other
	// actors act through the judgment oracle.
	Player bool `json:"player,omitempty" yaml:"player,omitempty"`
}

// Clone returns a deep copy so read-only consumers (snapshots, Monte Carlo
// runs) cannot alias live store state.
func (a *Actor) Clone() *Actor {
	c := *a
	c.Objectives = append([]string(nil), a.Objectives...)
	c.RedLines = append([]string(nil), a.RedLines...)
	c.Resources = make(map[string]ResourceLevel, len(a.Resources))
	for k, v := range a.Resources {
		v.Trend = append([]float64(nil), v.Trend...)
		c.Resources[k] = v
	}
	c.Relationships = make(map[string]Stance, len(a.Relationships))
	for k, v := range a.Relationships {
		c.Relationships[k] = v
	}
	return &c
}

// ActorDelta describes a state change to apply to a single actor. Zero-value
// fields are left untouched.
type ActorDelta struct {
	ActorID string `json:"actor_id"`
	// ResourceDeltas are added to the named resource values, clamped to [0,100].
	ResourceDeltas map[string]float64 `json:"resource_deltas,omitempty"`
	// StanceChanges replace the stance toward the keyed actor.
	StanceChanges map[string]Stance `json:"stance_changes,omitempty"`
	// Reason is recorded in the store change log for the journal.
	Reason string `json:"reason,omitempty"`
}
