package schemas

// -- Decision Schemas --

// DecisionOption is one entry on a turn's decision menu. Options are
// immutable once presented; exactly one is selected per turn, or the player
// substitutes a free-text custom action.
type DecisionOption struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	// Domain tags the instrument of power the option exercises
	// (military, diplomatic, economic, information, ...).
	Domain string `json:"domain"`
	// Risk is the failure likelihood on a 0-100 scale.
	Risk int `json:"risk"`
	// Impact is a qualitative magnitude note ("limited", "decisive", ...).
	Impact string `json:"impact"`
	// Alignment scores the option against each ranked decision criterion.
	Alignment map[string]float64 `json:"alignment,omitempty"`
	// DoNothing marks the explicit status-quo option. It is always listed,
	// never a hidden default.
	DoNothing bool `json:"do_nothing,omitempty"`
	// Custom marks an ad hoc free-text action supplied by the player.
	Custom bool `json:"custom,omitempty"`
}

// SuccessPercent returns the success framing of the option's risk value.
// Options are always presented dual-framed to blunt framing effects.
func (o DecisionOption) SuccessPercent() int { return 100 - o.Risk }

// FailurePercent returns the failure framing of the option's risk value.
func (o DecisionOption) FailurePercent() int { return o.Risk }

// Decision is the player's (or an AI actor's) resolved choice for a turn.
type Decision struct {
	ActorID string `json:"actor_id"`
	// TargetID names the actor the action is directed at, when any.
	TargetID string         `json:"target_id,omitempty"`
	Option   DecisionOption `json:"option"`
	// Rationale is the stated reasoning, scanned by the bias sentinel.
	Rationale string `json:"rationale,omitempty"`
}

// DecisionPoint captures everything the Monte Carlo explorer needs to replay
// one decision under varied conditions: the menu, the candidate choice, and
// the snapshot it was taken against.
type DecisionPoint struct {
	Turn     int              `json:"turn"`
	ActorID  string           `json:"actor_id"`
	Options  []DecisionOption `json:"options"`
	Chosen   DecisionOption   `json:"chosen"`
	Snapshot *Snapshot        `json:"snapshot"`
}
