package schemas

// -- Adjudication Schemas --

// Verdict is the three-level plausibility outcome of an adjudicated action.
type Verdict string

const (
	// VerdictStrong grants the full intended effect.
	VerdictStrong Verdict = "Strong"
	// VerdictModerate grants partial success plus a specified complication.
	VerdictModerate Verdict = "Moderate"
	// VerdictWeak is failure or backfire, specified rather than vague.
	VerdictWeak Verdict = "Weak"
)

// Demote returns the verdict one level down. Weak stays Weak.
func (v Verdict) Demote() Verdict {
	switch v {
	case VerdictStrong:
		return VerdictModerate
	case VerdictModerate:
		return VerdictWeak
	default:
		return VerdictWeak
	}
}

// Consequence is an emergent event not ordered by any actor, derived from
// the current state. Every adjudicated action carries at least one.
type Consequence struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// Trigger names the state condition the consequence was derived from,
	// so it is traceable rather than arbitrary.
	Trigger string `json:"trigger,omitempty"`
}

// ActionQuery is the input to the judgment oracle's scoring call.
type ActionQuery struct {
	Action  Decision `json:"action"`
	Actor   *Actor   `json:"actor"`
	Context string   `json:"context"`
	// Severity is the action's escalation level relative to the scenario
	// baseline, 0 meaning at-baseline.
	Severity int `json:"severity"`
	// Justification grounds any above-baseline severity. Unjustified
	// escalation is demoted one verdict level.
	Justification string `json:"justification,omitempty"`
}

// ActionScore is the judgment oracle's verdict raw material: an
// argument-for-success score and a counter-argument score, each 0-10,
// plus narrative text for the turn log.
type ActionScore struct {
	Support   float64 `json:"support"`
	Counter   float64 `json:"counter"`
	Narrative string  `json:"narrative"`
	// Degraded is set when the score came from the deterministic fallback
	// rather than the live oracle.
	Degraded bool `json:"degraded,omitempty"`
}

// AdjudicationOutcome is the immutable record of one resolved action. It is
// created once, appended to the turn's journal entry, and never mutated.
type AdjudicationOutcome struct {
	Action  Decision    `json:"action"`
	Verdict Verdict     `json:"verdict"`
	Score   ActionScore `json:"score"`
	// Deltas are the resulting state changes, applied by the turn engine.
	Deltas []ActorDelta `json:"deltas"`
	// Consequences holds the mandatory unexpected-consequence records.
	// Never empty.
	Consequences []Consequence `json:"consequences"`
	// Signals are the belief-relevant observations other actors draw from
	// the action, classified by credibility.
	Signals []ObservedSignal `json:"signals,omitempty"`
	// Demoted records that the escalation check reduced the verdict.
	Demoted bool `json:"demoted,omitempty"`
}
