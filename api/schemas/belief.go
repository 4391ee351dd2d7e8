package schemas

// -- Belief Schemas --

// Belief is one actor's probabilistic assessment of a hypothesis about
// another actor.
type Belief struct {
	Holder      string  `json:"holder"`
	Subject     string  `json:"subject"`
	Hypothesis  string  `json:"hypothesis"`
	Probability float64 `json:"probability"`
}

// Distribution holds every hypothesis an actor entertains about one subject.
// When Exclusive is true the hypotheses are mutually exclusive and the
// probabilities must sum to 1; independent hypothesis sets carry no sum
// constraint beyond the per-value [0,1] bound.
type Distribution struct {
	Holder    string             `json:"holder"`
	Subject   string             `json:"subject"`
	Exclusive bool               `json:"exclusive"`
	P         map[string]float64 `json:"p"`
}

// Clone returns an independent copy of the distribution.
func (d *Distribution) Clone() *Distribution {
	c := *d
	c.P = make(map[string]float64, len(d.P))
	for k, v := range d.P {
		c.P[k] = v
	}
	return &c
}

// Sum returns the total probability mass across all hypotheses.
func (d *Distribution) Sum() float64 {
	var s float64
	for _, v := range d.P {
		s += v
	}
	return s
}

// SignalCredibility tags how much an observed action should be trusted as
// evidence of intent. Costly signals (ones expensive to fake) move beliefs
// the most; cheap talk barely moves them.
type SignalCredibility string

const (
	SignalCostly    SignalCredibility = "costly"
	SignalCheapTalk SignalCredibility = "cheap-talk"
	SignalMixed     SignalCredibility = "mixed"
)

// Weight converts the credibility tag into an update multiplier.
func (s SignalCredibility) Weight() float64 {
	switch s {
	case SignalCostly:
		return 1.0
	case SignalMixed:
		return 0.6
	case SignalCheapTalk:
		return 0.3
	default:
		return 0.3
	}
}

// ObservedSignal is one turn's worth of evidence about a subject actor,
// consumed by the belief update engine.
type ObservedSignal struct {
	// Subject is the actor whose behavior was observed.
	Subject string `json:"subject"`
	// Hypothesis is the belief hypothesis the signal bears on.
	Hypothesis string `json:"hypothesis"`
	// Supports is true when the observation is evidence for the hypothesis.
	Supports    bool              `json:"supports"`
	Credibility SignalCredibility `json:"credibility"`
	Description string            `json:"description,omitempty"`
}
