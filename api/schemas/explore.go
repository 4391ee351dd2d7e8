package schemas

// -- Monte Carlo Schemas --

// VariationAxis is one of the five dimensions the explorer perturbs across
// its runs. At least three axes vary in every exploration; with five or
// more runs, every axis is varied in at least one run.
type VariationAxis string

const (
	AxisActorIntensity   VariationAxis = "actor-intensity"
	AxisInformationState VariationAxis = "information-state"
	AxisRandomEvent      VariationAxis = "random-event"
	AxisAdjudicationFork VariationAxis = "adjudication-fork"
	AxisMacroContext     VariationAxis = "macro-context"
)

// AllVariationAxes lists the five axes in canonical order.
var AllVariationAxes = []VariationAxis{
	AxisActorIntensity, AxisInformationState, AxisRandomEvent,
	AxisAdjudicationFork, AxisMacroContext,
}

// IterationOutcome is the result of one independent exploration run.
type IterationOutcome struct {
	Run        int             `json:"run"`
	Varied     []VariationAxis `json:"varied"`
	Verdict    Verdict         `json:"verdict"`
	NetDelta   float64         `json:"net_delta"`
	Narrative  string          `json:"narrative"`
	Escalation bool            `json:"escalation"`
}

// OutcomeCluster groups similar iteration outcomes.
type OutcomeCluster struct {
	Label string `json:"label"`
	// Frequency is the share of completed runs in this cluster, 0-100.
	Frequency int `json:"frequency"`
	// Differentiator is the key variable separating this cluster from the
	// others.
	Differentiator string `json:"differentiator"`
	// Representative is one run's narrative standing in for the cluster.
	Representative string `json:"representative"`
	Runs           []int  `json:"runs"`
}

// ClusterReport is the explorer's output. It is heuristic and exploratory;
// frequencies are never calibrated probabilities and are labeled as such.
type ClusterReport struct {
	Requested int              `json:"requested"`
	Completed int              `json:"completed"`
	Clusters  []OutcomeCluster `json:"clusters"`
	// SensitiveVariable is the single axis whose variation most changed
	// outcomes, feeding the value-of-information note.
	SensitiveVariable VariationAxis `json:"sensitive_variable"`
	// InformationNote suggests what intelligence would be worth gathering
	// before committing, derived from SensitiveVariable.
	InformationNote string `json:"information_note"`
	// Disclaimer is always set: results are heuristic, not statistics.
	Disclaimer string `json:"disclaimer"`
}
