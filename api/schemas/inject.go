package schemas

// -- Inject Schemas --

// InjectPolarity classifies a pre-seeded event as an opportunity or a
// crisis. Every scenario pool must contain at least one positive inject.
type InjectPolarity string

const (
	InjectPositive InjectPolarity = "positive"
	InjectNegative InjectPolarity = "negative"
)

// Dilemma is the pair of competing options an inject forces.
type Dilemma struct {
	A string `json:"a" yaml:"a"`
	B string `json:"b" yaml:"b"`
}

// Inject is a pre-seeded scenario event. Injects deploy once, at a turn
// chosen for dramatic fit rather than on a fixed schedule; one still
// undeployed when its deadline turn arrives is force-deployed then.
type Inject struct {
	ID          string         `json:"id" yaml:"id"`
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description" yaml:"description"`
	Dilemma     Dilemma        `json:"dilemma" yaml:"dilemma"`
	Deadline    int            `json:"deadline" yaml:"deadline"`
	Polarity    InjectPolarity `json:"polarity" yaml:"polarity"`
	// Deployed flips exactly once; DeployedTurn records when.
	Deployed     bool `json:"deployed,omitempty" yaml:"deployed,omitempty"`
	DeployedTurn int  `json:"deployed_turn,omitempty" yaml:"deployed_turn,omitempty"`
}
