// File: internal/sentinel/sentinel.go
// Description: Rule-based bias detection run at two checkpoints per turn:
// a rate-limited scan of actor reasoning before adjudication and four
// always-on structural checks after it.
package sentinel

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
)

// flagWindow is the rate limit: at most one flagged bias per actor per
// two-turn window.
const flagWindow = 2

// rule pairs a named bias with its textual signal and the challenge the
// player should be confronted with. Signals are deliberately blunt
// keyword heuristics; the sentinel is a tripwire, not a classifier.
type rule struct {
	bias      string
	signal    *regexp.Regexp
	challenge string
}

// catalog is the fixed table of named human biases the pre-adjudication
// checkpoint scans for.
var catalog = []rule{
	{"anchoring", regexp.MustCompile(`(?i)\b(initial estimate|first figure|as originally|sticking with the number)\b`),
		"Re-derive the estimate from current facts, ignoring the first figure quoted."},
	{"confirmation", regexp.MustCompile(`(?i)\b(as expected|confirms (what|our)|consistent with our view|proves we were right)\b`),
		"Name one observation this turn that cuts against the preferred reading."},
	{"sunk cost", regexp.MustCompile(`(?i)\b(already invested|come too far|wasted if we stop|can't back out now)\b`),
		"Evaluate the option as if arriving fresh, with no resources yet spent."},
	{"availability", regexp.MustCompile(`(?i)\b(just like last time|remember when|the last crisis|most recent example)\b`),
		"Check base rates: is the vivid case actually the typical case?"},
	{"planning fallacy", regexp.MustCompile(`(?i)\b(best case|should only take|no reason it would slip|smooth execution)\b`),
		"Take the outside view: how long did comparable operations actually take?"},
	{"groupthink", regexp.MustCompile(`(?i)\b(we all agree|unanimous|no objections|everyone is on board)\b`),
		"Assign a devil's advocate before the decision is locked."},
	{"status-quo", regexp.MustCompile(`(?i)\b(keep things as they are|no need to change|stay the course|doing nothing is safest)\b`),
		"Price the status quo as an active choice with its own risk number."},
	{"overconfidence", regexp.MustCompile(`(?i)\b(certain(ly)? succeed|cannot fail|guaranteed|no doubt)\b`),
		"State the failure probability out loud and what would make it higher."},
	{"loss-aversion", regexp.MustCompile(`(?i)\b(can't afford to lose|protect what we have|avoid any loss|too risky to gamble)\b`),
		"Reframe in gains: what is forfeited by not acting?"},
	{"framing", regexp.MustCompile(`(?i)\b(90% safe|only a [0-9]+% chance|framed as|put it this way)\b`),
		"Restate the option in the opposite frame before choosing."},
}

// Sentinel holds the per-actor rate-limit state for one session.
type Sentinel struct {
	logger *zap.Logger
	// lastFlagged maps actor id to the turn of its most recent flag.
	lastFlagged map[string]int
}

// New builds a sentinel with empty rate-limit state.
func New(logger *zap.Logger) *Sentinel {
	return &Sentinel{
		logger:      logger.Named("sentinel"),
		lastFlagged: make(map[string]int),
	}
}

// PreCheck scans a reasoning trace against the bias catalog. At most one
// bias is flagged per actor per two-turn window; the first catalog match
// wins within a turn.
func (s *Sentinel) PreCheck(actorID, reasoning string, turn int) *schemas.BiasFlag {
	if reasoning == "" {
		return nil
	}
	if last, ok := s.lastFlagged[actorID]; ok && turn-last < flagWindow {
		return nil
	}

	for _, r := range catalog {
		if loc := r.signal.FindString(reasoning); loc != "" {
			s.lastFlagged[actorID] = turn
			s.logger.Info("Bias flagged",
				zap.String("actor", actorID),
				zap.String("bias", r.bias),
				zap.Int("turn", turn))
			return &schemas.BiasFlag{
				ActorID:   actorID,
				Bias:      r.bias,
				Evidence:  strings.TrimSpace(loc),
				Challenge: r.challenge,
				Turn:      turn,
			}
		}
	}
	return nil
}

// TurnReview is the evidence the post-adjudication checkpoint verifies.
// The turn engine assembles it; the sentinel only judges it.
type TurnReview struct {
	Outcome *schemas.AdjudicationOutcome
	// DissentingActors lists actors whose stated position opposed the
	// chosen action this turn.
	DissentingActors []string
	// ProConPresented is true when both framings were shown before the
	// decision was accepted.
	ProConPresented bool
	// AdversaryCalibrated is true when adversary capability was reflected
	// in the adjudication (the blue-bias floor was applied or unneeded).
	AdversaryCalibrated bool
}

// CheckFailure names one failed structural check.
type CheckFailure struct {
	Check  string `json:"check"`
	Detail string `json:"detail"`
}

// PostCheck runs the four always-on structural checks. Any failure blocks
// the turn from persisting; the engine must regenerate it.
func (s *Sentinel) PostCheck(review TurnReview) []CheckFailure {
	var failures []CheckFailure

	if review.Outcome == nil {
		return []CheckFailure{{Check: "adjudication-present", Detail: "no outcome to review"}}
	}

	// 1. Escalation justified.
	if review.Outcome.Demoted {
		// Demotion is the documented remedy, not a failure; an escalation
		// that was neither justified nor demoted is.
	} else if q := review.Outcome.Action; q.Option.Risk >= 80 && review.Outcome.Verdict == schemas.VerdictStrong && review.Outcome.Score.Support-review.Outcome.Score.Counter < strongEvidenceMargin {
		failures = append(failures, CheckFailure{
			Check:  "escalation-justified",
			Detail: "high-risk action granted full effect without clearly dominant argument",
		})
	}

	// 2. At least one dissenting actor.
	if len(review.DissentingActors) == 0 {
		failures = append(failures, CheckFailure{
			Check:  "dissent-present",
			Detail: "no actor dissented from the chosen action",
		})
	}

	// 3. Pro and con presented before consensus.
	if !review.ProConPresented {
		failures = append(failures, CheckFailure{
			Check:  "pro-con-before-consensus",
			Detail: "decision accepted without dual framing",
		})
	}

	// 4. Adversary capability calibrated.
	if !review.AdversaryCalibrated {
		failures = append(failures, CheckFailure{
			Check:  "adversary-calibrated",
			Detail: "adversary action adjudicated below stated capability",
		})
	}

	if len(failures) > 0 {
		s.logger.Warn("Structural checklist failed, turn must regenerate",
			zap.Int("failures", len(failures)))
	}
	return failures
}

// strongEvidenceMargin is the score margin a high-risk Strong verdict must
// show to count as grounded escalation.
const strongEvidenceMargin = 4.0
