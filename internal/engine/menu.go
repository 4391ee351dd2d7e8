// File: internal/engine/menu.go
// Description: Deterministic generation of the turn's decision menu and of
// non-player actions, seeded from the session so replays reproduce.
package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
)

// optionTemplate seeds menu generation per instrument of power.
type optionTemplate struct {
	domain   string
	label    string
	desc     string
	baseRisk int
	impact   string
}

var optionTemplates = []optionTemplate{
	{"military", "Apply direct pressure", "Commit forces to a limited, visible operation.", 65, "decisive"},
	{"diplomatic", "Open a back channel", "Quietly probe for an off-ramp through a trusted intermediary.", 25, "limited"},
	{"economic", "Tighten the screws", "Target the opponent's most exposed economic dependency.", 45, "substantial"},
	{"information", "Shape the narrative", "Release selected intelligence to frame the next move.", 35, "limited"},
	{"military", "Posture and reinforce", "Move assets visibly without committing them.", 40, "substantial"},
	{"diplomatic", "Convene allies", "Force partners to put their commitments on the record.", 30, "substantial"},
}

// generateMenu builds the turn's options: domain actions scored against the
// ranked criteria plus the explicit do-nothing entry. Risk values wobble
// deterministically with the session rng so menus differ between turns.
func (e *Engine) generateMenu(session *schemas.ScenarioSession) []schemas.DecisionOption {
	count := e.cfg.MenuSize - 1 // reserve one slot for do-nothing
	if count < 1 {
		count = 1
	}
	if count > len(optionTemplates) {
		count = len(optionTemplates)
	}

	start := e.rng.Intn(len(optionTemplates))
	options := make([]schemas.DecisionOption, 0, count+1)
	for i := 0; i < count; i++ {
		tpl := optionTemplates[(start+i)%len(optionTemplates)]
		risk := tpl.baseRisk + e.rng.Intn(21) - 10
		if risk < 5 {
			risk = 5
		}
		if risk > 95 {
			risk = 95
		}
		options = append(options, schemas.DecisionOption{
			Label:       tpl.label,
			Description: tpl.desc,
			Domain:      tpl.domain,
			Risk:        risk,
			Impact:      tpl.impact,
			Alignment:   e.scoreAlignment(session.Criteria, tpl.domain, risk),
		})
	}

	// The status quo is always an explicit, priced option, never a hidden
	// default.
	options = append(options, schemas.DecisionOption{
		Label:       "Hold position",
		Description: "Take no new action this turn and absorb whatever comes.",
		Domain:      "posture",
		Risk:        15,
		Impact:      "none",
		Alignment:   e.scoreAlignment(session.Criteria, "posture", 15),
		DoNothing:   true,
	})
	return options
}

// scoreAlignment rates an option against each ranked criterion. Scores are
// deterministic per (criterion, domain) within a session.
func (e *Engine) scoreAlignment(criteria []string, domain string, risk int) map[string]float64 {
	if len(criteria) == 0 {
		return nil
	}
	out := make(map[string]float64, len(criteria))
	for _, c := range criteria {
		base := 0.5
		lc := strings.ToLower(c)
		switch {
		case strings.Contains(lc, "escalat") && domain == "military":
			base = 0.2 // escalation-averse criteria punish military options
		case strings.Contains(lc, "speed") && risk >= 50:
			base = 0.8
		case strings.Contains(lc, "cost") && domain == "economic":
			base = 0.4
		}
		jitter := float64(e.rng.Intn(21)-10) / 100.0
		score := base + jitter
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		out[c] = score
	}
	return out
}

// generateAIDecision picks a non-player actor's move. The archetype rule
// table proposes candidates with its own preference first; the judgment
// oracle scores each and the widest margin wins, so an oracle tie or
// outage leaves the archetype preference standing.
func (e *Engine) generateAIDecision(ctx context.Context, actor *schemas.Actor) schemas.Decision {
	candidates := e.candidateDecisions(actor)
	best, bestMargin := candidates[0], float64(-100)
	for _, cand := range candidates {
		score, err := e.oracle.ScoreAction(ctx, schemas.ActionQuery{
			Action:  cand,
			Actor:   actor,
			Context: e.situation,
		})
		if err != nil {
			e.logger.Warn("Oracle unavailable for non-player action; archetype preference stands",
				zap.String("actor", actor.ID), zap.Error(err))
			return candidates[0]
		}
		if margin := score.Support - score.Counter; margin > bestMargin {
			best, bestMargin = cand, margin
		}
	}
	return best
}

// candidateDecisions builds the oracle's choices for one actor: the
// archetype-preferred template first, then two alternates from elsewhere in
// the table. Hawks escalate, doves de-escalate, opportunists read the board.
func (e *Engine) candidateDecisions(actor *schemas.Actor) []schemas.Decision {
	var idx int
	switch actor.Archetype {
	case schemas.ArchetypeHawk, schemas.ArchetypeDisruptor:
		idx = 0 // direct pressure
	case schemas.ArchetypeDove, schemas.ArchetypeBureaucrat:
		idx = 1 // back channel
	case schemas.ArchetypeOpportunist:
		idx = 2 // economic squeeze
	default:
		idx = e.rng.Intn(len(optionTemplates))
	}

	target := e.hostileTarget(actor)
	out := make([]schemas.Decision, 0, 3)
	for _, offset := range []int{0, 1, 3} {
		tpl := optionTemplates[(idx+offset)%len(optionTemplates)]
		risk := tpl.baseRisk
		if actor.Risk.Attitude == schemas.RiskSeeking {
			risk += 15
		}
		if actor.Risk.Attitude == schemas.RiskAverse {
			risk -= 15
		}
		out = append(out, schemas.Decision{
			ActorID:  actor.ID,
			TargetID: target,
			Option: schemas.DecisionOption{
				Label:       tpl.label,
				Description: tpl.desc,
				Domain:      tpl.domain,
				Risk:        risk,
				Impact:      tpl.impact,
			},
			Rationale: fmt.Sprintf("%s pursues %q in line with its %s posture.",
				actor.Name, topObjective(actor), actor.Archetype),
		})
	}
	return out
}

// hostileTarget picks the first hostile relationship in id order, so the
// choice is stable across runs.
func (e *Engine) hostileTarget(actor *schemas.Actor) string {
	hostiles := make([]string, 0, len(actor.Relationships))
	for other, stance := range actor.Relationships {
		if stance == schemas.StanceHostile {
			hostiles = append(hostiles, other)
		}
	}
	if len(hostiles) == 0 {
		return ""
	}
	sort.Strings(hostiles)
	return hostiles[0]
}

func topObjective(a *schemas.Actor) string {
	if len(a.Objectives) > 0 {
		return a.Objectives[0]
	}
	return "its interests"
}

// composeBrief writes the situation update. It reflects AI posture shifts
// in aggregate; the specific moves stay hidden until adjudication.
func (e *Engine) composeBrief(session *schemas.ScenarioSession, turn *Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### Situation, turn %d of %d\n\n", session.Turn, session.TotalTurns)
	if e.situation != "" && session.Turn == 1 {
		b.WriteString(e.situation)
		b.WriteString("\n\n")
	}

	domains := map[string]int{}
	for _, d := range turn.aiDecisions {
		domains[d.Option.Domain]++
	}
	if len(domains) > 0 {
		b.WriteString("Intelligence reads movement on the ")
		first := true
		for _, tpl := range optionTemplates {
			if n, ok := domains[tpl.domain]; ok && n > 0 {
				if !first {
					b.WriteString(", ")
				}
				b.WriteString(tpl.domain)
				first = false
				delete(domains, tpl.domain)
			}
		}
		b.WriteString(" front(s); intent unclear.\n")
	}

	for _, inj := range e.injects {
		if inj.Deployed && inj.DeployedTurn == session.Turn-1 {
			fmt.Fprintf(&b, "\nStill unresolved: %s — %s (choose: %s / %s)\n",
				inj.Title, inj.Description, inj.Dilemma.A, inj.Dilemma.B)
		}
	}
	return b.String()
}
