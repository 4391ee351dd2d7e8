// File: internal/oracle/scripted.go
package oracle

import (
	"context"
	"sync"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
)

// Scripted is a deterministic oracle that replays pre-loaded scores in
// order, then repeats the last one. It backs unit tests and seeded Monte
// Carlo exploration, where reproducibility matters more than judgment.
type Scripted struct {
	mu           sync.Mutex
	scores       []schemas.ActionScore
	next         int
	consequence  schemas.Consequence
	scoreErr     error
	consErr      error
	ScoreCalls   int
	ConsequCalls int
}

var _ schemas.Oracle = (*Scripted)(nil)

// NewScripted builds a scripted oracle from a fixed score sequence.
func NewScripted(scores ...schemas.ActionScore) *Scripted {
	return &Scripted{
		scores: scores,
		consequence: schemas.Consequence{
			Title:       "Ripple effect",
			Description: "A neighboring party reads the move as precedent and quietly adjusts its own posture.",
			Trigger:     "scripted",
		},
	}
}

// WithConsequence overrides the canned consequence.
func (s *Scripted) WithConsequence(c schemas.Consequence) *Scripted {
	s.consequence = c
	return s
}

// FailWith makes subsequent calls return the given errors, simulating an
// unavailable oracle.
func (s *Scripted) FailWith(scoreErr, consErr error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scoreErr, s.consErr = scoreErr, consErr
	return s
}

// ScoreAction replays the next scripted score.
func (s *Scripted) ScoreAction(_ context.Context, _ schemas.ActionQuery) (schemas.ActionScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ScoreCalls++
	if s.scoreErr != nil {
		return schemas.ActionScore{}, s.scoreErr
	}
	if len(s.scores) == 0 {
		return schemas.ActionScore{Support: 5, Counter: 5, Narrative: "Scripted neutral outcome."}, nil
	}
	score := s.scores[s.next]
	if s.next < len(s.scores)-1 {
		s.next++
	}
	return score, nil
}

// GenerateConsequence returns the canned consequence.
func (s *Scripted) GenerateConsequence(_ context.Context, _ *schemas.Snapshot, _ schemas.Verdict) (schemas.Consequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ConsequCalls++
	if s.consErr != nil {
		return schemas.Consequence{}, s.consErr
	}
	return s.consequence, nil
}
