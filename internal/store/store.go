// File: internal/store/store.go
// Description: In-memory actor & belief store. Every mutation lands in a
// change log the journal manager drains at turn end.
package store

import (
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
)

// sumTolerance is the slack allowed when checking that a mutually exclusive
// hypothesis set sums to 1, absorbing float accumulation error.
const sumTolerance = 1e-6

// Store is the canonical holder of actor and belief state for one scenario
// session. It is safe for concurrent readers; the turn engine is the only
// writer during play.
type Store struct {
	mu        sync.RWMutex
	logger    *zap.Logger
	actors    map[string]*schemas.Actor
	order     []string
	beliefs   map[string]*schemas.Distribution // key: holder + "\x00" + subject
	changeLog []schemas.ChangeRecord
}

var _ schemas.StateStore = (*Store)(nil)

// New builds an empty store.
func New(logger *zap.Logger) *Store {
	return &Store{
		logger:  logger.Named("store"),
		actors:  make(map[string]*schemas.Actor),
		beliefs: make(map[string]*schemas.Distribution),
	}
}

func beliefKey(holder, subject string) string {
	return holder + "\x00" + subject
}

// AddActor registers an actor at setup. Duplicate ids are rejected.
func (s *Store) AddActor(a *schemas.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.actors[a.ID]; exists {
		return fmt.Errorf("actor %q already registered", a.ID)
	}
	s.actors[a.ID] = a.Clone()
	s.order = append(s.order, a.ID)
	return nil
}

// GetActor returns a copy of the actor, or ErrUnknownActor.
func (s *Store) GetActor(id string) (*schemas.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.actors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", schemas.ErrUnknownActor, id)
	}
	return a.Clone(), nil
}

// Actors returns copies of all actors in registration order.
func (s *Store) Actors() []*schemas.Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*schemas.Actor, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.actors[id].Clone())
	}
	return out
}

// UpdateActor applies a delta to one actor. Resource values clamp to
// [0,100]; each applied resource change extends that resource's trend.
func (s *Store) UpdateActor(delta schemas.ActorDelta) (*schemas.Actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[delta.ActorID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", schemas.ErrUnknownActor, delta.ActorID)
	}

	for name, d := range delta.ResourceDeltas {
		lvl := a.Resources[name]
		lvl.Value = math.Max(0, math.Min(100, lvl.Value+d))
		lvl.Trend = append(lvl.Trend, lvl.Value)
		a.Resources[name] = lvl
		s.logChange("actor", a.ID, fmt.Sprintf("%s %+.1f -> %.1f (%s)", name, d, lvl.Value, delta.Reason))
	}
	for other, stance := range delta.StanceChanges {
		if a.Relationships == nil {
			a.Relationships = make(map[string]schemas.Stance)
		}
		a.Relationships[other] = stance
		s.logChange("actor", a.ID, fmt.Sprintf("stance toward %s -> %s (%s)", other, stance, delta.Reason))
	}
	return a.Clone(), nil
}

// GetBelief returns a copy of the holder's distribution over the subject,
// or ErrUnknownActor when either actor is absent. A missing distribution
// for two known actors returns an empty independent one.
func (s *Store) GetBelief(holder, subject string) (*schemas.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.actors[holder]; !ok {
		return nil, fmt.Errorf("%w: holder %q", schemas.ErrUnknownActor, holder)
	}
	if _, ok := s.actors[subject]; !ok {
		return nil, fmt.Errorf("%w: subject %q", schemas.ErrUnknownActor, subject)
	}
	d, ok := s.beliefs[beliefKey(holder, subject)]
	if !ok {
		return &schemas.Distribution{Holder: holder, Subject: subject, P: map[string]float64{}}, nil
	}
	return d.Clone(), nil
}

// SetBelief sets one hypothesis probability, enforcing the [0,1] bound and,
// for exclusive sets, the sums-to-1 invariant.
func (s *Store) SetBelief(holder, subject, hypothesis string, p float64) error {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return fmt.Errorf("%w: probability %v outside [0,1]", schemas.ErrInvariantViolation, p)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actors[holder]; !ok {
		return fmt.Errorf("%w: holder %q", schemas.ErrUnknownActor, holder)
	}
	if _, ok := s.actors[subject]; !ok {
		return fmt.Errorf("%w: subject %q", schemas.ErrUnknownActor, subject)
	}

	key := beliefKey(holder, subject)
	d, ok := s.beliefs[key]
	if !ok {
		d = &schemas.Distribution{Holder: holder, Subject: subject, P: map[string]float64{}}
		s.beliefs[key] = d
	}

	if d.Exclusive {
		// The new value plus the rest of the set must still sum to 1.
		sum := p
		for h, v := range d.P {
			if h != hypothesis {
				sum += v
			}
		}
		if math.Abs(sum-1) > sumTolerance {
			return fmt.Errorf("%w: exclusive set %s->%s would sum to %.4f", schemas.ErrInvariantViolation, holder, subject, sum)
		}
	}

	d.P[hypothesis] = p
	s.logChange("belief", holder, fmt.Sprintf("P(%s | %s) = %.3f", hypothesis, subject, p))
	return nil
}

// MarkExclusive declares a mutually exclusive hypothesis set with its
// initial probabilities, which must sum to 1.
func (s *Store) MarkExclusive(holder, subject string, hypotheses map[string]float64) error {
	var sum float64
	for _, p := range hypotheses {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return fmt.Errorf("%w: probability %v outside [0,1]", schemas.ErrInvariantViolation, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > sumTolerance {
		return fmt.Errorf("%w: exclusive set sums to %.4f, want 1", schemas.ErrInvariantViolation, sum)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actors[holder]; !ok {
		return fmt.Errorf("%w: holder %q", schemas.ErrUnknownActor, holder)
	}
	if _, ok := s.actors[subject]; !ok {
		return fmt.Errorf("%w: subject %q", schemas.ErrUnknownActor, subject)
	}

	p := make(map[string]float64, len(hypotheses))
	for h, v := range hypotheses {
		p[h] = v
	}
	s.beliefs[beliefKey(holder, subject)] = &schemas.Distribution{
		Holder: holder, Subject: subject, Exclusive: true, P: p,
	}
	s.logChange("belief", holder, fmt.Sprintf("exclusive set over %s (%d hypotheses)", subject, len(p)))
	return nil
}

// ReplaceDistribution swaps in an updated distribution wholesale. Used by
// the belief update engine after renormalization; the same invariants apply.
func (s *Store) ReplaceDistribution(d *schemas.Distribution) error {
	var sum float64
	for _, p := range d.P {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return fmt.Errorf("%w: probability %v outside [0,1]", schemas.ErrInvariantViolation, p)
		}
		sum += p
	}
	if d.Exclusive && math.Abs(sum-1) > sumTolerance {
		return fmt.Errorf("%w: exclusive set sums to %.4f, want 1", schemas.ErrInvariantViolation, sum)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.beliefs[beliefKey(d.Holder, d.Subject)] = d.Clone()
	s.logChange("belief", d.Holder, fmt.Sprintf("distribution over %s replaced", d.Subject))
	return nil
}

// Distributions returns copies of all belief distributions.
func (s *Store) Distributions() []*schemas.Distribution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*schemas.Distribution, 0, len(s.beliefs))
	for _, d := range s.beliefs {
		out = append(out, d.Clone())
	}
	return out
}

// DrainChangeLog returns and clears the accumulated mutation log.
func (s *Store) DrainChangeLog() []schemas.ChangeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.changeLog
	s.changeLog = nil
	return log
}

// Restore rebuilds store contents from a snapshot, replacing everything.
// The change log is cleared; restoring is not a mutation worth journaling.
func (s *Store) Restore(snap *schemas.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors = make(map[string]*schemas.Actor, len(snap.Actors))
	s.order = s.order[:0]
	for _, a := range snap.Actors {
		s.actors[a.ID] = a.Clone()
		s.order = append(s.order, a.ID)
	}
	s.beliefs = make(map[string]*schemas.Distribution, len(snap.Beliefs))
	for _, d := range snap.Beliefs {
		s.beliefs[beliefKey(d.Holder, d.Subject)] = d.Clone()
	}
	s.changeLog = nil
}

// logChange appends to the change log. Callers hold the write lock.
func (s *Store) logChange(kind, actorID, detail string) {
	s.changeLog = append(s.changeLog, schemas.ChangeRecord{Kind: kind, ActorID: actorID, Detail: detail})
}
