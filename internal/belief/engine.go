// File: internal/belief/engine.go
// Description: Revises each actor's beliefs about the others from this
// turn's observed signals, once per turn, bounded by attention style.
package belief

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
	"github.com/xkilldash9x/stratagem-cli/internal/store"
)

// gain tunes how hard a maximally surprising, fully costly signal moves a
// belief. With gain 2.0, such a signal roughly triples the prior odds.
const gain = 2.0

// Engine applies the likelihood-ratio update rule.
type Engine struct {
	logger *zap.Logger
}

// New builds the belief update engine.
func New(logger *zap.Logger) *Engine {
	return &Engine{logger: logger.Named("belief")}
}

// Update is one applied belief revision, recorded for the journal.
type Update struct {
	Holder     string  `json:"holder"`
	Subject    string  `json:"subject"`
	Hypothesis string  `json:"hypothesis"`
	Prior      float64 `json:"prior"`
	Posterior  float64 `json:"posterior"`
}

// Apply runs the per-turn belief revision for every holder actor against
// every observed signal, respecting attention caps: reactive actors process
// one signal, adaptive three, agile all of them. Returns the applied
// updates in deterministic order.
func (e *Engine) Apply(st *store.Store, signals []schemas.ObservedSignal) ([]Update, error) {
	if len(signals) == 0 {
		return nil, nil
	}

	var updates []Update
	for _, holder := range st.Actors() {
		cap := holder.Attention.SignalCap()
		processed := 0
		for _, sig := range signals {
			if sig.Subject == holder.ID {
				continue // actors do not update beliefs about themselves
			}
			if cap > 0 && processed >= cap {
				e.logger.Debug("Attention cap reached, remaining signals dropped",
					zap.String("holder", holder.ID),
					zap.String("attention", string(holder.Attention)))
				break
			}

			u, applied, err := e.applyOne(st, holder.ID, sig)
			if err != nil {
				return nil, err
			}
			if applied {
				updates = append(updates, u)
				processed++
			}
		}
	}
	return updates, nil
}

// applyOne revises a single (holder, subject, hypothesis) probability.
// The update magnitude is proportional to signal credibility and to how
// surprising the observation was under the current belief.
func (e *Engine) applyOne(st *store.Store, holderID string, sig schemas.ObservedSignal) (Update, bool, error) {
	dist, err := st.GetBelief(holderID, sig.Subject)
	if err != nil {
		return Update{}, false, fmt.Errorf("belief lookup failed: %w", err)
	}

	prior, tracked := dist.P[sig.Hypothesis]
	if !tracked {
		if dist.Exclusive {
			// Exclusive sets are closed at setup; an unknown hypothesis
			// cannot be bolted on without breaking the sum invariant.
			return Update{}, false, nil
		}
		prior = 0.5 // uninformative starting point for a new hypothesis
	}

	// Surprise is how unexpected the observation was under the prior:
	// evidence for a hypothesis the holder already believed barely moves it.
	surprise := 1 - prior
	if !sig.Supports {
		surprise = prior
	}

	lr := 1 + gain*sig.Credibility.Weight()*surprise
	if !sig.Supports {
		lr = 1 / lr
	}

	posterior := posteriorFromOdds(prior, lr)

	dist.P[sig.Hypothesis] = posterior
	if dist.Exclusive {
		renormalize(dist, sig.Hypothesis)
	}
	if err := st.ReplaceDistribution(dist); err != nil {
		return Update{}, false, err
	}

	e.logger.Debug("Belief updated",
		zap.String("holder", holderID),
		zap.String("subject", sig.Subject),
		zap.String("hypothesis", sig.Hypothesis),
		zap.Float64("prior", prior),
		zap.Float64("posterior", posterior),
		zap.String("credibility", string(sig.Credibility)))

	return Update{
		Holder:     holderID,
		Subject:    sig.Subject,
		Hypothesis: sig.Hypothesis,
		Prior:      prior,
		Posterior:  posterior,
	}, true, nil
}

// posteriorFromOdds applies the likelihood ratio in odds space and clamps
// the result into (0,1) so no belief ever hits an unrecoverable extreme.
func posteriorFromOdds(prior, lr float64) float64 {
	const floor, ceil = 0.01, 0.99
	if prior <= 0 {
		prior = floor
	}
	if prior >= 1 {
		prior = ceil
	}
	odds := prior / (1 - prior) * lr
	posterior := odds / (1 + odds)
	return math.Max(floor, math.Min(ceil, posterior))
}

// renormalize rescales the non-updated hypotheses of an exclusive set so
// the whole set sums to 1 again.
func renormalize(d *schemas.Distribution, updated string) {
	var rest float64
	for h, p := range d.P {
		if h != updated {
			rest += p
		}
	}
	remaining := 1 - d.P[updated]
	if rest <= 0 {
		// Degenerate set: spread the remainder evenly.
		n := len(d.P) - 1
		if n <= 0 {
			d.P[updated] = 1
			return
		}
		for h := range d.P {
			if h != updated {
				d.P[h] = remaining / float64(n)
			}
		}
		return
	}
	scale := remaining / rest
	for h := range d.P {
		if h != updated {
			d.P[h] *= scale
		}
	}
}
