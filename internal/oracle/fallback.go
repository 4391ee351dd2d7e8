// File: internal/oracle/fallback.go
package oracle

import (
	"context"
	"fmt"
	"sort"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
)

// Fallback is the documented deterministic degradation path: every action
// scores to a Moderate verdict and consequences are derived mechanically
// from the snapshot. It never fails, so the engine never blocks on an
// unavailable oracle.
type Fallback struct{}

var _ schemas.Oracle = (*Fallback)(nil)

// NewFallback returns the deterministic fallback oracle.
func NewFallback() *Fallback { return &Fallback{} }

// ScoreAction returns balanced scores, which the resolver maps to Moderate.
func (f *Fallback) ScoreAction(_ context.Context, q schemas.ActionQuery) (schemas.ActionScore, error) {
	return schemas.ActionScore{
		Support: 5,
		Counter: 5,
		Narrative: fmt.Sprintf(
			"%s proceeds with %q. The move achieves part of its aim but meets friction; results are mixed.",
			q.Actor.Name, q.Action.Option.Label),
		Degraded: true,
	}, nil
}

// GenerateConsequence derives an emergent event from the most stressed
// resource in the snapshot, so the record is grounded in state rather than
// arbitrary. It is never empty.
func (f *Fallback) GenerateConsequence(_ context.Context, snap *schemas.Snapshot, _ schemas.Verdict) (schemas.Consequence, error) {
	actorName, resource, lowest := "an uninvolved party", "stability", 50.0
	if snap != nil {
		for _, a := range snap.Actors {
			// Resource names in sorted order so ties break the same way on
			// every run.
			names := make([]string, 0, len(a.Resources))
			for name := range a.Resources {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				if lvl := a.Resources[name]; lvl.Value < lowest {
					lowest = lvl.Value
					actorName = a.Name
					resource = name
				}
			}
		}
	}
	return schemas.Consequence{
		Title: "Strain surfaces",
		Description: fmt.Sprintf(
			"Pressure on %s's %s (now %.0f/100) produces an unplanned disruption that no actor ordered.",
			actorName, resource, lowest),
		Trigger: fmt.Sprintf("lowest resource: %s/%s", actorName, resource),
	}, nil
}
