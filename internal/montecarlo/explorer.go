// File: internal/montecarlo/explorer.go
// Description: Runs N independent variations of one decision point against
// a cloned snapshot and clusters the outcomes. Heuristic by design; the
// report says so in as many words.
package montecarlo

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
	"github.com/xkilldash9x/stratagem-cli/internal/config"
)

// Disclaimer is stamped on every report. Exploration is a breadth check,
// not a calibrated probability distribution.
const Disclaimer = "Heuristic exploration, not statistical simulation. Frequencies describe these runs only."

// minVariedAxes is the floor on how many of the five axes each run varies.
const minVariedAxes = 3

// Explorer runs seeded variations of a decision point.
type Explorer struct {
	cfg    config.ExplorerConfig
	oracle schemas.Oracle
	logger *zap.Logger
}

// New builds an explorer.
func New(cfg config.ExplorerConfig, oracle schemas.Oracle, logger *zap.Logger) *Explorer {
	return &Explorer{cfg: cfg, oracle: oracle, logger: logger.Named("montecarlo")}
}

// Explore runs n independent iterations of the decision point and clusters
// the outcomes. Iterations are read-only against clones of the snapshot and
// run concurrently under a bounded semaphore; a failed or slow iteration is
// dropped rather than blocking the batch, and the achieved count is
// disclosed in the report.
func (e *Explorer) Explore(ctx context.Context, dp schemas.DecisionPoint, n int, seed int64) (*schemas.ClusterReport, error) {
	if dp.Snapshot == nil {
		return nil, fmt.Errorf("decision point carries no snapshot")
	}
	if n < 1 {
		n = e.cfg.DefaultRuns
	}

	outcomes := make([]*schemas.IterationOutcome, n)
	var mu sync.Mutex

	sem := semaphore.NewWeighted(int64(e.cfg.Concurrency))
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < n; i++ {
		run := i
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil // batch cancelled; partial results stand
			}
			defer sem.Release(1)

			runCtx := gctx
			if e.cfg.IterationTimeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(gctx, e.cfg.IterationTimeout)
				defer cancel()
			}

			out, err := e.iterate(runCtx, dp, run, seed)
			if err != nil {
				e.logger.Warn("Exploration iteration failed",
					zap.Int("run", run), zap.Error(err))
				return nil // partial results are acceptable
			}
			mu.Lock()
			outcomes[run] = out
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	completed := make([]*schemas.IterationOutcome, 0, n)
	for _, o := range outcomes {
		if o != nil {
			completed = append(completed, o)
		}
	}
	if len(completed) == 0 {
		return nil, fmt.Errorf("no exploration iteration completed")
	}

	report := cluster(completed, n)
	report.SensitiveVariable = mostSensitiveAxis(completed)
	report.InformationNote = fmt.Sprintf(
		"Outcomes hinge most on %s; intelligence narrowing that variable is worth the most before committing.",
		report.SensitiveVariable)
	report.Disclaimer = Disclaimer

	e.logger.Info("Exploration complete",
		zap.Int("requested", n),
		zap.Int("completed", len(completed)),
		zap.Int("clusters", len(report.Clusters)))
	return report, nil
}

// iterate runs one seeded variation. The per-run rng is derived from the
// batch seed and the run index, so a fixed seed and oracle stub reproduce
// the batch exactly.
func (e *Explorer) iterate(ctx context.Context, dp schemas.DecisionPoint, run int, seed int64) (*schemas.IterationOutcome, error) {
	rng := rand.New(rand.NewSource(seed + int64(run)*7919))
	axes := chooseAxes(rng, run)

	snap := dp.Snapshot.Clone()
	option := dp.Chosen
	magnitudeScale := 1.0
	scoreShift := 0.0
	extraDelta := 0.0
	escalation := false

	for _, axis := range axes {
		switch axis {
		case schemas.AxisActorIntensity:
			// The acting side commits harder or hesitates.
			shift := float64(rng.Intn(31) - 15)
			scoreShift += shift / 10.0
		case schemas.AxisInformationState:
			// A hidden fact is revealed or an assumed fact evaporates.
			if rng.Intn(2) == 0 {
				scoreShift += 1
			} else {
				scoreShift -= 1
			}
		case schemas.AxisRandomEvent:
			extraDelta += float64(rng.Intn(21) - 10)
			escalation = escalation || rng.Intn(4) == 0
		case schemas.AxisMacroContext:
			if rng.Intn(2) == 0 {
				magnitudeScale = 1.2
			} else {
				magnitudeScale = 0.8
			}
		case schemas.AxisAdjudicationFork:
			// Applied after scoring, below.
		}
	}

	actor := findActor(snap, dp.ActorID)
	if actor == nil {
		return nil, fmt.Errorf("%w: %q", schemas.ErrUnknownActor, dp.ActorID)
	}

	score, err := e.oracle.ScoreAction(ctx, schemas.ActionQuery{
		Action:  schemas.Decision{ActorID: dp.ActorID, Option: option},
		Actor:   actor,
		Context: fmt.Sprintf("exploration run %d of turn %d", run, dp.Turn),
	})
	if err != nil {
		return nil, err
	}

	margin := score.Support - score.Counter + scoreShift
	verdict := schemas.VerdictModerate
	switch {
	case margin >= 3:
		verdict = schemas.VerdictStrong
	case margin <= -3:
		verdict = schemas.VerdictWeak
	}

	if hasAxis(axes, schemas.AxisAdjudicationFork) && verdict == schemas.VerdictModerate {
		// Moderate is the fragile verdict: fork it to one of its neighbors.
		if rng.Intn(2) == 0 {
			verdict = schemas.VerdictStrong
		} else {
			verdict = schemas.VerdictWeak
		}
	}

	net := extraDelta
	base := (5 + float64(option.Risk)/10.0) * magnitudeScale
	switch verdict {
	case schemas.VerdictStrong:
		net += base
	case schemas.VerdictModerate:
		net += base / 2
	case schemas.VerdictWeak:
		net -= base
	}

	return &schemas.IterationOutcome{
		Run:        run,
		Varied:     axes,
		Verdict:    verdict,
		NetDelta:   net,
		Escalation: escalation,
		Narrative: fmt.Sprintf("Run %d: %q resolves %s (net position %+.1f)%s",
			run, option.Label, verdict, net, escalationSuffix(escalation)),
	}, nil
}

func escalationSuffix(escalation bool) string {
	if escalation {
		return " amid an escalation spiral"
	}
	return ""
}

// chooseAxes picks the varied axes for one run: always at least three, and
// run r always varies axis r mod 5, so five or more runs touch every axis.
func chooseAxes(rng *rand.Rand, run int) []schemas.VariationAxis {
	forced := schemas.AllVariationAxes[run%len(schemas.AllVariationAxes)]
	chosen := map[schemas.VariationAxis]bool{forced: true}
	for len(chosen) < minVariedAxes {
		chosen[schemas.AllVariationAxes[rng.Intn(len(schemas.AllVariationAxes))]] = true
	}
	// A little spread beyond the floor keeps runs from looking alike.
	for _, axis := range schemas.AllVariationAxes {
		if !chosen[axis] && rng.Intn(3) == 0 {
			chosen[axis] = true
		}
	}

	out := make([]schemas.VariationAxis, 0, len(chosen))
	for _, axis := range schemas.AllVariationAxes {
		if chosen[axis] {
			out = append(out, axis)
		}
	}
	return out
}

func hasAxis(axes []schemas.VariationAxis, want schemas.VariationAxis) bool {
	for _, a := range axes {
		if a == want {
			return true
		}
	}
	return false
}

func findActor(snap *schemas.Snapshot, id string) *schemas.Actor {
	for _, a := range snap.Actors {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// mostSensitiveAxis finds the axis whose presence most changes the verdict
// mix: for each axis, compare the Strong-share of runs that varied it with
// the Strong-share of runs that did not.
func mostSensitiveAxis(outcomes []*schemas.IterationOutcome) schemas.VariationAxis {
	best := schemas.AllVariationAxes[0]
	bestGap := -1.0
	for _, axis := range schemas.AllVariationAxes {
		var withStrong, withTotal, withoutStrong, withoutTotal float64
		for _, o := range outcomes {
			strong := 0.0
			if o.Verdict == schemas.VerdictStrong {
				strong = 1
			}
			if hasAxis(o.Varied, axis) {
				withStrong += strong
				withTotal++
			} else {
				withoutStrong += strong
				withoutTotal++
			}
		}
		if withTotal == 0 || withoutTotal == 0 {
			continue
		}
		gap := abs(withStrong/withTotal - withoutStrong/withoutTotal)
		if gap > bestGap {
			bestGap = gap
			best = axis
		}
	}
	return best
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// cluster groups outcomes by verdict and escalation, folds the smallest
// groups together until at most five remain, then splits the largest by net
// position until at least three remain — homogeneous batches still get a
// readable spread. The floor is best effort: a batch whose outcomes are
// literally identical stays one cluster. Frequencies are shares of the
// completed runs and always sum to 100.
func cluster(outcomes []*schemas.IterationOutcome, requested int) *schemas.ClusterReport {
	type key struct {
		verdict    schemas.Verdict
		escalation bool
	}
	type group struct {
		verdict schemas.Verdict
		label   string
		diff    string
		runs    []*schemas.IterationOutcome
	}
	byKey := make(map[key][]*schemas.IterationOutcome)
	for _, o := range outcomes {
		k := key{o.Verdict, o.Escalation}
		byKey[k] = append(byKey[k], o)
	}

	groups := make([]group, 0, len(byKey))
	for k, runs := range byKey {
		groups = append(groups, group{
			verdict: k.verdict,
			label:   clusterLabel(k.verdict, k.escalation),
			diff:    differentiator(k.verdict, k.escalation),
			runs:    runs,
		})
	}
	sortGroups := func() {
		sort.Slice(groups, func(i, j int) bool {
			if len(groups[i].runs) != len(groups[j].runs) {
				return len(groups[i].runs) > len(groups[j].runs)
			}
			return groups[i].label < groups[j].label
		})
	}
	sortGroups()

	// Fold overflow groups into the nearest surviving verdict group.
	const maxClusters = 5
	for len(groups) > maxClusters {
		tail := groups[len(groups)-1]
		groups = groups[:len(groups)-1]
		for i := range groups {
			if groups[i].verdict == tail.verdict {
				groups[i].runs = append(groups[i].runs, tail.runs...)
				break
			}
		}
	}

	// Split by net-position swing until the floor is met or nothing splits.
	const minClusters = 3
	for len(groups) < minClusters {
		split := -1
		for i := range groups {
			sort.Slice(groups[i].runs, func(a, b int) bool {
				return groups[i].runs[a].NetDelta < groups[i].runs[b].NetDelta
			})
			first, last := groups[i].runs[0], groups[i].runs[len(groups[i].runs)-1]
			if first.NetDelta != last.NetDelta && (split < 0 || len(groups[i].runs) > len(groups[split].runs)) {
				split = i
			}
		}
		if split < 0 {
			break
		}
		g := groups[split]
		cut := len(g.runs) / 2
		for cut < len(g.runs) && g.runs[cut].NetDelta == g.runs[cut-1].NetDelta {
			cut++
		}
		if cut == len(g.runs) {
			// The upper half is uniform; the value change sits below the
			// midpoint instead.
			cut = len(g.runs) / 2
			for cut > 1 && g.runs[cut].NetDelta == g.runs[cut-1].NetDelta {
				cut--
			}
		}
		lower := group{verdict: g.verdict, label: g.label + ", contained swing",
			diff: "how far the net position swung within the verdict", runs: g.runs[:cut]}
		upper := group{verdict: g.verdict, label: g.label + ", outsized swing",
			diff: "how far the net position swung within the verdict", runs: g.runs[cut:]}
		groups = append(groups[:split], append([]group{lower, upper}, groups[split+1:]...)...)
		sortGroups()
	}

	total := len(outcomes)
	report := &schemas.ClusterReport{Requested: requested, Completed: total}
	assigned := 0
	for i, g := range groups {
		freq := len(g.runs) * 100 / total
		if i == len(groups)-1 {
			freq = 100 - assigned // absorb rounding so shares sum to 100
		}
		assigned += freq

		runs := make([]int, 0, len(g.runs))
		for _, o := range g.runs {
			runs = append(runs, o.Run)
		}
		sort.Ints(runs)

		report.Clusters = append(report.Clusters, schemas.OutcomeCluster{
			Label:          g.label,
			Frequency:      freq,
			Differentiator: g.diff,
			Representative: g.runs[0].Narrative,
			Runs:           runs,
		})
	}
	return report
}

func clusterLabel(v schemas.Verdict, escalation bool) string {
	switch {
	case v == schemas.VerdictStrong && escalation:
		return "decisive success, spiraling"
	case v == schemas.VerdictStrong:
		return "decisive success"
	case v == schemas.VerdictModerate && escalation:
		return "contested gain under escalation"
	case v == schemas.VerdictModerate:
		return "contested gain"
	case escalation:
		return "backfire with escalation"
	default:
		return "backfire"
	}
}

func differentiator(v schemas.Verdict, escalation bool) string {
	if escalation {
		return "whether the random-event draw tipped into an escalation spiral"
	}
	return fmt.Sprintf("whether the argument margin cleared the %s threshold", v)
}
