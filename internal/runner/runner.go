// Package runner implements the Fitting Driver: thin integration glue
// that drives package de's solvers over package bezier's Evaluator,
// one interior control point at a time, across a configurable number
// of rounds.
package runner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"

	"github.com/allanhasegawa/pdebc/pkg/bezier"
	"github.com/allanhasegawa/pdebc/pkg/config"
	"github.com/allanhasegawa/pdebc/pkg/de"
)

// ProgressCallback is invoked after every completed generation while
// optimizing one control point.
type ProgressCallback func(round, controlPoint, generation int, bestErr de.ErrorVector)

// Runner drives one complete fitting run.
type Runner struct {
	spec   config.RunSpec
	logger *zap.Logger
}

// New creates a Runner for the given run specification. logger may be
// telemetry.Noop() in tests.
func New(spec config.RunSpec, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		return nil, fmt.Errorf("runner: logger must not be nil")
	}

	return &Runner{spec: spec, logger: logger}, nil
}

// FitResult is the outcome of a complete fitting run.
type FitResult struct {
	Evaluator     *bezier.Evaluator
	ControlPoints []bezier.Point2
	Elapsed       time.Duration
}

// Fit runs the Fitting Driver over dataset: for each of spec.Rounds
// outer iterations, it binds variable_cp to every interior control
// point index in turn, runs a DE solver (sequential when Workers==1,
// a worker-pool Coordinator otherwise) for spec.Generations
// generations — or until convergence, if ConvergenceStops > 0 — reads
// the best position, and writes it back into the curve.
func (r *Runner) Fit(ctx context.Context, dataset *bezier.DataSet, progress ProgressCallback) (FitResult, error) {
	start := time.Now()

	controlPoints := r.initialControlPoints(dataset)

	ev, err := bezier.NewEvaluator(controlPoints)
	if err != nil {
		return FitResult{}, fmt.Errorf("runner: failed to construct evaluator: %w", err)
	}

	ev.BindParameters(dataset.Params)

	seed := r.spec.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	for round := 0; round < r.spec.Rounds; round++ {
		r.logger.Info("starting round", zap.Int("round", round))

		for i := 1; i <= r.spec.NCP-2; i++ {
			if err := ev.SetVariableCP(i); err != nil {
				return FitResult{}, fmt.Errorf("runner: failed to bind variable_cp: %w", err)
			}

			bestErr, bestPos, err := r.optimizeControlPoint(ctx, ev, dataset, round, i, seed, progress)
			if err != nil {
				return FitResult{}, err
			}

			ev.SetControlPoint(i, bestPos)

			r.logger.Debug("optimized control point",
				zap.Int("round", round),
				zap.Int("control_point", i),
				zap.Float64("error_x", bestErr.X),
				zap.Float64("error_y", bestErr.Y),
			)

			// Re-seed the next control point's solver deterministically but
			// distinctly, so every (round, control point) pair gets its own
			// independent stream without reusing randomness across indices.
			seed = seed*6364136223846793005 + 1442695040888963407
		}
	}

	return FitResult{
		Evaluator:     ev,
		ControlPoints: ev.ControlPoints(),
		Elapsed:       time.Since(start),
	}, nil
}

// initialControlPoints seeds the curve's endpoints from the dataset and
// leaves interior control points at the origin — DE finds them from
// scratch, matching the reference sample's convention of starting every
// interior control point at (0,0).
func (r *Runner) initialControlPoints(dataset *bezier.DataSet) []bezier.Point2 {
	cps := make([]bezier.Point2, r.spec.NCP)
	cps[0] = dataset.Points[0]
	cps[len(cps)-1] = dataset.Points[len(dataset.Points)-1]

	return cps
}

func (r *Runner) optimizeControlPoint(ctx context.Context, ev *bezier.Evaluator, dataset *bezier.DataSet, round, cpIndex int, seed int64, progress ProgressCallback) (de.ErrorVector, de.Vector, error) {
	domainRNG := rand.New(rand.NewSource(uint64(seed)))
	sampleDomain := func() float64 {
		return (domainRNG.Float64()*2 - 1) * r.spec.DomainLimit
	}

	evaluateError := func(candidate de.Vector) de.ErrorVector {
		return ev.SumSquaredErrorCached(candidate, dataset)
	}

	tracker := newConvergenceTracker(r.spec.ConvergenceStops, r.spec.ConvergenceTolerance)

	if r.spec.Workers <= 1 {
		solver, err := de.New(r.spec.CR, r.spec.F, r.spec.Population, uint64(seed), sampleDomain, evaluateError, de.LowerIsBetter)
		if err != nil {
			return de.ErrorVector{}, de.Vector{}, fmt.Errorf("runner: failed to construct solver: %w", err)
		}

		for g := 0; g < r.spec.Generations || r.spec.Generations == 0; g++ {
			if err := ctx.Err(); err != nil {
				return de.ErrorVector{}, de.Vector{}, err
			}

			solver.Step()

			bestErr, _ := solver.Best()
			if progress != nil {
				progress(round, cpIndex, g, bestErr)
			}

			if tracker.observe(bestErr) {
				break
			}
		}

		bestErr, bestPos := solver.Best()

		return bestErr, bestPos, nil
	}

	coordinator, err := de.NewCoordinator(r.spec.CR, r.spec.F, r.spec.Population, r.spec.Workers, r.spec.MigrationProbability, uint64(seed), sampleDomain, evaluateError, de.LowerIsBetter)
	if err != nil {
		return de.ErrorVector{}, de.Vector{}, fmt.Errorf("runner: failed to construct coordinator: %w", err)
	}
	defer coordinator.Close()

	for g := 0; g < r.spec.Generations || r.spec.Generations == 0; g++ {
		if err := coordinator.Step(ctx); err != nil {
			return de.ErrorVector{}, de.Vector{}, err
		}

		bestErr, _ := coordinator.Best()
		if progress != nil {
			progress(round, cpIndex, g, bestErr)
		}

		if tracker.observe(bestErr) {
			break
		}
	}

	bestErr, bestPos := coordinator.Best()

	return bestErr, bestPos, nil
}

// convergenceTracker stops a generation loop early once the combined
// best error fails to improve by more than tolerance for stops
// consecutive generations. Disabled when stops <= 0.
type convergenceTracker struct {
	stops     int
	tolerance float64

	stale   int
	prevSum float64
	primed  bool
}

func newConvergenceTracker(stops int, tolerance float64) *convergenceTracker {
	return &convergenceTracker{stops: stops, tolerance: tolerance}
}

func (c *convergenceTracker) observe(err de.ErrorVector) bool {
	if c.stops <= 0 {
		return false
	}

	sum := err.X + err.Y

	if !c.primed {
		c.primed = true
		c.prevSum = sum

		return false
	}

	if c.prevSum-sum <= c.tolerance {
		c.stale++
	} else {
		c.stale = 0
	}

	c.prevSum = sum

	return c.stale >= c.stops
}
