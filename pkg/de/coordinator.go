package de

import (
	"context"
	"fmt"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

// Coordinator drives W workers, each holding M/W of the population,
// through generations coupled by ring-topology migration. It is the Go
// counterpart of the source's BCDESolver: the workers themselves are
// BCDESolverST equivalents (package-private worker/Solver), and the
// coordinator owns only the migration step and best-candidate
// aggregation.
type Coordinator struct {
	workers []*worker

	migrationProbability float64
	migrationRNG         *rand.Rand

	evaluateError EvaluateErrorFunc
	errorIsBetter ErrorIsBetterFunc
}

// NewCoordinator partitions a population of size m into w equal blocks
// and starts one worker goroutine per block. m must be divisible by w
// and m/w must be at least 4.
func NewCoordinator(cr, f float64, m, w int, migrationProbability float64, seed uint64, sampleDomain SampleDomainFunc, evaluateError EvaluateErrorFunc, errorIsBetter ErrorIsBetterFunc) (*Coordinator, error) {
	if w <= 0 {
		return nil, fmt.Errorf("de: worker count must be positive, got %d", w)
	}

	if m%w != 0 {
		return nil, fmt.Errorf("de: population size %d must be divisible by worker count %d", m, w)
	}

	if migrationProbability < 0 || migrationProbability > 1 {
		return nil, fmt.Errorf("de: migration probability must be in [0,1], got %v", migrationProbability)
	}

	blockSize := m / w

	c := &Coordinator{
		migrationProbability: migrationProbability,
		migrationRNG:         rand.New(rand.NewSource(seed)),
		evaluateError:        evaluateError,
		errorIsBetter:        errorIsBetter,
	}

	c.workers = make([]*worker, w)

	for k := 0; k < w; k++ {
		// Each worker's solver is seeded independently so sub-populations
		// diverge from the start; the source does the same by giving each
		// thread its own RNG instances.
		s, err := New(cr, f, blockSize, seed+1+uint64(k), sampleDomain, evaluateError, errorIsBetter)
		if err != nil {
			return nil, err
		}

		c.workers[k] = newWorker(s)
	}

	return c, nil
}

// Workers returns the number of workers.
func (c *Coordinator) Workers() int {
	return len(c.workers)
}

// Step runs one generation on every worker concurrently, waits for all
// of them to finish, then performs ring migration. Workers are
// quiescent for the duration of migration: every worker goroutine is
// blocked in its loop waiting for pending work, so migration's direct
// writes to a destination worker's population slice race with nothing.
func (c *Coordinator) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g, _ := errgroup.WithContext(ctx)

	for _, w := range c.workers {
		w := w
		g.Go(func() error {
			w.dispatch(workSolveGeneration)
			w.await()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	c.migrate()

	return nil
}

// StepN runs k generations, stopping early if ctx is cancelled between
// generations (not mid-generation: cancellation is observed once per
// loop iteration, matching the Fitting Driver's context-checking policy).
func (c *Coordinator) StepN(ctx context.Context, k int) error {
	for i := 0; i < k; i++ {
		if err := c.Step(ctx); err != nil {
			return err
		}
	}

	return nil
}

// migrate copies each worker's current best position into a uniformly
// random slot of the next worker's sub-population along a ring. Only
// the position is copied, not the error record — matching the source,
// which leaves the destination slot's cached error stale until the
// next generation's evaluate_error call naturally overwrites it on
// acceptance.
func (c *Coordinator) migrate() {
	if c.migrationRNG.Float64() > c.migrationProbability {
		return
	}

	w := len(c.workers)
	if w < 2 {
		return
	}

	bestPos := make([]Vector, w)
	for k, wk := range c.workers {
		_, bestPos[k] = wk.solver.Best()
	}

	for k := 0; k < w; k++ {
		dest := (k + 1) % w
		destSolver := c.workers[dest].solver
		slot := c.migrationRNG.Intn(len(destSolver.population))
		destSolver.population[slot] = bestPos[k]
	}
}

// Best posts GET_BEST_CANDIDATE to every worker, waits for all of them,
// then returns the globally best error/position assembled per
// dimension across workers, mirroring Solver.Best's per-dimension
// assembly one level up.
func (c *Coordinator) Best() (ErrorVector, Vector) {
	for _, w := range c.workers {
		w.dispatch(workGetBestCandidate)
	}

	for _, w := range c.workers {
		w.await()
	}

	var bestErr ErrorVector
	var bestPos Vector

	for d := 0; d < 2; d++ {
		bestIdx := 0

		for i := 1; i < len(c.workers); i++ {
			if c.errorIsBetter(dim(c.workers[i].bestErr, d), dim(c.workers[bestIdx].bestErr, d)) {
				bestIdx = i
			}
		}

		setDim(&bestErr, d, dim(c.workers[bestIdx].bestErr, d))
		setDim(&bestPos, d, dim(c.workers[bestIdx].bestPos, d))
	}

	return bestErr, bestPos
}

// Close signals every worker to finish its loop and waits for all of
// them to return, mirroring the source's join-on-destruction lifecycle.
func (c *Coordinator) Close() {
	for _, w := range c.workers {
		w.stop()
	}
}
