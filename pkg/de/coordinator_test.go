package de

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestNewCoordinatorRejectsIndivisiblePopulation(t *testing.T) {
	sample := domainSampler(1, 10)
	eval := quadraticTarget(Vector{})

	_, err := NewCoordinator(0.5, 0.8, 10, 3, 1.0, 1, sample, eval, LowerIsBetter)
	assert.Error(t, err)
}

func TestCoordinatorStepConverges(t *testing.T) {
	target := Vector{X: 5, Y: -5}
	sample := domainSampler(11, 20)

	c, err := NewCoordinator(0.5, 0.8, 32, 4, 1.0, 11, sample, quadraticTarget(target), LowerIsBetter)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.StepN(context.Background(), 150))

	errv, pos := c.Best()
	assert.Less(t, errv.X, 1.0)
	assert.Less(t, errv.Y, 1.0)
	assert.InDelta(t, target.X, pos.X, 0.5)
	assert.InDelta(t, target.Y, pos.Y, 0.5)
}

// TestMigrationOverwritesExactlyWSlots is scenario 6 from spec.md §8:
// with phi=1.0, every generation's migration overwrites exactly one
// slot per worker (W slots total) across the global population.
func TestMigrationOverwritesExactlyWSlots(t *testing.T) {
	const w = 4
	const blockSize = 6

	sample := domainSampler(5, 10)
	c, err := NewCoordinator(0.5, 0.8, w*blockSize, w, 1.0, 5, sample, quadraticTarget(Vector{X: 3, Y: 3}), LowerIsBetter)
	require.NoError(t, err)
	defer c.Close()

	// Run the first half of Step (SOLVE_GENERATION on every worker) by
	// hand, so the population can be snapshotted between the generation
	// and the migration and only migration's own writes are counted.
	for _, wk := range c.workers {
		wk.dispatch(workSolveGeneration)
	}
	for _, wk := range c.workers {
		wk.await()
	}

	before := snapshotPopulations(c)
	c.migrate()
	after := snapshotPopulations(c)

	changed := 0
	for k := range before {
		changedInWorker := 0
		for i := range before[k] {
			if before[k][i] != after[k][i] {
				changedInWorker++
			}
		}

		assert.Equal(t, 1, changedInWorker, "worker %d", k)
		changed += changedInWorker
	}

	assert.Equal(t, w, changed)
}

func snapshotPopulations(c *Coordinator) [][]Vector {
	out := make([][]Vector, len(c.workers))
	for k, w := range c.workers {
		out[k] = w.solver.Population()
	}

	return out
}

func TestCoordinatorDeterministicReplay(t *testing.T) {
	target := Vector{X: 2, Y: -2}

	run := func() (ErrorVector, Vector) {
		sample := domainSampler(77, 12)
		c, err := NewCoordinator(0.5, 0.8, 20, 4, 1.0, 77, sample, quadraticTarget(target), LowerIsBetter)
		require.NoError(t, err)
		defer c.Close()

		require.NoError(t, c.StepN(context.Background(), 30))

		return c.Best()
	}

	err1, pos1 := run()
	err2, pos2 := run()

	assert.Equal(t, err1, err2)
	assert.Equal(t, pos1, pos2)
}

func TestCoordinatorRespectsContextCancellation(t *testing.T) {
	sample := domainSampler(3, 10)
	c, err := NewCoordinator(0.5, 0.8, 20, 4, 1.0, 3, sample, quadraticTarget(Vector{}), LowerIsBetter)
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, c.Step(ctx))
}

func TestMigrationNoOpWhenProbabilityZero(t *testing.T) {
	sample := domainSampler(9, 10)
	c, err := NewCoordinator(0.5, 0.8, 16, 4, 0.0, 9, sample, quadraticTarget(Vector{}), LowerIsBetter)
	require.NoError(t, err)
	defer c.Close()

	// With migration probability 0, migrate() must never touch another
	// worker's population; Step still advances generations normally.
	c.migrationRNG = rand.New(rand.NewSource(9))
	require.NoError(t, c.Step(context.Background()))

	before := snapshotPopulations(c)
	c.migrate()
	assert.Equal(t, before, snapshotPopulations(c))
}
