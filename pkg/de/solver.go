package de

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

// Solver runs Differential Evolution sequentially over a single
// population, optimizing one interior Bézier control point. It is
// grounded on the generic mutation/selection loop shared by every
// concrete solver in the source tree, specialized to two dimensions.
type Solver struct {
	cr float64
	f  float64
	m  int

	population []Vector
	popErrors  []ErrorVector

	evaluateError EvaluateErrorFunc
	errorIsBetter ErrorIsBetterFunc

	rng *rand.Rand
}

// New constructs a Solver with an initial population of m members, each
// coordinate drawn independently from sampleDomain. cr and f must be in
// [0, 1]; m must be at least 4, the minimum needed to pick three trial
// indices distinct from the incumbent without unbounded rejection.
func New(cr, f float64, m int, seed uint64, sampleDomain SampleDomainFunc, evaluateError EvaluateErrorFunc, errorIsBetter ErrorIsBetterFunc) (*Solver, error) {
	if cr < 0 || cr > 1 {
		return nil, fmt.Errorf("de: CR must be in [0,1], got %v", cr)
	}

	if f < 0 || f > 1 {
		return nil, fmt.Errorf("de: F must be in [0,1], got %v", f)
	}

	if m < 4 {
		return nil, fmt.Errorf("de: population size must be >= 4, got %d", m)
	}

	s := &Solver{
		cr:            cr,
		f:             f,
		m:             m,
		evaluateError: evaluateError,
		errorIsBetter: errorIsBetter,
		rng:           rand.New(rand.NewSource(seed)),
	}

	s.population = make([]Vector, m)
	s.popErrors = make([]ErrorVector, m)

	for i := 0; i < m; i++ {
		s.population[i] = Vector{X: sampleDomain(), Y: sampleDomain()}
		s.popErrors[i] = evaluateError(s.population[i])
	}

	return s, nil
}

// Population returns a copy of the current population.
func (s *Solver) Population() []Vector {
	out := make([]Vector, len(s.population))
	copy(out, s.population)

	return out
}

// pickTrials draws three population indices distinct from a and from
// each other by rejection sampling, mirroring the source's approach of
// re-drawing on collision rather than sampling without replacement from
// a precomputed permutation.
func (s *Solver) pickTrials(a int) (r1, r2, r3 int) {
	draw := func(exclude ...int) int {
		for {
			c := s.rng.Intn(s.m)

			collides := false
			for _, e := range exclude {
				if c == e {
					collides = true
					break
				}
			}

			if !collides {
				return c
			}
		}
	}

	r1 = draw(a)
	r2 = draw(a, r1)
	r3 = draw(a, r1, r2)

	return r1, r2, r3
}

// mutate builds the trial vector for incumbent index a: the starting
// coordinate (chosen uniformly at random) always receives the weighted
// difference; the remaining coordinate is mutated only if a fresh
// uniform(0,1) draw falls at or below cr, otherwise it is copied from
// the incumbent.
func (s *Solver) mutate(a, r1, r2, r3 int) Vector {
	// The weighted-difference vector pop[r1] + F*(pop[r2]-pop[r3]) is
	// computed with gonum/floats rather than by hand: it is the same
	// small-vector add/scale/subtract shape used for mutation-style
	// vector arithmetic throughout the retrieved optimizer examples.
	weightedVec := s.population[r1].ToSlice()
	diff := make([]float64, 2)
	floats.SubTo(diff, s.population[r2].ToSlice(), s.population[r3].ToSlice())
	floats.AddScaled(weightedVec, s.f, diff)

	incumbentVec := s.population[a].ToSlice()

	j := s.rng.Intn(2)

	trialVec := make([]float64, 2)
	trialVec[j] = weightedVec[j]

	j = (j + 1) % 2
	if s.rng.Float64() <= s.cr {
		trialVec[j] = weightedVec[j]
	} else {
		trialVec[j] = incumbentVec[j]
	}

	return PointFromSlice(trialVec)
}

func setDim(v *Vector, dim int, value float64) {
	if dim == 0 {
		v.X = value
	} else {
		v.Y = value
	}
}

func dim(v Vector, d int) float64 {
	if d == 0 {
		return v.X
	}
	return v.Y
}

// Step advances the population by one generation: for every incumbent
// index a, a trial is mutated against three other distinct members and
// accepted into the population per coordinate, independently, whenever
// that coordinate's error improves under errorIsBetter.
func (s *Solver) Step() {
	for a := 0; a < s.m; a++ {
		r1, r2, r3 := s.pickTrials(a)
		trial := s.mutate(a, r1, r2, r3)
		trialErr := s.evaluateError(trial)

		for d := 0; d < 2; d++ {
			if s.errorIsBetter(dim(trialErr, d), dim(s.popErrors[a], d)) {
				setDim(&s.population[a], d, dim(trial, d))
				setDim(&s.popErrors[a], d, dim(trialErr, d))
			}
		}
	}
}

// StepN advances the population by k generations.
func (s *Solver) StepN(k int) {
	for i := 0; i < k; i++ {
		s.Step()
	}
}

// Best returns the best-candidate record: the error vector and position
// assembled independently per dimension. The source tracks one
// best-index per coordinate (lowest_error_index.x and .y are updated by
// separate comparisons in the generation loop), so the x coordinate of
// the returned position and the x coordinate of the returned error can
// come from a different population member than the y coordinate — this
// is intentional, not an approximation: DE here runs two coupled but
// separately-accepted 1D searches sharing one mutation draw.
func (s *Solver) Best() (ErrorVector, Vector) {
	var bestErr ErrorVector
	var bestPos Vector

	for d := 0; d < 2; d++ {
		bestIdx := 0

		for i := 1; i < s.m; i++ {
			if s.errorIsBetter(dim(s.popErrors[i], d), dim(s.popErrors[bestIdx], d)) {
				bestIdx = i
			}
		}

		setDim(&bestErr, d, dim(s.popErrors[bestIdx], d))
		setDim(&bestPos, d, dim(s.population[bestIdx], d))
	}

	return bestErr, bestPos
}
