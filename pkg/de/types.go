// Package de implements a Differential Evolution engine specialized to
// two-dimensional real vectors with a per-dimension error vector and
// per-dimension acceptance (see ErrorIsBetterFunc). It provides a
// sequential Solver and a worker-pool Coordinator that shares the same
// generation algorithm and couples otherwise-independent sub-population
// searches through ring-topology migration.
package de

import (
	"github.com/allanhasegawa/pdebc/pkg/bezier"
)

// Vector is a population member: a candidate value for one interior
// Bézier control point. D is fixed at 2 for this engine's 2D fitting
// problem (the original template supported arbitrary dimensionality;
// every concrete instantiation in the source used D=2, so this port
// specializes the type rather than carrying unused generality).
type Vector = bezier.Point2

// ErrorVector is the per-dimension error of a candidate. It is never
// collapsed to a scalar: DE selection accepts a coordinate update when
// that dimension's error improves, independent of the other dimension.
type ErrorVector = bezier.Point2

// SampleDomainFunc draws one coordinate value from the initial sampling
// domain. Called PopulationSize*2 times at construction.
type SampleDomainFunc func() float64

// EvaluateErrorFunc computes the error of a candidate position. Pure
// with respect to solver state; may read a shared, otherwise-quiescent
// collaborator such as a *bezier.Evaluator.
type EvaluateErrorFunc func(candidate Vector) ErrorVector

// ErrorIsBetterFunc is a strict weak ordering on single-dimension error
// values: it must return true when a is strictly better than b. The
// same convention is used consistently in mutation acceptance and
// best-candidate selection; callers must not flip the argument order
// between the two.
type ErrorIsBetterFunc func(a, b float64) bool

// LowerIsBetter is the natural comparator for sum-of-squared-error
// minimization: smaller is better.
func LowerIsBetter(a, b float64) bool {
	return a < b
}
