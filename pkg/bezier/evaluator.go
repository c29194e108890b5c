// Package bezier implements a Bézier curve evaluator with a numerical
// acceleration cache used by the differential-evolution fitter in
// package de. The cache trades O(N·n_cp) per-candidate evaluation for
// O(N) by pre-computing, for a fixed parameter sequence and a fixed
// "variable" control point, the contribution of every other control
// point (see SetVariableCP / SumSquaredErrorCached).
package bezier

import (
	"fmt"
	"math"
)

// MaxControlPoints bounds n_cp. Above 16, n_cp-1's factorial exceeds
// 32-bit range; the binomial table is built in double precision via
// Pascal's triangle (no factorials), which stays exact up to this bound.
const MaxControlPoints = 20

var binomialCache [MaxControlPoints][MaxControlPoints]float64

func init() {
	// Populated once at package load, before any Evaluator can be
	// constructed by a caller — building it lazily inside NewEvaluator
	// would race if two evaluators were constructed from different
	// goroutines during startup.
	for n := 0; n < MaxControlPoints; n++ {
		binomialCache[n][0] = 1
		for i := 1; i <= n; i++ {
			binomialCache[n][i] = binomialCache[n-1][i-1] + binomialCache[n-1][i]
		}
	}
}

// Evaluator holds a Bézier curve's control points together with the
// parameter-product and constant-contribution caches used for fast
// per-candidate error evaluation while one interior control point is
// being optimized.
type Evaluator struct {
	nCP           int
	controlPoints []Point2
	variableCP    int

	params       []float64
	paramProduct [][]float64 // paramProduct[p][i] = C[n][i] * t_p^i * (1-t_p)^(n-i)
	constContrib []Point2    // constContrib[p] = sum_{i != variableCP} paramProduct[p][i] * controlPoints[i]
}

// NewEvaluator constructs an Evaluator for the given control points.
// variable_cp defaults to 1 (the first interior control point); call
// SetVariableCP to change it. BindParameters must be called before any
// cached evaluation.
func NewEvaluator(controlPoints []Point2) (*Evaluator, error) {
	nCP := len(controlPoints)
	if nCP < 2 || nCP > MaxControlPoints {
		return nil, fmt.Errorf("bezier: n_cp must be in [2, %d], got %d", MaxControlPoints, nCP)
	}

	cps := make([]Point2, nCP)
	copy(cps, controlPoints)

	e := &Evaluator{
		nCP:           nCP,
		controlPoints: cps,
		variableCP:    1,
	}

	return e, nil
}

// NCP returns the number of control points.
func (e *Evaluator) NCP() int {
	return e.nCP
}

// ControlPoints returns a copy of the current control points.
func (e *Evaluator) ControlPoints() []Point2 {
	out := make([]Point2, len(e.controlPoints))
	copy(out, e.controlPoints)

	return out
}

// SetControlPoint overwrites control point i (value semantics, no
// cache rebuild — callers that change a non-variable control point
// must also call SetVariableCP to refresh the constant-contribution
// cache).
func (e *Evaluator) SetControlPoint(i int, p Point2) {
	e.controlPoints[i] = p
}

// Evaluate computes B(t) directly from all control points. This is the
// uncached path, used for output sampling where no fixed variable_cp
// applies.
func (e *Evaluator) Evaluate(t float64) Point2 {
	n := e.nCP - 1

	var bx, by float64

	for i := 0; i < e.nCP; i++ {
		b := binomialCache[n][i] * math.Pow(t, float64(i)) * math.Pow(1-t, float64(n-i))
		bx += b * e.controlPoints[i].X
		by += b * e.controlPoints[i].Y
	}

	return Point2{X: bx, Y: by}
}

// SumSquaredError computes, per coordinate, the sum over interior data
// points of the squared residual between the curve (evaluated
// uncached, at the dataset's bound parameter values) and the data
// point. Endpoints are excluded: they coincide with the first/last
// control points and contribute zero.
func (e *Evaluator) SumSquaredError(dataset *DataSet) Point2 {
	var errX, errY float64

	for k := 1; k < dataset.N()-1; k++ {
		b := e.Evaluate(dataset.Params[k])
		dx := dataset.Points[k].X - b.X
		dy := dataset.Points[k].Y - b.Y
		errX += dx * dx
		errY += dy * dy
	}

	return Point2{X: errX, Y: errY}
}

// BindParameters rebuilds the parameter-product cache for the given
// parameter sequence. Must be called before any cached evaluation, and
// again whenever the bound parameter sequence changes. Not safe to call
// while workers are running (see package de's quiescence rules).
func (e *Evaluator) BindParameters(params []float64) {
	n := e.nCP - 1

	e.params = params
	e.paramProduct = make([][]float64, len(params))

	for p, t := range params {
		row := make([]float64, e.nCP)
		for i := 0; i < e.nCP; i++ {
			row[i] = binomialCache[n][i] * math.Pow(t, float64(i)) * math.Pow(1-t, float64(n-i))
		}

		e.paramProduct[p] = row
	}

	// variable_cp's constant-contribution cache depends on paramProduct;
	// rebuild it against the currently-bound variable_cp.
	e.rebuildConstContribution()
}

// SetVariableCP sets the interior control point index currently being
// optimized and rebuilds the constant-contribution cache K. i must be
// in [1, n_cp-2]. Not safe to call while workers are running.
func (e *Evaluator) SetVariableCP(i int) error {
	if i < 1 || i > e.nCP-2 {
		return fmt.Errorf("bezier: variable_cp must be in [1, %d], got %d", e.nCP-2, i)
	}

	e.variableCP = i
	e.rebuildConstContribution()

	return nil
}

// VariableCP returns the currently-bound variable control point index.
func (e *Evaluator) VariableCP() int {
	return e.variableCP
}

func (e *Evaluator) rebuildConstContribution() {
	if e.paramProduct == nil {
		return
	}

	e.constContrib = make([]Point2, len(e.paramProduct))

	for p, row := range e.paramProduct {
		var kx, ky float64

		for i := 0; i < e.nCP; i++ {
			if i == e.variableCP {
				continue
			}

			kx += row[i] * e.controlPoints[i].X
			ky += row[i] * e.controlPoints[i].Y
		}

		e.constContrib[p] = Point2{X: kx, Y: ky}
	}
}

// SumSquaredErrorCached evaluates the curve at every interior data
// point with the variable control point set to candidate and all
// others fixed, accumulating squared residuals per coordinate. This is
// the hot path exercised once per population member per generation:
// O(N) rather than O(N·n_cp).
func (e *Evaluator) SumSquaredErrorCached(candidate Point2, dataset *DataSet) Point2 {
	var errX, errY float64

	for k := 1; k < dataset.N()-1; k++ {
		bx := candidate.X*e.paramProduct[k][e.variableCP] + e.constContrib[k].X
		by := candidate.Y*e.paramProduct[k][e.variableCP] + e.constContrib[k].Y

		dx := dataset.Points[k].X - bx
		dy := dataset.Points[k].Y - by
		errX += dx * dx
		errY += dy * dy
	}

	return Point2{X: errX, Y: errY}
}

// Clone returns a deep copy of the evaluator, including its caches.
// Cheap (O(N·n_cp)); provided for implementers who prefer giving each
// worker its own evaluator instance over sharing one read-only
// reference.
func (e *Evaluator) Clone() *Evaluator {
	clone := &Evaluator{
		nCP:        e.nCP,
		variableCP: e.variableCP,
	}

	clone.controlPoints = make([]Point2, len(e.controlPoints))
	copy(clone.controlPoints, e.controlPoints)

	if e.params != nil {
		clone.params = make([]float64, len(e.params))
		copy(clone.params, e.params)

		clone.paramProduct = make([][]float64, len(e.paramProduct))
		for i, row := range e.paramProduct {
			r := make([]float64, len(row))
			copy(r, row)
			clone.paramProduct[i] = r
		}

		clone.constContrib = make([]Point2, len(e.constContrib))
		copy(clone.constContrib, e.constContrib)
	}

	return clone
}
