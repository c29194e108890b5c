package bezier

import "fmt"

// DataSet is an ordered sequence of data points together with a
// parallel sequence of parameter values in [0, 1].
type DataSet struct {
	Points []Point2
	Params []float64
}

// NewDataSet validates and constructs a DataSet. Parameter values must be
// monotone non-decreasing, the first equal to 0 and the last equal to 1.
// Duplicates are tolerated (they produce degenerate, not invalid, terms).
// Two points (the n_cp=2, endpoints-only case) is the minimum: a single
// point has no well-defined parameterization spanning [0, 1].
func NewDataSet(points []Point2, params []float64) (*DataSet, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("bezier: need at least 2 data points, got %d", len(points))
	}

	if len(points) != len(params) {
		return nil, fmt.Errorf("bezier: points and params length mismatch: %d vs %d", len(points), len(params))
	}

	if params[0] != 0 {
		return nil, fmt.Errorf("bezier: first parameter value must be 0, got %v", params[0])
	}

	if params[len(params)-1] != 1 {
		return nil, fmt.Errorf("bezier: last parameter value must be 1, got %v", params[len(params)-1])
	}

	for i := 1; i < len(params); i++ {
		if params[i] < params[i-1] {
			return nil, fmt.Errorf("bezier: parameter values must be monotone non-decreasing, params[%d]=%v < params[%d]=%v", i, params[i], i-1, params[i-1])
		}
	}

	return &DataSet{Points: points, Params: params}, nil
}

// N returns the number of data points.
func (d *DataSet) N() int {
	return len(d.Points)
}
