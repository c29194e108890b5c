package bezier

// Point2 is an ordered pair of real numbers. It is a value type and is
// freely copied.
type Point2 struct {
	X float64
	Y float64
}

// ToSlice returns p as a two-element []float64, matching the shape
// gonum/floats vector helpers expect.
func (p Point2) ToSlice() []float64 {
	return []float64{p.X, p.Y}
}

// PointFromSlice builds a Point2 from a two-element slice.
func PointFromSlice(v []float64) Point2 {
	return Point2{X: v[0], Y: v[1]}
}
