// Package render is a thin output boundary: it samples a fitted Bézier
// curve at evenly spaced parameter values and writes it out as an SVG
// path. No styling beyond a fixed stroke is attempted.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/allanhasegawa/pdebc/pkg/bezier"
)

// WriteSVG samples ev at interpolation+1 evenly spaced parameter values
// in [0, 1] and writes the curve as a single SVG <path> element to w.
// Ported from the reference implementation's SaveAsSVGPoints.
func WriteSVG(w io.Writer, ev *bezier.Evaluator, interpolation int) error {
	if interpolation <= 0 {
		return fmt.Errorf("render: interpolation must be positive, got %d", interpolation)
	}

	var b strings.Builder

	b.WriteString("<g stroke=\"black\" stroke-width=\"1\" fill=\"none\">\n")
	b.WriteString("<path id=\"path_bc\" d=\"")

	p := ev.Evaluate(0)
	fmt.Fprintf(&b, "M %v %v ", p.X, p.Y)

	step := 1.0 / float64(interpolation)
	for i := 1; i <= interpolation; i++ {
		t := float64(i) * step
		if t > 1 {
			t = 1
		}

		p = ev.Evaluate(t)
		fmt.Fprintf(&b, "L %v %v ", p.X, p.Y)
	}

	b.WriteString("\" />\n")
	b.WriteString("</g>\n")

	_, err := io.WriteString(w, b.String())

	return err
}

// WritePolyline writes the raw data points underlying a dataset as an
// SVG <polyline>, useful for overlaying the original samples on top of
// the fitted curve rendered by WriteSVG.
func WritePolyline(w io.Writer, points []bezier.Point2) error {
	var b strings.Builder

	b.WriteString("<polyline points=\"")

	for i, p := range points {
		if i > 0 {
			b.WriteString(" ")
		}

		fmt.Fprintf(&b, "%v,%v", p.X, p.Y)
	}

	b.WriteString("\" stroke=\"red\" fill=\"none\" />\n")

	_, err := io.WriteString(w, b.String())

	return err
}
