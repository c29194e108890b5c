// Package svgpoints is a thin ingestion boundary: it reads a list of
// 2D data points from an SVG polyline and computes chord-length
// parameter values for them. It deliberately does nothing more — full
// SVG parsing and alternative parameterizations are out of scope.
package svgpoints

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/allanhasegawa/pdebc/pkg/bezier"
)

// Parse reads an SVG document from reader and extracts the first
// <polyline> element's point list — at any nesting depth under the
// document's <svg> root — returning a *bezier.DataSet with
// chord-length parameter values bound.
func Parse(reader io.Reader) (*bezier.DataSet, error) {
	raw, err := findPolylinePoints(reader)
	if err != nil {
		return nil, err
	}

	points, err := parsePointList(raw)
	if err != nil {
		return nil, err
	}

	params := ChordLength(points)

	return bezier.NewDataSet(points, params)
}

// findPolylinePoints scans the token stream for the first <polyline>
// start element and returns its points attribute, rather than decoding
// into a struct: a struct tagged xml:"polyline" only matches a
// document whose root element is itself <polyline>, which a real SVG
// document (root <svg>, polyline nested one or more levels inside) never is.
func findPolylinePoints(reader io.Reader) (string, error) {
	dec := xml.NewDecoder(reader)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return "", fmt.Errorf("svgpoints: no <polyline> element found")
		}

		if err != nil {
			return "", fmt.Errorf("svgpoints: failed to parse SVG: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "polyline" {
			continue
		}

		for _, attr := range se.Attr {
			if attr.Name.Local == "points" {
				return attr.Value, nil
			}
		}

		return "", fmt.Errorf("svgpoints: <polyline> element has no points attribute")
	}
}

func parsePointList(raw string) ([]bezier.Point2, error) {
	fields := strings.Fields(raw)
	points := make([]bezier.Point2, 0, len(fields))

	for _, f := range fields {
		xy := strings.SplitN(f, ",", 2)
		if len(xy) != 2 {
			return nil, fmt.Errorf("svgpoints: malformed point %q", f)
		}

		x, err := strconv.ParseFloat(xy[0], 64)
		if err != nil {
			return nil, fmt.Errorf("svgpoints: malformed x coordinate %q: %w", xy[0], err)
		}

		y, err := strconv.ParseFloat(xy[1], 64)
		if err != nil {
			return nil, fmt.Errorf("svgpoints: malformed y coordinate %q: %w", xy[1], err)
		}

		points = append(points, bezier.Point2{X: x, Y: y})
	}

	return points, nil
}

// ChordLength computes the chord-length parameterization of points: the
// cumulative Euclidean arc length up to each point, normalized to
// [0, 1]. Ported from the reference implementation's calcChordLength.
func ChordLength(points []bezier.Point2) []float64 {
	n := len(points)
	params := make([]float64, n)

	if n == 0 {
		return params
	}

	params[0] = 0
	params[n-1] = 1

	var total float64
	for i := 1; i < n; i++ {
		total += dist(points[i-1], points[i])
	}

	if total == 0 {
		return params
	}

	var cumulative float64
	for i := 1; i < n-1; i++ {
		cumulative += dist(points[i-1], points[i])
		params[i] = cumulative / total
	}

	return params
}

func dist(a, b bezier.Point2) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y

	return math.Sqrt(dx*dx + dy*dy)
}
