package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanhasegawa/pdebc/pkg/bezier"
)

func TestWriteSVGProducesPathWithExpectedSegmentCount(t *testing.T) {
	ev, err := bezier.NewEvaluator([]bezier.Point2{{X: 0, Y: 0}, {X: 5, Y: 10}, {X: 10, Y: 0}})
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, WriteSVG(&sb, ev, 10))

	out := sb.String()
	assert.True(t, strings.HasPrefix(strings.TrimSpace(strings.SplitN(out, "\n", 2)[1]), "<path"))
	assert.Equal(t, 1, strings.Count(out, "M "))
	assert.Equal(t, 10, strings.Count(out, "L "))
}

func TestWriteSVGRejectsNonPositiveInterpolation(t *testing.T) {
	ev, err := bezier.NewEvaluator([]bezier.Point2{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}})
	require.NoError(t, err)

	var sb strings.Builder
	assert.Error(t, WriteSVG(&sb, ev, 0))
}

func TestWritePolylineFormatsEveryPoint(t *testing.T) {
	points := []bezier.Point2{{X: 0, Y: 0}, {X: 1, Y: 2}}

	var sb strings.Builder
	require.NoError(t, WritePolyline(&sb, points))

	assert.Contains(t, sb.String(), "0,0 1,2")
}
