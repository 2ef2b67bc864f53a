package render

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"github.com/ChrisMcGann/PeakTab/pkg/filter"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestBarChart(t *testing.T) {
	points := []filter.Point{
		{Parameter: "CH", Sample: "S1", Group: null.StringFrom("A"), Intensity: 0.7},
		{Parameter: "CH", Sample: "S2", Group: null.StringFrom("B"), Intensity: 0.6},
		{Parameter: "O2", Sample: "S1", Group: null.StringFrom("A"), Intensity: 0.3},
		{Parameter: "O2", Sample: "S2", Group: null.StringFrom("B"), Intensity: 0.4},
		{Parameter: "O2", Sample: "S3", Intensity: 0.05},
	}

	data, err := BarChart(points, Options{Title: "class", Width: 800, Height: 600})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))

	data, err = BarChart(points, Options{})
	require.NoError(t, err, "zero size falls back to defaults")
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func TestBarChartNoPoints(t *testing.T) {
	_, err := BarChart(nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrNoPoints)

	_, err = BarChart([]filter.Point{{Parameter: "CH", Sample: "S1", Intensity: math.NaN()}}, DefaultOptions())
	assert.ErrorIs(t, err, ErrNoPoints, "non-finite intensities are not drawn")
}
