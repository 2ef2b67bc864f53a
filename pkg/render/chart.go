// Package render draws aggregated intensities as charts.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ChrisMcGann/PeakTab/pkg/filter"
)

// ErrNoPoints is returned when there is nothing to draw.
var ErrNoPoints = errors.New("no aggregated points to draw")

// Options controls the chart size and labels.
type Options struct {
	Title  string
	Width  int
	Height int
}

// DefaultOptions returns the size used when none is configured.
func DefaultOptions() Options {
	return Options{Title: "Relative intensity", Width: 1600, Height: 900}
}

// BarChart renders points as a stacked bar chart PNG. Each parameter is a
// bar with one segment per sample. Segments are filled by sample and
// outlined by sample group.
func BarChart(points []filter.Point, opts Options) ([]byte, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		d := DefaultOptions()
		opts.Width, opts.Height = d.Width, d.Height
	}

	sampleColor := make(map[string]drawing.Color)
	groupColor := make(map[string]drawing.Color)
	index := make(map[string]int)
	var bars []chart.StackedBar

	for _, p := range points {
		if p.Intensity <= 0 || math.IsNaN(p.Intensity) || math.IsInf(p.Intensity, 0) {
			continue
		}
		if _, ok := sampleColor[p.Sample]; !ok {
			sampleColor[p.Sample] = chart.GetDefaultColor(len(sampleColor))
		}
		stroke := drawing.ColorFromHex("efefef")
		if p.Group.Valid {
			if _, ok := groupColor[p.Group.String]; !ok {
				groupColor[p.Group.String] = chart.GetAlternateColor(len(groupColor))
			}
			stroke = groupColor[p.Group.String]
		}

		i, ok := index[p.Parameter]
		if !ok {
			i = len(bars)
			index[p.Parameter] = i
			bars = append(bars, chart.StackedBar{Name: p.Parameter})
		}
		bars[i].Values = append(bars[i].Values, chart.Value{
			Label: p.Sample,
			Value: p.Intensity,
			Style: chart.Style{
				FillColor:   sampleColor[p.Sample],
				StrokeColor: stroke,
				StrokeWidth: 2,
			},
		})
	}
	if len(bars) == 0 {
		return nil, ErrNoPoints
	}

	barWidth := opts.Width / (2*len(bars) + 1)
	if barWidth < 4 {
		barWidth = 4
	}
	for i := range bars {
		bars[i].Width = barWidth
	}

	graph := chart.StackedBarChart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		BarSpacing: barWidth,
		Background: chart.Style{
			FillColor:   drawing.ColorWhite,
			StrokeColor: drawing.ColorFromHex("efefef"),
			StrokeWidth: 1,
		},
		XAxis: chart.Style{TextRotationDegrees: 45},
		Bars:  bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("error rendering chart: %v", err)
	}
	return buffer.Bytes(), nil
}
