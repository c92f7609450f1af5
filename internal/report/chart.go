package report

import (
	"errors"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	colorScored   = drawing.ColorFromHex("4682b4") // steelblue
	colorChrY     = drawing.ColorFromHex("ff8c00") // darkorange
	colorOtherChr = drawing.ColorFromHex("9370db") // mediumpurple
)

// RenderScoredChart draws a stacked bar chart with one bar for the total
// number of variants and one per score column split into scored, unscored
// on chromosome Y and unscored elsewhere. The chart is written as PNG.
func RenderScoredChart(w io.Writer, title string, summaries []ScoreSummary) error {
	if len(summaries) == 0 || summaries[0].Total == 0 {
		return errors.New("no variants to plot")
	}

	bars := []chart.StackedBar{
		{
			Name: "Total Variants",
			Values: []chart.Value{
				{Label: "Total", Value: float64(summaries[0].Total), Style: fill(colorScored)},
			},
		},
	}
	for _, s := range summaries {
		bars = append(bars, chart.StackedBar{
			Name: s.Column,
			Values: []chart.Value{
				{Label: "Scored", Value: float64(s.Scored), Style: fill(colorScored)},
				{Label: "Not scored chrY", Value: float64(s.UnscoredChrY), Style: fill(colorChrY)},
				{Label: "Not scored non-chrY", Value: float64(s.UnscoredOthers), Style: fill(colorOtherChr)},
			},
		})
	}

	graph := chart.StackedBarChart{
		Title:  title,
		Width:  800,
		Height: 600,
		Background: chart.Style{
			Padding: chart.Box{Top: 50},
		},
		Bars: bars,
	}

	return graph.Render(chart.PNG, w)
}

func fill(c drawing.Color) chart.Style {
	return chart.Style{
		FillColor:   c,
		StrokeColor: c,
		StrokeWidth: 1,
	}
}
