package report

import (
	"bytes"
	"fmt"

	"github.com/tklauser/thesis-scripts/internal/analysis"
	"github.com/wcharczuk/go-chart/v2"
)

// CreateRewardChart draws the cumulative reward against the step index.
func CreateRewardChart(curve *analysis.RewardCurve, title string, width, height int) ([]byte, error) {
	if curve == nil || len(curve.Cumulative) < 2 {
		return nil, fmt.Errorf("need at least two reward rows to draw a chart")
	}
	xs := make([]float64, len(curve.Cumulative))
	for i := range xs {
		xs[i] = float64(i)
	}

	ch := chart.Chart{
		Title:  title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 16, Right: 16, Bottom: 10},
		},
		XAxis: chart.XAxis{Name: "time step"},
		YAxis: chart.YAxis{Name: "cumulative reward"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "reward",
				XValues: xs,
				YValues: curve.Cumulative,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: 1.5,
				},
			},
		},
	}

	lo, hi := curve.Cumulative[0], curve.Cumulative[0]
	for _, v := range curve.Cumulative {
		lo, hi = min(lo, v), max(hi, v)
	}
	if lo == hi {
		// go-chart refuses a zero height range
		ch.YAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render reward chart: %w", err)
	}
	return buf.Bytes(), nil
}
