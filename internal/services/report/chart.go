package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var seriesColors = []string{
	"2563eb", // blue-600
	"16a34a", // green-600
	"dc2626", // red-600
	"d97706", // amber-600
	"7c3aed", // violet-600
	"0891b2", // cyan-600
}

// RenderChart renders a PNG line chart of the table: the total value and one
// series per category, oldest date on the left. Returns raw PNG bytes.
func RenderChart(t *Table) ([]byte, error) {
	if len(t.Dates) < 2 {
		return nil, fmt.Errorf("need at least 2 dates, got %d", len(t.Dates))
	}

	n := len(t.Dates)
	xValues := make([]time.Time, n)
	for i, d := range t.Dates {
		xValues[n-1-i] = d.Time()
	}
	ascending := func(values []int64) []float64 {
		out := make([]float64, n)
		for i, v := range values {
			out[n-1-i] = float64(v)
		}
		return out
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name: "Total",
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("111827"), // gray-900
				StrokeWidth: 2.5,
			},
			XValues: xValues,
			YValues: ascending(t.Total.Values),
		},
	}
	for i, row := range t.Rows {
		series = append(series, chart.TimeSeries{
			Name: row.Category,
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex(seriesColors[i%len(seriesColors)]),
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: xValues,
			YValues: ascending(row.Values),
		})
	}

	graph := chart.Chart{
		Title:  "Holding Value by Category",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return chart.TimeFromFloat64(f).Format("02 Jan")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return FormatAmount(int64(f))
				}
				return ""
			},
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
