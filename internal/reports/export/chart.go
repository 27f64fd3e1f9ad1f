package export

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"carbon-offset/offset-portal/offset-portal-backend/internal/planner"
)

// ErrNoChartData is returned when a trend has no finite points to draw
var ErrNoChartData = errors.New("no emission data to chart")

var trendColor = color.RGBA{R: 46, G: 125, B: 50, A: 255}

// EmissionTrendPNG renders the monthly emission series as a line chart
func EmissionTrendPNG(plan *planner.OffsetPlan, width, height vg.Length) ([]byte, error) {
	points := make(plotter.XYs, 0, len(plan.Graphs.MonthlyEmissions))
	labels := make([]string, 0, len(plan.Graphs.MonthlyEmissions))
	for _, p := range plan.Graphs.MonthlyEmissions {
		if math.IsNaN(p.EmissionIndex) || math.IsInf(p.EmissionIndex, 0) {
			continue
		}
		points = append(points, plotter.XY{X: float64(len(points)), Y: p.EmissionIndex})
		labels = append(labels, p.MonthYear.String())
	}
	if len(points) == 0 {
		return nil, ErrNoChartData
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s - Monthly Emission Index", plan.Metadata.MineName)
	p.X.Label.Text = "Month"
	p.Y.Label.Text = "Emission index"
	p.NominalX(labels...)
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(points)
	if err != nil {
		return nil, fmt.Errorf("failed to build trend line: %w", err)
	}
	line.Width = vg.Points(1.5)
	line.Color = trendColor
	p.Add(line)

	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return nil, fmt.Errorf("failed to build trend points: %w", err)
	}
	scatter.Color = trendColor
	p.Add(scatter)

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode chart: %w", err)
	}
	return buf.Bytes(), nil
}
