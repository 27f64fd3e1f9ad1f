// Package dashboard renders self-contained HTML chart pages.
package dashboard

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"carbon-offset/offset-portal/offset-portal-backend/internal/planner"
)

// AssetsHost serves the echarts javascript; empty uses the go-echarts default CDN
var AssetsHost = ""

func initOpts(title string) opts.Initialization {
	o := opts.Initialization{PageTitle: title, Width: "100%", Height: "420px"}
	if AssetsHost != "" {
		o.AssetsHost = AssetsHost
	}
	return o
}

// RenderPlan writes an HTML page with the plan's cost split, land
// compliance and monthly emission trend.
func RenderPlan(w io.Writer, plan *planner.OffsetPlan) error {
	page := components.NewPage()
	if AssetsHost != "" {
		page.SetAssetsHost(AssetsHost)
	}
	page.AddCharts(costPie(plan), landBar(plan))
	if len(plan.Graphs.MonthlyEmissions) > 0 {
		page.AddCharts(emissionLine(plan))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	return nil
}

func costPie(plan *planner.OffsetPlan) *charts.Pie {
	t := plan.TreePlan
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts("Planting budget")),
		charts.WithTitleOpts(opts.Title{
			Title:    "Planting budget by species (INR)",
			Subtitle: fmt.Sprintf("total %.0f", plan.KPIs.EstimatedBudgetINR),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
	)
	pie.AddSeries("budget", []opts.PieData{
		{Name: "Teak", Value: finite(t.Teak.TotalCost)},
		{Name: "Acacia", Value: finite(t.Acacia.TotalCost)},
		{Name: "Pioneer", Value: finite(t.Pioneer.TotalCost)},
	}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}))
	return pie
}

func landBar(plan *planner.OffsetPlan) *charts.Bar {
	k := plan.KPIs
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts("Land compliance")),
		charts.WithTitleOpts(opts.Title{Title: "Land compliance (ha)", Subtitle: k.LandStatus}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis([]string{"Required", "Available"}).
		AddSeries("hectares", []opts.BarData{
			{Value: finite(k.LandRequiredHa)},
			{Value: finite(k.LandAvailableHa)},
		}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

func emissionLine(plan *planner.OffsetPlan) *charts.Line {
	months := make([]string, 0, len(plan.Graphs.MonthlyEmissions))
	values := make([]opts.LineData, 0, len(plan.Graphs.MonthlyEmissions))
	for _, p := range plan.Graphs.MonthlyEmissions {
		months = append(months, p.MonthYear.String())
		values = append(values, opts.LineData{Value: finite(p.EmissionIndex)})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts("Emission trend")),
		charts.WithTitleOpts(opts.Title{Title: "Monthly emission index"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "index"}),
	)
	line.SetXAxis(months).AddSeries("emission index", values,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
	)
	return line
}

// finite maps NaN and infinities to nil so echarts renders a gap
func finite(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return math.Round(v*100) / 100
}
