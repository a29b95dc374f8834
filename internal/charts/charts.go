// Package charts renders dashboard aggregates as go-echarts pages.
package charts

import (
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"velocity-dashboard/internal/models"
)

const (
	chartWidth      = "1000px"
	chartHeight     = "480px"
	backgroundColor = "#0f172a"
	textColor       = "#e2e8f0"
	unitsColor      = "#38bdf8"
	targetColor     = "#f59e0b"
)

func initOpts() charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		Width:           chartWidth,
		Height:          chartHeight,
		BackgroundColor: backgroundColor,
	})
}

func titleOpts(title, subtitle string) charts.GlobalOpts {
	return charts.WithTitleOpts(opts.Title{
		Title:      title,
		Subtitle:   subtitle,
		TitleStyle: &opts.TextStyle{Color: textColor},
	})
}

func axisLabel() *opts.AxisLabel {
	return &opts.AxisLabel{Color: textColor}
}

// value maps non-finite numbers to nil so the chart shows a gap instead of
// failing to encode.
func value(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// Trend draws a single monthly series in calendar order.
func Trend(title, subtitle, series string, points []models.TrendPoint) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		initOpts(),
		titleOpts(title, subtitle),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:         "Month",
			NameLocation: "center",
			NameGap:      30,
			AxisLabel:    axisLabel(),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      series,
			AxisLabel: axisLabel(),
		}),
	)

	months := make([]string, len(points))
	data := make([]opts.LineData, len(points))
	for i, p := range points {
		months[i] = p.Month
		data[i] = opts.LineData{Value: value(p.Value)}
	}
	line.SetXAxis(months).AddSeries(series, data)
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
	)
	return line
}

// ModelMix is a doughnut of units per model, coloured with each model's tag.
func ModelMix(subtitle string, shares []models.ModelShare) *charts.Pie {
	data := make([]opts.PieData, 0, len(shares))
	for _, s := range shares {
		item := opts.PieData{Name: s.Name, Value: s.Units}
		if s.Color != "" {
			item.ItemStyle = &opts.ItemStyle{Color: s.Color}
		}
		data = append(data, item)
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		initOpts(),
		titleOpts("Units by Model", subtitle),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Trigger:   "item",
			Formatter: "{b}: {c} ({d}%)",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:      opts.Bool(true),
			Right:     "10",
			Orient:    "vertical",
			TextStyle: &opts.TextStyle{Color: textColor},
		}),
	)

	pie.AddSeries("Units", data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show:      opts.Bool(true),
				Formatter: "{b}",
			}),
			charts.WithPieChartOpts(opts.PieChart{
				Radius: []string{"40%", "70%"},
				Center: []string{"45%", "55%"},
			}),
		)
	return pie
}

// Regional compares units sold against target attainment for every region.
func Regional(subtitle string, regions []models.RegionComparison) *charts.Bar {
	names := make([]string, len(regions))
	units := make([]opts.BarData, len(regions))
	target := make([]opts.BarData, len(regions))
	for i, r := range regions {
		names[i] = r.Region
		units[i] = opts.BarData{Value: r.Units}
		target[i] = opts.BarData{Value: value(math.Round(r.TargetPct*10) / 10)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts(),
		titleOpts("Regional Performance", subtitle),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:      opts.Bool(true),
			Right:     "10",
			TextStyle: &opts.TextStyle{Color: textColor},
		}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: axisLabel()}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      "Units",
			AxisLabel: axisLabel(),
		}),
	)

	bar.SetXAxis(names).
		AddSeries("Units", units, charts.WithItemStyleOpts(opts.ItemStyle{Color: unitsColor})).
		AddSeries("% of Target", target, charts.WithItemStyleOpts(opts.ItemStyle{Color: targetColor}))
	return bar
}

// Page lays out the trend, model mix and regional charts for one snapshot.
func Page(company string, snap *models.DashboardSnapshot) *components.Page {
	label := snap.Summary.Label

	page := components.NewPage()
	page.PageTitle = company + " Sales"
	page.AddCharts(
		Trend("Monthly Revenue", label, "Revenue", snap.RevenueTrend),
		Trend("Monthly Units", label, "Units", snap.UnitsTrend),
		ModelMix(label, snap.Models),
		Regional(label, snap.Regions),
	)
	return page
}

func Render(w io.Writer, company string, snap *models.DashboardSnapshot) error {
	return Page(company, snap).Render(w)
}
