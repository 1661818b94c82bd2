package chart

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderHTML writes a standalone HTML page drawing the chart with ECharts
func (c *Chart) RenderHTML(w io.Writer, title string) error {
	if err := c.validate(); err != nil {
		return err
	}
	d := c.Defaults()

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     "100%",
			Height:    "420px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      title,
			TitleStyle: &opts.TextStyle{Color: d.Color},
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(c.Options.Plugins.Tooltip.Enabled),
			Trigger: tooltipTrigger(c.Options.Interaction.Mode),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
			Top:  c.Options.Plugins.Legend.Position,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			SplitLine: &opts.SplitLine{Show: opts.Bool(c.gridVisible("x"))},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			SplitLine: &opts.SplitLine{
				Show:      opts.Bool(c.gridVisible("y")),
				LineStyle: &opts.LineStyle{Color: c.Options.Scales["y"].Grid.Color},
			},
		}),
	)

	line.SetXAxis(c.Data.Labels)
	for _, ds := range c.Data.Datasets {
		items := make([]opts.LineData, len(ds.Data))
		for i, v := range ds.Data {
			items[i] = opts.LineData{Value: v}
		}

		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{
				Smooth:     opts.Bool(d.Elements.Line.Tension > 0),
				ShowSymbol: opts.Bool(d.Elements.Point.Radius > 0),
			}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: ds.BorderColor}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: ds.BorderColor}),
		}
		if ds.Fill {
			seriesOpts = append(seriesOpts, charts.WithAreaStyleOpts(opts.AreaStyle{Color: ds.BackgroundColor}))
		}
		line.AddSeries(ds.Label, items, seriesOpts...)
	}

	return line.Render(w)
}

// tooltipTrigger maps Chart.js interaction modes onto ECharts triggers
func tooltipTrigger(mode string) string {
	switch mode {
	case "index", "x":
		return "axis"
	default:
		return "item"
	}
}

func (c *Chart) gridVisible(axis string) bool {
	s, ok := c.Options.Scales[axis]
	if !ok || s.Grid.Display == nil {
		return true
	}
	return *s.Grid.Display
}
