package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
)

// ErrLengthMismatch is returned by renderers when a dataset is not aligned with the labels
var ErrLengthMismatch = errors.New("dataset length does not match labels")

// maxTicks caps the number of labels drawn on the PNG x axis
const maxTicks = 8

func (c *Chart) validate() error {
	for _, ds := range c.Data.Datasets {
		if len(ds.Data) != len(c.Data.Labels) {
			return fmt.Errorf("%w: %q has %d values for %d labels",
				ErrLengthMismatch, ds.Label, len(ds.Data), len(c.Data.Labels))
		}
	}
	return nil
}

// RenderPNG draws the chart as a PNG image of the given size.
// Nothing is written to w unless rendering succeeds. Charts with fewer than
// two points are drawn on a fixed axis instead of failing.
func (c *Chart) RenderPNG(w io.Writer, width, height int) error {
	if err := c.validate(); err != nil {
		return err
	}
	d := c.Defaults()

	textColor, err := parseColor(d.Color)
	if err != nil {
		return err
	}

	xs := make([]float64, len(c.Data.Labels))
	for i := range xs {
		xs[i] = float64(i)
	}

	series := make([]gochart.Series, 0, len(c.Data.Datasets))
	for _, ds := range c.Data.Datasets {
		style, err := datasetStyle(ds, d)
		if err != nil {
			return err
		}
		series = append(series, gochart.ContinuousSeries{
			Name:    ds.Label,
			XValues: xs,
			YValues: ds.Data,
			Style:   style,
		})
	}

	// go-chart takes the x range from the ticks, which need two distinct values
	ticks := labelTicks(c.Data.Labels)
	if len(ticks) == 1 {
		ticks = append(ticks, gochart.Tick{Value: 1})
	}

	axisStyle := gochart.Style{FontColor: textColor}
	graph := gochart.Chart{
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis: gochart.XAxis{
			Style: axisStyle,
			Ticks: ticks,
			Range: &gochart.ContinuousRange{Min: 0, Max: math.Max(1, float64(len(xs)-1))},
		},
		YAxis: gochart.YAxis{
			Style:          axisStyle,
			GridMajorStyle: c.yGridStyle(),
			Range:          c.yRange(),
		},
		Series: series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// yRange pins the y axis when the data cannot span one: no values at all,
// or every value equal. Otherwise go-chart derives it from the series.
func (c *Chart) yRange() gochart.Range {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, ds := range c.Data.Datasets {
		for _, v := range ds.Data {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	switch {
	case lo > hi:
		return &gochart.ContinuousRange{Min: 0, Max: 100}
	case lo == hi:
		return &gochart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	return nil
}

func datasetStyle(ds Dataset, d Defaults) (gochart.Style, error) {
	stroke, err := parseColor(ds.BorderColor)
	if err != nil {
		return gochart.Style{}, err
	}
	style := gochart.Style{
		StrokeColor: stroke,
		StrokeWidth: 2,
		DotColor:    stroke,
		DotWidth:    d.Elements.Point.Radius,
	}
	if ds.Fill {
		fill, err := parseColor(ds.BackgroundColor)
		if err != nil {
			return gochart.Style{}, err
		}
		style.FillColor = fill
	}
	return style, nil
}

func (c *Chart) yGridStyle() gochart.Style {
	y, ok := c.Options.Scales["y"]
	if !ok || y.Grid.Color == "" {
		return gochart.Style{}
	}
	col, err := parseColor(y.Grid.Color)
	if err != nil {
		return gochart.Style{}
	}
	return gochart.Style{StrokeColor: col, StrokeWidth: 1}
}

// labelTicks spreads at most maxTicks labels evenly over the x axis
func labelTicks(labels []string) []gochart.Tick {
	if len(labels) == 0 {
		return nil
	}
	step := (len(labels) + maxTicks - 1) / maxTicks
	ticks := make([]gochart.Tick, 0, maxTicks+1)
	for i := 0; i < len(labels); i += step {
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: labels[i]})
	}
	if last := len(labels) - 1; ticks[len(ticks)-1].Value != float64(last) {
		ticks = append(ticks, gochart.Tick{Value: float64(last), Label: labels[last]})
	}
	return ticks
}
