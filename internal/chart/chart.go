package chart

import (
	"slices"

	"github.com/google/uuid"
)

// Series labels, in dataset order
const (
	TemperatureLabel  = "Temperature (°C)"
	HumidityLabel     = "Humidity (%)"
	SoilMoistureLabel = "Soil Moisture (%)"
)

// Chart is a chart instance owned by a Library.
// It marshals to a Chart.js configuration object.
type Chart struct {
	ID      string  `json:"-"`
	Target  string  `json:"-"`
	Type    string  `json:"type"`
	Data    Data    `json:"data"`
	Options Options `json:"options"`

	lib *Library
}

type Data struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BorderColor     string    `json:"borderColor"`
	BackgroundColor string    `json:"backgroundColor"`
	Fill            bool      `json:"fill"`
}

type Options struct {
	Interaction Interaction      `json:"interaction"`
	Plugins     Plugins          `json:"plugins"`
	Scales      map[string]Scale `json:"scales"`
}

type Interaction struct {
	Intersect bool   `json:"intersect"`
	Mode      string `json:"mode"`
}

type Plugins struct {
	Tooltip Tooltip `json:"tooltip"`
	Legend  Legend  `json:"legend"`
}

type Tooltip struct {
	Enabled         bool   `json:"enabled"`
	BackgroundColor string `json:"backgroundColor"`
	Padding         int    `json:"padding"`
	BodySpacing     int    `json:"bodySpacing"`
	TitleSpacing    int    `json:"titleSpacing"`
}

type Legend struct {
	Position string `json:"position"`
}

type Scale struct {
	Grid Grid `json:"grid"`
}

type Grid struct {
	Display *bool  `json:"display,omitempty"`
	Color   string `json:"color,omitempty"`
}

// NewChart registers a chart of the given type on target and returns it
func (l *Library) NewChart(target, chartType string, data Data, options Options) *Chart {
	c := &Chart{
		ID:      uuid.NewString(),
		Target:  target,
		Type:    chartType,
		Data:    data,
		Options: options,
		lib:     l,
	}

	l.mu.Lock()
	l.instances[c.ID] = c
	l.mu.Unlock()

	return c
}

// NewAgriLineChart builds the dashboard's line chart: temperature, humidity and
// soil moisture plotted against labels. The inputs are copied, not validated;
// they are expected to be index-aligned with labels.
func (l *Library) NewAgriLineChart(target string, labels []string, temperature, humidity, soil []float64) *Chart {
	data := Data{
		Labels: slices.Clone(labels),
		Datasets: []Dataset{
			{
				Label:           TemperatureLabel,
				Data:            slices.Clone(temperature),
				BorderColor:     "#ef4444",
				BackgroundColor: "rgba(239,68,68,.15)",
				Fill:            true,
			},
			{
				Label:           HumidityLabel,
				Data:            slices.Clone(humidity),
				BorderColor:     "#2563eb",
				BackgroundColor: "rgba(37,99,235,.12)",
				Fill:            true,
			},
			{
				Label:           SoilMoistureLabel,
				Data:            slices.Clone(soil),
				BorderColor:     "#16a34a",
				BackgroundColor: "rgba(22,163,74,.12)",
				Fill:            true,
			},
		},
	}

	hidden := false
	options := Options{
		Interaction: Interaction{Intersect: false, Mode: "index"},
		Plugins: Plugins{
			Tooltip: Tooltip{
				Enabled:         true,
				BackgroundColor: "rgba(15,23,42,.9)",
				Padding:         10,
				BodySpacing:     6,
				TitleSpacing:    6,
			},
			Legend: Legend{Position: "top"},
		},
		Scales: map[string]Scale{
			"x": {Grid: Grid{Display: &hidden}},
			"y": {Grid: Grid{Color: "rgba(226,232,240,.6)"}},
		},
	}

	return l.NewChart(target, "line", data, options)
}

// Instances returns the charts currently owned by the library
func (l *Library) Instances() []*Chart {
	l.mu.RLock()
	defer l.mu.RUnlock()

	charts := make([]*Chart, 0, len(l.instances))
	for _, c := range l.instances {
		charts = append(charts, c)
	}
	return charts
}

// Destroy releases the chart from its library
func (c *Chart) Destroy() {
	if c.lib == nil {
		return
	}
	c.lib.mu.Lock()
	delete(c.lib.instances, c.ID)
	c.lib.mu.Unlock()
}

// Defaults returns the defaults of the owning library
func (c *Chart) Defaults() Defaults {
	if c.lib == nil {
		return stockDefaults()
	}
	return c.lib.Defaults()
}
