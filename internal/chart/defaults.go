// Package chart models the dashboard's charting library: its global defaults,
// the chart instances it owns, and the renderers that draw them.
//
// The JSON form of Defaults and Chart matches Chart.js, so the browser can apply
// the defaults and construct the same chart the server renders to PNG or HTML.
package chart

import (
	"sync"
)

// Dashboard look applied by ApplyDefaults
const (
	DefaultFontFamily        = "Inter, Poppins, system-ui, -apple-system, Segoe UI, Roboto, Helvetica Neue, Arial"
	DefaultColor             = "#334155"
	DefaultLineTension       = 0.35
	DefaultPointRadius       = 0
	DefaultAnimationDuration = 500
)

// Defaults is the subset of the library's global defaults the dashboard overrides
type Defaults struct {
	Font                Font           `json:"font"`
	Color               string         `json:"color"`
	Responsive          bool           `json:"responsive"`
	MaintainAspectRatio bool           `json:"maintainAspectRatio"`
	Plugins             PluginDefaults `json:"plugins"`
	Elements            Elements       `json:"elements"`
	Animation           Animation      `json:"animation"`
}

type Font struct {
	Family string `json:"family"`
}

type PluginDefaults struct {
	Legend LegendDefaults `json:"legend"`
}

type LegendDefaults struct {
	Labels LegendLabels `json:"labels"`
}

type LegendLabels struct {
	UsePointStyle bool `json:"usePointStyle"`
}

type Elements struct {
	Line  LineElement  `json:"line"`
	Point PointElement `json:"point"`
}

type LineElement struct {
	Tension float64 `json:"tension"`
}

type PointElement struct {
	Radius float64 `json:"radius"`
}

// Animation duration is in milliseconds
type Animation struct {
	Duration int `json:"duration"`
}

// stockDefaults are the values a fresh library starts with
func stockDefaults() Defaults {
	return Defaults{
		Font:                Font{Family: "'Helvetica Neue', 'Helvetica', 'Arial', sans-serif"},
		Color:               "#666",
		Responsive:          true,
		MaintainAspectRatio: true,
		Elements: Elements{
			Line:  LineElement{Tension: 0},
			Point: PointElement{Radius: 3},
		},
		Animation: Animation{Duration: 1000},
	}
}

// Library is the charting library's global entry point.
// It holds the shared defaults and every chart instance created through it.
type Library struct {
	mu        sync.RWMutex
	defaults  Defaults
	once      sync.Once
	instances map[string]*Chart
}

// NewLibrary returns a library with stock defaults and no charts
func NewLibrary() *Library {
	return &Library{
		defaults:  stockDefaults(),
		instances: make(map[string]*Chart),
	}
}

// Defaults returns a copy of the current global defaults
func (l *Library) Defaults() Defaults {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.defaults
}

// ApplyDefaults sets the dashboard's visual defaults on lib, once.
// A nil lib means the library is not available and nothing happens.
// Charts created afterwards render with these defaults.
func ApplyDefaults(lib *Library) {
	if lib == nil {
		return
	}

	lib.once.Do(func() {
		lib.mu.Lock()
		defer lib.mu.Unlock()

		d := &lib.defaults
		d.Font.Family = DefaultFontFamily
		d.Color = DefaultColor
		d.Responsive = true
		d.MaintainAspectRatio = false
		d.Plugins.Legend.Labels.UsePointStyle = true
		d.Elements.Line.Tension = DefaultLineTension
		d.Elements.Point.Radius = DefaultPointRadius
		d.Animation.Duration = DefaultAnimationDuration
	})
}
