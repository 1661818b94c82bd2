package chart

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gochart "github.com/wcharczuk/go-chart/v2"
)

func sampleChart(t *testing.T, n int) *Chart {
	t.Helper()
	lib := NewLibrary()
	ApplyDefaults(lib)

	labels := make([]string, n)
	temp := make([]float64, n)
	hum := make([]float64, n)
	soil := make([]float64, n)
	for i := 0; i < n; i++ {
		labels[i] = fmt.Sprintf("12:%02d:00", i)
		temp[i] = 20 + float64(i%5)
		hum[i] = 50 + float64(i%7)
		soil[i] = 30 + float64(i%3)
	}
	c := lib.NewAgriLineChart("agriChart", labels, temp, hum, soil)
	t.Cleanup(c.Destroy)
	return c
}

func TestRenderPNG(t *testing.T) {
	c := sampleChart(t, 12)

	var buf bytes.Buffer
	require.NoError(t, c.RenderPNG(&buf, 640, 320))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")))
}

func TestRenderPNG_FewPoints(t *testing.T) {
	lib := NewLibrary()
	ApplyDefaults(lib)

	tests := []struct {
		name  string
		chart *Chart
	}{
		{name: "no readings", chart: lib.NewAgriLineChart("agriChart", nil, nil, nil, nil)},
		{name: "one reading", chart: sampleChart(t, 1)},
		{name: "flat values", chart: lib.NewAgriLineChart("agriChart",
			[]string{"t1", "t2"}, []float64{5, 5}, []float64{5, 5}, []float64{5, 5})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer tt.chart.Destroy()

			var buf bytes.Buffer
			require.NoError(t, tt.chart.RenderPNG(&buf, 320, 200))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")))
		})
	}
}

func TestYRange(t *testing.T) {
	lib := NewLibrary()

	empty := lib.NewAgriLineChart("a", nil, nil, nil, nil)
	assert.Equal(t, &gochart.ContinuousRange{Min: 0, Max: 100}, empty.yRange())

	flat := lib.NewAgriLineChart("a", []string{"t"}, []float64{3}, []float64{3}, []float64{3})
	assert.Equal(t, &gochart.ContinuousRange{Min: 2, Max: 4}, flat.yRange())

	spread := lib.NewAgriLineChart("a", []string{"t"}, []float64{3}, []float64{40}, []float64{10})
	assert.Nil(t, spread.yRange())
}

func TestRenderPNG_LengthMismatch(t *testing.T) {
	lib := NewLibrary()
	c := lib.NewAgriLineChart("agriChart", []string{"t1", "t2", "t3"}, []float64{1, 2}, []float64{1, 2, 3}, []float64{1, 2, 3})

	var buf bytes.Buffer
	err := c.RenderPNG(&buf, 640, 320)
	require.ErrorIs(t, err, ErrLengthMismatch)
	assert.Zero(t, buf.Len())
}

func TestRenderHTML(t *testing.T) {
	c := sampleChart(t, 5)

	var buf bytes.Buffer
	require.NoError(t, c.RenderHTML(&buf, "Field conditions"))

	html := buf.String()
	assert.Contains(t, html, "Field conditions")
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "Humidity (%)")
	assert.Contains(t, html, "#16a34a")
}

func TestRenderHTML_LengthMismatch(t *testing.T) {
	lib := NewLibrary()
	c := lib.NewAgriLineChart("agriChart", []string{"t1"}, []float64{1}, []float64{1, 2}, []float64{1})

	err := c.RenderHTML(&bytes.Buffer{}, "x")
	require.ErrorIs(t, err, ErrLengthMismatch)
}

func TestLabelTicks(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		values []float64
	}{
		{name: "empty", n: 0, values: nil},
		{name: "single", n: 1, values: []float64{0}},
		{name: "fewer than cap", n: 4, values: []float64{0, 1, 2, 3}},
		{name: "thinned keeps last", n: 20, values: []float64{0, 3, 6, 9, 12, 15, 18, 19}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels := make([]string, tt.n)
			for i := range labels {
				labels[i] = fmt.Sprint(i)
			}
			ticks := labelTicks(labels)

			var values []float64
			for _, tick := range ticks {
				values = append(values, tick.Value)
				assert.Equal(t, fmt.Sprint(int(tick.Value)), tick.Label)
			}
			assert.Equal(t, tt.values, values)
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		r, g, b uint8
		a       uint8
		wantErr bool
	}{
		{name: "hex", in: "#ef4444", r: 0xef, g: 0x44, b: 0x44, a: 255},
		{name: "short hex", in: "#666", r: 0x66, g: 0x66, b: 0x66, a: 255},
		{name: "rgba", in: "rgba(239,68,68,.15)", r: 239, g: 68, b: 68, a: 38},
		{name: "rgba spaced", in: "rgba(15, 23, 42, 0.5)", r: 15, g: 23, b: 42, a: 127},
		{name: "rgb", in: "rgb(1,2,3)", r: 1, g: 2, b: 3, a: 255},
		{name: "named", in: "red", r: 255, g: 0, b: 0, a: 255},
		{name: "unknown name", in: "chartreuse", wantErr: true},
		{name: "bad hex", in: "#zzzzzz", wantErr: true},
		{name: "four digit hex", in: "#ef44", wantErr: true},
		{name: "rgba missing alpha", in: "rgba(1,2,3)", wantErr: true},
		{name: "unterminated", in: "rgb(1,2,3", wantErr: true},
		{name: "alpha out of range", in: "rgba(1,2,3,2)", wantErr: true},
		{name: "component out of range", in: "rgb(300,2,3)", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := parseColor(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.r, c.R)
			assert.Equal(t, tt.g, c.G)
			assert.Equal(t, tt.b, c.B)
			assert.Equal(t, tt.a, c.A)
		})
	}
}
