package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/NissesSenap/agri-dashboard/internal/chart"
	"github.com/NissesSenap/agri-dashboard/internal/config"
	"github.com/NissesSenap/agri-dashboard/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeAdvisor struct {
	calls int
	got   *storage.Aggregates
}

func (f *fakeAdvisor) Analyze(_ context.Context, agg *storage.Aggregates) string {
	f.calls++
	f.got = agg
	return "Water the tomatoes."
}

type testServer struct {
	srv     *Server
	store   *storage.SQLiteStorage
	lib     *chart.Library
	advisor *fakeAdvisor
}

func newTestServer(t *testing.T, readings int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	now := time.Now()
	for i := 0; i < readings; i++ {
		err := store.InsertReading(context.Background(), &storage.Reading{
			CreatedAt:    now.Add(time.Duration(i-readings) * time.Minute),
			TemperatureC: storage.Float(20 + float64(i)),
			Humidity:     storage.Float(50),
			SoilMoisture: storage.Float(500),
		})
		require.NoError(t, err)
	}

	lib := chart.NewLibrary()
	chart.ApplyDefaults(lib)
	adv := &fakeAdvisor{}

	srv, err := New(config.DefaultConfig(), store, lib, adv, zaptest.NewLogger(t))
	require.NoError(t, err)

	return &testServer{srv: srv, store: store, lib: lib, advisor: adv}
}

func (ts *testServer) do(t *testing.T, method, target string, body url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAPIReadings(t *testing.T) {
	ts := newTestServer(t, 5)

	rec := ts.do(t, http.MethodGet, "/api/readings?limit=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Readings []storage.Reading `json:"readings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Readings, 3)
	assert.Equal(t, 24.0, *body.Readings[0].TemperatureC)
	assert.True(t, body.Readings[0].CreatedAt.After(body.Readings[1].CreatedAt))
}

func TestAPIReadings_Empty(t *testing.T) {
	ts := newTestServer(t, 0)

	rec := ts.do(t, http.MethodGet, "/api/readings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"readings":[]}`, rec.Body.String())
}

func TestInvalidQueryParameters(t *testing.T) {
	ts := newTestServer(t, 1)

	tests := []string{
		"/api/readings?limit=abc",
		"/api/readings?limit=0",
		"/api/readings?limit=-5",
		"/api/readings?limit=999999",
		"/api/aggregates?hours=x",
		"/api/chart?limit=1.5",
		"/chart.png?width=0",
		"/chart.html?limit=nope",
		"/export.xlsx?limit=-1",
		"/history?limit=zero",
		"/analysis?hours=0",
	}

	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, target, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestAPIAggregates(t *testing.T) {
	ts := newTestServer(t, 3)

	rec := ts.do(t, http.MethodGet, "/api/aggregates?hours=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var agg storage.Aggregates
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &agg))
	assert.Equal(t, 3, agg.Count)
	require.NotNil(t, agg.AvgTemperatureC)
	assert.InDelta(t, 21.0, *agg.AvgTemperatureC, 0.001)
	assert.NotNil(t, agg.LastReading)
}

func TestAPIChart(t *testing.T) {
	ts := newTestServer(t, 4)

	rec := ts.do(t, http.MethodGet, "/api/chart", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg struct {
		Type string `json:"type"`
		Data struct {
			Labels   []string `json:"labels"`
			Datasets []struct {
				Label string    `json:"label"`
				Data  []float64 `json:"data"`
			} `json:"datasets"`
		} `json:"data"`
		Options map[string]interface{} `json:"options"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))

	assert.Equal(t, "line", cfg.Type)
	assert.Len(t, cfg.Data.Labels, 4)
	require.Len(t, cfg.Data.Datasets, 3)
	assert.Equal(t, chart.TemperatureLabel, cfg.Data.Datasets[0].Label)
	assert.Equal(t, []float64{20, 21, 22, 23}, cfg.Data.Datasets[0].Data)
	// 500 raw sits halfway through the default 300..700 calibration
	assert.Equal(t, []float64{50, 50, 50, 50}, cfg.Data.Datasets[2].Data)
	assert.Contains(t, cfg.Options, "interaction")

	assert.Empty(t, ts.lib.Instances(), "request charts must be released")
}

func TestAPIChartDefaults(t *testing.T) {
	ts := newTestServer(t, 0)

	rec := ts.do(t, http.MethodGet, "/api/chart/defaults", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var d chart.Defaults
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, chart.DefaultColor, d.Color)
	assert.Equal(t, chart.DefaultFontFamily, d.Font.Family)
	assert.False(t, d.MaintainAspectRatio)
}

func TestChartPNG(t *testing.T) {
	ts := newTestServer(t, 5)

	rec := ts.do(t, http.MethodGet, "/chart.png?width=320&height=200", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG\r\n\x1a\n"))
	assert.Empty(t, ts.lib.Instances())
}

func TestChartPNG_FewReadings(t *testing.T) {
	for _, n := range []int{0, 1} {
		t.Run(fmt.Sprintf("%d readings", n), func(t *testing.T) {
			ts := newTestServer(t, n)

			rec := ts.do(t, http.MethodGet, "/chart.png", nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG\r\n\x1a\n"))
		})
	}
}

func TestAPIReadings_TimeWindow(t *testing.T) {
	ts := newTestServer(t, 5)
	now := time.Now().UTC()

	t.Run("start and end", func(t *testing.T) {
		q := url.Values{
			"start": {now.Add(-150 * time.Second).Format(time.RFC3339)},
			"end":   {now.Add(time.Second).Format(time.RFC3339)},
		}
		rec := ts.do(t, http.MethodGet, "/api/readings?"+q.Encode(), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Readings []storage.Reading `json:"readings"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Readings, 2)
		// oldest first inside a window
		assert.Equal(t, 23.0, *body.Readings[0].TemperatureC)
		assert.Equal(t, 24.0, *body.Readings[1].TemperatureC)
	})

	t.Run("limit caps the window", func(t *testing.T) {
		q := url.Values{"start": {now.Add(-time.Hour).Format(time.RFC3339)}, "limit": {"3"}}
		rec := ts.do(t, http.MethodGet, "/api/readings?"+q.Encode(), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Readings []storage.Reading `json:"readings"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Readings, 3)
		assert.Equal(t, 20.0, *body.Readings[0].TemperatureC)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, q := range []url.Values{
			{"start": {"yesterday"}},
			{"end": {"2024-13-01"}},
			{"start": {now.Format(time.RFC3339)}, "end": {now.Add(-time.Hour).Format(time.RFC3339)}},
		} {
			rec := ts.do(t, http.MethodGet, "/api/readings?"+q.Encode(), nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, q.Encode())
		}
	})
}

func TestExportXLSX_TimeWindow(t *testing.T) {
	ts := newTestServer(t, 3)

	q := url.Values{"start": {time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)}}
	rec := ts.do(t, http.MethodGet, "/export.xlsx?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))

	rec = ts.do(t, http.MethodGet, "/export.xlsx?end=soon", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChartHTML(t *testing.T) {
	ts := newTestServer(t, 5)

	rec := ts.do(t, http.MethodGet, "/chart.html", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "echarts")
}

func TestExportXLSX(t *testing.T) {
	ts := newTestServer(t, 2)

	rec := ts.do(t, http.MethodGet, "/export.xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sensor_readings.xlsx")
	// xlsx files are zip archives
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}

func TestDashboard(t *testing.T) {
	ts := newTestServer(t, 3)

	rec := ts.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "<canvas id=\"agriChart\"")
	assert.Contains(t, body, "/static/js/agri-chart.js")
	assert.Contains(t, body, "AgriChart.applyDefaults(")
	assert.Contains(t, body, chart.DefaultColor)
	assert.Contains(t, body, "22.0 °C")
	assert.Empty(t, ts.lib.Instances())
}

func TestDashboard_NoReadings(t *testing.T) {
	ts := newTestServer(t, 0)

	rec := ts.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No readings yet.")
}

func TestHistory(t *testing.T) {
	ts := newTestServer(t, 4)

	rec := ts.do(t, http.MethodGet, "/history?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Showing the 2 most recent readings.")
	assert.Contains(t, body, "23.0")
	assert.Contains(t, body, "22.0")
	assert.NotContains(t, body, "<td>21.0</td>")
}

func TestAnalysis(t *testing.T) {
	t.Run("GET shows the summary without advice", func(t *testing.T) {
		ts := newTestServer(t, 2)

		rec := ts.do(t, http.MethodGet, "/analysis", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := rec.Body.String()
		assert.Contains(t, body, `value="24"`)
		assert.Contains(t, body, "<h2>Summary</h2>")
		assert.Contains(t, body, "<h3>Readings</h3><p>2</p>")
		assert.Contains(t, body, "20.5 °C")
		assert.Contains(t, body, "50%")
		assert.NotContains(t, body, "Recommendations")
		assert.Zero(t, ts.advisor.calls)
	})

	t.Run("GET with an empty store", func(t *testing.T) {
		ts := newTestServer(t, 0)

		rec := ts.do(t, http.MethodGet, "/analysis?hours=6", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<h3>Readings</h3><p>0</p>")
		assert.Contains(t, rec.Body.String(), "n/a")
	})

	t.Run("POST runs the advisor", func(t *testing.T) {
		ts := newTestServer(t, 2)

		rec := ts.do(t, http.MethodPost, "/analysis", url.Values{"hours": {"6"}})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Water the tomatoes.")
		require.Equal(t, 1, ts.advisor.calls)
		assert.Equal(t, 2, ts.advisor.got.Count)
	})

	t.Run("POST rejects bad hours", func(t *testing.T) {
		ts := newTestServer(t, 0)

		rec := ts.do(t, http.MethodPost, "/analysis", url.Values{"hours": {"many"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, ts.advisor.calls)
	})
}

func TestStaticScript(t *testing.T) {
	ts := newTestServer(t, 0)

	rec := ts.do(t, http.MethodGet, "/static/js/agri-chart.js", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "AgriChart")
}

func TestCorrelationID(t *testing.T) {
	ts := newTestServer(t, 0)

	t.Run("generated", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/chart/defaults", nil)
		assert.Len(t, rec.Header().Get(CorrelationIDHeader), 36)
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/chart/defaults", nil)
		req.Header.Set(CorrelationIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		ts.srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", rec.Header().Get(CorrelationIDHeader))
	})
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	ts := newTestServer(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ts.srv.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
