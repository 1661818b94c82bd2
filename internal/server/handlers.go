package server

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/NissesSenap/agri-dashboard/internal/chart"
	"github.com/NissesSenap/agri-dashboard/internal/export"
	"github.com/NissesSenap/agri-dashboard/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const dashboardCanvas = "agriChart"

func (s *Server) badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (s *Server) internalError(c *gin.Context, msg string, err error) {
	_ = c.Error(err)
	s.log.Error(msg, zap.Error(err), zap.String("correlation_id", GetCorrelationID(c)))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// buildChart loads the most recent readings and hands them to the chart factory.
// Callers must Destroy the returned chart.
func (s *Server) buildChart(c *gin.Context, limit int) (*chart.Chart, error) {
	readings, err := s.store.GetRecentReadings(c.Request.Context(), limit)
	if err != nil {
		return nil, err
	}
	labels, temp, hum, soil := chart.FromReadings(readings, s.cal.Percent)
	return s.charts.NewAgriLineChart(dashboardCanvas, labels, temp, hum, soil), nil
}

// loadReadings returns the readings between the start and end query parameters,
// oldest first, or the most recent ones, newest first, when neither is given.
// At most limit readings are returned. On error the response has been written.
func (s *Server) loadReadings(c *gin.Context, limit int) ([]*storage.Reading, error) {
	start, end, windowed, err := timeWindow(c, time.Now())
	if err != nil {
		s.badRequest(c, err)
		return nil, err
	}

	var readings []*storage.Reading
	if windowed {
		readings, err = s.store.GetTimeWindow(c.Request.Context(), start, end)
		if len(readings) > limit {
			readings = readings[:limit]
		}
	} else {
		readings, err = s.store.GetRecentReadings(c.Request.Context(), limit)
	}
	if err != nil {
		s.internalError(c, "failed to load readings", err)
		return nil, err
	}
	return readings, nil
}

func (s *Server) index(c *gin.Context) {
	ctx := c.Request.Context()

	latest, err := s.store.GetLatestReading(ctx)
	if err != nil {
		s.internalError(c, "failed to load latest reading", err)
		return
	}
	agg, err := s.store.GetAggregates(ctx, time.Now().Add(-defaultWindowHours*time.Hour))
	if err != nil {
		s.internalError(c, "failed to load aggregates", err)
		return
	}

	ch, err := s.buildChart(c, s.chart.Points)
	if err != nil {
		s.internalError(c, "failed to load readings", err)
		return
	}
	defer ch.Destroy()

	chartJSON, err := json.Marshal(ch)
	if err != nil {
		s.internalError(c, "failed to encode chart", err)
		return
	}
	defaultsJSON, err := json.Marshal(s.charts.Defaults())
	if err != nil {
		s.internalError(c, "failed to encode chart defaults", err)
		return
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Title":        "Dashboard",
		"Latest":       latest,
		"Aggregates":   agg,
		"Canvas":       dashboardCanvas,
		"ChartJSON":    template.JS(chartJSON),
		"DefaultsJSON": template.JS(defaultsJSON),
	})
}

func (s *Server) history(c *gin.Context) {
	limit, err := positiveInt(c, "limit", defaultHistoryLimit, maxLimit)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	readings, err := s.store.GetRecentReadings(c.Request.Context(), limit)
	if err != nil {
		s.internalError(c, "failed to load readings", err)
		return
	}
	c.HTML(http.StatusOK, "history.html", gin.H{
		"Title":    "History",
		"Limit":    limit,
		"Readings": readings,
	})
}

func (s *Server) analysis(c *gin.Context) {
	hours, err := positiveInt(c, "hours", defaultWindowHours, maxHours)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	agg, err := s.store.GetAggregates(ctx, time.Now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		s.internalError(c, "failed to load aggregates", err)
		return
	}

	data := gin.H{"Title": "Analysis", "Hours": hours, "Aggregates": agg}
	if c.Request.Method == http.MethodPost {
		data["Result"] = s.advisor.Analyze(ctx, agg)
	}
	c.HTML(http.StatusOK, "analysis.html", data)
}

func (s *Server) apiReadings(c *gin.Context) {
	limit, err := positiveInt(c, "limit", defaultHistoryLimit, maxLimit)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	readings, err := s.loadReadings(c, limit)
	if err != nil {
		return
	}
	if readings == nil {
		readings = []*storage.Reading{}
	}
	c.JSON(http.StatusOK, gin.H{"readings": readings})
}

func (s *Server) apiAggregates(c *gin.Context) {
	hours, err := positiveInt(c, "hours", defaultWindowHours, maxHours)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	agg, err := s.store.GetAggregates(c.Request.Context(), time.Now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		s.internalError(c, "failed to load aggregates", err)
		return
	}
	c.JSON(http.StatusOK, agg)
}

func (s *Server) apiChart(c *gin.Context) {
	limit, err := positiveInt(c, "limit", s.chart.Points, maxLimit)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	ch, err := s.buildChart(c, limit)
	if err != nil {
		s.internalError(c, "failed to load readings", err)
		return
	}
	defer ch.Destroy()
	c.JSON(http.StatusOK, ch)
}

func (s *Server) apiChartDefaults(c *gin.Context) {
	c.JSON(http.StatusOK, s.charts.Defaults())
}

func (s *Server) chartPNG(c *gin.Context) {
	limit, err := positiveInt(c, "limit", s.chart.Points, maxLimit)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	width, err := positiveInt(c, "width", s.chart.Width, 4096)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	height, err := positiveInt(c, "height", s.chart.Height, 4096)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	ch, err := s.buildChart(c, limit)
	if err != nil {
		s.internalError(c, "failed to load readings", err)
		return
	}
	defer ch.Destroy()

	var buf bytes.Buffer
	if err := ch.RenderPNG(&buf, width, height); err != nil {
		s.internalError(c, "failed to render chart", err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) chartHTML(c *gin.Context) {
	limit, err := positiveInt(c, "limit", s.chart.Points, maxLimit)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	ch, err := s.buildChart(c, limit)
	if err != nil {
		s.internalError(c, "failed to load readings", err)
		return
	}
	defer ch.Destroy()

	var buf bytes.Buffer
	if err := ch.RenderHTML(&buf, "Sensor readings"); err != nil {
		s.internalError(c, "failed to render chart", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) exportXLSX(c *gin.Context) {
	limit, err := positiveInt(c, "limit", defaultHistoryLimit, maxLimit)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	readings, err := s.loadReadings(c, limit)
	if err != nil {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, readings, s.cal.Percent); err != nil {
		s.internalError(c, "failed to build spreadsheet", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="sensor_readings.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
