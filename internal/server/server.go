// Package server serves the dashboard pages, the JSON API and the rendered charts.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/NissesSenap/agri-dashboard/internal/chart"
	"github.com/NissesSenap/agri-dashboard/internal/config"
	"github.com/NissesSenap/agri-dashboard/internal/sensor"
	"github.com/NissesSenap/agri-dashboard/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed assets/templates/*.html assets/static
var assets embed.FS

// Advisor produces crop care advice for a window of readings
type Advisor interface {
	Analyze(ctx context.Context, agg *storage.Aggregates) string
}

// Server wires the store, the chart library and the advisor to HTTP routes
type Server struct {
	store   storage.Store
	charts  *chart.Library
	advisor Advisor
	cal     sensor.Calibration
	chart   config.Chart
	log     *zap.Logger
	engine  *gin.Engine
}

// New builds the server and its routes. lib should already have its defaults applied.
func New(cfg *config.Config, store storage.Store, lib *chart.Library, advisor Advisor, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		store:   store,
		charts:  lib,
		advisor: advisor,
		cal:     sensor.Calibration(cfg.Soil),
		chart:   cfg.Chart,
		log:     log,
	}

	tmpl, err := template.New("").Funcs(templateFuncs(s.cal)).ParseFS(assets, "assets/templates/*.html")
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(assets, "assets/static")
	if err != nil {
		return nil, err
	}

	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), CorrelationIDMiddleware(log))
	engine.SetHTMLTemplate(tmpl)
	engine.StaticFS("/static", http.FS(static))

	engine.GET("/", s.index)
	engine.GET("/history", s.history)
	engine.GET("/analysis", s.analysis)
	engine.POST("/analysis", s.analysis)

	api := engine.Group("/api")
	api.GET("/readings", s.apiReadings)
	api.GET("/aggregates", s.apiAggregates)
	api.GET("/chart", s.apiChart)
	api.GET("/chart/defaults", s.apiChartDefaults)

	engine.GET("/chart.png", s.chartPNG)
	engine.GET("/chart.html", s.chartHTML)
	engine.GET("/export.xlsx", s.exportXLSX)

	s.engine = engine
	return s, nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("dashboard listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
