package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/NissesSenap/agri-dashboard/internal/advisor"
	"github.com/NissesSenap/agri-dashboard/internal/chart"
	"github.com/NissesSenap/agri-dashboard/internal/config"
	"github.com/NissesSenap/agri-dashboard/internal/export"
	"github.com/NissesSenap/agri-dashboard/internal/publish"
	"github.com/NissesSenap/agri-dashboard/internal/sensor"
	"github.com/NissesSenap/agri-dashboard/internal/server"
	"github.com/NissesSenap/agri-dashboard/internal/storage"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type ServeCmd struct {
	Addr     string `help:"Listen address (overrides config)" placeholder:"HOST:PORT"`
	NoIngest bool   `help:"Serve stored readings only, do not read the sensor"`
}

type IngestCmd struct{}

type ChartCmd struct {
	Format string `help:"Output format" enum:"png,html,json" default:"png"`
	Output string `help:"Output file path, - for stdout (default chart.<format>)" short:"o"`
	Limit  int    `help:"Number of most recent readings to plot (0 uses config)" default:"0"`
}

type AggregatesCmd struct {
	Hours int `help:"Window size in hours" default:"24"`
}

type AnalyzeCmd struct {
	Hours int `help:"Window size in hours" default:"24"`
}

type ExportCmd struct {
	Output string `help:"Output file path, - for stdout" short:"o" default:"sensor_readings.xlsx"`
	Limit  int    `help:"Number of most recent readings to export" default:"1000"`
}

type ConfigCmd struct {
	Save bool `help:"Write the effective configuration to the config file"`
}

type VersionCmd struct{}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx := cli.Context()
	cfg := cli.Settings()
	log := cli.logger()

	store, err := storage.NewSQLite(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	if !c.NoIngest {
		reader, closePublisher, err := newReader(ctx, cli, store)
		if err != nil {
			return err
		}
		defer closePublisher()

		go func() {
			if err := reader.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("sensor reader stopped", zap.Error(err))
			}
		}()
	}

	lib := chart.NewLibrary()
	chart.ApplyDefaults(lib)

	srv, err := server.New(cfg, store, lib, advisor.NewClient(cfg.Ollama, log), log)
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	addr := cfg.Server.Addr
	if c.Addr != "" {
		addr = c.Addr
	}
	return srv.Run(ctx, addr)
}

func (c *IngestCmd) Run(cli *CLI) error {
	ctx := cli.Context()

	store, err := storage.NewSQLite(cli.Settings().Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	reader, closePublisher, err := newReader(ctx, cli, store)
	if err != nil {
		return err
	}
	defer closePublisher()

	err = reader.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newReader builds the sensor reader, publishing to Pub/Sub when enabled
func newReader(ctx context.Context, cli *CLI, store storage.Store) (*sensor.Reader, func(), error) {
	cfg := cli.Settings()
	log := cli.logger()
	opts := []sensor.Option{sensor.WithLogger(log)}
	closer := func() {}

	if cfg.PubSub.Enabled {
		pub, err := publish.New(ctx, cfg.PubSub.ProjectID, cfg.PubSub.Topic, log)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, sensor.WithPublisher(pub))
		closer = func() {
			if err := pub.Close(); err != nil {
				log.Warn("failed to close publisher", zap.Error(err))
			}
		}
	}

	return sensor.NewReader(cfg.Serial, store, opts...), closer, nil
}

func (c *ChartCmd) Run(cli *CLI) error {
	cfg := cli.Settings()
	limit := c.Limit
	if limit <= 0 {
		limit = cfg.Chart.Points
	}

	store, err := storage.NewSQLite(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	readings, err := store.GetRecentReadings(cli.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to load readings: %w", err)
	}

	lib := chart.NewLibrary()
	chart.ApplyDefaults(lib)
	labels, temp, hum, soil := chart.FromReadings(readings, sensor.Calibration(cfg.Soil).Percent)
	ch := lib.NewAgriLineChart("agriChart", labels, temp, hum, soil)
	defer ch.Destroy()

	return writeOutput(cli, c.outputPath(), func(w io.Writer) error {
		switch c.Format {
		case "html":
			return ch.RenderHTML(w, "Sensor readings")
		case "json":
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(ch)
		default:
			return ch.RenderPNG(w, cfg.Chart.Width, cfg.Chart.Height)
		}
	})
}

// outputPath names the default output after the format
func (c *ChartCmd) outputPath() string {
	if c.Output != "" {
		return c.Output
	}
	format := c.Format
	if format == "" {
		format = "png"
	}
	return "chart." + format
}

func (c *AggregatesCmd) Run(cli *CLI) error {
	agg, err := loadAggregates(cli, c.Hours)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cli.stdout())
	enc.SetIndent("", "  ")
	return enc.Encode(agg)
}

func (c *AnalyzeCmd) Run(cli *CLI) error {
	agg, err := loadAggregates(cli, c.Hours)
	if err != nil {
		return err
	}
	client := advisor.NewClient(cli.Settings().Ollama, cli.logger())
	_, err = fmt.Fprintln(cli.stdout(), client.Analyze(cli.Context(), agg))
	return err
}

func loadAggregates(cli *CLI, hours int) (*storage.Aggregates, error) {
	if hours <= 0 {
		return nil, fmt.Errorf("hours must be positive, got %d", hours)
	}

	store, err := storage.NewSQLite(cli.Settings().Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	agg, err := store.GetAggregates(cli.Context(), time.Now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to load aggregates: %w", err)
	}
	return agg, nil
}

func (c *ExportCmd) Run(cli *CLI) error {
	cfg := cli.Settings()

	store, err := storage.NewSQLite(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	readings, err := store.GetRecentReadings(cli.Context(), c.Limit)
	if err != nil {
		return fmt.Errorf("failed to load readings: %w", err)
	}

	return writeOutput(cli, c.Output, func(w io.Writer) error {
		return export.WriteXLSX(w, readings, sensor.Calibration(cfg.Soil).Percent)
	})
}

func (c *ConfigCmd) Run(cli *CLI) error {
	cfg := cli.Settings()
	if c.Save {
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		cli.logger().Info("configuration saved", zap.String("path", config.ConfigPath()))
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cli.stdout().Write(data)
	return err
}

func (c *VersionCmd) Run(cli *CLI) error {
	_, err := fmt.Fprintf(cli.stdout(), "agri-dashboard version: %s\n", Version)
	return err
}

// writeOutput runs write against stdout for "-" or the named file otherwise
func writeOutput(cli *CLI, path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(cli.stdout())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		// Never leave a half-written file behind
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return err
	}
	cli.logger().Info("wrote output", zap.String("path", path))
	return nil
}
