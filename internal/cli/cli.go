package cli

import (
	"context"
	"io"
	"os"

	"github.com/NissesSenap/agri-dashboard/internal/config"
	"github.com/NissesSenap/agri-dashboard/internal/logger"
	"github.com/alecthomas/kong"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "dev"

// CLI is the main CLI structure with embedded context
type CLI struct {
	ctx context.Context // Store context for commands to use
	cfg *config.Config
	out io.Writer

	Serve      ServeCmd      `cmd:"serve" help:"Serve the dashboard and ingest sensor readings"`
	Ingest     IngestCmd     `cmd:"ingest" help:"Ingest sensor readings without serving the dashboard"`
	Chart      ChartCmd      `cmd:"chart" help:"Render the readings chart to a file"`
	Aggregates AggregatesCmd `cmd:"aggregates" help:"Print reading aggregates as JSON"`
	Analyze    AnalyzeCmd    `cmd:"analyze" help:"Ask the advisor for crop care recommendations"`
	Export     ExportCmd     `cmd:"export" help:"Export readings to an Excel workbook"`
	Config     ConfigCmd     `cmd:"config" help:"Show or save the effective configuration"`
	Version    VersionCmd    `cmd:"version" help:"Show version"`
}

// Context returns the CLI's context for use by commands.
// This allows commands to access the context without directly accessing
// the unexported ctx field.
func (c *CLI) Context() context.Context {
	return c.ctx
}

// Settings returns the effective configuration
func (c *CLI) Settings() *config.Config {
	return c.cfg
}

func (c *CLI) logger() *zap.Logger {
	return logger.Log
}

func (c *CLI) stdout() io.Writer {
	if c.out == nil {
		return os.Stdout
	}
	return c.out
}

// ExecuteWithContext executes the CLI with a context that can be cancelled
func ExecuteWithContext(ctx context.Context, cfg *config.Config) error {
	cli := &CLI{ctx: ctx, cfg: cfg}
	kongCtx := kong.Parse(cli,
		kong.Name("agri-dashboard"),
		kong.Description("Agricultural sensor dashboard"),
		kong.UsageOnError(),
	)

	// Bind CLI instance so commands can access the context
	return kongCtx.Run(cli)
}
