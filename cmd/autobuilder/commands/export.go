package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/config"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/daemon"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/exporter"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/logfields"
)

// ExportCmd implements the 'export' command.
type ExportCmd struct {
	Build string `required:"" help:"Build identifier to export"`
	Name  string `help:"Archive file name (generated when empty)"`
}

func (e *ExportCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := RunExport(ctx, cfg, e.Build, e.Name)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.out(), res.BundlePath)
	return nil
}

// RunExport performs one export with the configured store and
// integrations. The archive stays in the bundle directory.
func RunExport(ctx context.Context, cfg *config.Config, buildID, name string) (exporter.Result, error) {
	c, err := daemon.Build(ctx, cfg)
	if err != nil {
		return exporter.Result{}, err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil {
			slog.Warn("Failed to close components", logfields.Error(cerr))
		}
	}()

	if name == "" {
		name = exporter.GenerateName(buildID)
	}
	res := c.Service.StartExport(ctx, buildID, name)
	if res.Err != nil {
		return res, res.Err
	}
	for _, w := range res.Warnings() {
		slog.Warn("Export finished with a soft failure", slog.String("kind", w))
	}
	slog.Info("Export written",
		logfields.ExportName(res.Name),
		logfields.Path(res.BundlePath),
		logfields.Bytes(res.Bytes),
		slog.Int("files", res.Files),
		slog.Duration("duration", res.Duration))
	return res, nil
}
