package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/buildstore"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/config"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/foundation/errors"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/site"
)

// SeedCmd implements the 'seed' command.
type SeedCmd struct {
	File string `short:"f" required:"" type:"existingfile" help:"Build snapshot JSON file"`
}

func (s *SeedCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	data, err := RunSeed(context.Background(), cfg.Store, s.File)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "Seeded build %s (%d pages, %d assets)\n", data.Build.ID, len(data.Pages), len(data.Assets))
	return nil
}

type migrator interface {
	Migrate(ctx context.Context) error
}

// RunSeed decodes path and saves it into the configured store, creating
// the schema first when the driver needs it.
func RunSeed(ctx context.Context, sc config.StoreConfig, path string) (*site.BuildData, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read build snapshot").
			WithContext("path", path).
			Build()
	}
	data, err := site.DecodeBuildData(raw)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "invalid build snapshot").
			WithContext("path", path).
			Build()
	}

	store, err := buildstore.Open(ctx, sc)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	if m, ok := store.(migrator); ok {
		if err := m.Migrate(ctx); err != nil {
			return nil, err
		}
	}
	if err := store.SaveBuild(ctx, data); err != nil {
		return nil, err
	}
	return data, nil
}
