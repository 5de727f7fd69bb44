// Package buildstore reads build snapshots from the builder's data store
// and records their publish status.
package buildstore

import (
	"context"
	"fmt"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/config"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/foundation/errors"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/site"
)

// PublishStatus is the persisted publication state of a build.
type PublishStatus string

const (
	PublishPending   PublishStatus = "PENDING"
	PublishPublished PublishStatus = "PUBLISHED"
	PublishFailed    PublishStatus = "FAILED"
)

// ErrBuildNotFound matches (errors.Is) every lookup of an unknown build.
var ErrBuildNotFound = errors.NotFoundError("build not found").Build()

func notFound(id string) error {
	return errors.NotFoundError("build not found").WithContext("build_id", id).Build()
}

// Store is the data store contract used by the export pipeline.
type Store interface {
	// LoadBuild returns the snapshot for id or ErrBuildNotFound.
	LoadBuild(ctx context.Context, id string) (*site.BuildData, error)
	// UpdatePublishStatus sets the status and bumps the update timestamp.
	UpdatePublishStatus(ctx context.Context, id string, status PublishStatus) error
	// PublishStatus reads the current status.
	PublishStatus(ctx context.Context, id string) (PublishStatus, error)
	// SaveBuild inserts or replaces a build snapshot (seeding, tests).
	SaveBuild(ctx context.Context, data *site.BuildData) error
	Close() error
}

// Open connects the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.StoreDriverSQLite, "":
		return NewSQLiteStore(cfg.DSN)
	case config.StoreDriverPostgres:
		return NewPostgresStore(ctx, cfg.DSN, cfg.MaxConns)
	default:
		return nil, errors.ConfigError(fmt.Sprintf("unsupported store driver %q", cfg.Driver)).Build()
	}
}
