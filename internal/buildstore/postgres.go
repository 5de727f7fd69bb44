package buildstore

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/site"
)

// PostgresStore implements Store against the builder's Postgres schema:
// a "Build" table keyed by id with JSON text pages/styles, and project
// scoped rows in "Asset".
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore creates a pool for connString and checks connectivity.
// maxConns <= 0 keeps the pgxpool default.
func NewPostgresStore(ctx context.Context, connString string, maxConns int) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns) // #nosec G115 -- validated config value
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool, now: time.Now}, nil
}

// Migrate creates the tables when they do not exist yet. The builder
// normally owns this schema; seeding a fresh database calls it.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS "Build" (
			id TEXT PRIMARY KEY,
			"projectId" TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 0,
			"createdAt" TIMESTAMPTZ NOT NULL DEFAULT now(),
			"updatedAt" TIMESTAMPTZ NOT NULL DEFAULT now(),
			"publishStatus" TEXT NOT NULL DEFAULT 'PENDING',
			pages TEXT NOT NULL DEFAULT '[]',
			styles TEXT NOT NULL DEFAULT '[]'
		);
		CREATE TABLE IF NOT EXISTS "Asset" (
			id TEXT PRIMARY KEY,
			"projectId" TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS "Asset_projectId_idx" ON "Asset"("projectId");
	`)
	if err != nil {
		return fmt.Errorf("migrate postgres schema: %w", err)
	}
	return nil
}

// LoadBuild implements Store.
func (s *PostgresStore) LoadBuild(ctx context.Context, id string) (*site.BuildData, error) {
	var (
		bd            site.BuildData
		createdAt     time.Time
		pages, styles string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, "projectId", version, "createdAt", pages, styles FROM "Build" WHERE id = $1`, id,
	).Scan(&bd.Build.ID, &bd.Build.ProjectID, &bd.Build.Version, &createdAt, &pages, &styles)
	if stdErrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}
	bd.Build.CreatedAt = createdAt.UTC().Format(time.RFC3339Nano)
	if err := decodeColumns(&bd, pages, styles, ""); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, type FROM "Asset" WHERE "projectId" = $1 ORDER BY id`, bd.Build.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()
	bd.Assets = []site.Asset{}
	for rows.Next() {
		var a site.Asset
		if err := rows.Scan(&a.ID, &a.Name, &a.Type); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		bd.Assets = append(bd.Assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return &bd, nil
}

// UpdatePublishStatus implements Store.
func (s *PostgresStore) UpdatePublishStatus(ctx context.Context, id string, status PublishStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE "Build" SET "publishStatus" = $1, "updatedAt" = $2 WHERE id = $3`,
		string(status), s.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update publish status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

// PublishStatus implements Store.
func (s *PostgresStore) PublishStatus(ctx context.Context, id string) (PublishStatus, error) {
	var status string
	err := s.pool.QueryRow(ctx, `SELECT "publishStatus" FROM "Build" WHERE id = $1`, id).Scan(&status)
	if stdErrors.Is(err, pgx.ErrNoRows) {
		return "", notFound(id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get publish status: %w", err)
	}
	return PublishStatus(status), nil
}

// SaveBuild implements Store. The project's assets are replaced by data.Assets.
func (s *PostgresStore) SaveBuild(ctx context.Context, data *site.BuildData) error {
	pages, styles, _, err := encodeColumns(data)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	createdAt := now
	if data.Build.CreatedAt != "" {
		if t, perr := time.Parse(time.RFC3339Nano, data.Build.CreatedAt); perr == nil {
			createdAt = t
		}
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := saveBuildTx(ctx, tx, data, pages, styles, createdAt, now); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx rollback failed: %v (original err: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func saveBuildTx(ctx context.Context, tx pgx.Tx, data *site.BuildData, pages, styles string, createdAt, now time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO "Build" (id, "projectId", version, "createdAt", "updatedAt", "publishStatus", pages, styles)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			"projectId" = EXCLUDED."projectId",
			version = EXCLUDED.version,
			"createdAt" = EXCLUDED."createdAt",
			"updatedAt" = EXCLUDED."updatedAt",
			"publishStatus" = EXCLUDED."publishStatus",
			pages = EXCLUDED.pages,
			styles = EXCLUDED.styles`,
		data.Build.ID, data.Build.ProjectID, data.Build.Version, createdAt, now, string(PublishPending), pages, styles)
	if err != nil {
		return fmt.Errorf("failed to upsert build: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM "Asset" WHERE "projectId" = $1`, data.Build.ProjectID); err != nil {
		return fmt.Errorf("failed to clear assets: %w", err)
	}
	batch := &pgx.Batch{}
	for _, a := range data.Assets {
		batch.Queue(`INSERT INTO "Asset" (id, "projectId", name, type) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET "projectId" = EXCLUDED."projectId", name = EXCLUDED.name, type = EXCLUDED.type`,
			a.ID, data.Build.ProjectID, a.Name, a.Type)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert assets: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
