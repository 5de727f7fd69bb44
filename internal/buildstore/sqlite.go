package buildstore

import (
	"context"
	"database/sql"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/site"
)

// SQLiteStore implements Store on a local SQLite database. Pages, styles
// and assets are kept as JSON text columns.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (and migrates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one connection: keeps ":memory:" databases shared and writes serialized
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		publish_status TEXT NOT NULL DEFAULT 'PENDING',
		pages TEXT NOT NULL DEFAULT '[]',
		styles TEXT NOT NULL DEFAULT '[]',
		assets TEXT NOT NULL DEFAULT '[]'
	);
	CREATE INDEX IF NOT EXISTS idx_builds_project ON builds(project_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LoadBuild implements Store.
func (s *SQLiteStore) LoadBuild(ctx context.Context, id string) (*site.BuildData, error) {
	var (
		bd                    site.BuildData
		pages, styles, assets string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, project_id, version, created_at, pages, styles, assets FROM builds WHERE id = ?", id,
	).Scan(&bd.Build.ID, &bd.Build.ProjectID, &bd.Build.Version, &bd.Build.CreatedAt, &pages, &styles, &assets)
	if stdErrors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("query build: %w", err)
	}
	if err := decodeColumns(&bd, pages, styles, assets); err != nil {
		return nil, err
	}
	return &bd, nil
}

// UpdatePublishStatus implements Store.
func (s *SQLiteStore) UpdatePublishStatus(ctx context.Context, id string, status PublishStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE builds SET publish_status = ?, updated_at = ? WHERE id = ?",
		string(status), s.now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("update publish status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update publish status: %w", err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

// PublishStatus implements Store.
func (s *SQLiteStore) PublishStatus(ctx context.Context, id string) (PublishStatus, error) {
	var status string
	err := s.db.QueryRowContext(ctx, "SELECT publish_status FROM builds WHERE id = ?", id).Scan(&status)
	if stdErrors.Is(err, sql.ErrNoRows) {
		return "", notFound(id)
	}
	if err != nil {
		return "", fmt.Errorf("query publish status: %w", err)
	}
	return PublishStatus(status), nil
}

// SaveBuild implements Store. Re-saving a build resets its status to PENDING.
func (s *SQLiteStore) SaveBuild(ctx context.Context, data *site.BuildData) error {
	pages, styles, assets, err := encodeColumns(data)
	if err != nil {
		return err
	}
	now := s.now().UTC().Format(time.RFC3339Nano)
	createdAt := data.Build.CreatedAt
	if createdAt == "" {
		createdAt = now
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO builds (id, project_id, version, created_at, updated_at, publish_status, pages, styles, assets)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			version = excluded.version,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			publish_status = excluded.publish_status,
			pages = excluded.pages,
			styles = excluded.styles,
			assets = excluded.assets`,
		data.Build.ID, data.Build.ProjectID, data.Build.Version, createdAt, now, string(PublishPending), pages, styles, assets,
	)
	if err != nil {
		return fmt.Errorf("save build: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func encodeColumns(data *site.BuildData) (pages, styles, assets string, err error) {
	if data == nil || data.Build.ID == "" {
		return "", "", "", fmt.Errorf("build id is required")
	}
	enc := func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	}
	if pages, err = enc(nonNil(data.Pages)); err != nil {
		return "", "", "", fmt.Errorf("encode pages: %w", err)
	}
	if styles, err = enc(nonNil(data.Styles)); err != nil {
		return "", "", "", fmt.Errorf("encode styles: %w", err)
	}
	if assets, err = enc(nonNil(data.Assets)); err != nil {
		return "", "", "", fmt.Errorf("encode assets: %w", err)
	}
	return pages, styles, assets, nil
}

func decodeColumns(bd *site.BuildData, pages, styles, assets string) error {
	if err := json.Unmarshal([]byte(pages), &bd.Pages); err != nil {
		return fmt.Errorf("decode pages: %w", err)
	}
	if err := json.Unmarshal([]byte(styles), &bd.Styles); err != nil {
		return fmt.Errorf("decode styles: %w", err)
	}
	if assets == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(assets), &bd.Assets); err != nil {
		return fmt.Errorf("decode assets: %w", err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
