package buildstore

import (
	"context"
	stdErrors "errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/config"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/foundation/errors"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/site"
)

func sampleBuild() *site.BuildData {
	return &site.BuildData{
		Build: site.Build{ID: "build-1", ProjectID: "proj-1", Version: 2, CreatedAt: "2026-02-01T10:00:00Z"},
		Pages: site.Pages{
			{ID: "home", Name: "Home", Path: "/"},
			{ID: "contact", Name: "Contact", Path: "/contact", Meta: site.PageMeta{Title: "Contact us"}},
		},
		Assets: []site.Asset{{ID: "a1", Name: "logo.png", Type: "image"}},
		Styles: []site.StyleRule{{StyleSourceID: "s1", Property: "color"}},
	}
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveBuild(ctx, sampleBuild()))

	got, err := s.LoadBuild(ctx, "build-1")
	require.NoError(t, err)
	assert.Equal(t, sampleBuild().Build, got.Build)
	require.Len(t, got.Pages, 2)
	assert.Equal(t, "Contact us", got.Pages[1].Meta.Title)
	assert.Equal(t, sampleBuild().Assets, got.Assets)
	require.Len(t, got.Styles, 1)
	assert.Equal(t, "color", got.Styles[0].Property)

	status, err := s.PublishStatus(ctx, "build-1")
	require.NoError(t, err)
	assert.Equal(t, PublishPending, status)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.LoadBuild(ctx, "missing")
	require.Error(t, err)
	assert.True(t, stdErrors.Is(err, ErrBuildNotFound))
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))

	err = s.UpdatePublishStatus(ctx, "missing", PublishPublished)
	assert.True(t, stdErrors.Is(err, ErrBuildNotFound))

	_, err = s.PublishStatus(ctx, "missing")
	assert.True(t, stdErrors.Is(err, ErrBuildNotFound))
}

func TestSQLiteStore_UpdatePublishStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveBuild(ctx, sampleBuild()))

	require.NoError(t, s.UpdatePublishStatus(ctx, "build-1", PublishPublished))
	status, err := s.PublishStatus(ctx, "build-1")
	require.NoError(t, err)
	assert.Equal(t, PublishPublished, status)

	require.NoError(t, s.UpdatePublishStatus(ctx, "build-1", PublishFailed))
	status, err = s.PublishStatus(ctx, "build-1")
	require.NoError(t, err)
	assert.Equal(t, PublishFailed, status)
}

func TestSQLiteStore_SaveReplacesAndTolerantOfEmptyCollections(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveBuild(ctx, sampleBuild()))

	updated := sampleBuild()
	updated.Pages = nil
	updated.Assets = nil
	updated.Styles = nil
	require.NoError(t, s.SaveBuild(ctx, updated))

	got, err := s.LoadBuild(ctx, "build-1")
	require.NoError(t, err)
	assert.Empty(t, got.Pages)
	assert.Empty(t, got.Assets)
	assert.Empty(t, got.Styles)

	require.Error(t, s.SaveBuild(ctx, &site.BuildData{}))
}

func TestOpen_SQLiteFileAndUnknownDriver(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "builds.db")

	st, err := Open(ctx, config.StoreConfig{Driver: config.StoreDriverSQLite, DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, st.SaveBuild(ctx, sampleBuild()))
	require.NoError(t, st.Close())

	reopened, err := Open(ctx, config.StoreConfig{Driver: config.StoreDriverSQLite, DSN: dsn})
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	_, err = reopened.LoadBuild(ctx, "build-1")
	require.NoError(t, err)

	_, err = Open(ctx, config.StoreConfig{Driver: "mongo"})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}
