package buildstore

import (
	"context"
	stdErrors "errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// Runs only against a disposable database named by AUTOBUILDER_TEST_POSTGRES_DSN.
func TestPostgresStore_RoundTrip(t *testing.T) {
	dsn := os.Getenv("AUTOBUILDER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("AUTOBUILDER_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	s, err := NewPostgresStore(ctx, dsn, 2)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	require.NoError(t, s.Migrate(ctx))

	require.NoError(t, s.SaveBuild(ctx, sampleBuild()))
	got, err := s.LoadBuild(ctx, "build-1")
	require.NoError(t, err)
	require.Equal(t, "proj-1", got.Build.ProjectID)
	require.Len(t, got.Pages, 2)
	require.Len(t, got.Assets, 1)

	require.NoError(t, s.UpdatePublishStatus(ctx, "build-1", PublishPublished))
	status, err := s.PublishStatus(ctx, "build-1")
	require.NoError(t, err)
	require.Equal(t, PublishPublished, status)

	_, err = s.LoadBuild(ctx, "does-not-exist")
	require.True(t, stdErrors.Is(err, ErrBuildNotFound))
}
