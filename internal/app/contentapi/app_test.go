package contentapi

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/content-api/internal/lib/sl"
	"github.com/magabrotheeeer/content-api/internal/storage/repository"
)

func setupPostgres(t *testing.T) *repository.Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := repository.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPrepareSchema(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	path, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)

	assert.Error(t, repository.CheckDatabaseReady(ctx, db), "users table is missing before migrations")

	require.NoError(t, prepareSchema(ctx, db, path, sl.Discard()))
	require.NoError(t, prepareSchema(ctx, db, path, sl.Discard()), "second run is a no-op")
	assert.NoError(t, repository.CheckDatabaseReady(ctx, db))

	_, err = db.DB.ExecContext(ctx, `UPDATE schema_migrations SET dirty = true`)
	require.NoError(t, err)
	assert.Error(t, prepareSchema(ctx, db, path, sl.Discard()), "dirty schema is rejected")
}
