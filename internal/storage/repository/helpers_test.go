package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/content-api/internal/migrations"
	"github.com/magabrotheeeer/content-api/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя напрямую через SQL
func (f *TestDataFactory) CreateUser(t *testing.T, name, email string, role models.Role, verified bool) uuid.UUID {
	t.Helper()
	id := uuid.Must(uuid.NewV7())
	_, err := f.storage.DB.Exec(`INSERT INTO users (id, name, email, password, role, verified)
		VALUES ($1, $2, $3, $4, $5::user_role, $6)`,
		id, name, email, "hashedpassword", string(role), verified)
	require.NoError(t, err)
	return id
}

// CreateUserWithToken создает неподтвержденного пользователя с ожидающим токеном
func (f *TestDataFactory) CreateUserWithToken(t *testing.T, name, email, token string, expiresAt time.Time) uuid.UUID {
	t.Helper()
	id := uuid.Must(uuid.NewV7())
	_, err := f.storage.DB.Exec(`INSERT INTO users (id, name, email, password, verification_token, token_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, name, email, "hashedpassword", token, expiresAt)
	require.NoError(t, err)
	return id
}

// newTestUser возвращает пользователя для CreateUser
func newTestUser(name, email string) *models.User {
	token := uuid.Must(uuid.NewV7()).String()
	expires := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Microsecond)
	return &models.User{
		ID:                uuid.Must(uuid.NewV7()),
		Name:              name,
		Email:             email,
		PasswordHash:      "$argon2id$v=19$m=64,t=1,p=1$c2FsdA$a2V5",
		Role:              models.RoleUser,
		VerificationToken: &token,
		TokenExpiresAt:    &expires,
	}
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
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

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, dsn)
	require.NoError(t, err, "failed to create storage")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return storage, cleanup
}
