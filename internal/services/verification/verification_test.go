package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/content-api/internal/models"
	"github.com/magabrotheeeer/content-api/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Manager, *memory.Storage, *models.User) {
	t.Helper()
	store := memory.New()
	u, err := store.CreateUser(context.Background(), &models.User{
		ID:           uuid.Must(uuid.NewV7()),
		Name:         "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return NewManager(store, Config{}), store, u
}

func TestManager_DefaultTTLs(t *testing.T) {
	m := NewManager(memory.New(), Config{})
	assert.Equal(t, 24*time.Hour, m.TTL(KindEmailVerification))
	assert.Equal(t, 30*time.Minute, m.TTL(KindPasswordReset))

	m = NewManager(memory.New(), Config{VerificationTTL: time.Hour, ResetTTL: time.Minute})
	assert.Equal(t, time.Hour, m.TTL(KindEmailVerification))
	assert.Equal(t, time.Minute, m.TTL(KindPasswordReset))
}

func TestManager_New(t *testing.T) {
	m := NewManager(memory.New(), Config{})
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	token, expiresAt, err := m.New(KindPasswordReset)
	require.NoError(t, err)

	parsed, err := uuid.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.Equal(t, now.Add(30*time.Minute), expiresAt)

	other, _, err := m.New(KindPasswordReset)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestManager_IssueAndResolve(t *testing.T) {
	m, _, u := setup(t)
	ctx := context.Background()

	token, _, err := m.Issue(ctx, u.ID, KindEmailVerification)
	require.NoError(t, err)

	got, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestManager_IssueOverwritesPreviousToken(t *testing.T) {
	m, _, u := setup(t)
	ctx := context.Background()

	first, _, err := m.Issue(ctx, u.ID, KindPasswordReset)
	require.NoError(t, err)
	second, _, err := m.Issue(ctx, u.ID, KindPasswordReset)
	require.NoError(t, err)

	_, err = m.Resolve(ctx, first)
	assert.ErrorIs(t, err, ErrTokenNotFound)
	_, err = m.Resolve(ctx, second)
	assert.NoError(t, err)
}

func TestManager_IssueUnknownUser(t *testing.T) {
	m, _, _ := setup(t)

	_, _, err := m.Issue(context.Background(), uuid.New(), KindPasswordReset)
	assert.Error(t, err)
}

func TestManager_Resolve_Errors(t *testing.T) {
	m, _, u := setup(t)
	ctx := context.Background()

	issued := time.Now()
	m.now = func() time.Time { return issued }
	token, _, err := m.Issue(ctx, u.ID, KindPasswordReset)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		now     time.Time
		wantErr error
	}{
		{name: "empty token", token: "", now: issued, wantErr: ErrTokenNotFound},
		{name: "unknown token", token: "nope", now: issued, wantErr: ErrTokenNotFound},
		{name: "at expiry boundary", token: token, now: issued.Add(30 * time.Minute), wantErr: nil},
		{name: "expired", token: token, now: issued.Add(31 * time.Minute), wantErr: ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.now = func() time.Time { return tt.now }
			_, err := m.Resolve(ctx, tt.token)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestManager_ExpiredTokenStaysPersisted(t *testing.T) {
	m, store, u := setup(t)
	ctx := context.Background()

	issued := time.Now()
	m.now = func() time.Time { return issued }
	token, _, err := m.Issue(ctx, u.ID, KindEmailVerification)
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(25 * time.Hour) }
	_, err = m.Resolve(ctx, token)
	require.ErrorIs(t, err, ErrTokenExpired)

	got, err := store.GetUser(ctx, models.ByToken(token))
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestManager_ConsumeVerification(t *testing.T) {
	m, store, u := setup(t)
	ctx := context.Background()

	token, _, err := m.Issue(ctx, u.ID, KindEmailVerification)
	require.NoError(t, err)

	require.NoError(t, m.Consume(ctx, token, KindEmailVerification))

	got, err := store.GetUser(ctx, models.ByID(u.ID))
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.False(t, got.HasPendingToken())

	err = m.Consume(ctx, token, KindEmailVerification)
	assert.ErrorIs(t, err, ErrTokenNotFound)
	_, err = m.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestManager_ConsumeReset(t *testing.T) {
	m, store, u := setup(t)
	ctx := context.Background()

	token, _, err := m.Issue(ctx, u.ID, KindPasswordReset)
	require.NoError(t, err)

	require.NoError(t, m.Consume(ctx, token, KindPasswordReset))

	got, err := store.GetUser(ctx, models.ByID(u.ID))
	require.NoError(t, err)
	assert.False(t, got.Verified, "reset must not verify the account")
	assert.False(t, got.HasPendingToken())

	assert.ErrorIs(t, m.Consume(ctx, token, KindPasswordReset), ErrTokenNotFound)
}

func TestManager_ConsumeUnknownKind(t *testing.T) {
	m, _, _ := setup(t)

	err := m.Consume(context.Background(), "t", Kind(42))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTokenNotFound))
}
