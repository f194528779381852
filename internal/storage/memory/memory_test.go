package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/content-api/internal/models"
	"github.com/magabrotheeeer/content-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(name, email string, token *string) *models.User {
	var expires *time.Time
	if token != nil {
		e := time.Now().Add(time.Hour)
		expires = &e
	}
	return &models.User{
		ID:                uuid.Must(uuid.NewV7()),
		Name:              name,
		Email:             email,
		PasswordHash:      "hash",
		VerificationToken: token,
		TokenExpiresAt:    expires,
	}
}

func ptr(s string) *string { return &s }

func TestStorage_CreateAndGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	in := newUser("alice", "alice@example.com", ptr("tok"))
	created, err := s.CreateUser(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, created.Role)
	assert.False(t, created.CreatedAt.IsZero())

	for _, lookup := range []models.Lookup{
		models.ByID(in.ID),
		models.ByName("alice"),
		models.ByEmail("alice@example.com"),
		models.ByToken("tok"),
	} {
		t.Run(lookup.String(), func(t *testing.T) {
			got, err := s.GetUser(ctx, lookup)
			require.NoError(t, err)
			assert.Equal(t, in.ID, got.ID)
		})
	}

	_, err = s.GetUser(ctx, models.ByEmail("missing@example.com"))
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestStorage_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	in := newUser("alice", "alice@example.com", ptr("tok"))
	_, err := s.CreateUser(ctx, in)
	require.NoError(t, err)

	got, err := s.GetUser(ctx, models.ByID(in.ID))
	require.NoError(t, err)
	got.Name = "mallory"
	*got.VerificationToken = "changed"

	again, err := s.GetUser(ctx, models.ByID(in.ID))
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Name)
	assert.Equal(t, "tok", *again.VerificationToken)
}

func TestStorage_DuplicateEmail(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CreateUser(ctx, newUser("a", "dup@example.com", nil))
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, newUser("b", "dup@example.com", nil))
	assert.ErrorIs(t, err, storage.ErrUserExists)
}

func TestStorage_ConcurrentDuplicateRegistration(t *testing.T) {
	s := New()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.CreateUser(ctx, newUser(fmt.Sprintf("u%d", i), "race@example.com", nil))
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	users, err := s.ListUsers(ctx, 100, 0)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestStorage_TokenLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	in := newUser("bob", "bob@example.com", ptr("verify"))
	_, err := s.CreateUser(ctx, in)
	require.NoError(t, err)

	require.NoError(t, s.ConsumeVerification(ctx, "verify"))
	got, err := s.GetUser(ctx, models.ByID(in.ID))
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.False(t, got.HasPendingToken())
	assert.ErrorIs(t, s.ConsumeVerification(ctx, "verify"), storage.ErrUserNotFound)

	require.NoError(t, s.SetPendingToken(ctx, in.ID, "reset-1", time.Now().Add(time.Minute)))
	require.NoError(t, s.SetPendingToken(ctx, in.ID, "reset-2", time.Now().Add(time.Minute)))
	_, err = s.GetUser(ctx, models.ByToken("reset-1"))
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	require.NoError(t, s.ClearPendingToken(ctx, "reset-2"))
	got, err = s.GetUser(ctx, models.ByID(in.ID))
	require.NoError(t, err)
	assert.Nil(t, got.VerificationToken)
	assert.Nil(t, got.TokenExpiresAt)
	assert.ErrorIs(t, s.ClearPendingToken(ctx, "reset-2"), storage.ErrUserNotFound)
}

func TestStorage_ResetPassword(t *testing.T) {
	s := New()
	ctx := context.Background()

	in := newUser("dan", "dan@example.com", ptr("reset"))
	_, err := s.CreateUser(ctx, in)
	require.NoError(t, err)

	assert.ErrorIs(t, s.ResetPassword(ctx, uuid.Must(uuid.NewV7()), "reset", "h"), storage.ErrUserNotFound, "token of another user")
	assert.ErrorIs(t, s.ResetPassword(ctx, in.ID, "other", "h"), storage.ErrUserNotFound)

	require.NoError(t, s.ResetPassword(ctx, in.ID, "reset", "new-hash"))
	got, err := s.GetUser(ctx, models.ByID(in.ID))
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.Nil(t, got.VerificationToken)
	assert.False(t, got.Verified)

	assert.ErrorIs(t, s.ResetPassword(ctx, in.ID, "reset", "again"), storage.ErrUserNotFound, "token is single-use")
	got, err = s.GetUser(ctx, models.ByID(in.ID))
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
}

func TestStorage_UpdatesAndDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	in := newUser("carol", "carol@example.com", ptr("t"))
	_, err := s.CreateUser(ctx, in)
	require.NoError(t, err)

	require.NoError(t, s.UpdatePassword(ctx, in.ID, "new"))
	u, err := s.UpdateUsername(ctx, in.ID, "carol2")
	require.NoError(t, err)
	assert.Equal(t, "carol2", u.Name)
	assert.Equal(t, "new", u.PasswordHash)

	u, err = s.UpdateRole(ctx, in.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)

	require.NoError(t, s.DeleteUser(ctx, in.ID))
	assert.ErrorIs(t, s.DeleteUser(ctx, in.ID), storage.ErrUserNotFound)
	_, err = s.GetUser(ctx, models.ByToken("t"))
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	_, err = s.CreateUser(ctx, newUser("again", "carol@example.com", nil))
	assert.NoError(t, err, "email is free after delete")
}

func TestStorage_ListUsersPaging(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		created := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return created }
		_, err := s.CreateUser(ctx, newUser(fmt.Sprintf("u%d", i), fmt.Sprintf("u%d@example.com", i), nil))
		require.NoError(t, err)
	}

	page, err := s.ListUsers(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "u4", page[0].Name)
	assert.Equal(t, "u3", page[1].Name)

	page, err = s.ListUsers(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "u0", page[0].Name)

	page, err = s.ListUsers(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestStorage_CanceledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetUser(ctx, models.ByEmail("a@example.com"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.ConsumeVerification(ctx, "t"), context.Canceled)
}
