package user_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/content-api/internal/lib/apperr"
	"github.com/magabrotheeeer/content-api/internal/lib/password"
	"github.com/magabrotheeeer/content-api/internal/lib/sl"
	"github.com/magabrotheeeer/content-api/internal/models"
	"github.com/magabrotheeeer/content-api/internal/services/user"
	"github.com/magabrotheeeer/content-api/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testParams = password.Params{Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newService(t *testing.T) (*user.Service, *memory.Storage, *password.Hasher) {
	t.Helper()
	store := memory.New()
	hasher := password.NewHasher(testParams)
	return user.New(store, hasher, sl.Discard()), store, hasher
}

func seedUser(t *testing.T, store *memory.Storage, hasher *password.Hasher, name, plain string) *models.User {
	t.Helper()
	hash, err := hasher.GetHash(plain)
	require.NoError(t, err)
	u, err := store.CreateUser(context.Background(), &models.User{
		ID:           uuid.Must(uuid.NewV7()),
		Name:         name,
		Email:        name + "@x.test",
		PasswordHash: hash,
		Verified:     true,
	})
	require.NoError(t, err)
	return u
}

func TestService_UpdateUsername(t *testing.T) {
	svc, store, hasher := newService(t)
	ctx := context.Background()
	ann := seedUser(t, store, hasher, "ann", "secret1")
	seedUser(t, store, hasher, "bob", "secret2")

	tests := []struct {
		name     string
		newName  string
		password string
		wantKind apperr.Kind
		wantMsg  string
		wantErr  bool
	}{
		{name: "wrong password", newName: "anna", password: "wrong", wantErr: true, wantKind: apperr.KindBadRequest, wantMsg: user.MsgInvalidPassword},
		{name: "name taken", newName: "bob", password: "secret1", wantErr: true, wantKind: apperr.KindBadRequest, wantMsg: user.MsgNameTaken},
		{name: "same name", newName: "ann", password: "secret1"},
		{name: "renamed", newName: "anna", password: "secret1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.UpdateUsername(ctx, ann, tt.newName, tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				assert.Equal(t, tt.wantMsg, apperr.Message(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.newName, got.Name)
		})
	}

	stored, err := store.GetUser(ctx, models.ByID(ann.ID))
	require.NoError(t, err)
	assert.Equal(t, "anna", stored.Name)
}

func TestService_UpdatePassword(t *testing.T) {
	svc, store, hasher := newService(t)
	ctx := context.Background()
	ann := seedUser(t, store, hasher, "ann", "secret1")

	err := svc.UpdatePassword(ctx, ann, "wrong", "newsecret")
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	require.NoError(t, svc.UpdatePassword(ctx, ann, "secret1", "newsecret"))

	// Старый хэш в ann больше не действителен, сервис перечитывает пользователя
	err = svc.UpdatePassword(ctx, ann, "secret1", "other")
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	require.NoError(t, svc.UpdatePassword(ctx, ann, "newsecret", "other"))

	stored, err := store.GetUser(ctx, models.ByID(ann.ID))
	require.NoError(t, err)
	ok, err := hasher.CompareHash(stored.PasswordHash, "other")
	require.NoError(t, err)
	assert.True(t, ok)

	ghost := &models.User{ID: uuid.New()}
	err = svc.UpdatePassword(ctx, ghost, "x", "y")
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestService_DeleteAndRole(t *testing.T) {
	svc, store, hasher := newService(t)
	ctx := context.Background()
	ann := seedUser(t, store, hasher, "ann", "secret1")

	promoted, err := svc.UpdateRole(ctx, ann.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	_, err = svc.UpdateRole(ctx, ann.ID, models.Role("root"))
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	_, err = svc.UpdateRole(ctx, uuid.New(), models.RoleUser)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	require.NoError(t, svc.Delete(ctx, ann.ID))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(svc.Delete(ctx, ann.ID)))
}

func TestService_List(t *testing.T) {
	svc, store, hasher := newService(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		seedUser(t, store, hasher, fmt.Sprintf("u%d", i), "secret1")
	}

	all, err := svc.List(ctx, 0, -5)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := svc.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

type repoMock struct {
	mock.Mock
	user.Repository
}

func (m *repoMock) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *repoMock) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func TestService_ListClampsAndWrapsErrors(t *testing.T) {
	repo := new(repoMock)
	svc := user.New(repo, password.NewHasher(testParams), sl.Discard())

	repo.On("ListUsers", mock.Anything, user.MaxLimit, 0).Return([]*models.User{}, nil).Once()
	repo.On("ListUsers", mock.Anything, user.DefaultLimit, 0).Return(nil, errors.New("db down")).Once()
	repo.On("DeleteUser", mock.Anything, mock.Anything).Return(context.DeadlineExceeded).Once()

	_, err := svc.List(context.Background(), 1000, 0)
	require.NoError(t, err)

	_, err = svc.List(context.Background(), 0, 0)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, "internal server error", apperr.Message(err))

	err = svc.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	repo.AssertExpectations(t)
}

