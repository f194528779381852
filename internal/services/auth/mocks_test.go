package auth_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/content-api/internal/models"
	"github.com/magabrotheeeer/content-api/internal/services/notification"
	"github.com/magabrotheeeer/content-api/internal/services/verification"
	"github.com/stretchr/testify/mock"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) GetUser(ctx context.Context, lookup models.Lookup) (*models.User, error) {
	args := m.Called(ctx, lookup)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if fn, ok := args.Get(0).(func(context.Context, *models.User) *models.User); ok {
		return fn(ctx, user), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) ResetPassword(ctx context.Context, id uuid.UUID, token, passwordHash string) error {
	args := m.Called(ctx, id, token, passwordHash)
	return args.Error(0)
}

// Мок для TokenMaker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(subject uuid.UUID, ttl time.Duration) (string, error) {
	args := m.Called(subject, ttl)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// Мок для TokenManager
type TokenManagerMock struct {
	mock.Mock
}

func (m *TokenManagerMock) New(kind verification.Kind) (string, time.Time, error) {
	args := m.Called(kind)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *TokenManagerMock) Issue(ctx context.Context, userID uuid.UUID, kind verification.Kind) (string, time.Time, error) {
	args := m.Called(ctx, userID, kind)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *TokenManagerMock) Resolve(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *TokenManagerMock) Consume(ctx context.Context, token string, kind verification.Kind) error {
	args := m.Called(ctx, token, kind)
	return args.Error(0)
}

// Мок для notification.Sender
type SenderMock struct {
	mock.Mock
}

func (m *SenderMock) Send(ctx context.Context, to string, kind notification.Kind, params map[string]string) error {
	args := m.Called(ctx, to, kind, params)
	return args.Error(0)
}

// recordingSender запоминает отправленные письма.
type recordingSender struct {
	sent []sentEmail
	err  error
}

type sentEmail struct {
	To     string
	Kind   notification.Kind
	Params map[string]string
}

func (r *recordingSender) Send(_ context.Context, to string, kind notification.Kind, params map[string]string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sentEmail{To: to, Kind: kind, Params: params})
	return nil
}

func (r *recordingSender) last() sentEmail {
	if len(r.sent) == 0 {
		return sentEmail{}
	}
	return r.sent[len(r.sent)-1]
}
