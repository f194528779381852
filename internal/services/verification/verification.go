// Package verification выпускает, проверяет и погашает одноразовые токены
// подтверждения почты и сброса пароля. Токен хранится в записи пользователя,
// у каждого пользователя не больше одного ожидающего токена.
package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/content-api/internal/models"
	"github.com/magabrotheeeer/content-api/internal/storage"
)

var (
	// ErrTokenNotFound возвращается, если токен не принадлежит ни одному пользователю.
	ErrTokenNotFound = errors.New("token not found")
	// ErrTokenExpired возвращается, если срок действия токена истек.
	ErrTokenExpired = errors.New("token expired")
)

// Kind задаёт назначение токена.
type Kind int

const (
	KindEmailVerification Kind = iota + 1
	KindPasswordReset
)

func (k Kind) String() string {
	switch k {
	case KindEmailVerification:
		return "email_verification"
	case KindPasswordReset:
		return "password_reset"
	default:
		return "unknown"
	}
}

// Сроки действия по умолчанию.
const (
	DefaultVerificationTTL = 24 * time.Hour
	DefaultResetTTL        = 30 * time.Minute
)

// Store описывает операции хранилища, нужные менеджеру токенов.
type Store interface {
	GetUser(ctx context.Context, lookup models.Lookup) (*models.User, error)
	SetPendingToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	ConsumeVerification(ctx context.Context, token string) error
	ClearPendingToken(ctx context.Context, token string) error
}

// Config сроки действия токенов. Нулевые значения заменяются значениями по умолчанию.
type Config struct {
	VerificationTTL time.Duration
	ResetTTL        time.Duration
}

// Manager управляет жизненным циклом токенов.
type Manager struct {
	store           Store
	verificationTTL time.Duration
	resetTTL        time.Duration
	now             func() time.Time
}

// NewManager создаёт менеджер токенов.
func NewManager(store Store, cfg Config) *Manager {
	m := &Manager{
		store:           store,
		verificationTTL: cfg.VerificationTTL,
		resetTTL:        cfg.ResetTTL,
		now:             time.Now,
	}
	if m.verificationTTL <= 0 {
		m.verificationTTL = DefaultVerificationTTL
	}
	if m.resetTTL <= 0 {
		m.resetTTL = DefaultResetTTL
	}
	return m
}

// TTL возвращает срок действия токена данного вида.
func (m *Manager) TTL(kind Kind) time.Duration {
	if kind == KindPasswordReset {
		return m.resetTTL
	}
	return m.verificationTTL
}

// New генерирует токен и срок его действия, не сохраняя их.
func (m *Manager) New(kind Kind) (string, time.Time, error) {
	const op = "verification.New"

	id, err := uuid.NewV7()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return id.String(), m.now().UTC().Add(m.TTL(kind)), nil
}

// Issue генерирует токен и записывает его пользователю, заменяя предыдущий.
func (m *Manager) Issue(ctx context.Context, userID uuid.UUID, kind Kind) (string, time.Time, error) {
	const op = "verification.Issue"

	token, expiresAt, err := m.New(kind)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := m.store.SetPendingToken(ctx, userID, token, expiresAt); err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return token, expiresAt, nil
}

// Resolve находит владельца токена. Просроченный токен не удаляется.
func (m *Manager) Resolve(ctx context.Context, token string) (*models.User, error) {
	const op = "verification.Resolve"

	if token == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenNotFound)
	}
	u, err := m.store.GetUser(ctx, models.ByToken(token))
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if u.TokenExpiresAt == nil || u.TokenExpiresAt.Before(m.now()) {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
	}
	return u, nil
}

// Consume погашает токен. Для подтверждения почты пользователь отмечается
// подтвержденным, для сброса пароля только очищается токен.
func (m *Manager) Consume(ctx context.Context, token string, kind Kind) error {
	const op = "verification.Consume"

	var err error
	switch kind {
	case KindEmailVerification:
		err = m.store.ConsumeVerification(ctx, token)
	case KindPasswordReset:
		err = m.store.ClearPendingToken(ctx, token)
	default:
		return fmt.Errorf("%s: unknown kind %d", op, kind)
	}
	if errors.Is(err, storage.ErrUserNotFound) {
		return fmt.Errorf("%s: %w", op, ErrTokenNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
