// Package memory реализует хранилище пользователей в памяти процесса.
// Используется в режиме разработки (storage.driver: memory) и в тестах сервисов.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/content-api/internal/models"
	"github.com/magabrotheeeer/content-api/internal/storage"
)

// Storage хранит пользователей в map, индексируя почту и токены.
type Storage struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]*models.User
	byEmail map[string]uuid.UUID
	byToken map[string]uuid.UUID
	now     func() time.Time
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{
		users:   make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]uuid.UUID),
		byToken: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

func clone(u *models.User) *models.User {
	c := *u
	if u.VerificationToken != nil {
		token := *u.VerificationToken
		c.VerificationToken = &token
	}
	if u.TokenExpiresAt != nil {
		exp := *u.TokenExpiresAt
		c.TokenExpiresAt = &exp
	}
	return &c
}

// GetUser находит пользователя по одному критерию.
func (s *Storage) GetUser(ctx context.Context, lookup models.Lookup) (*models.User, error) {
	const op = "memory.GetUser"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		u  *models.User
		ok bool
	)
	switch lookup.Field {
	case models.LookupByID:
		u, ok = s.users[lookup.ID]
	case models.LookupByEmail:
		u, ok = s.users[s.byEmail[lookup.Value]]
	case models.LookupByToken:
		u, ok = s.users[s.byToken[lookup.Value]]
	case models.LookupByName:
		for _, candidate := range s.users {
			if candidate.Name == lookup.Value {
				u, ok = candidate, true
				break
			}
		}
	default:
		return nil, fmt.Errorf("%s: unsupported lookup %s", op, lookup)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return clone(u), nil
}

// CreateUser сохраняет нового пользователя. Почта уникальна.
func (s *Storage) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	const op = "memory.CreateUser"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
	}
	if _, exists := s.users[user.ID]; exists {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
	}

	u := clone(user)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	now := s.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	if u.VerificationToken != nil {
		s.byToken[*u.VerificationToken] = u.ID
	}
	return clone(u), nil
}

// UpdatePassword заменяет хэш пароля.
func (s *Storage) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	_, err := s.update(ctx, "memory.UpdatePassword", id, func(u *models.User) {
		u.PasswordHash = passwordHash
	})
	return err
}

// ResetPassword заменяет хэш пароля и гасит токен, если токен всё ещё
// принадлежит пользователю id.
func (s *Storage) ResetPassword(ctx context.Context, id uuid.UUID, token, passwordHash string) error {
	const op = "memory.ResetPassword"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.byToken[token]
	if !ok || owner != id {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	u := s.users[id]
	delete(s.byToken, token)
	u.PasswordHash = passwordHash
	u.VerificationToken = nil
	u.TokenExpiresAt = nil
	u.UpdatedAt = s.now().UTC()
	return nil
}

// UpdateUsername меняет имя пользователя.
func (s *Storage) UpdateUsername(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	return s.update(ctx, "memory.UpdateUsername", id, func(u *models.User) {
		u.Name = name
	})
}

// UpdateRole меняет роль пользователя.
func (s *Storage) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	return s.update(ctx, "memory.UpdateRole", id, func(u *models.User) {
		u.Role = role
	})
}

// SetPendingToken записывает токен и срок его действия, заменяя предыдущий.
func (s *Storage) SetPendingToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	const op = "memory.SetPendingToken"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	if u.VerificationToken != nil {
		delete(s.byToken, *u.VerificationToken)
	}
	u.VerificationToken = &token
	u.TokenExpiresAt = &expiresAt
	s.byToken[token] = id
	return nil
}

// ConsumeVerification подтверждает почту владельца токена и очищает токен.
func (s *Storage) ConsumeVerification(ctx context.Context, token string) error {
	return s.consume(ctx, "memory.ConsumeVerification", token, true)
}

// ClearPendingToken очищает токен, не меняя статус подтверждения.
func (s *Storage) ClearPendingToken(ctx context.Context, token string) error {
	return s.consume(ctx, "memory.ClearPendingToken", token, false)
}

// DeleteUser удаляет пользователя.
func (s *Storage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	const op = "memory.DeleteUser"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	delete(s.byEmail, u.Email)
	if u.VerificationToken != nil {
		delete(s.byToken, *u.VerificationToken)
	}
	delete(s.users, id)
	return nil
}

// ListUsers возвращает страницу пользователей, новые первыми.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "memory.ListUsers"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	all := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, clone(u))
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []*models.User{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *Storage) update(ctx context.Context, op string, id uuid.UUID, apply func(*models.User)) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	apply(u)
	u.UpdatedAt = s.now().UTC()
	return clone(u), nil
}

func (s *Storage) consume(ctx context.Context, op, token string, verify bool) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byToken[token]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	u := s.users[id]
	delete(s.byToken, token)
	u.VerificationToken = nil
	u.TokenExpiresAt = nil
	if verify {
		u.Verified = true
	}
	u.UpdatedAt = s.now().UTC()
	return nil
}
