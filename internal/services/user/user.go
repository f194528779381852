// Package user содержит управление учётными записями: смена имени и пароля,
// список пользователей, удаление и назначение роли.
package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/content-api/internal/lib/apperr"
	"github.com/magabrotheeeer/content-api/internal/lib/sl"
	"github.com/magabrotheeeer/content-api/internal/models"
	"github.com/magabrotheeeer/content-api/internal/storage"
)

// Сообщения для клиента.
const (
	MsgInvalidPassword = "Invalid password!"
	MsgNameTaken       = "Name already taken"
)

// Пределы постраничного списка.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Repository описывает операции хранилища, нужные сервису.
type Repository interface {
	GetUser(ctx context.Context, lookup models.Lookup) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateUsername(ctx context.Context, id uuid.UUID, name string) (*models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
}

// PasswordHasher хэширует и проверяет пароли.
type PasswordHasher interface {
	GetHash(password string) (string, error)
	CompareHash(encodedHash, password string) (bool, error)
}

// Service управляет пользователями.
type Service struct {
	users  Repository
	hasher PasswordHasher
	log    *slog.Logger
}

// New создаёт сервис пользователей.
func New(users Repository, hasher PasswordHasher, log *slog.Logger) *Service {
	return &Service{users: users, hasher: hasher, log: log}
}

// UpdateUsername меняет имя после проверки текущего пароля.
func (s *Service) UpdateUsername(ctx context.Context, user *models.User, name, password string) (*models.User, error) {
	const op = "user.UpdateUsername"
	log := s.log.With(sl.Op(op), sl.UserID(user.ID))

	if err := s.checkPassword(log, user, password); err != nil {
		return nil, err
	}

	owner, err := s.users.GetUser(ctx, models.ByName(name))
	switch {
	case err == nil && owner.ID != user.ID:
		return nil, apperr.BadRequest(MsgNameTaken)
	case err != nil && !errors.Is(err, storage.ErrUserNotFound):
		log.Error("failed to check name", sl.Err(err))
		return nil, apperr.Internal(err)
	}

	updated, err := s.users.UpdateUsername(ctx, user.ID, name)
	if err != nil {
		return nil, s.mapStoreErr(log, "failed to update name", err)
	}
	return updated, nil
}

// UpdatePassword меняет пароль после проверки старого. Хэш перечитывается из
// хранилища, а не берётся из сессии.
func (s *Service) UpdatePassword(ctx context.Context, user *models.User, oldPassword, newPassword string) error {
	const op = "user.UpdatePassword"
	log := s.log.With(sl.Op(op), sl.UserID(user.ID))

	current, err := s.users.GetUser(ctx, models.ByID(user.ID))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.BadRequest(MsgInvalidPassword)
		}
		log.Error("failed to get user", sl.Err(err))
		return apperr.Internal(err)
	}
	if err := s.checkPassword(log, current, oldPassword); err != nil {
		return err
	}

	hash, err := s.hasher.GetHash(newPassword)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return apperr.Internal(err)
	}
	if err := s.users.UpdatePassword(ctx, current.ID, hash); err != nil {
		return s.mapStoreErr(log, "failed to update password", err)
	}
	log.Info("password changed")
	return nil
}

// Delete удаляет пользователя без возможности восстановления.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "user.Delete"
	log := s.log.With(sl.Op(op), sl.UserID(id))

	if err := s.users.DeleteUser(ctx, id); err != nil {
		return s.mapStoreErr(log, "failed to delete user", err)
	}
	log.Info("user deleted")
	return nil
}

// List возвращает страницу пользователей, новые первыми.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "user.List"

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.users.ListUsers(ctx, limit, offset)
	if err != nil {
		s.log.Error("failed to list users", sl.Op(op), sl.Err(err))
		return nil, apperr.Internal(err)
	}
	return users, nil
}

// UpdateRole назначает пользователю роль.
func (s *Service) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	const op = "user.UpdateRole"
	log := s.log.With(sl.Op(op), sl.UserID(id))

	if _, err := models.ParseRole(string(role)); err != nil {
		return nil, apperr.BadRequest("Invalid role")
	}
	updated, err := s.users.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, s.mapStoreErr(log, "failed to update role", err)
	}
	log.Info("role updated", slog.String("role", string(role)))
	return updated, nil
}

func (s *Service) checkPassword(log *slog.Logger, user *models.User, password string) error {
	ok, err := s.hasher.CompareHash(user.PasswordHash, password)
	if err != nil {
		log.Error("stored password hash is unusable", sl.Err(err))
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.BadRequest(MsgInvalidPassword)
	}
	return nil
}

func (s *Service) mapStoreErr(log *slog.Logger, msg string, err error) error {
	if errors.Is(err, storage.ErrUserNotFound) {
		return apperr.NotFound()
	}
	log.Error(msg, sl.Err(err))
	return apperr.Internal(err)
}
