package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/content-api/internal/models"
	"github.com/magabrotheeeer/content-api/internal/storage"
)

const userColumns = `id, name, email, password, role::text, verified,
	verification_token, token_expires_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u         models.User
		role      string
		token     sql.NullString
		expiresAt sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Verified,
		&token, &expiresAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	if token.Valid {
		u.VerificationToken = &token.String
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		u.TokenExpiresAt = &t
	}
	return &u, nil
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}

// GetUser находит пользователя по одному критерию.
func (s *Storage) GetUser(ctx context.Context, lookup models.Lookup) (*models.User, error) {
	const op = "storage.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var (
		where string
		arg   any
	)
	switch lookup.Field {
	case models.LookupByID:
		where, arg = "id = $1", lookup.ID
	case models.LookupByName:
		where, arg = "name = $1", lookup.Value
	case models.LookupByEmail:
		where, arg = "email = $1", lookup.Value
	case models.LookupByToken:
		where, arg = "verification_token = $1", lookup.Value
	default:
		return nil, fmt.Errorf("%s: unsupported lookup %s", op, lookup)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` LIMIT 1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// CreateUser сохраняет нового пользователя вместе с ожидающим токеном.
// Нарушение уникальности почты возвращается как storage.ErrUserExists.
func (s *Storage) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	const op = "storage.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	role := user.Role
	if role == "" {
		role = models.RoleUser
	}
	query := `INSERT INTO users (id, name, email, password, role, verified, verification_token, token_expires_at)
			  VALUES ($1, $2, $3, $4, $5::user_role, $6, $7, $8)
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, string(role), user.Verified,
		user.VerificationToken, user.TokenExpiresAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdatePassword заменяет хэш пароля.
func (s *Storage) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const op = "storage.UpdatePassword"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`
	return s.execOne(ctx, op, query, passwordHash, id)
}

// ResetPassword заменяет хэш пароля и гасит токен одной операцией. Запись
// меняется, только если токен всё ещё принадлежит пользователю id, поэтому
// из нескольких одновременных сбросов одним токеном проходит ровно один.
func (s *Storage) ResetPassword(ctx context.Context, id uuid.UUID, token, passwordHash string) error {
	const op = "storage.ResetPassword"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE users
			  SET password = $1,
			      verification_token = NULL,
			      token_expires_at = NULL,
			      updated_at = NOW()
			  WHERE id = $2 AND verification_token = $3`
	return s.execOne(ctx, op, query, passwordHash, id, token)
}

// UpdateUsername меняет имя пользователя и возвращает обновленную запись.
func (s *Storage) UpdateUsername(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	const op = "storage.UpdateUsername"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE users SET name = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + userColumns
	return s.queryOne(ctx, op, query, name, id)
}

// UpdateRole меняет роль пользователя и возвращает обновленную запись.
func (s *Storage) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	const op = "storage.UpdateRole"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE users SET role = $1::user_role, updated_at = NOW() WHERE id = $2 RETURNING ` + userColumns
	return s.queryOne(ctx, op, query, string(role), id)
}

// SetPendingToken записывает токен и срок его действия, заменяя предыдущий.
func (s *Storage) SetPendingToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	const op = "storage.SetPendingToken"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE users SET verification_token = $1, token_expires_at = $2 WHERE id = $3`
	return s.execOne(ctx, op, query, token, expiresAt, id)
}

// ConsumeVerification подтверждает почту владельца токена и очищает токен.
func (s *Storage) ConsumeVerification(ctx context.Context, token string) error {
	const op = "storage.ConsumeVerification"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE users
			  SET verified = TRUE,
			      updated_at = NOW(),
			      verification_token = NULL,
			      token_expires_at = NULL
			  WHERE verification_token = $1`
	return s.execOne(ctx, op, query, token)
}

// ClearPendingToken очищает токен, не меняя статус подтверждения.
func (s *Storage) ClearPendingToken(ctx context.Context, token string) error {
	const op = "storage.ClearPendingToken"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE users
			  SET verification_token = NULL,
			      token_expires_at = NULL,
			      updated_at = NOW()
			  WHERE verification_token = $1`
	return s.execOne(ctx, op, query, token)
}

// DeleteUser удаляет пользователя.
func (s *Storage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	const op = "storage.DeleteUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	return s.execOne(ctx, op, `DELETE FROM users WHERE id = $1`, id)
}

// ListUsers возвращает страницу пользователей, отсортированную по дате создания.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "storage.ListUsers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (s *Storage) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return nil
}

func (s *Storage) queryOne(ctx context.Context, op, query string, args ...any) (*models.User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
