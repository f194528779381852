// Package models содержит доменную модель пользователя: учётные данные,
// роль, признак подтверждения почты и ожидающий токен подтверждения/сброса.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role роль пользователя.
type Role string

const (
	// RoleAdmin администратор.
	RoleAdmin Role = "admin"
	// RoleUser обычный пользователь, роль по умолчанию.
	RoleUser Role = "user"
)

// ParseRole разбирает строковое представление роли.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", fmt.Errorf("models.ParseRole: unknown role %q", s)
	}
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID                uuid.UUID  // Идентификатор (UUID v7)
	Name              string     // Имя пользователя
	Email             string     // Электронная почта (уникальная)
	PasswordHash      string     // Argon2id хэш в формате PHC
	Role              Role       // admin или user
	Verified          bool       // Почта подтверждена
	VerificationToken *string    // Ожидающий токен подтверждения или сброса
	TokenExpiresAt    *time.Time // Срок действия ожидающего токена
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasPendingToken сообщает, есть ли у пользователя неиспользованный токен.
func (u *User) HasPendingToken() bool {
	return u.VerificationToken != nil && u.TokenExpiresAt != nil
}

// PublicUser представление пользователя для ответов API, без хэша и токенов.
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public возвращает отфильтрованное представление пользователя.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// PublicUsers фильтрует список пользователей.
func PublicUsers(users []*User) []PublicUser {
	out := make([]PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}
