// Package storage объявляет ошибки, общие для всех реализаций хранилища пользователей.
package storage

import "errors"

var (
	// ErrUserNotFound возвращается, когда пользователь по критерию не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists возвращается при нарушении уникальности почты.
	ErrUserExists = errors.New("user already exists")
)
