// Package apperr задаёт таксономию ошибок сервисного слоя.
//
// Сервисы оборачивают ошибки хранилища, почты и хэширования в *Error одного
// из видов Kind, HTTP-слой отображает вид в статус ответа. Сырые ошибки
// коллабораторов наружу не выходят.
package apperr

import (
	"errors"
	"net/http"
)

// Kind вид ошибки.
type Kind int

const (
	// KindInternal сбой, не связанный с вводом клиента.
	KindInternal Kind = iota
	// KindNotFound ресурс не найден.
	KindNotFound
	// KindUnauthorized неверные учётные данные или неприменимый токен.
	KindUnauthorized
	// KindForbidden недостаточно прав.
	KindForbidden
	// KindBadRequest нарушение валидации или бизнес-правила.
	KindBadRequest
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindBadRequest:
		return "bad request"
	default:
		return "internal server error"
	}
}

// Error ошибка сервисного слоя.
type Error struct {
	Kind    Kind
	Message string // Сообщение для клиента
	Err     error  // Причина, только для логов
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound создаёт ошибку вида KindNotFound.
func NotFound() *Error {
	return &Error{Kind: KindNotFound, Message: "resource not found"}
}

// Unauthorized создаёт ошибку вида KindUnauthorized.
func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Message: "unauthorized"}
}

// Forbidden создаёт ошибку вида KindForbidden.
func Forbidden() *Error {
	return &Error{Kind: KindForbidden, Message: "forbidden"}
}

// BadRequest создаёт ошибку вида KindBadRequest с сообщением для клиента.
func BadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

// Internal оборачивает причину в ошибку вида KindInternal.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// KindOf возвращает вид ошибки. Ошибки вне таксономии считаются внутренними.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message возвращает сообщение, безопасное для показа клиенту.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal && e.Message != "" {
		return e.Message
	}
	return KindInternal.String()
}

// HTTPStatus отображает ошибку в HTTP-статус.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
