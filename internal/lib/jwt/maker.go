// Package jwt реализует выпуск и проверку сессионных JWT токенов.
//
// Токен содержит sub (идентификатор пользователя), iat и exp и подписывается
// HS256 секретом сервера. Любая ошибка разбора, подписи или срока действия
// сводится к ErrInvalidToken, чтобы вызывающий код не мог различить причины.
package jwt

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidToken единая ошибка для недействительного токена.
var ErrInvalidToken = errors.New("invalid token")

// Maker описывает выпуск и разбор сессионных токенов.
type Maker interface {
	// GenerateToken выпускает токен для subject со сроком жизни ttl.
	GenerateToken(subject uuid.UUID, ttl time.Duration) (string, error)
	// ParseToken проверяет подпись и срок действия и возвращает subject.
	ParseToken(tokenStr string) (uuid.UUID, error)
}

// MakerImpl реализует Maker на секретном ключе.
type MakerImpl struct {
	secretKey []byte           // Секретный ключ для подписи токенов.
	now       func() time.Time // Источник времени.
}

// NewJWTMaker создаёт MakerImpl на основе секретного ключа.
func NewJWTMaker(secretKey string) *MakerImpl {
	return &MakerImpl{
		secretKey: []byte(secretKey),
		now:       time.Now,
	}
}
