// Package password реализует хэширование и проверку паролей на argon2id.
//
// GetHash создаёт хэш со свежей случайной солью и кодирует его строкой PHC
// ($argon2id$v=19$m=...,t=...,p=...$соль$хэш), поэтому параметры алгоритма
// хранятся вместе с хэшем. CompareHash разбирает строку, пересчитывает ключ
// и сравнивает его за постоянное время.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash возвращается, если сохранённый хэш не удаётся разобрать.
var ErrMalformedHash = errors.New("password: malformed hash")

// Params параметры argon2id.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams параметры argon2id по умолчанию (19 MiB, 2 прохода, 1 поток).
var DefaultParams = Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher хэширует и проверяет пароли.
type Hasher struct {
	params Params
}

// NewHasher создаёт Hasher с заданными параметрами.
func NewHasher(params Params) *Hasher {
	return &Hasher{params: params}
}

// GetHash возвращает PHC-строку argon2id для пароля.
func (h *Hasher) GetHash(password string) (string, error) {
	const op = "password.GetHash"

	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	key := argon2.IDKey([]byte(password), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// CompareHash проверяет пароль против сохранённого хэша.
//
// Неверный пароль даёт (false, nil), повреждённый хэш даёт ErrMalformedHash.
func (h *Hasher) CompareHash(encodedHash, password string) (bool, error) {
	const op = "password.CompareHash"

	p, salt, key, err := decode(encodedHash)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	other := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return subtle.ConstantTimeCompare(key, other) == 1, nil
}

// Верхние границы параметров, принимаемых из сохранённого хэша.
const (
	maxMemory      = 1024 * 1024 // KiB, 1 GiB
	maxIterations  = 16
	maxParallelism = 16
	maxKeyLength   = 1024
)

func decode(encodedHash string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, ErrMalformedHash
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, ErrMalformedHash
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return p, nil, nil, ErrMalformedHash
	}
	if p.Memory > maxMemory || p.Iterations > maxIterations || p.Parallelism > maxParallelism {
		return p, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, ErrMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxKeyLength {
		return p, nil, nil, ErrMalformedHash
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))

	return p, salt, key, nil
}
