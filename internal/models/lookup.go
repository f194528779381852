package models

import "github.com/google/uuid"

// LookupField поле, по которому ищется пользователь.
type LookupField int

const (
	// LookupByID поиск по идентификатору.
	LookupByID LookupField = iota + 1
	// LookupByName поиск по имени.
	LookupByName
	// LookupByEmail поиск по почте.
	LookupByEmail
	// LookupByToken поиск по токену подтверждения/сброса.
	LookupByToken
)

// Lookup задаёт ровно один критерий поиска пользователя.
type Lookup struct {
	Field LookupField
	ID    uuid.UUID
	Value string
}

// ByID ищет пользователя по идентификатору.
func ByID(id uuid.UUID) Lookup { return Lookup{Field: LookupByID, ID: id} }

// ByName ищет пользователя по имени.
func ByName(name string) Lookup { return Lookup{Field: LookupByName, Value: name} }

// ByEmail ищет пользователя по почте.
func ByEmail(email string) Lookup { return Lookup{Field: LookupByEmail, Value: email} }

// ByToken ищет пользователя по ожидающему токену.
func ByToken(token string) Lookup { return Lookup{Field: LookupByToken, Value: token} }

func (l Lookup) String() string {
	switch l.Field {
	case LookupByID:
		return "id=" + l.ID.String()
	case LookupByName:
		return "name=" + l.Value
	case LookupByEmail:
		return "email=" + l.Value
	case LookupByToken:
		return "token"
	default:
		return "unknown"
	}
}
