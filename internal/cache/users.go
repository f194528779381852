package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/content-api/internal/lib/sl"
	"github.com/magabrotheeeer/content-api/internal/models"
)

// UserStore описывает хранилище пользователей, которое оборачивает UserCache.
type UserStore interface {
	GetUser(ctx context.Context, lookup models.Lookup) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ResetPassword(ctx context.Context, id uuid.UUID, token, passwordHash string) error
	UpdateUsername(ctx context.Context, id uuid.UUID, name string) (*models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error)
	SetPendingToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	ConsumeVerification(ctx context.Context, token string) error
	ClearPendingToken(ctx context.Context, token string) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
}

// UserCache кэширует поиск пользователя по идентификатору, которым
// пользуется аутентификация на каждом запросе. Ошибки Redis не прерывают
// запрос: декоратор пишет их в лог и обращается к хранилищу напрямую.
//
// Каждое изменение пользователя увеличивает его счётчик версии, а запись
// кэша хранит версию, прочитанную до загрузки из хранилища. Запись другой
// версии считается промахом, поэтому чтение, конкурирующее с изменением,
// не может вернуть в кэш устаревшую роль.
type UserCache struct {
	next  UserStore
	cache *Cache
	ttl   time.Duration
	log   *slog.Logger
}

// versionTTL время жизни счётчика версии. Должно превышать ttl записи
// вместе с длительностью самого медленного чтения из хранилища.
const versionTTL = 24 * time.Hour

type cachedUser struct {
	Version int64        `json:"version"`
	User    *models.User `json:"user"`
}

// NewUserCache оборачивает store кэшем с временем жизни записи ttl.
func NewUserCache(next UserStore, cache *Cache, ttl time.Duration, log *slog.Logger) *UserCache {
	return &UserCache{next: next, cache: cache, ttl: ttl, log: log}
}

func userKey(id uuid.UUID) string {
	return "user:" + id.String()
}

func versionKey(id uuid.UUID) string {
	return "user:" + id.String() + ":version"
}

// GetUser отдает пользователя из кэша при поиске по идентификатору.
func (c *UserCache) GetUser(ctx context.Context, lookup models.Lookup) (*models.User, error) {
	const op = "cache.GetUser"
	if lookup.Field != models.LookupByID {
		return c.next.GetUser(ctx, lookup)
	}

	version, err := c.cache.Counter(ctx, versionKey(lookup.ID))
	if err != nil {
		c.log.Warn("user cache version read failed", sl.Op(op), sl.Err(err))
		return c.next.GetUser(ctx, lookup)
	}

	var cached cachedUser
	found, err := c.cache.Get(ctx, userKey(lookup.ID), &cached)
	if err != nil {
		c.log.Warn("user cache read failed", sl.Op(op), sl.Err(err))
	}
	if found && cached.Version == version && cached.User != nil {
		return cached.User, nil
	}

	u, err := c.next.GetUser(ctx, lookup)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, userKey(u.ID), cachedUser{Version: version, User: u}, c.ttl); err != nil {
		c.log.Warn("user cache write failed", sl.Op(op), sl.Err(err))
	}
	return u, nil
}

// CreateUser передает вызов хранилищу; новая запись в кэше не появляется.
func (c *UserCache) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	return c.next.CreateUser(ctx, user)
}

func (c *UserCache) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	defer c.invalidate(ctx, id)
	return c.next.UpdatePassword(ctx, id, passwordHash)
}

func (c *UserCache) ResetPassword(ctx context.Context, id uuid.UUID, token, passwordHash string) error {
	defer c.invalidate(ctx, id)
	return c.next.ResetPassword(ctx, id, token, passwordHash)
}

func (c *UserCache) UpdateUsername(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	defer c.invalidate(ctx, id)
	return c.next.UpdateUsername(ctx, id, name)
}

func (c *UserCache) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	defer c.invalidate(ctx, id)
	return c.next.UpdateRole(ctx, id, role)
}

func (c *UserCache) SetPendingToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	defer c.invalidate(ctx, id)
	return c.next.SetPendingToken(ctx, id, token, expiresAt)
}

func (c *UserCache) ConsumeVerification(ctx context.Context, token string) error {
	defer c.invalidateByToken(ctx, token)()
	return c.next.ConsumeVerification(ctx, token)
}

func (c *UserCache) ClearPendingToken(ctx context.Context, token string) error {
	defer c.invalidateByToken(ctx, token)()
	return c.next.ClearPendingToken(ctx, token)
}

func (c *UserCache) DeleteUser(ctx context.Context, id uuid.UUID) error {
	defer c.invalidate(ctx, id)
	return c.next.DeleteUser(ctx, id)
}

func (c *UserCache) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return c.next.ListUsers(ctx, limit, offset)
}

// invalidate сдвигает версию пользователя и удаляет его запись.
func (c *UserCache) invalidate(ctx context.Context, id uuid.UUID) {
	if err := c.cache.Incr(ctx, versionKey(id), versionTTL); err != nil {
		c.log.Warn("user cache version bump failed", sl.Op("cache.invalidate"), sl.UserID(id), sl.Err(err))
	}
	if err := c.cache.Invalidate(ctx, userKey(id)); err != nil {
		c.log.Warn("user cache invalidation failed", sl.Op("cache.invalidate"), sl.UserID(id), sl.Err(err))
	}
}

// invalidateByToken находит владельца токена до изменения и возвращает
// функцию, сбрасывающую его запись после изменения.
func (c *UserCache) invalidateByToken(ctx context.Context, token string) func() {
	u, err := c.next.GetUser(ctx, models.ByToken(token))
	if err != nil {
		return func() {}
	}
	return func() { c.invalidate(ctx, u.ID) }
}
