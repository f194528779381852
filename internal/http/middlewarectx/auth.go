// Package middlewarectx содержит HTTP middleware аутентификации и проверки ролей.
//
// Authenticate извлекает сессионный токен из cookie token или заголовка
// Authorization: Bearer, проверяет его, загружает пользователя и кладёт его
// в контекст запроса. RequireRoles пропускает запрос дальше, только если роль
// пользователя из контекста входит в заданный набор.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/content-api/internal/http/response"
	"github.com/magabrotheeeer/content-api/internal/lib/apperr"
	"github.com/magabrotheeeer/content-api/internal/lib/sl"
	"github.com/magabrotheeeer/content-api/internal/models"
)

// CookieName имя cookie с сессионным токеном.
const CookieName = "token"

type ctxKey struct{}

// IdentityService проверяет токен и загружает пользователя.
type IdentityService interface {
	DecodeToken(token string) (uuid.UUID, error)
	GetUser(ctx context.Context, lookup models.Lookup) (*models.User, error)
}

// WithUser кладёт пользователя в контекст.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFromContext возвращает пользователя, добавленного Authenticate.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(ctxKey{}).(*models.User)
	return user, ok && user != nil
}

// TokenFromRequest возвращает токен из cookie, а при её отсутствии из заголовка Authorization.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// Authenticate возвращает middleware, который пускает дальше только запросы
// с действительной сессией существующего пользователя.
func Authenticate(svc IdentityService, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Authenticate"
			log := log.With(
				sl.Op(op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token := TokenFromRequest(r)
			if token == "" {
				log.Debug("missing session token")
				response.RenderError(w, r, apperr.Unauthorized())
				return
			}

			id, err := svc.DecodeToken(token)
			if err != nil {
				log.Debug("invalid session token", sl.Err(err))
				response.RenderError(w, r, apperr.Unauthorized())
				return
			}

			user, err := svc.GetUser(r.Context(), models.ByID(id))
			if err != nil {
				if apperr.KindOf(err) == apperr.KindNotFound {
					log.Info("session of deleted user", sl.UserID(id))
					response.RenderError(w, r, apperr.Unauthorized())
					return
				}
				log.Error("failed to load user", sl.UserID(id), sl.Err(err))
				response.RenderError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireRoles возвращает middleware, который отвечает 403, если роль
// пользователя не входит в roles, и 401, если пользователя нет в контексте.
func RequireRoles(log *slog.Logger, roles ...models.Role) func(http.Handler) http.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				response.RenderError(w, r, apperr.Unauthorized())
				return
			}
			if _, ok := allowed[user.Role]; !ok {
				log.Warn("access denied",
					sl.Op("middlewarectx.RequireRoles"),
					sl.UserID(user.ID),
					slog.String("role", string(user.Role)),
					slog.String("path", r.URL.Path),
				)
				response.RenderError(w, r, apperr.Forbidden())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetSessionCookie выставляет HttpOnly cookie с сессионным токеном.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie удаляет cookie с сессионным токеном.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
