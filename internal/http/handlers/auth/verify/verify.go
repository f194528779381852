// Package verify реализует HTTP-обработчик подтверждения почты по ссылке из письма.
package verify

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-api/internal/http/response"
	"github.com/magabrotheeeer/content-api/internal/lib/sl"
)

// Service описывает подтверждение почты.
type Service interface {
	VerifyEmail(ctx context.Context, token string) (string, error)
	SessionTTL() time.Duration
}

// Handler обрабатывает GET /auth/verify?token=.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Подтверждение почты
// @Description Погашает токен подтверждения и выставляет cookie сессии.
// @Tags Auth
// @Produce json
// @Param token query string true "Токен из письма"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /auth/verify [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verify"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token := r.URL.Query().Get("token")
	if token == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Token is required."))
		return
	}

	session, err := h.service.VerifyEmail(r.Context(), token)
	if err != nil {
		log.Info("verification failed", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	middlewarectx.SetSessionCookie(w, session, h.service.SessionTTL())
	render.JSON(w, r, response.OK("Email verified successfully!"))
}
