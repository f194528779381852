// Package me возвращает профиль текущего пользователя.
package me

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-api/internal/http/response"
	"github.com/magabrotheeeer/content-api/internal/lib/apperr"
)

// Handler обрабатывает GET /users/me.
type Handler struct{}

// New создает новый экземпляр Handler.
func New() *Handler { return &Handler{} }

// ServeHTTP godoc
// @Summary Текущий пользователь
// @Tags Users
// @Produce json
// @Success 200 {object} response.Response{data=models.PublicUser}
// @Failure 401 {object} response.ErrorResponse
// @Router /users/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.RenderError(w, r, apperr.Unauthorized())
		return
	}
	render.JSON(w, r, response.OKWithData(user.Public()))
}
