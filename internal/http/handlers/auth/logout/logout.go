// Package logout удаляет cookie сессии. Выданный токен остаётся действительным
// до истечения срока: сессии не хранятся на сервере.
package logout

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-api/internal/http/response"
)

// Handler обрабатывает POST /auth/logout.
type Handler struct{}

// New создает новый экземпляр Handler.
func New() *Handler { return &Handler{} }

// ServeHTTP godoc
// @Summary Выход
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	middlewarectx.ClearSessionCookie(w)
	render.JSON(w, r, response.OK("Logged out"))
}
