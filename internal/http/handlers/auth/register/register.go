// Package register реализует HTTP-обработчик регистрации пользователя.
//
// После создания учётной записи обработчик сам отправляет письмо со ссылкой
// подтверждения. Если письмо отправить не удалось, регистрация всё равно
// считается успешной: ссылку можно запросить повторно.
package register

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/content-api/internal/http/response"
	"github.com/magabrotheeeer/content-api/internal/lib/sl"
	"github.com/magabrotheeeer/content-api/internal/models"
	"github.com/magabrotheeeer/content-api/internal/services/auth"
)

const (
	msgRegistered = "Registration successful! Please check your email to verify your account."
	msgMailFailed = "Registration successful, but the verification email could not be sent. Please request a new one."
)

// Request входные данные для регистрации.
type Request struct {
	Name            string `json:"name" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,min=3,max=50,email"`
	Password        string `json:"password" validate:"required,min=6"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// Service описывает регистрацию и отправку письма подтверждения.
type Service interface {
	Register(ctx context.Context, name, email, password string) (*auth.RegisterResult, error)
	SendVerification(ctx context.Context, user *models.User, token string) error
}

// Handler обрабатывает HTTP-запросы на регистрацию.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: response.NewValidator(),
	}
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Description Создаёт неподтверждённую учётную запись и отправляет письмо со ссылкой подтверждения.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Данные пользователя"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ValidationResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /auth/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		response.RenderValidation(w, r, err)
		return
	}

	res, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		log.Info("registration rejected", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	msg := msgRegistered
	if err := h.service.SendVerification(r.Context(), res.User, res.VerificationToken); err != nil {
		log.Error("verification email not sent", sl.UserID(res.User.ID), sl.Err(err))
		msg = msgMailFailed
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK(msg))
}
