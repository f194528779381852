// Package auth содержит бизнес-логику регистрации, входа, подтверждения почты
// и сброса пароля.
//
// Ошибки хранилища, почты и хэширования оборачиваются в apperr на границе
// сервиса. Письмо подтверждения после регистрации отправляет вызывающий код
// по ссылке из RegisterResult; приветственное письмо и письмо сброса пароля
// отправляет сам сервис.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/content-api/internal/lib/apperr"
	"github.com/magabrotheeeer/content-api/internal/lib/sl"
	"github.com/magabrotheeeer/content-api/internal/models"
	"github.com/magabrotheeeer/content-api/internal/services/notification"
	"github.com/magabrotheeeer/content-api/internal/services/verification"
	"github.com/magabrotheeeer/content-api/internal/storage"
)

// Сообщения для клиента.
const (
	MsgEmailUnavailable = "Unavailable."
	MsgUserNotFound     = "User not found, create an account!"
	MsgNotVerified      = "Check your e-email!"
	MsgInvalidPassword  = "Invalid password!"
	MsgInvalidToken     = "Invalid data"
	MsgTokenExpired     = "Token expired"
	MsgInvalidEmail     = "Invalid e-mail!"
	MsgAlreadyVerified  = "E-mail already verified"
)

// DefaultLoginTTL срок жизни сессии, выданной при входе.
const DefaultLoginTTL = 60 * time.Minute

// UserRepository описывает операции хранилища пользователей, нужные сервису.
type UserRepository interface {
	GetUser(ctx context.Context, lookup models.Lookup) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	ResetPassword(ctx context.Context, id uuid.UUID, token, passwordHash string) error
}

// PasswordHasher хэширует и проверяет пароли.
type PasswordHasher interface {
	GetHash(password string) (string, error)
	CompareHash(encodedHash, password string) (bool, error)
}

// TokenMaker выпускает и разбирает сессионные токены.
type TokenMaker interface {
	GenerateToken(subject uuid.UUID, ttl time.Duration) (string, error)
	ParseToken(tokenStr string) (uuid.UUID, error)
}

// TokenManager управляет токенами подтверждения почты и сброса пароля.
type TokenManager interface {
	New(kind verification.Kind) (string, time.Time, error)
	Issue(ctx context.Context, userID uuid.UUID, kind verification.Kind) (string, time.Time, error)
	Resolve(ctx context.Context, token string) (*models.User, error)
	Consume(ctx context.Context, token string, kind verification.Kind) error
}

// Config параметры сервиса.
type Config struct {
	LoginTTL   time.Duration // Сессия после входа по паролю
	SessionTTL time.Duration // Сессия после подтверждения почты
	FrontURL   string        // Базовый адрес фронтенда, ссылки подтверждения
	APIURL     string        // Базовый адрес API, ссылки сброса пароля
}

// RegisterResult результат регистрации.
type RegisterResult struct {
	User              *models.User
	VerificationToken string
	VerificationLink  string
}

// Service реализует сценарии аутентификации.
type Service struct {
	users    UserRepository
	hasher   PasswordHasher
	jwt      TokenMaker
	tokens   TokenManager
	notifier notification.Sender
	cfg      Config
	log      *slog.Logger
}

// New создаёт сервис аутентификации.
func New(
	users UserRepository,
	hasher PasswordHasher,
	jwt TokenMaker,
	tokens TokenManager,
	notifier notification.Sender,
	cfg Config,
	log *slog.Logger,
) *Service {
	if cfg.LoginTTL <= 0 {
		cfg.LoginTTL = DefaultLoginTTL
	}
	return &Service{
		users:    users,
		hasher:   hasher,
		jwt:      jwt,
		tokens:   tokens,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
	}
}

// Register создаёт неподтверждённого пользователя с ролью user и токеном
// подтверждения почты на 24 часа.
func (s *Service) Register(ctx context.Context, name, email, password string) (*RegisterResult, error) {
	const op = "auth.Register"
	log := s.log.With(sl.Op(op))

	_, err := s.users.GetUser(ctx, models.ByEmail(email))
	switch {
	case err == nil:
		return nil, apperr.BadRequest(MsgEmailUnavailable)
	case !errors.Is(err, storage.ErrUserNotFound):
		log.Error("failed to check email", sl.Err(err))
		return nil, apperr.Internal(err)
	}

	hash, err := s.hasher.GetHash(password)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return nil, apperr.Internal(err)
	}
	token, expiresAt, err := s.tokens.New(verification.KindEmailVerification)
	if err != nil {
		log.Error("failed to create verification token", sl.Err(err))
		return nil, apperr.Internal(err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user, err := s.users.CreateUser(ctx, &models.User{
		ID:                id,
		Name:              name,
		Email:             email,
		PasswordHash:      hash,
		Role:              models.RoleUser,
		VerificationToken: &token,
		TokenExpiresAt:    &expiresAt,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, apperr.BadRequest(MsgEmailUnavailable)
		}
		log.Error("failed to create user", sl.Err(err))
		return nil, apperr.Internal(err)
	}

	log.Info("user registered", sl.UserID(user.ID))
	return &RegisterResult{
		User:              user,
		VerificationToken: token,
		VerificationLink:  s.VerificationLink(token),
	}, nil
}

// Login проверяет пароль подтверждённого пользователя и выпускает сессию на LoginTTL.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	const op = "auth.Login"
	log := s.log.With(sl.Op(op))

	user, err := s.users.GetUser(ctx, models.ByEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", apperr.BadRequest(MsgUserNotFound)
		}
		log.Error("failed to get user", sl.Err(err))
		return "", apperr.Internal(err)
	}
	if !user.Verified {
		return "", apperr.BadRequest(MsgNotVerified)
	}

	ok, err := s.hasher.CompareHash(user.PasswordHash, password)
	if err != nil {
		log.Error("stored password hash is unusable", sl.UserID(user.ID), sl.Err(err))
		return "", apperr.Internal(err)
	}
	if !ok {
		return "", apperr.BadRequest(MsgInvalidPassword)
	}

	return s.issueSession(log, user.ID, s.cfg.LoginTTL)
}

// VerifyEmail погашает токен подтверждения, отправляет приветственное письмо
// и выпускает сессию на SessionTTL. Ошибка отправки письма возвращается клиенту,
// почта при этом остаётся подтверждённой.
func (s *Service) VerifyEmail(ctx context.Context, token string) (string, error) {
	const op = "auth.VerifyEmail"
	log := s.log.With(sl.Op(op))

	user, err := s.resolve(ctx, log, token, apperr.BadRequest(MsgInvalidToken))
	if err != nil {
		return "", err
	}

	if err := s.tokens.Consume(ctx, token, verification.KindEmailVerification); err != nil {
		if errors.Is(err, verification.ErrTokenNotFound) {
			return "", apperr.BadRequest(MsgInvalidToken)
		}
		log.Error("failed to consume token", sl.UserID(user.ID), sl.Err(err))
		return "", apperr.Internal(err)
	}

	err = s.notifier.Send(ctx, user.Email, notification.KindWelcome, map[string]string{
		notification.ParamUsername: user.Name,
		notification.ParamLoginURL: s.cfg.FrontURL,
	})
	if err != nil {
		log.Error("failed to send welcome email", sl.UserID(user.ID), sl.Err(err))
		return "", apperr.Internal(err)
	}

	log.Info("email verified", sl.UserID(user.ID))
	return s.issueSession(log, user.ID, s.cfg.SessionTTL)
}

// ResendVerification выпускает новый токен подтверждения для неподтверждённой
// почты и отправляет письмо. Предыдущий токен перестаёт действовать.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	const op = "auth.ResendVerification"
	log := s.log.With(sl.Op(op))

	user, err := s.users.GetUser(ctx, models.ByEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.BadRequest(MsgInvalidEmail)
		}
		log.Error("failed to get user", sl.Err(err))
		return apperr.Internal(err)
	}
	if user.Verified {
		return apperr.BadRequest(MsgAlreadyVerified)
	}

	token, _, err := s.tokens.Issue(ctx, user.ID, verification.KindEmailVerification)
	if err != nil {
		log.Error("failed to issue token", sl.UserID(user.ID), sl.Err(err))
		return apperr.Internal(err)
	}
	return s.SendVerification(ctx, user, token)
}

// SendVerification отправляет письмо со ссылкой подтверждения почты.
func (s *Service) SendVerification(ctx context.Context, user *models.User, token string) error {
	const op = "auth.SendVerification"

	err := s.notifier.Send(ctx, user.Email, notification.KindVerification, map[string]string{
		notification.ParamUsername:         user.Name,
		notification.ParamVerificationLink: s.VerificationLink(token),
	})
	if err != nil {
		s.log.Error("failed to send verification email", sl.Op(op), sl.UserID(user.ID), sl.Err(err))
		return apperr.Internal(err)
	}
	return nil
}

// ForgotPassword выпускает токен сброса пароля на 30 минут и отправляет ссылку
// на почту. Неизвестная почта возвращает ошибку. При ошибке отправки токен
// остаётся сохранённым, повторный вызов выпускает новый.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	const op = "auth.ForgotPassword"
	log := s.log.With(sl.Op(op))

	user, err := s.users.GetUser(ctx, models.ByEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.BadRequest(MsgInvalidEmail)
		}
		log.Error("failed to get user", sl.Err(err))
		return apperr.Internal(err)
	}

	token, _, err := s.tokens.Issue(ctx, user.ID, verification.KindPasswordReset)
	if err != nil {
		log.Error("failed to issue token", sl.UserID(user.ID), sl.Err(err))
		return apperr.Internal(err)
	}

	err = s.notifier.Send(ctx, user.Email, notification.KindPasswordReset, map[string]string{
		notification.ParamUsername:  user.Name,
		notification.ParamResetLink: s.ResetLink(token),
	})
	if err != nil {
		log.Error("failed to send reset email", sl.UserID(user.ID), sl.Err(err))
		return apperr.Internal(err)
	}
	return nil
}

// ResetPassword устанавливает новый пароль по токену сброса. Новый хэш и
// погашение токена записываются одной операцией хранилища: при сбое токен
// остаётся действительным, а из одновременных сбросов проходит только один.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "auth.ResetPassword"
	log := s.log.With(sl.Op(op))

	user, err := s.resolve(ctx, log, token, apperr.Unauthorized())
	if err != nil {
		return err
	}

	hash, err := s.hasher.GetHash(newPassword)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return apperr.Internal(err)
	}
	if err := s.users.ResetPassword(ctx, user.ID, token, hash); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.Unauthorized()
		}
		log.Error("failed to reset password", sl.UserID(user.ID), sl.Err(err))
		return apperr.Internal(err)
	}

	log.Info("password reset", sl.UserID(user.ID))
	return nil
}

// GetUser находит пользователя.
func (s *Service) GetUser(ctx context.Context, lookup models.Lookup) (*models.User, error) {
	const op = "auth.GetUser"

	user, err := s.users.GetUser(ctx, lookup)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, apperr.NotFound()
		}
		s.log.Error("failed to get user", sl.Op(op), sl.Err(err))
		return nil, apperr.Internal(err)
	}
	return user, nil
}

// DecodeToken проверяет сессионный токен и возвращает идентификатор пользователя.
func (s *Service) DecodeToken(token string) (uuid.UUID, error) {
	id, err := s.jwt.ParseToken(token)
	if err != nil {
		s.log.Debug("session token rejected", sl.Op("auth.DecodeToken"), sl.Err(err))
		return uuid.Nil, apperr.Unauthorized()
	}
	return id, nil
}

// LoginTTL срок жизни сессии после входа.
func (s *Service) LoginTTL() time.Duration { return s.cfg.LoginTTL }

// SessionTTL срок жизни сессии после подтверждения почты.
func (s *Service) SessionTTL() time.Duration { return s.cfg.SessionTTL }

// VerificationLink строит ссылку подтверждения почты.
func (s *Service) VerificationLink(token string) string {
	return s.cfg.FrontURL + "/confirm-auth/verify-email?token=" + url.QueryEscape(token)
}

// ResetLink строит ссылку сброса пароля.
func (s *Service) ResetLink(token string) string {
	return s.cfg.APIURL + "/confirm-auth/reset-password?token=" + url.QueryEscape(token)
}

// resolve находит владельца токена. notFound возвращается для неизвестного токена.
func (s *Service) resolve(ctx context.Context, log *slog.Logger, token string, notFound *apperr.Error) (*models.User, error) {
	user, err := s.tokens.Resolve(ctx, token)
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, verification.ErrTokenNotFound):
		return nil, notFound
	case errors.Is(err, verification.ErrTokenExpired):
		return nil, apperr.BadRequest(MsgTokenExpired)
	default:
		log.Error("failed to resolve token", sl.Err(err))
		return nil, apperr.Internal(err)
	}
}

func (s *Service) issueSession(log *slog.Logger, id uuid.UUID, ttl time.Duration) (string, error) {
	token, err := s.jwt.GenerateToken(id, ttl)
	if err != nil {
		log.Error("failed to generate token", sl.UserID(id), sl.Err(err))
		return "", apperr.Internal(err)
	}
	return token, nil
}
