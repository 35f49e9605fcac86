package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arzan03/devcamper/internal/apperror"
	"github.com/arzan03/devcamper/internal/auth"
	"github.com/arzan03/devcamper/internal/mailer"
	"github.com/arzan03/devcamper/internal/config"
	"github.com/arzan03/devcamper/internal/models"
	"github.com/arzan03/devcamper/internal/repository"
)

// AuthService covers registration, sign-in and the caller's own account.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*Session, error)
	Login(ctx context.Context, in LoginInput) (*Session, error)
	Me(ctx context.Context, userID string) (*models.User, error)
	UpdateDetails(ctx context.Context, actor auth.Actor, in UpdateDetailsInput) (*models.User, error)
	UpdatePassword(ctx context.Context, actor auth.Actor, in UpdatePasswordInput) (*Session, error)
	// ForgotPassword emails a single-use reset link rooted at resetURL.
	ForgotPassword(ctx context.Context, in ForgotPasswordInput, resetURL string) error
	ResetPassword(ctx context.Context, token string, in ResetPasswordInput) (*Session, error)
}

// Session is a signed-in user and the token that identifies them.
type Session struct {
	User  *models.User
	Token string
}

type RegisterInput struct {
	Name     string      `json:"name" validate:"required"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=user publisher"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateDetailsInput struct {
	Name  *string `json:"name" validate:"omitempty,min=1"`
	Email *string `json:"email" validate:"omitempty,email"`
}

type UpdatePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordInput struct {
	Password string `json:"password" validate:"required,min=6"`
}

type authService struct {
	users         repository.UserRepository
	authenticator *auth.JWTAuthenticator
	mailer        Mailer
	resetTTL      time.Duration
	logger        *zerolog.Logger
	now           func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	authenticator *auth.JWTAuthenticator,
	mailer Mailer,
	resetCfg config.ResetConfig,
	logger *zerolog.Logger,
) AuthService {
	return &authService{
		users:         users,
		authenticator: authenticator,
		mailer:        mailer,
		resetTTL:      resetCfg.TokenExpiresIn,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = models.RoleUser
	}

	user, err := createUser(ctx, s.users, in.Name, in.Email, in.Password, role)
	if err != nil {
		return nil, err
	}
	return s.session(user)
}

func (s *authService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, apperror.BadRequest("Please provide an email and password")
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthorized("Invalid credentials")
		}
		return nil, serverErr(err, "load user by email")
	}
	if !auth.VerifyPassword(in.Password, user.Password) {
		return nil, apperror.Unauthorized("Invalid credentials")
	}
	return s.session(user)
}

func (s *authService) Me(ctx context.Context, userID string) (*models.User, error) {
	oid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Get(ctx, oid)
	if err != nil {
		return nil, lookupErr(err, "user", oid)
	}
	return user, nil
}

func (s *authService) UpdateDetails(
	ctx context.Context,
	actor auth.Actor,
	in UpdateDetailsInput,
) (*models.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.users.Update(ctx, actor.ID, repository.UpdateUserParams{
		Name:  in.Name,
		Email: in.Email,
	})
	if err != nil {
		return nil, userWriteErr(err, actor.ID.Hex())
	}
	return user, nil
}

func (s *authService) UpdatePassword(
	ctx context.Context,
	actor auth.Actor,
	in UpdatePasswordInput,
) (*Session, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.users.Get(ctx, actor.ID)
	if err != nil {
		return nil, lookupErr(err, "user", actor.ID)
	}
	if !auth.VerifyPassword(in.CurrentPassword, user.Password) {
		return nil, apperror.Unauthorized("Password is incorrect")
	}

	user, err = s.setPassword(ctx, user.ID, in.NewPassword)
	if err != nil {
		return nil, err
	}
	return s.session(user)
}

func (s *authService) ForgotPassword(ctx context.Context, in ForgotPasswordInput, resetURL string) error {
	if err := validateInput(in); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("There is no user with that email")
		}
		return serverErr(err, "load user by email")
	}

	token := uuid.NewString()
	expires := s.now().Add(s.resetTTL)
	if err := s.users.SetResetToken(ctx, user.ID, auth.HashResetToken(token), expires); err != nil {
		return serverErr(err, "store reset token for %s", user.ID.Hex())
	}

	link := strings.TrimRight(resetURL, "/") + "/" + token
	if err := s.mailer.Send(resetEmail(user.Email, link)); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to send reset email")
		if clearErr := s.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.logger.Error().Err(clearErr).Str("user_id", user.ID.Hex()).Msg("failed to clear reset token")
		}
		return apperror.Internal("Email could not be sent", err)
	}
	return nil
}

func resetEmail(to, link string) mailer.Email {
	const intro = "You are receiving this email because you (or someone else) has requested the reset of a password."
	escaped := html.EscapeString(link)
	return mailer.Email{
		To:      []string{to},
		Subject: "Password reset token",
		Body:    fmt.Sprintf("%s Please make a PUT request to: \n\n%s", intro, link),
		HTMLBody: fmt.Sprintf(
			"<p>%s</p><p>Please make a PUT request to:</p><p><a href=\"%s\">%s</a></p>",
			intro, escaped, escaped),
	}
}

func (s *authService) ResetPassword(ctx context.Context, token string, in ResetPasswordInput) (*Session, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByResetToken(ctx, auth.HashResetToken(token), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.BadRequest("Invalid token")
		}
		return nil, serverErr(err, "load user by reset token")
	}

	user, err = s.setPassword(ctx, user.ID, in.Password)
	if err != nil {
		return nil, err
	}
	if err := s.users.ClearResetToken(ctx, user.ID); err != nil {
		return nil, serverErr(err, "clear reset token for %s", user.ID.Hex())
	}
	return s.session(user)
}

func (s *authService) setPassword(ctx context.Context, id primitive.ObjectID, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, serverErr(err, "hash password")
	}

	user, err := s.users.Update(ctx, id, repository.UpdateUserParams{Password: &hash})
	if err != nil {
		return nil, lookupErr(err, "user", id)
	}
	return user, nil
}

func (s *authService) session(user *models.User) (*Session, error) {
	token, err := s.authenticator.GenerateToken(user.ID.Hex())
	if err != nil {
		return nil, serverErr(err, "sign token for %s", user.ID.Hex())
	}
	return &Session{User: user, Token: token}, nil
}
