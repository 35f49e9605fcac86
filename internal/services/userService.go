package services

import (
	"context"
	"errors"

	"github.com/arzan03/devcamper/internal/apperror"
	"github.com/arzan03/devcamper/internal/auth"
	"github.com/arzan03/devcamper/internal/models"
	"github.com/arzan03/devcamper/internal/query"
	"github.com/arzan03/devcamper/internal/repository"
)

// UserService covers user management for administrators.
type UserService interface {
	List(ctx context.Context, params map[string]string) (query.Page[models.User], error)
	Get(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, in CreateUserInput) (*models.User, error)
	Update(ctx context.Context, id string, in UpdateUserInput) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type CreateUserInput struct {
	Name     string      `json:"name" validate:"required"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=user publisher admin"`
}

type UpdateUserInput struct {
	Name  *string      `json:"name" validate:"omitempty,min=1"`
	Email *string      `json:"email" validate:"omitempty,email"`
	Role  *models.Role `json:"role" validate:"omitempty,oneof=user publisher admin"`
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) List(ctx context.Context, params map[string]string) (query.Page[models.User], error) {
	q, err := repository.UserSchema.Parse(params)
	if err != nil {
		return query.Page[models.User]{}, err
	}

	items, total, err := s.users.List(ctx, q)
	if err != nil {
		return query.Page[models.User]{}, serverErr(err, "list users")
	}
	return query.NewPage(q, items, total), nil
}

func (s *userService) Get(ctx context.Context, id string) (*models.User, error) {
	oid, err := parseID("user", id)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Get(ctx, oid)
	if err != nil {
		return nil, lookupErr(err, "user", oid)
	}
	return user, nil
}

func (s *userService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	return createUser(ctx, s.users, in.Name, in.Email, in.Password, role)
}

func (s *userService) Update(ctx context.Context, id string, in UpdateUserInput) (*models.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	oid, err := parseID("user", id)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Update(ctx, oid, repository.UpdateUserParams{
		Name:  in.Name,
		Email: in.Email,
		Role:  in.Role,
	})
	if err != nil {
		return nil, userWriteErr(err, oid.Hex())
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	oid, err := parseID("user", id)
	if err != nil {
		return err
	}

	if err := s.users.Delete(ctx, oid); err != nil {
		return lookupErr(err, "user", oid)
	}
	return nil
}

func createUser(
	ctx context.Context,
	users repository.UserRepository,
	name, email, password string,
	role models.Role,
) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, serverErr(err, "hash password")
	}

	user, err := users.Create(ctx, &models.User{
		Name:     name,
		Email:    email,
		Password: hash,
		Role:     role,
	})
	if err != nil {
		return nil, userWriteErr(err, email)
	}
	return user, nil
}

// userWriteErr maps the unique email index to a client error.
func userWriteErr(err error, ref string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return apperror.BadRequest("Duplicate field value entered")
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound("No user with id of %s", ref)
	default:
		return serverErr(err, "write user %s", ref)
	}
}
