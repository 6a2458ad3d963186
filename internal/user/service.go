// Package user manages back-office operator accounts.
package user

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backoffice/internal/common"
	"github.com/noah-isme/backoffice/internal/store"
)

// Querier is the subset of store.Queries used for user management.
type Querier interface {
	CreateUser(ctx context.Context, arg store.CreateUserParams) (store.User, error)
	GetUserByID(ctx context.Context, id int64) (store.User, error)
	GetUserByUsername(ctx context.Context, username string) (store.User, error)
	ListUsers(ctx context.Context) ([]store.User, error)
	UpdateUser(ctx context.Context, arg store.UpdateUserParams) (store.User, error)
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Queries Querier
	// Params overrides the argon2id cost parameters. Nil uses argon2id.DefaultParams.
	Params *argon2id.Params
}

// Service implements user administration.
type Service struct {
	q      Querier
	params *argon2id.Params
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	params := cfg.Params
	if params == nil {
		params = argon2id.DefaultParams
	}
	return &Service{q: cfg.Queries, params: params}
}

// CreateInput is the payload for a new user.
type CreateInput struct {
	Username string `json:"username" validate:"required,max=100"`
	Name     string `json:"name" validate:"max=200"`
	Password string `json:"password" validate:"required,min=8"`
	IsAdmin  bool   `json:"is_admin"`
	Active   *bool  `json:"active"`
}

// UpdateInput is the payload for editing a user. An empty password keeps the current one.
type UpdateInput struct {
	Username string `json:"username" validate:"required,max=100"`
	Name     string `json:"name" validate:"max=200"`
	Password string `json:"password" validate:"omitempty,min=8"`
	IsAdmin  bool   `json:"is_admin"`
	Active   bool   `json:"active"`
}

// HashPassword derives an argon2id hash with the service parameters.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, s.params)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// List returns all users ordered by username.
func (s *Service) List(ctx context.Context) ([]store.User, error) {
	users, err := s.q.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id int64) (store.User, error) {
	u, err := s.q.GetUserByID(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return store.User{}, common.NotFound("user")
		}
		return store.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Create stores a new user.
func (s *Service) Create(ctx context.Context, in CreateInput) (store.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := common.Validate(in); err != nil {
		return store.User{}, err
	}
	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return store.User{}, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	u, err := s.q.CreateUser(ctx, store.CreateUserParams{
		Username:     in.Username,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		IsAdmin:      in.IsAdmin,
		Active:       active,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return store.User{}, usernameTaken()
		}
		return store.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Update edits a user, re-hashing the password only when one is supplied.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (store.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := common.Validate(in); err != nil {
		return store.User{}, err
	}
	var hash pgtype.Text
	if in.Password != "" {
		h, err := s.HashPassword(in.Password)
		if err != nil {
			return store.User{}, err
		}
		hash = pgtype.Text{String: h, Valid: true}
	}
	u, err := s.q.UpdateUser(ctx, store.UpdateUserParams{
		ID:           id,
		Username:     in.Username,
		Name:         strings.TrimSpace(in.Name),
		IsAdmin:      in.IsAdmin,
		Active:       in.Active,
		PasswordHash: hash,
	})
	if err != nil {
		switch {
		case store.IsNotFound(err):
			return store.User{}, common.NotFound("user")
		case store.IsUniqueViolation(err):
			return store.User{}, usernameTaken()
		}
		return store.User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// EnsureAdmin creates an active administrator named username when no user
// with that name exists. It reports whether a user was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, password, name string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, nil
	}
	if _, err := s.q.GetUserByUsername(ctx, username); err == nil {
		return false, nil
	} else if !store.IsNotFound(err) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return false, err
	}
	_, err = s.q.CreateUser(ctx, store.CreateUserParams{
		Username:     username,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		IsAdmin:      true,
		Active:       true,
	})
	if err != nil {
		// another replica won the race
		if store.IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}

func usernameTaken() *common.AppError {
	return common.NewAppError("USERNAME_TAKEN", "username already in use", http.StatusConflict, nil)
}
