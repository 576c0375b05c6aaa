// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services accept primitives and domain types — never *http.Request — and
// return domain errors from the apperror package, never HTTP status codes.
// The handler translates in both directions. That keeps every rule in this
// package callable (and testable) as a plain Go function.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

// Validation constants.
const (
	MaxUsernameLength = 50
	MinPasswordLength = 8
)

// UserService handles account and credential business logic.
type UserService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewUserService creates a UserService with all required dependencies.
// The caller (server wiring) decides which repository implementation to use.
func NewUserService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// LoginResult bundles the authenticated user and the issued token so the
// handler can respond in one step.
type LoginResult struct {
	User  *model.User
	Token string
}

// Register creates a new account.
//
// The email is lowercased before storage — this is the single normalisation
// point, so the unique constraint and every later lookup agree on what "the
// same email" means. Usernames are NOT unique; identity is the email.
// A freshly registered user is never an admin.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "email must be a valid address")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      false,
	}

	// The repository reports a duplicate email as ErrConflict — let that
	// propagate untouched so the handler answers 409.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login verifies the credentials and issues a signed token.
//
// An unknown email and a wrong password both come back as the same
// ErrAuthRejected — the response must not reveal which half was wrong,
// or it becomes an account-enumeration oracle.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("credentials", "email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.AuthRejected("invalid email or password")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.AuthRejected("invalid email or password")
	}

	token, err := s.tokens.Issue(auth.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsAdmin:  user.IsAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("service/user: issuing token for %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &LoginResult{User: user, Token: token}, nil
}

// Profile returns the account for the given internal ID.
func (s *UserService) Profile(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetByID(ctx, id)
}

// UpdateProfile changes username and/or email. Empty fields are left as
// they are. A changed email is lowercased and must remain unique.
func (s *UserService) UpdateProfile(ctx context.Context, id, username, email string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if username = strings.TrimSpace(username); username != "" {
		if len(username) > MaxUsernameLength {
			return nil, apperror.ValidationFailed("username",
				fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
		}
		user.Username = username
	}
	if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
		if !strings.Contains(email, "@") {
			return nil, apperror.ValidationFailed("email", "email must be a valid address")
		}
		user.Email = email
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("userID", user.ID))
	return user, nil
}

// UpdatePassword replaces the caller's password. The current password must
// verify first — possession of a token alone is not enough to rotate the
// credential behind it.
func (s *UserService) UpdatePassword(ctx context.Context, id, current, updated string) error {
	if len(updated) < MinPasswordLength {
		return apperror.ValidationFailed("newPassword",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.passwords.Verify(user.PasswordHash, current); err != nil {
		return apperror.Forbidden("current password is incorrect")
	}

	hash, err := s.passwords.Hash(updated)
	if err != nil {
		return apperror.ValidationFailed("newPassword", err.Error())
	}
	user.PasswordHash = hash

	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.logger.Info("password updated", slog.String("userID", user.ID))
	return nil
}

// CheckEmail reports whether an account with the given email exists.
// Exposed publicly so registration forms can warn before submitting.
func (s *UserService) CheckEmail(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, apperror.ValidationFailed("email", "email is required")
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SetAdmin grants the admin capability to the given user. Only reachable
// through an admin-gated route; granting to an existing admin is a no-op.
// There is deliberately no revoke operation — removing admin rights is a
// manual, out-of-band decision in this product.
func (s *UserService) SetAdmin(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !user.IsAdmin {
		user.IsAdmin = true
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("admin granted", slog.String("userID", user.ID))
	}

	return user, nil
}

// ListAll returns every account. Admin-gated at the router.
func (s *UserService) ListAll(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/user: listing users: %w", err)
	}
	return users, nil
}
