// Package service holds the business rules between the HTTP handlers and
// the repositories.
//
//	Handler (HTTP) → Service (validation, ownership, orchestration) → Repository (SQL)
//
// Services take and return model types and apperror values only; they know
// nothing about HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"

	"github.com/sakif/todolist/internal/apperror"
	"github.com/sakif/todolist/internal/auth"
	"github.com/sakif/todolist/internal/model"
	"github.com/sakif/todolist/internal/repository"
)

// AuthService registers users, checks their credentials and resolves
// bearer tokens back to accounts.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

var _ auth.TokenResolver = (*AuthService)(nil)

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

func invalidCredentials() error {
	return apperror.Unauthorized("invalid credentials")
}

// Register creates an account. It does not log the user in.
func (s *AuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.Conflict("email", "email already registered")
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent registration can still win the UNIQUE constraint.
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.Int64("userID", user.ID))
	return user, nil
}

// Authenticate returns the user for a matching email and password. An
// unknown email and a wrong password produce the same error, and both cost
// one bcrypt comparison.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.Verify(s.dummy(), password)
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if !s.passwords.Verify(user.PasswordHash, password) {
		return nil, invalidCredentials()
	}
	return user, nil
}

// Login authenticates and issues an access token whose subject is the
// user's email.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Generate(user.Email)
	if err != nil {
		return "", fmt.Errorf("service/auth: issuing token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))
	return token, nil
}

// LoginWithGitHub signs in the account owning the GitHub email, creating
// it on first use. Accounts created this way have no password and can only
// sign in through GitHub.
func (s *AuthService) LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (string, error) {
	if ghUser == nil || ghUser.Email == "" {
		return "", fmt.Errorf("service/auth: GitHub user must carry an email")
	}

	user, err := s.users.GetByEmail(ctx, ghUser.Email)
	if errors.Is(err, apperror.ErrNotFound) {
		user = &model.User{Email: ghUser.Email}
		err = s.users.Create(ctx, user)
		if errors.Is(err, apperror.ErrConflict) {
			user, err = s.users.GetByEmail(ctx, ghUser.Email)
		} else if err == nil {
			s.logger.Info("user registered via GitHub",
				slog.Int64("userID", user.ID),
				slog.String("login", ghUser.Login),
			)
		}
	}
	if err != nil {
		return "", fmt.Errorf("service/auth: resolving GitHub user %d: %w", ghUser.ID, err)
	}

	token, err := s.tokens.Generate(user.Email)
	if err != nil {
		return "", fmt.Errorf("service/auth: issuing token for user %d: %w", user.ID, err)
	}
	return token, nil
}

// ResolveToken implements auth.TokenResolver.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (*model.User, error) {
	email, err := s.tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.Unauthorized("invalid token"), err)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("token subject has no account")
		}
		return nil, fmt.Errorf("service/auth: loading token subject: %w", err)
	}
	return user, nil
}

// dummy is a real bcrypt hash compared against when the email is unknown.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.passwords.Hash("timing-equaliser")
	})
	return s.dummyHash
}

func validateEmail(email string) error {
	invalid := apperror.ValidationFailed("email", "invalid email address")
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid
	}
	_, domain, _ := strings.Cut(email, "@")
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return invalid
	}
	return nil
}
