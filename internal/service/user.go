package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/sakif/recipe-api/internal/apperror"
	"github.com/sakif/recipe-api/internal/auth"
	"github.com/sakif/recipe-api/internal/model"
	"github.com/sakif/recipe-api/internal/repository"
)

const (
	MinPasswordLength = 5
	MaxNameLength     = 255
	MaxEmailLength    = 255
)

const msgBadCredentials = "unable to authenticate with provided credentials"

// UserService owns account creation, password checks and token login.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
	}
}

// AuthResult bundles the user and the token issued for them so the handler
// can respond (or set a cookie) in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// CreateUser creates an active, non-staff account. The email is required
// and its domain is lowercased before saving. An empty password leaves the
// account without a usable password.
func (s *UserService) CreateUser(ctx context.Context, email, password, name string) (*model.User, error) {
	return s.create(ctx, email, password, name, false)
}

// CreateSuperuser creates an account with is_staff and is_superuser set.
func (s *UserService) CreateSuperuser(ctx context.Context, email, password string) (*model.User, error) {
	return s.create(ctx, email, password, "", true)
}

func (s *UserService) create(ctx context.Context, email, password, name string, superuser bool) (*model.User, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "users must have an email address")
	}
	if utf8.RuneCountInString(email) > MaxEmailLength {
		return nil, apperror.ValidationFailed("email",
			fmt.Sprintf("email must be %d characters or less", MaxEmailLength))
	}
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      superuser,
		IsSuperuser:  superuser,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.Conflict("user", email)
		}
		s.logger.Error("failed to create user",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created",
		slog.Int64("id", user.ID),
		slog.String("email", user.Email),
		slog.Bool("superuser", superuser),
	)
	return user, nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	if password == "" {
		return s.passwords.Unusable(), nil
	}
	hash, err := s.passwords.Hash(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
	}
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return hash, nil
}

// CheckPassword reports whether raw matches the user's stored password.
func (s *UserService) CheckPassword(user *model.User, raw string) bool {
	if user == nil {
		return false
	}
	return s.passwords.Verify(user.PasswordHash, raw) == nil
}

// Register is the public sign-up path: on top of CreateUser's rules the email
// must parse as an address and the password must be at least
// MinPasswordLength characters.
func (s *UserService) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, apperror.ValidationFailed("email", "enter a valid email address")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	return s.CreateUser(ctx, email, password, name)
}

// Authenticate checks an email/password pair and returns a signed token.
// Unknown emails, wrong passwords and inactive accounts all fail with the
// same validation error.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (string, error) {
	badCredentials := apperror.ValidationFailed("", msgBadCredentials)

	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", badCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		return "", badCredentials
	}
	if err != nil {
		return "", fmt.Errorf("looking up user: %w", err)
	}

	if !user.IsActive || !s.CheckPassword(user, password) {
		s.logger.Info("login rejected", slog.Int64("userID", user.ID))
		return "", badCredentials
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", fmt.Errorf("issuing token for user %d: %w", user.ID, err)
	}
	return token, nil
}

// GetUser returns the user with the given id.
func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// ProfileUpdate lists the fields a user may change on their own account.
// Nil fields are left as they are.
type ProfileUpdate struct {
	Name     *string
	Password *string
}

// UpdateProfile applies a partial update to the user's own account.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if utf8.RuneCountInString(name) > MaxNameLength {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("name must be %d characters or less", MaxNameLength))
		}
		user.Name = name
	}
	if upd.Password != nil {
		if utf8.RuneCountInString(*upd.Password) < MinPasswordLength {
			return nil, apperror.ValidationFailed("password",
				fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
		}
		hash, err := s.hashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("updating user %d: %w", id, err)
	}

	s.logger.Info("profile updated", slog.Int64("id", user.ID))
	return user, nil
}

// LoginGitHub signs in the account whose email matches the GitHub profile,
// creating it on first login. Accounts created this way have no usable
// password until the user sets one through the profile endpoint.
func (s *UserService) LoginGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	if gh == nil {
		return nil, fmt.Errorf("service/user: GitHub user must not be nil")
	}
	email := model.NormalizeEmail(gh.Email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "GitHub account has no verified email address")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		name := gh.Name
		if name == "" {
			name = gh.Login
		}
		user, err = s.CreateUser(ctx, email, "", name)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if !user.IsActive {
		return nil, apperror.Unauthorized("account is disabled")
	}

	s.logger.Info("user authenticated via GitHub",
		slog.Int64("userID", user.ID),
		slog.String("login", gh.Login),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token for user %d: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
