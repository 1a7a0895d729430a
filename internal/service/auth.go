// Package service holds the business rules, between the HTTP handlers and
// the repository:
//
//	handler (HTTP) → AuthService (rules) → repository.UserRepository (DB)
//	              ↘ auth.TokenService (JWT), auth.PasswordService (bcrypt)
//
// Handlers never touch the database; the service never touches HTTP.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/advyta/dashboard/internal/apperror"
	"github.com/advyta/dashboard/internal/auth"
	"github.com/advyta/dashboard/internal/model"
	"github.com/advyta/dashboard/internal/repository"
)

// AuthService handles signup, login and profile management.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

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

// AuthResult bundles the user record and the issued session token so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Login verifies the credentials and issues a 12-hour session token.
//
// All three failure modes — missing fields, unknown username, wrong
// password — are validation errors (HTTP 400) carrying the message the UI
// surfaces verbatim.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return nil, apperror.ValidationFailed("username", "Username and password are required")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		// Unknown username maps to the same 400 as a bad password; only the
		// message differs.
		return nil, apperror.ValidationFailed("username", "User does not exist")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.ValidationFailed("password", "Invalid password")
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// Signup registers a new account. Duplicate usernames and emails produce
// field-specific validation errors; when both collide, the username wins.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || strings.TrimSpace(password) == "" {
		return nil, apperror.ValidationFailed("username", "Username, email and password are required")
	}

	existing, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if err == nil {
		if existing.Username == username {
			return nil, apperror.ValidationFailed("username", "Username already exists")
		}
		return nil, apperror.ValidationFailed("email", "Email already exists")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user %s: %w", username, err)
	}

	s.logger.Info("user signed up",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Profile returns the account behind a verified token. A missing record
// after a valid token is a fatal session condition — the handler maps the
// not-found to a redirect-worthy 404.
func (s *AuthService) Profile(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("token", "Invalid or missing token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}
	return user, nil
}

// UpdateProfile applies an allow-listed partial edit to the account.
// Blanking the email is rejected; bio length and theme values are checked
// here so every caller gets the same rules.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, upd model.ProfileUpdate) (*model.User, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("token", "Invalid or missing token")
	}

	if upd.Email != nil && strings.TrimSpace(*upd.Email) == "" {
		return nil, apperror.ValidationFailed("email", "Email cannot be empty")
	}
	if upd.Bio != nil && len(*upd.Bio) > model.MaxBioLength {
		return nil, apperror.ValidationFailed("bio",
			fmt.Sprintf("Bio must be %d characters or fewer", model.MaxBioLength))
	}
	if upd.Theme != nil && *upd.Theme != model.ThemeLight && *upd.Theme != model.ThemeDark {
		return nil, apperror.ValidationFailed("theme", "Theme must be light or dark")
	}

	user, err := s.users.UpdateProfile(ctx, userID, upd)
	if err != nil {
		return nil, fmt.Errorf("service/auth: updating profile for user %s: %w", userID, err)
	}

	s.logger.Info("profile updated", slog.String("userID", userID))
	return user, nil
}
