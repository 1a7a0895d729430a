// Package repository declares the storage interfaces the service layer
// depends on. Concrete backends live in subpackages (sqlite).
package repository

import (
	"context"

	"github.com/advyta/dashboard/internal/model"
)

// UserRepository is the credential store adapter: lookup by id, username or
// email, account creation, and field-limited profile updates. Password-hash
// verification is the caller's concern — the repository only moves records.
type UserRepository interface {
	// Create inserts a new account. Returns apperror.ErrConflict if the
	// username or email is already taken.
	Create(ctx context.Context, user *model.User) error

	// GetByID returns the account with the given id, or apperror.ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername returns the account with the given username, or
	// apperror.ErrNotFound.
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByUsernameOrEmail returns an account matching either value, or
	// apperror.ErrNotFound if neither is taken. Used by signup to produce
	// a field-specific duplicate error.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)

	// UpdateProfile applies the non-nil fields of upd to the account and
	// returns the updated record. Fields outside the allow-list cannot be
	// touched by construction. Returns apperror.ErrNotFound for unknown ids.
	UpdateProfile(ctx context.Context, id string, upd model.ProfileUpdate) (*model.User, error)
}
