package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/advyta/dashboard/internal/apperror"
	"github.com/advyta/dashboard/internal/model"
	"github.com/advyta/dashboard/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, email, password_hash, github, bio, location,
	website, phone, theme, is_verified, is_admin, created_at, updated_at`

// Create inserts a new account, generating the id and timestamps. Unique
// violations on username or email come back as apperror.ErrConflict; the
// service pre-checks both to produce field-specific messages, so hitting
// the constraint here means a lost race.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	if user.Theme == "" {
		user.Theme = model.ThemeLight
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, github, bio,
			location, website, phone, theme, is_verified, is_admin, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.GitHub, user.Bio, user.Location, user.Website, user.Phone,
		user.Theme, user.IsVerified, user.IsAdmin, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}
	return nil
}

// GetByID retrieves an account by its internal id.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return db.scanOne(
		db.conn.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = ?`, id),
		"User not found",
	)
}

// FindByUsername retrieves an account by username.
func (db *DB) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.scanOne(
		db.conn.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE username = ?`, username),
		"User does not exist",
	)
}

// FindByUsernameOrEmail retrieves an account matching either value. When
// both match different rows, the username match wins — signup reports the
// username conflict first, like the original duplicate check.
func (db *DB) FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	return db.scanOne(
		db.conn.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE username = ? OR email = ?
			 ORDER BY CASE WHEN username = ? THEN 0 ELSE 1 END LIMIT 1`,
			username, email, username),
		"User not found",
	)
}

// UpdateProfile applies the non-nil fields of upd and returns the updated
// record. The SET clause is built only from the allow-listed fields carried
// by model.ProfileUpdate, so the password hash and flags are untouchable
// through this path.
func (db *DB) UpdateProfile(ctx context.Context, id string, upd model.ProfileUpdate) (*model.User, error) {
	sets := make([]string, 0, 8)
	args := make([]any, 0, 9)

	add := func(column string, value *string) {
		if value != nil {
			sets = append(sets, column+" = ?")
			args = append(args, *value)
		}
	}
	add("email", upd.Email)
	add("github", upd.GitHub)
	add("bio", upd.Bio)
	add("location", upd.Location)
	add("website", upd.Website)
	add("phone", upd.Phone)
	add("theme", upd.Theme)

	if len(sets) > 0 {
		sets = append(sets, "updated_at = ?")
		args = append(args, time.Now().UTC())
		args = append(args, id)

		res, err := db.conn.ExecContext(ctx,
			`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			if isUniqueViolation(err) {
				// Changing email to one another account owns.
				return nil, apperror.ValidationFailed("email", "Email already exists")
			}
			return nil, fmt.Errorf("sqlite: updating user %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, apperror.NotFound("User not found")
		}
	}

	return db.GetByID(ctx, id)
}

func (db *DB) scanOne(row *sql.Row, notFoundMsg string) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.GitHub, &u.Bio, &u.Location, &u.Website, &u.Phone, &u.Theme,
		&u.IsVerified, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound(notFoundMsg)
		}
		return nil, fmt.Errorf("sqlite: scanning user: %w", err)
	}
	return &u, nil
}

// isUniqueViolation detects SQLite's UNIQUE constraint error. modernc's
// driver error text is stable enough to match on.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
