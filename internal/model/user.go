// Package model defines the data structures used throughout the application.
package model

import "time"

// Theme values accepted for the user's dashboard theme preference.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// MaxBioLength is the upper bound on the profile bio text.
const MaxBioLength = 500

// User represents a registered account.
//
// Username and email are unique across the store. The password is held only
// as a bcrypt hash and is never serialized into API responses — note the
// `json:"-"` tag on PasswordHash.
type User struct {
	ID           string    `json:"id"         db:"id"`
	Username     string    `json:"username"   db:"username"`
	Email        string    `json:"email"      db:"email"`
	PasswordHash string    `json:"-"          db:"password_hash"`
	GitHub       string    `json:"github"     db:"github"` // profile link, may be empty
	Bio          string    `json:"bio"        db:"bio"`    // at most MaxBioLength characters
	Location     string    `json:"location"   db:"location"`
	Website      string    `json:"website"    db:"website"`
	Phone        string    `json:"phone"      db:"phone"`
	Theme        string    `json:"theme"      db:"theme"` // "light" or "dark"
	IsVerified   bool      `json:"isVerified" db:"is_verified"`
	IsAdmin      bool      `json:"isAdmin"    db:"is_admin"`
	CreatedAt    time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"  db:"updated_at"`
}

// ProfileUpdate carries a partial profile edit. Only the listed fields are
// writable through the API; nil means "leave unchanged", a pointer to the
// empty string means "explicitly blank this field".
type ProfileUpdate struct {
	Email    *string `json:"email,omitempty"`
	GitHub   *string `json:"github,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Location *string `json:"location,omitempty"`
	Website  *string `json:"website,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Theme    *string `json:"theme,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (p ProfileUpdate) IsEmpty() bool {
	return p.Email == nil && p.GitHub == nil && p.Bio == nil &&
		p.Location == nil && p.Website == nil && p.Phone == nil && p.Theme == nil
}
