package cloudauth

import (
	"context"
	"errors"
	"strings"
	"time"
)

// User is a credential store record. A record has PasswordHash set, GoogleID
// set, or both. Login must reject a record with neither rather than crash.
type User struct {
	ID           int64
	Email        string
	PasswordHash *string
	GoogleID     *string
	DisplayName  string
	Role         string
	CreatedAt    time.Time
}

// HasPassword reports whether password login is available for this account.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// PublicUser is the hash-scrubbed projection returned by the API.
type PublicUser struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
	}
}

// NewUser carries the fields for SaveNewUser. DisplayName defaults to the
// local part of the email when empty.
type NewUser struct {
	Email        string
	PasswordHash *string
	GoogleID     *string
	DisplayName  string
	Role         string
}

// ErrDuplicateEmail is returned by SaveNewUser when the email is taken.
var ErrDuplicateEmail = errors.New("email already registered")

// UserStore manages credential records. Implementations must make
// SaveNewUser's duplicate check atomic with the insert so two concurrent
// signups for the same email never both succeed.
type UserStore interface {
	// FindUserByEmail looks up a user by exact email match.
	// Returns (nil, nil) when no record exists.
	FindUserByEmail(ctx context.Context, email string) (*User, error)

	// SaveNewUser assigns the next sequential id, stamps CreatedAt and
	// inserts the record. Fails with ErrDuplicateEmail if the email is
	// already present.
	SaveNewUser(ctx context.Context, rec NewUser) (*User, error)

	// FindOrCreateGoogleUser links an external Google identity to a user:
	// match by google id first, then by email (attaching the google id to
	// the matched record), else create a fresh record.
	FindOrCreateGoogleUser(ctx context.Context, googleID, email, displayName string) (*User, error)

	// GetAllUsers returns every record. Callers project with Public()
	// before serving; hashes never leave the API layer.
	GetAllUsers(ctx context.Context) ([]*User, error)
}

// DisplayNameFromEmail derives a default display name from the local part of
// an email address.
func DisplayNameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
