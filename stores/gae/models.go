package gae

import (
	"time"

	"cloud.google.com/go/datastore"

	ca "github.com/velumani/cloudauth"
)

// Kind constants for Datastore entities.
const (
	KindUser       = "User"
	KindEmailIndex = "EmailIndex"
)

// UserEntity is the Datastore entity for credential records. Datastore has
// no nullable strings, so absent hash/google id are stored as "".
type UserEntity struct {
	Key          *datastore.Key `datastore:"__key__"`
	Email        string         `datastore:"email"`
	PasswordHash string         `datastore:"password_hash,noindex"`
	GoogleID     string         `datastore:"google_id"`
	DisplayName  string         `datastore:"display_name,noindex"`
	Role         string         `datastore:"role"`
	CreatedAt    time.Time      `datastore:"created_at"`
}

// EmailIndexEntity reserves an email. Keyed by the email itself; UserID
// points back at the owning User entity.
type EmailIndexEntity struct {
	UserID int64 `datastore:"user_id,noindex"`
}

func (e *UserEntity) ToUser() *ca.User {
	user := &ca.User{
		ID:          e.Key.ID,
		Email:       e.Email,
		DisplayName: e.DisplayName,
		Role:        e.Role,
		CreatedAt:   e.CreatedAt,
	}
	if e.PasswordHash != "" {
		hash := e.PasswordHash
		user.PasswordHash = &hash
	}
	if e.GoogleID != "" {
		gid := e.GoogleID
		user.GoogleID = &gid
	}
	return user
}
