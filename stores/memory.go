package stores

import (
	"context"
	"sync"
	"time"

	ca "github.com/velumani/cloudauth"
)

// MemoryUserStore is the in-memory credential store used for development and
// tests. The mutex is held across the duplicate check and the insert, so
// concurrent signups for the same email cannot both succeed.
type MemoryUserStore struct {
	mu     sync.Mutex
	users  []*ca.User
	nextID int64
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{nextID: 1}
}

func (s *MemoryUserStore) FindUserByEmail(ctx context.Context, email string) (*ca.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.findByEmail(email); u != nil {
		return copyUser(u), nil
	}
	return nil, nil
}

func (s *MemoryUserStore) SaveNewUser(ctx context.Context, rec ca.NewUser) (*ca.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(rec)
}

func (s *MemoryUserStore) FindOrCreateGoogleUser(ctx context.Context, googleID, email, displayName string) (*ca.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return copyUser(u), nil
		}
	}

	if u := s.findByEmail(email); u != nil {
		// Existing password account with the same email gains Google
		// sign-in; a record is never duplicated for a known email.
		u.GoogleID = &googleID
		if displayName != "" {
			u.DisplayName = displayName
		}
		return copyUser(u), nil
	}

	return s.insert(ca.NewUser{
		Email:       email,
		GoogleID:    &googleID,
		DisplayName: displayName,
	})
}

func (s *MemoryUserStore) GetAllUsers(ctx context.Context) ([]*ca.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ca.User, len(s.users))
	for i, u := range s.users {
		out[i] = copyUser(u)
	}
	return out, nil
}

// insert assumes the lock is held.
func (s *MemoryUserStore) insert(rec ca.NewUser) (*ca.User, error) {
	if s.findByEmail(rec.Email) != nil {
		return nil, ca.ErrDuplicateEmail
	}

	displayName := rec.DisplayName
	if displayName == "" {
		displayName = ca.DisplayNameFromEmail(rec.Email)
	}

	user := &ca.User{
		ID:           s.nextID,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		GoogleID:     rec.GoogleID,
		DisplayName:  displayName,
		Role:         rec.Role,
		CreatedAt:    time.Now().UTC(),
	}
	s.nextID++
	s.users = append(s.users, user)
	return copyUser(user), nil
}

// findByEmail assumes the lock is held. Exact, case-sensitive match.
func (s *MemoryUserStore) findByEmail(email string) *ca.User {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func copyUser(u *ca.User) *ca.User {
	c := *u
	return &c
}
