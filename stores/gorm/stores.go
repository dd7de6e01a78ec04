package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"

	ca "github.com/velumani/cloudauth"
)

// UserStore implements ca.UserStore using GORM.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// AutoMigrate runs the database migrations for the users table.
func (s *UserStore) AutoMigrate() error {
	return s.db.AutoMigrate(&UserModel{})
}

func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (*ca.User, error) {
	var model UserModel
	err := s.db.WithContext(ctx).First(&model, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToUser(), nil
}

func (s *UserStore) SaveNewUser(ctx context.Context, rec ca.NewUser) (*ca.User, error) {
	displayName := rec.DisplayName
	if displayName == "" {
		displayName = ca.DisplayNameFromEmail(rec.Email)
	}

	model := &UserModel{
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		GoogleID:     rec.GoogleID,
		DisplayName:  displayName,
		Role:         rec.Role,
	}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		// The unique index turns a concurrent duplicate into an error
		// instead of a second record.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ca.ErrDuplicateEmail
		}
		return nil, err
	}
	return model.ToUser(), nil
}

func (s *UserStore) FindOrCreateGoogleUser(ctx context.Context, googleID, email, displayName string) (*ca.User, error) {
	var out *ca.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model UserModel
		err := tx.First(&model, "google_id = ?", googleID).Error
		if err == nil {
			out = model.ToUser()
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// Fall back to linking by email so a password account gains
		// Google sign-in instead of a duplicate record.
		err = tx.First(&model, "email = ?", email).Error
		if err == nil {
			model.GoogleID = &googleID
			if displayName != "" {
				model.DisplayName = displayName
			}
			if err := tx.Save(&model).Error; err != nil {
				return err
			}
			out = model.ToUser()
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if displayName == "" {
			displayName = ca.DisplayNameFromEmail(email)
		}
		model = UserModel{
			Email:       email,
			GoogleID:    &googleID,
			DisplayName: displayName,
		}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		out = model.ToUser()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *UserStore) GetAllUsers(ctx context.Context) ([]*ca.User, error) {
	var models []UserModel
	if err := s.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	users := make([]*ca.User, len(models))
	for i := range models {
		users[i] = models[i].ToUser()
	}
	return users, nil
}
